package service

import (
	"context"

	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

// StudyService assembles study views and guards study-scoped children.
type StudyService struct {
	Studies    repository.StudyRepository
	Attributes repository.AttributeRepository
}

// Owned returns the study if ownerUID owns it, NotFoundError otherwise.
func (s *StudyService) Owned(ctx context.Context, uid, ownerUID uint64) (*models.Study, error) {
	study, err := s.Studies.GetForOwner(ctx, uid, ownerUID)
	if err != nil {
		return nil, err
	}
	if study == nil {
		return nil, &repository.NotFoundError{Resource: "study", UID: uid}
	}
	return study, nil
}

func (s *StudyService) ListWithAttributes(ctx context.Context, ownerUID uint64, skip, limit int) ([]models.StudyWithAttributes, error) {
	studies, err := s.Studies.ListForOwner(ctx, ownerUID, skip, limit)
	if err != nil {
		return nil, err
	}
	return s.withAttributes(ctx, studies)
}

func (s *StudyService) GetWithAttributes(ctx context.Context, uid, ownerUID uint64) (*models.StudyWithAttributes, error) {
	study, err := s.Owned(ctx, uid, ownerUID)
	if err != nil {
		return nil, err
	}
	out, err := s.withAttributes(ctx, []models.Study{*study})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *StudyService) withAttributes(ctx context.Context, studies []models.Study) ([]models.StudyWithAttributes, error) {
	out := make([]models.StudyWithAttributes, 0, len(studies))
	if len(studies) == 0 {
		return out, nil
	}
	uids := make([]uint64, 0, len(studies))
	for _, st := range studies {
		uids = append(uids, st.UID)
	}
	attrs, err := s.Attributes.ListByStudies(ctx, uids)
	if err != nil {
		return nil, err
	}
	byStudy := map[uint64][]models.Attribute{}
	for _, a := range attrs {
		byStudy[a.StudyUID] = append(byStudy[a.StudyUID], a)
	}
	for _, st := range studies {
		list := byStudy[st.UID]
		if list == nil {
			list = []models.Attribute{}
		}
		out = append(out, models.StudyWithAttributes{Study: st, Attributes: list})
	}
	return out, nil
}
