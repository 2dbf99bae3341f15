package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

type attributeSetter interface {
	AttributeUIDs() []uint64
}

type StudyItemStore struct {
	*Resource[models.StudyItem]
}

func newStudyItemStore(db *gorm.DB) (*StudyItemStore, error) {
	r, err := newResource[models.StudyItem](db, "study item",
		[]string{"Instrument", "Style", "Attributes"},
		"uid", "name", "public", "date", "study_uid", "instrument_uid", "style_uid",
		"position", "outcome", "pips", "rrr", "created_at", "updated_at",
	)
	if err != nil {
		return nil, err
	}
	r.beforeDelete = func(tx *gorm.DB, uid uint64) error {
		return tx.Where("study_item_uid = ?", uid).Delete(&models.StudyItemAttribute{}).Error
	}
	return &StudyItemStore{r}, nil
}

func (s *StudyItemStore) GetByName(ctx context.Context, name string) (*models.StudyItem, error) {
	return s.first(ctx, clause.Eq{Column: column("name"), Value: strings.TrimSpace(name)})
}

func (s *StudyItemStore) ListByStudy(ctx context.Context, studyUID uint64, skip, limit int) ([]models.StudyItem, error) {
	return s.find(ctx, []repository.Filter{repository.Eq("study_uid", studyUID)}, skip, limit)
}

// Create links instrument, style and the submitted attributes. Repeated attribute ids are added once.
func (s *StudyItemStore) Create(ctx context.Context, in repository.Input[models.StudyItem], ownerUID uint64) (*models.StudyItem, error) {
	item, err := in.Build(ownerUID)
	if err != nil {
		return nil, err
	}
	attrs, err := s.link(ctx, &item, in)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
			return repository.TranslateWriteError(err, s.name)
		}
		return addAttributes(tx, item.UID, attrs)
	})
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, item.UID)
}

// Update replaces the attribute set wholesale when the input carries one.
func (s *StudyItemStore) Update(ctx context.Context, existing *models.StudyItem, in repository.Input[models.StudyItem]) (*models.StudyItem, error) {
	if existing == nil {
		return nil, &repository.NotFoundError{Resource: s.name}
	}
	if err := in.Apply(existing); err != nil {
		return nil, err
	}
	attrs, err := s.link(ctx, existing, in)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(existing).Error; err != nil {
			return repository.TranslateWriteError(err, s.name)
		}
		if attrs == nil {
			return nil
		}
		if err := tx.Where("study_item_uid = ?", existing.UID).Delete(&models.StudyItemAttribute{}).Error; err != nil {
			return err
		}
		return addAttributes(tx, existing.UID, attrs)
	})
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, existing.UID)
}

// link resolves relations against the owning study. A nil attribute slice means the
// input did not mention attributes.
func (s *StudyItemStore) link(ctx context.Context, item *models.StudyItem, in any) ([]uint64, error) {
	var study models.Study
	err := s.db.WithContext(ctx).Where("uid = ?", item.StudyUID).Take(&study).Error
	if _, err := relation(&study, err, "study", item.StudyUID); err != nil {
		return nil, err
	}
	instrument, err := visibleInstrument(ctx, s.db, item.InstrumentUID, study.OwnerUID)
	if err != nil {
		return nil, err
	}
	style, err := visibleStyle(ctx, s.db, item.StyleUID, study.OwnerUID)
	if err != nil {
		return nil, err
	}
	item.Instrument, item.InstrumentUID = instrument, instrument.UID
	item.Style, item.StyleUID = style, style.UID

	setter, ok := in.(attributeSetter)
	if !ok {
		return nil, nil
	}
	uids := setter.AttributeUIDs()
	if uids == nil {
		return nil, nil
	}
	if len(uids) == 0 {
		return []uint64{}, nil
	}
	var found []models.Attribute
	if err := s.db.WithContext(ctx).Where("uid IN ?", uids).Find(&found).Error; err != nil {
		return nil, err
	}
	byUID := make(map[uint64]models.Attribute, len(found))
	for _, a := range found {
		byUID[a.UID] = a
	}
	for _, uid := range uids {
		a, ok := byUID[uid]
		if !ok {
			return nil, &repository.NotFoundError{Resource: "attribute", UID: uid}
		}
		if a.StudyUID != item.StudyUID {
			return nil, &repository.ValidationError{Field: "attributes", Reason: "attribute belongs to another study"}
		}
	}
	return uids, nil
}

func addAttributes(tx *gorm.DB, studyItemUID uint64, attributeUIDs []uint64) error {
	if len(attributeUIDs) == 0 {
		return nil
	}
	rows := make([]models.StudyItemAttribute, 0, len(attributeUIDs))
	for _, uid := range attributeUIDs {
		rows = append(rows, models.StudyItemAttribute{StudyItemUID: studyItemUID, AttributeUID: uid})
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
