package service

import (
	"context"
	"io"
	"path"
	"strconv"

	"go.uber.org/zap"

	"github.com/webclinic017/sagetrader-api/internal/assets"
	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

const imageListLimit = 100

type ImageService struct {
	Images     repository.ImageRepository
	Strategies repository.StrategyRepository
	Trades     repository.TradeRepository
	StudyItems repository.StudyItemRepository
	Studies    repository.StudyRepository
	Assets     assets.Store
	Stager     assets.Stager
	FolderRoot string
	MaxBytes   int64
	Logger     *zap.Logger
}

type Upload struct {
	File     io.Reader
	Filename string
	Alt      string
	Tags     []string
}

// Upload stages the file, pushes it to the asset service and records the returned metadata.
func (s *ImageService) Upload(ctx context.Context, ownerUID uint64, kind models.ImageKind, parentUID uint64, up Upload) (*models.Image, error) {
	if err := s.ownsParent(ctx, kind, parentUID, ownerUID); err != nil {
		return nil, err
	}
	staged, err := s.Stager.Stage(up.File, up.Filename, s.MaxBytes)
	if err != nil {
		return nil, &repository.ValidationError{Field: "file", Reason: err.Error()}
	}
	defer s.Stager.Discard(staged)

	tags := up.Tags
	if tags == nil {
		tags = []string{}
	}
	asset, err := s.Assets.Upload(ctx, staged, assets.UploadOptions{
		Folder: path.Join(s.FolderRoot, string(kind)),
		Alt:    up.Alt,
		Tags:   tags,
	})
	if err != nil {
		return nil, err
	}
	if asset.Alt == "" {
		asset.Alt = up.Alt
	}
	if asset.Tags == nil {
		asset.Tags = assets.TagsJSON(tags)
	}
	img, err := s.Images.Attach(ctx, kind, parentUID, asset)
	if err != nil {
		s.logger().Warn("image row insert failed after upload",
			zap.String("kind", string(kind)),
			zap.Uint64("parent_uid", parentUID),
			zap.String("public_uid", asset.PublicUID),
			zap.Error(err),
		)
		return nil, err
	}
	return img, nil
}

func (s *ImageService) List(ctx context.Context, ownerUID uint64, kind models.ImageKind, parentUID uint64) ([]models.Image, error) {
	if err := s.ownsParent(ctx, kind, parentUID, ownerUID); err != nil {
		return nil, err
	}
	return s.Images.ListByParent(ctx, kind, parentUID, imageListLimit)
}

// Delete removes the remote asset first and the row only once the asset service confirms.
func (s *ImageService) Delete(ctx context.Context, ownerUID uint64, kind models.ImageKind, uid uint64) (*models.Image, error) {
	img, err := s.Images.Get(ctx, kind, uid)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, &repository.NotFoundError{Resource: string(kind) + " image", UID: uid}
	}
	if err := s.ownsParent(ctx, kind, img.ParentUID, ownerUID); err != nil {
		return nil, &repository.NotFoundError{Resource: string(kind) + " image", UID: uid}
	}
	result, err := s.Assets.Destroy(ctx, img.PublicUID)
	if err != nil {
		return nil, err
	}
	if result != assets.DestroyOK {
		return nil, &assets.ExternalServiceError{Op: "destroy", Status: result}
	}
	return s.Images.Remove(ctx, kind, uid)
}

func (s *ImageService) ownsParent(ctx context.Context, kind models.ImageKind, parentUID, ownerUID uint64) error {
	switch kind {
	case models.ImageKindStrategy:
		item, err := s.Strategies.GetForOwner(ctx, parentUID, ownerUID)
		return presence(item, err, "strategy", parentUID)
	case models.ImageKindTrade:
		item, err := s.Trades.GetForOwner(ctx, parentUID, ownerUID)
		return presence(item, err, "trade", parentUID)
	case models.ImageKindStudyItem:
		item, err := s.StudyItems.Get(ctx, parentUID)
		if err := presence(item, err, "studyitem", parentUID); err != nil {
			return err
		}
		study, err := s.Studies.GetForOwner(ctx, item.StudyUID, ownerUID)
		if err != nil {
			return err
		}
		if study == nil {
			return &repository.NotFoundError{Resource: "studyitem", UID: parentUID}
		}
		return nil
	}
	return &repository.ValidationError{Field: "parent", Reason: "unknown image parent " + strconv.Quote(string(kind))}
}

func presence[T any](item *T, err error, resource string, uid uint64) error {
	if err != nil {
		return err
	}
	if item == nil {
		return &repository.NotFoundError{Resource: resource, UID: uid}
	}
	return nil
}

func (s *ImageService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
