package gormrepository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

// ImageStore persists image metadata for strategies, trades and study items.
type ImageStore struct {
	db *gorm.DB
}

type imageRow[T any] interface {
	*T
	View() models.Image
}

func (s *ImageStore) Attach(ctx context.Context, kind models.ImageKind, parentUID uint64, asset models.ImageAsset) (*models.Image, error) {
	switch kind {
	case models.ImageKindStrategy:
		return attachImage(ctx, s.db, &models.StrategyImage{ImageAsset: asset, StrategyUID: parentUID})
	case models.ImageKindTrade:
		return attachImage(ctx, s.db, &models.TradeImage{ImageAsset: asset, TradeUID: parentUID})
	case models.ImageKindStudyItem:
		return attachImage(ctx, s.db, &models.StudyItemImage{ImageAsset: asset, StudyItemUID: parentUID})
	}
	return nil, unknownKind(kind)
}

func (s *ImageStore) Get(ctx context.Context, kind models.ImageKind, uid uint64) (*models.Image, error) {
	switch kind {
	case models.ImageKindStrategy:
		return getImage[models.StrategyImage](ctx, s.db, uid)
	case models.ImageKindTrade:
		return getImage[models.TradeImage](ctx, s.db, uid)
	case models.ImageKindStudyItem:
		return getImage[models.StudyItemImage](ctx, s.db, uid)
	}
	return nil, unknownKind(kind)
}

func (s *ImageStore) ListByParent(ctx context.Context, kind models.ImageKind, parentUID uint64, limit int) ([]models.Image, error) {
	limit = normalizeLimit(limit, 100)
	switch kind {
	case models.ImageKindStrategy:
		return listImages[models.StrategyImage](ctx, s.db, "strategy_uid", parentUID, limit)
	case models.ImageKindTrade:
		return listImages[models.TradeImage](ctx, s.db, "trade_uid", parentUID, limit)
	case models.ImageKindStudyItem:
		return listImages[models.StudyItemImage](ctx, s.db, "studyitem_uid", parentUID, limit)
	}
	return nil, unknownKind(kind)
}

// Remove deletes the row and returns it as it was.
func (s *ImageStore) Remove(ctx context.Context, kind models.ImageKind, uid uint64) (*models.Image, error) {
	switch kind {
	case models.ImageKindStrategy:
		return removeImage[models.StrategyImage](ctx, s.db, uid)
	case models.ImageKindTrade:
		return removeImage[models.TradeImage](ctx, s.db, uid)
	case models.ImageKindStudyItem:
		return removeImage[models.StudyItemImage](ctx, s.db, uid)
	}
	return nil, unknownKind(kind)
}

func attachImage[T any, PT imageRow[T]](ctx context.Context, db *gorm.DB, row PT) (*models.Image, error) {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return nil, repository.TranslateWriteError(err, "image")
	}
	view := row.View()
	return &view, nil
}

func getImage[T any, PT imageRow[T]](ctx context.Context, db *gorm.DB, uid uint64) (*models.Image, error) {
	var row T
	err := db.WithContext(ctx).Where("uid = ?", uid).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	view := PT(&row).View()
	return &view, nil
}

func listImages[T any, PT imageRow[T]](ctx context.Context, db *gorm.DB, parentColumn string, parentUID uint64, limit int) ([]models.Image, error) {
	var rows []T
	err := db.WithContext(ctx).
		Where(clause.Eq{Column: column(parentColumn), Value: parentUID}).
		Order("uid asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]models.Image, 0, len(rows))
	for i := range rows {
		out = append(out, PT(&rows[i]).View())
	}
	return out, nil
}

func removeImage[T any, PT imageRow[T]](ctx context.Context, db *gorm.DB, uid uint64) (*models.Image, error) {
	view, err := getImage[T, PT](ctx, db, uid)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, &repository.NotFoundError{Resource: "image", UID: uid}
	}
	if err := db.WithContext(ctx).Where("uid = ?", uid).Delete(new(T)).Error; err != nil {
		return nil, err
	}
	return view, nil
}

func unknownKind(kind models.ImageKind) error {
	return &repository.ValidationError{Field: "kind", Reason: "unknown image parent " + string(kind)}
}
