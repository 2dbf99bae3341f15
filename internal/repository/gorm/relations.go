package gormrepository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

// visibleInstrument loads an instrument the owner may reference: their own or a public one.
func visibleInstrument(ctx context.Context, db *gorm.DB, uid, ownerUID uint64) (*models.Instrument, error) {
	var item models.Instrument
	err := db.WithContext(ctx).
		Where("uid = ?", uid).
		Where("owner_uid = ? OR public = ?", ownerUID, true).
		Take(&item).Error
	return relation(&item, err, "instrument", uid)
}

func visibleStrategy(ctx context.Context, db *gorm.DB, uid, ownerUID uint64) (*models.Strategy, error) {
	var item models.Strategy
	err := db.WithContext(ctx).
		Where("uid = ?", uid).
		Where("owner_uid = ? OR public = ?", ownerUID, true).
		Take(&item).Error
	return relation(&item, err, "strategy", uid)
}

// visibleStyle also admits owner-less system styles.
func visibleStyle(ctx context.Context, db *gorm.DB, uid, ownerUID uint64) (*models.Style, error) {
	var item models.Style
	err := db.WithContext(ctx).
		Where("uid = ?", uid).
		Where("owner_uid IS NULL OR owner_uid = ? OR public = ?", ownerUID, true).
		Take(&item).Error
	return relation(&item, err, "style", uid)
}

func relation[T any](item *T, err error, resource string, uid uint64) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &repository.NotFoundError{Resource: resource, UID: uid}
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// reference is a column in another table that points at the row being deleted.
type reference struct {
	model  any
	column string
}

// restrictDelete refuses the delete while any reference still points at uid.
// The database enforces the same rule; checking first keeps the error typed on every driver.
func restrictDelete(resource string, refs ...reference) func(tx *gorm.DB, uid uint64) error {
	return func(tx *gorm.DB, uid uint64) error {
		for _, ref := range refs {
			var n int64
			if err := tx.Model(ref.model).Where(ref.column+" = ?", uid).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return &repository.InUseError{Resource: resource, UID: uid}
			}
		}
		return nil
	}
}

// purgeUserJournal removes the rows a user's cascade cannot reach on its own: study
// children are restricted by their study, and trades restrict the user's instruments,
// strategies and styles. Rows of other users that still reference the user's records
// block the delete.
func purgeUserJournal(tx *gorm.DB, uid uint64) error {
	studies := tx.Model(&models.Study{}).Select("uid").Where("owner_uid = ?", uid)
	items := tx.Model(&models.StudyItem{}).Select("uid").Where("study_uid IN (?)", studies)

	if err := tx.Where("study_item_uid IN (?)", items).Delete(&models.StudyItemAttribute{}).Error; err != nil {
		return err
	}
	if err := tx.Where("study_uid IN (?)", studies).Delete(&models.StudyItem{}).Error; err != nil {
		return err
	}
	if err := tx.Where("attribute_uid IN (?)",
		tx.Model(&models.Attribute{}).Select("uid").Where("study_uid IN (?)", studies),
	).Delete(&models.StudyItemAttribute{}).Error; err != nil {
		return err
	}
	if err := tx.Where("study_uid IN (?)", studies).Delete(&models.Attribute{}).Error; err != nil {
		return err
	}
	if err := tx.Where("owner_uid = ?", uid).Delete(&models.Trade{}).Error; err != nil {
		return err
	}

	instruments := tx.Model(&models.Instrument{}).Select("uid").Where("owner_uid = ?", uid)
	strategies := tx.Model(&models.Strategy{}).Select("uid").Where("owner_uid = ?", uid)
	styles := tx.Model(&models.Style{}).Select("uid").Where("owner_uid = ?", uid)

	var n int64
	err := tx.Model(&models.Trade{}).
		Where("instrument_uid IN (?) OR strategy_uid IN (?) OR style_uid IN (?)", instruments, strategies, styles).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		err = tx.Model(&models.StudyItem{}).
			Where("instrument_uid IN (?) OR style_uid IN (?)", instruments, styles).
			Count(&n).Error
		if err != nil {
			return err
		}
	}
	if n > 0 {
		return &repository.InUseError{Resource: "user", UID: uid}
	}
	return nil
}
