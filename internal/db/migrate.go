package db

import (
	"github.com/webclinic017/sagetrader-api/internal/models"
)

// AutoMigrate creates the journal schema. Parents come before children so
// foreign keys resolve on databases that check them at create time.
func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}
	if err := db.Gorm.SetupJoinTable(&models.StudyItem{}, "Attributes", &models.StudyItemAttribute{}); err != nil {
		return err
	}
	return db.Gorm.AutoMigrate(
		&models.User{},
		&models.Instrument{},
		&models.Strategy{},
		&models.Style{},
		&models.Trade{},
		&models.TradingPlan{},
		&models.Task{},
		&models.WatchList{},
		&models.Study{},
		&models.Attribute{},
		&models.StudyItem{},
		&models.StudyItemAttribute{},
		&models.StrategyImage{},
		&models.TradeImage{},
		&models.StudyItemImage{},
	)
}
