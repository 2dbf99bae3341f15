package gormrepository

import (
	"context"

	"gorm.io/gorm"

	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

// Store bundles every journal repository over one gorm handle.
type Store struct {
	db *gorm.DB

	Users        *UserStore
	Instruments  *InstrumentStore
	Strategies   *StrategyStore
	Styles       *StyleStore
	Trades       *TradeStore
	TradingPlans *TradingPlanStore
	Tasks        *TaskStore
	WatchLists   *WatchListStore
	Studies      *StudyStore
	Attributes   *AttributeStore
	StudyItems   *StudyItemStore
	Images       *ImageStore
}

var namedFields = []string{"uid", "name", "public", "owner_uid", "created_at", "updated_at"}

// New builds the store and validates every field registry against the schema.
func New(db *gorm.DB) (*Store, error) {
	s := &Store{db: db, Images: &ImageStore{db: db}}
	if err := db.SetupJoinTable(&models.StudyItem{}, "Attributes", &models.StudyItemAttribute{}); err != nil {
		return nil, err
	}
	var err error

	if s.Users, err = newUserStore(db); err != nil {
		return nil, err
	}
	if s.Instruments, err = newInstrumentStore(db); err != nil {
		return nil, err
	}
	if s.Strategies, err = newStrategyStore(db); err != nil {
		return nil, err
	}
	if s.Styles, err = newStyleStore(db); err != nil {
		return nil, err
	}
	if s.Trades, err = newTradeStore(db); err != nil {
		return nil, err
	}
	if s.TradingPlans, err = newTradingPlanStore(db); err != nil {
		return nil, err
	}
	if s.Tasks, err = newTaskStore(db); err != nil {
		return nil, err
	}
	if s.WatchLists, err = newWatchListStore(db); err != nil {
		return nil, err
	}
	if s.Studies, err = newStudyStore(db); err != nil {
		return nil, err
	}
	if s.Attributes, err = newAttributeStore(db); err != nil {
		return nil, err
	}
	if s.StudyItems, err = newStudyItemStore(db); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

var (
	_ repository.UserRepository        = (*UserStore)(nil)
	_ repository.InstrumentRepository  = (*InstrumentStore)(nil)
	_ repository.StrategyRepository    = (*StrategyStore)(nil)
	_ repository.StyleRepository       = (*StyleStore)(nil)
	_ repository.TradeRepository       = (*TradeStore)(nil)
	_ repository.TradingPlanRepository = (*TradingPlanStore)(nil)
	_ repository.TaskRepository        = (*TaskStore)(nil)
	_ repository.WatchListRepository   = (*WatchListStore)(nil)
	_ repository.StudyRepository       = (*StudyStore)(nil)
	_ repository.AttributeRepository   = (*AttributeStore)(nil)
	_ repository.StudyItemRepository   = (*StudyItemStore)(nil)
	_ repository.ImageRepository       = (*ImageStore)(nil)
)

