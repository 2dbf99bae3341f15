package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

type UserStore struct {
	*Resource[models.User]
}

func newUserStore(db *gorm.DB) (*UserStore, error) {
	r, err := newResource[models.User](db, "user", nil, "uid", "email", "is_active", "is_superuser", "created_at")
	if err != nil {
		return nil, err
	}
	r.beforeDelete = purgeUserJournal
	return &UserStore{r}, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, clause.Eq{Column: column("email"), Value: strings.ToLower(strings.TrimSpace(email))})
}

type InstrumentStore struct {
	*Resource[models.Instrument]
}

func newInstrumentStore(db *gorm.DB) (*InstrumentStore, error) {
	r, err := newResource[models.Instrument](db, "instrument", nil, namedFields...)
	if err != nil {
		return nil, err
	}
	r.beforeDelete = restrictDelete("instrument",
		reference{&models.Trade{}, "instrument_uid"},
		reference{&models.StudyItem{}, "instrument_uid"},
	)
	return &InstrumentStore{r}, nil
}

// GetByNameOwner matches on the normalized uppercase name.
func (s *InstrumentStore) GetByNameOwner(ctx context.Context, name string, ownerUID uint64) (*models.Instrument, error) {
	return s.first(ctx,
		clause.Eq{Column: column("name"), Value: repository.NormalizeInstrumentName(name)},
		clause.Eq{Column: column(ownerColumn), Value: ownerUID},
	)
}

type StrategyStore struct {
	*Resource[models.Strategy]
}

func newStrategyStore(db *gorm.DB) (*StrategyStore, error) {
	r, err := newResource[models.Strategy](db, "strategy", nil, namedFields...)
	if err != nil {
		return nil, err
	}
	r.beforeDelete = restrictDelete("strategy", reference{&models.Trade{}, "strategy_uid"})
	return &StrategyStore{r}, nil
}

func (s *StrategyStore) GetByNameOwner(ctx context.Context, name string, ownerUID uint64) (*models.Strategy, error) {
	return s.first(ctx,
		clause.Eq{Column: column("name"), Value: strings.TrimSpace(name)},
		clause.Eq{Column: column(ownerColumn), Value: ownerUID},
	)
}

// CountTrades returns total and winning trade counts per strategy in one grouped query.
// Strategies without trades are absent from the map.
func (s *StrategyStore) CountTrades(ctx context.Context, strategyUIDs []uint64) (map[uint64]repository.TradeCount, error) {
	out := make(map[uint64]repository.TradeCount, len(strategyUIDs))
	if len(strategyUIDs) == 0 {
		return out, nil
	}
	var rows []repository.TradeCount
	err := s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Select("strategy_uid, COUNT(*) AS total, SUM(CASE WHEN outcome THEN 1 ELSE 0 END) AS won").
		Where("strategy_uid IN ?", strategyUIDs).
		Group("strategy_uid").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.StrategyUID] = row
	}
	return out, nil
}

type StyleStore struct {
	*Resource[models.Style]
}

func newStyleStore(db *gorm.DB) (*StyleStore, error) {
	r, err := newResource[models.Style](db, "style", nil, namedFields...)
	if err != nil {
		return nil, err
	}
	r.beforeDelete = restrictDelete("style",
		reference{&models.Trade{}, "style_uid"},
		reference{&models.StudyItem{}, "style_uid"},
	)
	return &StyleStore{r}, nil
}

func (s *StyleStore) GetByName(ctx context.Context, name string) (*models.Style, error) {
	return s.first(ctx, clause.Eq{Column: column("name"), Value: strings.TrimSpace(name)})
}

func (s *StyleStore) ListVisible(ctx context.Context, ownerUID uint64, skip, limit int) ([]models.Style, error) {
	var items []models.Style
	err := s.db.WithContext(ctx).
		Where("owner_uid IS NULL OR owner_uid = ? OR public = ?", ownerUID, true).
		Order("uid asc").
		Offset(normalizeOffset(skip)).
		Limit(normalizeLimit(limit, 100)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

type TradingPlanStore struct {
	*Resource[models.TradingPlan]
}

func newTradingPlanStore(db *gorm.DB) (*TradingPlanStore, error) {
	r, err := newResource[models.TradingPlan](db, "trading plan", nil, namedFields...)
	if err != nil {
		return nil, err
	}
	return &TradingPlanStore{r}, nil
}

func (s *TradingPlanStore) GetByNameOwner(ctx context.Context, name string, ownerUID uint64) (*models.TradingPlan, error) {
	return s.first(ctx,
		clause.Eq{Column: column("name"), Value: strings.TrimSpace(name)},
		clause.Eq{Column: column(ownerColumn), Value: ownerUID},
	)
}

type TaskStore struct {
	*Resource[models.Task]
}

func newTaskStore(db *gorm.DB) (*TaskStore, error) {
	r, err := newResource[models.Task](db, "task", nil, namedFields...)
	if err != nil {
		return nil, err
	}
	return &TaskStore{r}, nil
}

func (s *TaskStore) GetByName(ctx context.Context, name string) (*models.Task, error) {
	return s.first(ctx, clause.Eq{Column: column("name"), Value: strings.TrimSpace(name)})
}

type WatchListStore struct {
	*Resource[models.WatchList]
}

func newWatchListStore(db *gorm.DB) (*WatchListStore, error) {
	r, err := newResource[models.WatchList](db, "watchlist", nil, namedFields...)
	if err != nil {
		return nil, err
	}
	return &WatchListStore{r}, nil
}

type StudyStore struct {
	*Resource[models.Study]
}

func newStudyStore(db *gorm.DB) (*StudyStore, error) {
	r, err := newResource[models.Study](db, "study", nil, namedFields...)
	if err != nil {
		return nil, err
	}
	r.beforeDelete = restrictDelete("study",
		reference{&models.Attribute{}, "study_uid"},
		reference{&models.StudyItem{}, "study_uid"},
	)
	return &StudyStore{r}, nil
}

func (s *StudyStore) GetByName(ctx context.Context, name string) (*models.Study, error) {
	return s.first(ctx, clause.Eq{Column: column("name"), Value: strings.TrimSpace(name)})
}

type AttributeStore struct {
	*Resource[models.Attribute]
}

func newAttributeStore(db *gorm.DB) (*AttributeStore, error) {
	r, err := newResource[models.Attribute](db, "attribute", nil, "uid", "name", "public", "study_uid", "created_at")
	if err != nil {
		return nil, err
	}
	// Join rows have no cascade of their own.
	r.beforeDelete = func(tx *gorm.DB, uid uint64) error {
		return tx.Where("attribute_uid = ?", uid).Delete(&models.StudyItemAttribute{}).Error
	}
	return &AttributeStore{r}, nil
}

func (s *AttributeStore) GetByName(ctx context.Context, name string) (*models.Attribute, error) {
	return s.first(ctx, clause.Eq{Column: column("name"), Value: strings.TrimSpace(name)})
}

func (s *AttributeStore) ListByStudy(ctx context.Context, studyUID uint64, skip, limit int) ([]models.Attribute, error) {
	return s.find(ctx, []repository.Filter{repository.Eq("study_uid", studyUID)}, skip, limit)
}

// ListByStudies loads the attributes of several studies at once, ordered by study then uid.
func (s *AttributeStore) ListByStudies(ctx context.Context, studyUIDs []uint64) ([]models.Attribute, error) {
	if len(studyUIDs) == 0 {
		return nil, nil
	}
	var items []models.Attribute
	err := s.db.WithContext(ctx).
		Where("study_uid IN ?", studyUIDs).
		Order("study_uid asc").
		Order("uid asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
