package gormrepository

import (
	"context"

	"gorm.io/gorm"

	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

type TradeStore struct {
	*Resource[models.Trade]
}

func newTradeStore(db *gorm.DB) (*TradeStore, error) {
	r, err := newResource[models.Trade](db, "trade",
		[]string{"Instrument", "Strategy", "Style"},
		"uid", "owner_uid", "public", "date", "description",
		"instrument_uid", "strategy_uid", "style_uid",
		"position", "outcome", "status", "pips", "rr", "sl", "tp",
		"tp_reached", "tp_exceeded", "full_stop",
		"entry_price", "exit_price", "sl_price", "tp_price",
		"scaled_in", "scaled_out", "correlated_position",
		"created_at", "updated_at",
	)
	if err != nil {
		return nil, err
	}
	return &TradeStore{r}, nil
}

// Create resolves and attaches instrument, strategy and style before inserting.
func (s *TradeStore) Create(ctx context.Context, in repository.Input[models.Trade], ownerUID uint64) (*models.Trade, error) {
	item, err := in.Build(ownerUID)
	if err != nil {
		return nil, err
	}
	if err := s.link(ctx, &item); err != nil {
		return nil, err
	}
	return s.insert(ctx, &item)
}

// Update re-resolves all three relations, changed or not.
func (s *TradeStore) Update(ctx context.Context, existing *models.Trade, in repository.Input[models.Trade]) (*models.Trade, error) {
	if existing == nil {
		return nil, &repository.NotFoundError{Resource: "trade"}
	}
	if err := in.Apply(existing); err != nil {
		return nil, err
	}
	if err := s.link(ctx, existing); err != nil {
		return nil, err
	}
	return s.save(ctx, existing)
}

func (s *TradeStore) link(ctx context.Context, t *models.Trade) error {
	instrument, err := visibleInstrument(ctx, s.db, t.InstrumentUID, t.OwnerUID)
	if err != nil {
		return err
	}
	strategy, err := visibleStrategy(ctx, s.db, t.StrategyUID, t.OwnerUID)
	if err != nil {
		return err
	}
	style, err := visibleStyle(ctx, s.db, t.StyleUID, t.OwnerUID)
	if err != nil {
		return err
	}
	t.Instrument, t.InstrumentUID = instrument, instrument.UID
	t.Strategy, t.StrategyUID = strategy, strategy.UID
	t.Style, t.StyleUID = style, style.UID
	return nil
}
