package service

import (
	"context"
	"strings"
	"testing"

	"github.com/webclinic017/sagetrader-api/internal/db"
	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
	gormrepository "github.com/webclinic017/sagetrader-api/internal/repository/gorm"
)

func newTestStore(t *testing.T) *gormrepository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	d, err := db.OpenSQLite(name)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(d) })
	if err := db.AutoMigrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := gormrepository.New(d.Gorm)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return store
}

func str(s string) *string { return &s }

func boolp(b bool) *bool { return &b }

func ref(uid uint64) *repository.RefUID {
	r := repository.RefUID(uid)
	return &r
}

func mustUser(t *testing.T, s *gormrepository.Store, email string) *models.User {
	t.Helper()
	hashed := "x"
	u, err := s.Users.Create(context.Background(), repository.UserInput{Email: &email, HashedPassword: &hashed}, 0)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

type tradeFixture struct {
	instrument *models.Instrument
	strategy   *models.Strategy
	style      *models.Style
}

func mustTradeFixture(t *testing.T, s *gormrepository.Store, ownerUID uint64) tradeFixture {
	t.Helper()
	ctx := context.Background()
	inst, err := s.Instruments.Create(ctx, repository.InstrumentInput{NamedInput: repository.NamedInput{Name: str("eurusd")}}, ownerUID)
	if err != nil {
		t.Fatalf("create instrument: %v", err)
	}
	strat, err := s.Strategies.Create(ctx, repository.StrategyInput{NamedInput: repository.NamedInput{Name: str("breakout")}}, ownerUID)
	if err != nil {
		t.Fatalf("create strategy: %v", err)
	}
	style, err := s.Styles.Create(ctx, repository.StyleInput{NamedInput: repository.NamedInput{Name: str("Day Trade")}}, 0)
	if err != nil {
		t.Fatalf("create style: %v", err)
	}
	return tradeFixture{instrument: inst, strategy: strat, style: style}
}

func mustTrade(t *testing.T, s *gormrepository.Store, ownerUID uint64, fx tradeFixture, strategyUID uint64, won bool) *models.Trade {
	t.Helper()
	tr, err := s.Trades.Create(context.Background(), repository.TradeInput{
		Outcome:       boolp(won),
		InstrumentUID: ref(fx.instrument.UID),
		StrategyUID:   ref(strategyUID),
		StyleUID:      ref(fx.style.UID),
	}, ownerUID)
	if err != nil {
		t.Fatalf("create trade: %v", err)
	}
	return tr
}
