package repository

import (
	"context"

	"github.com/webclinic017/sagetrader-api/internal/models"
)

// Input turns a request payload into a new row or patches an existing one.
// Apply must only touch fields present in the payload.
type Input[E any] interface {
	Build(ownerUID uint64) (E, error)
	Apply(existing *E) error
}

// Resource is the CRUD surface shared by every journal entity.
// Get-style lookups return nil, nil when the row is absent; Remove reports NotFoundError itself.
type Resource[E any] interface {
	Get(ctx context.Context, uid uint64) (*E, error)
	GetForOwner(ctx context.Context, uid, ownerUID uint64) (*E, error)
	List(ctx context.Context, skip, limit int) ([]E, error)
	ListForOwner(ctx context.Context, ownerUID uint64, skip, limit int) ([]E, error)
	ListShared(ctx context.Context, public bool, skip, limit int) ([]E, error)
	ListPaginated(ctx context.Context, params ListPageParams) (Page[E], error)
	Create(ctx context.Context, in Input[E], ownerUID uint64) (*E, error)
	Update(ctx context.Context, existing *E, in Input[E]) (*E, error)
	Remove(ctx context.Context, uid uint64) (*E, error)
}

// ListPageParams drives ListPaginated. Shared lists every public row; otherwise rows of OwnerUID.
type ListPageParams struct {
	PageRequest

	Shared    bool
	OwnerUID  uint64
	SortOn    string
	SortOrder string
	Filters   []Filter
}

type UserRepository interface {
	Resource[models.User]
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type InstrumentRepository interface {
	Resource[models.Instrument]
	GetByNameOwner(ctx context.Context, name string, ownerUID uint64) (*models.Instrument, error)
}

// TradeCount is the raw material for strategy win rates.
type TradeCount struct {
	StrategyUID uint64
	Total       int64
	Won         int64
}

type StrategyRepository interface {
	Resource[models.Strategy]
	GetByNameOwner(ctx context.Context, name string, ownerUID uint64) (*models.Strategy, error)
	CountTrades(ctx context.Context, strategyUIDs []uint64) (map[uint64]TradeCount, error)
}

type StyleRepository interface {
	Resource[models.Style]
	GetByName(ctx context.Context, name string) (*models.Style, error)
	// ListVisible returns system styles, styles owned by ownerUID and public styles.
	ListVisible(ctx context.Context, ownerUID uint64, skip, limit int) ([]models.Style, error)
}

type TradeRepository interface {
	Resource[models.Trade]
}

type TradingPlanRepository interface {
	Resource[models.TradingPlan]
	GetByNameOwner(ctx context.Context, name string, ownerUID uint64) (*models.TradingPlan, error)
}

type TaskRepository interface {
	Resource[models.Task]
	GetByName(ctx context.Context, name string) (*models.Task, error)
}

type WatchListRepository interface {
	Resource[models.WatchList]
}

type StudyRepository interface {
	Resource[models.Study]
	GetByName(ctx context.Context, name string) (*models.Study, error)
}

type AttributeRepository interface {
	Resource[models.Attribute]
	GetByName(ctx context.Context, name string) (*models.Attribute, error)
	ListByStudy(ctx context.Context, studyUID uint64, skip, limit int) ([]models.Attribute, error)
	ListByStudies(ctx context.Context, studyUIDs []uint64) ([]models.Attribute, error)
}

type StudyItemRepository interface {
	Resource[models.StudyItem]
	GetByName(ctx context.Context, name string) (*models.StudyItem, error)
	ListByStudy(ctx context.Context, studyUID uint64, skip, limit int) ([]models.StudyItem, error)
}

type ImageRepository interface {
	Attach(ctx context.Context, kind models.ImageKind, parentUID uint64, asset models.ImageAsset) (*models.Image, error)
	Get(ctx context.Context, kind models.ImageKind, uid uint64) (*models.Image, error)
	ListByParent(ctx context.Context, kind models.ImageKind, parentUID uint64, limit int) ([]models.Image, error)
	Remove(ctx context.Context, kind models.ImageKind, uid uint64) (*models.Image, error)
}
