package gormrepository

import (
	"context"
	"errors"
	"net/url"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/webclinic017/sagetrader-api/internal/repository"
)

const (
	uidColumn    = "uid"
	ownerColumn  = "owner_uid"
	publicColumn = "public"
)

type entity interface {
	GetUID() uint64
}

// Resource implements repository.Resource for one entity over gorm.
type Resource[E entity] struct {
	db       *gorm.DB
	name     string
	fields   fieldSet
	preloads []string

	// beforeDelete runs inside the delete transaction.
	beforeDelete func(tx *gorm.DB, uid uint64) error
}

func newResource[E entity](db *gorm.DB, name string, preloads []string, fields ...string) (*Resource[E], error) {
	fs, err := newFieldSet(db, new(E), fields...)
	if err != nil {
		return nil, err
	}
	return &Resource[E]{db: db, name: name, fields: fs, preloads: preloads}, nil
}

func (r *Resource[E]) preload(query *gorm.DB) *gorm.DB {
	for _, rel := range r.preloads {
		query = query.Preload(rel)
	}
	return query
}

func (r *Resource[E]) first(ctx context.Context, conds ...clause.Expression) (*E, error) {
	query := r.preload(r.db.WithContext(ctx).Model(new(E)))
	for _, cond := range conds {
		query = query.Where(cond)
	}
	var item E
	err := query.Order(clause.OrderByColumn{Column: column(uidColumn)}).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Resource[E]) find(ctx context.Context, filters []repository.Filter, skip, limit int) ([]E, error) {
	query, err := applyFilters(r.db.WithContext(ctx).Model(new(E)), r.fields, filters)
	if err != nil {
		return nil, err
	}
	var items []E
	err = r.preload(query).
		Order(clause.OrderByColumn{Column: column(uidColumn)}).
		Offset(normalizeOffset(skip)).
		Limit(normalizeLimit(limit, 100)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Resource[E]) Get(ctx context.Context, uid uint64) (*E, error) {
	return r.first(ctx, clause.Eq{Column: column(uidColumn), Value: uid})
}

func (r *Resource[E]) GetForOwner(ctx context.Context, uid, ownerUID uint64) (*E, error) {
	if !r.fields.has(ownerColumn) {
		return nil, repository.NewConfigurationError("%s has no owner", r.name)
	}
	return r.first(ctx,
		clause.Eq{Column: column(uidColumn), Value: uid},
		clause.Eq{Column: column(ownerColumn), Value: ownerUID},
	)
}

func (r *Resource[E]) List(ctx context.Context, skip, limit int) ([]E, error) {
	return r.find(ctx, nil, skip, limit)
}

func (r *Resource[E]) ListForOwner(ctx context.Context, ownerUID uint64, skip, limit int) ([]E, error) {
	return r.find(ctx, []repository.Filter{repository.Eq(ownerColumn, ownerUID)}, skip, limit)
}

func (r *Resource[E]) ListShared(ctx context.Context, public bool, skip, limit int) ([]E, error) {
	return r.find(ctx, []repository.Filter{repository.Eq(publicColumn, public)}, skip, limit)
}

func (r *Resource[E]) ListPaginated(ctx context.Context, params repository.ListPageParams) (repository.Page[E], error) {
	filters := make([]repository.Filter, 0, len(params.Filters)+1)
	if params.Shared {
		filters = append(filters, repository.Eq(publicColumn, true))
	} else {
		filters = append(filters, repository.Eq(ownerColumn, params.OwnerUID))
	}
	filters = append(filters, params.Filters...)

	query, err := applyFilters(r.db.WithContext(ctx).Model(new(E)), r.fields, filters)
	if err != nil {
		return repository.Page[E]{}, err
	}
	sortOn, sortOrder := params.SortOn, params.SortOrder
	if sortOn == "" {
		sortOn = uidColumn
	}
	if sortOrder == "" {
		sortOrder = string(repository.Desc)
	}
	query, err = applySort(query, r.fields, sortOn, sortOrder)
	if err != nil {
		return repository.Page[E]{}, err
	}

	req := params.PageRequest
	extra := url.Values{}
	for k, vals := range req.Extra {
		extra[k] = append([]string(nil), vals...)
	}
	extra.Set("shared", boolString(params.Shared))
	extra.Set("sort_on", sortOn)
	extra.Set("sort_order", sortOrder)
	req.Extra = extra

	return paginate[E](query, req, r.preload)
}

func (r *Resource[E]) Create(ctx context.Context, in repository.Input[E], ownerUID uint64) (*E, error) {
	item, err := in.Build(ownerUID)
	if err != nil {
		return nil, err
	}
	return r.insert(ctx, &item)
}

func (r *Resource[E]) Update(ctx context.Context, existing *E, in repository.Input[E]) (*E, error) {
	if existing == nil {
		return nil, &repository.NotFoundError{Resource: r.name}
	}
	if err := in.Apply(existing); err != nil {
		return nil, err
	}
	return r.save(ctx, existing)
}

func (r *Resource[E]) Remove(ctx context.Context, uid uint64) (*E, error) {
	item, err := r.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &repository.NotFoundError{Resource: r.name, UID: uid}
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.beforeDelete != nil {
			if err := r.beforeDelete(tx, uid); err != nil {
				return err
			}
		}
		return tx.Where(clause.Eq{Column: column(uidColumn), Value: uid}).Delete(new(E)).Error
	})
	if err != nil {
		return nil, repository.TranslateDeleteError(err, r.name, uid)
	}
	return item, nil
}

func (r *Resource[E]) insert(ctx context.Context, item *E) (*E, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return nil, repository.TranslateWriteError(err, r.name)
	}
	return r.refresh(ctx, (*item).GetUID())
}

func (r *Resource[E]) save(ctx context.Context, item *E) (*E, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error; err != nil {
		return nil, repository.TranslateWriteError(err, r.name)
	}
	return r.refresh(ctx, (*item).GetUID())
}

func (r *Resource[E]) refresh(ctx context.Context, uid uint64) (*E, error) {
	item, err := r.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &repository.NotFoundError{Resource: r.name, UID: uid}
	}
	return item, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
