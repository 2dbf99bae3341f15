package gormrepository

import (
	"gorm.io/gorm"

	"github.com/webclinic017/sagetrader-api/internal/repository"
)

// paginate issues one count and one data query against base.
// scopes apply to the data query only so preloads never reach the count.
func paginate[T any](base *gorm.DB, req repository.PageRequest, scopes ...func(*gorm.DB) *gorm.DB) (repository.Page[T], error) {
	if req.Size != nil && *req.Size <= 0 {
		return repository.Page[T]{}, &repository.InvalidPageError{Size: *req.Size}
	}
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return repository.Page[T]{}, err
	}
	w, err := repository.ResolveWindow(req, total)
	if err != nil {
		return repository.Page[T]{}, err
	}
	var items []T
	if err := base.Session(&gorm.Session{}).
		Scopes(scopes...).
		Offset(w.Offset).
		Limit(w.Size).
		Find(&items).Error; err != nil {
		return repository.Page[T]{}, err
	}
	return repository.NewPage(req, w, total, items), nil
}
