package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/events"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

type ownedEntity interface {
	GetUID() uint64
	OwnedBy(uid uint64) bool
	VisibleTo(uid uint64) bool
}

// OwnedResource serves the paginated CRUD routes of one owner-scoped entity.
type OwnedResource[E ownedEntity] struct {
	Kind   string
	Repo   repository.Resource[E]
	Decode func(c *gin.Context) (repository.Input[E], error)
	Pager  Pager
	Events *events.Hub
	Logger *zap.Logger

	// Unique, when set, rejects a create whose built row collides with an existing one.
	Unique func(ctx context.Context, candidate E) error
}

func (h *OwnedResource[E]) Register(g *gin.RouterGroup, path string) {
	g.GET(path, h.list)
	g.GET(path+"/:uid", h.get)
	h.RegisterWrites(g, path)
}

// RegisterWrites mounts create, update and delete only, for entities with custom read views.
func (h *OwnedResource[E]) RegisterWrites(g *gin.RouterGroup, path string) {
	g.POST(path, h.create)
	g.PUT(path+"/:uid", h.update)
	g.DELETE(path+"/:uid", h.remove)
}

func (h *OwnedResource[E]) list(c *gin.Context) {
	user := auth.CurrentUser(c)
	params, err := h.Pager.Params(c, user.UID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	page, err := h.Repo.ListPaginated(c.Request.Context(), params)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, page, nil)
}

func (h *OwnedResource[E]) get(c *gin.Context) {
	uid, ok := uidParam(c, "uid")
	if !ok {
		return
	}
	user := auth.CurrentUser(c)
	item, err := h.Repo.Get(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if item == nil || !(*item).VisibleTo(user.UID) {
		writeError(c, h.Logger, &repository.NotFoundError{Resource: h.Kind, UID: uid})
		return
	}
	Ok(c, item, nil)
}

func (h *OwnedResource[E]) create(c *gin.Context) {
	user := auth.CurrentUser(c)
	in, err := h.Decode(c)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if h.Unique != nil {
		candidate, err := in.Build(user.UID)
		if err != nil {
			writeError(c, h.Logger, err)
			return
		}
		if err := h.Unique(c.Request.Context(), candidate); err != nil {
			writeError(c, h.Logger, err)
			return
		}
	}
	item, err := h.Repo.Create(c.Request.Context(), in, user.UID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	publish(h.Events, user.UID, h.Kind, events.ActionCreated, (*item).GetUID())
	Created(c, item)
}

func (h *OwnedResource[E]) update(c *gin.Context) {
	existing, user, ok := h.owned(c)
	if !ok {
		return
	}
	in, err := h.Decode(c)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	item, err := h.Repo.Update(c.Request.Context(), existing, in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	publish(h.Events, user, h.Kind, events.ActionUpdated, (*item).GetUID())
	Ok(c, item, nil)
}

func (h *OwnedResource[E]) remove(c *gin.Context) {
	existing, user, ok := h.owned(c)
	if !ok {
		return
	}
	item, err := h.Repo.Remove(c.Request.Context(), (*existing).GetUID())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	publish(h.Events, user, h.Kind, events.ActionDeleted, (*item).GetUID())
	Ok(c, item, nil)
}

// owned loads the row named by :uid and checks the caller may write it.
func (h *OwnedResource[E]) owned(c *gin.Context) (*E, uint64, bool) {
	uid, ok := uidParam(c, "uid")
	if !ok {
		return nil, 0, false
	}
	user := auth.CurrentUser(c)
	item, err := h.Repo.Get(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return nil, 0, false
	}
	if item == nil || !(*item).OwnedBy(user.UID) {
		writeError(c, h.Logger, &repository.NotFoundError{Resource: h.Kind, UID: uid})
		return nil, 0, false
	}
	return item, user.UID, true
}

// bindJSON decodes the request body into T, reporting malformed bodies as validation errors.
func bindJSON[T any](c *gin.Context) (T, error) {
	var in T
	if err := c.ShouldBindJSON(&in); err != nil {
		return in, &repository.ValidationError{Field: "body", Reason: err.Error()}
	}
	return in, nil
}

// decodeInput adapts bindJSON to OwnedResource.Decode.
func decodeInput[E any, In repository.Input[E]](c *gin.Context) (repository.Input[E], error) {
	in, err := bindJSON[In](c)
	if err != nil {
		return nil, err
	}
	return in, nil
}

func publish(hub *events.Hub, ownerUID uint64, kind string, action events.Action, uid uint64) {
	if hub == nil {
		return
	}
	hub.Publish(events.Event{OwnerUID: ownerUID, Kind: kind, Action: action, UID: uid})
}
