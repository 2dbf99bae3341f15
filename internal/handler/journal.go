package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/events"
	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
	"github.com/webclinic017/sagetrader-api/internal/service"
)

// JournalHandler mounts the trading journal routes under {prefix}/mspt.
type JournalHandler struct {
	Instruments  repository.InstrumentRepository
	Strategies   repository.StrategyRepository
	Styles       repository.StyleRepository
	Trades       repository.TradeRepository
	TradingPlans repository.TradingPlanRepository
	Tasks        repository.TaskRepository
	WatchLists   repository.WatchListRepository
	Studies      repository.StudyRepository
	Attributes   repository.AttributeRepository
	StudyItems   repository.StudyItemRepository

	Stats      *service.StrategyStatsService
	StudyViews *service.StudyService
	Pager      Pager
	Events     *events.Hub
	Logger     *zap.Logger
}

func (h *JournalHandler) Register(g *gin.RouterGroup) {
	instruments := &OwnedResource[models.Instrument]{
		Kind:   "instrument",
		Repo:   h.Instruments,
		Decode: decodeInput[models.Instrument, repository.InstrumentInput],
		Events: h.Events,
		Logger: h.Logger,
		Unique: h.uniqueInstrument,
	}
	g.GET("/instrument", h.listInstruments)
	g.GET("/instrument/:uid", instruments.get)
	instruments.RegisterWrites(g, "/instrument")

	styles := &OwnedResource[models.Style]{
		Kind:   "style",
		Repo:   h.Styles,
		Decode: decodeInput[models.Style, repository.StyleInput],
		Events: h.Events,
		Logger: h.Logger,
		Unique: h.uniqueStyle,
	}
	g.GET("/style", h.listStyles)
	g.GET("/style/:uid", styles.get)
	styles.RegisterWrites(g, "/style")

	strategies := &OwnedResource[models.Strategy]{
		Kind:   "strategy",
		Repo:   h.Strategies,
		Decode: decodeInput[models.Strategy, repository.StrategyInput],
		Events: h.Events,
		Logger: h.Logger,
		Unique: h.uniqueStrategy,
	}
	g.GET("/strategy", h.listStrategies)
	g.GET("/strategy/:uid", h.getStrategy)
	strategies.RegisterWrites(g, "/strategy")

	(&OwnedResource[models.Trade]{
		Kind:   "trade",
		Repo:   h.Trades,
		Decode: decodeInput[models.Trade, repository.TradeInput],
		Pager:  h.Pager,
		Events: h.Events,
		Logger: h.Logger,
	}).Register(g, "/trade")
	(&OwnedResource[models.TradingPlan]{
		Kind:   "trading-plan",
		Repo:   h.TradingPlans,
		Decode: decodeInput[models.TradingPlan, repository.TradingPlanInput],
		Pager:  h.Pager,
		Events: h.Events,
		Logger: h.Logger,
		Unique: h.uniqueTradingPlan,
	}).Register(g, "/trading-plan")
	(&OwnedResource[models.Task]{
		Kind:   "task",
		Repo:   h.Tasks,
		Decode: decodeInput[models.Task, repository.TaskInput],
		Pager:  h.Pager,
		Events: h.Events,
		Logger: h.Logger,
	}).Register(g, "/task")
	(&OwnedResource[models.WatchList]{
		Kind:   "watchlist",
		Repo:   h.WatchLists,
		Decode: decodeInput[models.WatchList, repository.WatchListInput],
		Pager:  h.Pager,
		Events: h.Events,
		Logger: h.Logger,
	}).Register(g, "/watchlist")

	studies := &OwnedResource[models.Study]{
		Kind:   "study",
		Repo:   h.Studies,
		Decode: decodeInput[models.Study, repository.StudyInput],
		Events: h.Events,
		Logger: h.Logger,
	}
	g.GET("/study", h.listStudies)
	g.GET("/study/:uid", h.getStudy)
	studies.RegisterWrites(g, "/study")

	g.GET("/attribute", h.listAttributes)
	g.POST("/attribute", h.createAttribute)
	g.PUT("/attribute/:uid", h.updateAttribute)
	g.DELETE("/attribute/:uid", h.deleteAttribute)

	g.GET("/studyitems", h.listStudyItems)
	g.GET("/studyitems/:uid", h.getStudyItem)
	g.POST("/studyitems", h.createStudyItem)
	g.PUT("/studyitems/:uid", h.updateStudyItem)
	g.DELETE("/studyitems/:uid", h.deleteStudyItem)
}

func (h *JournalHandler) uniqueInstrument(ctx context.Context, m models.Instrument) error {
	existing, err := h.Instruments.GetByNameOwner(ctx, m.Name, m.OwnerUID)
	if err != nil {
		return err
	}
	if existing != nil {
		return &repository.DuplicateError{Resource: "instrument", Field: "name", Value: m.Name}
	}
	return nil
}

func (h *JournalHandler) uniqueStrategy(ctx context.Context, m models.Strategy) error {
	existing, err := h.Strategies.GetByNameOwner(ctx, m.Name, m.OwnerUID)
	if err != nil {
		return err
	}
	if existing != nil {
		return &repository.DuplicateError{Resource: "strategy", Field: "name", Value: m.Name}
	}
	return nil
}

func (h *JournalHandler) uniqueTradingPlan(ctx context.Context, m models.TradingPlan) error {
	existing, err := h.TradingPlans.GetByNameOwner(ctx, m.Name, m.OwnerUID)
	if err != nil {
		return err
	}
	if existing != nil {
		return &repository.DuplicateError{Resource: "trading plan", Field: "name", Value: m.Name}
	}
	return nil
}

func (h *JournalHandler) uniqueStyle(ctx context.Context, m models.Style) error {
	existing, err := h.Styles.GetByName(ctx, m.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return &repository.DuplicateError{Resource: "style", Field: "name", Value: m.Name}
	}
	return nil
}

// @Summary List instruments
// @Tags instrument
// @Security BearerAuth
// @Param skip query int false "offset"
// @Param limit query int false "limit"
// @Param shared query bool false "list public instruments instead of own"
// @Success 200 {object} apiResponse
// @Router /api/v1/mspt/instrument [get]
func (h *JournalHandler) listInstruments(c *gin.Context) {
	user := auth.CurrentUser(c)
	skip, limit := skipLimit(c)
	var (
		items []models.Instrument
		err   error
	)
	if boolQueryDefault(c, "shared", false) {
		items, err = h.Instruments.ListShared(c.Request.Context(), true, skip, limit)
	} else {
		items, err = h.Instruments.ListForOwner(c.Request.Context(), user.UID, skip, limit)
	}
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, items, map[string]any{"skip": skip, "limit": limit})
}

// @Summary List styles visible to the caller
// @Tags style
// @Security BearerAuth
// @Param skip query int false "offset"
// @Param limit query int false "limit"
// @Success 200 {object} apiResponse
// @Router /api/v1/mspt/style [get]
func (h *JournalHandler) listStyles(c *gin.Context) {
	skip, limit := skipLimit(c)
	items, err := h.Styles.ListVisible(c.Request.Context(), auth.CurrentUser(c).UID, skip, limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, items, map[string]any{"skip": skip, "limit": limit})
}

// @Summary List strategies with win rates
// @Tags strategy
// @Security BearerAuth
// @Param page query int false "page"
// @Param size query int false "page size"
// @Param shared query bool false "public strategies"
// @Param sort_on query string false "sort field"
// @Param sort_order query string false "asc|desc"
// @Param filter query []string false "field:op:value" collectionFormat(multi)
// @Success 200 {object} apiResponse
// @Router /api/v1/mspt/strategy [get]
func (h *JournalHandler) listStrategies(c *gin.Context) {
	params, err := h.Pager.Params(c, auth.CurrentUser(c).UID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	page, err := h.Stats.ListPaginated(c.Request.Context(), params)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, page, nil)
}

// @Summary Strategy with win rate
// @Tags strategy
// @Security BearerAuth
// @Param uid path int true "strategy uid"
// @Success 200 {object} apiResponse
// @Router /api/v1/mspt/strategy/{uid} [get]
func (h *JournalHandler) getStrategy(c *gin.Context) {
	uid, ok := uidParam(c, "uid")
	if !ok {
		return
	}
	item, err := h.Stats.Get(c.Request.Context(), uid, auth.CurrentUser(c).UID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary List studies with their attributes
// @Tags study
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/v1/mspt/study [get]
func (h *JournalHandler) listStudies(c *gin.Context) {
	skip, limit := skipLimit(c)
	items, err := h.StudyViews.ListWithAttributes(c.Request.Context(), auth.CurrentUser(c).UID, skip, limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, items, map[string]any{"skip": skip, "limit": limit})
}

func (h *JournalHandler) getStudy(c *gin.Context) {
	uid, ok := uidParam(c, "uid")
	if !ok {
		return
	}
	item, err := h.StudyViews.GetWithAttributes(c.Request.Context(), uid, auth.CurrentUser(c).UID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, item, nil)
}
