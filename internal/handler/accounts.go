package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/events"
	"github.com/webclinic017/sagetrader-api/internal/repository"
	"github.com/webclinic017/sagetrader-api/internal/service"
)

type AccountHandler struct {
	Accounts         *service.AccountService
	OpenRegistration bool
	Events           *events.Hub
	Logger           *zap.Logger
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Register mounts the public routes on public and the token-protected ones on private.
func (h *AccountHandler) Register(public, private *gin.RouterGroup) {
	public.POST("/login/access-token", h.login)
	public.POST("/users/open", h.openRegister)

	private.POST("/logout", h.logout)
	private.GET("/users/me", h.me)
	private.PUT("/users/me", h.updateMe)

	admin := private.Group("/users", auth.RequireSuperuser())
	admin.GET("", h.listUsers)
	admin.POST("", h.createUser)
	admin.GET("/:uid", h.getUser)
}

// @Summary Issue an access token
// @Tags login
// @Accept json,x-www-form-urlencoded
// @Param username formData string true "email"
// @Param password formData string true "password"
// @Success 200 {object} apiResponse
// @Router /api/v1/login/access-token [post]
func (h *AccountHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		Error(c, http.StatusBadRequest, "username and password required", nil)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		Error(c, http.StatusBadRequest, "username and password required", nil)
		return
	}
	tok, err := h.Accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, tok, nil)
}

// @Summary Revoke the presented token
// @Tags login
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/v1/logout [post]
func (h *AccountHandler) logout(c *gin.Context) {
	claims, ok := auth.CurrentClaims(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "not authenticated", nil)
		return
	}
	if err := h.Accounts.Logout(c.Request.Context(), claims); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, gin.H{"revoked": claims.ID}, nil)
}

// @Summary Open registration
// @Tags users
// @Param body body service.NewUser true "account"
// @Success 201 {object} apiResponse
// @Router /api/v1/users/open [post]
func (h *AccountHandler) openRegister(c *gin.Context) {
	if !h.OpenRegistration {
		Error(c, http.StatusForbidden, "open user registration is forbidden on this server", nil)
		return
	}
	in, err := bindJSON[service.NewUser](c)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	user, err := h.Accounts.Register(c.Request.Context(), in, false)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Created(c, user)
}

// @Summary Current user
// @Tags users
// @Security BearerAuth
// @Success 200 {object} apiResponse
// @Router /api/v1/users/me [get]
func (h *AccountHandler) me(c *gin.Context) {
	Ok(c, auth.CurrentUser(c), nil)
}

// @Summary Update current user
// @Tags users
// @Security BearerAuth
// @Param body body service.ProfileUpdate true "changes"
// @Success 200 {object} apiResponse
// @Router /api/v1/users/me [put]
func (h *AccountHandler) updateMe(c *gin.Context) {
	in, err := bindJSON[service.ProfileUpdate](c)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	user, err := h.Accounts.UpdateProfile(c.Request.Context(), auth.CurrentUser(c), in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	publish(h.Events, user.UID, "user", events.ActionUpdated, user.UID)
	Ok(c, user, nil)
}

// @Summary List users
// @Tags users
// @Security BearerAuth
// @Param skip query int false "offset"
// @Param limit query int false "limit"
// @Success 200 {object} apiResponse
// @Router /api/v1/users [get]
func (h *AccountHandler) listUsers(c *gin.Context) {
	skip, limit := skipLimit(c)
	items, err := h.Accounts.Users.List(c.Request.Context(), skip, limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, items, map[string]any{"skip": skip, "limit": limit})
}

// @Summary Create user
// @Tags users
// @Security BearerAuth
// @Param body body service.NewUser true "account"
// @Success 201 {object} apiResponse
// @Router /api/v1/users [post]
func (h *AccountHandler) createUser(c *gin.Context) {
	in, err := bindJSON[service.NewUser](c)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	user, err := h.Accounts.Register(c.Request.Context(), in, true)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Created(c, user)
}

func (h *AccountHandler) getUser(c *gin.Context) {
	uid, ok := uidParam(c, "uid")
	if !ok {
		return
	}
	user, err := h.Accounts.Users.Get(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if user == nil {
		writeError(c, h.Logger, &repository.NotFoundError{Resource: "user", UID: uid})
		return
	}
	Ok(c, user, nil)
}
