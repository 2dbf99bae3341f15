package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webclinic017/sagetrader-api/internal/assets"
	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/events"
	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/service"
)

type FileHandler struct {
	Images *service.ImageService
	Events *events.Hub
	Logger *zap.Logger
}

func (h *FileHandler) Register(g *gin.RouterGroup) {
	files := g.Group("/files/:parent")
	files.POST("/:parent_uid", h.upload)
	files.GET("/:parent_uid", h.list)
	files.DELETE("/image/:uid", h.remove)
}

func imageKind(c *gin.Context) (models.ImageKind, bool) {
	kind := models.ImageKind(c.Param("parent"))
	if !kind.Valid() {
		Error(c, http.StatusNotFound, "unknown image parent "+string(kind), nil)
		return "", false
	}
	return kind, true
}

// @Summary Upload an image
// @Tags files
// @Security BearerAuth
// @Accept multipart/form-data
// @Param parent path string true "strategy|trade|studyitem"
// @Param parent_uid path int true "parent uid"
// @Param file formData file true "image"
// @Param alt formData string false "alt text"
// @Param tags formData string false "comma separated tags"
// @Success 201 {object} apiResponse
// @Router /api/v1/mspt/files/{parent}/{parent_uid} [post]
func (h *FileHandler) upload(c *gin.Context) {
	kind, ok := imageKind(c)
	if !ok {
		return
	}
	parentUID, ok := uidParam(c, "parent_uid")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		Error(c, http.StatusBadRequest, "file required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		Error(c, http.StatusBadRequest, "unreadable file", nil)
		return
	}
	defer f.Close()

	user := auth.CurrentUser(c)
	img, err := h.Images.Upload(c.Request.Context(), user.UID, kind, parentUID, service.Upload{
		File:     f,
		Filename: fh.Filename,
		Alt:      c.PostForm("alt"),
		Tags:     assets.SplitTags(c.PostForm("tags")),
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	publish(h.Events, user.UID, string(kind)+"_image", events.ActionCreated, img.UID)
	Created(c, img)
}

// @Summary List images of a parent
// @Tags files
// @Security BearerAuth
// @Param parent path string true "strategy|trade|studyitem"
// @Param parent_uid path int true "parent uid"
// @Success 200 {object} apiResponse
// @Router /api/v1/mspt/files/{parent}/{parent_uid} [get]
func (h *FileHandler) list(c *gin.Context) {
	kind, ok := imageKind(c)
	if !ok {
		return
	}
	parentUID, ok := uidParam(c, "parent_uid")
	if !ok {
		return
	}
	items, err := h.Images.List(c.Request.Context(), auth.CurrentUser(c).UID, kind, parentUID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, items, nil)
}

// @Summary Delete an image
// @Description The row is removed only after the asset service confirms the remote delete.
// @Tags files
// @Security BearerAuth
// @Param parent path string true "strategy|trade|studyitem"
// @Param uid path int true "image uid"
// @Success 200 {object} apiResponse
// @Failure 424 {object} apiResponse
// @Router /api/v1/mspt/files/{parent}/image/{uid} [delete]
func (h *FileHandler) remove(c *gin.Context) {
	kind, ok := imageKind(c)
	if !ok {
		return
	}
	uid, ok := uidParam(c, "uid")
	if !ok {
		return
	}
	user := auth.CurrentUser(c)
	img, err := h.Images.Delete(c.Request.Context(), user.UID, kind, uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	publish(h.Events, user.UID, string(kind)+"_image", events.ActionDeleted, img.UID)
	Ok(c, img, nil)
}
