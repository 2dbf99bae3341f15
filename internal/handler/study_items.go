package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/events"
	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

// studyQuery reads the mandatory study_uid query parameter and checks the caller owns it.
func (h *JournalHandler) studyQuery(c *gin.Context) (*models.Study, bool) {
	uid, err := strconv.ParseUint(c.Query("study_uid"), 10, 64)
	if err != nil || uid == 0 {
		Error(c, http.StatusBadRequest, "study_uid required", nil)
		return nil, false
	}
	study, err := h.StudyViews.Owned(c.Request.Context(), uid, auth.CurrentUser(c).UID)
	if err != nil {
		writeError(c, h.Logger, err)
		return nil, false
	}
	return study, true
}

// @Summary List attributes of a study
// @Tags attribute
// @Security BearerAuth
// @Param study_uid query int true "study uid"
// @Success 200 {object} apiResponse
// @Router /api/v1/mspt/attribute [get]
func (h *JournalHandler) listAttributes(c *gin.Context) {
	study, ok := h.studyQuery(c)
	if !ok {
		return
	}
	skip, limit := skipLimit(c)
	items, err := h.Attributes.ListByStudy(c.Request.Context(), study.UID, skip, limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, items, map[string]any{"skip": skip, "limit": limit})
}

// @Summary Create attribute
// @Tags attribute
// @Security BearerAuth
// @Param body body repository.AttributeInput true "attribute"
// @Success 201 {object} apiResponse
// @Router /api/v1/mspt/attribute [post]
func (h *JournalHandler) createAttribute(c *gin.Context) {
	in, err := bindJSON[repository.AttributeInput](c)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	user := auth.CurrentUser(c)
	if _, err := h.StudyViews.Owned(c.Request.Context(), in.StudyUID.Value(), user.UID); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	item, err := h.Attributes.Create(c.Request.Context(), in, user.UID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	publish(h.Events, user.UID, "attribute", events.ActionCreated, item.UID)
	Created(c, item)
}

func (h *JournalHandler) ownedAttribute(c *gin.Context) (*models.Attribute, bool) {
	uid, ok := uidParam(c, "uid")
	if !ok {
		return nil, false
	}
	item, err := h.Attributes.Get(c.Request.Context(), uid)
	if err == nil && item == nil {
		err = &repository.NotFoundError{Resource: "attribute", UID: uid}
	}
	if err == nil {
		_, err = h.StudyViews.Owned(c.Request.Context(), item.StudyUID, auth.CurrentUser(c).UID)
		if repository.IsNotFound(err) {
			err = &repository.NotFoundError{Resource: "attribute", UID: uid}
		}
	}
	if err != nil {
		writeError(c, h.Logger, err)
		return nil, false
	}
	return item, true
}

func (h *JournalHandler) updateAttribute(c *gin.Context) {
	existing, ok := h.ownedAttribute(c)
	if !ok {
		return
	}
	in, err := bindJSON[repository.AttributeInput](c)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	item, err := h.Attributes.Update(c.Request.Context(), existing, in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	publish(h.Events, auth.CurrentUser(c).UID, "attribute", events.ActionUpdated, item.UID)
	Ok(c, item, nil)
}

func (h *JournalHandler) deleteAttribute(c *gin.Context) {
	existing, ok := h.ownedAttribute(c)
	if !ok {
		return
	}
	item, err := h.Attributes.Remove(c.Request.Context(), existing.UID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	publish(h.Events, auth.CurrentUser(c).UID, "attribute", events.ActionDeleted, item.UID)
	Ok(c, item, nil)
}

// @Summary List items of a study
// @Tags studyitems
// @Security BearerAuth
// @Param study_uid query int true "study uid"
// @Param skip query int false "offset"
// @Param limit query int false "limit"
// @Success 200 {object} apiResponse
// @Router /api/v1/mspt/studyitems [get]
func (h *JournalHandler) listStudyItems(c *gin.Context) {
	study, ok := h.studyQuery(c)
	if !ok {
		return
	}
	skip, limit := skipLimit(c)
	items, err := h.StudyItems.ListByStudy(c.Request.Context(), study.UID, skip, limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	Ok(c, items, map[string]any{"skip": skip, "limit": limit})
}

func (h *JournalHandler) ownedStudyItem(c *gin.Context) (*models.StudyItem, bool) {
	uid, ok := uidParam(c, "uid")
	if !ok {
		return nil, false
	}
	item, err := h.StudyItems.Get(c.Request.Context(), uid)
	if err == nil && item == nil {
		err = &repository.NotFoundError{Resource: "study item", UID: uid}
	}
	if err == nil {
		_, err = h.StudyViews.Owned(c.Request.Context(), item.StudyUID, auth.CurrentUser(c).UID)
		if repository.IsNotFound(err) {
			err = &repository.NotFoundError{Resource: "study item", UID: uid}
		}
	}
	if err != nil {
		writeError(c, h.Logger, err)
		return nil, false
	}
	return item, true
}

func (h *JournalHandler) getStudyItem(c *gin.Context) {
	item, ok := h.ownedStudyItem(c)
	if !ok {
		return
	}
	Ok(c, item, nil)
}

// @Summary Create study item
// @Tags studyitems
// @Security BearerAuth
// @Param body body repository.StudyItemInput true "study item with optional attributes [{uid}]"
// @Success 201 {object} apiResponse
// @Router /api/v1/mspt/studyitems [post]
func (h *JournalHandler) createStudyItem(c *gin.Context) {
	in, err := bindJSON[repository.StudyItemInput](c)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	user := auth.CurrentUser(c)
	if in.StudyUID.Value() != 0 {
		if _, err := h.StudyViews.Owned(c.Request.Context(), in.StudyUID.Value(), user.UID); err != nil {
			writeError(c, h.Logger, err)
			return
		}
	}
	item, err := h.StudyItems.Create(c.Request.Context(), in, user.UID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	publish(h.Events, user.UID, "studyitem", events.ActionCreated, item.UID)
	Created(c, item)
}

// @Summary Update study item; attributes, when present, replace the whole set
// @Tags studyitems
// @Security BearerAuth
// @Param uid path int true "study item uid"
// @Param body body repository.StudyItemInput true "changes"
// @Success 200 {object} apiResponse
// @Router /api/v1/mspt/studyitems/{uid} [put]
func (h *JournalHandler) updateStudyItem(c *gin.Context) {
	existing, ok := h.ownedStudyItem(c)
	if !ok {
		return
	}
	in, err := bindJSON[repository.StudyItemInput](c)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	item, err := h.StudyItems.Update(c.Request.Context(), existing, in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	publish(h.Events, auth.CurrentUser(c).UID, "studyitem", events.ActionUpdated, item.UID)
	Ok(c, item, nil)
}

func (h *JournalHandler) deleteStudyItem(c *gin.Context) {
	existing, ok := h.ownedStudyItem(c)
	if !ok {
		return
	}
	item, err := h.StudyItems.Remove(c.Request.Context(), existing.UID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	publish(h.Events, auth.CurrentUser(c).UID, "studyitem", events.ActionDeleted, item.UID)
	Ok(c, item, nil)
}
