package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/admiralorbiter/DataDeckv2/internal/models"
	"github.com/admiralorbiter/DataDeckv2/internal/service"
	"github.com/admiralorbiter/DataDeckv2/internal/util"

	"github.com/gin-gonic/gin"
)

// SessionHandler serves the session lifecycle endpoints.
type SessionHandler struct {
	Sessions *service.SessionService
	MinCount int
	MaxCount int
}

func NewSessionHandler(sessions *service.SessionService, minCount, maxCount int) *SessionHandler {
	return &SessionHandler{Sessions: sessions, MinCount: minCount, MaxCount: maxCount}
}

// ---------- request/response shapes ----------

type createSessionReq struct {
	Name                string `json:"name" binding:"required,max=128"`
	Section             int    `json:"section" binding:"required"`
	ModuleID            uint   `json:"module_id" binding:"required"`
	CharacterSet        string `json:"character_set" binding:"required"`
	StudentCount        int    `json:"student_count" binding:"required"`
	AutoArchiveExisting bool   `json:"auto_archive_existing"`
}

type sessionResp struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	Section      int    `json:"section"`
	ModuleID     uint   `json:"module_id"`
	CharacterSet string `json:"character_set"`
	Status       string `json:"status"`
	ArchivedAt   any    `json:"archived_at"`
	CreatedAt    any    `json:"created_at"`
}

func toSessionResp(s *models.Session) sessionResp {
	return sessionResp{
		ID:           s.ID,
		Name:         s.Name,
		Code:         s.Code,
		Section:      s.Section,
		ModuleID:     s.ModuleID,
		CharacterSet: s.CharacterSet,
		Status:       s.Status(),
		ArchivedAt:   s.ArchivedAt,
		CreatedAt:    s.CreatedAt,
	}
}

// conflictError writes the 409 envelope carrying the occupying session so
// the client can offer "archive and retry".
func conflictError(c *gin.Context, ce *service.ConflictError) {
	c.JSON(http.StatusConflict, gin.H{
		"code":    util.CodeConflict,
		"message": ce.Error(),
		"existing_session": gin.H{
			"id":      ce.Existing.ID,
			"name":    ce.Existing.Name,
			"section": ce.Existing.Section,
			"code":    ce.Existing.Code,
		},
	})
}

// serviceError maps service sentinels onto the HTTP envelope.
func serviceError(c *gin.Context, err error) {
	var ce *service.ConflictError
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ce):
		conflictError(c, ce)
	case errors.As(err, &ve):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, ve.Error())
	case errors.Is(err, service.ErrNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "session not found")
	case errors.Is(err, service.ErrNotOwner):
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "you can only manage your own sessions")
	case errors.Is(err, service.ErrSessionArchived):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "session is archived")
	case errors.Is(err, service.ErrNotArchived):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "session is not archived")
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "operation failed")
	}
}

func sessionIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid session id")
		return 0, false
	}
	return uint(id), true
}

// ---------- endpoints ----------

// Create starts a session and provisions its roster in one unit. The
// response carries each student's plaintext PIN exactly once.
func (h *SessionHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok || !user.IsTeacher() {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "only teachers can create sessions")
		return
	}

	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	if err := util.ValidateStudentCount(req.StudentCount, h.MinCount, h.MaxCount); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	session, wasArchived, roster, err := h.Sessions.CreateSession(service.CreateSessionInput{
		Teacher:             user,
		Name:                req.Name,
		Section:             req.Section,
		ModuleID:            req.ModuleID,
		CharacterSet:        req.CharacterSet,
		StudentCount:        req.StudentCount,
		AutoArchiveExisting: req.AutoArchiveExisting,
	})
	if err != nil {
		serviceError(c, err)
		return
	}

	students := make([]gin.H, len(roster))
	for i, p := range roster {
		students[i] = gin.H{
			"id":             p.Student.ID,
			"character_name": p.Student.CharacterName,
			"username":       p.Student.Username,
			"pin":            p.Pin,
		}
	}

	util.Success(c, util.Response{
		"session":      toSessionResp(session),
		"was_archived": wasArchived,
		"students":     students,
	})
}

// List returns the teacher's sessions with an optional ?status= filter.
func (h *SessionHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	sessions, err := h.Sessions.List(user.ID, c.Query("status"))
	if err != nil {
		serviceError(c, err)
		return
	}

	resp := make([]sessionResp, len(sessions))
	for i := range sessions {
		resp[i] = toSessionResp(&sessions[i])
	}
	util.Success(c, util.Response{"sessions": resp})
}

// Detail returns one owned session.
func (h *SessionHandler) Detail(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	session, err := h.Sessions.GetOwned(id, user.ID)
	if err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{"session": toSessionResp(session)})
}

// Archive archives a session. Idempotent.
func (h *SessionHandler) Archive(c *gin.Context) {
	h.lifecycle(c, h.Sessions.Archive, "archived")
}

// Unarchive restores an archived session, refusing when the slot is taken.
func (h *SessionHandler) Unarchive(c *gin.Context) {
	h.lifecycle(c, h.Sessions.Unarchive, "unarchived")
}

// Pause blocks student access without archiving.
func (h *SessionHandler) Pause(c *gin.Context) {
	h.lifecycle(c, h.Sessions.Pause, "paused")
}

// Resume lifts a pause.
func (h *SessionHandler) Resume(c *gin.Context) {
	h.lifecycle(c, h.Sessions.Resume, "resumed")
}

func (h *SessionHandler) lifecycle(c *gin.Context, op func(uint, uint) (*models.Session, error), verb string) {
	user, ok := currentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	session, err := op(id, user.ID)
	if err != nil {
		serviceError(c, err)
		return
	}

	util.Success(c, util.Response{
		"message": "session " + verb,
		"session": toSessionResp(session),
	})
}

// Delete permanently removes an archived session and its roster.
func (h *SessionHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	if err := h.Sessions.Delete(id, user.ID); err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "session deleted"})
}

// Modules lists active curriculum modules for the session form.
func (h *SessionHandler) Modules(c *gin.Context) {
	modules, err := service.ActiveModules(h.Sessions.DB)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "list modules failed")
		return
	}

	resp := make([]gin.H, len(modules))
	for i, m := range modules {
		resp[i] = gin.H{"id": m.ID, "name": m.Name, "description": m.Description}
	}
	util.Success(c, util.Response{"modules": resp})
}
