package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/admiralorbiter/DataDeckv2/internal/models"
	"github.com/admiralorbiter/DataDeckv2/internal/service"
	"github.com/admiralorbiter/DataDeckv2/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentHandler serves roster reads, PIN resets and the student self-serve
// login.
type StudentHandler struct {
	DB        *gorm.DB
	Sessions  *service.SessionService
	Roster    *service.RosterService
	JWTSecret string
}

func NewStudentHandler(db *gorm.DB, sessions *service.SessionService, roster *service.RosterService, jwtSecret string) *StudentHandler {
	return &StudentHandler{DB: db, Sessions: sessions, Roster: roster, JWTSecret: jwtSecret}
}

type studentResp struct {
	ID            uint   `json:"id"`
	CharacterName string `json:"character_name"`
	Username      string `json:"username"`
	AvatarPath    string `json:"avatar_path"`
	SessionID     uint   `json:"session_id"`
}

func toStudentResp(s *models.Student) studentResp {
	return studentResp{
		ID:            s.ID,
		CharacterName: s.CharacterName,
		Username:      s.Username,
		AvatarPath:    s.AvatarPath,
		SessionID:     s.SessionID,
	}
}

// List returns the teacher's students, optionally scoped with ?session_id=.
func (h *StudentHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	var sessionID uint
	if raw := c.Query("session_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid session id")
			return
		}
		sessionID = uint(id)
	}

	students, err := h.Roster.StudentsForTeacher(user.ID, sessionID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "list students failed")
		return
	}

	resp := make([]studentResp, len(students))
	for i := range students {
		resp[i] = toStudentResp(&students[i])
	}
	util.Success(c, util.Response{"students": resp})
}

// ResetPin rotates one student's PIN and returns the plaintext once.
func (h *StudentHandler) ResetPin(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid student id")
		return
	}

	pin, err := h.Roster.ResetPin(uint(id), user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "reset pin failed")
		return
	}
	if pin == "" {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "student not found")
		return
	}

	util.Success(c, util.Response{
		"message": "PIN reset successfully",
		"new_pin": pin,
	})
}

// Delete removes one student identity from the roster.
func (h *StudentHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid student id")
		return
	}

	deleted, err := h.Roster.DeleteStudent(uint(id), user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete student failed")
		return
	}
	if !deleted {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "student not found")
		return
	}

	util.Success(c, util.Response{"message": "student deleted"})
}

// ---------- student self-serve login ----------

type studentLoginReq struct {
	SessionCode   string `json:"session_code" binding:"required,len=8"`
	CharacterName string `json:"character_name" binding:"required,max=64"`
	Pin           string `json:"pin" binding:"required,len=4"`
}

// Login signs a student in with session code, character name and PIN. No
// real credentials exist; the PIN card carries everything needed. Paused and
// archived sessions refuse access.
func (h *StudentHandler) Login(c *gin.Context) {
	var req studentLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	session, err := h.Sessions.FindByCode(strings.ToUpper(strings.TrimSpace(req.SessionCode)))
	if err != nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "wrong code, name or PIN")
		return
	}

	student, err := h.Roster.Authenticate(session, strings.TrimSpace(req.CharacterName), req.Pin)
	switch err {
	case nil:
	case service.ErrSessionPaused:
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "session is paused, ask your teacher")
		return
	case service.ErrSessionArchived:
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "session has ended")
		return
	default:
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "wrong code, name or PIN")
		return
	}

	// first login from a new device gets a device id
	if student.DeviceID == "" {
		student.DeviceID = uuid.New().String()
		_ = h.DB.Model(student).Update("device_id", student.DeviceID).Error
	}

	token, err := util.GenerateToken(h.JWTSecret, student.ID, models.RoleStudent, 8*time.Hour)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "generate token failed")
		return
	}

	util.Success(c, util.Response{
		"token":     token,
		"device_id": student.DeviceID,
		"student":   toStudentResp(student),
		"session": gin.H{
			"id":   session.ID,
			"name": session.Name,
			"code": session.Code,
		},
	})
}
