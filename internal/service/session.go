package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/admiralorbiter/DataDeckv2/internal/generator"
	"github.com/admiralorbiter/DataDeckv2/internal/models"
	"github.com/admiralorbiter/DataDeckv2/internal/util"

	"gorm.io/gorm"
)

// SessionService is the source of truth for session status and ownership.
// Every mutation runs inside one transaction; helpers that write take the
// transaction handle explicitly.
type SessionService struct {
	DB  *gorm.DB
	Gen *generator.Generator
}

func NewSessionService(db *gorm.DB, gen *generator.Generator) *SessionService {
	return &SessionService{DB: db, Gen: gen}
}

// CreateSessionInput carries the pre-validated scalars from the request
// layer. Ownership is re-checked here; field ranges are re-checked too since
// non-HTTP callers reach this directly.
type CreateSessionInput struct {
	Teacher             *models.User
	Name                string
	Section             int
	ModuleID            uint
	CharacterSet        string
	StudentCount        int
	AutoArchiveExisting bool
}

// ProvisionedStudent pairs a persisted identity with its plaintext PIN. The
// PIN exists only in this return value; nothing persists it.
type ProvisionedStudent struct {
	Student models.Student
	Pin     string
}

// CheckConflict returns the (at most one) non-archived session owned by
// teacherID for section, excluding excludeID when non-zero. No side effects.
func (s *SessionService) CheckConflict(tx *gorm.DB, teacherID uint, section int, excludeID uint) (*models.Session, error) {
	q := tx.Where("created_by_id = ? AND section = ? AND archived = ?", teacherID, section, false)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var existing models.Session
	if err := q.First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("check conflict: %w", err)
	}
	return &existing, nil
}

// CreateSession creates a session together with its student roster, in one
// atomic unit: conflict check, optional archive of the conflicting session,
// code allocation, session row and all identities commit or roll back
// together.
//
// Returns the new session, whether an existing one was archived, and the
// roster with transient plaintext PINs.
func (s *SessionService) CreateSession(in CreateSessionInput) (*models.Session, bool, []ProvisionedStudent, error) {
	if err := util.ValidateSessionName(in.Name); err != nil {
		return nil, false, nil, &ValidationError{Reason: err}
	}
	if err := util.ValidateSection(in.Section); err != nil {
		return nil, false, nil, &ValidationError{Reason: err}
	}
	if err := util.ValidateCharacterSet(in.CharacterSet); err != nil {
		return nil, false, nil, &ValidationError{Reason: err}
	}
	// checked before the transaction so a bad count never archives or
	// creates anything
	if err := util.ValidateStudentCount(in.StudentCount, generator.MinRosterSize, generator.MaxRosterSize); err != nil {
		return nil, false, nil, &ValidationError{Reason: err}
	}

	var (
		session     models.Session
		wasArchived bool
		roster      []ProvisionedStudent
	)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		existing, err := s.CheckConflict(tx, in.Teacher.ID, in.Section, 0)
		if err != nil {
			return err
		}
		if existing != nil {
			if !in.AutoArchiveExisting {
				return &ConflictError{Existing: existing}
			}
			if err := archive(tx, existing); err != nil {
				return err
			}
			wasArchived = true
		}

		code := s.Gen.SessionCode(func(code string) bool {
			var n int64
			tx.Model(&models.Session{}).Where("code = ?", code).Count(&n)
			return n > 0
		})

		session = models.Session{
			Name:         in.Name,
			Code:         code,
			Section:      in.Section,
			ModuleID:     in.ModuleID,
			CharacterSet: in.CharacterSet,
			CreatedByID:  in.Teacher.ID,
		}
		if err := tx.Create(&session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		roster, err = provisionRoster(tx, s.Gen, &session, in.StudentCount)
		return err
	})
	if err != nil {
		return nil, false, nil, err
	}

	return &session, wasArchived, roster, nil
}

// provisionRoster generates count identities for the session inside tx. The
// whole batch is inserted at once; any failure aborts the caller's
// transaction so no partial roster survives.
func provisionRoster(tx *gorm.DB, gen *generator.Generator, session *models.Session, count int) ([]ProvisionedStudent, error) {
	seats, err := gen.Roster(session.Code, session.CharacterSet, count)
	if err != nil {
		return nil, &ValidationError{Reason: err}
	}

	students := make([]models.Student, len(seats))
	for i, seat := range seats {
		hash, err := util.HashPin(seat.Pin)
		if err != nil {
			return nil, fmt.Errorf("hash pin: %w", err)
		}
		students[i] = models.Student{
			Username:      seat.Username,
			CharacterName: seat.CharacterName,
			PinHash:       hash,
			AvatarPath:    seat.AvatarPath,
			TeacherID:     session.CreatedByID,
			SessionID:     session.ID,
		}
	}

	if err := tx.Create(&students).Error; err != nil {
		return nil, fmt.Errorf("create roster: %w", err)
	}

	roster := make([]ProvisionedStudent, len(students))
	for i := range students {
		roster[i] = ProvisionedStudent{Student: students[i], Pin: seats[i].Pin}
	}
	return roster, nil
}

// GetOwned loads a session and verifies the requesting teacher owns it.
func (s *SessionService) GetOwned(sessionID, teacherID uint) (*models.Session, error) {
	var session models.Session
	if err := s.DB.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.CreatedByID != teacherID {
		return nil, ErrNotOwner
	}
	return &session, nil
}

// archive flips a session to archived and stamps ArchivedAt. No-op when
// already archived.
func archive(tx *gorm.DB, session *models.Session) error {
	if session.Archived {
		return nil
	}
	now := time.Now().UTC()
	session.Archived = true
	session.ArchivedAt = &now
	if err := tx.Model(session).Updates(map[string]interface{}{
		"archived":    true,
		"archived_at": now,
	}).Error; err != nil {
		return fmt.Errorf("archive session: %w", err)
	}
	return nil
}

// Archive archives the session. Idempotent.
func (s *SessionService) Archive(sessionID, teacherID uint) (*models.Session, error) {
	session, err := s.GetOwned(sessionID, teacherID)
	if err != nil {
		return nil, err
	}
	if err := archive(s.DB, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Unarchive restores an archived session to the active state, guarded by the
// conflict check: another session may have taken the (teacher, section) slot
// since. The conflict is never auto-resolved; the caller must archive the
// occupant and retry. When OriginalName was saved it is restored into Name.
func (s *SessionService) Unarchive(sessionID, teacherID uint) (*models.Session, error) {
	session, err := s.GetOwned(sessionID, teacherID)
	if err != nil {
		return nil, err
	}
	if !session.Archived {
		return nil, ErrNotArchived
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		existing, err := s.CheckConflict(tx, session.CreatedByID, session.Section, session.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return &ConflictError{Existing: existing}
		}

		updates := map[string]interface{}{
			"archived":    false,
			"archived_at": nil,
		}
		session.Archived = false
		session.ArchivedAt = nil
		if session.OriginalName != "" {
			updates["name"] = session.OriginalName
			updates["original_name"] = ""
			session.Name = session.OriginalName
			session.OriginalName = ""
		}
		if err := tx.Model(&models.Session{}).Where("id = ?", session.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("unarchive session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Pause blocks student access without ending the session. Rejected for
// archived sessions; idempotent otherwise.
func (s *SessionService) Pause(sessionID, teacherID uint) (*models.Session, error) {
	return s.setPaused(sessionID, teacherID, true)
}

// Resume lifts a pause. Rejected for archived sessions; idempotent otherwise.
func (s *SessionService) Resume(sessionID, teacherID uint) (*models.Session, error) {
	return s.setPaused(sessionID, teacherID, false)
}

func (s *SessionService) setPaused(sessionID, teacherID uint, paused bool) (*models.Session, error) {
	session, err := s.GetOwned(sessionID, teacherID)
	if err != nil {
		return nil, err
	}
	if session.Archived {
		return nil, ErrSessionArchived
	}
	if session.Paused == paused {
		return session, nil
	}
	if err := s.DB.Model(session).Update("paused", paused).Error; err != nil {
		return nil, fmt.Errorf("update paused: %w", err)
	}
	session.Paused = paused
	return session, nil
}

// Delete permanently removes a session and its roster. Only archived
// sessions may be deleted, to prevent accidental data loss.
func (s *SessionService) Delete(sessionID, teacherID uint) error {
	session, err := s.GetOwned(sessionID, teacherID)
	if err != nil {
		return err
	}
	if !session.Archived {
		return ErrNotArchived
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", session.ID).Delete(&models.Student{}).Error; err != nil {
			return fmt.Errorf("delete roster: %w", err)
		}
		if err := tx.Delete(session).Error; err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// List returns the teacher's sessions, newest first, optionally filtered by
// status (active, paused, archived).
func (s *SessionService) List(teacherID uint, status string) ([]models.Session, error) {
	q := s.DB.Where("created_by_id = ?", teacherID).Order("created_at DESC")
	switch status {
	case "active":
		q = q.Where("archived = ? AND paused = ?", false, false)
	case "paused":
		q = q.Where("archived = ? AND paused = ?", false, true)
	case "archived":
		q = q.Where("archived = ?", true)
	case "":
	default:
		return nil, &ValidationError{Reason: fmt.Errorf("unknown status filter %q", status)}
	}

	var sessions []models.Session
	if err := q.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// FindByCode loads a session by its access code, for student self-serve login.
func (s *SessionService) FindByCode(code string) (*models.Session, error) {
	var session models.Session
	if err := s.DB.Where("code = ?", code).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find session by code: %w", err)
	}
	return &session, nil
}
