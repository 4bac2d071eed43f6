package service

import (
	"errors"
	"fmt"

	"github.com/admiralorbiter/DataDeckv2/internal/generator"
	"github.com/admiralorbiter/DataDeckv2/internal/models"
	"github.com/admiralorbiter/DataDeckv2/internal/util"

	"gorm.io/gorm"
)

// RosterService reads and rewrites student identities after provisioning:
// listing, deletion and credential rotation for re-printed access cards.
type RosterService struct {
	DB  *gorm.DB
	Gen *generator.Generator
}

func NewRosterService(db *gorm.DB, gen *generator.Generator) *RosterService {
	return &RosterService{DB: db, Gen: gen}
}

// StudentsForTeacher lists a teacher's students ordered by character name,
// optionally scoped to one session.
func (r *RosterService) StudentsForTeacher(teacherID uint, sessionID uint) ([]models.Student, error) {
	q := r.DB.Where("teacher_id = ?", teacherID)
	if sessionID != 0 {
		q = q.Where("session_id = ?", sessionID)
	}

	var students []models.Student
	if err := q.Order("character_name").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// getOwned loads a student only when the requesting teacher owns it.
func (r *RosterService) getOwned(studentID, teacherID uint) (*models.Student, error) {
	var student models.Student
	err := r.DB.Where("id = ? AND teacher_id = ?", studentID, teacherID).First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load student: %w", err)
	}
	return &student, nil
}

// DeleteStudent removes one identity. Soft-fails: returns false without
// error when the student does not exist or the teacher does not own it.
func (r *RosterService) DeleteStudent(studentID, teacherID uint) (bool, error) {
	student, err := r.getOwned(studentID, teacherID)
	if err != nil {
		return false, err
	}
	if student == nil {
		return false, nil
	}
	if err := r.DB.Delete(student).Error; err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	return true, nil
}

// ResetPin regenerates one student's PIN, unique against the rest of the
// student's roster, and returns the plaintext for immediate display. Returns
// empty string without mutation when the teacher does not own the student.
func (r *RosterService) ResetPin(studentID, teacherID uint) (string, error) {
	student, err := r.getOwned(studentID, teacherID)
	if err != nil {
		return "", err
	}
	if student == nil {
		return "", nil
	}

	// Plaintext PINs of roster mates are gone; check candidates against
	// their stored hashes instead. Each probe costs one PBKDF2 pass per
	// mate, so SinglePin keeps the probe count small.
	var mates []models.Student
	if err := r.DB.Where("session_id = ? AND id <> ?", student.SessionID, student.ID).
		Find(&mates).Error; err != nil {
		return "", fmt.Errorf("load roster: %w", err)
	}

	pin := r.Gen.SinglePin(func(candidate string) bool {
		for i := range mates {
			if util.CheckPin(candidate, mates[i].PinHash) {
				return true
			}
		}
		return false
	}, fmt.Sprintf("%d", 1000+student.ID))

	hash, err := util.HashPin(pin)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	if err := r.DB.Model(student).Update("pin_hash", hash).Error; err != nil {
		return "", fmt.Errorf("update pin: %w", err)
	}

	return pin, nil
}

// RegenerateRosterPins rotates every PIN of a session's roster in one pass,
// pairwise-unique within the batch, and returns studentID -> plaintext PIN.
// This is the only operation that rewrites multiple identities' secrets.
// All updates commit or roll back together.
func (r *RosterService) RegenerateRosterPins(sessionID, teacherID uint) (*models.Session, []models.Student, map[uint]string, error) {
	var session models.Session
	err := r.DB.Where("id = ? AND created_by_id = ?", sessionID, teacherID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrNotFound
		}
		return nil, nil, nil, fmt.Errorf("load session: %w", err)
	}

	var students []models.Student
	if err := r.DB.Where("session_id = ?", sessionID).
		Order("character_name").Find(&students).Error; err != nil {
		return nil, nil, nil, fmt.Errorf("load roster: %w", err)
	}
	if len(students) == 0 {
		return nil, nil, nil, ErrNotFound
	}

	ids := make([]uint, len(students))
	for i := range students {
		ids[i] = students[i].ID
	}
	pins := r.Gen.PinBatch(ids)

	err = r.DB.Transaction(func(tx *gorm.DB) error {
		for i := range students {
			hash, err := util.HashPin(pins[students[i].ID])
			if err != nil {
				return fmt.Errorf("hash pin: %w", err)
			}
			if err := tx.Model(&students[i]).Update("pin_hash", hash).Error; err != nil {
				return fmt.Errorf("update pin: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	return &session, students, pins, nil
}

// Authenticate resolves a student self-serve login: session code, character
// name and PIN. Paused and archived sessions refuse student access.
func (r *RosterService) Authenticate(session *models.Session, characterName, pin string) (*models.Student, error) {
	if session.Archived {
		return nil, ErrSessionArchived
	}
	if session.Paused {
		return nil, ErrSessionPaused
	}

	var student models.Student
	err := r.DB.Where("session_id = ? AND character_name = ?", session.ID, characterName).
		First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load student: %w", err)
	}

	if !util.CheckPin(pin, student.PinHash) {
		return nil, ErrNotFound
	}
	return &student, nil
}
