package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/admiralorbiter/DataDeckv2/internal/database"
	"github.com/admiralorbiter/DataDeckv2/internal/generator"
	"github.com/admiralorbiter/DataDeckv2/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newTeacher(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	teacher := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleTeacher,
	}
	if err := db.Create(teacher).Error; err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	return teacher
}

func newModule(t *testing.T, db *gorm.DB) *models.Module {
	t.Helper()
	module := &models.Module{Name: "Data Analysis " + t.Name(), Active: true}
	if err := db.Create(module).Error; err != nil {
		t.Fatalf("create module: %v", err)
	}
	return module
}

func newSessionService(db *gorm.DB) *SessionService {
	return NewSessionService(db, generator.New(1))
}

func createInput(teacher *models.User, moduleID uint, section int, autoArchive bool) CreateSessionInput {
	return CreateSessionInput{
		Teacher:             teacher,
		Name:                "Period Session",
		Section:             section,
		ModuleID:            moduleID,
		CharacterSet:        "animals",
		StudentCount:        5,
		AutoArchiveExisting: autoArchive,
	}
}

func TestCheckConflict(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	// empty registry: no conflict
	conflict, err := svc.CheckConflict(db, teacher.ID, 1, 0)
	if err != nil {
		t.Fatalf("check conflict: %v", err)
	}
	if conflict != nil {
		t.Fatal("expected no conflict in empty registry")
	}

	session, _, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// same slot: conflict found
	conflict, err = svc.CheckConflict(db, teacher.ID, 1, 0)
	if err != nil {
		t.Fatalf("check conflict: %v", err)
	}
	if conflict == nil || conflict.ID != session.ID {
		t.Fatal("expected the created session as conflict")
	}

	// different section: no conflict
	conflict, _ = svc.CheckConflict(db, teacher.ID, 2, 0)
	if conflict != nil {
		t.Fatal("expected no conflict for another section")
	}

	// different teacher: no conflict
	other := newTeacher(t, db, "teacher2")
	conflict, _ = svc.CheckConflict(db, other.ID, 1, 0)
	if conflict != nil {
		t.Fatal("expected no conflict for another teacher")
	}

	// excluded id: no conflict
	conflict, _ = svc.CheckConflict(db, teacher.ID, 1, session.ID)
	if conflict != nil {
		t.Fatal("expected no conflict when excluding the session itself")
	}

	// archived sessions never conflict
	if _, err := svc.Archive(session.ID, teacher.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	conflict, _ = svc.CheckConflict(db, teacher.ID, 1, 0)
	if conflict != nil {
		t.Fatal("archived session must not count as conflict")
	}
}

func TestCreateSessionProvisionsRoster(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	session, wasArchived, roster, err := svc.CreateSession(createInput(teacher, module.ID, 3, false))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if wasArchived {
		t.Error("nothing to archive on first create")
	}
	if len(session.Code) != generator.CodeLength {
		t.Errorf("code %q has wrong length", session.Code)
	}
	if session.Status() != "active" {
		t.Errorf("new session status %q, want active", session.Status())
	}
	if len(roster) != 5 {
		t.Fatalf("roster size %d, want 5", len(roster))
	}

	var count int64
	db.Model(&models.Student{}).Where("session_id = ?", session.ID).Count(&count)
	if count != 5 {
		t.Errorf("%d students persisted, want 5", count)
	}

	for _, p := range roster {
		if p.Pin == "" {
			t.Error("plaintext pin missing from provisioning result")
		}
		if p.Student.PinHash == p.Pin {
			t.Error("pin stored unhashed")
		}
		if p.Student.TeacherID != teacher.ID {
			t.Error("student not owned by creating teacher")
		}
	}
}

func TestCreateSessionConflictWithoutAutoArchive(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	existing, _, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	_, _, _, err = svc.CreateSession(createInput(teacher, module.ID, 1, false))
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.Existing == nil || ce.Existing.ID != existing.ID {
		t.Error("conflict error should carry the existing session")
	}

	// nothing extra was created
	var count int64
	db.Model(&models.Session{}).Where("created_by_id = ?", teacher.ID).Count(&count)
	if count != 1 {
		t.Errorf("%d sessions exist, want 1", count)
	}
}

func TestCreateSessionAutoArchivesConflict(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	old, _, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	fresh, wasArchived, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, true))
	if err != nil {
		t.Fatalf("create with auto-archive: %v", err)
	}
	if !wasArchived {
		t.Error("wasArchived should be true")
	}
	if fresh.Code == old.Code {
		t.Error("new session must have a different code")
	}

	var oldRow models.Session
	db.First(&oldRow, old.ID)
	if !oldRow.Archived || oldRow.ArchivedAt == nil {
		t.Error("old session should be archived with a timestamp")
	}

	var freshRow models.Session
	db.First(&freshRow, fresh.ID)
	if freshRow.Archived || freshRow.Paused {
		t.Error("new session should be active")
	}

	// exactly one live session for the slot
	conflict, _ := svc.CheckConflict(db, teacher.ID, 1, 0)
	if conflict == nil || conflict.ID != fresh.ID {
		t.Error("the new session should own the slot")
	}
}

func TestCreateSessionRejectsBadCountBeforeMutation(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	old, _, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// an out-of-range roster size is rejected before the conflicting
	// session gets archived and before any row is written
	for _, badCount := range []int{0, -1, 51} {
		in := createInput(teacher, module.ID, 1, true)
		in.StudentCount = badCount
		_, _, _, err = svc.CreateSession(in)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("count %d: expected ValidationError, got %v", badCount, err)
		}
	}

	var oldRow models.Session
	db.First(&oldRow, old.ID)
	if oldRow.Archived {
		t.Error("rejected create must not archive the old session")
	}

	var count int64
	db.Model(&models.Session{}).Where("created_by_id = ?", teacher.ID).Count(&count)
	if count != 1 {
		t.Errorf("%d sessions exist after rejection, want 1", count)
	}

	var students int64
	db.Model(&models.Student{}).Where("teacher_id = ?", teacher.ID).Count(&students)
	if students != 5 {
		t.Errorf("%d students exist after rejection, want the original 5", students)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	cases := []struct {
		name   string
		mutate func(*CreateSessionInput)
	}{
		{"empty name", func(in *CreateSessionInput) { in.Name = "" }},
		{"section low", func(in *CreateSessionInput) { in.Section = 0 }},
		{"section high", func(in *CreateSessionInput) { in.Section = 13 }},
		{"bad theme", func(in *CreateSessionInput) { in.CharacterSet = "pirates" }},
	}

	for _, tc := range cases {
		in := createInput(teacher, module.ID, 1, false)
		tc.mutate(&in)
		_, _, _, err := svc.CreateSession(in)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: expected ValidationError, got %v", tc.name, err)
		}
	}

	// nothing was written
	var count int64
	db.Model(&models.Session{}).Count(&count)
	if count != 0 {
		t.Errorf("%d sessions written by rejected input", count)
	}
}

func TestArchiveUnarchiveRoundTrip(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	session, _, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := svc.Archive(session.ID, teacher.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	// idempotent: a second archive keeps the first timestamp
	first, _ := svc.GetOwned(session.ID, teacher.ID)
	if _, err := svc.Archive(session.ID, teacher.ID); err != nil {
		t.Fatalf("second archive: %v", err)
	}
	second, _ := svc.GetOwned(session.ID, teacher.ID)
	if first.ArchivedAt == nil || second.ArchivedAt == nil ||
		!first.ArchivedAt.Equal(*second.ArchivedAt) {
		t.Error("archive must be idempotent")
	}

	restored, err := svc.Unarchive(session.ID, teacher.ID)
	if err != nil {
		t.Fatalf("unarchive: %v", err)
	}
	if restored.Archived || restored.ArchivedAt != nil {
		t.Error("round trip should return the session to active with nil ArchivedAt")
	}

	var row models.Session
	db.First(&row, session.ID)
	if row.Archived || row.ArchivedAt != nil {
		t.Error("persisted row should be active with nil archived_at")
	}
}

func TestUnarchiveConflict(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	old, _, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := svc.Archive(old.ID, teacher.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	// another session takes the slot
	replacement, _, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	if err != nil {
		t.Fatalf("create replacement: %v", err)
	}

	_, err = svc.Unarchive(old.ID, teacher.ID)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.Existing.ID != replacement.ID {
		t.Error("conflict should reference the occupying session")
	}

	// old session remains archived
	var row models.Session
	db.First(&row, old.ID)
	if !row.Archived {
		t.Error("failed unarchive must not mutate the session")
	}
}

func TestUnarchiveRestoresOriginalName(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	session, _, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := svc.Archive(session.ID, teacher.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	// nothing in the lifecycle sets OriginalName; plant one directly
	db.Model(&models.Session{}).Where("id = ?", session.ID).
		Updates(map[string]interface{}{"name": "Renamed", "original_name": "First Name"})

	restored, err := svc.Unarchive(session.ID, teacher.ID)
	if err != nil {
		t.Fatalf("unarchive: %v", err)
	}
	if restored.Name != "First Name" || restored.OriginalName != "" {
		t.Errorf("got name=%q original=%q, want restored name and cleared original",
			restored.Name, restored.OriginalName)
	}
}

func TestUnarchiveRequiresArchived(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	session, _, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := svc.Unarchive(session.ID, teacher.ID); !errors.Is(err, ErrNotArchived) {
		t.Errorf("expected ErrNotArchived, got %v", err)
	}
}

func TestPauseResume(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	session, _, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	paused, err := svc.Pause(session.ID, teacher.ID)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Status() != "paused" {
		t.Errorf("status %q, want paused", paused.Status())
	}

	// pause does not free the conflict slot
	conflict, _ := svc.CheckConflict(db, teacher.ID, 1, 0)
	if conflict == nil {
		t.Error("paused session must still occupy the slot")
	}

	resumed, err := svc.Resume(session.ID, teacher.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status() != "active" {
		t.Errorf("status %q, want active", resumed.Status())
	}

	// archived sessions cannot pause or resume
	if _, err := svc.Archive(session.ID, teacher.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := svc.Pause(session.ID, teacher.ID); !errors.Is(err, ErrSessionArchived) {
		t.Errorf("pause on archived: expected ErrSessionArchived, got %v", err)
	}
	if _, err := svc.Resume(session.ID, teacher.ID); !errors.Is(err, ErrSessionArchived) {
		t.Errorf("resume on archived: expected ErrSessionArchived, got %v", err)
	}
}

func TestOwnershipChecks(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	other := newTeacher(t, db, "teacher2")
	module := newModule(t, db)

	session, _, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := svc.Archive(session.ID, other.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if _, err := svc.GetOwned(9999, teacher.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRequiresArchivedAndCascades(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	session, _, _, err := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := svc.Delete(session.ID, teacher.ID); !errors.Is(err, ErrNotArchived) {
		t.Errorf("delete of live session: expected ErrNotArchived, got %v", err)
	}

	if _, err := svc.Archive(session.ID, teacher.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := svc.Delete(session.ID, teacher.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var sessions, students int64
	db.Model(&models.Session{}).Where("id = ?", session.ID).Count(&sessions)
	db.Model(&models.Student{}).Where("session_id = ?", session.ID).Count(&students)
	if sessions != 0 || students != 0 {
		t.Errorf("after delete: %d sessions, %d students remain", sessions, students)
	}
}

func TestListWithStatusFilter(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	teacher := newTeacher(t, db, "teacher1")
	module := newModule(t, db)

	active, _, _, _ := svc.CreateSession(createInput(teacher, module.ID, 1, false))
	pausedSess, _, _, _ := svc.CreateSession(createInput(teacher, module.ID, 2, false))
	archivedSess, _, _, _ := svc.CreateSession(createInput(teacher, module.ID, 3, false))

	if _, err := svc.Pause(pausedSess.ID, teacher.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := svc.Archive(archivedSess.ID, teacher.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	all, err := svc.List(teacher.ID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("list all: %d, want 3", len(all))
	}

	check := func(status string, wantID uint) {
		got, err := svc.List(teacher.ID, status)
		if err != nil {
			t.Fatalf("list %s: %v", status, err)
		}
		if len(got) != 1 || got[0].ID != wantID {
			t.Errorf("list %s: unexpected result %+v", status, got)
		}
	}
	check("active", active.ID)
	check("paused", pausedSess.ID)
	check("archived", archivedSess.ID)

	if _, err := svc.List(teacher.ID, "bogus"); err == nil {
		t.Error("unknown status filter should be rejected")
	}
}
