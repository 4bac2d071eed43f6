package util

import "fmt"

// CharacterSets lists the roster themes a session may be created with.
var CharacterSets = []string{"animals", "superheroes", "fantasy", "space"}

// ValidateSection checks the section/period number (1-12).
func ValidateSection(section int) error {
	if section < 1 || section > 12 {
		return fmt.Errorf("section must be between 1 and 12, got %d", section)
	}
	return nil
}

// ValidateStudentCount checks the requested roster size against the
// configured bounds.
func ValidateStudentCount(count, min, max int) error {
	if count < min || count > max {
		return fmt.Errorf("student count must be between %d and %d, got %d", min, max, count)
	}
	return nil
}

// ValidateCharacterSet checks the roster theme name.
func ValidateCharacterSet(set string) error {
	for _, s := range CharacterSets {
		if s == set {
			return nil
		}
	}
	return fmt.Errorf("unknown character set %q", set)
}

// ValidateSessionName checks the session display name.
func ValidateSessionName(name string) error {
	if name == "" {
		return fmt.Errorf("session name is empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("session name too long, max 128 characters")
	}
	return nil
}
