package generator

import (
	"fmt"
	"log"
	"strings"
)

// Roster size bounds enforced by the provisioner itself; the request layer
// applies its own tighter form bounds.
const (
	MinRosterSize = 1
	MaxRosterSize = 50
)

// Per-seat draw budgets before deterministic fallback kicks in.
const (
	nameAttempts = 50
	pinAttempts  = 100

	// SinglePin consults a caller oracle that may verify the candidate
	// against stored hashes, so each probe costs a PBKDF2 pass per roster
	// mate. With at most 49 mates in a 9000-PIN space a collision per draw
	// is under 0.6%, so a handful of probes suffices before the
	// deterministic fallback.
	oracleAttempts = 3
)

// Seat is one provisioned roster slot. Pin is plaintext and exists only in
// memory; callers hash it before persisting anything.
type Seat struct {
	Index         int
	CharacterName string
	Username      string
	Pin           string
	AvatarPath    string
}

// Roster provisions count seats for a session: pairwise-distinct themed
// names, pairwise-distinct PINs and deterministic usernames derived from the
// session code. Generation always terminates; when the random draws are
// exhausted it degrades to deterministic fallback values instead of failing.
func (g *Generator) Roster(sessionCode, characterSet string, count int) ([]Seat, error) {
	if count < MinRosterSize || count > MaxRosterSize {
		return nil, fmt.Errorf("roster size must be between %d and %d, got %d",
			MinRosterSize, MaxRosterSize, count)
	}

	seats := make([]Seat, 0, count)
	usedNames := make(map[string]bool, count)
	usedPins := make(map[string]bool, count)

	for i := 1; i <= count; i++ {
		name := ""
		for attempt := 0; attempt < nameAttempts; attempt++ {
			candidate := g.characterName(characterSet, i+attempt)
			if !usedNames[candidate] {
				name = candidate
				break
			}
		}
		if name == "" {
			name = fmt.Sprintf("Student%02d", i)
			log.Printf("roster: name pool exhausted for theme %s, seat %d uses fallback %s",
				characterSet, i, name)
		}
		usedNames[name] = true

		pin := ""
		for attempt := 0; attempt < pinAttempts; attempt++ {
			candidate := g.Pin()
			if !usedPins[candidate] {
				pin = candidate
				break
			}
		}
		if pin == "" {
			pin = fmt.Sprintf("%d", 1000+i)
			log.Printf("roster: pin draws exhausted, seat %d uses fallback", i)
		}
		usedPins[pin] = true

		seats = append(seats, Seat{
			Index:         i,
			CharacterName: name,
			Username:      Username(sessionCode, i),
			Pin:           pin,
			AvatarPath:    fmt.Sprintf("/static/avatars/%s/%s.png", characterSet, strings.ToLower(name)),
		})
	}

	return seats, nil
}

// Username derives the login handle for roster index i. Deterministic, so it
// needs no uniqueness probing: the session code is itself unique.
func Username(sessionCode string, i int) string {
	return strings.ToLower(fmt.Sprintf("student_%s_%02d", sessionCode, i))
}

// PinBatch draws a pairwise-distinct PIN per id, in the order given. Ids are
// the fallback seed: an exhausted draw for id n yields 1000+n.
func (g *Generator) PinBatch(ids []uint) map[uint]string {
	pins := make(map[uint]string, len(ids))
	used := make(map[string]bool, len(ids))

	for _, id := range ids {
		pin := ""
		for attempt := 0; attempt < pinAttempts; attempt++ {
			candidate := g.Pin()
			if !used[candidate] {
				pin = candidate
				break
			}
		}
		if pin == "" {
			pin = fmt.Sprintf("%d", 1000+id)
			log.Printf("roster: pin draws exhausted, student %d uses fallback", id)
		}
		used[pin] = true
		pins[id] = pin
	}

	return pins
}

// SinglePin draws one PIN rejected by the taken oracle, degrading to the
// given fallback after a small probe budget. The budget is deliberately
// tight because the oracle is assumed expensive, see oracleAttempts.
func (g *Generator) SinglePin(taken func(pin string) bool, fallback string) string {
	for attempt := 0; attempt < oracleAttempts; attempt++ {
		candidate := g.Pin()
		if taken == nil || !taken(candidate) {
			return candidate
		}
	}
	log.Printf("roster: pin draws exhausted, using fallback")
	return fallback
}
