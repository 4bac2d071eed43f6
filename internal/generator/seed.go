// Package generator produces the short collision-free tokens the platform
// hands to classrooms: session codes, student PINs and themed roster names.
//
// All randomness flows through an injected math/rand source so callers can
// seed deterministically in tests; production seeds come from crypto/rand.
package generator

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
