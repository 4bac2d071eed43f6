package generator

import (
	"fmt"
	"math/rand"
)

// CodeAlphabet is the symbol set for session codes.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the fixed length of a session code.
const CodeLength = 8

// Generator draws tokens from an injected random source.
type Generator struct {
	rng *rand.Rand
}

// New returns a Generator over a deterministic source seeded with seed.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NewRandom returns a Generator seeded from crypto/rand.
func NewRandom() (*Generator, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, fmt.Errorf("seed generator: %w", err)
	}
	return New(seed), nil
}

// Token draws length symbols uniformly from alphabet, rejecting any token
// the exists oracle already knows. Collisions are expected to be rare given
// the alphabet size, so plain rejection sampling is enough; there is no
// reservation step.
func (g *Generator) Token(alphabet string, length int, exists func(string) bool) string {
	buf := make([]byte, length)
	for {
		for i := range buf {
			buf[i] = alphabet[g.rng.Intn(len(alphabet))]
		}
		token := string(buf)
		if exists == nil || !exists(token) {
			return token
		}
	}
}

// SessionCode draws a unique 8-character session code.
func (g *Generator) SessionCode(exists func(string) bool) string {
	return g.Token(CodeAlphabet, CodeLength, exists)
}

// Pin draws a random 4-digit PIN in [1000, 9999].
func (g *Generator) Pin() string {
	return fmt.Sprintf("%d", 1000+g.rng.Intn(9000))
}
