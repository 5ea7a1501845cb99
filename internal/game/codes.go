// internal/game/codes.go
package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"strings"
	"sync"
)

const (
	// RoomCodeAlphabet omits I, O, 0 and 1 so codes can be read aloud.
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	RoomCodeLength   = 6

	CardIDAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"
	CardIDLength   = 8

	maxCodeAttempts = 64
)

// CodeGenerator draws fixed-length codes from an alphabet and retries on
// collision. It is safe for concurrent use.
type CodeGenerator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	alphabet string
	length   int
}

// NewCodeGenerator builds a generator. A nil rng is replaced by a securely seeded one.
func NewCodeGenerator(alphabet string, length int, rng *rand.Rand) *CodeGenerator {
	if rng == nil {
		rng = NewRand()
	}
	return &CodeGenerator{rng: rng, alphabet: alphabet, length: length}
}

// Next returns a code for which taken reports false. taken may be nil.
func (g *CodeGenerator) Next(taken func(code string) bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var sb strings.Builder
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		sb.Reset()
		for i := 0; i < g.length; i++ {
			sb.WriteByte(g.alphabet[g.rng.IntN(len(g.alphabet))])
		}
		code := sb.String()
		if taken == nil || !taken(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// NewRand returns a PCG source seeded from crypto/rand.
func NewRand() *rand.Rand {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:])))
}
