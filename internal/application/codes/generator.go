package codes

import (
	"crypto/rand"
	"fmt"
	"io"

	"ride-backend/internal/domain"

	"github.com/rs/zerolog/log"
)

const (
	DefaultLength      = 10
	DefaultMaxAttempts = 20
	Alphabet           = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Largest multiple of len(Alphabet) that fits in a byte; bytes at or above it
// are rejected so every symbol is equally likely.
const rejectAbove = 256 - 256%len(Alphabet)

// Exists reports whether a code is already taken in the ledger.
type Exists func(code string) (bool, error)

// Generator draws fixed-length, case-sensitive alphanumeric invitation codes.
// The zero value is ready to use.
type Generator struct {
	Length      int
	MaxAttempts int
	Source      io.Reader
}

func (g *Generator) length() int {
	if g.Length <= 0 {
		return DefaultLength
	}
	return g.Length
}

func (g *Generator) maxAttempts() int {
	if g.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return g.MaxAttempts
}

func (g *Generator) source() io.Reader {
	if g.Source == nil {
		return rand.Reader
	}
	return g.Source
}

// Draw returns one random code without checking the ledger.
func (g *Generator) Draw() (string, error) {
	n := g.length()
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(g.source(), buf); err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// Generate draws codes until exists reports one as free. After MaxAttempts
// collisions it gives up with domain.ErrCodeSpaceExhausted.
func (g *Generator) Generate(exists Exists) (string, error) {
	attempts := g.maxAttempts()
	for i := 0; i < attempts; i++ {
		code, err := g.Draw()
		if err != nil {
			return "", err
		}
		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	log.Error().Int("attempts", attempts).Int("length", g.length()).Msg("codes: no free invitation code found")
	return "", domain.ErrCodeSpaceExhausted
}
