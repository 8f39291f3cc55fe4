package codes

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"ride-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraw_LengthAndAlphabet(t *testing.T) {
	g := &Generator{}
	for i := 0; i < 100; i++ {
		code, err := g.Draw()
		require.NoError(t, err)
		assert.Len(t, code, DefaultLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected rune %q", r)
		}
	}
}

func TestDraw_CustomLength(t *testing.T) {
	g := &Generator{Length: 16}
	code, err := g.Draw()
	require.NoError(t, err)
	assert.Len(t, code, 16)
}

func TestDraw_SkipsBiasedBytes(t *testing.T) {
	// 255 is above the rejection bound and must be dropped; 0 and 1 map to 'A' and 'B'.
	src := bytes.NewReader([]byte{255, 0, 255, 1, 0, 1, 0, 0})
	g := &Generator{Length: 4, Source: src}
	code, err := g.Draw()
	require.NoError(t, err)
	assert.Equal(t, "ABAB", code)
}

func TestGenerate_RetriesOnCollision(t *testing.T) {
	g := &Generator{}
	seen := 0
	code, err := g.Generate(func(string) (bool, error) {
		seen++
		return seen < 3, nil
	})
	require.NoError(t, err)
	assert.Len(t, code, DefaultLength)
	assert.Equal(t, 3, seen)
}

func TestGenerate_ExhaustsAfterMaxAttempts(t *testing.T) {
	g := &Generator{MaxAttempts: 5}
	calls := 0
	_, err := g.Generate(func(string) (bool, error) {
		calls++
		return true, nil
	})
	assert.ErrorIs(t, err, domain.ErrCodeSpaceExhausted)
	assert.Equal(t, domain.KindFatal, domain.KindOf(err))
	assert.Equal(t, 5, calls)
}

func TestGenerate_PropagatesLookupError(t *testing.T) {
	boom := errors.New("boom")
	g := &Generator{}
	_, err := g.Generate(func(string) (bool, error) { return false, boom })
	assert.ErrorIs(t, err, boom)
}

func TestGenerate_SourceFailure(t *testing.T) {
	g := &Generator{Source: bytes.NewReader(nil)}
	_, err := g.Generate(func(string) (bool, error) { return false, nil })
	require.Error(t, err)
}
