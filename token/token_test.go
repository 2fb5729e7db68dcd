package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateProducesValidTokens(t *testing.T) {
	for i := 0; i < 100; i++ {
		tok := Generate()
		assert.Len(t, tok, Length)
		assert.True(t, IsValid(tok), tok)
		assert.Empty(t, strings.Trim(tok, generatorAlphabet), tok)
	}
}

func TestGenerateIsNotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		seen[Generate()] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestGenerateWithLength(t *testing.T) {
	assert.Equal(t, "", GenerateWithLength(0))
	assert.Equal(t, "", GenerateWithLength(-1))
	assert.Len(t, GenerateWithLength(33), 33)
	assert.False(t, IsValid(GenerateWithLength(33)))
	assert.False(t, IsValid(GenerateWithLength(31)))
}

func TestIsValid(t *testing.T) {
	valid := []string{
		strings.Repeat("A", 32),
		"0123456789ABCDEF0123456789ABCDEF",
		"ZYXWVUTSRQPONMLKJIHGFEDCBA012345",
	}
	for _, s := range valid {
		assert.True(t, IsValid(s), s)
	}
	invalid := []string{
		"",
		strings.Repeat("A", 31),
		strings.Repeat("A", 33),
		strings.Repeat("a", 32),
		"0123456789ABCDEF0123456789ABCDE!",
		"0123456789ABCDEF0123456789ABCD\n",
		strings.Repeat("A", 32) + "\n",
	}
	for _, s := range invalid {
		assert.False(t, IsValid(s), "%q", s)
	}
}
