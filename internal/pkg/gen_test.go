package pkg

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateGameID(t *testing.T) {
	// When: generating room codes
	first := GenerateGameID()
	second := GenerateGameID()

	// Then: they are short uppercase hex codes and differ
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{6}$`), first)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{6}$`), second)
	assert.NotEqual(t, first, second)
}

func TestGenerateNewSessionID(t *testing.T) {
	id := GenerateNewSessionID()

	_, err := uuid.Parse(id)
	require.NoError(t, err)
}
