package pkg

import (
	"strings"

	"github.com/google/uuid"
)

const gameIDLength = 6

// GenerateGameID returns a short room code players can type in, e.g. "3F9A1C".
func GenerateGameID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")

	return strings.ToUpper(id[:gameIDLength])
}

// GenerateNewSessionID - generates a new unique sessionID.
func GenerateNewSessionID() string {
	return uuid.NewString()
}
