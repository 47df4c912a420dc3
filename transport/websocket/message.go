package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/bingo"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/repository"
)

const (
	actionConnect = "connect"
	actionNew     = "game:new"
	actionJoin    = "game:join"
	actionReady   = "game:ready"
	actionStart   = "game:start"
	actionCall    = "game:call"
	actionRestart = "game:restart"
	actionLeave   = "game:leave"
	actionError   = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload is shared by requests and responses. Requests fill only the fields their action needs.
type Payload struct {
	Player  *entity.Player `json:"player,omitempty"`
	Game    *entity.Game   `json:"game,omitempty"`
	Number  *int           `json:"number,omitempty"`
	Ready   *bool          `json:"ready,omitempty"`
	Applied *bool          `json:"applied,omitempty"`
	Letters string         `json:"letters,omitempty"`
	Result  string         `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// publicErrors are safe to show to players as is.
var publicErrors = []error{
	apperror.ErrNotFound,
	apperror.ErrGameFinished,
	apperror.ErrGameIsNotStarted,
	apperror.ErrGameAlreadyStarted,
	apperror.ErrNotYourTurn,
	apperror.ErrNoActiveGames,
	apperror.ErrGameAlreadyExists,
	apperror.ErrGameFull,
	apperror.ErrNotEnoughPlayers,
	apperror.ErrPlayersNotReady,
	apperror.ErrNotHost,
	apperror.ErrPlayerNotInGame,
	apperror.ErrNumberNotOnBoard,
	bingo.ErrInvalidNumber,
	entity.ErrUnknownGameType,
	repository.ErrGameNotFound,
}

func errorMessage(err error) string {
	for _, known := range publicErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return "internal error"
}

func newMessage(action string, payload Payload) (Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return Message{Action: action, Payload: body}, nil
}
