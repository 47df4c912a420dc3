package service

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rocketscienceinc/bingo-backend/internal/bingo"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

var ErrBotNotFound = errors.New("bot player not found")

type BotService interface {
	MakeTurn(game *entity.Game) error
}

type botService struct {
	src bingo.Source
}

// NewBotService returns a bot that calls a uniformly random number from its own
// board among those not called yet. A nil src uses the global generator.
func NewBotService(src bingo.Source) BotService {
	return &botService{src: src}
}

func (that *botService) MakeTurn(game *entity.Game) error {
	bot := game.BotPlayer()
	if bot == nil {
		return ErrBotNotFound
	}

	remaining := bot.Board.Remaining(&game.Called)
	if len(remaining) == 0 {
		return game.PassTurn(bot.ID)
	}

	number := remaining[that.intN(len(remaining))]

	if _, err := game.CallNumber(bot.ID, number); err != nil {
		return fmt.Errorf("bot failed to call %d: %w", number, err)
	}

	return nil
}

func (that *botService) intN(n int) int {
	if that.src == nil {
		return rand.IntN(n) //nolint: gosec // game randomness
	}

	return that.src.IntN(n)
}
