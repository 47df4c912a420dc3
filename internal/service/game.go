package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/pkg"
	"github.com/rocketscienceinc/bingo-backend/internal/repository"
)

// maxCreateAttempts bounds how many room codes are tried before giving up.
const maxCreateAttempts = 5

type GameService interface {
	CreateGame(ctx context.Context, host *entity.Player, gameType string) (*entity.Game, error)
	UpdateGame(ctx context.Context, game *entity.Game) error
	ModifyGame(ctx context.Context, gameID string, fn func(game *entity.Game) error) (*entity.Game, error)
	DeleteGame(ctx context.Context, gameID string) error

	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	GetPublicGame(ctx context.Context) (*entity.Game, error)
}

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	Update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error)

	GetByID(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingPublicGame(ctx context.Context) (*entity.Game, error)

	DeleteByID(ctx context.Context, id string) error
}

type gameService struct {
	gameRepo   gameRepo
	maxPlayers int
	newGameID  func() string
}

// NewGameService creates games with room for maxPlayers; zero falls back to the default.
func NewGameService(gameRepo gameRepo, maxPlayers int) GameService {
	return &gameService{
		gameRepo:   gameRepo,
		maxPlayers: maxPlayers,
		newGameID:  pkg.GenerateGameID,
	}
}

// CreateGame opens a new game with host seated in it. A room code that is
// already taken is replaced by a fresh one, so a live room is never overwritten.
func (that *gameService) CreateGame(ctx context.Context, host *entity.Player, gameType string) (*entity.Game, error) {
	var err error

	for range maxCreateAttempts {
		game := entity.NewGame(that.newGameID(), gameType, that.maxPlayers)

		if err = game.AddPlayer(host); err != nil {
			return nil, fmt.Errorf("failed to seat host: %w", err)
		}

		err = that.gameRepo.Create(ctx, game)
		if err == nil {
			return game, nil
		}

		if !errors.Is(err, repository.ErrGameExists) {
			return nil, fmt.Errorf("failed to create game in storage: %w", err)
		}

		host.GameID = ""
	}

	return nil, fmt.Errorf("failed to find a free room code: %w", err)
}

func (that *gameService) GetGameByID(ctx context.Context, id string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve game from storage: %w", err)
	}

	return game, nil
}

func (that *gameService) GetPublicGame(ctx context.Context) (*entity.Game, error) {
	game, err := that.gameRepo.GetWaitingPublicGame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve waiting public game from storage: %w", err)
	}

	return game, nil
}

func (that *gameService) UpdateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

// ModifyGame applies fn to the latest stored state of the game. Concurrent
// changes to one game never overwrite each other.
func (that *gameService) ModifyGame(ctx context.Context, gameID string, fn func(game *entity.Game) error) (*entity.Game, error) {
	game, err := that.gameRepo.Update(ctx, gameID, fn)
	if err != nil {
		return game, fmt.Errorf("failed to modify game %s: %w", gameID, err)
	}

	return game, nil
}

func (that *gameService) DeleteGame(ctx context.Context, gameID string) error {
	if err := that.gameRepo.DeleteByID(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	return nil
}
