package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/repository"
)

// Turn is the outcome of a call. Applied is false when the number had been called before.
type Turn struct {
	Game    *entity.Game
	Applied bool
}

type GameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID, name string) (*entity.Player, error)

	GetGameByID(ctx context.Context, gameID string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)
	GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)

	SetReady(ctx context.Context, playerID string, ready bool) (*entity.Game, error)
	StartGame(ctx context.Context, playerID string) (*entity.Game, error)
	CallNumber(ctx context.Context, playerID string, number int) (*Turn, error)
	RestartGame(ctx context.Context, playerID string) (*entity.Game, error)
	LeaveGame(ctx context.Context, playerID string) (*entity.Game, error)
}

type playerService interface {
	CreatePlayer(ctx context.Context, name string) (*entity.Player, error)
	GetPlayerByID(ctx context.Context, id string) (*entity.Player, error)
	UpdatePlayer(ctx context.Context, player *entity.Player) error
}

type gameService interface {
	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
}

type gamePlayService interface {
	GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error)
	GetGameState(ctx context.Context, player *entity.Player) (*entity.Game, error)
	JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error)

	SetReady(ctx context.Context, playerID string, ready bool) (*entity.Game, error)
	StartGame(ctx context.Context, playerID string) (*entity.Game, error)
	CallNumber(ctx context.Context, playerID string, number int) (*entity.Game, bool, error)
	RestartGame(ctx context.Context, playerID string) (*entity.Game, error)
	LeaveGame(ctx context.Context, playerID string) (*entity.Game, error)
}

type gameUseCase struct {
	playerService   playerService
	gameService     gameService
	gamePlayService gamePlayService
}

func NewGameUseCase(playerService playerService, gameService gameService, gamePlayService gamePlayService) GameUseCase {
	return &gameUseCase{
		playerService:   playerService,
		gameService:     gameService,
		gamePlayService: gamePlayService,
	}
}

// GetOrCreatePlayer resumes a known session or opens a new one. Expired sessions get a new id.
func (that *gameUseCase) GetOrCreatePlayer(ctx context.Context, playerID, name string) (*entity.Player, error) {
	if playerID == "" {
		return that.createPlayer(ctx, name)
	}

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		return that.createPlayer(ctx, name)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if name != "" && name != player.Name {
		player.Name = name
		if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
			return nil, fmt.Errorf("failed to rename player: %w", err)
		}
	}

	return player, nil
}

func (that *gameUseCase) GetGameByID(ctx context.Context, gameID string) (*entity.Game, error) {
	game, err := that.gameService.GetGameByID(ctx, gameID)
	if errors.Is(err, repository.ErrGameNotFound) {
		return nil, fmt.Errorf("game %s: %w", gameID, apperror.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	game, err := that.gamePlayService.GetGameState(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("failed to get game state: %w", err)
	}

	if game == nil {
		return nil, apperror.ErrNotFound
	}

	return game, nil
}

func (that *gameUseCase) GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error) {
	game, err := that.gamePlayService.GetOrCreateGame(ctx, playerID, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	game, err := that.gamePlayService.JoinGameByID(ctx, gameID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) SetReady(ctx context.Context, playerID string, ready bool) (*entity.Game, error) {
	game, err := that.gamePlayService.SetReady(ctx, playerID, ready)
	if err != nil {
		return nil, fmt.Errorf("failed to set ready: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) StartGame(ctx context.Context, playerID string) (*entity.Game, error) {
	game, err := that.gamePlayService.StartGame(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	return game, nil
}

// CallNumber returns apperror.ErrGameFinished together with the turn when the call ends the game.
func (that *gameUseCase) CallNumber(ctx context.Context, playerID string, number int) (*Turn, error) {
	game, applied, err := that.gamePlayService.CallNumber(ctx, playerID, number)
	if err != nil {
		return nil, fmt.Errorf("failed to call number: %w", err)
	}

	turn := &Turn{Game: game, Applied: applied}

	if applied && game.IsFinished() {
		return turn, apperror.ErrGameFinished
	}

	return turn, nil
}

func (that *gameUseCase) RestartGame(ctx context.Context, playerID string) (*entity.Game, error) {
	game, err := that.gamePlayService.RestartGame(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to restart game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) LeaveGame(ctx context.Context, playerID string) (*entity.Game, error) {
	game, err := that.gamePlayService.LeaveGame(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to leave game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) createPlayer(ctx context.Context, name string) (*entity.Player, error) {
	player, err := that.playerService.CreatePlayer(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("could not create player: %w", err)
	}

	return player, nil
}
