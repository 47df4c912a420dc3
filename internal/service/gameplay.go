package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/repository"
)

type GamePlayService interface {
	JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	JoinWaitingPublicGame(ctx context.Context, playerID string) (*entity.Game, error)

	GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error)
	GetGameState(ctx context.Context, player *entity.Player) (*entity.Game, error)

	SetReady(ctx context.Context, playerID string, ready bool) (*entity.Game, error)
	StartGame(ctx context.Context, playerID string) (*entity.Game, error)
	CallNumber(ctx context.Context, playerID string, number int) (*entity.Game, bool, error)
	RestartGame(ctx context.Context, playerID string) (*entity.Game, error)
	LeaveGame(ctx context.Context, playerID string) (*entity.Game, error)

	CleanupGame(ctx context.Context, game *entity.Game)
}

type gamePlayService struct {
	logger *slog.Logger

	playerService PlayerService
	gameService   GameService
	botService    BotService
}

func NewGamePlayService(logger *slog.Logger, playerService PlayerService, gameService GameService, botService BotService) GamePlayService {
	return &gamePlayService{
		logger:        logger,
		playerService: playerService,
		gameService:   gameService,
		botService:    botService,
	}
}

// GetOrCreateGame returns the player's current game or opens a new one of gameType.
// Public games are shared: the player is seated in a waiting public room when one exists.
func (that *gamePlayService) GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error) {
	if err := entity.ValidateGameType(gameType); err != nil {
		return nil, err
	}

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	current, err := that.GetGameState(ctx, player)
	if err != nil {
		return nil, err
	}

	if current != nil && !current.IsFinished() {
		return current, nil
	}

	if current != nil {
		if _, err = that.LeaveGame(ctx, player.ID); err != nil {
			return nil, fmt.Errorf("failed to leave finished game: %w", err)
		}

		player.GameID = ""
	}

	if gameType == entity.PublicType {
		game, err := that.JoinWaitingPublicGame(ctx, playerID)
		if err == nil {
			return game, nil
		}

		if !errors.Is(err, apperror.ErrNoActiveGames) {
			return nil, err
		}
	}

	return that.createGame(ctx, player, gameType)
}

// GetGameState returns the game the player still plays in, or nil. Finished
// games and games that expired are released so the player can start over.
func (that *gamePlayService) GetGameState(ctx context.Context, player *entity.Player) (*entity.Game, error) {
	if player.GameID == "" {
		return nil, nil
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if errors.Is(err, repository.ErrGameNotFound) {
		return nil, that.release(ctx, player)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	if game.PlayerByID(player.ID) == nil {
		return nil, that.release(ctx, player)
	}

	return game, nil
}

func (that *gamePlayService) JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == gameID {
		game, err := that.GetGameState(ctx, player)
		if err != nil || game != nil {
			return game, err
		}
	}

	if err = that.leaveFinished(ctx, player); err != nil {
		return nil, err
	}

	return that.seat(ctx, gameID, player)
}

func (that *gamePlayService) JoinWaitingPublicGame(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if err = that.leaveFinished(ctx, player); err != nil {
		return nil, err
	}

	game, err := that.gameService.GetPublicGame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get waiting public game: %w", err)
	}

	return that.seat(ctx, game.ID, player)
}

func (that *gamePlayService) SetReady(ctx context.Context, playerID string, ready bool) (*entity.Game, error) {
	return that.modifyPlayerGame(ctx, playerID, func(game *entity.Game) error {
		return game.SetReady(playerID, ready)
	})
}

// StartGame starts a room once everyone is ready. Only the host may start it.
func (that *gamePlayService) StartGame(ctx context.Context, playerID string) (*entity.Game, error) {
	return that.modifyPlayerGame(ctx, playerID, func(game *entity.Game) error {
		if game.HostID != playerID {
			return apperror.ErrNotHost
		}

		return game.Start()
	})
}

// CallNumber calls number for the player. In a bot game the bot answers within the
// same update, so the human never observes a state where the bot owes a turn.
func (that *gamePlayService) CallNumber(ctx context.Context, playerID string, number int) (*entity.Game, bool, error) {
	log := that.logger.With("method", "CallNumber", "playerID", playerID)

	var applied bool

	game, err := that.modifyPlayerGame(ctx, playerID, func(game *entity.Game) error {
		var err error

		applied, err = game.CallNumber(playerID, number)
		if err != nil || !applied {
			return err
		}

		if !game.IsWithBot() || !game.IsOngoing() {
			return nil
		}

		if bot := game.BotPlayer(); bot != nil && game.Turn == bot.ID {
			if err = that.botService.MakeTurn(game); err != nil {
				return fmt.Errorf("bot failed to make turn: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return game, false, err
	}

	if game.IsFinished() {
		log.Info("game finished", "gameID", game.ID, "winners", game.Winners)
	}

	return game, applied, nil
}

// RestartGame deals new boards. Rooms can be restarted by the host once finished,
// bot games at any time.
func (that *gamePlayService) RestartGame(ctx context.Context, playerID string) (*entity.Game, error) {
	return that.modifyPlayerGame(ctx, playerID, func(game *entity.Game) error {
		if !game.IsWithBot() {
			if game.HostID != playerID {
				return apperror.ErrNotHost
			}

			if !game.IsFinished() {
				return apperror.ErrGameAlreadyStarted
			}
		}

		return game.Restart()
	})
}

// LeaveGame takes the player out of the game. The game is removed once no humans remain in it.
func (that *gamePlayService) LeaveGame(ctx context.Context, playerID string) (*entity.Game, error) {
	log := that.logger.With("method", "LeaveGame", "playerID", playerID)

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, apperror.ErrPlayerNotInGame
	}

	game, err := that.gameService.ModifyGame(ctx, player.GameID, func(game *entity.Game) error {
		_, err := game.RemovePlayer(playerID)
		return err
	})
	if err != nil && !errors.Is(err, apperror.ErrPlayerNotInGame) && !errors.Is(err, repository.ErrGameNotFound) {
		return nil, fmt.Errorf("failed to leave game: %w", err)
	}

	if err = that.release(ctx, player); err != nil {
		return nil, err
	}

	if game != nil && game.HostID == "" {
		that.CleanupGame(ctx, game)
		log.Info("last player left, game removed", "gameID", game.ID)
	}

	return game, nil
}

// CleanupGame removes the game and frees everyone still seated in it.
func (that *gamePlayService) CleanupGame(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "CleanupGame", "gameID", game.ID)

	if err := that.gameService.DeleteGame(ctx, game.ID); err != nil && !errors.Is(err, repository.ErrGameNotFound) {
		log.Error("failed to delete game", "error", err)
	}

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		session := player.Session()
		session.GameID = ""
		if err := that.playerService.UpdatePlayer(ctx, session); err != nil {
			log.Error("failed to update", "player", player.ID, "error", err)
		}
	}
}

func (that *gamePlayService) createGame(ctx context.Context, player *entity.Player, gameType string) (*entity.Game, error) {
	game, err := that.gameService.CreateGame(ctx, player, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	if game.IsWithBot() {
		if err = that.addBotToGame(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to add bot to game: %w", err)
		}
	}

	that.logger.Info("game created", "method", "createGame", "gameID", game.ID, "type", game.Type)

	return game, nil
}

// addBotToGame seats the bot and starts right away; the human calls first.
func (that *gamePlayService) addBotToGame(ctx context.Context, game *entity.Game) error {
	if err := game.AddPlayer(entity.NewBotPlayer(game.ID)); err != nil {
		return fmt.Errorf("failed to seat bot: %w", err)
	}

	for _, player := range game.Players {
		if err := game.SetReady(player.ID, true); err != nil {
			return fmt.Errorf("failed to ready %s: %w", player.ID, err)
		}
	}

	if err := game.Start(); err != nil {
		return fmt.Errorf("failed to start bot game: %w", err)
	}

	if err := that.gameService.UpdateGame(ctx, game); err != nil {
		return fmt.Errorf("failed to update game with bot: %w", err)
	}

	return nil
}

func (that *gamePlayService) seat(ctx context.Context, gameID string, player *entity.Player) (*entity.Game, error) {
	if player.GameID != "" && player.GameID != gameID {
		return nil, fmt.Errorf("%w: player is in game %s", apperror.ErrGameAlreadyExists, player.GameID)
	}

	game, err := that.gameService.ModifyGame(ctx, gameID, func(game *entity.Game) error {
		if game.IsWithBot() {
			return fmt.Errorf("%w: game %s is played against the bot", apperror.ErrGameFull, gameID)
		}

		return game.AddPlayer(player)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join game %s: %w", gameID, err)
	}

	player.GameID = game.ID
	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	return game, nil
}

// leaveFinished frees a player whose last game is over or gone.
func (that *gamePlayService) leaveFinished(ctx context.Context, player *entity.Player) error {
	current, err := that.GetGameState(ctx, player)
	if err != nil || current == nil {
		return err
	}

	if !current.IsFinished() {
		return nil
	}

	if _, err = that.LeaveGame(ctx, player.ID); err != nil {
		return err
	}

	player.GameID = ""

	return nil
}

func (that *gamePlayService) modifyPlayerGame(ctx context.Context, playerID string, fn func(game *entity.Game) error) (*entity.Game, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, apperror.ErrPlayerNotInGame
	}

	return that.gameService.ModifyGame(ctx, player.GameID, fn)
}

func (that *gamePlayService) release(ctx context.Context, player *entity.Player) error {
	player.GameID = ""

	if err := that.playerService.UpdatePlayer(ctx, player); err != nil {
		return fmt.Errorf("failed to release player: %w", err)
	}

	return nil
}
