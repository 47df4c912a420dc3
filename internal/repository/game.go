package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

const (
	gameKeyPrefix      = "game:"
	waitingPublicGames = "games:public:waiting"

	maxUpdateRetries = 10
	updateBackoff    = 5 * time.Millisecond
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game id is taken")
)

type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	GetWaitingPublicGame(ctx context.Context) (*entity.Game, error)
	Update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbGame struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameRepository stores games as JSON. Every write refreshes ttl; zero keeps keys forever.
func NewGameRepository(client *redis.Client, ttl time.Duration) GameRepository {
	return &dbGame{
		client: client,
		ttl:    ttl,
	}
}

// Create stores a new game and fails with ErrGameExists when its id is already in use.
func (that *dbGame) Create(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	created, err := that.client.SetNX(ctx, gameKey(game.ID), gameJSON, that.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: %s", ErrGameExists, game.ID)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		indexGame(ctx, pipe, game)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index game: %w", err)
	}

	return nil
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(game.ID), gameJSON, that.ttl)
		indexGame(ctx, pipe, game)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Bytes()

	if errors.Is(err, redis.Nil) {
		return &entity.Game{}, ErrGameNotFound
	}

	if err != nil {
		return &entity.Game{}, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal(response, &existingGame); err != nil {
		return &entity.Game{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

// Update loads the game, applies fn and writes it back in one optimistic transaction.
// A concurrent write to the same game makes the transaction retry with a fresh copy,
// so fn always sees the latest state. If fn fails nothing is written and the loaded
// game is returned together with the error.
func (that *dbGame) Update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error) {
	key := gameKey(id)

	var result *entity.Game

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrGameNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get game: %w", err)
		}

		var game entity.Game
		if err = json.Unmarshal(data, &game); err != nil {
			return fmt.Errorf("failed to unmarshal game: %w", err)
		}

		result = &game

		if err = fn(&game); err != nil {
			return err
		}

		gameJSON, err := json.Marshal(&game)
		if err != nil {
			return fmt.Errorf("could not marshal game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, gameJSON, that.ttl)
			indexGame(ctx, pipe, &game)
			return nil
		})

		return err
	}

	backoff := retry.WithMaxRetries(maxUpdateRetries, retry.NewExponential(updateBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := that.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}

		return err
	})
	if errors.Is(err, redis.TxFailedErr) {
		return nil, fmt.Errorf("game %s is too busy: %w", id, err)
	}

	return result, err
}

func (that *dbGame) GetWaitingPublicGame(ctx context.Context) (*entity.Game, error) {
	ids, err := that.client.SMembers(ctx, waitingPublicGames).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list public games: %w", err)
	}

	for _, id := range ids {
		game, err := that.GetByID(ctx, id)
		if errors.Is(err, ErrGameNotFound) {
			that.client.SRem(ctx, waitingPublicGames, id)
			continue
		}

		if err != nil {
			return nil, err
		}

		if game.IsPublic() && game.IsWaiting() && len(game.Players) < game.MaxPlayers {
			return game, nil
		}
	}

	return nil, apperror.ErrNoActiveGames
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	var deleted *redis.IntCmd

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, gameKey(id))
		pipe.SRem(ctx, waitingPublicGames, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete game by ID: %w", err)
	}

	if deleted.Val() == 0 {
		return ErrGameNotFound
	}

	return nil
}

// indexGame keeps the set of joinable public games in step with the game itself.
func indexGame(ctx context.Context, pipe redis.Pipeliner, game *entity.Game) {
	if game.IsPublic() && game.IsWaiting() && len(game.Players) < game.MaxPlayers {
		pipe.SAdd(ctx, waitingPublicGames, game.ID)
		return
	}

	pipe.SRem(ctx, waitingPublicGames, game.ID)
}

func gameKey(id string) string {
	return gameKeyPrefix + id
}
