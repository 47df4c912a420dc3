package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/repository"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// memGameRepo keeps games as JSON like the Redis repository does, so callers never share pointers with it.
type memGameRepo struct {
	mu    sync.Mutex
	games map[string][]byte
}

func newMemGameRepo() *memGameRepo {
	return &memGameRepo{games: make(map[string][]byte)}
}

func (that *memGameRepo) Create(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[game.ID]; ok {
		return repository.ErrGameExists
	}

	return that.put(game)
}

func (that *memGameRepo) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.put(game)
}

func (that *memGameRepo) Update(_ context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.get(id)
	if err != nil {
		return nil, err
	}

	if err = fn(game); err != nil {
		return game, err
	}

	return game, that.put(game)
}

func (that *memGameRepo) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, err := that.get(id)
	if err != nil {
		return &entity.Game{}, err
	}

	return game, nil
}

func (that *memGameRepo) GetWaitingPublicGame(_ context.Context) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	ids := make([]string, 0, len(that.games))
	for id := range that.games {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		game, err := that.get(id)
		if err != nil {
			return nil, err
		}

		if game.IsPublic() && game.IsWaiting() && len(game.Players) < game.MaxPlayers {
			return game, nil
		}
	}

	return nil, apperror.ErrNoActiveGames
}

func (that *memGameRepo) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[id]; !ok {
		return repository.ErrGameNotFound
	}

	delete(that.games, id)

	return nil
}

func (that *memGameRepo) put(game *entity.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	that.games[game.ID] = data

	return nil
}

func (that *memGameRepo) get(id string) (*entity.Game, error) {
	data, ok := that.games[id]
	if !ok {
		return nil, repository.ErrGameNotFound
	}

	var game entity.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}

	return &game, nil
}

type memPlayerRepo struct {
	mu      sync.Mutex
	players map[string]entity.Player
}

func newMemPlayerRepo() *memPlayerRepo {
	return &memPlayerRepo{players: make(map[string]entity.Player)}
}

func (that *memPlayerRepo) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.players[player.ID] = *player

	return nil
}

func (that *memPlayerRepo) GetByID(_ context.Context, id string) (*entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[id]
	if !ok {
		return nil, repository.ErrPlayerNotFound
	}

	return &player, nil
}

// firstSource always picks index zero.
type firstSource struct{}

func (firstSource) IntN(int) int { return 0 }
