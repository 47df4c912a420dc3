package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/repository"
)

// fixedIDs hands out ids in order and repeats the last one.
func fixedIDs(ids ...string) func() string {
	return func() string {
		id := ids[0]
		if len(ids) > 1 {
			ids = ids[1:]
		}

		return id
	}
}

func TestGameService_CreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Taken room code is replaced", func(t *testing.T) {
		// Given: a live room with code AAAAAA
		repo := newMemGameRepo()
		live := entity.NewGame("AAAAAA", entity.PrivateType, 0)
		require.NoError(t, live.AddPlayer(&entity.Player{ID: "alice"}))
		require.NoError(t, repo.CreateOrUpdate(ctx, live))

		service := &gameService{gameRepo: repo, newGameID: fixedIDs("AAAAAA", "BBBBBB")}

		// When: bob opens a room and the first code drawn collides
		game, err := service.CreateGame(ctx, &entity.Player{ID: "bob"}, entity.PrivateType)

		// Then: bob gets a new code and alice's room is untouched
		require.NoError(t, err)
		assert.Equal(t, "BBBBBB", game.ID)
		assert.Equal(t, "BBBBBB", game.PlayerByID("bob").GameID)

		stored, err := repo.GetByID(ctx, "AAAAAA")
		require.NoError(t, err)
		require.Len(t, stored.Players, 1)
		assert.Equal(t, "alice", stored.HostID)
	})

	t.Run("Gives up when every code is taken", func(t *testing.T) {
		repo := newMemGameRepo()
		require.NoError(t, repo.CreateOrUpdate(ctx, entity.NewGame("AAAAAA", entity.PrivateType, 0)))

		service := &gameService{gameRepo: repo, newGameID: fixedIDs("AAAAAA")}
		host := &entity.Player{ID: "bob"}

		_, err := service.CreateGame(ctx, host, entity.PrivateType)

		require.ErrorIs(t, err, repository.ErrGameExists)
		assert.Empty(t, host.GameID)
	})
}
