package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

type gameUseCase interface {
	GetGameByID(ctx context.Context, gameID string) (*entity.Game, error)
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write ping response", "method", "handlePing", "error", err)
	}
}

// handleGetGame shows a room to spectators: boards stay hidden until the game is over.
func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	log := that.logger.With("method", "handleGetGame", "gameID", gameID)

	game, err := that.gameUseCase.GetGameByID(r.Context(), gameID)
	if errors.Is(err, apperror.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:     apperror.ErrNotFound.Error(),
			RequestID: middleware.GetReqID(r.Context()),
		})
		return
	}

	if err != nil {
		log.Error("failed to get game", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:     "internal error",
			RequestID: middleware.GetReqID(r.Context()),
		})
		return
	}

	writeJSON(w, http.StatusOK, game.Masked(""))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
