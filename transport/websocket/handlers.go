package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/bingo-backend/internal/apperror"
	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

func (that *Server) handleConnect(ctx context.Context, conn *connection, msg *Message) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		that.sendErrorText(conn, msg.Action, "malformed payload")
		return err
	}

	var playerID, name string
	if payloadReq.Player != nil {
		playerID, name = payloadReq.Player.ID, payloadReq.Player.Name
	}

	player, err := that.gameUseCase.GetOrCreatePlayer(ctx, playerID, name)
	if err != nil {
		that.sendErrorText(conn, msg.Action, "failed to create a new player")
		return fmt.Errorf("failed to create or get player: %w", err)
	}

	that.register(player.ID, conn)

	if player.GameID != "" {
		return that.handleExistingGame(ctx, conn, msg, player)
	}

	if err = conn.send(msg.Action, Payload{Player: player}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("player connected", "playerID", player.ID)

	return nil
}

// handleExistingGame puts a returning player back in front of their game.
func (that *Server) handleExistingGame(ctx context.Context, conn *connection, msg *Message, player *entity.Player) error {
	game, err := that.gameUseCase.GetGameByPlayerID(ctx, player.ID)
	if errors.Is(err, apperror.ErrNotFound) {
		player.GameID = ""
		return conn.send(msg.Action, Payload{Player: player})
	}

	if err != nil {
		that.sendErrorText(conn, msg.Action, "failed to get the game")
		return fmt.Errorf("failed to get game %s: %w", player.GameID, err)
	}

	that.logger.Info("player reconnected", "method", "handleExistingGame", "playerID", player.ID, "gameID", game.ID)

	return conn.send(msg.Action, viewFor(game, player.ID))
}

func (that *Server) handleNewGame(ctx context.Context, conn *connection, msg *Message) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		that.sendErrorText(conn, msg.Action, "malformed payload")
		return err
	}

	gameType := entity.WithBotType
	if payloadReq.Game != nil && payloadReq.Game.Type != "" {
		gameType = payloadReq.Game.Type
	}

	game, err := that.gameUseCase.GetOrCreateGame(ctx, conn.player(), gameType)
	if err != nil {
		that.sendError(conn, msg.Action, err)
		return fmt.Errorf("failed to create game: %w", err)
	}

	that.broadcast(msg.Action, game)

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, conn *connection, msg *Message) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		that.sendErrorText(conn, msg.Action, "malformed payload")
		return err
	}

	if payloadReq.Game == nil || payloadReq.Game.ID == "" {
		that.sendErrorText(conn, msg.Action, "game id is required")
		return nil
	}

	game, err := that.gameUseCase.JoinGame(ctx, payloadReq.Game.ID, conn.player())
	if err != nil {
		that.sendError(conn, msg.Action, err)
		return fmt.Errorf("failed to join game %s: %w", payloadReq.Game.ID, err)
	}

	that.broadcast(msg.Action, game)

	return nil
}

func (that *Server) handleReady(ctx context.Context, conn *connection, msg *Message) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		that.sendErrorText(conn, msg.Action, "malformed payload")
		return err
	}

	ready := true
	if payloadReq.Ready != nil {
		ready = *payloadReq.Ready
	}

	game, err := that.gameUseCase.SetReady(ctx, conn.player(), ready)
	if err != nil {
		that.sendError(conn, msg.Action, err)
		return fmt.Errorf("failed to set ready: %w", err)
	}

	that.broadcast(msg.Action, game)

	return nil
}

func (that *Server) handleStart(ctx context.Context, conn *connection, msg *Message) error {
	game, err := that.gameUseCase.StartGame(ctx, conn.player())
	if err != nil {
		that.sendError(conn, msg.Action, err)
		return fmt.Errorf("failed to start game: %w", err)
	}

	that.broadcast(msg.Action, game)

	return nil
}

func (that *Server) handleCall(ctx context.Context, conn *connection, msg *Message) error {
	log := that.logger.With("method", "handleCall", "playerID", conn.player())

	payloadReq, err := decodePayload(msg)
	if err != nil {
		that.sendErrorText(conn, msg.Action, "malformed payload")
		return err
	}

	if payloadReq.Number == nil {
		that.sendErrorText(conn, msg.Action, "number is required")
		return nil
	}

	turn, err := that.gameUseCase.CallNumber(ctx, conn.player(), *payloadReq.Number)
	// the call that ends the game comes back with the final state
	if errors.Is(err, apperror.ErrGameFinished) && turn != nil {
		that.broadcast(msg.Action, turn.Game)
		log.Info("game finished", "gameID", turn.Game.ID, "winners", turn.Game.Winners)

		return nil
	}

	if err != nil {
		that.sendError(conn, msg.Action, err)
		return nil
	}

	if !turn.Applied {
		view := viewFor(turn.Game, conn.player())
		view.Applied = &turn.Applied

		return conn.send(msg.Action, view)
	}

	that.broadcast(msg.Action, turn.Game)

	return nil
}

func (that *Server) handleRestart(ctx context.Context, conn *connection, msg *Message) error {
	game, err := that.gameUseCase.RestartGame(ctx, conn.player())
	if err != nil {
		that.sendError(conn, msg.Action, err)
		return fmt.Errorf("failed to restart game: %w", err)
	}

	that.broadcast(msg.Action, game)

	return nil
}

func (that *Server) handleLeave(ctx context.Context, conn *connection, msg *Message) error {
	playerID := conn.player()

	game, err := that.gameUseCase.LeaveGame(ctx, playerID)
	if err != nil {
		that.sendError(conn, msg.Action, err)
		return fmt.Errorf("failed to leave game: %w", err)
	}

	if err = conn.send(msg.Action, Payload{Player: &entity.Player{ID: playerID}}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	if game != nil {
		that.broadcast(msg.Action, game)
	}

	return nil
}

// handleOpponentOut removes a player who did not come back in time and tells the others.
func (that *Server) handleOpponentOut(ctx context.Context, playerID string) {
	log := that.logger.With("method", "handleOpponentOut", "playerID", playerID)

	game, err := that.gameUseCase.LeaveGame(ctx, playerID)
	if errors.Is(err, apperror.ErrPlayerNotInGame) {
		return
	}

	if err != nil {
		log.Error("failed to take player out of game", "error", err)
		return
	}

	if game != nil {
		that.broadcast(actionLeave, game)
		log.Info("player timed out", "gameID", game.ID)
	}
}

// broadcast sends every human player in the game their own view of it.
func (that *Server) broadcast(action string, game *entity.Game) {
	log := that.logger.With("method", "broadcast", "gameID", game.ID)

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		conn, ok := that.connectionOf(player.ID)
		if !ok {
			log.Debug("connection not found for player", "playerID", player.ID)
			continue
		}

		if err := conn.send(action, viewFor(game, player.ID)); err != nil {
			log.Error("failed to send game update", "playerID", player.ID, "error", err)
		}
	}
}

// viewFor is what playerID is allowed to see of the game.
func viewFor(game *entity.Game, playerID string) Payload {
	masked := game.Masked(playerID)

	payload := Payload{
		Game:   masked,
		Result: masked.ResultFor(playerID),
	}

	if player := masked.PlayerByID(playerID); player != nil {
		payload.Player = player
		payload.Letters = player.Letters()
	}

	return payload
}

func decodePayload(msg *Message) (Payload, error) {
	var payload Payload
	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return payload, nil
}

func (that *Server) sendError(conn *connection, action string, err error) {
	that.sendErrorText(conn, action, errorMessage(err))
}

func (that *Server) sendErrorText(conn *connection, action, text string) {
	if err := conn.send(action, Payload{Error: text}); err != nil {
		that.logger.Error("failed to send error response", "method", "sendErrorText", "error", err)
	}
}
