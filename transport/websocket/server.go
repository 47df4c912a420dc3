package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
	"github.com/rocketscienceinc/bingo-backend/internal/usecase"
)

const (
	readLimit       = 4096
	shutdownTimeout = 5 * time.Second
)

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID, name string) (*entity.Player, error)

	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)
	GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)

	SetReady(ctx context.Context, playerID string, ready bool) (*entity.Game, error)
	StartGame(ctx context.Context, playerID string) (*entity.Game, error)
	CallNumber(ctx context.Context, playerID string, number int) (*usecase.Turn, error)
	RestartGame(ctx context.Context, playerID string) (*entity.Game, error)
	LeaveGame(ctx context.Context, playerID string) (*entity.Game, error)
}

type handler func(ctx context.Context, conn *connection, msg *Message) error

type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
	upgrader    websocket.Upgrader

	handlers map[string]handler

	connectionsMutex sync.RWMutex
	connections      map[string]*connection

	reconnectTimeout    time.Duration
	disconnectedMutex   sync.Mutex
	disconnectedPlayers map[string]time.Time
}

// New builds the realtime server. Players that stay away longer than
// reconnectTimeout are taken out of their game.
func New(logger *slog.Logger, gameUseCase gameUseCase, reconnectTimeout time.Duration) *Server {
	server := &Server{
		logger:      logger,
		gameUseCase: gameUseCase,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		connections: make(map[string]*connection),

		reconnectTimeout:    reconnectTimeout,
		disconnectedPlayers: make(map[string]time.Time),
	}

	server.handlers = map[string]handler{
		actionConnect: server.handleConnect,
		actionNew:     server.handleNewGame,
		actionJoin:    server.handleJoinGame,
		actionReady:   server.handleReady,
		actionStart:   server.handleStart,
		actionCall:    server.handleCall,
		actionRestart: server.handleRestart,
		actionLeave:   server.handleLeave,
	}

	return server
}

// Handler serves the websocket endpoint; every request is upgraded.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go that.reapDisconnected(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	that.closeAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}

func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(ws)
	defer func() {
		that.handleDisconnect(conn)
		conn.close()
	}()

	log.Debug("WebSocket connection established", "remote", req.RemoteAddr)

	that.handleMessages(ctx, conn)
}

// handleMessages - processes messages from the client until it goes away.
func (that *Server) handleMessages(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "handleMessages")

	conn.conn.SetReadLimit(readLimit)

	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read failed", "error", err)
			}

			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			that.sendErrorText(conn, actionError, "malformed message")
			continue
		}

		handle, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendErrorText(conn, message.Action, "unknown action")
			continue
		}

		if message.Action != actionConnect && conn.player() == "" {
			that.sendErrorText(conn, message.Action, "connect first")
			continue
		}

		if err = handle(ctx, conn, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) register(playerID string, conn *connection) {
	conn.bind(playerID)

	that.connectionsMutex.Lock()
	previous, ok := that.connections[playerID]
	that.connections[playerID] = conn
	that.connectionsMutex.Unlock()

	if ok && previous != conn {
		previous.close()
	}

	that.playerReconnected(playerID)
}

func (that *Server) handleDisconnect(conn *connection) {
	playerID := conn.player()
	if playerID == "" {
		return
	}

	that.connectionsMutex.Lock()
	current, ok := that.connections[playerID]
	if ok && current == conn {
		delete(that.connections, playerID)
	}
	that.connectionsMutex.Unlock()

	// a newer connection took over, the player never left
	if !ok || current != conn {
		return
	}

	that.disconnectedMutex.Lock()
	that.disconnectedPlayers[playerID] = time.Now()
	that.disconnectedMutex.Unlock()

	that.logger.Info("player disconnected", "method", "handleDisconnect", "playerID", playerID)
}

func (that *Server) playerReconnected(playerID string) {
	that.disconnectedMutex.Lock()
	defer that.disconnectedMutex.Unlock()

	delete(that.disconnectedPlayers, playerID)
}

// reapDisconnected takes players out of their games once the reconnect grace period is over.
func (that *Server) reapDisconnected(ctx context.Context) {
	if that.reconnectTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(that.reconnectTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, playerID := range that.expired(now) {
				that.handleOpponentOut(ctx, playerID)
			}
		}
	}
}

func (that *Server) expired(now time.Time) []string {
	that.disconnectedMutex.Lock()
	defer that.disconnectedMutex.Unlock()

	var expired []string
	for playerID, since := range that.disconnectedPlayers {
		if now.Sub(since) >= that.reconnectTimeout {
			expired = append(expired, playerID)
			delete(that.disconnectedPlayers, playerID)
		}
	}

	return expired
}

func (that *Server) connectionOf(playerID string) (*connection, bool) {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	conn, ok := that.connections[playerID]

	return conn, ok
}

func (that *Server) closeAll() {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	for playerID, conn := range that.connections {
		conn.close()
		delete(that.connections, playerID)
	}
}
