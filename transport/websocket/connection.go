package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// connection serializes writes: gorilla allows one concurrent writer per conn.
type connection struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	idMu     sync.RWMutex
	playerID string
}

func newConnection(conn *websocket.Conn) *connection {
	return &connection{conn: conn}
}

func (that *connection) send(action string, payload Payload) error {
	message, err := newMessage(action, payload)
	if err != nil {
		return err
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *connection) bind(playerID string) {
	that.idMu.Lock()
	defer that.idMu.Unlock()

	that.playerID = playerID
}

func (that *connection) player() string {
	that.idMu.RLock()
	defer that.idMu.RUnlock()

	return that.playerID
}

func (that *connection) close() {
	_ = that.conn.Close()
}
