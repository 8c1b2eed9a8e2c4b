package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/syncsphere/server/internal/repository/connection"
)

const writeWait = 10 * time.Second

// client serialises writes to one connection; gorilla/websocket allows a single concurrent writer.
type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(msg *websocket.PreparedMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WritePreparedMessage(msg)
}

type repo struct {
	connList map[*websocket.Conn]*client
	idList   map[string]*client
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[*websocket.Conn]*client),
		idList:   make(map[string]*client),
	}
}

func (r *repo) Add(conn *websocket.Conn, clientID string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "clientID", clientID)
	if r.connList[conn] != nil || r.idList[clientID] != nil {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	c := &client{id: clientID, conn: conn}
	r.connList[conn] = c
	r.idList[clientID] = c

	slog.Debug(funcName, "result", "OK")
	return nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) error {
	funcName := "connection.inmemory.RemoveByConn"
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.connList[conn]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}
	conn.Close()

	delete(r.connList, conn)
	delete(r.idList, c.id)

	slog.Debug(funcName, "result", c.id)
	return nil
}

func (r *repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connList)
}

func (r *repo) clients() []*client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*client, 0, len(r.connList))
	for _, c := range r.connList {
		out = append(out, c)
	}
	return out
}

func prepare(v any) (*websocket.PreparedMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	return websocket.NewPreparedMessage(websocket.TextMessage, data)
}

// Send writes v as JSON to conn.
func (r *repo) Send(conn *websocket.Conn, v any) error {
	r.mu.RLock()
	c, ok := r.connList[conn]
	r.mu.RUnlock()
	if !ok {
		return connection.ErrNotFound
	}

	msg, err := prepare(v)
	if err != nil {
		return err
	}

	return c.write(msg)
}

// Broadcast writes v as JSON to every connection and returns how many writes succeeded.
// Failed writes are logged; the connection's read loop is responsible for removing it.
func (r *repo) Broadcast(ctx context.Context, v any) (int, error) {
	msg, err := prepare(v)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, c := range r.clients() {
		if err := c.write(msg); err != nil {
			slog.DebugContext(ctx, "failed to write to connection", "clientID", c.id, "error", err)
			continue
		}
		sent++
	}

	return sent, nil
}
