package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidPayload     = errors.New("invalid payload")
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

type ErrorHandlerFunc func(ctx context.Context, conn *websocket.Conn, err error)

type WSRouter struct {
	routes  map[string]HandlerFunc
	onError ErrorHandlerFunc
}

func New() *WSRouter {
	return &WSRouter{
		routes:  make(map[string]HandlerFunc),
		onError: func(context.Context, *websocket.Conn, error) {},
	}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

// OnError sets the callback invoked when a message can not be routed or its handler fails.
func (r *WSRouter) OnError(handler ErrorHandlerFunc) {
	r.onError = handler
}

// Typed adapts a handler taking a decoded payload of type T.
func Typed[T any](fn func(ctx context.Context, conn *websocket.Conn, input T) error) HandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 && string(payload) != "null" {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
		}

		return fn(ctx, conn, input)
	}
}

// ServeConn reads messages until the connection is closed. A normal closure returns nil.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		// a frame that is not a message envelope is reported, the connection stays open
		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			r.onError(ctx, conn, fmt.Errorf("%w: %w", ErrInvalidPayload, err))
			continue
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			r.onError(ctx, conn, fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type))
			continue
		}

		if err := handler(withMessageType(ctx, msg.Type), conn, msg.Payload); err != nil {
			r.onError(withMessageType(ctx, msg.Type), conn, err)
		}
	}
}
