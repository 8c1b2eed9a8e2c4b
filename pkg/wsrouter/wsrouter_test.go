package wsrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	Text string `json:"text"`
}

func newTestServer(t *testing.T, router *WSRouter) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = router.ServeConn(context.Background(), conn)
	}))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestServeConnRoutesTypedPayload(t *testing.T) {
	router := New()
	router.Handle("ECHO", Typed(func(ctx context.Context, conn *websocket.Conn, input echoInput) error {
		return conn.WriteJSON(map[string]string{
			"type": GetMessageTypeFromCtx(ctx),
			"text": input.Text,
		})
	}))

	conn := newTestServer(t, router)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ECHO", "payload": map[string]string{"text": "hi"}}))

	var out map[string]string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "ECHO", out["type"])
	assert.Equal(t, "hi", out["text"])
}

func TestServeConnReportsUnknownType(t *testing.T) {
	router := New()
	router.OnError(func(ctx context.Context, conn *websocket.Conn, err error) {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
	})

	conn := newTestServer(t, router)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "NOPE"}))

	var out map[string]string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&out))
	assert.Contains(t, out["error"], ErrUnknownMessageType.Error())
}

func TestServeConnKeepsConnOnMalformedEnvelope(t *testing.T) {
	router := New()
	router.OnError(func(ctx context.Context, conn *websocket.Conn, err error) {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
	})
	router.Handle("PING", Typed(func(ctx context.Context, conn *websocket.Conn, _ struct{}) error {
		return conn.WriteJSON(map[string]string{"type": "PONG"})
	}))

	conn := newTestServer(t, router)
	frames := []string{`{"type":5}`, `"hello"`, `{"type":`}
	for _, frame := range frames {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))

		var out map[string]string
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&out), "frame %s", frame)
		assert.Contains(t, out["error"], ErrInvalidPayload.Error(), "frame %s", frame)
	}

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "PING"}))
	var out map[string]string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "PONG", out["type"])
}
