package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const dialTimeout = 6 * time.Second

func wsLogger(attrs ...any) *slog.Logger {
	logger := slog.With("component", "transport", "transport", "websocket")
	if len(attrs) == 0 {
		return logger
	}

	return logger.With(attrs...)
}

// WebSocketTransport sends and receives JSON frames over the engine's
// persistent WebSocket endpoint.
type WebSocketTransport struct {
	url string

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func NewWebSocketTransport(url string) *WebSocketTransport {
	return &WebSocketTransport{url: url}
}

func (t *WebSocketTransport) Name() string {
	return "websocket"
}

func (t *WebSocketTransport) StatusTarget() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.url
}

func (t *WebSocketTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.conn != nil
}

func (t *WebSocketTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	logger := wsLogger("target", t.url)

	if t.conn != nil {
		logger.Debug("connect skipped: already connected")

		return nil
	}

	if t.url == "" {
		logger.Warn("connect failed: url is empty")

		return errors.New("websocket url is empty")
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	logger.Info("connecting")
	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, t.url, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			logger.Warn("connect failed", "error", err, "status_code", resp.StatusCode)
		} else {
			logger.Warn("connect failed", "error", err)
		}

		return fmt.Errorf("dial websocket: %w", err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.conn = conn
	logger.Info("connected", "remote", conn.RemoteAddr().String())

	return nil
}

func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	logger := wsLogger("target", t.url)

	if t.conn == nil {
		logger.Debug("close skipped: not connected")

		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		logger.Warn("close failed", "error", err)

		return err
	}
	logger.Info("closed")

	return nil
}

func (t *WebSocketTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	logger := wsLogger()
	conn, err := t.currentConn()
	if err != nil {
		logger.Debug("read frame failed: not connected", "error", err)

		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	} else {
		_ = conn.SetReadDeadline(time.Time{})
	}

	_, payload, err := conn.ReadMessage()
	if err != nil {
		logger.Debug("read frame failed", "error", err)

		return nil, fmt.Errorf("read frame: %w", err)
	}
	logger.Debug("read frame", "len", len(payload))

	return payload, nil
}

func (t *WebSocketTransport) WriteFrame(ctx context.Context, payload []byte) error {
	logger := wsLogger()
	conn, err := t.currentConn()
	if err != nil {
		logger.Debug("write frame failed: not connected", "error", err)

		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Time{})
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		logger.Warn("write frame failed", "payload_len", len(payload), "error", err)

		return fmt.Errorf("write frame: %w", err)
	}
	logger.Debug("write frame", "payload_len", len(payload))

	return nil
}

func (t *WebSocketTransport) currentConn() (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, errors.New("transport is not connected")
	}

	return t.conn, nil
}
