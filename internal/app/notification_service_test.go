package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/bus"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/config"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/notifications"
)

type spySender struct {
	mu   sync.Mutex
	sent []notifications.Payload
}

func (s *spySender) Send(payload notifications.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, payload)
}

func (s *spySender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sent)
}

func (s *spySender) last() notifications.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return notifications.Payload{}
	}

	return s.sent[len(s.sent)-1]
}

func newTestNotificationService(sender notifications.Sender, cfg config.AppConfig) *NotificationService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewNotificationService(nil, func() config.AppConfig { return cfg }, sender, logger)
}

func TestNotificationService_NotifiesOnConnectionLoss(t *testing.T) {
	sender := &spySender{}
	svc := newTestNotificationService(sender, config.Default())

	svc.handleConnStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateConnected, URL: "ws://127.0.0.1:49080/ws"})
	svc.handleConnStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateDisconnected, Err: "read frame: EOF"})

	if sender.count() != 2 {
		t.Fatalf("expected restore+loss notifications, got %d", sender.count())
	}
	last := sender.last()
	if last.Title != notificationTitleConnLost {
		t.Fatalf("title = %q", last.Title)
	}
	if last.Content != "read frame: EOF Reconnecting automatically." {
		t.Fatalf("content = %q", last.Content)
	}
}

func TestNotificationService_SilentDuringRetryLoop(t *testing.T) {
	sender := &spySender{}
	svc := newTestNotificationService(sender, config.Default())

	// Engine was never up: each failed attempt cycles connecting->disconnected.
	for i := 0; i < 3; i++ {
		svc.handleConnStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateConnecting})
		svc.handleConnStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateDisconnected, Refused: true})
	}

	if sender.count() != 0 {
		t.Fatalf("retry failures must not notify, got %d", sender.count())
	}
}

func TestNotificationService_NotifiesOnceOnRestore(t *testing.T) {
	sender := &spySender{}
	svc := newTestNotificationService(sender, config.Default())

	svc.handleConnStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateConnecting})
	svc.handleConnStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateConnected, URL: "ws://127.0.0.1:49080/ws"})
	svc.handleConnStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateConnected, URL: "ws://127.0.0.1:49080/ws"})

	if sender.count() != 1 {
		t.Fatalf("expected a single restore notification, got %d", sender.count())
	}
	if got := sender.last().Title; got != notificationTitleConnRestored {
		t.Fatalf("title = %q", got)
	}
}

func TestNotificationService_DisabledByConfig(t *testing.T) {
	sender := &spySender{}
	cfg := config.Default()
	cfg.Notifications.ConnectionStatus = false
	svc := newTestNotificationService(sender, cfg)

	svc.handleConnStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateConnected})
	svc.handleConnStatus(connectors.ConnectionStatus{State: connectors.ConnectionStateDisconnected})

	if sender.count() != 0 {
		t.Fatalf("disabled notifications must not send, got %d", sender.count())
	}
}

func TestNotificationService_ConsumesBus(t *testing.T) {
	sender := &spySender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	messageBus := bus.New(logger)
	defer messageBus.Close()

	svc := NewNotificationService(messageBus, func() config.AppConfig { return config.Default() }, sender, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	messageBus.Publish(connectors.TopicConnStatus, connectors.ConnectionStatus{State: connectors.ConnectionStateConnecting})
	messageBus.Publish(connectors.TopicConnStatus, connectors.ConnectionStatus{State: connectors.ConnectionStateConnected, URL: "ws://127.0.0.1:49080/ws"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sender.count() == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected one restore notification via bus, got %d", sender.count())
}
