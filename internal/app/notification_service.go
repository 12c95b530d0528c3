package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/bus"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/config"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/notifications"
)

const (
	notificationTitleConnLost     = "Audio engine connection lost"
	notificationTitleConnRestored = "Audio engine connected"
)

// NotificationService watches engine connection status on the bus and
// emits user-facing notifications on transitions.
type NotificationService struct {
	bus           bus.MessageBus
	currentConfig func() config.AppConfig
	sender        notifications.Sender
	logger        *slog.Logger

	mu               sync.Mutex
	lastConnState    connectors.ConnectionState
	lastConnStateSet bool
}

func NewNotificationService(
	messageBus bus.MessageBus,
	currentConfig func() config.AppConfig,
	sender notifications.Sender,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default().With("component", "app.notifications")
	}

	return &NotificationService{
		bus:           messageBus,
		currentConfig: currentConfig,
		sender:        sender,
		logger:        logger,
	}
}

func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || s.bus == nil || s.sender == nil {
		return
	}

	connSub := s.bus.Subscribe(connectors.TopicConnStatus)

	go func() {
		defer s.bus.Unsubscribe(connSub, connectors.TopicConnStatus)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-connSub:
				if !ok {
					return
				}
				status, ok := raw.(connectors.ConnectionStatus)
				if !ok {
					continue
				}
				s.handleConnStatus(status)
			}
		}
	}()
}

func (s *NotificationService) handleConnStatus(status connectors.ConnectionStatus) {
	s.mu.Lock()
	prev := s.lastConnState
	prevSet := s.lastConnStateSet
	s.lastConnState = status.State
	s.lastConnStateSet = true
	s.mu.Unlock()

	if !s.currentConfig().Notifications.ConnectionStatus {
		return
	}

	switch status.State {
	case connectors.ConnectionStateDisconnected:
		// Only the loss of an established connection is worth a popup;
		// each failed retry against a stopped engine is not.
		if !prevSet || prev != connectors.ConnectionStateConnected {
			return
		}
		content := "Reconnecting automatically."
		if status.Err != "" {
			content = fmt.Sprintf("%s Reconnecting automatically.", status.Err)
		}
		s.logger.Debug("notifying connection loss")
		s.sender.Send(notifications.Payload{
			Title:   notificationTitleConnLost,
			Content: content,
		})
	case connectors.ConnectionStateConnected:
		if !prevSet || prev == connectors.ConnectionStateConnected {
			return
		}
		s.logger.Debug("notifying connection restored")
		s.sender.Send(notifications.Payload{
			Title:   notificationTitleConnRestored,
			Content: status.URL,
		})
	}
}
