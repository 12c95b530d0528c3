package trackaudio

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"syscall"
	"time"

	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/bus"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/connectors"
	"github.com/GeorgeBarlow/streamdeck-trackaudio/internal/transport"
)

const (
	// DefaultReconnectInterval is the fixed delay between reconnect
	// attempts. The retry policy is deliberately not exponential: the
	// engine lives on loopback and restarts quickly.
	DefaultReconnectInterval = 5 * time.Second

	sendTimeout = 5 * time.Second
)

// Service owns the engine connection: the connect/fail/reconnect state
// machine, the inbound read loop, and outbound command transmission.
// Decoded messages and lifecycle snapshots are published on the bus.
type Service struct {
	logger    *slog.Logger
	bus       bus.MessageBus
	transport transport.Transport
	codec     Codec

	reconnectInterval time.Duration

	mu             sync.Mutex
	ctx            context.Context
	state          connectors.ConnectionState
	reconnectTimer *time.Timer
	autoReconnect  bool
	// generation ticks on every Disconnect. Attempt paths capture it and
	// abandon their work if it moved: a reconnect timer that already popped
	// must not dial, and a dial in flight must not commit Connected.
	generation uint64
}

func NewService(logger *slog.Logger, b bus.MessageBus, tr transport.Transport, reconnectInterval time.Duration) *Service {
	if reconnectInterval <= 0 {
		reconnectInterval = DefaultReconnectInterval
	}

	return &Service{
		logger:            logger,
		bus:               b,
		transport:         tr,
		reconnectInterval: reconnectInterval,
		state:             connectors.ConnectionStateDisconnected,
	}
}

// Start stores the base context and begins the first connection attempt.
// Context cancellation tears the connection down and stops reconnection.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Disconnect()
	}()
	go s.Connect()
}

// ConnectionState reports the current lifecycle state for initial paint.
func (s *Service) ConnectionState() connectors.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Connect opens the transport unless an attempt is already in flight or a
// connection is up. A pending reconnect timer is cancelled so at most one
// attempt path exists at a time.
func (s *Service) Connect() {
	s.connect(false, 0)
}

func (s *Service) connect(retry bool, retryGen uint64) {
	s.mu.Lock()
	if retry && (retryGen != s.generation || !s.autoReconnect) {
		// Disconnect landed after this timer was scheduled.
		s.logger.Debug("reconnect suppressed")
		s.mu.Unlock()

		return
	}
	if s.state != connectors.ConnectionStateDisconnected {
		s.logger.Debug("connect skipped", "state", string(s.state))
		s.mu.Unlock()

		return
	}
	s.cancelReconnectTimerLocked()
	s.state = connectors.ConnectionStateConnecting
	s.autoReconnect = true
	gen := s.generation
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	s.publishStatus(connectors.ConnectionStateConnecting, nil)

	if err := s.transport.Connect(ctx); err != nil {
		s.mu.Lock()
		stale := gen != s.generation
		if !stale {
			s.state = connectors.ConnectionStateDisconnected
		}
		s.mu.Unlock()
		if stale {
			return
		}

		if isConnRefused(err) {
			s.logger.Warn("engine refused connection, is it running?", "error", err)
		} else {
			s.logger.Error("transport connect failed", "error", err)
		}
		s.publishStatus(connectors.ConnectionStateDisconnected, err)
		s.scheduleReconnect()

		return
	}

	s.mu.Lock()
	if gen != s.generation {
		// Disconnect landed while the dial was in flight; drop the socket
		// instead of resurrecting the connection.
		s.mu.Unlock()
		_ = s.transport.Close()
		s.logger.Debug("discarding connection established after disconnect")

		return
	}
	s.state = connectors.ConnectionStateConnected
	s.mu.Unlock()

	s.logger.Info("engine connected")
	s.publishStatus(connectors.ConnectionStateConnected, nil)
	go s.runReader(ctx)

	if err := s.Send(BuildGetStationStates()); err != nil {
		s.logger.Warn("station state resync failed", "error", err)
	}
}

// Disconnect closes the transport and cancels any pending reconnect. This
// is the only path that suppresses automatic reconnection.
func (s *Service) Disconnect() {
	s.mu.Lock()
	s.autoReconnect = false
	s.generation++
	s.cancelReconnectTimerLocked()
	wasActive := s.state != connectors.ConnectionStateDisconnected
	s.state = connectors.ConnectionStateDisconnected
	s.mu.Unlock()

	_ = s.transport.Close()
	if wasActive {
		s.logger.Info("engine disconnected by request")
		s.publishStatus(connectors.ConnectionStateDisconnected, nil)
	}
}

// Send transmits one command. When the connection is down the command is
// dropped with a diagnostic, never buffered: replaying stale commands
// after a reconnect would be worse than losing them.
func (s *Service) Send(msg OutgoingMessage) error {
	s.mu.Lock()
	state := s.state
	ctx := s.ctx
	s.mu.Unlock()

	if state != connectors.ConnectionStateConnected {
		s.logger.Warn("dropping outbound command: engine not connected", "state", string(state))

		return nil
	}

	payload, err := s.codec.EncodeOutgoing(msg)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	writeCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := s.transport.WriteFrame(writeCtx, payload); err != nil {
		return err
	}
	s.bus.Publish(connectors.TopicRawFrameOut, connectors.RawFrame{Text: string(payload), Len: len(payload)})

	return nil
}

func (s *Service) runReader(ctx context.Context) {
	for {
		if err := ctx.Err(); err != nil {
			return
		}

		payload, err := s.transport.ReadFrame(ctx)
		if err != nil {
			s.handleTransportDown(err)

			return
		}

		s.bus.Publish(connectors.TopicRawFrameIn, connectors.RawFrame{Text: string(payload), Len: len(payload)})
		decoded, err := s.codec.DecodeIncoming(payload)
		if err != nil {
			s.logger.Warn("decode engine frame failed", "error", err)
			continue
		}
		if decoded == nil {
			s.logger.Debug("ignoring unrecognized engine message")
			continue
		}
		s.bus.Publish(connectors.TopicEngineMessage, decoded)
	}
}

func (s *Service) handleTransportDown(err error) {
	s.mu.Lock()
	if s.state != connectors.ConnectionStateConnected {
		// Disconnect already ran; the read error is the closing socket.
		s.mu.Unlock()

		return
	}
	s.state = connectors.ConnectionStateDisconnected
	s.mu.Unlock()

	_ = s.transport.Close()
	s.logger.Warn("engine connection lost", "error", err)
	s.publishStatus(connectors.ConnectionStateDisconnected, err)
	s.scheduleReconnect()
}

func (s *Service) scheduleReconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.autoReconnect {
		s.logger.Debug("reconnect suppressed")

		return
	}
	if s.reconnectTimer != nil {
		s.logger.Debug("reconnect already pending")

		return
	}

	s.logger.Info("scheduling reconnect", "interval", s.reconnectInterval.String())
	gen := s.generation
	s.reconnectTimer = time.AfterFunc(s.reconnectInterval, func() {
		s.mu.Lock()
		s.reconnectTimer = nil
		s.mu.Unlock()
		s.connect(true, gen)
	})
}

func (s *Service) cancelReconnectTimerLocked() {
	if s.reconnectTimer == nil {
		return
	}
	s.reconnectTimer.Stop()
	s.reconnectTimer = nil
}

func (s *Service) reconnectPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reconnectTimer != nil
}

func (s *Service) publishStatus(state connectors.ConnectionState, err error) {
	status := connectors.ConnectionStatus{
		State:     state,
		URL:       s.statusTarget(),
		Timestamp: time.Now(),
	}
	if err != nil {
		status.Err = err.Error()
		status.Refused = isConnRefused(err)
	}
	s.bus.Publish(connectors.TopicConnStatus, status)
}

func (s *Service) statusTarget() string {
	if resolver, ok := s.transport.(transport.StatusTargetResolver); ok {
		return resolver.StatusTarget()
	}

	return ""
}

func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
