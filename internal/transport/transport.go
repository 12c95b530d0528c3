package transport

import "context"

// Transport carries whole message frames to and from the audio engine.
type Transport interface {
	Name() string
	Connect(ctx context.Context) error
	Close() error
	ReadFrame(ctx context.Context) ([]byte, error)
	WriteFrame(ctx context.Context, payload []byte) error
}

// StatusTargetResolver lets a transport report the endpoint shown in
// connection status events.
type StatusTargetResolver interface {
	StatusTarget() string
}
