package notifications

// Payload is a user-facing notification: a title line and body text.
type Payload struct {
	Title   string
	Content string
}

// Sender delivers notifications through a platform backend. Delivery is
// best effort; failures are logged, never surfaced to callers.
type Sender interface {
	Send(payload Payload)
}
