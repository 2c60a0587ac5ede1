package ports

import (
	"context"
	"encoding/json"

	"relaycast/internal/core/domain"
)

// Outbound is one notification computed by the relay: either a targeted
// send or a broadcast to every connected identity. Dispatch is
// best-effort; a missing target is a silent drop.
type Outbound struct {
	Target    domain.ConnID
	Broadcast bool
	Event     string
	Payload   interface{}
}

// Relay translates inbound client events into registry mutations and
// returns the notifications to emit. It never writes to the transport
// itself.
type Relay interface {
	HandleEvent(ctx context.Context, conn domain.ConnID, eventType string, payload json.RawMessage) []Outbound
	HandleDisconnect(ctx context.Context, conn domain.ConnID) []Outbound
}

// Sender is the delivery channel's send surface. Both methods are
// fire-and-forget: failures are dropped, never surfaced to the caller.
type Sender interface {
	Send(target domain.ConnID, event string, payload interface{})
	Broadcast(event string, payload interface{})
}
