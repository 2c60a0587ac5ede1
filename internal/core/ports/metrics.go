package ports

import (
	"relaycast/internal/core/domain"
)

// Metrics receives instrumentation callbacks from the relay and the
// delivery channel.
type Metrics interface {
	PeerConnected()
	PeerDisconnected()
	StreamStarted(id domain.StreamID)
	StreamEnded(id domain.StreamID)
	ViewerCount(id domain.StreamID, n int)
	EventHandled(eventType string)
	ForwardRouted(eventType string)
	ErrorReturned(code string)
	NotificationDropped()
}

// NopMetrics discards all instrumentation. Used in tests and as a
// default when monitoring is disabled.
type NopMetrics struct{}

func (NopMetrics) PeerConnected() {}
func (NopMetrics) PeerDisconnected() {}
func (NopMetrics) StreamStarted(domain.StreamID) {}
func (NopMetrics) StreamEnded(domain.StreamID) {}
func (NopMetrics) ViewerCount(domain.StreamID, int) {}
func (NopMetrics) EventHandled(string) {}
func (NopMetrics) ForwardRouted(string) {}
func (NopMetrics) ErrorReturned(string) {}
func (NopMetrics) NotificationDropped() {}
