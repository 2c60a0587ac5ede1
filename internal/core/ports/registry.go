package ports

import (
	"relaycast/internal/core/domain"
)

// Registry is the authoritative table of live streams and connection
// roles. Every mutation is atomic: no caller observes a half-updated
// stream, and the result describes the complete effect of the call.
type Registry interface {
	// ListStreams returns a snapshot ordered by stream id. Never fails.
	ListStreams() []domain.StreamSummary

	// CreateStream registers conn as host of streamID. The id and title
	// are trimmed; a blank title falls back to the id. Fails with
	// domain.ErrEmptyStreamID or domain.ErrStreamExists.
	CreateStream(conn domain.ConnID, streamID, title string) (*domain.CreateResult, error)

	// EndStream removes the stream hosted by conn. Returns ok=false as
	// a silent no-op when conn is not a host.
	EndStream(conn domain.ConnID) (*domain.EndResult, bool)

	// JoinStream attaches conn as a viewer, detaching it from any other
	// stream first. Fails with domain.ErrStreamNotFound or
	// domain.ErrAlreadyHosting.
	JoinStream(conn domain.ConnID, streamID domain.StreamID, info domain.ViewerInfo) (*domain.JoinResult, error)

	// LeaveStream detaches conn from the stream it is watching.
	// Returns ok=false as a silent no-op when conn is not a viewer.
	LeaveStream(conn domain.ConnID) (*domain.LeaveResult, bool)

	// Disconnect is unified teardown for an expiring connection.
	Disconnect(conn domain.ConnID) *domain.DisconnectResult

	// ViewerList returns the viewers of streamID ordered by connection
	// id; empty when the stream does not exist.
	ViewerList(streamID domain.StreamID) []domain.ViewerEntry

	// Role reports the role conn currently holds.
	Role(conn domain.ConnID) domain.Role
}
