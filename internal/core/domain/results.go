package domain

// Registry mutations return result structs naming every connection the
// change affected, so the relay can fan out notifications without a
// second registry round-trip.

// CreateResult describes a committed create, including any implicit
// transitions that ran first.
type CreateResult struct {
	Stream StreamSummary

	// EndedPrevious is set when the host was already hosting and its
	// previous stream was ended as part of the create.
	EndedPrevious *EndResult

	// Left is set when the creating connection was a viewer and was
	// detached from the stream it was watching.
	Left *LeaveResult
}

// EndResult carries the final viewer set of a removed stream.
type EndResult struct {
	Stream  StreamSummary
	Viewers []ConnID
}

// JoinResult describes an attach, including the implicit detach from a
// previously watched stream when the viewer switched.
type JoinResult struct {
	Stream   StreamSummary
	HostID   ConnID
	Rejoined bool

	// MetadataChanged is set on a rejoin whose last-write-wins
	// metadata update actually changed the stored viewer info.
	MetadataChanged bool

	Detached   *LeaveResult
	ViewerList []ViewerEntry
}

// LeaveResult describes a detach from the stream's point of view.
type LeaveResult struct {
	Stream     StreamSummary
	HostID     ConnID
	ViewerList []ViewerEntry
}

// DisconnectResult holds the outcome of unified teardown; at most one
// of the two fields is set since roles are exclusive.
type DisconnectResult struct {
	Ended *EndResult
	Left  *LeaveResult
}
