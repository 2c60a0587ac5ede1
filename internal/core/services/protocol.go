package services

import (
	"encoding/json"

	"relaycast/internal/core/domain"
)

// Inbound event types.
const (
	EventListStreams  = "list_streams"
	EventCreateStream = "create_stream"
	EventEndStream    = "end_stream"
	EventJoinStream   = "join_stream"
	EventLeaveStream  = "leave_stream"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice_candidate"
)

// Outbound event types.
const (
	EventWelcome       = "welcome"
	EventStreams       = "streams"
	EventStreamCreated = "stream_created"
	EventStreamAdded   = "stream_added"
	EventStreamRemoved = "stream_removed"
	EventStreamEnded   = "stream_ended"
	EventStreamJoined  = "stream_joined"
	EventViewerJoined  = "viewer_joined"
	EventViewerLeft    = "viewer_left"
	EventViewerList    = "viewer_list"
	EventError         = "error"
)

type CreateStreamPayload struct {
	StreamID string `json:"streamId"`
	Title    string `json:"title,omitempty"`
}

type JoinStreamPayload struct {
	StreamID string       `json:"streamId"`
	User     *UserPayload `json:"user,omitempty"`
}

type UserPayload struct {
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Handshake payloads are opaque blobs; the relay forwards them verbatim
// and only reads the target identity.
type OfferPayload struct {
	Offer    json.RawMessage `json:"offer"`
	ViewerID string          `json:"viewerId"`
}

type AnswerPayload struct {
	Answer json.RawMessage `json:"answer"`
	HostID string          `json:"hostId"`
}

type ICECandidatePayload struct {
	Candidate json.RawMessage `json:"candidate"`
	TargetID  string          `json:"targetId"`
}

type WelcomePayload struct {
	ConnectionID string `json:"connectionId"`
}

type StreamJSON struct {
	StreamID    string `json:"streamId"`
	Title       string `json:"title"`
	HostID      string `json:"hostId"`
	ViewerCount int    `json:"viewerCount"`
}

type StreamsPayload struct {
	Streams []StreamJSON `json:"streams"`
}

type StreamRemovedPayload struct {
	StreamID string `json:"streamId"`
}

type StreamEndedPayload struct {
	StreamID string `json:"streamId"`
	Title    string `json:"title"`
}

type StreamJoinedPayload struct {
	StreamID string `json:"streamId"`
	Title    string `json:"title"`
	HostID   string `json:"hostId"`
}

type ViewerJoinedPayload struct {
	StreamID string      `json:"streamId"`
	ViewerID string      `json:"viewerId"`
	User     UserPayload `json:"user"`
}

type ViewerLeftPayload struct {
	StreamID string `json:"streamId"`
	ViewerID string `json:"viewerId"`
}

type ViewerJSON struct {
	ViewerID    string `json:"viewerId"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type ViewerListPayload struct {
	StreamID string       `json:"streamId"`
	Viewers  []ViewerJSON `json:"viewers"`
	Count    int          `json:"count"`
}

// ForwardPayload is the shape delivered to a forwarding target: the
// opaque blob plus the sender's identity under a direction-specific key.
type ForwardPayload struct {
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	HostID    string          `json:"hostId,omitempty"`
	ViewerID  string          `json:"viewerId,omitempty"`
	FromID    string          `json:"fromId,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func streamJSON(s domain.StreamSummary) StreamJSON {
	return StreamJSON{
		StreamID:    string(s.ID),
		Title:       s.Title,
		HostID:      string(s.Host),
		ViewerCount: s.ViewerCount,
	}
}

func viewerListJSON(streamID domain.StreamID, entries []domain.ViewerEntry) ViewerListPayload {
	viewers := make([]ViewerJSON, 0, len(entries))
	for _, e := range entries {
		viewers = append(viewers, ViewerJSON{
			ViewerID:    string(e.ID),
			DisplayName: e.DisplayName,
			AvatarURL:   e.AvatarURL,
		})
	}
	return ViewerListPayload{
		StreamID: string(streamID),
		Viewers:  viewers,
		Count:    len(viewers),
	}
}
