package domain

import (
	"time"
)

type StreamID string
type ConnID string

// Stream is a live session owned by exactly one host connection.
// Viewers maps connection identity to display metadata; it never
// contains the host's own id.
type Stream struct {
	ID        StreamID
	Title     string
	Host      ConnID
	Viewers   map[ConnID]ViewerInfo
	CreatedAt time.Time
}

// ViewerInfo is optional display metadata supplied by a viewer on join.
type ViewerInfo struct {
	DisplayName string
	AvatarURL   string
}

// StreamSummary is the read-only snapshot shape, without viewer detail.
type StreamSummary struct {
	ID          StreamID
	Title       string
	Host        ConnID
	ViewerCount int
}

// ViewerEntry pairs a viewer's connection identity with its metadata,
// as pushed to hosts in viewer-list updates.
type ViewerEntry struct {
	ID          ConnID
	DisplayName string
	AvatarURL   string
}
