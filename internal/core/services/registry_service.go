package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"relaycast/internal/core/domain"
	"relaycast/internal/core/ports"

	"go.uber.org/zap"
)

// registryService is the single source of truth for streams and
// connection roles. Every operation runs in one critical section, so
// mutations never interleave their read-modify-write sequence.
type registryService struct {
	mu      sync.Mutex
	streams map[domain.StreamID]*domain.Stream
	roles   map[domain.ConnID]domain.Role

	logger *zap.SugaredLogger
}

func NewRegistry(logger *zap.SugaredLogger) ports.Registry {
	return &registryService{
		streams: make(map[domain.StreamID]*domain.Stream),
		roles:   make(map[domain.ConnID]domain.Role),
		logger:  logger,
	}
}

func (r *registryService) ListStreams() []domain.StreamSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summaries := make([]domain.StreamSummary, 0, len(r.streams))
	for _, s := range r.streams {
		summaries = append(summaries, summarize(s))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})
	return summaries
}

func (r *registryService) CreateStream(conn domain.ConnID, streamID, title string) (*domain.CreateResult, error) {
	id := domain.StreamID(strings.TrimSpace(streamID))
	if id == "" {
		return nil, domain.ErrEmptyStreamID
	}
	resolvedTitle := strings.TrimSpace(title)
	if resolvedTitle == "" {
		resolvedTitle = string(id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Overwriting another host's stream would silently orphan its
	// viewers; reject before touching any state.
	if existing, ok := r.streams[id]; ok && existing.Host != conn {
		return nil, domain.ErrStreamExists
	}

	result := &domain.CreateResult{}

	// Roles are exclusive: a hosting connection ends its previous
	// stream first, a viewing connection leaves first.
	switch r.roles[conn].Kind {
	case domain.RoleHost:
		result.EndedPrevious = r.endLocked(conn)
	case domain.RoleViewer:
		result.Left = r.leaveLocked(conn)
	}

	stream := &domain.Stream{
		ID:        id,
		Title:     resolvedTitle,
		Host:      conn,
		Viewers:   make(map[domain.ConnID]domain.ViewerInfo),
		CreatedAt: time.Now(),
	}
	r.streams[id] = stream
	r.roles[conn] = domain.HostRole(id)

	result.Stream = summarize(stream)
	r.logger.Infow("stream created", "stream_id", id, "host_id", conn, "title", resolvedTitle)
	return result, nil
}

func (r *registryService) EndStream(conn domain.ConnID) (*domain.EndResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roles[conn].Kind != domain.RoleHost {
		return nil, false
	}
	return r.endLocked(conn), true
}

func (r *registryService) JoinStream(conn domain.ConnID, streamID domain.StreamID, info domain.ViewerInfo) (*domain.JoinResult, error) {
	id := domain.StreamID(strings.TrimSpace(string(streamID)))

	r.mu.Lock()
	defer r.mu.Unlock()

	role := r.roles[conn]
	if role.Kind == domain.RoleHost {
		return nil, domain.ErrAlreadyHosting
	}

	stream, ok := r.streams[id]
	if !ok {
		return nil, domain.ErrStreamNotFound
	}

	result := &domain.JoinResult{HostID: stream.Host}

	if role.Kind == domain.RoleViewer {
		if role.Stream == id {
			// Rejoining the same stream: metadata last write wins.
			result.Rejoined = true
			result.MetadataChanged = stream.Viewers[conn] != info
			stream.Viewers[conn] = info
			r.roles[conn] = domain.ViewerRole(id, info)
			result.Stream = summarize(stream)
			result.ViewerList = viewerListLocked(stream)
			return result, nil
		}
		result.Detached = r.leaveLocked(conn)
	}

	stream.Viewers[conn] = info
	r.roles[conn] = domain.ViewerRole(id, info)

	result.Stream = summarize(stream)
	result.ViewerList = viewerListLocked(stream)
	r.logger.Infow("viewer joined", "stream_id", id, "viewer_id", conn)
	return result, nil
}

func (r *registryService) LeaveStream(conn domain.ConnID) (*domain.LeaveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roles[conn].Kind != domain.RoleViewer {
		return nil, false
	}
	return r.leaveLocked(conn), true
}

func (r *registryService) Disconnect(conn domain.ConnID) *domain.DisconnectResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := &domain.DisconnectResult{}
	switch r.roles[conn].Kind {
	case domain.RoleHost:
		result.Ended = r.endLocked(conn)
	case domain.RoleViewer:
		result.Left = r.leaveLocked(conn)
	}
	delete(r.roles, conn)
	return result
}

func (r *registryService) ViewerList(streamID domain.StreamID) []domain.ViewerEntry {
	id := domain.StreamID(strings.TrimSpace(string(streamID)))

	r.mu.Lock()
	defer r.mu.Unlock()

	stream, ok := r.streams[id]
	if !ok {
		return []domain.ViewerEntry{}
	}
	return viewerListLocked(stream)
}

func (r *registryService) Role(conn domain.ConnID) domain.Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roles[conn]
}

// endLocked removes the stream hosted by conn and unassigns every
// member. Caller holds the lock and has verified the host role.
func (r *registryService) endLocked(conn domain.ConnID) *domain.EndResult {
	role := r.roles[conn]
	stream := r.streams[role.Stream]

	viewers := make([]domain.ConnID, 0, len(stream.Viewers))
	for viewerID := range stream.Viewers {
		viewers = append(viewers, viewerID)
		delete(r.roles, viewerID)
	}
	sort.Slice(viewers, func(i, j int) bool { return viewers[i] < viewers[j] })

	delete(r.streams, stream.ID)
	delete(r.roles, conn)

	r.logger.Infow("stream ended", "stream_id", stream.ID, "host_id", conn, "viewers", len(viewers))
	return &domain.EndResult{Stream: summarize(stream), Viewers: viewers}
}

// leaveLocked detaches conn from the stream it is watching. Caller
// holds the lock and has verified the viewer role.
func (r *registryService) leaveLocked(conn domain.ConnID) *domain.LeaveResult {
	role := r.roles[conn]
	stream := r.streams[role.Stream]

	delete(stream.Viewers, conn)
	delete(r.roles, conn)

	r.logger.Infow("viewer left", "stream_id", stream.ID, "viewer_id", conn)
	return &domain.LeaveResult{
		Stream:     summarize(stream),
		HostID:     stream.Host,
		ViewerList: viewerListLocked(stream),
	}
}

func viewerListLocked(stream *domain.Stream) []domain.ViewerEntry {
	entries := make([]domain.ViewerEntry, 0, len(stream.Viewers))
	for id, info := range stream.Viewers {
		entries = append(entries, domain.ViewerEntry{
			ID:          id,
			DisplayName: info.DisplayName,
			AvatarURL:   info.AvatarURL,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

func summarize(stream *domain.Stream) domain.StreamSummary {
	return domain.StreamSummary{
		ID:          stream.ID,
		Title:       stream.Title,
		Host:        stream.Host,
		ViewerCount: len(stream.Viewers),
	}
}
