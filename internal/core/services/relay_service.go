package services

import (
	"context"
	"encoding/json"

	"relaycast/internal/core/domain"
	"relaycast/internal/core/ports"
	apperrors "relaycast/pkg/errors"
	"relaycast/pkg/utils"
	"relaycast/pkg/validation"

	"go.uber.org/zap"
)

// relayService bridges inbound client events to the registry and
// computes the notifications to emit. All side effects are returned as
// data; dispatch belongs to the delivery channel.
type relayService struct {
	registry ports.Registry
	metrics  ports.Metrics
	logger   *zap.SugaredLogger
}

func NewRelay(registry ports.Registry, metrics ports.Metrics, logger *zap.SugaredLogger) ports.Relay {
	return &relayService{
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *relayService) HandleEvent(ctx context.Context, conn domain.ConnID, eventType string, payload json.RawMessage) []ports.Outbound {
	s.metrics.EventHandled(eventType)

	switch eventType {
	case EventListStreams:
		return s.handleListStreams(conn)
	case EventCreateStream:
		return s.handleCreateStream(conn, payload)
	case EventEndStream:
		return s.handleEndStream(conn)
	case EventJoinStream:
		return s.handleJoinStream(conn, payload)
	case EventLeaveStream:
		return s.handleLeaveStream(conn)
	case EventOffer:
		return s.handleOffer(conn, payload)
	case EventAnswer:
		return s.handleAnswer(conn, payload)
	case EventICECandidate:
		return s.handleICECandidate(conn, payload)
	default:
		return s.fail(conn, apperrors.NewInvalidInputError("unknown event type: "+eventType))
	}
}

func (s *relayService) HandleDisconnect(ctx context.Context, conn domain.ConnID) []ports.Outbound {
	result := s.registry.Disconnect(conn)

	var outs []ports.Outbound
	if result.Ended != nil {
		outs = append(outs, s.endOutbounds(result.Ended)...)
	}
	if result.Left != nil {
		outs = append(outs, s.leaveOutbounds(conn, result.Left)...)
	}
	return outs
}

func (s *relayService) handleListStreams(conn domain.ConnID) []ports.Outbound {
	summaries := s.registry.ListStreams()
	streams := make([]StreamJSON, 0, len(summaries))
	for _, summary := range summaries {
		streams = append(streams, streamJSON(summary))
	}
	return []ports.Outbound{{
		Target:  conn,
		Event:   EventStreams,
		Payload: StreamsPayload{Streams: streams},
	}}
}

func (s *relayService) handleCreateStream(conn domain.ConnID, payload json.RawMessage) []ports.Outbound {
	var req CreateStreamPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return s.fail(conn, apperrors.NewInvalidInputError("invalid create_stream payload"))
	}
	if err := validation.ValidateStreamID(req.StreamID); err != nil {
		return s.fail(conn, apperrors.NewInvalidInputError(err.Error()))
	}
	if err := validation.ValidateTitle(req.Title); err != nil {
		return s.fail(conn, apperrors.NewInvalidInputError(err.Error()))
	}

	result, err := s.registry.CreateStream(conn, req.StreamID, req.Title)
	if err != nil {
		return s.fail(conn, apperrors.FromDomain(err))
	}

	var outs []ports.Outbound
	if result.EndedPrevious != nil {
		outs = append(outs, s.endOutbounds(result.EndedPrevious)...)
	}
	if result.Left != nil {
		outs = append(outs, s.leaveOutbounds(conn, result.Left)...)
	}

	s.metrics.StreamStarted(result.Stream.ID)
	s.metrics.ViewerCount(result.Stream.ID, 0)

	created := streamJSON(result.Stream)
	outs = append(outs,
		ports.Outbound{Target: conn, Event: EventStreamCreated, Payload: created},
		ports.Outbound{Broadcast: true, Event: EventStreamAdded, Payload: created},
		ports.Outbound{Target: conn, Event: EventViewerList, Payload: viewerListJSON(result.Stream.ID, nil)},
	)
	return outs
}

func (s *relayService) handleEndStream(conn domain.ConnID) []ports.Outbound {
	result, ok := s.registry.EndStream(conn)
	if !ok {
		// The client may legitimately double-send end_stream.
		return nil
	}
	return s.endOutbounds(result)
}

func (s *relayService) handleJoinStream(conn domain.ConnID, payload json.RawMessage) []ports.Outbound {
	var req JoinStreamPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return s.fail(conn, apperrors.NewInvalidInputError("invalid join_stream payload"))
	}
	if err := validation.ValidateStreamID(req.StreamID); err != nil {
		return s.fail(conn, apperrors.NewInvalidInputError(err.Error()))
	}

	var info domain.ViewerInfo
	if req.User != nil {
		if err := validation.ValidateAvatarURL(req.User.AvatarURL); err != nil {
			return s.fail(conn, apperrors.NewInvalidInputError(err.Error()))
		}
		// Display names are best-effort metadata: sanitize and cap
		// rather than reject.
		info = domain.ViewerInfo{
			DisplayName: utils.TruncateString(utils.SanitizeString(req.User.DisplayName), validation.MaxDisplayNameLength),
			AvatarURL:   req.User.AvatarURL,
		}
	}

	result, err := s.registry.JoinStream(conn, domain.StreamID(req.StreamID), info)
	if err != nil {
		return s.fail(conn, apperrors.FromDomain(err))
	}

	outs := []ports.Outbound{{
		Target: conn,
		Event:  EventStreamJoined,
		Payload: StreamJoinedPayload{
			StreamID: string(result.Stream.ID),
			Title:    result.Stream.Title,
			HostID:   string(result.HostID),
		},
	}}

	if result.Rejoined {
		// Rejoining the same stream does not change membership, so the
		// host is only told when the refreshed metadata differs.
		if result.MetadataChanged {
			outs = append(outs, ports.Outbound{
				Target:  result.HostID,
				Event:   EventViewerList,
				Payload: viewerListJSON(result.Stream.ID, result.ViewerList),
			})
		}
		return outs
	}

	if result.Detached != nil {
		s.metrics.ViewerCount(result.Detached.Stream.ID, result.Detached.Stream.ViewerCount)
		outs = append(outs, s.leaveOutbounds(conn, result.Detached)...)
	}

	s.metrics.ViewerCount(result.Stream.ID, result.Stream.ViewerCount)
	outs = append(outs,
		ports.Outbound{
			Target: result.HostID,
			Event:  EventViewerJoined,
			Payload: ViewerJoinedPayload{
				StreamID: string(result.Stream.ID),
				ViewerID: string(conn),
				User:     UserPayload{DisplayName: info.DisplayName, AvatarURL: info.AvatarURL},
			},
		},
		ports.Outbound{
			Target:  result.HostID,
			Event:   EventViewerList,
			Payload: viewerListJSON(result.Stream.ID, result.ViewerList),
		},
	)
	return outs
}

func (s *relayService) handleLeaveStream(conn domain.ConnID) []ports.Outbound {
	result, ok := s.registry.LeaveStream(conn)
	if !ok {
		return nil
	}
	s.metrics.ViewerCount(result.Stream.ID, result.Stream.ViewerCount)
	return s.leaveOutbounds(conn, result)
}

// Forwarding is pure routing by raw connection identity. The relay
// trusts the caller: the target was learned from a prior
// viewer_joined/offer exchange, and a stale identity resolves to a
// silent drop at the delivery channel.

func (s *relayService) handleOffer(conn domain.ConnID, payload json.RawMessage) []ports.Outbound {
	var req OfferPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return s.fail(conn, apperrors.NewInvalidInputError("invalid offer payload"))
	}
	if req.ViewerID == "" {
		return s.fail(conn, apperrors.NewInvalidInputError("viewerId is required"))
	}
	s.metrics.ForwardRouted(EventOffer)
	return []ports.Outbound{{
		Target:  domain.ConnID(req.ViewerID),
		Event:   EventOffer,
		Payload: ForwardPayload{Offer: req.Offer, HostID: string(conn)},
	}}
}

func (s *relayService) handleAnswer(conn domain.ConnID, payload json.RawMessage) []ports.Outbound {
	var req AnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return s.fail(conn, apperrors.NewInvalidInputError("invalid answer payload"))
	}
	if req.HostID == "" {
		return s.fail(conn, apperrors.NewInvalidInputError("hostId is required"))
	}
	s.metrics.ForwardRouted(EventAnswer)
	return []ports.Outbound{{
		Target:  domain.ConnID(req.HostID),
		Event:   EventAnswer,
		Payload: ForwardPayload{Answer: req.Answer, ViewerID: string(conn)},
	}}
}

func (s *relayService) handleICECandidate(conn domain.ConnID, payload json.RawMessage) []ports.Outbound {
	var req ICECandidatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return s.fail(conn, apperrors.NewInvalidInputError("invalid ice_candidate payload"))
	}
	if req.TargetID == "" {
		return s.fail(conn, apperrors.NewInvalidInputError("targetId is required"))
	}
	s.metrics.ForwardRouted(EventICECandidate)
	return []ports.Outbound{{
		Target:  domain.ConnID(req.TargetID),
		Event:   EventICECandidate,
		Payload: ForwardPayload{Candidate: req.Candidate, FromID: string(conn)},
	}}
}

// endOutbounds notifies every prior viewer and broadcasts the removal.
func (s *relayService) endOutbounds(result *domain.EndResult) []ports.Outbound {
	s.metrics.StreamEnded(result.Stream.ID)

	outs := make([]ports.Outbound, 0, len(result.Viewers)+1)
	for _, viewerID := range result.Viewers {
		outs = append(outs, ports.Outbound{
			Target: viewerID,
			Event:  EventStreamEnded,
			Payload: StreamEndedPayload{
				StreamID: string(result.Stream.ID),
				Title:    result.Stream.Title,
			},
		})
	}
	outs = append(outs, ports.Outbound{
		Broadcast: true,
		Event:     EventStreamRemoved,
		Payload:   StreamRemovedPayload{StreamID: string(result.Stream.ID)},
	})
	return outs
}

// leaveOutbounds notifies the host of a departed viewer and pushes the
// updated viewer list.
func (s *relayService) leaveOutbounds(viewer domain.ConnID, result *domain.LeaveResult) []ports.Outbound {
	return []ports.Outbound{
		{
			Target: result.HostID,
			Event:  EventViewerLeft,
			Payload: ViewerLeftPayload{
				StreamID: string(result.Stream.ID),
				ViewerID: string(viewer),
			},
		},
		{
			Target:  result.HostID,
			Event:   EventViewerList,
			Payload: viewerListJSON(result.Stream.ID, result.ViewerList),
		},
	}
}

func (s *relayService) fail(conn domain.ConnID, appErr *apperrors.AppError) []ports.Outbound {
	s.metrics.ErrorReturned(string(appErr.Code))
	s.logger.Debugw("event rejected", "conn_id", conn, "code", appErr.Code, "message", appErr.Message)
	return []ports.Outbound{{
		Target:  conn,
		Event:   EventError,
		Payload: ErrorPayload{Code: string(appErr.Code), Message: appErr.Message},
	}}
}
