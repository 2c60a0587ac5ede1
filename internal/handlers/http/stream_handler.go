package http

import (
	"net/http"

	"relaycast/internal/core/domain"
	"relaycast/internal/core/ports"

	webrtc "github.com/pion/webrtc/v3"

	"github.com/gin-gonic/gin"
)

// StreamHandler exposes the registry's read-only snapshot to
// non-realtime callers, plus the ICE server configuration clients need
// to build their peer connections.
type StreamHandler struct {
	registry   ports.Registry
	iceServers []webrtc.ICEServer
}

func NewStreamHandler(registry ports.Registry, iceServers []webrtc.ICEServer) *StreamHandler {
	return &StreamHandler{
		registry:   registry,
		iceServers: iceServers,
	}
}

func (h *StreamHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.GET("/streams", h.ListStreams)
		api.GET("/streams/:id/viewers", h.GetViewers)
		api.GET("/ice-servers", h.ICEServers)
	}
}

func (h *StreamHandler) ListStreams(c *gin.Context) {
	summaries := h.registry.ListStreams()

	streams := make([]gin.H, 0, len(summaries))
	for _, s := range summaries {
		streams = append(streams, gin.H{
			"streamId":    string(s.ID),
			"title":       s.Title,
			"hostId":      string(s.Host),
			"viewerCount": s.ViewerCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"streams": streams,
	})
}

func (h *StreamHandler) GetViewers(c *gin.Context) {
	streamID := domain.StreamID(c.Param("id"))

	entries := h.registry.ViewerList(streamID)
	viewers := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		viewers = append(viewers, gin.H{
			"viewerId":    string(e.ID),
			"displayName": e.DisplayName,
			"avatarUrl":   e.AvatarURL,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"streamId": string(streamID),
		"viewers":  viewers,
		"count":    len(viewers),
	})
}

func (h *StreamHandler) ICEServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"iceServers": h.iceServers,
	})
}
