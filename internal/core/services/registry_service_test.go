package services

import (
	"testing"

	"relaycast/internal/core/domain"
	"relaycast/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry() ports.Registry {
	return NewRegistry(zap.NewNop().Sugar())
}

func TestCreateStream_TrimsAndDefaultsTitle(t *testing.T) {
	reg := newTestRegistry()

	result, err := reg.CreateStream("host-conn", "  host-a  ", "   ")
	require.NoError(t, err)

	assert.Equal(t, domain.StreamID("host-a"), result.Stream.ID)
	assert.Equal(t, "host-a", result.Stream.Title)
	assert.Equal(t, domain.ConnID("host-conn"), result.Stream.Host)
	assert.Nil(t, result.EndedPrevious)
	assert.Nil(t, result.Left)

	streams := reg.ListStreams()
	require.Len(t, streams, 1)
	assert.Equal(t, domain.StreamID("host-a"), streams[0].ID)
	assert.Equal(t, "host-a", streams[0].Title)
}

func TestCreateStream_EmptyIDRejected(t *testing.T) {
	reg := newTestRegistry()

	for _, id := range []string{"", "   ", "\t\n"} {
		_, err := reg.CreateStream("host-conn", id, "title")
		assert.ErrorIs(t, err, domain.ErrEmptyStreamID)
	}

	assert.Empty(t, reg.ListStreams())
	assert.Equal(t, domain.RoleUnassigned, reg.Role("host-conn").Kind)
}

func TestCreateStream_ConflictWithOtherHostRejected(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateStream("host-1", "movie-night", "")
	require.NoError(t, err)

	_, err = reg.CreateStream("host-2", "movie-night", "takeover")
	assert.ErrorIs(t, err, domain.ErrStreamExists)

	streams := reg.ListStreams()
	require.Len(t, streams, 1)
	assert.Equal(t, domain.ConnID("host-1"), streams[0].Host)
	assert.Equal(t, domain.RoleUnassigned, reg.Role("host-2").Kind)
}

func TestCreateStream_RehostEndsPreviousStream(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateStream("host-conn", "first", "")
	require.NoError(t, err)
	_, err = reg.JoinStream("viewer-conn", "first", domain.ViewerInfo{DisplayName: "ann"})
	require.NoError(t, err)

	result, err := reg.CreateStream("host-conn", "second", "")
	require.NoError(t, err)

	require.NotNil(t, result.EndedPrevious)
	assert.Equal(t, domain.StreamID("first"), result.EndedPrevious.Stream.ID)
	assert.Equal(t, []domain.ConnID{"viewer-conn"}, result.EndedPrevious.Viewers)

	streams := reg.ListStreams()
	require.Len(t, streams, 1)
	assert.Equal(t, domain.StreamID("second"), streams[0].ID)

	// The orphaned viewer is unassigned, not silently carried over.
	assert.Equal(t, domain.RoleUnassigned, reg.Role("viewer-conn").Kind)
}

func TestCreateStream_ViewerPromotedToHost(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateStream("host-1", "lobby", "")
	require.NoError(t, err)
	_, err = reg.JoinStream("conn-x", "lobby", domain.ViewerInfo{})
	require.NoError(t, err)

	result, err := reg.CreateStream("conn-x", "own-show", "")
	require.NoError(t, err)

	require.NotNil(t, result.Left)
	assert.Equal(t, domain.StreamID("lobby"), result.Left.Stream.ID)
	assert.Equal(t, domain.ConnID("host-1"), result.Left.HostID)
	assert.Equal(t, 0, result.Left.Stream.ViewerCount)

	assert.Equal(t, domain.RoleHost, reg.Role("conn-x").Kind)
	assert.Len(t, reg.ListStreams(), 2)
}

func TestJoinStream_NotFound(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.JoinStream("viewer-conn", "ghost", domain.ViewerInfo{})
	assert.ErrorIs(t, err, domain.ErrStreamNotFound)
	assert.Equal(t, domain.RoleUnassigned, reg.Role("viewer-conn").Kind)
}

func TestJoinStream_HostCannotJoin(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateStream("host-1", "alpha", "")
	require.NoError(t, err)
	_, err = reg.CreateStream("host-2", "beta", "")
	require.NoError(t, err)

	// Neither its own stream nor anyone else's.
	_, err = reg.JoinStream("host-1", "alpha", domain.ViewerInfo{})
	assert.ErrorIs(t, err, domain.ErrAlreadyHosting)
	_, err = reg.JoinStream("host-1", "beta", domain.ViewerInfo{})
	assert.ErrorIs(t, err, domain.ErrAlreadyHosting)

	assert.Empty(t, reg.ViewerList("alpha"))
	assert.Empty(t, reg.ViewerList("beta"))
}

func TestJoinStream_SwitchDetachesFromOldStream(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateStream("host-a", "stream-a", "")
	require.NoError(t, err)
	_, err = reg.CreateStream("host-b", "stream-b", "")
	require.NoError(t, err)

	_, err = reg.JoinStream("viewer-conn", "stream-a", domain.ViewerInfo{})
	require.NoError(t, err)

	result, err := reg.JoinStream("viewer-conn", "stream-b", domain.ViewerInfo{})
	require.NoError(t, err)

	require.NotNil(t, result.Detached)
	assert.Equal(t, domain.StreamID("stream-a"), result.Detached.Stream.ID)
	assert.Equal(t, domain.ConnID("host-a"), result.Detached.HostID)
	assert.Equal(t, 0, result.Detached.Stream.ViewerCount)
	assert.Equal(t, 1, result.Stream.ViewerCount)

	assert.Empty(t, reg.ViewerList("stream-a"))
	assert.Len(t, reg.ViewerList("stream-b"), 1)
}

func TestJoinStream_RejoinIsIdempotentWithLastWriteMetadata(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateStream("host-conn", "lobby", "")
	require.NoError(t, err)

	_, err = reg.JoinStream("viewer-conn", "lobby", domain.ViewerInfo{DisplayName: "old name"})
	require.NoError(t, err)

	result, err := reg.JoinStream("viewer-conn", "lobby", domain.ViewerInfo{DisplayName: "new name"})
	require.NoError(t, err)

	assert.True(t, result.Rejoined)
	assert.True(t, result.MetadataChanged)
	assert.Nil(t, result.Detached)
	assert.Equal(t, 1, result.Stream.ViewerCount)

	viewers := reg.ViewerList("lobby")
	require.Len(t, viewers, 1)
	assert.Equal(t, "new name", viewers[0].DisplayName)

	// Rejoining with identical metadata reports no change.
	result, err = reg.JoinStream("viewer-conn", "lobby", domain.ViewerInfo{DisplayName: "new name"})
	require.NoError(t, err)
	assert.True(t, result.Rejoined)
	assert.False(t, result.MetadataChanged)
}

func TestLeaveStream_SilentNoopWithoutViewerRole(t *testing.T) {
	reg := newTestRegistry()

	_, ok := reg.LeaveStream("stranger")
	assert.False(t, ok)

	_, err := reg.CreateStream("host-conn", "lobby", "")
	require.NoError(t, err)
	_, err = reg.JoinStream("viewer-conn", "lobby", domain.ViewerInfo{})
	require.NoError(t, err)

	result, ok := reg.LeaveStream("viewer-conn")
	require.True(t, ok)
	assert.Equal(t, 0, result.Stream.ViewerCount)

	// Double-leave stays a no-op, not an error.
	_, ok = reg.LeaveStream("viewer-conn")
	assert.False(t, ok)
	_, ok = reg.LeaveStream("viewer-conn")
	assert.False(t, ok)
}

func TestEndStream_SilentNoopWithoutHostRole(t *testing.T) {
	reg := newTestRegistry()

	_, ok := reg.EndStream("stranger")
	assert.False(t, ok)

	_, err := reg.CreateStream("host-conn", "lobby", "")
	require.NoError(t, err)

	result, ok := reg.EndStream("host-conn")
	require.True(t, ok)
	assert.Equal(t, domain.StreamID("lobby"), result.Stream.ID)
	assert.Empty(t, reg.ListStreams())

	_, ok = reg.EndStream("host-conn")
	assert.False(t, ok)
}

func TestDisconnect_HostTearsDownStream(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateStream("host-conn", "lobby", "")
	require.NoError(t, err)
	_, err = reg.JoinStream("viewer-1", "lobby", domain.ViewerInfo{})
	require.NoError(t, err)
	_, err = reg.JoinStream("viewer-2", "lobby", domain.ViewerInfo{})
	require.NoError(t, err)

	result := reg.Disconnect("host-conn")

	require.NotNil(t, result.Ended)
	assert.Nil(t, result.Left)
	assert.ElementsMatch(t, []domain.ConnID{"viewer-1", "viewer-2"}, result.Ended.Viewers)

	assert.Empty(t, reg.ListStreams())
	assert.Equal(t, domain.RoleUnassigned, reg.Role("viewer-1").Kind)
	assert.Equal(t, domain.RoleUnassigned, reg.Role("viewer-2").Kind)
}

func TestDisconnect_ViewerDetaches(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateStream("host-conn", "lobby", "")
	require.NoError(t, err)
	_, err = reg.JoinStream("viewer-conn", "lobby", domain.ViewerInfo{})
	require.NoError(t, err)

	result := reg.Disconnect("viewer-conn")

	require.NotNil(t, result.Left)
	assert.Nil(t, result.Ended)
	assert.Equal(t, domain.ConnID("host-conn"), result.Left.HostID)
	assert.Empty(t, reg.ViewerList("lobby"))
}

func TestDisconnect_UnassignedIsNoop(t *testing.T) {
	reg := newTestRegistry()

	result := reg.Disconnect("stranger")
	assert.Nil(t, result.Ended)
	assert.Nil(t, result.Left)
}

func TestViewerList_AbsentStreamIsEmpty(t *testing.T) {
	reg := newTestRegistry()
	assert.Empty(t, reg.ViewerList("ghost"))
}

func TestViewerList_NormalizesLookupKey(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateStream("host-conn", "  lobby ", "")
	require.NoError(t, err)
	_, err = reg.JoinStream("viewer-conn", "lobby", domain.ViewerInfo{})
	require.NoError(t, err)

	assert.Len(t, reg.ViewerList("  lobby  "), 1)
}

// Membership must stay exclusive: no connection id appears in two
// viewer sets, and no host appears in its own.
func TestMembershipInvariants(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateStream("host-a", "stream-a", "")
	require.NoError(t, err)
	_, err = reg.CreateStream("host-b", "stream-b", "")
	require.NoError(t, err)

	viewers := []domain.ConnID{"v1", "v2", "v3"}
	for _, v := range viewers {
		_, err = reg.JoinStream(v, "stream-a", domain.ViewerInfo{})
		require.NoError(t, err)
	}
	// v2 switches; v3 rejoins its current stream.
	_, err = reg.JoinStream("v2", "stream-b", domain.ViewerInfo{})
	require.NoError(t, err)
	_, err = reg.JoinStream("v3", "stream-a", domain.ViewerInfo{})
	require.NoError(t, err)

	seen := make(map[domain.ConnID]int)
	for _, s := range reg.ListStreams() {
		for _, entry := range reg.ViewerList(s.ID) {
			seen[entry.ID]++
			assert.NotEqual(t, s.Host, entry.ID, "host must not view its own stream")
		}
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "connection %s is in more than one viewer set", id)
	}
}

// Scenario from the drawing board: blank title falls back to the
// stream id and two distinct joins produce a count of two.
func TestScenario_TitleFallbackAndTwoViewers(t *testing.T) {
	reg := newTestRegistry()

	result, err := reg.CreateStream("host-conn", "host-a", "")
	require.NoError(t, err)
	assert.Equal(t, "host-a", result.Stream.Title)

	_, err = reg.JoinStream("viewer-1", "host-a", domain.ViewerInfo{})
	require.NoError(t, err)
	joined, err := reg.JoinStream("viewer-2", "host-a", domain.ViewerInfo{})
	require.NoError(t, err)

	assert.Equal(t, 2, joined.Stream.ViewerCount)
	assert.Len(t, joined.ViewerList, 2)
}
