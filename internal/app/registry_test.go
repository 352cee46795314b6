package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/core"
	"github.com/ralphvalcin/decentralize-video-app-sub000/internal/domain"
)

func TestRegistryBindMintsDistinctSessions(t *testing.T) {
	r := NewRegistry(8)

	a, err := r.Bind(&stubConn{}, NewRateLimiter(testRate()), 1111)
	require.NoError(t, err)
	b, err := r.Bind(&stubConn{}, NewRateLimiter(testRate()), 2222)
	require.NoError(t, err)

	assert.Len(t, string(a.ID), 32)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, domain.RoleParticipant, a.Role)
	assert.Equal(t, int64(1111), a.ConnectedAt)
	assert.Equal(t, 2, r.Count())
}

func TestRegistryCapacity(t *testing.T) {
	r := NewRegistry(1)

	a, err := r.Bind(&stubConn{}, NewRateLimiter(testRate()), 0)
	require.NoError(t, err)
	assert.False(t, r.CanAccept())

	_, err = r.Bind(&stubConn{}, NewRateLimiter(testRate()), 0)
	require.ErrorIs(t, err, ErrServerFull)

	assert.True(t, r.Unbind(a.ID))
	assert.True(t, r.CanAccept())
	_, err = r.Bind(&stubConn{}, NewRateLimiter(testRate()), 0)
	require.NoError(t, err)
}

func TestRegistryUnbindUnknown(t *testing.T) {
	r := NewRegistry(8)
	assert.False(t, r.Unbind("nope"))
}

func TestRegistrySetRoomClaimsOnce(t *testing.T) {
	r := NewRegistry(8)
	a, err := r.Bind(&stubConn{}, NewRateLimiter(testRate()), 0)
	require.NoError(t, err)

	require.NoError(t, r.SetRoom(a.ID, "room-100"))
	assert.ErrorIs(t, r.SetRoom(a.ID, "room-100"), ErrAlreadyJoined)
	assert.ErrorIs(t, r.SetRoom(a.ID, "room-200"), ErrAlreadyJoined)
	assert.ErrorIs(t, r.SetRoom("nope", "room-100"), ErrUnknownSession)
}

func TestRegistryClearRoomAllowsReclaim(t *testing.T) {
	r := NewRegistry(8)
	a, err := r.Bind(&stubConn{}, NewRateLimiter(testRate()), 0)
	require.NoError(t, err)

	require.NoError(t, r.SetRoom(a.ID, "room-100"))
	r.ClearRoom(a.ID)
	require.NoError(t, r.SetRoom(a.ID, "room-200"))
	assert.Equal(t, domain.RoomID("room-200"), a.RoomID)
}

func TestRegistrySetProfile(t *testing.T) {
	r := NewRegistry(8)
	a, err := r.Bind(&stubConn{}, NewRateLimiter(testRate()), 0)
	require.NoError(t, err)

	r.SetProfile(a.ID, "Alice", domain.RoleHost)
	e, ok := r.entry(a.ID)
	require.True(t, ok)
	assert.Equal(t, "Alice", e.Sess.Name)
	assert.Equal(t, domain.RoleHost, e.Sess.Role)
}

func TestRegistryForEachConn(t *testing.T) {
	r := NewRegistry(8)
	for i := 0; i < 3; i++ {
		_, err := r.Bind(&stubConn{}, NewRateLimiter(testRate()), 0)
		require.NoError(t, err)
	}

	visited := 0
	r.ForEachConn(func(core.SignalConnection) { visited++ })
	assert.Equal(t, 3, visited)
}
