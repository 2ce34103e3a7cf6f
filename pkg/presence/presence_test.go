package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vctt94/holdemcore/pkg/engine"
)

// TestIsActiveWithinThreshold checks that a heartbeat younger than
// ActiveThreshold reports active, an absent one does not.
func TestIsActiveWithinThreshold(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := now
	tr := NewWithClock(func() time.Time { return clock })

	roomID, userID := engine.ID("room1"), engine.ID("alice")
	require.False(t, tr.IsActive(roomID, userID), "no heartbeat recorded yet")

	tr.RecordHeartbeat(roomID, userID)
	require.True(t, tr.IsActive(roomID, userID))

	clock = now.Add(ActiveThreshold - time.Second)
	require.True(t, tr.IsActive(roomID, userID), "still within threshold")

	clock = now.Add(ActiveThreshold + time.Second)
	require.False(t, tr.IsActive(roomID, userID), "stale heartbeat past threshold")
}

// TestRemoveClearsHeartbeat covers the remove operation, e.g. used
// when a player leaves a room.
func TestRemoveClearsHeartbeat(t *testing.T) {
	tr := New()
	roomID, userID := engine.ID("room1"), engine.ID("bob")

	tr.RecordHeartbeat(roomID, userID)
	require.True(t, tr.IsActive(roomID, userID))

	tr.Remove(roomID, userID)
	require.False(t, tr.IsActive(roomID, userID))
}

// TestPresenceIsPerRoomAndUser covers the composite (roomId,
// userId) key: a heartbeat in one room never leaks into another room
// or another user.
func TestPresenceIsPerRoomAndUser(t *testing.T) {
	tr := New()
	alice, bob := engine.ID("alice"), engine.ID("bob")
	room1, room2 := engine.ID("room1"), engine.ID("room2")

	tr.RecordHeartbeat(room1, alice)

	require.True(t, tr.IsActive(room1, alice))
	require.False(t, tr.IsActive(room2, alice), "heartbeat in room1 must not apply to room2")
	require.False(t, tr.IsActive(room1, bob), "heartbeat for alice must not apply to bob")
}
