package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

func TestMeetingRoomsJoinCapacity(t *testing.T) {
	rooms := NewMeetingRooms()
	id := domain.MeetingID("m1")

	count, err := rooms.Join(id, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = rooms.Join(id, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = rooms.Join(id, "c")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 2, count)
	assert.Equal(t, []SessionID{"a", "b"}, rooms.Members(id))
}

func TestMeetingRoomsJoinIdempotent(t *testing.T) {
	rooms := NewMeetingRooms()
	id := domain.MeetingID("m1")

	_, err := rooms.Join(id, "a")
	require.NoError(t, err)
	count, err := rooms.Join(id, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMeetingRoomsLeave(t *testing.T) {
	rooms := NewMeetingRooms()
	id := domain.MeetingID("m1")
	_, _ = rooms.Join(id, "a")
	_, _ = rooms.Join(id, "b")

	remaining, was := rooms.Leave(id, "a")
	assert.True(t, was)
	assert.Equal(t, 1, remaining)

	remaining, was = rooms.Leave(id, "a")
	assert.False(t, was)
	assert.Equal(t, 1, remaining)

	remaining, was = rooms.Leave(id, "b")
	assert.True(t, was)
	assert.Equal(t, 0, remaining)
	assert.Empty(t, rooms.List())
}

func TestMeetingRoomsDestroyedRoomIsRecreated(t *testing.T) {
	rooms := NewMeetingRooms()
	id := domain.MeetingID("m1")
	_, _ = rooms.Join(id, "a")
	_, _ = rooms.Join(id, "b")
	rooms.Leave(id, "a")
	rooms.Leave(id, "b")

	// The emptied room was destroyed, so a full cycle of joins works again.
	count, err := rooms.Join(id, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = rooms.Join(id, "d")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMeetingRoomsLeaveUnknownRoom(t *testing.T) {
	rooms := NewMeetingRooms()
	remaining, was := rooms.Leave("nope", "a")
	assert.False(t, was)
	assert.Equal(t, 0, remaining)
}

func TestMeetingRoomsList(t *testing.T) {
	rooms := NewMeetingRooms()
	_, _ = rooms.Join("m1", "a")
	_, _ = rooms.Join("m2", "b")
	_, _ = rooms.Join("m2", "c")

	list := rooms.List()
	require.Len(t, list, 2)
	counts := map[domain.MeetingID]int{}
	for _, info := range list {
		counts[info.ID] = info.MemberCount
	}
	assert.Equal(t, map[domain.MeetingID]int{"m1": 1, "m2": 2}, counts)
}
