package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

// MeetingCapacity is the hard member limit of a meeting room. Tutoring
// meetings are strictly one-on-one.
const MeetingCapacity = 2

// MeetingRooms owns the table of live meeting rooms. All membership
// mutation goes through it under one mutex, so the capacity check is
// atomic even when two connections join the same room at once.
type MeetingRooms struct {
	mu    sync.RWMutex
	rooms map[domain.MeetingID][]SessionID
}

func NewMeetingRooms() *MeetingRooms {
	return &MeetingRooms{rooms: make(map[domain.MeetingID][]SessionID)}
}

// Join adds sid to the room, creating it lazily, and returns the new
// member count. A full room rejects the join with ErrRoomFull and
// stays untouched.
func (t *MeetingRooms) Join(id domain.MeetingID, sid SessionID) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members := t.rooms[id]
	if len(members) >= MeetingCapacity {
		log.Warn().Str("module", "core.room").Str("room", string(id)).Str("sid", string(sid)).Msg("join rejected, room full")
		return len(members), ErrRoomFull
	}
	for _, m := range members {
		if m == sid {
			return len(members), nil
		}
	}
	t.rooms[id] = append(members, sid)
	count := len(t.rooms[id])
	log.Info().Str("module", "core.room").Str("room", string(id)).Str("sid", string(sid)).Int("members", count).Msg("member joined")
	return count, nil
}

// Leave removes sid from the room and returns the remaining member
// count plus whether sid was actually a member. An emptied room is
// destroyed, so a later join recreates it from scratch.
func (t *MeetingRooms) Leave(id domain.MeetingID, sid SessionID) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.rooms[id]
	if !ok {
		return 0, false
	}
	removed := false
	kept := members[:0]
	for _, m := range members {
		if m == sid {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	if !removed {
		return len(members), false
	}
	if len(kept) == 0 {
		delete(t.rooms, id)
		log.Info().Str("module", "core.room").Str("room", string(id)).Msg("room destroyed")
		return 0, true
	}
	t.rooms[id] = kept
	log.Info().Str("module", "core.room").Str("room", string(id)).Str("sid", string(sid)).Int("members", len(kept)).Msg("member left")
	return len(kept), true
}

// Members returns a snapshot of the room's member connections in join order.
func (t *MeetingRooms) Members(id domain.MeetingID) []SessionID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	members := t.rooms[id]
	out := make([]SessionID, len(members))
	copy(out, members)
	return out
}

func (t *MeetingRooms) Count(id domain.MeetingID) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms[id])
}

type RoomInfo struct {
	ID          domain.MeetingID `json:"room"`
	MemberCount int              `json:"member_count"`
}

func (t *MeetingRooms) List() []RoomInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]RoomInfo, 0, len(t.rooms))
	for id, members := range t.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(members)})
	}
	return out
}
