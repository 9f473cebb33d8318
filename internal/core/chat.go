package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

// ChatMember ties a connection to the identity and role it joined with.
type ChatMember struct {
	SID  SessionID
	User domain.User
	Role domain.ChatRole
}

// chatRoom holds one role slot per chat role plus the member table.
// A user identity occupies at most one slot at a time.
type chatRoom struct {
	slots   map[domain.ChatRole]SessionID
	members map[SessionID]ChatMember
}

// ChatRooms owns the table of per-event chat rooms, keyed by the
// durable event id. Authorization happens in the coordinator; this
// table only enforces slot occupancy.
type ChatRooms struct {
	mu    sync.RWMutex
	rooms map[domain.EventID]*chatRoom
}

func NewChatRooms() *ChatRooms {
	return &ChatRooms{rooms: make(map[domain.EventID]*chatRoom)}
}

// Join claims the role slot for user, creating the room lazily. When
// the same user rejoins from a new connection the slot moves over and
// the superseded connection id is returned so the caller can unbind
// it. A slot held by a different user rejects the join.
func (t *ChatRooms) Join(id domain.EventID, sid SessionID, user domain.User, role domain.ChatRole) (int, SessionID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[id]
	if !ok {
		room = &chatRoom{
			slots:   make(map[domain.ChatRole]SessionID),
			members: make(map[SessionID]ChatMember),
		}
		t.rooms[id] = room
	}

	var replaced SessionID
	if held, ok := room.slots[role]; ok && held != sid {
		if room.members[held].User.ID != user.ID {
			return len(room.members), "", ErrUnauthorized
		}
		delete(room.members, held)
		replaced = held
		log.Info().Str("module", "core.chat").Int64("event", int64(id)).Str("sid", string(held)).Msg("slot superseded by new connection")
	}

	room.slots[role] = sid
	room.members[sid] = ChatMember{SID: sid, User: user, Role: role}
	count := len(room.members)
	log.Info().Str("module", "core.chat").Int64("event", int64(id)).Str("sid", string(sid)).Str("role", string(role)).Int("members", count).Msg("member joined chat")
	return count, replaced, nil
}

// Leave removes sid from the event's chat room, clears its role slot
// and destroys the room when it empties. Returns the removed member
// and the remaining count.
func (t *ChatRooms) Leave(id domain.EventID, sid SessionID) (ChatMember, int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[id]
	if !ok {
		return ChatMember{}, 0, false
	}
	member, ok := room.members[sid]
	if !ok {
		return ChatMember{}, len(room.members), false
	}
	delete(room.members, sid)
	if room.slots[member.Role] == sid {
		delete(room.slots, member.Role)
	}
	count := len(room.members)
	if count == 0 {
		delete(t.rooms, id)
		log.Info().Str("module", "core.chat").Int64("event", int64(id)).Msg("chat room destroyed")
	} else {
		log.Info().Str("module", "core.chat").Int64("event", int64(id)).Str("sid", string(sid)).Int("members", count).Msg("member left chat")
	}
	return member, count, true
}

func (t *ChatRooms) Member(id domain.EventID, sid SessionID) (ChatMember, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	room, ok := t.rooms[id]
	if !ok {
		return ChatMember{}, false
	}
	m, ok := room.members[sid]
	return m, ok
}

// Members returns a snapshot of the chat room's members.
func (t *ChatRooms) Members(id domain.EventID) []ChatMember {
	t.mu.RLock()
	defer t.mu.RUnlock()
	room, ok := t.rooms[id]
	if !ok {
		return nil
	}
	out := make([]ChatMember, 0, len(room.members))
	for _, m := range room.members {
		out = append(out, m)
	}
	return out
}

func (t *ChatRooms) Count(id domain.EventID) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	room, ok := t.rooms[id]
	if !ok {
		return 0
	}
	return len(room.members)
}
