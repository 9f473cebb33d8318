package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

// ChatBinding records which chat identity a connection joined with.
type ChatBinding struct {
	Event domain.EventID
	User  domain.User
	Role  domain.ChatRole
}

type sessionEntry struct {
	Signal  core.SignalConnection
	Meeting domain.MeetingID
	Chat    *ChatBinding
	Cancel  context.CancelFunc
}

// Registry maps a live connection to its transport endpoint and to the
// room or chat it currently occupies. Pure mapping, no business rules.
type Registry struct {
	mu      sync.RWMutex
	entries map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[core.SessionID]*sessionEntry)}
}

func (r *Registry) BindSignal(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[sid] = &sessionEntry{Signal: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

func (r *Registry) Signal(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[sid]; ok && e.Signal != nil {
		return e.Signal, true
	}
	return nil, false
}

// BindRoom associates sid with a meeting room. Reports false when the
// connection is no longer registered.
func (r *Registry) BindRoom(sid core.SessionID, id domain.MeetingID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sid]
	if !ok {
		return false
	}
	e.Meeting = id
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(id)).Msg("bound room")
	return true
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.MeetingID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[sid]
	if !ok || e.Meeting == "" {
		return "", false
	}
	return e.Meeting, true
}

func (r *Registry) ClearRoom(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[sid]; ok {
		e.Meeting = ""
	}
}

func (r *Registry) BindChat(sid core.SessionID, b ChatBinding) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sid]
	if !ok {
		return false
	}
	e.Chat = &b
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int64("event", int64(b.Event)).Str("role", string(b.Role)).Msg("bound chat")
	return true
}

func (r *Registry) ChatOf(sid core.SessionID) (ChatBinding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[sid]
	if !ok || e.Chat == nil {
		return ChatBinding{}, false
	}
	return *e.Chat, true
}

func (r *Registry) ClearChat(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[sid]; ok {
		e.Chat = nil
	}
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// Cancel fires the stored cancel func, tearing down the connection's pumps.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.entries[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
