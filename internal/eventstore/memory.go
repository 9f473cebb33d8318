// Package eventstore is the event-ownership collaborator consumed by
// the chat coordinator. The real system keeps events in a relational
// store behind a CRUD API; the signaling server only needs lookups, so
// it works from an in-memory directory seeded at startup.
package eventstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

// AnonymousName is used when a user id has no known display name.
const AnonymousName = "Anonymous"

type Memory struct {
	mu     sync.RWMutex
	events map[domain.EventID]domain.Event
	names  map[domain.UserID]string
}

func NewMemory() *Memory {
	return &Memory{
		events: make(map[domain.EventID]domain.Event),
		names:  make(map[domain.UserID]string),
	}
}

func (m *Memory) PutEvent(e domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = e
}

func (m *Memory) PutUser(u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[u.ID] = u.Name
}

// Authorize implements core.EventDirectory.
func (m *Memory) Authorize(eventID domain.EventID, uid domain.UserID) (domain.ChatRole, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[eventID]
	if !ok {
		return "", core.ErrUnauthorized
	}
	role, ok := e.ParticipantRole(uid)
	if !ok {
		return "", core.ErrUnauthorized
	}
	return role, nil
}

// ResolveName implements core.EventDirectory.
func (m *Memory) ResolveName(uid domain.UserID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if name, ok := m.names[uid]; ok {
		return name
	}
	return AnonymousName
}

type seedFile struct {
	Users  []domain.User  `json:"users"`
	Events []domain.Event `json:"events"`
}

// LoadFile seeds a directory from a JSON file. A missing path yields
// an empty directory: chat joins simply all fail authorization until
// events exist.
func LoadFile(path string) (*Memory, error) {
	m := NewMemory()
	if path == "" {
		return m, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("module", "eventstore").Str("path", path).Msg("events file not found, starting empty")
			return m, nil
		}
		return nil, fmt.Errorf("read events file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse events file: %w", err)
	}
	for _, u := range seed.Users {
		m.PutUser(u)
	}
	for _, e := range seed.Events {
		m.PutEvent(e)
	}
	log.Info().Str("module", "eventstore").Int("events", len(seed.Events)).Int("users", len(seed.Users)).Msg("directory loaded")
	return m, nil
}
