package recording

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

// ConnFactory builds the receive-only peer endpoint for one session.
type ConnFactory func(meetingID domain.MeetingID, participantID string) (core.MediaConnection, error)

// Config carries the manager's collaborators and knobs.
type Config struct {
	// Dir is where artifacts land.
	Dir string
	// GracePeriod bounds how long a session waits for the second track
	// before recording with what it has.
	GracePeriod time.Duration
	NewConn     ConnFactory
	NewWriter   WriterFactory
	Tasks       Scheduler
	Transcriber Transcriber
}

type sessionKey struct {
	meeting     domain.MeetingID
	participant string
}

// Manager owns one Session per (meeting, participant). Sessions are
// created on the participant's first recorder offer and removed once
// stopped.
type Manager struct {
	cfg      Config
	mu       sync.RWMutex
	sessions map[sessionKey]*Session
}

func NewManager(cfg Config) *Manager {
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 3 * time.Second
	}
	if cfg.NewWriter == nil {
		cfg.NewWriter = NewArtifactWriter
	}
	return &Manager{
		cfg:      cfg,
		sessions: make(map[sessionKey]*Session),
	}
}

func (m *Manager) GetOrCreate(meetingID domain.MeetingID, participantID string) (*Session, error) {
	key := sessionKey{meeting: meetingID, participant: participantID}

	m.mu.RLock()
	sess, ok := m.sessions[key]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok = m.sessions[key]; ok {
		return sess, nil
	}
	sess, err := newSession(m.cfg, meetingID, participantID, func() { m.remove(key) })
	if err != nil {
		return nil, err
	}
	m.sessions[key] = sess
	return sess, nil
}

func (m *Manager) Get(meetingID domain.MeetingID, participantID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionKey{meeting: meetingID, participant: participantID}]
	return sess, ok
}

func (m *Manager) remove(key sessionKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}

// StopAll stops every session of a meeting. Recording is an
// all-or-nothing property of a two-party session, so losing one member
// ends capture for both. Returns how many sessions were stopped.
func (m *Manager) StopAll(meetingID domain.MeetingID) int {
	m.mu.RLock()
	var victims []*Session
	for key, sess := range m.sessions {
		if key.meeting == meetingID {
			victims = append(victims, sess)
		}
	}
	m.mu.RUnlock()

	for _, sess := range victims {
		sess.Stop()
	}
	if len(victims) > 0 {
		log.Info().Str("module", "recording").Str("meeting", string(meetingID)).Int("sessions", len(victims)).Msg("stopped all recordings")
	}
	return len(victims)
}

// Count reports live sessions; used by tests and the rooms listing.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
