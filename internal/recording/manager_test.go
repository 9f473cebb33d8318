package recording

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

func TestManagerGetOrCreateReuses(t *testing.T) {
	h := newHarness(t, time.Minute)
	m := NewManager(h.cfg)

	s1, err := m.GetOrCreate("m1", "p1")
	require.NoError(t, err)
	s2, err := m.GetOrCreate("m1", "p1")
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, m.Count())

	_, ok := m.Get("m1", "p1")
	assert.True(t, ok)
	_, ok = m.Get("m1", "p2")
	assert.False(t, ok)
}

func TestManagerRemovesStoppedSession(t *testing.T) {
	h := newHarness(t, time.Minute)
	m := NewManager(h.cfg)

	s, err := m.GetOrCreate("m1", "p1")
	require.NoError(t, err)
	s.Stop()

	assert.Equal(t, 0, m.Count())
	_, ok := m.Get("m1", "p1")
	assert.False(t, ok)

	// The next offer after a stop gets a brand new session.
	s2, err := m.GetOrCreate("m1", "p1")
	require.NoError(t, err)
	assert.NotSame(t, s, s2)
	assert.Equal(t, StateAwaitingTracks, s2.State())
}

func TestManagerStopAllIsPerMeeting(t *testing.T) {
	conns := make(map[string]*fakeConn)
	cfg := newHarness(t, time.Minute).cfg
	cfg.NewConn = func(meetingID domain.MeetingID, participantID string) (core.MediaConnection, error) {
		c := &fakeConn{}
		conns[string(meetingID)+"/"+participantID] = c
		return c, nil
	}
	m := NewManager(cfg)

	_, err := m.GetOrCreate("m1", "p1")
	require.NoError(t, err)
	_, err = m.GetOrCreate("m1", "p2")
	require.NoError(t, err)
	other, err := m.GetOrCreate("m2", "p3")
	require.NoError(t, err)

	stopped := m.StopAll("m1")
	assert.Equal(t, 2, stopped)
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, StateAwaitingTracks, other.State())
	assert.Equal(t, 0, m.StopAll("m1"))
}

func TestManagerConnFactoryFailure(t *testing.T) {
	cfg := newHarness(t, time.Minute).cfg
	want := errors.New("no ice for you")
	cfg.NewConn = func(domain.MeetingID, string) (core.MediaConnection, error) {
		return nil, want
	}
	m := NewManager(cfg)

	_, err := m.GetOrCreate("m1", "p1")
	assert.ErrorIs(t, err, want)
	assert.Equal(t, 0, m.Count())
}

func TestManagerDefaults(t *testing.T) {
	m := NewManager(Config{})
	assert.Equal(t, 3*time.Second, m.cfg.GracePeriod)
	assert.NotNil(t, m.cfg.NewWriter)
}
