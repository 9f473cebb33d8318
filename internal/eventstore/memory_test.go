package eventstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylechi05/swan-hacks-2025/internal/core"
	"github.com/kylechi05/swan-hacks-2025/internal/domain"
)

func TestMemoryAuthorize(t *testing.T) {
	m := NewMemory()
	m.PutEvent(domain.Event{ID: 42, TutorID: 7, TuteeID: 9, Title: "Calculus"})

	role, err := m.Authorize(42, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTutor, role)

	role, err = m.Authorize(42, 9)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTutee, role)

	_, err = m.Authorize(42, 8)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	_, err = m.Authorize(99, 7)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestMemoryResolveName(t *testing.T) {
	m := NewMemory()
	m.PutUser(domain.User{ID: 7, Name: "Ada"})

	assert.Equal(t, "Ada", m.ResolveName(7))
	assert.Equal(t, AnonymousName, m.ResolveName(8))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	seed := `{
		"users": [{"userid": 7, "name": "Ada"}, {"userid": 9, "name": "Ben"}],
		"events": [{"eventid": 42, "userid_tutor": 7, "userid_tutee": 9, "title": "Calculus"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	m, err := LoadFile(path)
	require.NoError(t, err)

	role, err := m.Authorize(42, 9)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTutee, role)
	assert.Equal(t, "Ben", m.ResolveName(9))
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	m, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	_, err = m.Authorize(1, 1)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestLoadFileBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))
	_, err := LoadFile(path)
	assert.Error(t, err)
}
