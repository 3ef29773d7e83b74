package toml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sessions.toml")
	cfg := viper.New()
	cfg.Set("sessions.path", path)

	repo, err := NewRepository(cfg)
	require.NoError(t, err)
	return repo, path
}

func sampleSession(id string) domain.Session {
	return domain.Session{
		ID:        id,
		AgentID:   "agent-a",
		Role:      "courier",
		TokenHash: "3f4a9c",
		Scope:     []string{"road.network", "waystation.codes"},
		Context:   "dispatch run",
		IssuedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC),
		TTL:       8 * time.Hour,
		Status:    domain.SessionActive,
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	session := sampleSession("sess-1")

	require.NoError(t, repo.Save(context.Background(), session))

	got, err := repo.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session, got)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Session{session}, all)
}

func TestRepositorySaveUpdatesInPlace(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	session := sampleSession("sess-1")
	require.NoError(t, repo.Save(context.Background(), session))

	session.Status = domain.SessionRevoked
	session.RevokedAt = time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC)
	session.RevocationReason = "compartment isolation"
	session.RevokedBy = "compromise-protocol"
	require.NoError(t, repo.Save(context.Background(), session))

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.SessionRevoked, all[0].Status)
	assert.Equal(t, "compromise-protocol", all[0].RevokedBy)
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRepositoryListByAgentFilters(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx := context.Background()

	first := sampleSession("sess-1")
	second := sampleSession("sess-2")
	second.AgentID = "agent-b"
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	sessions, err := repo.ListByAgent(ctx, "agent-a")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "sess-1", sessions[0].ID)
}

func TestRepositorySurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sessions.toml")
	cfg := viper.New()
	cfg.Set("sessions.path", path)

	repo, err := NewRepository(cfg)
	require.NoError(t, err)
	session := sampleSession("sess-1")
	require.NoError(t, repo.Save(context.Background(), session))

	reopened, err := NewRepository(cfg)
	require.NoError(t, err)

	got, err := reopened.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestRepositoryStateFilePermissions(t *testing.T) {
	t.Parallel()

	repo, path := newTestRepository(t)
	require.NoError(t, repo.Save(context.Background(), sampleSession("sess-1")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRepositoryRejectsUnknownSchemaVersion(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sessions.toml")
	require.NoError(t, os.WriteFile(path, []byte("version = 99\n"), 0o600))

	cfg := viper.New()
	cfg.Set("sessions.path", path)
	repo, err := NewRepository(cfg)
	require.NoError(t, err)

	_, err = repo.List(context.Background())
	require.ErrorContains(t, err, "unsupported sessions file version")
}
