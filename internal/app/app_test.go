package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/teamboard/internal/config"
	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:          t.TempDir(),
		LogLevel:         "debug",
		HTTPTimeout:      time.Second,
		Retries:          0,
		BreakerFailures:  1,
		BreakerCooldown:  time.Second,
		FetchConcurrency: 2,
	}
}

func TestNewRequiresAPIUnlessOffline(t *testing.T) {
	_, err := New(testConfig(t), Options{LogOutput: io.Discard})
	assert.ErrorContains(t, err, "TEAMBOARD_API_URL")

	a, err := New(testConfig(t), Options{Offline: true, LogOutput: io.Discard})
	require.NoError(t, err)
	assert.NoError(t, a.Close())
}

func TestSingleInstanceLock(t *testing.T) {
	cfg := testConfig(t)
	first, err := New(cfg, Options{Offline: true, Lock: true, LogOutput: io.Discard})
	require.NoError(t, err)

	_, err = New(cfg, Options{Offline: true, Lock: true, LogOutput: io.Discard})
	assert.ErrorContains(t, err, "already running")

	require.NoError(t, first.Close())
	second, err := New(cfg, Options{Offline: true, Lock: true, LogOutput: io.Discard})
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestOfflineStartServesCache(t *testing.T) {
	cfg := testConfig(t)

	// first run: write a cache directly
	a, err := New(cfg, Options{Offline: true, LogOutput: io.Discard})
	require.NoError(t, err)
	tk := a.Store.Begin(store.SectionUsers)
	require.NoError(t, a.Store.ReplaceUsers(tk, []model.User{{ID: "u1", Name: "Ann"}}))
	require.NoError(t, a.DB.SaveSnapshot(context.Background(), a.Store.Snapshot()))
	require.NoError(t, a.Close())

	a, err = New(cfg, Options{Offline: true, LogOutput: io.Discard})
	require.NoError(t, err)
	defer a.Close()

	report, err := a.Start(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Loaded)

	snap := a.Store.Snapshot()
	require.NoError(t, snap.Ready(store.SectionUsers))
	assert.Equal(t, "Ann", snap.UserName("u1"))
	assert.True(t, snap.State(store.SectionUsers).Cached)
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := testConfig(t)
	cfg.FetchConcurrency = 0
	_, err := New(cfg, Options{Offline: true, LogOutput: io.Discard})
	assert.ErrorContains(t, err, "FETCH_CONCURRENCY")
}
