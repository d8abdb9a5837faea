package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/teamboard/internal/eventbus"
	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/store"
)

func sampleBackend() *fakeBackend {
	return &fakeBackend{
		users:       []model.User{{ID: "u1", Name: "Ann"}, {ID: "u2", Name: "Bob"}},
		groups:      []model.Group{{ID: "g1", Name: "Ops"}},
		memberships: []model.Membership{{GroupID: "g1", UserID: "u2"}},
		tasks: []model.Task{
			{ID: "t1", Title: "Ship", Status: "to do", DirectUserIDs: []string{"u1"}},
			{ID: "t2", Title: "Fix", Status: "done", GroupIDs: []string{"g1"}},
		},
		projects: []model.Project{{ID: "p1", Title: "Website", Status: "pending"}},
		fail:     map[string]error{},
	}
}

func TestLoadAllSections(t *testing.T) {
	be := sampleBackend()
	st := store.New(nil)
	cache := &memCache{}
	l := NewLoader(LoaderOptions{Backend: be, Store: st, Cache: cache, Concurrency: 2})

	report := l.Load(context.Background())
	assert.True(t, report.OK())
	assert.NoError(t, report.Err())
	assert.Equal(t, store.AllSections, report.Loaded)

	snap := st.Snapshot()
	require.NoError(t, snap.Ready(store.AllSections...))
	assert.Len(t, snap.Tasks, 2)
	assert.True(t, snap.Index.IsMember("g1", "u2"))
	assert.Equal(t, 1, cache.saves)
	assert.Same(t, snap, cache.last)
}

func TestLoadPartialFailureKeepsOtherSections(t *testing.T) {
	be := sampleBackend()
	st := store.New(nil)
	bus := eventbus.New(nil)
	var failed []string
	bus.Subscribe(func(ev eventbus.Event) {
		if ev.Topic == eventbus.FetchFailed {
			failed = append(failed, ev.Source)
		}
	})
	l := NewLoader(LoaderOptions{Backend: be, Store: st, Bus: bus, Concurrency: 1})

	require.True(t, l.Load(context.Background()).OK())

	be.fail["memberships"] = errBoom
	be.users = []model.User{{ID: "u3"}}
	report := l.Load(context.Background())

	assert.False(t, report.OK())
	assert.ErrorIs(t, report.Failed[store.SectionMemberships], errBoom)
	assert.Contains(t, report.Err().Error(), "memberships: boom")
	assert.NotContains(t, report.Loaded, store.SectionMemberships)
	assert.Equal(t, []string{"memberships"}, failed)

	snap := st.Snapshot()
	assert.Equal(t, "u3", snap.Users[0].ID, "healthy sections are still replaced")
	assert.True(t, snap.Index.IsMember("g1", "u2"), "failed section keeps its last good data")
	assert.Contains(t, snap.Warnings(store.SectionMemberships), store.SectionMemberships)
}

func TestLoadFirstFailureLeavesSectionNotReady(t *testing.T) {
	be := sampleBackend()
	be.fail["tasks"] = errBoom
	st := store.New(nil)
	l := NewLoader(LoaderOptions{Backend: be, Store: st})

	report := l.Load(context.Background(), store.SectionTasks, store.SectionUsers)
	assert.Equal(t, []store.Section{store.SectionUsers}, report.Loaded)

	var nr *store.NotReadyError
	require.ErrorAs(t, st.Snapshot().Ready(store.SectionTasks), &nr)
	assert.Contains(t, nr.Failed, store.SectionTasks)
}

func TestLoadWithoutSuccessSkipsCache(t *testing.T) {
	be := sampleBackend()
	be.fail["users"] = errBoom
	cache := &memCache{}
	l := NewLoader(LoaderOptions{Backend: be, Store: store.New(nil), Cache: cache})

	l.Load(context.Background(), store.SectionUsers)
	assert.Zero(t, cache.saves)
}

func TestWarmSeedsFromCache(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := &memCache{load: store.Cached{
		Tasks:    []model.Task{{ID: "cached"}},
		Sections: map[store.Section]time.Time{store.SectionTasks: at},
	}}
	st := store.New(nil)
	l := NewLoader(LoaderOptions{Backend: sampleBackend(), Store: st, Cache: cache})

	ok, err := l.Warm(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cached", st.Snapshot().Tasks[0].ID)
	assert.True(t, st.Snapshot().State(store.SectionTasks).Cached)

	ok, err = NewLoader(LoaderOptions{Store: store.New(nil)}).Warm(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadUserScope(t *testing.T) {
	be := sampleBackend()
	st := store.New(nil)
	l := NewLoader(LoaderOptions{Backend: be, Store: st})

	scope, err := l.LoadUserScope(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, scope.Tasks, 1)
	assert.Equal(t, "t1", scope.Tasks[0].ID)
	assert.Len(t, scope.Projects, 1)
	assert.False(t, st.Snapshot().State(store.SectionTasks).Loaded, "scoped loads leave the store alone")

	_, err = l.LoadUserScope(context.Background(), " ")
	assert.Error(t, err)

	be.fail["projects"] = errBoom
	_, err = l.LoadUserScope(context.Background(), "u1")
	assert.ErrorIs(t, err, errBoom)
}

func TestOfflineKeepsCachedSections(t *testing.T) {
	st := store.New(nil)
	cache := &memCache{load: store.Cached{
		Users:    []model.User{{ID: "u1", Name: "Ann"}},
		Sections: map[store.Section]time.Time{store.SectionUsers: time.Now()},
	}}
	l := NewLoader(LoaderOptions{Backend: Offline{}, Store: st, Cache: cache})

	warmed, err := l.Warm(context.Background())
	require.NoError(t, err)
	require.True(t, warmed)

	report := l.Load(context.Background())
	assert.Len(t, report.Failed, len(store.AllSections))
	assert.ErrorIs(t, report.Failed[store.SectionUsers], ErrOffline)
	assert.Zero(t, cache.saves)

	snap := st.Snapshot()
	assert.NoError(t, snap.Ready(store.SectionUsers))
	assert.Error(t, snap.Ready(store.SectionTasks))
	assert.Len(t, snap.Users, 1)
}
