package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/teamboard/internal/eventbus"
	"github.com/dori/teamboard/internal/model"
)

func newTestStore(t *testing.T) (*Store, *[]eventbus.Event) {
	t.Helper()
	bus := eventbus.New(nil)
	var events []eventbus.Event
	bus.Subscribe(func(ev eventbus.Event) { events = append(events, ev) })
	return New(bus), &events
}

func TestReplacePublishesAndMarksLoaded(t *testing.T) {
	s, events := newTestStore(t)
	before := s.Snapshot()

	require.NoError(t, s.ReplaceUsers(s.Begin(SectionUsers), []model.User{{ID: "u1", Name: "Ann"}}))

	snap := s.Snapshot()
	assert.NotSame(t, before, snap)
	assert.Empty(t, before.Users, "old snapshot must stay untouched")
	assert.Equal(t, "Ann", snap.UserName("u1"))
	assert.True(t, snap.State(SectionUsers).Loaded)
	require.Len(t, *events, 1)
	assert.Equal(t, eventbus.DataUpdated, (*events)[0].Topic)
	assert.Equal(t, "users", (*events)[0].Source)
}

func TestStaleResultIsDiscarded(t *testing.T) {
	s, events := newTestStore(t)

	older := s.Begin(SectionTasks)
	newer := s.Begin(SectionTasks)

	require.NoError(t, s.ReplaceTasks(newer, []model.Task{{ID: "fresh"}}))
	err := s.ReplaceTasks(older, []model.Task{{ID: "old"}})
	assert.ErrorIs(t, err, ErrStaleResult)

	snap := s.Snapshot()
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "fresh", snap.Tasks[0].ID)
	assert.Len(t, *events, 1)
}

func TestOlderResultArrivingFirstIsAccepted(t *testing.T) {
	s, _ := newTestStore(t)

	older := s.Begin(SectionTasks)
	newer := s.Begin(SectionTasks)

	require.NoError(t, s.ReplaceTasks(older, []model.Task{{ID: "old"}}))
	require.NoError(t, s.ReplaceTasks(newer, []model.Task{{ID: "fresh"}}))
	assert.Equal(t, "fresh", s.Snapshot().Tasks[0].ID)
}

func TestTicketsAreIndependentPerSection(t *testing.T) {
	s, _ := newTestStore(t)
	users := s.Begin(SectionUsers)
	tasks := s.Begin(SectionTasks)

	require.NoError(t, s.ReplaceTasks(tasks, nil))
	require.NoError(t, s.ReplaceUsers(users, nil))
}

func TestReplaceRejectsWrongSection(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.ReplaceTasks(s.Begin(SectionUsers), nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrStaleResult)
}

func TestMembershipsRebuildIndex(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.ReplaceMemberships(s.Begin(SectionMemberships), []model.Membership{
		{GroupID: "g1", UserID: "u1"},
	}))
	assert.True(t, s.Snapshot().Index.IsMember("g1", "u1"))

	require.NoError(t, s.ReplaceMemberships(s.Begin(SectionMemberships), nil))
	assert.False(t, s.Snapshot().Index.IsMember("g1", "u1"))
}

func TestReadyReportsMissingAndFailed(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.ReplaceUsers(s.Begin(SectionUsers), nil))
	require.NoError(t, s.MarkFailed(s.Begin(SectionGroups), errors.New("boom")))

	err := s.Snapshot().Ready(SectionUsers, SectionGroups, SectionMemberships)
	var nr *NotReadyError
	require.ErrorAs(t, err, &nr)
	assert.Equal(t, []Section{SectionMemberships}, nr.Missing)
	assert.Contains(t, nr.Failed, SectionGroups)
	assert.Contains(t, err.Error(), "waiting for memberships")
	assert.Contains(t, err.Error(), "groups (boom)")

	assert.NoError(t, s.Snapshot().Ready(SectionUsers))
}

func TestFailedRefreshKeepsOlderData(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.ReplaceTasks(s.Begin(SectionTasks), []model.Task{{ID: "t1"}}))
	require.NoError(t, s.MarkFailed(s.Begin(SectionTasks), errors.New("timeout")))

	snap := s.Snapshot()
	assert.NoError(t, snap.Ready(SectionTasks))
	assert.Len(t, snap.Tasks, 1)
	assert.Contains(t, snap.Warnings(SectionTasks, SectionUsers), SectionTasks)
	assert.NotContains(t, snap.Warnings(SectionTasks, SectionUsers), SectionUsers)
}

func TestMarkFailedWithStaleTicket(t *testing.T) {
	s, _ := newTestStore(t)
	older := s.Begin(SectionTasks)
	require.NoError(t, s.ReplaceTasks(s.Begin(SectionTasks), nil))
	assert.ErrorIs(t, s.MarkFailed(older, errors.New("late")), ErrStaleResult)
	assert.NoError(t, s.Snapshot().State(SectionTasks).Err)
}

func TestPatchSupersedesInFlightFetch(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.ReplaceTasks(s.Begin(SectionTasks), []model.Task{{ID: "t1", Title: "old"}}))

	inflight := s.Begin(SectionTasks)
	s.PatchTask(model.Task{ID: "t1", Title: "new"})
	s.PatchTask(model.Task{ID: "t2", Title: "added"})

	assert.ErrorIs(t, s.ReplaceTasks(inflight, []model.Task{{ID: "t1", Title: "old"}}), ErrStaleResult)
	snap := s.Snapshot()
	require.Len(t, snap.Tasks, 2)
	assert.Equal(t, "new", snap.Tasks[0].Title)
	assert.Equal(t, "added", snap.Tasks[1].Title)

	assert.True(t, s.RemoveTask("t1"))
	assert.False(t, s.RemoveTask("t1"))
	assert.Len(t, s.Snapshot().Tasks, 1)
}

func TestRemoveProjectDetachesTasks(t *testing.T) {
	s, _ := newTestStore(t)
	pid := "p1"
	require.NoError(t, s.ReplaceProjects(s.Begin(SectionProjects), []model.Project{{ID: pid}}))
	require.NoError(t, s.ReplaceTasks(s.Begin(SectionTasks), []model.Task{{ID: "t1", ProjectID: &pid}, {ID: "t2"}}))
	before := s.Snapshot()

	assert.True(t, s.RemoveProject(pid))
	snap := s.Snapshot()
	assert.Empty(t, snap.Projects)
	assert.Nil(t, snap.Tasks[0].ProjectID)
	assert.NotNil(t, before.Tasks[0].ProjectID, "old snapshot must stay untouched")
}

func TestSeedOnlyFillsUnloadedSections(t *testing.T) {
	s, events := newTestStore(t)
	require.NoError(t, s.ReplaceUsers(s.Begin(SectionUsers), []model.User{{ID: "live"}}))

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ok := s.Seed(Cached{
		Users:       []model.User{{ID: "cached"}},
		Memberships: []model.Membership{{GroupID: "g", UserID: "u"}},
		Sections:    map[Section]time.Time{SectionUsers: at, SectionMemberships: at},
	})
	require.True(t, ok)

	snap := s.Snapshot()
	assert.Equal(t, "live", snap.Users[0].ID)
	assert.True(t, snap.Index.IsMember("g", "u"))
	st := snap.State(SectionMemberships)
	assert.True(t, st.Loaded)
	assert.True(t, st.Cached)
	assert.Equal(t, at, st.At)
	assert.Len(t, *events, 2)

	assert.False(t, s.Seed(Cached{Sections: map[Section]time.Time{SectionUsers: at}}))

	require.NoError(t, s.ReplaceMemberships(s.Begin(SectionMemberships), nil))
	assert.False(t, s.Snapshot().State(SectionMemberships).Cached)
}

func TestSubscriberMayReadStore(t *testing.T) {
	bus := eventbus.New(nil)
	s := New(bus)
	var seen int
	bus.Subscribe(func(eventbus.Event) { seen = len(s.Snapshot().Tasks) })

	require.NoError(t, s.ReplaceTasks(s.Begin(SectionTasks), []model.Task{{ID: "a"}, {ID: "b"}}))
	assert.Equal(t, 2, seen)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	s := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.ReplaceTasks(s.Begin(SectionTasks), []model.Task{{ID: "x"}})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				snap := s.Snapshot()
				_ = snap.Ready(SectionTasks)
				_ = len(snap.Tasks)
			}
		}()
	}
	wg.Wait()
	assert.True(t, s.Snapshot().State(SectionTasks).Loaded)
}

func TestParseSection(t *testing.T) {
	sec, err := ParseSection("memberships")
	require.NoError(t, err)
	assert.Equal(t, SectionMemberships, sec)
	_, err = ParseSection("tags")
	assert.Error(t, err)
}
