package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/teamboard/internal/eventbus"
	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/notify"
	"github.com/dori/teamboard/internal/service"
	"github.com/dori/teamboard/internal/store"
	"github.com/dori/teamboard/internal/ui/views"
)

type fakeLoader struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeLoader) Load(context.Context, ...store.Section) service.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return service.Report{Loaded: store.AllSections}
}

type fakeMutator struct {
	task, project string
	status        string
}

func (f *fakeMutator) UpdateTask(_ context.Context, id string, u service.TaskUpdate) (model.Task, error) {
	f.task, f.status = id, *u.Status
	return model.Task{ID: id}, nil
}

func (f *fakeMutator) UpdateProject(_ context.Context, id string, u service.ProjectUpdate) (model.Project, error) {
	f.project, f.status = id, *u.Status
	return model.Project{ID: id}, nil
}

type harness struct {
	m        RootModel
	store    *store.Store
	notifier *notify.Notifier
	loader   *fakeLoader
	mutator  *fakeMutator
}

func newHarness(t *testing.T, offline bool) *harness {
	t.Helper()
	bus := eventbus.New(nil)
	n := notify.NewNotifier(nil)
	n.SetEnabled(false)
	h := &harness{
		store:    store.New(bus),
		notifier: n,
		loader:   &fakeLoader{},
		mutator:  &fakeMutator{},
	}
	h.m = newRootModel(deps{
		store:    h.store,
		bus:      bus,
		notifier: n,
		loader:   h.loader,
		mutator:  h.mutator,
		offline:  offline,
	}, Options{Theme: "nord"})
	h.send(tea.WindowSizeMsg{Width: 140, Height: 40})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(RootModel)
	return cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewSwitching(t *testing.T) {
	h := newHarness(t, false)
	assert.Equal(t, ViewWorkload, h.m.currentView)

	h.send(keyRunes("2"))
	assert.Equal(t, ViewKanban, h.m.currentView)
	h.send(keyRunes("3"))
	assert.Equal(t, ViewCalendar, h.m.currentView)
	h.send(keyRunes("4"))
	assert.Equal(t, ViewStats, h.m.currentView)
	assert.Contains(t, h.m.View(), "[Stats]")
}

func TestDigitsGoToSearchInputOnKanban(t *testing.T) {
	h := newHarness(t, false)
	h.send(keyRunes("2"))
	h.send(keyRunes("/"))
	require.True(t, h.m.isInputMode())

	h.send(keyRunes("4"))
	assert.Equal(t, ViewKanban, h.m.currentView)

	h.send(keyRunes("q"))
	assert.True(t, h.m.isInputMode(), "q is text while searching")
}

func TestQuit(t *testing.T) {
	h := newHarness(t, false)
	cmd := h.send(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRefreshRunsOnce(t *testing.T) {
	h := newHarness(t, false)

	cmd := h.send(keyRunes("r"))
	require.NotNil(t, cmd)
	assert.True(t, h.m.refreshing)
	assert.Nil(t, h.send(keyRunes("r")), "second refresh waits for the first")
	assert.Nil(t, h.send(tea.FocusMsg{}))

	done, ok := cmd().(RefreshDoneMsg)
	require.True(t, ok)
	assert.Equal(t, 1, h.loader.calls)

	h.send(done)
	assert.False(t, h.m.refreshing)
	assert.Equal(t, "Refreshed 5 sections", h.m.statusMsg)

	assert.NotNil(t, h.send(tea.FocusMsg{}), "focus regain refetches")
}

func TestOfflineDoesNotRefresh(t *testing.T) {
	h := newHarness(t, true)
	assert.Nil(t, h.send(keyRunes("r")))
	assert.Equal(t, 0, h.loader.calls)
	assert.Contains(t, h.m.statusMsg, "Offline")
	assert.Contains(t, h.m.View(), "offline")
}

func TestStoreWritesReachTheViews(t *testing.T) {
	h := newHarness(t, false)
	assert.Contains(t, h.m.View(), "waiting for")

	s := h.store
	require.NoError(t, s.ReplaceUsers(s.Begin(store.SectionUsers), []model.User{{ID: "u1", Name: "Ann"}}))
	require.NoError(t, s.ReplaceGroups(s.Begin(store.SectionGroups), nil))
	require.NoError(t, s.ReplaceMemberships(s.Begin(store.SectionMemberships), nil))
	require.NoError(t, s.ReplaceTasks(s.Begin(store.SectionTasks), []model.Task{
		{ID: "t1", Title: "Write report", Status: "to do", DirectUserIDs: []string{"u1"}},
	}))

	msg := waitForEvent(h.m.events)()
	require.IsType(t, DataUpdatedMsg{}, msg)
	assert.NotNil(t, h.send(msg), "keeps listening")

	out := h.m.View()
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "Write report")
}

func TestFetchFailureShowsInFooter(t *testing.T) {
	h := newHarness(t, false)
	h.send(FetchFailedMsg{Section: "tasks"})
	assert.Contains(t, h.m.View(), "Could not refresh tasks")
}

func TestToastsExpire(t *testing.T) {
	h := newHarness(t, false)
	h.notifier.Success("Task updated", "Write report")

	msg := waitForEvent(h.m.events)()
	require.IsType(t, ToastMsg{}, msg)
	h.send(msg)
	require.NotNil(t, h.m.toast)
	assert.Contains(t, h.m.View(), "✓ Task updated: Write report")

	h.send(ToastMsg{Toast: notify.Toast{Title: "Delete failed", Failure: true, At: time.Now()}})
	h.send(toastExpiredMsg{seq: 1})
	require.NotNil(t, h.m.toast, "an older timer does not clear a newer toast")
	assert.Equal(t, "Delete failed", h.m.toast.Title)

	h.send(toastExpiredMsg{seq: 2})
	assert.Nil(t, h.m.toast)
}

func TestMoveRequestUpdatesStatus(t *testing.T) {
	h := newHarness(t, false)

	cmd := h.send(views.MoveRequestMsg{Kind: model.EntityTask, ID: "t1", Title: "Write report", Status: model.StatusDone})
	require.NotNil(t, cmd)
	done, ok := cmd().(MutationDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.Equal(t, "t1", h.mutator.task)
	assert.Equal(t, "done", h.mutator.status)

	cmd = h.send(views.MoveRequestMsg{Kind: model.EntityProject, ID: "p1", Title: "Migration", Status: model.StatusInProgress})
	cmd()
	assert.Equal(t, "p1", h.mutator.project)
	assert.Equal(t, "in progress", h.mutator.status)

	h.send(done)
	assert.Equal(t, "Write report → Done", h.m.statusMsg)
}

func TestHelpToggle(t *testing.T) {
	h := newHarness(t, false)
	h.send(keyRunes("?"))
	assert.True(t, h.m.helpVisible)
	assert.Contains(t, h.m.View(), "Teamboard Help")

	h.send(keyRunes("2"))
	assert.Equal(t, ViewWorkload, h.m.currentView, "view keys are ignored while help is open")

	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, h.m.helpVisible)
}

func TestParseView(t *testing.T) {
	v, ok := ParseView(" kanban ")
	assert.True(t, ok)
	assert.Equal(t, ViewKanban, v)

	_, ok = ParseView("eisenhower")
	assert.False(t, ok)
}
