package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/teamboard/internal/app"
	"github.com/dori/teamboard/internal/config"
	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/reconcile"
)

// testEnv opens every command against be and one shared data directory
func testEnv(t *testing.T, be *fakeBackend) *env {
	t.Helper()
	cfg := &config.Config{
		DataDir:          t.TempDir(),
		LogLevel:         "debug",
		HTTPTimeout:      time.Second,
		BreakerFailures:  1,
		BreakerCooldown:  time.Second,
		FetchConcurrency: 2,
	}
	return &env{open: func(opts app.Options) (*app.App, error) {
		opts.Backend = be
		opts.LogOutput = io.Discard
		return app.New(cfg, opts)
	}}
}

func run(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(e)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func ids(t *testing.T, out string) []string {
	t.Helper()
	var tasks []model.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	var got []string
	for _, task := range tasks {
		got = append(got, task.ID)
	}
	return got
}

func TestTasksFilterByStatusAlias(t *testing.T) {
	e := testEnv(t, newFakeBackend())

	out, err := run(t, e, "tasks", "--json", "--status", "in progress")
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, ids(t, out))
}

func TestTasksForUserIncludeGroupAssignments(t *testing.T) {
	e := testEnv(t, newFakeBackend())

	out, err := run(t, e, "tasks", "--json", "--user", "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"t2", "t4"}, ids(t, out), "board order puts unrecognized statuses last")
}

func TestTasksSortedByStatusThenDeadline(t *testing.T) {
	e := testEnv(t, newFakeBackend())

	out, err := run(t, e, "tasks", "--json")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, ids(t, out))

	out, err = run(t, e, "tasks", "--json", "--from", "2026-10-01", "--to", "2026-10-31")
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, ids(t, out))

	_, err = run(t, e, "tasks", "--progress", "30")
	assert.ErrorContains(t, err, "--progress")

	_, err = run(t, e, "tasks", "--from", "2026-10-31", "--to", "2026-10-01")
	assert.ErrorContains(t, err, "before")
}

func TestTasksTableShowsNames(t *testing.T) {
	e := testEnv(t, newFakeBackend())

	out, err := run(t, e, "tasks")
	require.NoError(t, err)
	assert.Contains(t, out, "Fix login")
	assert.Contains(t, out, "@Ops")
	assert.Contains(t, out, "? blocked")
}

func TestReadsComeFromCache(t *testing.T) {
	be := newFakeBackend()
	e := testEnv(t, be)

	_, err := run(t, e, "sync")
	require.NoError(t, err)
	calls := be.total()

	be.fail["tasks"] = errBoom
	out, err := run(t, e, "--offline", "tasks", "--json")
	require.NoError(t, err)
	assert.Len(t, ids(t, out), 4)

	_, err = run(t, e, "tasks", "--json")
	require.NoError(t, err)
	assert.Equal(t, calls, be.total(), "a warm cache needs no fetch")
}

func TestOfflineWithoutCache(t *testing.T) {
	e := testEnv(t, newFakeBackend())

	_, err := run(t, e, "--offline", "tasks")
	assert.ErrorContains(t, err, "run without --offline")

	_, err = run(t, e, "--offline", "sync")
	assert.ErrorContains(t, err, "drop --offline")

	_, err = run(t, e, "--offline", "assign", "task", "t1", "--user", "u2")
	assert.ErrorContains(t, err, "drop --offline")
}

func TestSyncReportsFailedSection(t *testing.T) {
	be := newFakeBackend()
	be.fail["projects"] = errBoom
	e := testEnv(t, be)

	out, err := run(t, e, "sync")
	assert.ErrorContains(t, err, "projects: ")
	assert.Contains(t, out, "failed:")
	assert.Contains(t, out, "memberships")
}

func TestAssignConflictNamesUsers(t *testing.T) {
	be := newFakeBackend()
	e := testEnv(t, be)

	// Bob holds t4 directly and is a member of Ops
	_, err := run(t, e, "assign", "task", "t4", "--group", "g1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bob")
	assert.Contains(t, err.Error(), "Ops")
	assert.Zero(t, be.count("assign"))

	// Ops holds t2, so Bob cannot be added directly
	_, err = run(t, e, "assign", "task", "t2", "--user", "u2")
	assert.ErrorContains(t, err, "through group Ops")
	assert.Zero(t, be.count("assign"))
}

func TestAssignAndUnassign(t *testing.T) {
	be := newFakeBackend()
	e := testEnv(t, be)

	out, err := run(t, e, "assign", "task", "t1", "--user", "u2")
	require.NoError(t, err)
	assert.Equal(t, "Bob assigned to task t1\n", out)
	assert.Equal(t, 1, be.count("assign"))

	out, err = run(t, e, "unassign", "project", "p1", "--user", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ann removed from project p1\n", out)
	assert.Equal(t, 1, be.count("unassign"))
}

func TestAssignArguments(t *testing.T) {
	e := testEnv(t, newFakeBackend())

	_, err := run(t, e, "assign", "task", "t1")
	assert.Error(t, err)

	_, err = run(t, e, "assign", "task", "t1", "--user", "u1", "--group", "g1")
	assert.Error(t, err)

	_, err = run(t, e, "assign", "board", "t1", "--user", "u1")
	assert.ErrorContains(t, err, "unknown kind")
}

func TestTaskCreateUpdateDelete(t *testing.T) {
	be := newFakeBackend()
	e := testEnv(t, be)

	_, err := run(t, e, "task", "create", "--title", "Plan", "--user", "u1")
	assert.ErrorContains(t, err, "deadline is required")
	assert.Zero(t, be.count("create task"))

	out, err := run(t, e, "task", "create", "--title", "Plan", "--deadline", "2026-11-20", "--priority", "haute", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "created task t9")

	_, err = run(t, e, "task", "update", "t1")
	assert.ErrorContains(t, err, "nothing to update")

	out, err = run(t, e, "task", "update", "t1", "--status", "done", "--progress", "100")
	require.NoError(t, err)
	assert.Contains(t, out, `updated task t1 "Ship release"`)

	out, err = run(t, e, "task", "update", "t1", "--title", "Renamed")
	require.NoError(t, err)
	assert.Contains(t, out, `updated task t1 "Renamed"`)

	_, err = run(t, e, "task", "delete", "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, be.count("delete task"))
}

func TestProjectCreateChecksDates(t *testing.T) {
	be := newFakeBackend()
	e := testEnv(t, be)

	_, err := run(t, e, "project", "create", "--title", "App", "--start", "2026-05-01", "--end", "2026-04-01")
	assert.ErrorContains(t, err, "end_date")
	assert.Zero(t, be.count("create project"))

	out, err := run(t, e, "project", "create", "--title", "App", "--group", "g1")
	require.NoError(t, err)
	assert.Contains(t, out, "created project p9")
}

func TestWorkloadJSON(t *testing.T) {
	e := testEnv(t, newFakeBackend())

	out, err := run(t, e, "workload", "--json")
	require.NoError(t, err)
	var rows []reconcile.UserWorkload
	require.NoError(t, json.Unmarshal([]byte(out), &rows))

	totals := map[string]int{}
	for _, w := range rows {
		totals[w.UserID] = w.Total
	}
	assert.Equal(t, map[string]int{"u1": 2, "u2": 2}, totals)

	out, err = run(t, e, "workload", "--groups")
	require.NoError(t, err)
	assert.Contains(t, out, "Ops")
}

func TestStatsJSON(t *testing.T) {
	e := testEnv(t, newFakeBackend())

	out, err := run(t, e, "stats", "--json", "--by", "month", "--n", "3")
	require.NoError(t, err)
	var rep statsReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "tasks", rep.Items)
	assert.Equal(t, 4, rep.Total)
	assert.Equal(t, []string{"blocked"}, rep.Unrecognized)
	assert.InDelta(t, 0.25, rep.Completion, 0.001)
	assert.Len(t, rep.Series, 3)

	_, err = run(t, e, "stats", "--field", "someday")
	assert.ErrorContains(t, err, "unknown date field")

	_, err = run(t, e, "stats", "--by", "week")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, testEnv(t, newFakeBackend()), "version")
	require.NoError(t, err)
	assert.Equal(t, "teamboard v"+version+"\n", out)
}
