package reconcile

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/teamboard/internal/model"
)

func memberships(pairs ...string) []model.Membership {
	var out []model.Membership
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.Membership{GroupID: pairs[i], UserID: pairs[i+1]})
	}
	return out
}

func task(id, status string, users, groups []string) model.Task {
	return model.Task{ID: id, Title: "Task " + id, Status: status, DirectUserIDs: users, GroupIDs: groups}
}

func TestIndexRebuild(t *testing.T) {
	idx := NewIndex(memberships("g1", "u1", "g1", "u2", "g2", "u2", "g2", "u2"))

	assert.Equal(t, []string{"u1", "u2"}, idx.GroupMembers("g1").Sorted())
	assert.Equal(t, []string{"g1", "g2"}, idx.UserGroups("u2").Sorted())
	assert.Equal(t, 1, idx.MemberCount("g2"))
	assert.Equal(t, 0, idx.MemberCount("missing"))
	assert.Empty(t, idx.GroupMembers("missing"))

	idx.Rebuild(memberships("g3", "u9"))
	assert.Empty(t, idx.GroupMembers("g1"))
	assert.Equal(t, []string{"g3"}, idx.Groups())
}

func TestIndexCopiesAreIndependent(t *testing.T) {
	idx := NewIndex(memberships("g1", "u1"))
	members := idx.GroupMembers("g1")
	members.Add("intruder")
	assert.False(t, idx.IsMember("g1", "intruder"))
}

func TestNilIndexIsEmpty(t *testing.T) {
	var idx *Index
	assert.Empty(t, idx.GroupMembers("g1"))
	assert.Empty(t, idx.UserGroups("u1"))
	assert.False(t, idx.IsMember("g1", "u1"))
	res := Resolve(task("t", "", []string{"u1"}, []string{"g1"}), idx)
	assert.Equal(t, []string{"u1"}, res.Effective.Sorted())
}

func TestResolveViaGroupOnly(t *testing.T) {
	idx := NewIndex(memberships("G2", "U2", "G2", "U3"))
	t2 := task("T2", "to do", nil, []string{"G2"})

	res := Resolve(t2, idx)
	assert.Equal(t, []string{"U2", "U3"}, res.Effective.Sorted())
	assert.Empty(t, res.DirectOnly)
	assert.Equal(t, []string{"U2", "U3"}, res.ViaGroupOnly.Sorted())
}

func TestResolvePartitionsNeverOverlap(t *testing.T) {
	idx := NewIndex(memberships("g1", "u1", "g1", "u2", "g2", "u3", "g2", "u1"))
	cases := []model.Task{
		task("a", "", []string{"u1"}, []string{"g1"}),
		task("b", "", []string{"u4"}, []string{"g1", "g2"}),
		task("c", "", nil, nil),
		task("d", "", []string{"u1", "u2", "u3"}, []string{"g2", "unknown"}),
	}
	for _, tk := range cases {
		res := Resolve(tk, idx)
		assert.Empty(t, res.DirectOnly.Intersect(res.ViaGroupOnly), tk.ID)

		want := NewIDSet(tk.DirectUserIDs...).Union(ViaGroups(tk.GroupIDs, idx))
		assert.True(t, want.Equal(res.Effective), tk.ID)
		assert.True(t, res.DirectOnly.Union(res.ViaGroupOnly).Equal(res.Effective), tk.ID)
	}
}

func TestCanAssignGroupConflict(t *testing.T) {
	idx := NewIndex(memberships("G1", "U1"))

	err := CanAssignGroup("G1", []string{"U1"}, idx)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, model.TargetGroup, conflict.Target)
	assert.Equal(t, []string{"U1"}, conflict.ConflictingUserIDs)

	assert.NoError(t, CanAssignGroup("G1", []string{"U2"}, idx))
	assert.NoError(t, CanAssignGroup("unknown", []string{"U1"}, idx))
}

func TestCanAssignUserConflict(t *testing.T) {
	idx := NewIndex(memberships("G1", "U1", "G2", "U1", "G3", "U2"))

	err := CanAssignUser("U1", []string{"G1", "G2", "G3"}, idx)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"G1", "G2"}, conflict.ConflictingGroupIDs)

	assert.NoError(t, CanAssignUser("U3", []string{"G1", "G2", "G3"}, idx))
	assert.NoError(t, CanAssignUser("U1", nil, idx))
}

func TestConflictSymmetry(t *testing.T) {
	idx := NewIndex(memberships("g", "u1", "g", "u2", "g", "u3", "h", "u2"))
	direct := []string{"u1", "u2", "u9"}
	current := []string{"h"}

	err := CanAssignGroup("g", direct, idx)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, []string{"u1", "u2"}, conflict.ConflictingUserIDs)

	for _, s := range conflict.ConflictingUserIDs {
		err := CanAssignUser(s, append(current, "g"), idx)
		var userConflict *ConflictError
		require.True(t, errors.As(err, &userConflict), s)
		assert.Contains(t, userConflict.ConflictingGroupIDs, "g")
	}
}

type namer map[string]string

func (n namer) UserName(id string) string  { return n[id] }
func (n namer) GroupName(id string) string { return n[id] }

func TestConflictDescribe(t *testing.T) {
	idx := NewIndex(memberships("g1", "u1", "g1", "u2"))
	names := namer{"u1": "ada@example.com", "g1": "Design"}

	err := CanAssignGroup("g1", []string{"u1", "u2"}, idx).(*ConflictError)
	assert.Equal(t, "cannot assign group Design: already directly assigned: ada@example.com, u2", err.Describe(names))

	err = CanAssignUser("u1", []string{"g1"}, idx).(*ConflictError)
	assert.Equal(t, "cannot assign ada@example.com: already assigned through group Design", err.Describe(names))
	assert.Equal(t, "cannot assign u1: already assigned through group g1", err.Error())
}

func TestCheckAssignment(t *testing.T) {
	idx := NewIndex(memberships("g1", "u1"))
	tk := task("t", "", []string{"u1"}, nil)

	assert.Error(t, CheckAssignment(tk, model.TargetGroup, "g1", idx))
	assert.NoError(t, CheckAssignment(tk, model.TargetUser, "u2", idx))
	assert.Error(t, CheckAssignment(tk, model.TargetKind("robot"), "x", idx))
}

func TestPerUserWorkload(t *testing.T) {
	idx := NewIndex(memberships("g1", "u1", "g1", "u2"))
	users := []model.User{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}}
	tasks := []model.Task{
		task("t1", "done", []string{"u1"}, nil),
		task("t2", "in progress", nil, []string{"g1"}),
		// reachable both ways: counts once in Total
		task("t3", "terminé", []string{"u1"}, []string{"g1"}),
		task("t4", "to do", []string{"u3"}, nil),
	}

	got := PerUserWorkload(users, tasks, idx)
	require.Len(t, got, 3)
	assert.Equal(t, UserWorkload{UserID: "u1", Direct: 2, ViaGroup: 2, Total: 3, Completed: 2, Pending: 1}, got[0])
	assert.Equal(t, UserWorkload{UserID: "u2", Direct: 0, ViaGroup: 2, Total: 2, Completed: 1, Pending: 1}, got[1])
	assert.Equal(t, UserWorkload{UserID: "u3", Direct: 1, ViaGroup: 0, Total: 1, Completed: 0, Pending: 1}, got[2])

	for _, w := range got {
		effective := 0
		for _, tk := range tasks {
			if Resolve(tk, idx).Effective.Has(w.UserID) {
				effective++
			}
		}
		assert.Equal(t, effective, w.Total, w.UserID)
	}
}

func TestPerGroupWorkloadCountsDirectPerMember(t *testing.T) {
	idx := NewIndex(memberships("g1", "u1", "g1", "u2"))
	groups := []model.Group{{ID: "g1"}, {ID: "g2"}}
	tasks := []model.Task{
		task("t1", "done", []string{"u9"}, []string{"g1"}),
		task("t2", "to do", nil, []string{"g1"}),
		task("t3", "done", []string{"u1"}, []string{"g1"}),
		task("t4", "done", []string{"u2"}, nil),
	}

	got := PerGroupWorkload(groups, tasks, idx)
	require.Len(t, got, 2)
	assert.Equal(t, "g1", got[0].GroupID)
	assert.Equal(t, 2, got[0].Members)
	assert.Equal(t, 3, got[0].Total)
	assert.Equal(t, 2, got[0].Completed)
	assert.Equal(t, []UserCount{{UserID: "u1", Count: 1}, {UserID: "u2", Count: 0}}, got[0].PerUser)

	assert.Equal(t, GroupWorkload{GroupID: "g2", PerUser: []UserCount{}}, got[1])
}

func TestStatusDistributionMixedSpellings(t *testing.T) {
	var tasks []model.Task
	for i, s := range []string{"done", "terminé", "Done", "termine", "completed", "DONE"} {
		tasks = append(tasks, task(string(rune('a'+i)), s, nil, nil))
	}
	for i := 0; i < 4; i++ {
		tasks = append(tasks, task(string(rune('k'+i)), "to do", nil, nil))
	}

	got := StatusDistribution(tasks)
	assert.Equal(t, []StatusCount{{model.StatusDone, 6}, {model.StatusToDo, 4}}, got)
}

func TestStatusDistributionUnknownBucket(t *testing.T) {
	tasks := []model.Task{
		task("a", "blocked", nil, nil),
		task("b", "pending", nil, nil),
		task("c", "on hold", nil, nil),
	}
	got := StatusDistribution(tasks)
	assert.Equal(t, []StatusCount{{model.StatusUnknown, 2}, {model.StatusToDo, 1}}, got)
	assert.Equal(t, []string{"blocked", "on hold"}, UnrecognizedStatuses(tasks))
}

func TestAggregatesAreIdempotent(t *testing.T) {
	idx := NewIndex(memberships("g1", "u1", "g2", "u2"))
	users := []model.User{{ID: "u1"}, {ID: "u2"}}
	groups := []model.Group{{ID: "g1"}, {ID: "g2"}}
	tasks := []model.Task{
		task("t1", "done", []string{"u2"}, []string{"g1"}),
		task("t2", "en cours", nil, []string{"g2"}),
		task("t3", "overdue", []string{"u1"}, nil),
	}

	assert.Equal(t, PerUserWorkload(users, tasks, idx), PerUserWorkload(users, tasks, idx))
	assert.Equal(t, PerGroupWorkload(groups, tasks, idx), PerGroupWorkload(groups, tasks, idx))
	assert.Equal(t, StatusDistribution(tasks), StatusDistribution(tasks))
}

func TestEmptyInputs(t *testing.T) {
	idx := NewIndex(nil)
	assert.Empty(t, PerUserWorkload[model.Task](nil, nil, idx))
	assert.Empty(t, PerGroupWorkload[model.Task](nil, nil, idx))
	assert.Empty(t, StatusDistribution[model.Task](nil))
	assert.Empty(t, UnrecognizedStatuses[model.Task](nil))
	assert.Empty(t, Apply[model.Task](nil, Criteria{Search: "x"}))
	assert.Empty(t, SortByStatusThenDeadline[model.Task](nil))
	assert.Empty(t, AssignedTo[model.Task](nil, "u1", idx))
	assert.Zero(t, CompletionRate[model.Task](nil))
	assert.Empty(t, TimeSeries[model.Task](nil, model.DateCreated, ByDay, time.Now(), 0))

	users := []model.User{{ID: "u1"}}
	assert.Equal(t, []UserWorkload{{UserID: "u1"}}, PerUserWorkload[model.Task](users, nil, idx))
}

func TestCompletionRate(t *testing.T) {
	tasks := []model.Task{
		task("a", "done", nil, nil),
		task("b", "fini", nil, nil),
		task("c", "to do", nil, nil),
		task("d", "overdue", nil, nil),
	}
	assert.InDelta(t, 0.5, CompletionRate(tasks), 1e-9)
}
