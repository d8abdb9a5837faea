package reconcile

// Assignable is anything users and groups can be assigned to
type Assignable interface {
	DirectUsers() []string
	AssignedGroups() []string
}

// Resolution partitions the assignees of one task or project.
// DirectOnly and ViaGroupOnly never overlap.
type Resolution struct {
	Effective    IDSet
	DirectOnly   IDSet
	ViaGroupOnly IDSet
}

// Resolve computes the effective, direct and via-group assignee sets
func Resolve(a Assignable, idx *Index) Resolution {
	direct := NewIDSet(a.DirectUsers()...)
	via := ViaGroups(a.AssignedGroups(), idx)
	return Resolution{
		Effective:    direct.Union(via),
		DirectOnly:   direct,
		ViaGroupOnly: via.Minus(direct),
	}
}

// ViaGroups returns every member of the given groups
func ViaGroups(groupIDs []string, idx *Index) IDSet {
	out := make(IDSet)
	for _, g := range groupIDs {
		for u := range idx.GroupMembers(g) {
			out[u] = struct{}{}
		}
	}
	return out
}

// IsEffectiveAssignee reports whether userID is assigned directly or via a group
func IsEffectiveAssignee(a Assignable, userID string, idx *Index) bool {
	for _, u := range a.DirectUsers() {
		if u == userID {
			return true
		}
	}
	for _, g := range a.AssignedGroups() {
		if idx.IsMember(g, userID) {
			return true
		}
	}
	return false
}
