package reconcile

import (
	"sort"

	"github.com/dori/teamboard/internal/model"
)

// Index maps groups to their members and users to their groups.
// It is rebuilt from scratch whenever memberships are refetched.
type Index struct {
	members map[string]IDSet // group -> users
	groups  map[string]IDSet // user -> groups
}

// NewIndex builds an index from memberships
func NewIndex(memberships []model.Membership) *Index {
	idx := &Index{}
	idx.Rebuild(memberships)
	return idx
}

// Rebuild clears and repopulates both mappings
func (idx *Index) Rebuild(memberships []model.Membership) {
	idx.members = make(map[string]IDSet)
	idx.groups = make(map[string]IDSet)
	for _, m := range memberships {
		if m.GroupID == "" || m.UserID == "" {
			continue
		}
		if idx.members[m.GroupID] == nil {
			idx.members[m.GroupID] = make(IDSet)
		}
		idx.members[m.GroupID].Add(m.UserID)
		if idx.groups[m.UserID] == nil {
			idx.groups[m.UserID] = make(IDSet)
		}
		idx.groups[m.UserID].Add(m.GroupID)
	}
}

// GroupMembers returns a copy of the member set of a group
func (idx *Index) GroupMembers(groupID string) IDSet {
	if idx == nil {
		return IDSet{}
	}
	return idx.members[groupID].Union(nil)
}

// UserGroups returns a copy of the set of groups a user belongs to
func (idx *Index) UserGroups(userID string) IDSet {
	if idx == nil {
		return IDSet{}
	}
	return idx.groups[userID].Union(nil)
}

// IsMember reports whether userID belongs to groupID
func (idx *Index) IsMember(groupID, userID string) bool {
	if idx == nil {
		return false
	}
	return idx.members[groupID].Has(userID)
}

// MemberCount returns the number of members of a group
func (idx *Index) MemberCount(groupID string) int {
	if idx == nil {
		return 0
	}
	return len(idx.members[groupID])
}

// Groups returns the IDs of all groups with at least one member
func (idx *Index) Groups() []string {
	if idx == nil {
		return nil
	}
	out := make([]string, 0, len(idx.members))
	for g := range idx.members {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}
