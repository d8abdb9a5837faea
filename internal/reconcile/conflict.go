package reconcile

import (
	"fmt"
	"strings"

	"github.com/dori/teamboard/internal/model"
)

// ConflictError rejects an assignment that would make a user both a direct
// and a group-transitive assignee of the same task or project.
type ConflictError struct {
	// Target is what the caller tried to assign.
	Target   model.TargetKind
	TargetID string

	// ConflictingUserIDs is set when a group was proposed: its members that
	// are already direct assignees.
	ConflictingUserIDs []string

	// ConflictingGroupIDs is set when a user was proposed: assigned groups
	// that already contain the user.
	ConflictingGroupIDs []string
}

// Namer resolves identifiers to display names
type Namer interface {
	UserName(id string) string
	GroupName(id string) string
}

func (e *ConflictError) Error() string {
	return e.Describe(nil)
}

// Describe renders a message naming the colliding users or groups.
// A nil Namer falls back to identifiers.
func (e *ConflictError) Describe(n Namer) string {
	user := func(id string) string {
		if n != nil {
			if name := n.UserName(id); name != "" {
				return name
			}
		}
		return id
	}
	group := func(id string) string {
		if n != nil {
			if name := n.GroupName(id); name != "" {
				return name
			}
		}
		return id
	}

	if e.Target == model.TargetGroup {
		names := make([]string, len(e.ConflictingUserIDs))
		for i, id := range e.ConflictingUserIDs {
			names[i] = user(id)
		}
		return fmt.Sprintf("cannot assign group %s: already directly assigned: %s",
			group(e.TargetID), strings.Join(names, ", "))
	}

	names := make([]string, len(e.ConflictingGroupIDs))
	for i, id := range e.ConflictingGroupIDs {
		names[i] = group(id)
	}
	return fmt.Sprintf("cannot assign %s: already assigned through group %s",
		user(e.TargetID), strings.Join(names, ", "))
}

// CanAssignGroup checks a proposed group against the current direct assignees
func CanAssignGroup(groupID string, currentDirectUserIDs []string, idx *Index) error {
	overlap := idx.GroupMembers(groupID).Intersect(NewIDSet(currentDirectUserIDs...))
	if overlap.Len() == 0 {
		return nil
	}
	return &ConflictError{
		Target:             model.TargetGroup,
		TargetID:           groupID,
		ConflictingUserIDs: overlap.Sorted(),
	}
}

// CanAssignUser checks a proposed user against the currently assigned groups
func CanAssignUser(userID string, currentGroupIDs []string, idx *Index) error {
	conflicting := make(IDSet)
	for _, g := range currentGroupIDs {
		if idx.IsMember(g, userID) {
			conflicting.Add(g)
		}
	}
	if conflicting.Len() == 0 {
		return nil
	}
	return &ConflictError{
		Target:              model.TargetUser,
		TargetID:            userID,
		ConflictingGroupIDs: conflicting.Sorted(),
	}
}

// CheckAssignment runs the check matching target against a's current assignees
func CheckAssignment(a Assignable, target model.TargetKind, targetID string, idx *Index) error {
	switch target {
	case model.TargetGroup:
		return CanAssignGroup(targetID, a.DirectUsers(), idx)
	case model.TargetUser:
		return CanAssignUser(targetID, a.AssignedGroups(), idx)
	default:
		return fmt.Errorf("unknown assignment target %q", target)
	}
}
