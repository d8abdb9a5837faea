package model

// EntityKind names what an assignment is attached to
type EntityKind string

const (
	EntityTask    EntityKind = "task"
	EntityProject EntityKind = "project"
)

// TargetKind names who an assignment points at
type TargetKind string

const (
	TargetUser  TargetKind = "user"
	TargetGroup TargetKind = "group"
)

// Edge is a directly recorded assignment. It never includes users that are
// only reachable through an assigned group.
type Edge struct {
	EntityKind EntityKind `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	TargetKind TargetKind `json:"target_type"`
	TargetID   string     `json:"target_id"`
}

func edgesFor(kind EntityKind, id string, userIDs, groupIDs []string) []Edge {
	edges := make([]Edge, 0, len(userIDs)+len(groupIDs))
	for _, u := range userIDs {
		edges = append(edges, Edge{EntityKind: kind, EntityID: id, TargetKind: TargetUser, TargetID: u})
	}
	for _, g := range groupIDs {
		edges = append(edges, Edge{EntityKind: kind, EntityID: id, TargetKind: TargetGroup, TargetID: g})
	}
	return edges
}
