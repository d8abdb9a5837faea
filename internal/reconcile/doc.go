// Package reconcile derives consistent views from independently fetched
// users, groups, memberships, tasks and projects.
//
// Effective assignees of a task or project are its direct users plus every
// member of its assigned groups. That set is always recomputed from the
// membership Index and never stored. All functions here are pure: bad input,
// such as a group ID the index does not know, resolves to an empty set.
// Only the conflict checks return errors.
package reconcile
