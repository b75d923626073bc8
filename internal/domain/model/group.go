package model

// Group is a named node in the credential tree. A nil ParentID places the
// group at the root level; a nil IconID means no icon is assigned.
type Group struct {
	ID       int64
	Name     string
	ParentID *int64
	IconID   *int64
}

// IsRoot reports whether the group sits directly under the root.
func (g Group) IsRoot() bool {
	return g.ParentID == nil
}

// GroupView is a Group joined with its icon for listing.
// IconName and IconProvider are empty when no icon is assigned.
type GroupView struct {
	Group
	IconName     string
	IconProvider IconProvider
}
