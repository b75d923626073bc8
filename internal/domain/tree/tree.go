// Package tree computes descendant sets, move targets and delete plans over
// the group hierarchy. It works on an in-memory arena of groups keyed by id
// with a parent index, and never recurses, so arbitrarily deep or accidentally
// cyclic data cannot exhaust the stack or loop forever.
package tree

import (
	"slices"

	"github.com/ericfisherdev/volt/internal/domain/model"
)

// Forest is an immutable snapshot of every group, indexed by id and by parent.
type Forest struct {
	groups   map[int64]model.Group
	children map[int64][]int64
	roots    []int64
}

// New builds a Forest from a flat list of groups. Groups whose parent is not
// in the list are treated as roots.
func New(groups []model.Group) *Forest {
	f := &Forest{
		groups:   make(map[int64]model.Group, len(groups)),
		children: make(map[int64][]int64),
	}
	for _, g := range groups {
		f.groups[g.ID] = g
	}
	for _, g := range groups {
		if g.ParentID == nil {
			f.roots = append(f.roots, g.ID)
			continue
		}
		if _, ok := f.groups[*g.ParentID]; !ok {
			f.roots = append(f.roots, g.ID)
			continue
		}
		f.children[*g.ParentID] = append(f.children[*g.ParentID], g.ID)
	}
	slices.Sort(f.roots)
	for _, ids := range f.children {
		slices.Sort(ids)
	}
	return f
}

// Len returns the number of groups in the forest.
func (f *Forest) Len() int {
	return len(f.groups)
}

// Get returns the group with the given id.
func (f *Forest) Get(id int64) (model.Group, bool) {
	g, ok := f.groups[id]
	return g, ok
}

// Contains reports whether id names a group in the forest.
func (f *Forest) Contains(id int64) bool {
	_, ok := f.groups[id]
	return ok
}

// Roots returns the ids of root-level groups in ascending order.
func (f *Forest) Roots() []int64 {
	return slices.Clone(f.roots)
}

// Children returns the direct children of id in ascending order.
func (f *Forest) Children(id int64) []int64 {
	return slices.Clone(f.children[id])
}

// Descendants returns every group reachable downward from id, excluding id
// itself, in breadth-first order. The walk visits each group at most once and
// never takes more steps than there are groups.
func (f *Forest) Descendants(id int64) []int64 {
	if !f.Contains(id) {
		return nil
	}

	seen := map[int64]struct{}{id: {}}
	var out []int64
	queue := []int64{id}

	for len(queue) > 0 && len(out) < len(f.groups) {
		current := queue[0]
		queue = queue[1:]

		for _, child := range f.children[current] {
			if _, dup := seen[child]; dup {
				continue
			}
			seen[child] = struct{}{}
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// Scope returns id followed by all of its descendants.
func (f *Forest) Scope(id int64) []int64 {
	if !f.Contains(id) {
		return nil
	}
	return append([]int64{id}, f.Descendants(id)...)
}

// ValidMoveTargets returns every group id that id may be reparented under:
// all groups except id and its descendants, in ascending order. The root
// level is always a valid target and is not listed.
func (f *Forest) ValidMoveTargets(id int64) []int64 {
	forbidden := make(map[int64]struct{})
	forbidden[id] = struct{}{}
	for _, d := range f.Descendants(id) {
		forbidden[d] = struct{}{}
	}

	targets := make([]int64, 0, len(f.groups))
	for gid := range f.groups {
		if _, no := forbidden[gid]; !no {
			targets = append(targets, gid)
		}
	}
	slices.Sort(targets)
	return targets
}

// CheckMove validates reparenting id under newParent (nil for root).
// It returns *model.InvalidMoveError when the move would create a cycle and
// *model.ValidationError when newParent does not exist.
func (f *Forest) CheckMove(id int64, newParent *int64) error {
	if newParent == nil {
		return nil
	}
	if *newParent == id {
		return &model.InvalidMoveError{GroupID: id, TargetID: newParent}
	}
	if !f.Contains(*newParent) {
		return model.NewValidationError("parent_id", "group does not exist")
	}
	if slices.Contains(f.Descendants(id), *newParent) {
		return &model.InvalidMoveError{GroupID: id, TargetID: newParent}
	}
	return nil
}

// DeletePlan returns id and all of its descendants in post-order: every
// child subtree is listed, depth first, before its parent, and id is last.
func (f *Forest) DeletePlan(id int64) []int64 {
	if !f.Contains(id) {
		return nil
	}

	type frame struct {
		id       int64
		expanded bool
	}

	seen := map[int64]struct{}{id: {}}
	plan := make([]int64, 0, len(f.groups))
	stack := []frame{{id: id}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.expanded {
			plan = append(plan, top.id)
			continue
		}

		stack = append(stack, frame{id: top.id, expanded: true})
		kids := f.children[top.id]
		for i := len(kids) - 1; i >= 0; i-- {
			if _, dup := seen[kids[i]]; dup {
				continue
			}
			seen[kids[i]] = struct{}{}
			stack = append(stack, frame{id: kids[i]})
		}
	}
	return plan
}
