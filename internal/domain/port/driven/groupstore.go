package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/volt/internal/domain/model"
)

// ErrGroupNotFound indicates the requested group does not exist.
var ErrGroupNotFound = errors.New("group not found")

// GroupStore defines the driven port for group persistence. The store keeps
// the tree as parent references; acyclicity is enforced by the caller.
// GetByID returns (nil, nil) when the group does not exist.
// Update and Delete return ErrGroupNotFound when no row matched.
type GroupStore interface {
	Create(ctx context.Context, group model.Group) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Group, error)
	ListAll(ctx context.Context) ([]model.Group, error)
	// ListChildren returns the direct children of parentID (nil for root)
	// joined with their icon, ordered by name.
	ListChildren(ctx context.Context, parentID *int64) ([]model.GroupView, error)
	Update(ctx context.Context, id int64, name string, parentID *int64) error
	Delete(ctx context.Context, id int64) error
}
