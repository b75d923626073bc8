package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/volt/internal/domain/model"
)

// ErrIconNotFound indicates the requested icon does not exist.
var ErrIconNotFound = errors.New("icon not found")

// IconStore defines the driven port for icon catalog persistence.
// Delete returns ErrIconNotFound when the icon does not exist.
type IconStore interface {
	Create(ctx context.Context, icon model.Icon) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Icon, error)
	ListAll(ctx context.Context) ([]model.Icon, error)
	Count(ctx context.Context) (int, error)
	IsReferenced(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
	// DeleteUnreferenced removes every icon no group points at, except the
	// ids in keep, and returns how many were removed.
	DeleteUnreferenced(ctx context.Context, keep []int64) (int, error)
}
