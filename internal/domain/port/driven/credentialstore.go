package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/volt/internal/domain/model"
)

// ErrCredentialNotFound indicates the requested credential record does not exist.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore defines the driven port for the metadata half of stored
// credentials. It never sees usernames or passwords.
// GetByID returns (nil, nil) when the record does not exist.
// Update and Delete return ErrCredentialNotFound when no row matched.
type CredentialStore interface {
	Create(ctx context.Context, rec model.CredentialRecord) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.CredentialRecord, error)
	// ListAll returns every record ordered by title.
	ListAll(ctx context.Context) ([]model.CredentialRecord, error)
	// ListByGroups returns records whose group is one of groupIDs, ordered by title.
	ListByGroups(ctx context.Context, groupIDs []int64) ([]model.CredentialRecord, error)
	Update(ctx context.Context, id int64, title string, groupID *int64) error
	// Relocate moves every listed record into groupID (nil for root) in one statement.
	Relocate(ctx context.Context, ids []int64, groupID *int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// VaultWiper truncates all metadata tables in dependency order.
type VaultWiper interface {
	WipeAll(ctx context.Context) error
}
