package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ericfisherdev/volt/internal/domain/model"
	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.CredentialStore = (*CredentialRepo)(nil)
	_ driven.VaultWiper      = (*CredentialRepo)(nil)
)

const credentialColumns = "id, group_id, title, secure_key"

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// It stores only the metadata half of a credential in password_metadata;
// usernames and passwords never reach this table.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Create inserts a credential record and returns its id.
func (r *CredentialRepo) Create(ctx context.Context, rec model.CredentialRecord) (int64, error) {
	const query = `INSERT INTO password_metadata (group_id, title, secure_key) VALUES (?, ?, ?)`
	res, err := r.db.Writer.ExecContext(ctx, query, rec.GroupID, rec.Title, rec.SecretKey)
	if err != nil {
		return 0, fmt.Errorf("insert credential %q: %w", rec.Title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read credential id: %w", err)
	}
	return id, nil
}

// GetByID returns the record with the given id, or nil, nil if it does not exist.
func (r *CredentialRepo) GetByID(ctx context.Context, id int64) (*model.CredentialRecord, error) {
	const query = `SELECT ` + credentialColumns + ` FROM password_metadata WHERE id = ?`
	rec, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %d: %w", id, err)
	}
	return rec, nil
}

// ListAll returns every record ordered by title ascending.
func (r *CredentialRepo) ListAll(ctx context.Context) ([]model.CredentialRecord, error) {
	return r.list(ctx, sq.Select(credentialColumns).From("password_metadata"))
}

// ListByGroups returns records in any of groupIDs ordered by title ascending.
func (r *CredentialRepo) ListByGroups(ctx context.Context, groupIDs []int64) ([]model.CredentialRecord, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, sq.Select(credentialColumns).
		From("password_metadata").
		Where(sq.Eq{"group_id": groupIDs}))
}

func (r *CredentialRepo) list(ctx context.Context, sel sq.SelectBuilder) ([]model.CredentialRecord, error) {
	query, args, err := sel.OrderBy("title ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build credential list query: %w", err)
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var recs []model.CredentialRecord
	for rows.Next() {
		rec, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return recs, nil
}

// Update sets the title and group of a record. Returns
// driven.ErrCredentialNotFound if no row matched.
func (r *CredentialRepo) Update(ctx context.Context, id int64, title string, groupID *int64) error {
	const query = `UPDATE password_metadata SET title = ?, group_id = ? WHERE id = ?`
	res, err := r.db.Writer.ExecContext(ctx, query, title, groupID, id)
	if err != nil {
		return fmt.Errorf("update credential %d: %w", id, err)
	}
	return expectOneRow(res, fmt.Sprintf("update credential %d", id), driven.ErrCredentialNotFound)
}

// Relocate moves every record in ids into groupID with a single UPDATE and
// returns the number of rows changed.
func (r *CredentialRepo) Relocate(ctx context.Context, ids []int64, groupID *int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sq.Update("password_metadata").
		Set("group_id", groupID).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build relocate query: %w", err)
	}

	res, err := r.db.Writer.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("relocate %d credentials: %w", len(ids), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return n, nil
}

// Delete removes a single record. Returns driven.ErrCredentialNotFound if no
// row matched.
func (r *CredentialRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM password_metadata WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete credential %d: %w", id, err)
	}
	return expectOneRow(res, fmt.Sprintf("delete credential %d", id), driven.ErrCredentialNotFound)
}

// WipeAll truncates credentials, groups and icons, children before parents,
// in one transaction.
func (r *CredentialRepo) WipeAll(ctx context.Context) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	for _, stmt := range []string{
		`DELETE FROM password_metadata`,
		`DELETE FROM "groups"`,
		`DELETE FROM icons`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("wipe vault (%s): %w", stmt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vault wipe: %w", err)
	}
	return nil
}

func scanCredential(s scanner) (*model.CredentialRecord, error) {
	var rec model.CredentialRecord
	var group sql.NullInt64
	if err := s.Scan(&rec.ID, &group, &rec.Title, &rec.SecretKey); err != nil {
		return nil, err
	}
	rec.GroupID = nullableID(group)
	return &rec, nil
}
