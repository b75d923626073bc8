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

// Compile-time interface satisfaction check.
var _ driven.IconStore = (*IconRepo)(nil)

// IconRepo is the SQLite implementation of the IconStore port interface.
type IconRepo struct {
	db *DB
}

// NewIconRepo creates a new IconRepo backed by the given DB.
func NewIconRepo(db *DB) *IconRepo {
	return &IconRepo{db: db}
}

// Create inserts an icon and returns its id.
func (r *IconRepo) Create(ctx context.Context, icon model.Icon) (int64, error) {
	const query = `INSERT INTO icons (name, provider) VALUES (?, ?)`
	res, err := r.db.Writer.ExecContext(ctx, query, icon.Name, string(icon.Provider))
	if err != nil {
		return 0, fmt.Errorf("insert icon %q: %w", icon.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read icon id: %w", err)
	}
	return id, nil
}

// GetByID returns the icon with the given id, or nil, nil if it does not exist.
func (r *IconRepo) GetByID(ctx context.Context, id int64) (*model.Icon, error) {
	const query = `SELECT id, name, provider FROM icons WHERE id = ?`
	icon, err := scanIcon(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get icon %d: %w", id, err)
	}
	return icon, nil
}

// ListAll returns every icon ordered by name.
func (r *IconRepo) ListAll(ctx context.Context) ([]model.Icon, error) {
	const query = `SELECT id, name, provider FROM icons ORDER BY name, id`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list icons: %w", err)
	}
	defer rows.Close()

	var icons []model.Icon
	for rows.Next() {
		icon, err := scanIcon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan icon: %w", err)
		}
		icons = append(icons, *icon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate icons: %w", err)
	}
	return icons, nil
}

// Count returns the number of icons in the catalog.
func (r *IconRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM icons`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count icons: %w", err)
	}
	return n, nil
}

// IsReferenced reports whether any group points at the icon.
func (r *IconRepo) IsReferenced(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT COUNT(*) FROM "groups" WHERE icons_id = ?`
	var n int
	if err := r.db.Reader.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return false, fmt.Errorf("check icon %d references: %w", id, err)
	}
	return n > 0, nil
}

// Delete removes an icon. Returns driven.ErrIconNotFound if it does not exist
// and model.ErrIconInUse if a group still references it.
func (r *IconRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM icons WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete icon %d: %w", id, model.ErrIconInUse)
		}
		return fmt.Errorf("delete icon %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete icon %d: %w", id, driven.ErrIconNotFound)
	}
	return nil
}

// DeleteUnreferenced removes icons that no group points at, sparing keep.
func (r *IconRepo) DeleteUnreferenced(ctx context.Context, keep []int64) (int, error) {
	del := sq.Delete("icons").
		Where(`id NOT IN (SELECT icons_id FROM "groups" WHERE icons_id IS NOT NULL)`)
	if len(keep) > 0 {
		del = del.Where(sq.NotEq{"id": keep})
	}

	query, args, err := del.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build prune query: %w", err)
	}

	res, err := r.db.Writer.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune icons: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return int(n), nil
}

func scanIcon(s scanner) (*model.Icon, error) {
	var icon model.Icon
	var provider string
	if err := s.Scan(&icon.ID, &icon.Name, &provider); err != nil {
		return nil, err
	}
	icon.Provider = model.IconProvider(provider)
	return &icon, nil
}
