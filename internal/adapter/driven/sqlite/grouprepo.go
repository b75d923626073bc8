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
var _ driven.GroupStore = (*GroupRepo)(nil)

// GroupRepo is the SQLite implementation of the GroupStore port interface.
// The table is named "groups" and is quoted everywhere because GROUPS is an
// SQL keyword.
type GroupRepo struct {
	db *DB
}

// NewGroupRepo creates a new GroupRepo backed by the given DB.
func NewGroupRepo(db *DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// Create inserts a group and returns its id.
func (r *GroupRepo) Create(ctx context.Context, g model.Group) (int64, error) {
	const query = `INSERT INTO "groups" (name, parent_id, icons_id) VALUES (?, ?, ?)`
	res, err := r.db.Writer.ExecContext(ctx, query, g.Name, g.ParentID, g.IconID)
	if err != nil {
		return 0, fmt.Errorf("insert group %q: %w", g.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read group id: %w", err)
	}
	return id, nil
}

// GetByID returns the group with the given id, or nil, nil if it does not exist.
func (r *GroupRepo) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	const query = `SELECT id, name, parent_id, icons_id FROM "groups" WHERE id = ?`
	g, err := scanGroup(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group %d: %w", id, err)
	}
	return g, nil
}

// ListAll returns every group ordered by id. The vault engine builds its
// in-memory tree from this flat list.
func (r *GroupRepo) ListAll(ctx context.Context) ([]model.Group, error) {
	const query = `SELECT id, name, parent_id, icons_id FROM "groups" ORDER BY id`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}

// ListChildren returns the direct children of parentID (nil for the root
// level) joined with their icon, ordered by name.
func (r *GroupRepo) ListChildren(ctx context.Context, parentID *int64) ([]model.GroupView, error) {
	query, args, err := sq.Select("g.id", "g.name", "g.parent_id", "g.icons_id", "i.name", "i.provider").
		From(`"groups" g`).
		LeftJoin("icons i ON g.icons_id = i.id").
		Where(eqOptionalID("g.parent_id", parentID)).
		OrderBy("g.name", "g.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build child groups query: %w", err)
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list child groups: %w", err)
	}
	defer rows.Close()

	var views []model.GroupView
	for rows.Next() {
		var v model.GroupView
		var parent, icon sql.NullInt64
		var iconName, iconProvider sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &parent, &icon, &iconName, &iconProvider); err != nil {
			return nil, fmt.Errorf("scan child group: %w", err)
		}
		v.ParentID = nullableID(parent)
		v.IconID = nullableID(icon)
		v.IconName = iconName.String
		v.IconProvider = model.IconProvider(iconProvider.String)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate child groups: %w", err)
	}
	return views, nil
}

// Update renames and reparents a group. Returns driven.ErrGroupNotFound if no
// row matched. Cycle checks are the caller's responsibility.
func (r *GroupRepo) Update(ctx context.Context, id int64, name string, parentID *int64) error {
	const query = `UPDATE "groups" SET name = ?, parent_id = ? WHERE id = ?`
	res, err := r.db.Writer.ExecContext(ctx, query, name, parentID, id)
	if err != nil {
		return fmt.Errorf("update group %d: %w", id, err)
	}
	return expectOneRow(res, fmt.Sprintf("update group %d", id), driven.ErrGroupNotFound)
}

// Delete removes a single group row. The row must have no child groups and no
// credentials left, otherwise the foreign keys reject the delete.
func (r *GroupRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM "groups" WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group %d: %w", id, err)
	}
	return expectOneRow(res, fmt.Sprintf("delete group %d", id), driven.ErrGroupNotFound)
}

func scanGroup(s scanner) (*model.Group, error) {
	var g model.Group
	var parent, icon sql.NullInt64
	if err := s.Scan(&g.ID, &g.Name, &parent, &icon); err != nil {
		return nil, err
	}
	g.ParentID = nullableID(parent)
	g.IconID = nullableID(icon)
	return &g, nil
}

// expectOneRow maps a zero-row write result to notFound.
func expectOneRow(res sql.Result, op string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}
	return nil
}
