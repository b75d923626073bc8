package sqlite

import (
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// nullableID converts a scanned nullable integer column into an optional id.
func nullableID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// eqOptionalID builds an equality predicate that matches NULL when id is nil.
func eqOptionalID(column string, id *int64) sq.Eq {
	if id == nil {
		return sq.Eq{column: nil}
	}
	return sq.Eq{column: *id}
}

// isForeignKeyViolation reports whether err is SQLite rejecting a write that
// would break a FOREIGN KEY constraint.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint")
}
