package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"testing"
)

// setupTestDB creates a named shared in-memory metadata database for testing.
// Writer and reader connections share the same in-memory database via cache=shared.
// A unique name derived from t.Name() ensures isolation between parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	return setupMemoryDB(t, "meta", MetadataMigrations)
}

// setupSecretDB creates an in-memory secrets database, separate from the one
// returned by setupTestDB in the same test.
func setupSecretDB(t *testing.T) *DB {
	t.Helper()
	return setupMemoryDB(t, "secrets", SecretMigrations)
}

func setupMemoryDB(t *testing.T, suffix string, set MigrationSet) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename component
	// and cannot be misinterpreted as query parameters in the "file:%s?..." DSN.
	safeName := url.PathEscape(t.Name() + "-" + suffix)
	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	db, err := open(context.Background(), dsn, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := RunMigrations(db.Writer, set); err != nil {
		_ = db.Close()
		t.Fatalf("run %s migrations: %v", set, err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func ptr(id int64) *int64 { return &id }
