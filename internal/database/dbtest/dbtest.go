// Package dbtest provides a migrated in-memory database for tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"todoapp/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// New returns a fresh, migrated in-memory sqlite database closed at test end.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
