package dbtest

import (
	"testing"

	"github.com/example/restaurant/pkg/config"
	"github.com/example/restaurant/pkg/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Open returns a migrated in-memory SQLite database closed at test end.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"}, zap.NewNop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
