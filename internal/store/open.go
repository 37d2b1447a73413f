package store

import (
	"context"
	"fmt"
	"strings"
)

// Open builds the store selected by driver. dsn is a directory for
// "file", a database DSN for "sqlite"/"postgres" and an address for "redis".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(dsn)
	case "sqlite", "sqlite3":
		return NewSQLiteStore(ctx, dsn)
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, dsn)
	case "redis":
		return NewRedisStore(ctx, dsn, "whispers:")
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
