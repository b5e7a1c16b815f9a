package store

import (
	"context"
	"fmt"
)

// Open dispatches on the configured driver name.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, dsn)
	case "sqlite":
		return NewSQLite(dsn)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
