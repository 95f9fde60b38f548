// Package backend picks the storage.Storage implementation named in the
// configuration. It lives apart from package storage so the concrete
// drivers can import the interface without an import cycle.
package backend

import (
	"context"
	"fmt"

	"github.com/aanand-mishra/personas-api/internal/config"
	"github.com/aanand-mishra/personas-api/internal/storage"
	"github.com/aanand-mishra/personas-api/internal/storage/memory"
	"github.com/aanand-mishra/personas-api/internal/storage/postgres"
	"github.com/aanand-mishra/personas-api/internal/storage/sqlite"
)

// Open connects to the configured backend. The caller owns the returned
// store and must Close it at shutdown.
func Open(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		p, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("backend.Open: unknown storage driver %q", cfg.Storage.Driver)
	}
}
