// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// Handlers and services should not know or care which database they are
// talking to. By depending only on this interface:
//
//   - Switching databases = pick another driver in the config file.
//     sqlite, postgres and memory all implement it.
//
//   - Writing tests = pass a fake that satisfies the interface.
//     No real database needed for unit tests.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/personas-api/internal/types"
)

// ErrDuplicateEmail is returned (wrapped) by InsertPersonas when the
// UNIQUE constraint on correo_persona rejects a row. It happens when a
// concurrent import committed the same email after our snapshot was read.
var ErrDuplicateEmail = errors.New("storage: duplicate correo_persona")

// Storage is the persona table contract.
type Storage interface {
	// GetPersonas returns every persona ordered by id.
	// Returns an empty slice (not nil) if the table is empty.
	GetPersonas(ctx context.Context) ([]types.Persona, error)

	// GetSnapshot returns every non-empty correo_persona and the total row
	// count. This is the snapshot the import reconciler checks against.
	GetSnapshot(ctx context.Context) (types.Snapshot, error)

	// InsertPersonas writes the whole batch in a single transaction:
	// either every row is committed or none is. Returns the number of
	// rows inserted.
	InsertPersonas(ctx context.Context, batch []types.NewPersona) (int64, error)

	// Ping checks the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error
}
