// Package memory is an in-process storage.Storage. Data lives only as long
// as the process; it backs the "memory" driver and the handler tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aanand-mishra/personas-api/internal/storage"
	"github.com/aanand-mishra/personas-api/internal/types"
)

// Store keeps personas in a slice guarded by a mutex. It enforces the
// same uniqueness and all-or-nothing rules as the SQL backends.
type Store struct {
	mu     sync.RWMutex
	rows   []types.Persona
	nextID int64
}

var _ storage.Storage = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{nextID: 1}
}

// GetPersonas returns a copy of every persona in insertion order.
func (s *Store) GetPersonas(ctx context.Context) ([]types.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Persona, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

// GetSnapshot returns every non-empty correo and the row count.
func (s *Store) GetSnapshot(ctx context.Context) (types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := types.Snapshot{Emails: make([]string, 0, len(s.rows)), Rows: len(s.rows)}
	for _, p := range s.rows {
		if p.Correo != "" {
			snap.Emails = append(snap.Emails, p.Correo)
		}
	}
	return snap, nil
}

// InsertPersonas appends the batch, or nothing when any correo is
// already taken.
func (s *Store) InsertPersonas(ctx context.Context, batch []types.NewPersona) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	taken := make(map[string]struct{}, len(s.rows)+len(batch))
	for _, p := range s.rows {
		if p.Correo != "" {
			taken[p.Correo] = struct{}{}
		}
	}

	// Validate the whole batch before touching s.rows.
	for i, p := range batch {
		if p.Correo == "" {
			continue
		}
		if _, dup := taken[p.Correo]; dup {
			return 0, fmt.Errorf("InsertPersonas: row %d: %w: %s", i+1, storage.ErrDuplicateEmail, p.Correo)
		}
		taken[p.Correo] = struct{}{}
	}

	for _, p := range batch {
		s.rows = append(s.rows, types.Persona{
			ID:        s.nextID,
			Nombre:    p.Nombre,
			Apellido:  p.Apellido,
			DNI:       p.DNI,
			Correo:    p.Correo,
			Edad:      p.Edad,
			CreatedAt: p.CreatedAt,
			Telefono:  p.Telefono,
		})
		s.nextID++
	}

	return int64(len(batch)), nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op; the data is dropped with the Store.
func (s *Store) Close() error { return nil }
