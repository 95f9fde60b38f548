// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is the default backend; postgres is available for shared
// deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/personas-api/internal/config"
	"github.com/aanand-mishra/personas-api/internal/storage"
	"github.com/aanand-mishra/personas-api/internal/types"

	// Importing the driver registers "sqlite3" with database/sql; the
	// package is also used directly to recognise constraint errors.
	"github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

// compile-time check that *SQLite satisfies the interface.
var _ storage.Storage = (*SQLite)(nil)

// New opens the SQLite database at cfg.Storage.Path, creates the persona
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	path := cfg.Storage.Path

	// Make sure the parent directory exists; sqlite will create the file
	// but not the folders leading to it.
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	// sql.Open does NOT open a real connection yet — it just validates
	// the driver name and data source name (DSN).
	// _busy_timeout makes concurrent writers wait instead of failing.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// CREATE TABLE IF NOT EXISTS is idempotent — safe to run on every
	// startup. If the table already exists nothing happens.
	//
	// correo_persona is UNIQUE: two imports racing on the same snapshot
	// cannot both commit the same email.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS persona (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			nombre_persona   TEXT     NOT NULL DEFAULT '',
			apellido_persona TEXT     NOT NULL DEFAULT '',
			dni_persona      TEXT     NOT NULL DEFAULT '',
			correo_persona   TEXT     UNIQUE,
			edad_persona     INTEGER,
			fecha_creacion   DATETIME NOT NULL,
			telefono_persona TEXT     NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetPersonas returns all persona rows as a slice.
//
// Query returns a cursor (*sql.Rows); rows.Next() advances it and Scan
// reads each row. Always defer rows.Close() to release the connection.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetPersonas(ctx context.Context) ([]types.Persona, error) {
	rows, err := s.Db.QueryContext(ctx, `
		SELECT id, nombre_persona, apellido_persona, dni_persona, correo_persona,
		       edad_persona, fecha_creacion, telefono_persona
		FROM persona
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("GetPersonas: query: %w", err)
	}
	defer rows.Close()

	// Returning [] instead of null in JSON is better API behaviour.
	personas := make([]types.Persona, 0)

	for rows.Next() {
		var (
			p      types.Persona
			correo sql.NullString
			edad   sql.NullInt64
		)

		if err := rows.Scan(
			&p.ID,
			&p.Nombre,
			&p.Apellido,
			&p.DNI,
			&correo,
			&edad,
			&p.CreatedAt,
			&p.Telefono,
		); err != nil {
			return nil, fmt.Errorf("GetPersonas: scan row: %w", err)
		}

		p.Correo = correo.String
		if edad.Valid {
			n := int(edad.Int64)
			p.Edad = &n
		}

		personas = append(personas, p)
	}

	// rows.Err() captures any error that occurred during iteration.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPersonas: rows iteration: %w", err)
	}

	return personas, nil
}

// GetSnapshot returns every non-NULL correo_persona and the row count.
// Rows with a NULL correo are counted but contribute no email.
func (s *SQLite) GetSnapshot(ctx context.Context) (types.Snapshot, error) {
	rows, err := s.Db.QueryContext(ctx, "SELECT correo_persona FROM persona")
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("GetSnapshot: query: %w", err)
	}
	defer rows.Close()

	snap := types.Snapshot{Emails: make([]string, 0)}
	for rows.Next() {
		var email sql.NullString
		if err := rows.Scan(&email); err != nil {
			return types.Snapshot{}, fmt.Errorf("GetSnapshot: scan row: %w", err)
		}
		snap.Rows++
		if email.Valid && email.String != "" {
			snap.Emails = append(snap.Emails, email.String)
		}
	}

	if err := rows.Err(); err != nil {
		return types.Snapshot{}, fmt.Errorf("GetSnapshot: rows iteration: %w", err)
	}

	return snap, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// InsertPersonas inserts the batch inside one transaction.
//
// The INSERT is prepared once on the transaction and executed per row
// with ? placeholders, so values are never spliced into SQL. Any failing
// row rolls back the rows before it.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) InsertPersonas(ctx context.Context, batch []types.NewPersona) (int64, error) {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("InsertPersonas: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op returning ErrTxDone.
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO persona (nombre_persona, apellido_persona, dni_persona, correo_persona,
		                     edad_persona, fecha_creacion, telefono_persona)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("InsertPersonas: prepare: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for i, p := range batch {
		correo, edad := nullableColumns(p)

		if _, err := stmt.ExecContext(ctx,
			p.Nombre, p.Apellido, p.DNI, correo, edad, p.CreatedAt, p.Telefono,
		); err != nil {
			if isUniqueViolation(err) {
				err = fmt.Errorf("%w: %s", storage.ErrDuplicateEmail, p.Correo)
			}
			return 0, fmt.Errorf("InsertPersonas: row %d: %w", i+1, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("InsertPersonas: commit: %w", err)
	}

	return inserted, nil
}

// Ping checks the database file can be reached.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// nullableColumns maps an empty correo and a missing edad to NULL. An
// empty correo only reaches storage in legacy empty-store mode, and NULL
// keeps the UNIQUE constraint from tripping on it.
func nullableColumns(p types.NewPersona) (correo, edad any) {
	if p.Correo != "" {
		correo = p.Correo
	}
	if p.Edad != nil {
		edad = *p.Edad
	}
	return correo, edad
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
