// Package postgres implements storage.Storage on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aanand-mishra/personas-api/internal/config"
	"github.com/aanand-mishra/personas-api/internal/storage"
	"github.com/aanand-mishra/personas-api/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the SQLSTATE postgres reports for a UNIQUE conflict.
const uniqueViolation = "23505"

const createTable = `
	CREATE TABLE IF NOT EXISTS persona (
		id               BIGSERIAL PRIMARY KEY,
		nombre_persona   TEXT        NOT NULL DEFAULT '',
		apellido_persona TEXT        NOT NULL DEFAULT '',
		dni_persona      TEXT        NOT NULL DEFAULT '',
		correo_persona   TEXT        UNIQUE,
		edad_persona     INTEGER,
		fecha_creacion   TIMESTAMPTZ NOT NULL DEFAULT now(),
		telefono_persona TEXT        NOT NULL DEFAULT ''
	)`

// Postgres wraps the connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

var _ storage.Storage = (*Postgres)(nil)

// New connects, pings and creates the persona table if needed.
func New(ctx context.Context, cfg *config.Config) (*Postgres, error) {
	pgCfg := cfg.Storage.Postgres

	poolConfig, err := pgxpool.ParseConfig(pgCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	poolConfig.MaxConns = pgCfg.MaxConns
	poolConfig.MinConns = pgCfg.MinConns
	poolConfig.MaxConnLifetime = pgCfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = pgCfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, createTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: create table: %w", err)
	}

	return &Postgres{Pool: pool}, nil
}

// GetPersonas returns every persona ordered by id.
func (p *Postgres) GetPersonas(ctx context.Context) ([]types.Persona, error) {
	rows, err := p.Pool.Query(ctx, `
		SELECT id, nombre_persona, apellido_persona, dni_persona, COALESCE(correo_persona, ''),
		       edad_persona, fecha_creacion, telefono_persona
		FROM persona
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("GetPersonas: query: %w", err)
	}
	defer rows.Close()

	personas := make([]types.Persona, 0)
	for rows.Next() {
		var (
			rec  types.Persona
			edad *int32
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Nombre,
			&rec.Apellido,
			&rec.DNI,
			&rec.Correo,
			&edad,
			&rec.CreatedAt,
			&rec.Telefono,
		); err != nil {
			return nil, fmt.Errorf("GetPersonas: scan row: %w", err)
		}
		if edad != nil {
			n := int(*edad)
			rec.Edad = &n
		}
		personas = append(personas, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPersonas: rows iteration: %w", err)
	}
	return personas, nil
}

// GetSnapshot returns every non-NULL correo_persona and the row count.
func (p *Postgres) GetSnapshot(ctx context.Context) (types.Snapshot, error) {
	rows, err := p.Pool.Query(ctx, "SELECT correo_persona FROM persona")
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("GetSnapshot: query: %w", err)
	}

	correos, err := pgx.CollectRows(rows, pgx.RowTo[*string])
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("GetSnapshot: collect: %w", err)
	}

	snap := types.Snapshot{Emails: make([]string, 0, len(correos)), Rows: len(correos)}
	for _, c := range correos {
		if c != nil && *c != "" {
			snap.Emails = append(snap.Emails, *c)
		}
	}
	return snap, nil
}

// InsertPersonas sends the batch as one pgx.Batch inside a transaction.
func (p *Postgres) InsertPersonas(ctx context.Context, rows []types.NewPersona) (int64, error) {
	var inserted int64

	err := p.withTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range rows {
			var correo *string
			if rec.Correo != "" {
				correo = &rec.Correo
			}
			batch.Queue(`
				INSERT INTO persona (nombre_persona, apellido_persona, dni_persona, correo_persona,
				                     edad_persona, fecha_creacion, telefono_persona)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				rec.Nombre, rec.Apellido, rec.DNI, correo, rec.Edad, rec.CreatedAt, rec.Telefono,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for i := range rows {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				if isUniqueViolation(err) {
					err = fmt.Errorf("%w: %s", storage.ErrDuplicateEmail, rows[i].Correo)
				}
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			inserted += tag.RowsAffected()
		}
		return results.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("InsertPersonas: %w", err)
	}

	return inserted, nil
}

// Ping checks the pool can reach the server.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

// Close shuts the pool down.
func (p *Postgres) Close() error {
	if p.Pool != nil {
		p.Pool.Close()
	}
	return nil
}

// withTx executes fn within a transaction, rolling back on error or panic.
func (p *Postgres) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			if err := tx.Rollback(ctx); err != nil {
				slog.Error("rollback after panic failed", slog.String("error", err.Error()))
			}
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
