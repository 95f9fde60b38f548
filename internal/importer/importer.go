// Package importer runs one CSV upload end to end: parse the rows, read
// the existing emails once, reconcile, and write the accepted batch in a
// single transaction.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aanand-mishra/personas-api/internal/csvcodec"
	"github.com/aanand-mishra/personas-api/internal/logging"
	"github.com/aanand-mishra/personas-api/internal/reconcile"
	"github.com/aanand-mishra/personas-api/internal/storage"
	"github.com/aanand-mishra/personas-api/internal/types"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Sentinel errors, matched with errors.Is by callers.
var (
	// ErrBusy means every import slot stayed taken for MaxWait.
	ErrBusy = errors.New("importer: too many concurrent imports")

	// ErrInvalidCSV wraps codec failures (bad quoting, no header).
	ErrInvalidCSV = errors.New("importer: invalid csv")

	// ErrSnapshot wraps failures reading the existing emails.
	ErrSnapshot = errors.New("importer: read existing records")

	// ErrInsert wraps failures writing the accepted batch. Nothing was
	// committed when it is returned.
	ErrInsert = errors.New("importer: insert batch")
)

// Options bound how many imports run at once.
type Options struct {
	MaxConcurrent int64
	MaxWait       time.Duration
}

// Outcome describes a finished import. When Rejected is true Errors
// lists every offending row and nothing was written.
type Outcome struct {
	ID       string
	Rows     int
	Rejected bool
	Errors   []types.ValidationError
	Inserted int64
}

// Service imports CSV batches into a store.
type Service struct {
	store      storage.Storage
	reconciler *reconcile.Reconciler
	slots      *semaphore.Weighted
	maxWait    time.Duration
}

// New wires a Service. Non-positive options fall back to one slot and a
// ten second wait.
func New(store storage.Storage, reconciler *reconcile.Reconciler, opts Options) *Service {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 10 * time.Second
	}

	return &Service{
		store:      store,
		reconciler: reconciler,
		slots:      semaphore.NewWeighted(opts.MaxConcurrent),
		maxWait:    opts.MaxWait,
	}
}

// Import reads the whole CSV from r and either rejects it or inserts
// every row.
func (s *Service) Import(ctx context.Context, r io.Reader) (Outcome, error) {
	out := Outcome{ID: uuid.NewString()}
	log := logging.FromContext(ctx).With(slog.String("import_id", out.ID))

	if err := s.acquire(ctx); err != nil {
		return out, err
	}
	defer s.slots.Release(1)

	// ── 1. Parse the upload ──────────────────────────────────────────────
	candidates, err := csvcodec.Parse(r).ReadAll()
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
	}
	out.Rows = len(candidates)
	log.Info("import parsed", slog.Int("rows", out.Rows))

	// ── 2. Snapshot existing emails, once for the whole batch ────────────
	existing, err := s.store.GetSnapshot(ctx)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrSnapshot, err)
	}

	// ── 3. Decide ────────────────────────────────────────────────────────
	result := s.reconciler.Reconcile(candidates, existing)
	if result.Rejected {
		out.Rejected = true
		out.Errors = result.Errors
		log.Info("import rejected",
			slog.Int("rows", out.Rows),
			slog.Int("errors", len(out.Errors)))
		return out, nil
	}

	if len(result.Plan) == 0 {
		log.Info("import had no rows")
		return out, nil
	}

	// ── 4. Write all rows or none ────────────────────────────────────────
	inserted, err := s.store.InsertPersonas(ctx, result.Plan)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrInsert, err)
	}
	out.Inserted = inserted

	log.Info("import committed", slog.Int64("inserted", inserted))
	return out, nil
}

// acquire waits up to maxWait for a free slot.
func (s *Service) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.maxWait)
	defer cancel()

	if err := s.slots.Acquire(waitCtx, 1); err != nil {
		// Distinguish the caller going away from our own timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBusy
	}
	return nil
}
