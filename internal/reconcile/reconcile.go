// Package reconcile decides whether an uploaded batch of persona rows may
// be inserted. A batch is all-or-nothing: a single bad row rejects it.
//
// For every candidate row the checks run in a fixed order and the first
// failing one wins:
//
//  1. empty correo_persona        → types.ReasonEmptyEmail
//  2. correo_persona not an email → types.ReasonMalformedEmail
//  3. correo_persona already used → types.ReasonDuplicate
//
// "Already used" means present in the existing snapshot or in an earlier
// row of the same batch.
package reconcile

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aanand-mishra/personas-api/internal/types"
	"github.com/go-playground/validator/v10"
)

// emailPattern is the address syntax every stored correo must match.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// emailTag is the validator tag registered for emailPattern. The stock
// "email" tag is stricter (RFC 5322) and would reject addresses the
// service has always accepted.
const emailTag = "correo"

// Options tune a Reconciler.
type Options struct {
	// PreserveEmptyStoreGap reproduces the legacy behaviour: when the
	// persona table is empty no row is checked at all, so empty and
	// malformed emails slip through.
	PreserveEmptyStoreGap bool

	// Now stamps fecha_creacion on every planned insert. Defaults to
	// time.Now.
	Now func() time.Time
}

// Result is the outcome for one batch. Exactly one of Errors / Plan is
// populated.
type Result struct {
	Rejected bool
	Errors   []types.ValidationError
	Plan     []types.NewPersona
}

// Reconciler validates batches against a snapshot of existing emails.
// It is safe for concurrent use.
type Reconciler struct {
	opts     Options
	validate *validator.Validate
}

// New returns a Reconciler with the correo validation registered.
func New(opts Options) *Reconciler {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	v := validator.New()
	if err := v.RegisterValidation(emailTag, func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("reconcile: register %q validation: %v", emailTag, err))
	}

	return &Reconciler{opts: opts, validate: v}
}

// emailField is the validated shape of one candidate's correo. Tags run
// in order and validator stops at the first failure, which gives the
// empty-before-malformed precedence.
type emailField struct {
	Correo string `validate:"required,correo"`
}

// CheckEmail returns the rejection reason for a single address, or ""
// when the address is acceptable. Duplicates are not considered here.
func (r *Reconciler) CheckEmail(email string) string {
	err := r.validate.Struct(emailField{Correo: email})
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "required" {
		return types.ReasonEmptyEmail
	}
	return types.ReasonMalformedEmail
}

// Reconcile checks candidates (in file order) against existing, the
// stored snapshot. It never touches storage itself: the caller fetches
// the snapshot once and executes the returned plan.
//
// The legacy gap keys on existing.Rows, not on the email count: a table
// holding only rows without a correo is not empty.
func (r *Reconciler) Reconcile(candidates []types.CandidateRow, existing types.Snapshot) Result {
	if existing.Rows == 0 && r.opts.PreserveEmptyStoreGap {
		return Result{Plan: r.plan(candidates)}
	}

	seen := make(map[string]struct{}, len(existing.Emails)+len(candidates))
	for _, email := range existing.Emails {
		seen[email] = struct{}{}
	}

	var errs []types.ValidationError
	for i, row := range candidates {
		email := row.Email()

		reason := r.CheckEmail(email)
		if reason == "" {
			if _, dup := seen[email]; dup {
				reason = types.ReasonDuplicate
			}
		}

		if reason != "" {
			errs = append(errs, types.ValidationError{
				Index:  i + 1,
				Correo: email,
				Error:  reason,
			})
			continue
		}

		seen[email] = struct{}{}
	}

	if len(errs) > 0 {
		return Result{Rejected: true, Errors: errs}
	}

	return Result{Plan: r.plan(candidates)}
}

// plan maps each candidate onto the fixed insert columns. Columns other
// than the six persona fields are ignored.
func (r *Reconciler) plan(candidates []types.CandidateRow) []types.NewPersona {
	now := r.opts.Now()

	out := make([]types.NewPersona, 0, len(candidates))
	for _, row := range candidates {
		out = append(out, types.NewPersona{
			Nombre:    row[types.ColNombre],
			Apellido:  row[types.ColApellido],
			DNI:       row[types.ColDNI],
			Correo:    row[types.ColCorreo],
			Edad:      parseAge(row[types.ColEdad]),
			Telefono:  row[types.ColTelefono],
			CreatedAt: now,
		})
	}
	return out
}

// parseAge returns nil for an empty or non-numeric edad_persona; the
// column is nullable.
func parseAge(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &n
}
