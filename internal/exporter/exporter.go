// Package exporter turns the current persona snapshot into a downloadable
// file. Each export gets its own directory under the configured export dir
// so concurrent downloads never share a file.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aanand-mishra/personas-api/internal/csvcodec"
	"github.com/aanand-mishra/personas-api/internal/spreadsheet"
	"github.com/aanand-mishra/personas-api/internal/storage"
	"github.com/aanand-mishra/personas-api/internal/types"
	"github.com/google/uuid"
)

// Format is the file type of an export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// BaseName is the download name without extension.
const BaseName = "usuarios"

var (
	// ErrEmpty means there was nothing to export; no file was written.
	ErrEmpty = errors.New("exporter: no records")

	// ErrSnapshot wraps failures reading the records.
	ErrSnapshot = errors.New("exporter: read records")

	// ErrWrite wraps failures rendering or writing the file.
	ErrWrite = errors.New("exporter: write file")

	// ErrUnknownFormat is returned by ParseFormat for anything but csv
	// or xlsx.
	ErrUnknownFormat = errors.New("exporter: unknown format")
)

// ParseFormat maps a query or flag value to a Format. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FileName is the download name for f, e.g. "usuarios.csv".
func (f Format) FileName() string {
	return BaseName + "." + string(f)
}

// ContentType is the media type sent with the download.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// File is an export written to disk. Call Cleanup once it has been sent.
type File struct {
	Path    string
	Name    string
	Format  Format
	Records int

	dir string
}

// Cleanup removes the export's directory.
func (f *File) Cleanup() error {
	return os.RemoveAll(f.dir)
}

// Service exports the store's records.
type Service struct {
	store storage.Storage
	dir   string
}

// New returns a Service writing under dir.
func New(store storage.Storage, dir string) *Service {
	return &Service{store: store, dir: dir}
}

// Export writes the snapshot to <dir>/<uuid>/usuarios.<format>.
func (s *Service) Export(ctx context.Context, format Format) (*File, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(s.dir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	file := &File{
		Path:    filepath.Join(dir, format.FileName()),
		Name:    format.FileName(),
		Format:  format,
		Records: len(records),
		dir:     dir,
	}

	if err := writeFile(file.Path, format, records); err != nil {
		_ = file.Cleanup()
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return file, nil
}

// WriteTo renders the snapshot straight into w and returns how many
// records were written.
func (s *Service) WriteTo(ctx context.Context, w io.Writer, format Format) (int, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return 0, err
	}

	if err := render(w, format, records); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return len(records), nil
}

func (s *Service) snapshot(ctx context.Context) ([]types.Persona, error) {
	records, err := s.store.GetPersonas(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return records, nil
}

func writeFile(path string, format Format, records []types.Persona) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := render(f, format, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func render(w io.Writer, format Format, records []types.Persona) error {
	switch format {
	case FormatCSV:
		data, err := csvcodec.Serialize(records)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatXLSX:
		return spreadsheet.Write(w, records)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
