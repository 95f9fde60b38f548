// Package csvcodec converts between uploaded CSV bytes and the persona
// types: header-driven parsing into types.CandidateRow on the way in,
// csvutil-based serialization of types.Persona on the way out.
package csvcodec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aanand-mishra/personas-api/internal/types"
	"github.com/jszwec/csvutil"
)

// ErrNoRecords is returned by Serialize for an empty input. Callers are
// expected to check for the empty case before serializing.
var ErrNoRecords = errors.New("csvcodec: no records to serialize")

// ErrNoHeader is returned when the input does not even contain a header.
var ErrNoHeader = errors.New("csvcodec: missing header row")

const bom = "\ufeff"

// Reader yields one CandidateRow per data line, lazily. It reads from the
// underlying stream only as far as the caller asks; to start over, call
// Parse again on a fresh stream.
type Reader struct {
	r      *csv.Reader
	header []string
	err    error
}

// Parse wraps r. The header is read on the first call to Next.
func Parse(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	// Short and long lines are accepted: missing trailing columns are
	// simply absent from the row, extra ones are dropped.
	cr.FieldsPerRecord = -1
	// Quoting is strict RFC 4180: a bare quote inside an unquoted field
	// (O"Brien) or an unterminated quoted field fails the read. LazyQuotes
	// would silently fold the rest of the file into one field instead.
	cr.LazyQuotes = false

	return &Reader{r: cr}
}

// Header returns the parsed header once Next has been called.
func (p *Reader) Header() []string {
	return p.header
}

// Next returns the next row, or io.EOF after the last one.
func (p *Reader) Next() (types.CandidateRow, error) {
	if p.err != nil {
		return nil, p.err
	}

	if p.header == nil {
		header, err := p.r.Read()
		if errors.Is(err, io.EOF) {
			p.err = ErrNoHeader
			return nil, p.err
		}
		if err != nil {
			p.err = fmt.Errorf("csvcodec: read header: %w", err)
			return nil, p.err
		}
		p.header = cleanHeader(header)
	}

	// encoding/csv skips blank lines. A line of bare separators still
	// counts as a row, with every value empty.
	record, err := p.r.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			err = fmt.Errorf("csvcodec: read row: %w", err)
		}
		p.err = err
		return nil, err
	}

	row := make(types.CandidateRow, len(p.header))
	for i, value := range record {
		if i >= len(p.header) {
			break
		}
		row[p.header[i]] = value
	}
	return row, nil
}

// ReadAll drains the reader. A header-only file yields zero rows and no
// error.
func (p *Reader) ReadAll() ([]types.CandidateRow, error) {
	var rows []types.CandidateRow
	for {
		row, err := p.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// Serialize renders records as CSV: header row first, then one line per
// record in the given order.
func Serialize(records []types.Persona) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(w)

	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("csvcodec: encode record %d: %w", rec.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csvcodec: flush: %w", err)
	}

	return buf.Bytes(), nil
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, bom)
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}
