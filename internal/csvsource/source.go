package csvsource

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/tinytelemetry/packetstream/internal/model"
)

var (
	// ErrMissingTimestamp is returned when the header has no Timestamp column.
	ErrMissingTimestamp = errors.New("csvsource: header has no " + model.TimestampField + " column")
	// ErrEmptyHeader is returned for an empty file.
	ErrEmptyHeader = errors.New("csvsource: missing header row")
	// ErrTooManyRecords is returned once MaxRecords rows have been read.
	ErrTooManyRecords = errors.New("csvsource: record limit exceeded")
)

// RowError reports a malformed data row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("csvsource: line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Options holds tunable limits for the source.
type Options struct {
	// MaxFieldBytes caps a single field value. Zero uses model.DefaultMaxFieldBytes.
	MaxFieldBytes int
	// MaxRecords caps the number of data rows. Zero means unlimited.
	MaxRecords int
}

// Source yields Records from a CSV file with a header row.
type Source struct {
	closer        io.Closer
	reader        *csv.Reader
	header        []string
	maxFieldBytes int
	maxRecords    int
	read          int
}

// Open opens the CSV file at path and reads its header.
func Open(path string, opts ...Options) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "csvsource: open")
	}
	src, err := NewReader(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

// NewReader reads CSV from r. The header row is consumed immediately.
func NewReader(r io.Reader, opts ...Options) (*Source, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.MaxFieldBytes <= 0 {
		o.MaxFieldBytes = model.DefaultMaxFieldBytes
	}

	reader := csv.NewReader(bufio.NewReader(r))
	// Payload columns are free text; a stray quote inside one is data.
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyHeader
		}
		return nil, errors.Wrap(err, "csvsource: read header")
	}
	if len(header) > 0 {
		// Drop a UTF-8 BOM left by spreadsheet exports.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	hasTimestamp := false
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
		if header[i] == model.TimestampField {
			hasTimestamp = true
		}
	}
	if !hasTimestamp {
		return nil, ErrMissingTimestamp
	}

	return &Source{
		reader:        reader,
		header:        header,
		maxFieldBytes: o.MaxFieldBytes,
		maxRecords:    o.MaxRecords,
	}, nil
}

// Header returns the column names in file order.
func (s *Source) Header() []string {
	return append([]string(nil), s.header...)
}

// Next returns the next record, or io.EOF after the last row.
// Rows with an unparseable Timestamp are returned as *RowError.
func (s *Source) Next() (model.Record, error) {
	row, err := s.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.Record{}, io.EOF
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return model.Record{}, &RowError{Line: parseErr.Line, Err: parseErr.Err}
		}
		return model.Record{}, errors.Wrap(err, "csvsource: read row")
	}

	line, _ := s.reader.FieldPos(0)
	if s.maxRecords > 0 && s.read >= s.maxRecords {
		return model.Record{}, &RowError{Line: line, Err: ErrTooManyRecords}
	}
	s.read++

	rec := model.Record{
		Fields: make([]model.Field, len(row)),
		Line:   line,
	}
	for i, value := range row {
		if len(value) > s.maxFieldBytes {
			return model.Record{}, &RowError{
				Line: line,
				Err:  errors.Errorf("field %q is %d bytes, limit %d", s.header[i], len(value), s.maxFieldBytes),
			}
		}
		rec.Fields[i] = model.Field{Name: s.header[i], Value: value}
	}

	if _, err := rec.Timestamp(); err != nil {
		return model.Record{}, &RowError{Line: line, Err: err}
	}
	return rec, nil
}

// Close releases the underlying file, if any.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
