package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TimestampField is the one column the sender interprets.
const TimestampField = "Timestamp"

// ErrNoTimestamp is returned when a record carries no Timestamp field.
var ErrNoTimestamp = errors.New("record has no Timestamp field")

// Field is one named column value of a Record.
type Field struct {
	Name  string
	Value string
}

// Record represents a single row read from a traffic file.
// Field order follows the source header and is kept on the wire.
type Record struct {
	Fields []Field
	Line   int // source line, for diagnostics only
}

// Get returns the value of the named field.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Timestamp parses the Timestamp field as seconds.
func (r Record) Timestamp() (float64, error) {
	raw, ok := r.Get(TimestampField)
	if !ok {
		return 0, ErrNoTimestamp
	}
	ts, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s %q", TimestampField, raw)
	}
	return ts, nil
}

// Map returns the fields as a plain map.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		out[f.Name] = f.Value
	}
	return out
}

// MarshalJSON encodes the record as a JSON object in header order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Package is one accepted request body, kept verbatim (compacted).
type Package = json.RawMessage
