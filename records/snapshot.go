// Package records persists venue records between the scrape and publish
// phases as a single JSON snapshot.
package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pevans/venuefed/venue"
)

// Custom errors for snapshot operations
var (
	ErrSnapshot        = errors.New("invalid record snapshot")
	ErrMalformedRecord = errors.New("snapshot entry is not an object")
)

// snapshotMode is the permission the snapshot is left with. The temp file it
// is written through starts owner-only.
const snapshotMode = 0o644

// Write serializes records as an indented UTF-8 JSON array, overwriting any
// previous snapshot at path. Non-ASCII and HTML characters are written as-is.
func Write(path string, records []venue.Record) error {
	if records == nil {
		records = []venue.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "   ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	// Write to a sibling temp file and rename so readers never see a partial
	// snapshot
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, snapshotMode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set snapshot permissions: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}

// Row is one snapshot object with its key order preserved.
type Row struct {
	Keys   []string
	Values map[string]any
}

// Get returns the value stored under key and whether the key was present.
func (r Row) Get(key string) (any, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Load reads the snapshot at path for publishing. A missing file or
// malformed JSON is an error wrapping ErrSnapshot. A JSON value that isn't an
// array, or an empty array, yields no rows and no error. An array element
// that isn't an object fails with ErrMalformedRecord.
func Load(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrSnapshot, path, err)
	}

	return Decode(bytes.NewReader(data))
}

// Decode reads snapshot JSON from r. See Load.
func Decode(r io.Reader) ([]Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}

	delim, ok := tok.(json.Delim)
	if !ok || delim != '[' {
		// Not a list: consume the rest to make sure it's valid JSON at all
		if ok {
			if err := skipValue(dec, delim); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
			}
		}
		if err := expectEOF(dec); err != nil {
			return nil, err
		}
		return []Row{}, nil
	}

	rows := []Row{}
	for index := 0; dec.More(); index++ {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return nil, fmt.Errorf("%w: %w: entry %d", ErrSnapshot, ErrMalformedRecord, index)
		}

		row, err := decodeObject(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrSnapshot, index, err)
		}
		rows = append(rows, row)
	}

	// Closing bracket
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}

	return rows, nil
}

// decodeObject reads the members of an object whose opening brace has
// already been consumed.
func decodeObject(dec *json.Decoder) (Row, error) {
	row := Row{Keys: []string{}, Values: map[string]any{}}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Row{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Row{}, fmt.Errorf("unexpected token %v", tok)
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return Row{}, err
		}

		if _, seen := row.Values[key]; !seen {
			row.Keys = append(row.Keys, key)
		}
		row.Values[key] = normalize(raw)
	}

	// Closing brace
	if _, err := dec.Token(); err != nil {
		return Row{}, err
	}

	return row, nil
}

// normalize turns json.Number into int64 when integral, float64 otherwise.
// Nested values are left as decoded.
func normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// skipValue consumes the remainder of a composite value whose opening
// delimiter has already been read.
func skipValue(dec *json.Decoder, open json.Delim) error {
	if open != '[' && open != '{' {
		return nil
	}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '[', '{':
				depth++
			case ']', '}':
				depth--
			}
		}
	}
	return nil
}

func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return fmt.Errorf("%w: trailing data after snapshot", ErrSnapshot)
		}
		return fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	return nil
}
