package records

import (
	"errors"
	"fmt"

	"github.com/pevans/venuefed/config"
)

// ErrMissingKey is returned when a record lacks a key that's in the header.
var ErrMissingKey = errors.New("record is missing a header key")

// Table projects rows into a header and data cells in header order.
//
// With config.HeaderFirst the header is the first row's key order and every
// row must carry all of it. With config.HeaderUnion keys first seen in later
// rows are appended and missing values become empty cells. Null values are
// written as empty cells in both modes.
func Table(rows []Row, mode string) ([]string, [][]any, error) {
	if len(rows) == 0 {
		return nil, nil, nil
	}

	header := append([]string(nil), rows[0].Keys...)
	if mode == config.HeaderUnion {
		seen := make(map[string]bool, len(header))
		for _, key := range header {
			seen[key] = true
		}
		for _, row := range rows[1:] {
			for _, key := range row.Keys {
				if !seen[key] {
					seen[key] = true
					header = append(header, key)
				}
			}
		}
	}

	data := make([][]any, 0, len(rows))
	for i, row := range rows {
		cells := make([]any, len(header))
		for j, key := range header {
			value, ok := row.Get(key)
			if !ok {
				if mode != config.HeaderUnion {
					return nil, nil, fmt.Errorf("%w: row %d has no %q", ErrMissingKey, i, key)
				}
				value = ""
			}
			if value == nil {
				value = ""
			}
			cells[j] = value
		}
		data = append(data, cells)
	}

	return header, data, nil
}
