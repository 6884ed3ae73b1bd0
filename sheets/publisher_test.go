package sheets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/venuefed/config"
	"github.com/pevans/venuefed/records"
)

type insertCall struct {
	rows [][]any
	at   int
}

// fakeWorksheet keeps rows in memory and shifts them down on insert.
type fakeWorksheet struct {
	rows      [][]any
	calls     []insertCall
	insertErr error
}

func (w *fakeWorksheet) InsertRows(_ context.Context, rows [][]any, at int) error {
	if w.insertErr != nil {
		return w.insertErr
	}
	w.calls = append(w.calls, insertCall{rows: rows, at: at})

	idx := at - 1
	if idx > len(w.rows) {
		idx = len(w.rows)
	}
	updated := make([][]any, 0, len(w.rows)+len(rows))
	updated = append(updated, w.rows[:idx]...)
	updated = append(updated, rows...)
	updated = append(updated, w.rows[idx:]...)
	w.rows = updated
	return nil
}

type fakeOpener struct {
	worksheet *fakeWorksheet
	err       error
	opened    []string
}

func (o *fakeOpener) Open(_ context.Context, spreadsheetID, sheetName string) (Worksheet, error) {
	o.opened = append(o.opened, spreadsheetID+"/"+sheetName)
	if o.err != nil {
		return nil, o.err
	}
	return o.worksheet, nil
}

// Test helper: create a publisher over an in-memory worksheet
func setupTestPublisher(t *testing.T, mode string) (*Publisher, *fakeOpener) {
	t.Helper()
	opener := &fakeOpener{worksheet: &fakeWorksheet{}}
	return NewPublisher(opener, mode, zerolog.Nop()), opener
}

// Test helper: write snapshot JSON into a temp dir
func createTestSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestPublish_HeaderThenRows verifies the header goes to row 1 and data to
// row 2
func TestPublish_HeaderThenRows(t *testing.T) {
	publisher, opener := setupTestPublisher(t, config.HeaderFirst)
	path := createTestSnapshot(t, `[{"a":1,"b":2},{"a":3,"b":4}]`)

	count, err := publisher.Publish(context.Background(), path, "sheet-id", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"sheet-id/Sheet1"}, opener.opened)

	calls := opener.worksheet.calls
	require.Len(t, calls, 2)
	assert.Equal(t, insertCall{rows: [][]any{{"a", "b"}}, at: 1}, calls[0])
	assert.Equal(t, insertCall{rows: [][]any{{int64(1), int64(2)}, {int64(3), int64(4)}}, at: 2}, calls[1])

	assert.Equal(t, [][]any{
		{"a", "b"},
		{int64(1), int64(2)},
		{int64(3), int64(4)},
	}, opener.worksheet.rows)
}

// TestPublish_Twice verifies a second publish stacks another block on top
func TestPublish_Twice(t *testing.T) {
	publisher, opener := setupTestPublisher(t, config.HeaderFirst)
	path := createTestSnapshot(t, `[{"a":1,"b":2},{"a":3,"b":4}]`)

	_, err := publisher.Publish(context.Background(), path, "sheet-id", "Sheet1")
	require.NoError(t, err)
	_, err = publisher.Publish(context.Background(), path, "sheet-id", "Sheet1")
	require.NoError(t, err)

	block := [][]any{
		{"a", "b"},
		{int64(1), int64(2)},
		{int64(3), int64(4)},
	}
	assert.Equal(t, append(append([][]any{}, block...), block...), opener.worksheet.rows)
}

// TestPublish_ExistingContentShifts verifies prior rows move below the block
func TestPublish_ExistingContentShifts(t *testing.T) {
	publisher, opener := setupTestPublisher(t, config.HeaderFirst)
	opener.worksheet.rows = [][]any{{"old"}}
	path := createTestSnapshot(t, `[{"name":"X"}]`)

	_, err := publisher.Publish(context.Background(), path, "sheet-id", "Sheet1")
	require.NoError(t, err)

	assert.Equal(t, [][]any{{"name"}, {"X"}, {"old"}}, opener.worksheet.rows)
}

// TestPublish_Empty verifies empty snapshots make no calls
func TestPublish_Empty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "empty array", content: `[]`},
		{name: "not a list", content: `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher, opener := setupTestPublisher(t, config.HeaderFirst)

			count, err := publisher.Publish(context.Background(), createTestSnapshot(t, tt.content), "id", "Sheet1")
			require.NoError(t, err)
			assert.Equal(t, 0, count)
			assert.Empty(t, opener.worksheet.calls)
		})
	}
}

// TestPublish_MissingKey verifies nothing is written when a record is short
func TestPublish_MissingKey(t *testing.T) {
	publisher, opener := setupTestPublisher(t, config.HeaderFirst)
	path := createTestSnapshot(t, `[{"a":1,"b":2},{"a":3}]`)

	_, err := publisher.Publish(context.Background(), path, "id", "Sheet1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingKey)
	assert.Empty(t, opener.worksheet.calls)
}

// TestPublish_UnionHeader verifies union mode publishes uneven records
func TestPublish_UnionHeader(t *testing.T) {
	publisher, opener := setupTestPublisher(t, config.HeaderUnion)
	path := createTestSnapshot(t, `[{"a":1},{"a":2,"b":"x"}]`)

	count, err := publisher.Publish(context.Background(), path, "id", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, [][]any{
		{"a", "b"},
		{int64(1), ""},
		{int64(2), "x"},
	}, opener.worksheet.rows)
}

// TestPublish_OpenErrors verifies lookup failures pass through untouched
func TestPublish_OpenErrors(t *testing.T) {
	for _, target := range []error{ErrSpreadsheetNotFound, ErrWorksheetNotFound} {
		t.Run(target.Error(), func(t *testing.T) {
			publisher, opener := setupTestPublisher(t, config.HeaderFirst)
			opener.err = target

			_, err := publisher.Publish(context.Background(), createTestSnapshot(t, `[{"a":1}]`), "id", "Sheet1")
			assert.ErrorIs(t, err, target)
			assert.Empty(t, opener.worksheet.calls)
		})
	}
}

// TestPublish_SnapshotErrors verifies missing and malformed snapshots fail
// without writes
func TestPublish_SnapshotErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		publisher, opener := setupTestPublisher(t, config.HeaderFirst)

		_, err := publisher.Publish(context.Background(), filepath.Join(t.TempDir(), "nope.json"), "id", "Sheet1")
		assert.ErrorIs(t, err, records.ErrSnapshot)
		assert.Empty(t, opener.worksheet.calls)
	})

	t.Run("malformed", func(t *testing.T) {
		publisher, opener := setupTestPublisher(t, config.HeaderFirst)

		_, err := publisher.Publish(context.Background(), createTestSnapshot(t, `[{"a":`), "id", "Sheet1")
		assert.ErrorIs(t, err, records.ErrSnapshot)
		assert.Empty(t, opener.worksheet.calls)
	})
}

// TestPublish_InsertFailure verifies remote failures surface
func TestPublish_InsertFailure(t *testing.T) {
	publisher, opener := setupTestPublisher(t, config.HeaderFirst)
	opener.worksheet.insertErr = errors.New("quota exceeded")

	_, err := publisher.Publish(context.Background(), createTestSnapshot(t, `[{"a":1}]`), "id", "Sheet1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
