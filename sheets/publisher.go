// Package sheets publishes a record snapshot to the top of a spreadsheet
// worksheet.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pevans/venuefed/records"
)

// Custom errors for publishing
var (
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	ErrWorksheetNotFound   = errors.New("worksheet not found")
	ErrCredentials         = errors.New("invalid service account credentials")
	ErrRemote              = errors.New("spreadsheet request failed")
	ErrMissingKey          = records.ErrMissingKey
)

// Opener resolves a worksheet by spreadsheet ID and sheet title.
type Opener interface {
	Open(ctx context.Context, spreadsheetID, sheetName string) (Worksheet, error)
}

// Worksheet inserts rows at a 1-based row index, shifting existing rows
// down.
type Worksheet interface {
	InsertRows(ctx context.Context, rows [][]any, at int) error
}

// Publisher inserts a snapshot as a header row followed by data rows at the
// top of a worksheet. It never clears or deduplicates what's already there.
type Publisher struct {
	opener     Opener
	headerMode string
	logger     zerolog.Logger
}

// NewPublisher creates a publisher. headerMode is config.HeaderFirst or
// config.HeaderUnion.
func NewPublisher(opener Opener, headerMode string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		opener:     opener,
		headerMode: headerMode,
		logger:     logger.With().Str("component", "sheets").Logger(),
	}
}

// Publish loads the snapshot at snapshotPath and inserts it into the named
// worksheet. It returns the number of data rows written. An empty snapshot
// writes nothing.
func (p *Publisher) Publish(ctx context.Context, snapshotPath, spreadsheetID, sheetName string) (int, error) {
	worksheet, err := p.opener.Open(ctx, spreadsheetID, sheetName)
	if err != nil {
		return 0, err
	}

	rows, err := records.Load(snapshotPath)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		p.logger.Info().Str("path", snapshotPath).Msg("snapshot is empty, nothing to publish")
		return 0, nil
	}

	// Project everything before the first write so a bad record leaves the
	// sheet untouched
	header, data, err := records.Table(rows, p.headerMode)
	if err != nil {
		return 0, err
	}

	headerRow := make([]any, len(header))
	for i, key := range header {
		headerRow[i] = key
	}

	if err := worksheet.InsertRows(ctx, [][]any{headerRow}, 1); err != nil {
		return 0, fmt.Errorf("failed to insert header: %w", err)
	}
	if err := worksheet.InsertRows(ctx, data, 2); err != nil {
		return 0, fmt.Errorf("failed to insert rows: %w", err)
	}

	p.logger.Info().
		Str("spreadsheet", spreadsheetID).
		Str("sheet", sheetName).
		Int("count", len(data)).
		Strs("header", header).
		Msg("published records")

	return len(data), nil
}
