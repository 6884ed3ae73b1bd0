// Package venuefed scrapes venue listings from a map search and publishes
// them to a spreadsheet. A run has two independent phases: Scrape collects
// links, extracts venue records and writes the record snapshot; Publish
// inserts that snapshot at the top of a worksheet.
package venuefed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pevans/venuefed/config"
	"github.com/pevans/venuefed/history"
	"github.com/pevans/venuefed/records"
	"github.com/pevans/venuefed/urlstore"
	"github.com/pevans/venuefed/venue"
)

// Collector gathers venue links for a keyword search.
type Collector interface {
	Collect(ctx context.Context, keywords string) ([]string, error)
}

// Extractor turns venue links into records, one per link.
type Extractor interface {
	Extract(ctx context.Context, urls []string) ([]venue.Record, error)
}

// Publisher writes a record snapshot to a worksheet.
type Publisher interface {
	Publish(ctx context.Context, snapshotPath, spreadsheetID, sheetName string) (int, error)
}

// Connector authenticates against the spreadsheet service. It's called at
// the start of each publish phase so a bad credential only fails that phase.
type Connector func(ctx context.Context) (Publisher, error)

// HistoryRecorder stores phase outcomes.
type HistoryRecorder interface {
	Record(entry history.Entry) error
}

// Deps are the collaborators a pipeline drives. History is optional.
type Deps struct {
	Collector Collector
	Extractor Extractor
	Connect   Connector
	History   HistoryRecorder
}

// Pipeline runs the scrape and publish phases against one configuration.
type Pipeline struct {
	cfg       config.Config
	collector Collector
	urls      *urlstore.Store
	extractor Extractor
	connect   Connector
	history   HistoryRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg config.Config, deps Deps, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		collector: deps.Collector,
		urls:      urlstore.New(cfg.URLLogPath),
		extractor: deps.Extractor,
		connect:   deps.Connect,
		history:   deps.History,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes Scrape then Publish under a fresh run ID. Publish runs even
// when Scrape fails; it then publishes whatever snapshot is already on disk.
func (p *Pipeline) Run(ctx context.Context) []Result {
	runID := uuid.New()
	return []Result{
		p.Scrape(ctx, runID),
		p.Publish(ctx, runID),
	}
}

// Scrape collects links, appends them to the URL log, extracts a record for
// every link in the log and overwrites the record snapshot. A failure before
// the snapshot write leaves the previous snapshot untouched.
func (p *Pipeline) Scrape(ctx context.Context, runID uuid.UUID) Result {
	res, log := p.begin(runID, PhaseScrape)
	log.Info().Str("keywords", p.cfg.SearchKeywords).Msg("starting scrape")

	links, err := p.collector.Collect(ctx, p.cfg.SearchKeywords)
	res.Links = len(links)
	if err != nil {
		return p.finish(res, log, fmt.Errorf("failed to collect links: %w", err))
	}
	log.Info().Int("count", len(links)).Msg("collected links")

	if err := p.urls.Append(links); err != nil {
		return p.finish(res, log, fmt.Errorf("%w: %w", ErrStorage, err))
	}

	queue, err := p.urls.ReadAll()
	if err != nil {
		return p.finish(res, log, fmt.Errorf("%w: %w", ErrStorage, err))
	}
	log.Info().Int("count", len(queue)).Str("path", p.urls.Path()).Msg("loaded URL log")

	recs, err := p.extractor.Extract(ctx, queue)
	if err != nil {
		return p.finish(res, log, fmt.Errorf("failed to extract venues: %w", err))
	}

	if err := records.Write(p.cfg.RecordSnapshotPath, recs); err != nil {
		return p.finish(res, log, fmt.Errorf("%w: %w", ErrStorage, err))
	}
	res.Records = len(recs)
	log.Info().Int("count", len(recs)).Str("path", p.cfg.RecordSnapshotPath).Msg("saved records")

	if p.cfg.XLSXPath != "" {
		if err := p.exportXLSX(); err != nil {
			log.Warn().Err(err).Str("path", p.cfg.XLSXPath).Msg("failed to export workbook")
		} else {
			log.Info().Str("path", p.cfg.XLSXPath).Msg("exported workbook")
		}
	}

	return p.finish(res, log, nil)
}

// Publish authenticates and inserts the record snapshot into the configured
// worksheet.
func (p *Pipeline) Publish(ctx context.Context, runID uuid.UUID) Result {
	res, log := p.begin(runID, PhasePublish)

	if p.cfg.SpreadsheetID == "" {
		return p.finish(res, log, fmt.Errorf("%w: spreadsheet_id is not set", config.ErrInvalidConfig))
	}
	log.Info().
		Str("spreadsheet", p.cfg.SpreadsheetID).
		Str("sheet", p.cfg.SheetName).
		Msg("starting publish")

	publisher, err := p.connect(ctx)
	if err != nil {
		return p.finish(res, log, fmt.Errorf("failed to connect to spreadsheet service: %w", err))
	}

	count, err := publisher.Publish(ctx, p.cfg.RecordSnapshotPath, p.cfg.SpreadsheetID, p.cfg.SheetName)
	res.Records = count
	if err != nil {
		return p.finish(res, log, fmt.Errorf("failed to publish records: %w", err))
	}

	return p.finish(res, log, nil)
}

// exportXLSX writes the snapshot just saved as a workbook.
func (p *Pipeline) exportXLSX() error {
	rows, err := records.Load(p.cfg.RecordSnapshotPath)
	if err != nil {
		return err
	}

	header, data, err := records.Table(rows, p.cfg.Publish.HeaderMode)
	if err != nil {
		return err
	}

	return records.WriteXLSX(p.cfg.XLSXPath, header, data)
}

func (p *Pipeline) begin(runID uuid.UUID, phase Phase) (Result, zerolog.Logger) {
	log := p.logger.With().
		Str("run_id", runID.String()).
		Str("phase", string(phase)).
		Logger()

	return Result{
		RunID:     runID,
		Phase:     phase,
		StartedAt: p.now(),
	}, log
}

func (p *Pipeline) finish(res Result, log zerolog.Logger, err error) Result {
	res.FinishedAt = p.now()
	res.Err = err
	res.Kind = Classify(err)
	res.Status = StatusOK

	if err != nil {
		res.Status = StatusFailed
		log.Error().
			Err(err).
			Str("kind", string(res.Kind)).
			Dur("elapsed", res.Duration()).
			Msg("phase failed")
	} else {
		log.Info().
			Int("links", res.Links).
			Int("records", res.Records).
			Dur("elapsed", res.Duration()).
			Msg("phase finished")
	}

	if p.history != nil {
		if err := p.history.Record(entryFor(res)); err != nil {
			log.Warn().Err(err).Msg("failed to record run history")
		}
	}

	return res
}

func entryFor(res Result) history.Entry {
	entry := history.Entry{
		RunID:      res.RunID,
		Phase:      string(res.Phase),
		Status:     string(res.Status),
		ErrorKind:  string(res.Kind),
		Links:      res.Links,
		Records:    res.Records,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if res.Err != nil {
		msg := res.Err.Error()
		entry.Error = &msg
	}
	return entry
}
