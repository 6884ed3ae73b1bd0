package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Scopes requested for the service account.
var Scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
}

const valueInputOption = "USER_ENTERED"

// GoogleSheets opens worksheets through the Sheets v4 API.
type GoogleSheets struct {
	service *gsheets.Service
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewGoogleSheets authenticates with the service account key at
// credentialsPath. Calls are limited to rps requests per second.
func NewGoogleSheets(ctx context.Context, credentialsPath string, rps float64, logger zerolog.Logger) (*GoogleSheets, error) {
	credsJSON, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrCredentials, credentialsPath, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, credsJSON, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredentials, err)
	}

	service, err := gsheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewGoogleSheetsWithService(service, rps, logger), nil
}

// NewGoogleSheetsWithService wraps an existing service.
func NewGoogleSheetsWithService(service *gsheets.Service, rps float64, logger zerolog.Logger) *GoogleSheets {
	if rps <= 0 {
		rps = 1
	}
	return &GoogleSheets{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger.With().Str("component", "google-sheets").Logger(),
	}
}

// Open fetches the spreadsheet and finds the worksheet titled sheetName.
func (g *GoogleSheets) Open(ctx context.Context, spreadsheetID, sheetName string) (Worksheet, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	spreadsheet, err := g.service.Spreadsheets.Get(spreadsheetID).
		Fields("spreadsheetId", "sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrSpreadsheetNotFound, spreadsheetID)
		}
		return nil, remoteError("failed to open spreadsheet", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return &googleWorksheet{
				sheets:        g,
				spreadsheetID: spreadsheetID,
				sheetID:       sheet.Properties.SheetId,
				title:         sheetName,
			}, nil
		}
	}

	return nil, fmt.Errorf("%w: %q in %s", ErrWorksheetNotFound, sheetName, spreadsheetID)
}

type googleWorksheet struct {
	sheets        *GoogleSheets
	spreadsheetID string
	sheetID       int64
	title         string
}

// InsertRows opens len(rows) blank rows at row at and fills them.
func (w *googleWorksheet) InsertRows(ctx context.Context, rows [][]any, at int) error {
	if len(rows) == 0 {
		return nil
	}
	if at < 1 {
		return fmt.Errorf("invalid row index %d", at)
	}

	start := int64(at - 1)
	insert := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			InsertDimension: &gsheets.InsertDimensionRequest{
				Range: &gsheets.DimensionRange{
					SheetId:    w.sheetID,
					Dimension:  "ROWS",
					StartIndex: start,
					EndIndex:   start + int64(len(rows)),
					// Zero is a valid sheet ID and start index
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}

	if err := w.sheets.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := w.sheets.service.Spreadsheets.BatchUpdate(w.spreadsheetID, insert).Context(ctx).Do(); err != nil {
		return remoteError("failed to insert rows", err)
	}

	values := &gsheets.ValueRange{
		MajorDimension: "ROWS",
		Values:         rows,
	}

	if err := w.sheets.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := w.sheets.service.Spreadsheets.Values.Update(w.spreadsheetID, cellRange(w.title, at), values).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return remoteError("failed to write rows", err)
	}

	w.sheets.logger.Debug().
		Str("sheet", w.title).
		Int("at", at).
		Int("count", len(rows)).
		Msg("inserted rows")

	return nil
}

// cellRange returns the A1 reference of column A at row in sheet title.
func cellRange(title string, row int) string {
	return fmt.Sprintf("'%s'!A%d", strings.ReplaceAll(title, "'", "''"), row)
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

func remoteError(msg string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w: %s: %w", ErrCredentials, msg, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrRemote, msg, err)
}
