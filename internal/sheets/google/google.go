package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"vendas/internal/core"
	ports "vendas/internal/sheets"

	"github.com/xuri/excelize/v2"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads the sales worksheet from a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	window        ports.Window
}

// Ensure interface conformance
var _ ports.SalesReader = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, window ports.Window) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, window), nil
}

// New wraps an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID string, window ports.Window) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID, window: window}
}

// newSheetsService initializes a read-only Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadSales fetches the configured window as formatted values. The first
// returned row is the header.
func (c *Client) ReadSales(ctx context.Context) (ports.Sheet, error) {
	if c.svc == nil {
		return ports.Sheet{}, errors.New("sheets service not initialized")
	}
	rng, err := c.window.A1Range()
	if err != nil {
		return ports.Sheet{}, err
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return ports.Sheet{}, core.NewResourceError(c.spreadsheetID+"/"+rng, err)
	}
	if len(resp.Values) == 0 {
		return ports.Sheet{}, core.NewResourceError(c.spreadsheetID+"/"+rng, errors.New("range is empty"))
	}

	width := columnCount(c.window)
	sheet := ports.Sheet{
		Name:   c.window.Sheet,
		Header: pad(ports.ToStrings(resp.Values[0]), width),
		Rows:   make([][]string, 0, len(resp.Values)-1),
	}
	for _, row := range resp.Values[1:] {
		sheet.Rows = append(sheet.Rows, pad(ports.ToStrings(row), width))
	}

	slog.DebugContext(ctx, "Spreadsheet range read",
		"spreadsheet_id", c.spreadsheetID,
		"range", rng,
		"rows", len(sheet.Rows))
	return sheet, nil
}

// columnCount returns the number of columns spanned by the window, or 0
// when the range cannot be parsed.
func columnCount(w ports.Window) int {
	first, last, err := w.ColumnRange()
	if err != nil {
		return 0
	}
	a, err := excelize.ColumnNameToNumber(first)
	if err != nil {
		return 0
	}
	b, err := excelize.ColumnNameToNumber(last)
	if err != nil {
		return 0
	}
	return b - a + 1
}

// pad extends row with blanks; the API omits trailing empty cells.
func pad(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}
