package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"paytrack/internal/core"
	ports "paytrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const DefaultSheetName = "Payments"

// Header is written to row 1 of an empty sheet.
var Header = []any{"ID", "Date", "Title", "Description", "Amount", "Category", "Photos"}

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client mirrors payments into one sheet, one row per payment, ID in column A.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var _ ports.PaymentExporter = (*Client)(nil)

func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if len(opts) == 0 {
		creds, err := credentialsJSON(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = DefaultSheetName
	}
	slog.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", cfg.SpreadsheetID, "sheet", sheet)
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheet: sheet}, nil
}

// credentialsJSON prefers inline JSON, then a file, then GOOGLE_APPLICATION_CREDENTIALS.
func credentialsJSON(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) Upsert(ctx context.Context, d core.PaymentDetails) error {
	return c.UpsertAll(ctx, []core.PaymentDetails{d})
}

// UpsertAll reads column A once and writes every row in a single batch.
func (c *Client) UpsertAll(ctx context.Context, ds []core.PaymentDetails) error {
	if len(ds) == 0 {
		return nil
	}
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}

	var data []*gsheet.ValueRange
	if len(ids) == 0 {
		data = append(data, &gsheet.ValueRange{Range: rowRange(c.sheet, 1), Values: [][]any{Header}})
		ids = append(ids, "ID")
	}
	for _, d := range ds {
		row := findRow(ids, d.ID)
		if row == 0 {
			ids = append(ids, d.ID)
			row = len(ids)
		}
		data = append(data, &gsheet.ValueRange{Range: rowRange(c.sheet, row), Values: [][]any{paymentRow(d)}})
	}

	_, err = c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %d rows in sheet %s: %w", len(ds), c.sheet, err)
	}
	slog.InfoContext(ctx, "Payments exported to Google Sheets", "count", len(ds))
	return nil
}

// IDs returns the payment IDs in column A, skipping the header and cleared rows.
func (c *Client) IDs(ctx context.Context) ([]string, error) {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return nil, err
	}
	var out []string
	for i := 1; i < len(ids); i++ {
		if ids[i] != "" {
			out = append(out, ids[i])
		}
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, id)
	if row == 0 {
		slog.DebugContext(ctx, "Payment not present in sheet", "id", id)
		return nil
	}
	rng := rowRange(c.sheet, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Payment removed from Google Sheets", "id", id, "row", row)
	return nil
}

// readIDs returns column A, one entry per sheet row starting at row 1.
func (c *Client) readIDs(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ids := make([]string, len(resp.Values))
	for i, r := range resp.Values {
		if len(r) > 0 {
			ids[i] = strings.TrimSpace(fmt.Sprint(r[0]))
		}
	}
	return ids, nil
}

// findRow returns the 1-based row holding id, skipping the header, or 0.
func findRow(ids []string, id string) int {
	for i := 1; i < len(ids); i++ {
		if ids[i] == id {
			return i + 1
		}
	}
	return 0
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:G%d", sheet, row, row)
}

func paymentRow(d core.PaymentDetails) []any {
	return []any{
		d.ID,
		d.Date.String(),
		d.Title,
		d.Description,
		core.FormatAmount(d.Amount),
		string(d.Category),
		strings.Join(d.Photos, " "),
	}
}
