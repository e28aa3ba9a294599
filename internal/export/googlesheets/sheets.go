package googlesheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"comforty/internal/core"
	"comforty/internal/export"
	"comforty/internal/services"
)

// Exporter writes dashboard reports into a Google spreadsheet. Each export
// rewrites the whole sheet so the spreadsheet always mirrors the latest
// aggregation.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ export.ReportWriter = (*Exporter)(nil)

// NewFromEnv creates an exporter from environment variables.
// Required: GOOGLE_SPREADSHEET_ID. Credentials come from
// GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_SHEET_NAME
// (default "Dashboard").
func NewFromEnv(ctx context.Context) (*Exporter, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Dashboard"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets service with service account
// credentials, taken inline or from a file.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON := strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_JSON"))
	credentialsFile := strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_FILE"))
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var raw []byte
	switch {
	case credentialsJSON != "":
		raw = []byte(credentialsJSON)
	case credentialsFile != "":
		var err error
		raw, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
	default:
		return nil, errors.New("missing credentials (set GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// Export writes the summary block and the monthly table into the sheet and
// returns the written range as a reference.
func (e *Exporter) Export(ctx context.Context, data services.DashboardData) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rows := buildRows(data)

	clearRange := fmt.Sprintf("%s!A:Z", e.sheetName)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", e.sheetName, err)
	}

	writeRange := fmt.Sprintf("%s!A1", e.sheetName)
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write report to sheet %s: %w", e.sheetName, err)
	}

	ref := fmt.Sprintf("%s!A1:E%d", e.sheetName, len(rows))
	slog.InfoContext(ctx, "Dashboard report exported",
		"spreadsheet", e.spreadsheetID,
		"range", ref,
		"months", data.Series.Len())

	return ref, nil
}

// buildRows lays the report out as a summary block followed by the monthly
// table, in the same bucket order the dashboard shows.
func buildRows(data services.DashboardData) [][]any {
	rows := [][]any{
		{"Dashboard report", time.Now().Format(time.RFC3339)},
		{},
		{"Total products", data.Summary.TotalProducts},
		{"Total inventory", data.Summary.TotalInventory},
		{"Total stock value", data.Summary.TotalStockValue},
		{"Total orders", data.Summary.TotalOrders},
	}
	for _, status := range core.KnownStatuses {
		rows = append(rows, []any{"Orders " + string(status), data.Summary.CountByStatus(status)})
	}

	rows = append(rows, []any{}, []any{"Month", "Orders", "Sales", "Products", "Inventory"})
	for i, label := range data.Series.Labels {
		rows = append(rows, []any{
			label,
			data.Series.Orders[i],
			data.Series.Sales[i],
			data.Series.Products[i],
			data.Series.Inventory[i],
		})
	}
	return rows
}
