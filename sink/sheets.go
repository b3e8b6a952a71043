package sink

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"financescrapper/record"
)

// SheetsSink appends one row per record to a Google Sheets worksheet.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

var _ Sink = (*SheetsSink)(nil)

// NewSheetsSink creates a sink for the named worksheet. Authentication and
// endpoint are taken from opts, typically option.WithCredentialsFile.
func NewSheetsSink(ctx context.Context, spreadsheetID, worksheet string, opts ...option.ClientOption) (*SheetsSink, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &SheetsSink{svc: svc, spreadsheetID: spreadsheetID, worksheet: worksheet}, nil
}

// Append implements Sink.
func (s *SheetsSink) Append(ctx context.Context, r record.Record) error {
	row, err := Row(r)
	if err != nil {
		return err
	}

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}

	_, err = s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.worksheet+"!A1", &sheets.ValueRange{Values: [][]interface{}{values}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row to %s: %w", s.worksheet, err)
	}
	return nil
}
