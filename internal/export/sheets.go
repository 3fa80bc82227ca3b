package export

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"slotgen/internal/slots"
)

// SheetsExporter appends generated batches to a Google spreadsheet.
type SheetsExporter struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewSheetsExporter builds an exporter from a service account key file.
func NewSheetsExporter(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsExporter, error) {
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	jwt, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithTokenSource(jwt.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	return &SheetsExporter{service: service, spreadsheetID: spreadsheetID}, nil
}

// Append adds one row per slot to the Slots sheet.
func (e *SheetsExporter) Append(ctx context.Context, batch []slots.TimeSlot) error {
	values := make([][]interface{}, 0, len(batch))
	for _, s := range batch {
		values = append(values, slotRowValues(s))
	}

	vr := &sheets.ValueRange{Values: values}
	_, err := e.service.Spreadsheets.Values.Append(e.spreadsheetID, sheetName+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}
	return nil
}
