package attendance

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Attendance"

// WriteCSV writes the header followed by one row per record.
func WriteCSV(w io.Writer, records []Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, ev := range records {
		if err := cw.Write(ev.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single-sheet workbook with the same columns as the CSV.
func WriteXLSX(w io.Writer, records []Event) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, ev := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		rec := ev.Record()
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f.Write(w)
}

// WithExportFile creates a temporary artifact in dir, fills it with write,
// hands the reopened file to send, and removes it on every path. A failed
// write returns before send is called, so nothing reaches the client.
// Removal failures are not reported to the caller.
func WithExportFile(dir, pattern string, logger *slog.Logger, write func(io.Writer) error, send func(*os.File) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	name := tmp.Name()
	defer func() {
		if rmErr := os.Remove(name); rmErr != nil {
			logger.Debug("export cleanup failed", "file", name, "error", rmErr)
		}
	}()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	rf, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("reopen export file: %w", err)
	}
	defer rf.Close()
	return send(rf)
}
