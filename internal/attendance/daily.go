package attendance

import (
	"fmt"
	"time"
)

// TodayRecords keeps the events stamped on day's calendar date, in day's
// location, preserving log order.
func TodayRecords(events []Event, day time.Time) []Event {
	y, m, d := day.Date()
	out := make([]Event, 0)
	for _, ev := range events {
		ey, em, ed := ev.Timestamp.In(day.Location()).Date()
		if ey == y && em == m && ed == d {
			out = append(out, ev)
		}
	}
	return out
}

func Summarize(records []Event) Summary {
	var s Summary
	for _, ev := range records {
		switch ev.Action {
		case CheckIn:
			s.CheckIns++
		case CheckOut:
			s.CheckOuts++
		}
	}
	return s
}

// ExportFormat selects the encoding of GET /export.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatPDF  ExportFormat = "pdf"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, FormatPDF:
		return ExportFormat(s), nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f ExportFormat) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// ExportFilename is attendance_<YYYY-MM-DD>.<ext>.
func ExportFilename(day time.Time, format ExportFormat) string {
	return fmt.Sprintf("attendance_%s.%s", day.Format(DateLayout), format)
}
