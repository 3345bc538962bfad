package attendance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ErrPDFDisabled is returned for PDF exports when PDFEnabled is off.
var ErrPDFDisabled = errors.New("pdf export is disabled")

type pdfRenderer interface {
	Render(ctx context.Context, day time.Time, records []Event) ([]byte, error)
}

// Service wires the event log, the rules and the daily view together. It
// knows nothing about HTTP.
type Service struct {
	cfg    Config
	log    EventLog
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
	pdf    pdfRenderer
}

type Option func(*Service)

// WithClock replaces time.Now, which stamps events and decides "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func withPDFRenderer(r pdfRenderer) Option {
	return func(s *Service) { s.pdf = r }
}

func NewService(cfg Config, log EventLog, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		cfg:    cfg,
		log:    log,
		logger: logger,
		loc:    time.Local,
		now:    time.Now,
		pdf:    NewPDFRenderer(cfg),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

// Submit validates a form against the full history and appends it when legal.
// Rejections wrap ErrRejected and leave the log untouched.
func (s *Service) Submit(ctx context.Context, form SubmitForm) (Outcome, error) {
	sub, err := ValidateSubmission(form)
	if err != nil {
		return Outcome{}, err
	}
	events, err := s.log.ScanAll(ctx)
	if err != nil {
		return Outcome{}, err
	}
	last, ok := LastActionFor(sub.EmployeeID, events)
	if err := Validate(sub.Action, last, ok); err != nil {
		return Outcome{}, err
	}

	ev := Event{
		EmployeeID:   sub.EmployeeID,
		EmployeeName: sub.EmployeeName,
		Department:   sub.Department,
		Action:       sub.Action,
		Timestamp:    s.today().Truncate(time.Second),
	}
	if err := s.log.Append(ctx, ev); err != nil {
		return Outcome{}, err
	}
	return Outcome{Event: ev, Message: outcomeMessage(ev)}, nil
}

func outcomeMessage(ev Event) string {
	verb := "checked in"
	if ev.Action == CheckOut {
		verb = "checked out"
	}
	return fmt.Sprintf("%s (%s) %s at %s", ev.EmployeeName, ev.EmployeeID, verb, ev.Timestamp.Format(TimestampLayout))
}

// Today returns today's records and counts.
func (s *Service) Today(ctx context.Context) (DailyView, error) {
	day := s.today()
	records, err := s.todayRecords(ctx, day)
	if err != nil {
		return DailyView{}, err
	}
	return DailyView{
		Date:    openapi_types.Date{Time: day},
		Records: toRecordViews(records),
		Summary: Summarize(records),
	}, nil
}

func (s *Service) todayRecords(ctx context.Context, day time.Time) ([]Event, error) {
	events, err := s.log.ScanAll(ctx)
	if err != nil {
		return nil, err
	}
	return TodayRecords(events, day), nil
}

// Export encodes today's records into a temporary file and passes it to send
// with its download name. The file is removed once send returns.
func (s *Service) Export(ctx context.Context, format ExportFormat, send func(filename string, f *os.File) error) error {
	if format == FormatPDF && !s.cfg.PDFEnabled {
		return ErrPDFDisabled
	}
	day := s.today()
	records, err := s.todayRecords(ctx, day)
	if err != nil {
		return err
	}
	filename := ExportFilename(day, format)

	write := func(w io.Writer) error {
		switch format {
		case FormatXLSX:
			return WriteXLSX(w, records)
		case FormatPDF:
			body, err := s.pdf.Render(ctx, day, records)
			if err != nil {
				return err
			}
			_, err = w.Write(body)
			return err
		default:
			return WriteCSV(w, records)
		}
	}
	return WithExportFile(s.cfg.ExportDir, "attendance-export-*."+string(format), s.logger, write, func(f *os.File) error {
		return send(filename, f)
	})
}
