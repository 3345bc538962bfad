package attendance

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PDFRenderer prints the daily sheet via headless Chromium.
type PDFRenderer struct {
	cfg Config
}

func NewPDFRenderer(cfg Config) PDFRenderer {
	return PDFRenderer{cfg: cfg}
}

// Render builds the daily sheet HTML and prints it to PDF. If Chromium is
// unavailable it returns an error before anything is sent to the client.
func (r PDFRenderer) Render(ctx context.Context, day time.Time, records []Event) ([]byte, error) {
	html, err := r.renderHTML(day, records)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if r.cfg.PDFChromiumPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.cfg.PDFChromiumPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	timeout := r.cfg.PDFTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	runCtx, cancelRun := chromedp.NewContext(allocCtx)
	defer cancelRun()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, timeout)
	defer cancelTimeout()

	var pdfBuf []byte
	dataURL := "data:text/html," + url.PathEscape(html)
	err = chromedp.Run(runCtx,
		chromedp.Navigate(dataURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, perr := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if perr == nil {
				pdfBuf = buf
			}
			return perr
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp run failed: %w", err)
	}
	return pdfBuf, nil
}

type sheetData struct {
	Date    string
	Records []RecordView
	Summary Summary
	Printed string
}

func (r PDFRenderer) renderHTML(day time.Time, records []Event) (string, error) {
	var buf bytes.Buffer
	err := sheetTemplate.Execute(&buf, sheetData{
		Date:    day.Format(DateLayout),
		Records: toRecordViews(records),
		Summary: Summarize(records),
		Printed: time.Now().In(day.Location()).Format(TimestampLayout),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

var sheetTemplate = template.Must(template.New("sheet").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <style>
    body { font-family: 'Helvetica Neue', Arial, sans-serif; margin: 24px; color: #0f172a; }
    h1 { margin: 0 0 8px; }
    .meta { display: flex; justify-content: space-between; margin-bottom: 16px; }
    .label { font-size: 12px; color: #475569; }
    .value { font-size: 14px; margin-bottom: 4px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { padding: 8px; border-bottom: 1px solid #e2e8f0; text-align: left; }
    th { background: #f8fafc; }
  </style>
</head>
<body>
  <div class="meta">
    <h1>Attendance {{.Date}}</h1>
    <div style="text-align:right">
      <div class="label">Check-ins</div>
      <div class="value">{{.Summary.CheckIns}}</div>
      <div class="label">Check-outs</div>
      <div class="value">{{.Summary.CheckOuts}}</div>
      <div class="label">Printed</div>
      <div class="value">{{.Printed}}</div>
    </div>
  </div>
  <table>
    <thead>
      <tr><th>Employee ID</th><th>Employee Name</th><th>Department</th><th>Action</th><th>Timestamp</th></tr>
    </thead>
    <tbody>
    {{range .Records}}
      <tr><td>{{.EmployeeID}}</td><td>{{.EmployeeName}}</td><td>{{.Department}}</td><td>{{.Action}}</td><td>{{.Timestamp}}</td></tr>
    {{end}}
    </tbody>
  </table>
</body>
</html>
`))
