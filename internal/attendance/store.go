package attendance

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// EventLog is the append-only durable sequence of attendance events.
type EventLog interface {
	// EnsureInitialized creates the store with its header if it is absent.
	EnsureInitialized(ctx context.Context) error
	// Append adds ev as the new last record.
	Append(ctx context.Context, ev Event) error
	// ScanAll returns every appended event, oldest first.
	ScanAll(ctx context.Context) ([]Event, error)
}

// CSVLog keeps the log as a flat CSV file. Calls are serialized within the
// process; nothing coordinates writers in other processes.
type CSVLog struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
}

// NewCSVLog returns a log at path whose timestamps are read in loc.
func NewCSVLog(path string, loc *time.Location) *CSVLog {
	if loc == nil {
		loc = time.Local
	}
	return &CSVLog{path: path, loc: loc}
}

func (l *CSVLog) Path() string { return l.path }

func (l *CSVLog) EnsureInitialized(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureLocked()
}

func (l *CSVLog) ensureLocked() error {
	if info, err := os.Stat(l.path); err == nil {
		if info.Size() > 0 {
			return nil
		}
		// An empty file gets its header before the first row.
		f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0)
		if err != nil {
			return &StorageError{Op: "open", Path: l.path, Err: err}
		}
		return l.writeHeader(f)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &StorageError{Op: "stat", Path: l.path, Err: err}
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &StorageError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return &StorageError{Op: "create", Path: l.path, Err: err}
	}
	return l.writeHeader(f)
}

func (l *CSVLog) writeHeader(f *os.File) error {
	if err := writeRows(f, [][]string{Header}); err != nil {
		_ = f.Close()
		return &StorageError{Op: "write header", Path: l.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &StorageError{Op: "close", Path: l.path, Err: err}
	}
	return nil
}

func (l *CSVLog) Append(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureLocked(); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return &StorageError{Op: "open", Path: l.path, Err: err}
	}
	if err := writeRows(f, [][]string{ev.Record()}); err != nil {
		_ = f.Close()
		return &StorageError{Op: "append", Path: l.path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &StorageError{Op: "close", Path: l.path, Err: err}
	}
	return nil
}

func (l *CSVLog) ScanAll(ctx context.Context) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Event{}, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "open", Path: l.path, Err: err}
	}
	defer f.Close()

	events, err := readEvents(f, l.loc)
	if err != nil {
		return nil, &StorageError{Op: "scan", Path: l.path, Err: err}
	}
	return events, nil
}

// writeRows writes CSV rows and syncs them to disk.
func writeRows(f *os.File, rows [][]string) error {
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

func readEvents(r io.Reader, loc *time.Location) ([]Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	events := []Event{}
	first := true
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if first {
			first = false
			if !slices.Equal(rec, Header) {
				return nil, fmt.Errorf("line %d: unexpected header %q", line, rec)
			}
			continue
		}
		ev, err := parseRecord(rec, loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
}

func parseRecord(rec []string, loc *time.Location) (Event, error) {
	action, err := ParseAction(rec[3])
	if err != nil {
		return Event{}, err
	}
	ts, err := time.ParseInLocation(TimestampLayout, rec[4], loc)
	if err != nil {
		return Event{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	return Event{
		EmployeeID:   rec[0],
		EmployeeName: rec[1],
		Department:   rec[2],
		Action:       action,
		Timestamp:    ts,
	}, nil
}

// MemoryLog is an EventLog held in memory, for tests and throwaway runs.
type MemoryLog struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryLog(events ...Event) *MemoryLog {
	return &MemoryLog{events: slices.Clone(events)}
}

func (m *MemoryLog) EnsureInitialized(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryLog) Append(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *MemoryLog) ScanAll(ctx context.Context) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out, nil
}
