package attendance

import (
	"errors"
	"fmt"
	"time"
)

// Action is the literal written to the Action column of the log.
type Action string

const (
	CheckIn  Action = "Check-in"
	CheckOut Action = "Check-out"
)

// TimestampLayout is the on-disk timestamp format, second precision.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout names a calendar day in filenames and JSON.
const DateLayout = "2006-01-02"

// Header is the fixed first row of the log and of every CSV export.
var Header = []string{"Employee ID", "Employee Name", "Department", "Action", "Timestamp"}

// Event is one appended attendance record.
type Event struct {
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName"`
	Department   string    `json:"department"`
	Action       Action    `json:"action"`
	Timestamp    time.Time `json:"-"`
}

// Record returns the event as a row in Header order.
func (e Event) Record() []string {
	return []string{e.EmployeeID, e.EmployeeName, e.Department, string(e.Action), e.Timestamp.Format(TimestampLayout)}
}

// ParseAction accepts the log literals only.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case CheckIn, CheckOut:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Rejections. Every one of them wraps ErrRejected.
var (
	ErrRejected         = errors.New("submission rejected")
	ErrMissingField     = rejection("missing required field")
	ErrInvalidAction    = rejection("action must be in or out")
	ErrNoPriorCheckIn   = rejection("no prior check-in")
	ErrAlreadyCheckedIn = rejection("already checked in")
)

type rejectionError struct {
	reason string
}

func rejection(reason string) error {
	return &rejectionError{reason: reason}
}

func (e *rejectionError) Error() string { return e.reason }

func (e *rejectionError) Unwrap() error { return ErrRejected }

// StorageError reports a failure of the durable log. It is never recovered.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("attendance log %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("attendance log %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
