package attendance

import (
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// SubmitForm mirrors the fields posted by the kiosk form.
type SubmitForm struct {
	EmployeeID   string `form:"emp_id" validate:"required"`
	EmployeeName string `form:"emp_name" validate:"required"`
	Department   string `form:"department" validate:"required"`
	Action       string `form:"action" validate:"required,oneof=in out"`
}

// Outcome is the result of an accepted submission.
type Outcome struct {
	Event   Event
	Message string
}

type Summary struct {
	CheckIns  int `json:"checkInCount"`
	CheckOuts int `json:"checkOutCount"`
}

// RecordView is an Event as shown on the daily page.
type RecordView struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	Department   string `json:"department"`
	Action       Action `json:"action"`
	Timestamp    string `json:"timestamp"`
}

type Flash struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// DailyView is the response body of GET /.
type DailyView struct {
	Date    openapi_types.Date `json:"date"`
	Records []RecordView       `json:"records"`
	Summary
	Flash *Flash `json:"flash,omitempty"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	CorrID    string `json:"corrId,omitempty"`
	Retryable bool   `json:"retryable"`
}

func toRecordViews(events []Event) []RecordView {
	views := make([]RecordView, 0, len(events))
	for _, ev := range events {
		views = append(views, RecordView{
			EmployeeID:   ev.EmployeeID,
			EmployeeName: ev.EmployeeName,
			Department:   ev.Department,
			Action:       ev.Action,
			Timestamp:    ev.Timestamp.Format(TimestampLayout),
		})
	}
	return views
}
