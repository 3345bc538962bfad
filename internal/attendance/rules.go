package attendance

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Submission is a form that passed field validation.
type Submission struct {
	EmployeeID   string
	EmployeeName string
	Department   string
	Action       Action
}

// ValidateSubmission trims the form and checks field presence before any
// sequencing rule is consulted.
func ValidateSubmission(form SubmitForm) (Submission, error) {
	form.EmployeeID = strings.TrimSpace(form.EmployeeID)
	form.EmployeeName = strings.TrimSpace(form.EmployeeName)
	form.Department = strings.TrimSpace(form.Department)
	form.Action = strings.ToLower(strings.TrimSpace(form.Action))

	if err := validate.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Submission{}, err
		}
		for _, fe := range fieldErrs {
			if fe.Tag() == "required" {
				return Submission{}, ErrMissingField
			}
		}
		return Submission{}, ErrInvalidAction
	}

	action := CheckIn
	if form.Action == "out" {
		action = CheckOut
	}
	return Submission{
		EmployeeID:   form.EmployeeID,
		EmployeeName: form.EmployeeName,
		Department:   form.Department,
		Action:       action,
	}, nil
}

// LastActionFor returns the action of the most recent event for employeeID
// across the whole history. ok is false when the employee has never appeared.
func LastActionFor(employeeID string, events []Event) (last Action, ok bool) {
	for _, ev := range events {
		if ev.EmployeeID == employeeID {
			last, ok = ev.Action, true
		}
	}
	return last, ok
}

// Validate decides whether requested may follow last. An employee with no
// history has ok == false and is treated as checked out.
func Validate(requested, last Action, ok bool) error {
	checkedIn := ok && last == CheckIn
	switch requested {
	case CheckOut:
		if !checkedIn {
			return ErrNoPriorCheckIn
		}
	case CheckIn:
		if checkedIn {
			return ErrAlreadyCheckedIn
		}
	default:
		return ErrInvalidAction
	}
	return nil
}
