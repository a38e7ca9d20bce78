package appointment

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these, so callers can
// branch on the kind with errors.Is and on the specific case with the
// sentinels below.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrConflict       = errors.New("conflict")
	ErrForbidden      = errors.New("forbidden")
)

// Error is a domain error: a kind, a stable code and a user-facing message.
// Two Errors match under errors.Is when their codes match, so a message built
// with Withf still matches its sentinel.
type Error struct {
	Kind error
	Code string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) Withf(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Msg: fmt.Sprintf(format, args...)}
}

var (
	ErrDoctorNotFound      = &Error{ErrNotFound, "doctor_not_found", "doctor not found or not available"}
	ErrAppointmentNotFound = &Error{ErrNotFound, "appointment_not_found", "appointment not found"}
	ErrSlotNotFound        = &Error{ErrNotFound, "slot_not_found", "slot not found"}

	ErrPastDate            = &Error{ErrInvalidRequest, "past_date", "cannot book appointment for past dates"}
	ErrBeyondHorizon       = &Error{ErrInvalidRequest, "beyond_horizon", "cannot book appointment more than 3 months in advance"}
	ErrDoctorUnavailable   = &Error{ErrInvalidRequest, "doctor_unavailable", "doctor is not available on this day"}
	ErrOutsideWorkingHours = &Error{ErrInvalidRequest, "outside_working_hours", "appointment time is outside working hours"}
	ErrInvalidDuration     = &Error{ErrInvalidRequest, "invalid_duration", "duration must be between 15 and 120 minutes"}
	ErrInvalidSlot         = &Error{ErrInvalidRequest, "invalid_slot", "invalid slot"}
	ErrSlotMismatch        = &Error{ErrInvalidRequest, "slot_mismatch", "slot does not match the appointment's doctor, date and time"}
	ErrInvalidStatusChange = &Error{ErrInvalidRequest, "invalid_status_transition", "invalid status transition"}
	ErrCancellationDenied  = &Error{ErrInvalidRequest, "cancellation_not_allowed", "appointment cannot be cancelled"}

	ErrTimeConflict     = &Error{ErrConflict, "time_conflict", "selected time slot is not available"}
	ErrDuplicateSameDay = &Error{ErrConflict, "duplicate_same_day", "you already have an appointment with this doctor on the same day"}
	ErrCalendarBusy     = &Error{ErrConflict, "calendar_busy", "the doctor's calendar is being updated, please retry"}
	ErrSlotUnavailable  = &Error{ErrConflict, "slot_unavailable", "slot is not available"}
	ErrSlotFull         = &Error{ErrConflict, "slot_full", "slot is fully booked"}

	ErrNotParticipant = &Error{ErrForbidden, "not_participant", "you are not a participant of this appointment"}
	ErrStaffOnly      = &Error{ErrForbidden, "staff_only", "only receptionists and admins can do this"}
)

// KindOf returns the kind err wraps, or nil for infrastructure errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrInvalidRequest, ErrConflict, ErrForbidden} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Code returns the stable code of a domain error, or "internal_error".
func Code(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "internal_error"
}
