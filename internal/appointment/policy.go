package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

const (
	DefaultDuration      = 30 // minutes
	SlotMinutes          = 30
	MinDuration          = 15
	MaxDuration          = 120
	MaxPatientsPerSlot   = 5
	BookingHorizonMonths = 3

	CancellationCutoff = 2 * time.Hour
	FullRefundWindow   = 24 * time.Hour
)

var halfRefund = decimal.NewFromFloat(0.5)

// ScheduleFor returns the first available weekly entry for the weekday of date.
func ScheduleFor(d *Doctor, date calendar.Date) (DaySchedule, bool) {
	day := date.Weekday()
	for _, s := range d.Schedule {
		if s.Day == day && s.Available {
			return s, true
		}
	}
	return DaySchedule{}, false
}

// PartitionSchedule splits a working window into fixed spans. A span starts
// at every step strictly before the window end; the last one may run past it.
func PartitionSchedule(s DaySchedule, spanMinutes int) []calendar.Interval {
	if spanMinutes <= 0 || s.End <= s.Start {
		return nil
	}
	var spans []calendar.Interval
	for t := s.Start; t < s.End; t = t.Add(spanMinutes) {
		spans = append(spans, calendar.NewInterval(t, spanMinutes))
	}
	return spans
}

// FindOverlapping returns the appointments in existing that still occupy the
// calendar and overlap candidate. excludeID, when set, is skipped.
func FindOverlapping(existing []Appointment, candidate calendar.Interval, excludeID *uuid.UUID) []Appointment {
	var out []Appointment
	for _, a := range existing {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if !a.Status.OccupiesCalendar() {
			continue
		}
		if a.Interval().Overlaps(candidate) {
			out = append(out, a)
		}
	}
	return out
}

// Decision is the outcome of an eligibility check.
type Decision struct {
	Allowed bool
	Reason  string
}

// CanCancel decides whether a patient-facing cancellation is allowed at now.
func CanCancel(a *Appointment, now time.Time, loc *time.Location) Decision {
	switch a.Status {
	case StatusCancelled, StatusCompleted, StatusNoShow, StatusRejected:
		return Decision{Reason: "appointment is already " + string(a.Status)}
	case StatusInProgress:
		return Decision{Reason: "cannot cancel appointment in progress"}
	case StatusPending, StatusConfirmed:
	}

	if a.StartsAt(loc).Sub(now) < CancellationCutoff {
		return Decision{Reason: "cannot cancel appointment less than 2 hours before scheduled time"}
	}
	return Decision{Allowed: true}
}

// CalculateRefund returns the amount refunded if a paid appointment were
// cancelled at now: all of it from 24 hours out, half from 2 hours out.
func CalculateRefund(a *Appointment, now time.Time, loc *time.Location) decimal.Decimal {
	if a.Payment.Status != PaymentPaid {
		return decimal.Zero
	}

	left := a.StartsAt(loc).Sub(now)
	switch {
	case left >= FullRefundWindow:
		return a.Payment.Amount
	case left >= CancellationCutoff:
		return a.Payment.Amount.Mul(halfRefund)
	}
	return decimal.Zero
}

func (a *Appointment) touch(by uuid.UUID, now time.Time) {
	actor := by
	a.LastModifiedBy = &actor
	a.UpdatedAt = now
}

func (a *Appointment) Confirm(by uuid.UUID, now time.Time) error {
	if a.Status != StatusPending {
		return ErrInvalidStatusChange.Withf("only pending appointments can be confirmed (status is %s)", a.Status)
	}
	a.Status = StatusConfirmed
	a.touch(by, now)
	return nil
}

// Reject records who declined a pending request and detaches its slot.
// Nothing was charged yet, so no refund is computed.
func (a *Appointment) Reject(by uuid.UUID, reason string, now time.Time) error {
	if a.Status != StatusPending {
		return ErrInvalidStatusChange.Withf("only pending appointments can be rejected (status is %s)", a.Status)
	}
	if reason == "" {
		reason = "Rejected by receptionist"
	}
	a.Status = StatusRejected
	a.Cancellation = &Cancellation{
		Reason:       reason,
		CancelledBy:  by,
		CancelledAt:  now,
		RefundAmount: decimal.Zero,
	}
	a.SlotID = nil
	a.touch(by, now)
	return nil
}

// Cancel applies CanCancel and CalculateRefund against the same snapshot and
// returns the refund.
func (a *Appointment) Cancel(by uuid.UUID, reason string, now time.Time, loc *time.Location) (decimal.Decimal, error) {
	decision := CanCancel(a, now, loc)
	if !decision.Allowed {
		return decimal.Zero, ErrCancellationDenied.Withf("%s", decision.Reason)
	}

	refund := CalculateRefund(a, now, loc)
	if reason == "" {
		reason = "Cancelled by user"
	}
	a.Status = StatusCancelled
	a.Cancellation = &Cancellation{
		Reason:       reason,
		CancelledBy:  by,
		CancelledAt:  now,
		RefundAmount: refund,
	}
	if refund.IsPositive() && a.Payment.Status == PaymentPaid {
		a.Payment.Status = PaymentRefunded
	}
	a.SlotID = nil
	a.touch(by, now)
	return refund, nil
}

func (a *Appointment) Start(by uuid.UUID, now time.Time) error {
	if a.Status != StatusConfirmed {
		return ErrInvalidStatusChange.Withf("only confirmed appointments can be started (status is %s)", a.Status)
	}
	a.Status = StatusInProgress
	a.touch(by, now)
	return nil
}

func (a *Appointment) Complete(by uuid.UUID, now time.Time) error {
	if a.Status != StatusInProgress {
		return ErrInvalidStatusChange.Withf("only appointments in progress can be completed (status is %s)", a.Status)
	}
	a.Status = StatusCompleted
	a.touch(by, now)
	return nil
}

func (a *Appointment) MarkNoShow(by uuid.UUID, now time.Time) error {
	if a.Status.IsTerminal() {
		return ErrInvalidStatusChange.Withf("appointment is already %s", a.Status)
	}
	a.Status = StatusNoShow
	a.SlotID = nil
	a.touch(by, now)
	return nil
}
