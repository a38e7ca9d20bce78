package appointment

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

func paidAppointment(date calendar.Date, at calendar.Clock) *Appointment {
	return &Appointment{
		ID:       uuid.New(),
		Date:     date,
		Time:     at,
		Duration: 30,
		Status:   StatusConfirmed,
		Payment:  Payment{Amount: decimal.NewFromInt(800), Status: PaymentPaid},
	}
}

func TestRefundTiers(t *testing.T) {
	appt := paidAppointment(monday.AddDays(2), calendar.NewClock(10, 0))
	start := appt.StartsAt(time.UTC)

	tests := []struct {
		name    string
		before  time.Duration
		allowed bool
		refund  decimal.Decimal
	}{
		{"25 hours out", 25 * time.Hour, true, decimal.NewFromInt(800)},
		{"exactly 24 hours out", 24 * time.Hour, true, decimal.NewFromInt(800)},
		{"10 hours out", 10 * time.Hour, true, decimal.NewFromInt(400)},
		{"exactly 2 hours out", 2 * time.Hour, true, decimal.NewFromInt(400)},
		{"1 hour out", time.Hour, false, decimal.Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := start.Add(-tt.before)
			assert.Equal(t, tt.allowed, CanCancel(appt, now, time.UTC).Allowed)
			assert.True(t, tt.refund.Equal(CalculateRefund(appt, now, time.UTC)), "got %s", CalculateRefund(appt, now, time.UTC))
		})
	}
}

func TestCancelOneHourOutIsDenied(t *testing.T) {
	appt := paidAppointment(monday, calendar.NewClock(10, 0))
	now := appt.StartsAt(time.UTC).Add(-time.Hour)

	_, err := appt.Cancel(uuid.New(), "", now, time.UTC)
	require.ErrorIs(t, err, ErrCancellationDenied)
	assert.Contains(t, err.Error(), "less than 2 hours")
	assert.Equal(t, StatusConfirmed, appt.Status)
}

func TestCancelPaidMarksRefunded(t *testing.T) {
	appt := paidAppointment(monday.AddDays(3), calendar.NewClock(10, 0))
	slot := uuid.New()
	appt.SlotID = &slot
	by := uuid.New()
	now := appt.StartsAt(time.UTC).Add(-48 * time.Hour)

	refund, err := appt.Cancel(by, "", now, time.UTC)
	require.NoError(t, err)
	assert.True(t, refund.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, StatusCancelled, appt.Status)
	assert.Equal(t, PaymentRefunded, appt.Payment.Status)
	require.NotNil(t, appt.Cancellation)
	assert.Equal(t, "Cancelled by user", appt.Cancellation.Reason)
	assert.Equal(t, by, appt.Cancellation.CancelledBy)
	assert.Nil(t, appt.SlotID)
}

func TestRefundUnpaidIsZero(t *testing.T) {
	appt := paidAppointment(monday.AddDays(5), calendar.NewClock(10, 0))
	appt.Payment.Status = PaymentPending

	assert.True(t, CalculateRefund(appt, appt.StartsAt(time.UTC).Add(-72*time.Hour), time.UTC).IsZero())
}

func TestCanCancelCitesStatus(t *testing.T) {
	now := monday.In(time.UTC)
	for _, st := range []Status{StatusCompleted, StatusCancelled, StatusNoShow, StatusRejected} {
		appt := paidAppointment(monday.AddDays(10), calendar.NewClock(10, 0))
		appt.Status = st

		d := CanCancel(appt, now, time.UTC)
		assert.False(t, d.Allowed)
		assert.Contains(t, d.Reason, string(st))
	}

	appt := paidAppointment(monday.AddDays(10), calendar.NewClock(10, 0))
	appt.Status = StatusInProgress
	assert.Contains(t, CanCancel(appt, now, time.UTC).Reason, "in progress")
}

func TestTransitionGuards(t *testing.T) {
	by := uuid.New()
	now := time.Now()

	for _, st := range AllStatuses {
		a := &Appointment{Status: st}
		err := a.Confirm(by, now)
		if st == StatusPending {
			assert.NoError(t, err)
			assert.Equal(t, StatusConfirmed, a.Status)
			assert.Equal(t, &by, a.LastModifiedBy)
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidStatusChange, st)
		assert.ErrorIs(t, err, ErrInvalidRequest, st)
	}

	for _, st := range AllStatuses {
		a := &Appointment{Status: st}
		err := a.Reject(by, "", now)
		if st == StatusPending {
			require.NoError(t, err)
			assert.Equal(t, "Rejected by receptionist", a.Cancellation.Reason)
			assert.True(t, a.Cancellation.RefundAmount.IsZero())
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidStatusChange, st)
	}

	a := &Appointment{Status: StatusPending}
	assert.ErrorIs(t, a.Start(by, now), ErrInvalidStatusChange)
	require.NoError(t, a.Confirm(by, now))
	require.NoError(t, a.Start(by, now))
	require.NoError(t, a.Complete(by, now))
	assert.ErrorIs(t, a.MarkNoShow(by, now), ErrInvalidStatusChange)
}

func TestFindOverlapping(t *testing.T) {
	at := func(h, m int, st Status) Appointment {
		return Appointment{ID: uuid.New(), Time: calendar.NewClock(h, m), Duration: 30, Status: st}
	}
	ten := at(10, 0, StatusConfirmed)
	existing := []Appointment{
		ten,
		at(11, 0, StatusCancelled),
		at(12, 0, StatusNoShow),
		at(13, 0, StatusRejected),
	}

	hits := FindOverlapping(existing, calendar.NewInterval(calendar.NewClock(10, 15), 30), nil)
	require.Len(t, hits, 1)
	assert.Equal(t, ten.ID, hits[0].ID)

	assert.Empty(t, FindOverlapping(existing, calendar.NewInterval(calendar.NewClock(10, 30), 30), nil), "back-to-back")
	assert.Empty(t, FindOverlapping(existing, calendar.NewInterval(calendar.NewClock(10, 15), 30), &ten.ID), "excluded")
	assert.Empty(t, FindOverlapping(existing, calendar.NewInterval(calendar.NewClock(11, 0), 30), nil), "cancelled frees time")
	assert.Empty(t, FindOverlapping(existing, calendar.NewInterval(calendar.NewClock(12, 0), 30), nil), "no-show frees time")
	assert.Len(t, FindOverlapping(existing, calendar.NewInterval(calendar.NewClock(13, 0), 30), nil), 1, "rejected still occupies")
}

func TestScheduleFor(t *testing.T) {
	d := &Doctor{Schedule: []DaySchedule{
		{Day: calendar.Monday, Start: calendar.NewClock(8, 0), End: calendar.NewClock(9, 0), Available: false},
		{Day: calendar.Monday, Start: calendar.NewClock(9, 0), End: calendar.NewClock(12, 0), Available: true},
	}}

	s, ok := ScheduleFor(d, monday)
	require.True(t, ok)
	assert.Equal(t, calendar.NewClock(9, 0), s.Start)

	_, ok = ScheduleFor(d, monday.AddDays(1))
	assert.False(t, ok)
}

func TestPartitionSchedule(t *testing.T) {
	s := DaySchedule{Start: calendar.NewClock(9, 0), End: calendar.NewClock(10, 45)}

	spans := PartitionSchedule(s, SlotMinutes)
	require.Len(t, spans, 4)
	assert.Equal(t, calendar.NewClock(9, 0), spans[0].Start)
	assert.Equal(t, calendar.NewClock(10, 30), spans[3].Start)
	assert.Equal(t, calendar.NewClock(11, 0), spans[3].End)

	assert.Empty(t, PartitionSchedule(DaySchedule{Start: calendar.NewClock(9, 0), End: calendar.NewClock(9, 0)}, SlotMinutes))
}

func TestErrorKinds(t *testing.T) {
	err := ErrDoctorUnavailable.Withf("doctor is not available on %s", calendar.Sunday)

	assert.ErrorIs(t, err, ErrDoctorUnavailable)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.NotErrorIs(t, err, ErrOutsideWorkingHours)
	assert.Equal(t, ErrInvalidRequest, KindOf(err))
	assert.Equal(t, "doctor_unavailable", Code(err))

	assert.Nil(t, KindOf(errors.New("boom")))
	assert.Equal(t, "internal_error", Code(errors.New("boom")))
}

func TestSlotStatus(t *testing.T) {
	appt := uuid.New()
	s := Slot{Start: calendar.NewClock(9, 0), End: calendar.NewClock(9, 30), MaxPatients: 2, Available: true}
	assert.Equal(t, SlotAvailableStatus, s.Status())

	s.BookedPatients, s.AppointmentID = 1, &appt
	assert.Equal(t, SlotBookedStatus, s.Status())

	s.BookedPatients = 2
	assert.Equal(t, SlotFullStatus, s.Status())

	s.Available = false
	assert.Equal(t, SlotUnavailableStatus, s.Status())

	s.Blocked = true
	assert.Equal(t, SlotBlockedStatus, s.Status())
}

func TestSlotValidate(t *testing.T) {
	ok := Slot{Start: calendar.NewClock(9, 0), End: calendar.NewClock(9, 30), MaxPatients: 1}
	require.NoError(t, ok.Validate())
	assert.Equal(t, 30, ok.Duration)

	short := Slot{Start: calendar.NewClock(9, 0), End: calendar.NewClock(9, 10), MaxPatients: 1}
	assert.ErrorIs(t, short.Validate(), ErrInvalidSlot)

	crowded := Slot{Start: calendar.NewClock(9, 0), End: calendar.NewClock(9, 30), MaxPatients: 6}
	assert.ErrorIs(t, crowded.Validate(), ErrInvalidSlot)
}
