package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/events"
)

func TestBookAppointmentCreatesPending(t *testing.T) {
	f := newFixture(t)
	patient := uuid.New()

	appt := f.book(t, patient, monday.AddDays(1), 10, 0)

	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, DefaultDuration, appt.Duration)
	assert.Equal(t, PriorityMedium, appt.Priority)
	assert.Equal(t, TypeConsultation, appt.Type)
	assert.True(t, appt.Payment.Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, PaymentPending, appt.Payment.Status)
	assert.Equal(t, patient, appt.CreatedBy)

	assert.Equal(t, []string{events.AppointmentBooked}, f.published.Types())
	require.Len(t, f.repo.Events(), 1)
	assert.Equal(t, events.AppointmentBooked, f.repo.Events()[0].EventType)
}

func TestBookAppointmentOverlap(t *testing.T) {
	f := newFixture(t)
	tuesday := monday.AddDays(1)

	f.book(t, uuid.New(), tuesday, 10, 0)

	_, err := f.svc.BookAppointment(context.Background(), f.request(uuid.New(), tuesday, 10, 15))
	assert.ErrorIs(t, err, ErrTimeConflict)
	assert.ErrorIs(t, err, ErrConflict)

	f.book(t, uuid.New(), tuesday, 10, 30)
}

func TestBookAppointmentDateBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.BookAppointment(ctx, f.request(uuid.New(), monday.AddDays(-1), 10, 0))
	assert.ErrorIs(t, err, ErrPastDate)

	_, err = f.svc.BookAppointment(ctx, f.request(uuid.New(), monday.AddMonths(3).AddDays(1), 10, 0))
	assert.ErrorIs(t, err, ErrBeyondHorizon)

	// 2027-01-19 is a Tuesday.
	f.book(t, uuid.New(), monday.AddMonths(3), 10, 0)
	f.book(t, uuid.New(), monday, 10, 0)
}

func TestBookAppointmentTodayIgnoresTimeOfDay(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC))

	// Earlier today, still inside working hours.
	appt := f.book(t, uuid.New(), monday, 10, 0)
	assert.Equal(t, StatusPending, appt.Status)

	f.book(t, uuid.New(), monday, 12, 30)

	_, err := f.svc.BookAppointment(context.Background(), f.request(uuid.New(), monday, 8, 0))
	assert.ErrorIs(t, err, ErrOutsideWorkingHours)
}

func TestBookAppointmentDoctorRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.request(uuid.New(), monday.AddDays(1), 10, 0)
	req.DoctorID = uuid.New()
	_, err := f.svc.BookAppointment(ctx, req)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	unverified := f.doctor
	unverified.ID = uuid.New()
	unverified.Verified = false
	f.repo.PutDoctor(unverified)
	req.DoctorID = unverified.ID
	_, err = f.svc.BookAppointment(ctx, req)
	assert.ErrorIs(t, err, ErrDoctorNotFound)

	saturday := monday.AddDays(5)
	_, err = f.svc.BookAppointment(ctx, f.request(uuid.New(), saturday, 10, 0))
	assert.ErrorIs(t, err, ErrDoctorUnavailable)
	assert.Contains(t, err.Error(), "saturday")

	_, err = f.svc.BookAppointment(ctx, f.request(uuid.New(), monday.AddDays(1), 8, 30))
	assert.ErrorIs(t, err, ErrOutsideWorkingHours)

	_, err = f.svc.BookAppointment(ctx, f.request(uuid.New(), monday.AddDays(1), 17, 30))
	assert.ErrorIs(t, err, ErrOutsideWorkingHours)

	// The end of the working window is itself bookable.
	f.book(t, uuid.New(), monday.AddDays(1), 17, 0)

	bad := f.request(uuid.New(), monday.AddDays(1), 11, 0)
	bad.Duration = 10
	_, err = f.svc.BookAppointment(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestBookAppointmentPrecheckOrder(t *testing.T) {
	f := newFixture(t)

	// Past date wins over the doctor being off that day.
	sunday := monday.AddDays(-1)
	_, err := f.svc.BookAppointment(context.Background(), f.request(uuid.New(), sunday, 10, 0))
	assert.ErrorIs(t, err, ErrPastDate)
}

func TestBookAppointmentSameDayDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patient := uuid.New()
	wednesday := monday.AddDays(2)

	first := f.book(t, patient, wednesday, 10, 0)

	_, err := f.svc.BookAppointment(ctx, f.request(patient, wednesday, 15, 0))
	assert.ErrorIs(t, err, ErrDuplicateSameDay)

	_, err = f.svc.CancelAppointment(ctx, patientActor(patient), first.ID, "")
	require.NoError(t, err)

	f.book(t, patient, wednesday, 15, 0)
}

func TestConcurrentBookingsAtMostOneWins(t *testing.T) {
	f := newFixture(t)
	thursday := monday.AddDays(3)

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		won     int
		refused int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.BookAppointment(context.Background(), f.request(uuid.New(), thursday, 10, (i%3)*10))

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
				return
			}
			if assert.ErrorIs(t, err, ErrConflict) {
				refused++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, n-1, refused)
}

func TestConfirmAndRejectGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patient := uuid.New()

	appt := f.book(t, patient, monday.AddDays(1), 10, 0)

	_, err := f.svc.ConfirmAppointment(ctx, patientActor(patient), appt.ID)
	assert.ErrorIs(t, err, ErrStaffOnly)
	assert.ErrorIs(t, err, ErrForbidden)

	confirmed, err := f.svc.ConfirmAppointment(ctx, f.desk, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, &f.desk.ID, confirmed.LastModifiedBy)

	_, err = f.svc.ConfirmAppointment(ctx, f.desk, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusChange)

	_, err = f.svc.RejectAppointment(ctx, f.desk, appt.ID, "doctor on leave")
	assert.ErrorIs(t, err, ErrInvalidStatusChange)

	_, err = f.svc.ConfirmAppointment(ctx, f.desk, uuid.New())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestRejectRecordsCancellation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tuesday := monday.AddDays(1)

	appt := f.book(t, uuid.New(), tuesday, 10, 0)

	rejected, err := f.svc.RejectAppointment(ctx, f.desk, appt.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	require.NotNil(t, rejected.Cancellation)
	assert.Equal(t, "Rejected by receptionist", rejected.Cancellation.Reason)
	assert.Equal(t, f.desk.ID, rejected.Cancellation.CancelledBy)
}

func TestCancelAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patient := uuid.New()

	// Tuesday 10:00 is 26 hours after the fixture clock.
	appt := f.book(t, patient, monday.AddDays(1), 10, 0)
	_, err := f.repo.UpdateAppointment(ctx, appt.ID, func(a *Appointment) error {
		a.Payment.Status = PaymentPaid
		return nil
	})
	require.NoError(t, err)

	_, err = f.svc.CancelAppointment(ctx, patientActor(uuid.New()), appt.ID, "")
	assert.ErrorIs(t, err, ErrNotParticipant)

	cancelled, err := f.svc.CancelAppointment(ctx, patientActor(patient), appt.ID, "feeling better")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.True(t, cancelled.Cancellation.RefundAmount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, PaymentRefunded, cancelled.Payment.Status)
	assert.Equal(t, "feeling better", cancelled.Cancellation.Reason)

	_, err = f.svc.CancelAppointment(ctx, patientActor(patient), appt.ID, "")
	assert.ErrorIs(t, err, ErrCancellationDenied)
}

func TestCancelCompletedCitesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patient := uuid.New()
	doctor := Actor{ID: f.doctor.ID, Role: RoleDoctor}

	appt := f.book(t, patient, monday.AddDays(1), 10, 0)
	_, err := f.svc.ConfirmAppointment(ctx, f.desk, appt.ID)
	require.NoError(t, err)

	_, err = f.svc.StartAppointment(ctx, Actor{ID: uuid.New(), Role: RoleDoctor}, appt.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.svc.StartAppointment(ctx, doctor, appt.ID)
	require.NoError(t, err)
	done, err := f.svc.CompleteAppointment(ctx, doctor, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)

	_, err = f.svc.CancelAppointment(ctx, patientActor(patient), appt.ID, "")
	require.ErrorIs(t, err, ErrCancellationDenied)
	assert.Contains(t, err.Error(), "completed")
}

func TestRescheduleAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patient := uuid.New()
	tuesday := monday.AddDays(1)

	appt := f.book(t, patient, tuesday, 10, 0)
	f.book(t, uuid.New(), tuesday, 11, 0)

	// Overlapping only itself is fine.
	moved, err := f.svc.RescheduleAppointment(ctx, patientActor(patient), RescheduleRequest{
		ID: appt.ID, Date: tuesday, Time: calendar.NewClock(10, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, calendar.NewClock(10, 15), moved.Time)

	_, err = f.svc.RescheduleAppointment(ctx, patientActor(patient), RescheduleRequest{
		ID: appt.ID, Date: tuesday, Time: calendar.NewClock(10, 45),
	})
	assert.ErrorIs(t, err, ErrTimeConflict)

	_, err = f.svc.RescheduleAppointment(ctx, patientActor(patient), RescheduleRequest{
		ID: appt.ID, Date: monday.AddDays(5), Time: calendar.NewClock(10, 0),
	})
	assert.ErrorIs(t, err, ErrDoctorUnavailable)

	moved, err = f.svc.RescheduleAppointment(ctx, patientActor(patient), RescheduleRequest{
		ID: appt.ID, Date: monday.AddDays(2), Time: calendar.NewClock(9, 0), Duration: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, monday.AddDays(2), moved.Date)
	assert.Equal(t, 45, moved.Duration)
	assert.Contains(t, f.published.Types(), events.AppointmentRescheduled)
}

func TestMarkStaleNoShows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	early := f.book(t, uuid.New(), monday, 9, 0)
	late := f.book(t, uuid.New(), monday, 11, 0)

	// 09:30 end + 1h grace has passed at 10:45; 11:30 + 1h has not.
	f.clock.Set(time.Date(2026, time.October, 19, 10, 45, 0, 0, time.UTC))

	marked, err := f.svc.MarkStaleNoShows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	got, err := f.repo.GetAppointment(ctx, early.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, got.Status)

	got, err = f.repo.GetAppointment(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	marked, err = f.svc.MarkStaleNoShows(ctx)
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestCreateManualAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tuesday := monday.AddDays(1)

	req := ManualBookingRequest{BookingRequest: f.request(uuid.New(), tuesday, 10, 0)}

	_, err := f.svc.CreateManualAppointment(ctx, patientActor(req.PatientID), req)
	assert.ErrorIs(t, err, ErrStaffOnly)

	appt, err := f.svc.CreateManualAppointment(ctx, f.desk, req)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, appt.Status)
	assert.Equal(t, TypeManual, appt.Type)
	assert.Equal(t, f.desk.ID, appt.CreatedBy)

	clash := ManualBookingRequest{BookingRequest: f.request(uuid.New(), tuesday, 10, 15)}
	clash.Type = TypeWalkIn
	_, err = f.svc.CreateManualAppointment(ctx, f.desk, clash)
	assert.ErrorIs(t, err, ErrTimeConflict)
}

func TestManualAppointmentReservesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tuesday := monday.AddDays(1)

	slots, err := f.svc.ListSlots(ctx, f.doctor.ID, tuesday)
	require.NoError(t, err)
	slot := slots[2] // 10:00

	req := ManualBookingRequest{BookingRequest: f.request(uuid.New(), tuesday, 10, 0), SlotID: &slot.ID}
	appt, err := f.svc.CreateManualAppointment(ctx, f.desk, req)
	require.NoError(t, err)
	assert.Equal(t, &slot.ID, appt.SlotID)

	got, err := f.svc.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, SlotUnavailableStatus, got.Status())
	assert.Equal(t, &appt.ID, got.AppointmentID)
}

func TestManualAppointmentRefusedSlotLeavesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tuesday := monday.AddDays(1)
	patient := uuid.New()

	slots, err := f.svc.ListSlots(ctx, f.doctor.ID, tuesday)
	require.NoError(t, err)
	slot := slots[2] // 10:00
	_, err = f.svc.BlockSlot(ctx, f.desk, slot.ID, BlockBreak)
	require.NoError(t, err)

	req := ManualBookingRequest{BookingRequest: f.request(patient, tuesday, 10, 0), SlotID: &slot.ID}
	_, err = f.svc.CreateManualAppointment(ctx, f.desk, req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	mismatched := slots[4].ID // 11:00
	req.SlotID = &mismatched
	_, err = f.svc.CreateManualAppointment(ctx, f.desk, req)
	assert.ErrorIs(t, err, ErrSlotMismatch)

	list, err := f.svc.ListByPatient(ctx, f.desk, patient, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := f.svc.GetSlot(ctx, mismatched)
	require.NoError(t, err)
	assert.Zero(t, got.BookedPatients)

	// Same time without a slot goes through.
	req.SlotID = nil
	appt, err := f.svc.CreateManualAppointment(ctx, f.desk, req)
	require.NoError(t, err)
	assert.Nil(t, appt.SlotID)
}

func TestGetDoctorAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tuesday := monday.AddDays(1)

	f.book(t, uuid.New(), tuesday, 10, 0)

	av, err := f.svc.GetDoctorAvailability(ctx, f.doctor.ID, tuesday)
	require.NoError(t, err)
	assert.True(t, av.Available)
	assert.Equal(t, calendar.Interval{Start: calendar.NewClock(9, 0), End: calendar.NewClock(17, 0)}, *av.Window)
	assert.Equal(t, []calendar.Interval{calendar.NewInterval(calendar.NewClock(10, 0), 30)}, av.Booked)

	av, err = f.svc.GetDoctorAvailability(ctx, f.doctor.ID, monday.AddDays(6))
	require.NoError(t, err)
	assert.False(t, av.Available)
	assert.Contains(t, av.Reason, "sunday")
}

func TestListPendingAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	patient := uuid.New()

	today := f.book(t, patient, monday, 10, 0)
	f.book(t, uuid.New(), monday.AddDays(1), 10, 0)
	_, err := f.svc.ConfirmAppointment(ctx, f.desk, today.ID)
	require.NoError(t, err)

	_, err = f.svc.ListPending(ctx, patientActor(patient), Filter{})
	assert.ErrorIs(t, err, ErrStaffOnly)

	pending, err := f.svc.ListPending(ctx, f.desk, Filter{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, monday.AddDays(1), pending[0].Date)

	stats, err := f.svc.Stats(ctx, f.desk, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ByStatus[StatusPending])
	assert.Equal(t, 1, stats.ByStatus[StatusConfirmed])
	assert.Equal(t, 1, stats.Today)
	assert.Equal(t, 2, stats.Upcoming)

	mine, err := f.svc.Stats(ctx, patientActor(patient), Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, mine.ByStatus[StatusConfirmed])
	assert.Zero(t, mine.ByStatus[StatusPending])

	list, err := f.svc.ListByPatient(ctx, patientActor(patient), patient, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.ListByPatient(ctx, patientActor(uuid.New()), patient, 0, 0)
	assert.ErrorIs(t, err, ErrNotParticipant)
}
