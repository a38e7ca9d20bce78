package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/events"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

// Actor is whoever performs an operation, as established at the edge.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// SystemActor is used by background jobs.
var SystemActor = Actor{Role: RoleAdmin}

func (a Actor) IsStaff() bool {
	return a.Role == RoleReceptionist || a.Role == RoleAdmin
}

type Service struct {
	repo        Repository
	locker      redisclient.Locker
	publisher   events.Publisher
	log         *zap.Logger
	loc         *time.Location
	noShowGrace time.Duration
	now         func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, locker redisclient.Locker, publisher events.Publisher, cfg config.Config, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		locker:      locker,
		publisher:   publisher,
		log:         log,
		loc:         cfg.Location,
		noShowGrace: cfg.NoShowGrace,
		now:         time.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the clinic's time zone.
func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) clock() (time.Time, calendar.Date) {
	now := s.now().In(s.loc)
	return now, calendar.DateOf(now)
}

func calendarKey(doctorID uuid.UUID, date calendar.Date) string {
	return fmt.Sprintf("calendar:%s:%s", doctorID, date)
}

// withCalendar serialises work on one doctor's day.
func (s *Service) withCalendar(ctx context.Context, doctorID uuid.UUID, date calendar.Date, fn func(ctx context.Context) error) error {
	err := s.locker.WithLock(ctx, calendarKey(doctorID, date), fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrCalendarBusy
	}
	return err
}

type BookingRequest struct {
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	Date          calendar.Date
	Time          calendar.Clock
	Duration      int // minutes, 0 means DefaultDuration
	Reason        string
	Symptoms      string
	Priority      Priority
	Type          Type
	PaymentMethod PaymentMethod
}

func normaliseDuration(d int) (int, error) {
	if d == 0 {
		return DefaultDuration, nil
	}
	if d < MinDuration || d > MaxDuration {
		return 0, ErrInvalidDuration
	}
	return d, nil
}

// checkWindow applies the date and working-hours rules for booking at
// (date, at) with doctor. Dates are compared as days, so any time today
// inside working hours is accepted.
func (s *Service) checkWindow(doctor *Doctor, date calendar.Date, at calendar.Clock) error {
	_, today := s.clock()

	if date.Before(today) {
		return ErrPastDate
	}
	if date.After(today.AddMonths(BookingHorizonMonths)) {
		return ErrBeyondHorizon
	}

	sched, ok := ScheduleFor(doctor, date)
	if !ok {
		return ErrDoctorUnavailable.Withf("doctor is not available on %s", date.Weekday())
	}
	if at < sched.Start || at > sched.End {
		return ErrOutsideWorkingHours.Withf("appointment time must be between %s and %s", sched.Start, sched.End)
	}
	return nil
}

// BookAppointment creates a pending appointment for a patient. The checks
// run in order and the first failure is returned.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	duration, err := normaliseDuration(req.Duration)
	if err != nil {
		return nil, err
	}

	doctor, err := s.repo.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Bookable() {
		return nil, ErrDoctorNotFound
	}

	if err := s.checkWindow(doctor, req.Date, req.Time); err != nil {
		return nil, err
	}

	now := s.now()
	draft := &Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Duration:  duration,
		Reason:    req.Reason,
		Symptoms:  req.Symptoms,
		Status:    StatusPending,
		Priority:  orDefault(req.Priority, PriorityMedium),
		Type:      orDefault(req.Type, TypeConsultation),
		Payment: Payment{
			Amount: doctor.ConsultationFee,
			Status: PaymentPending,
			Method: req.PaymentMethod,
		},
		CreatedBy: req.PatientID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.create(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.log.Info("appointment booked",
		zap.String("appointment_id", created.ID.String()),
		zap.String("doctor_id", created.DoctorID.String()),
		zap.String("date", created.Date.String()),
		zap.String("time", created.Time.String()),
	)
	s.logEvent(ctx, events.AppointmentBooked, &created.ID, nil, map[string]any{
		"patient_id": created.PatientID.String(),
		"doctor_id":  created.DoctorID.String(),
		"date":       created.Date.String(),
		"time":       created.Time.String(),
		"duration":   created.Duration,
	})
	return created, nil
}

// create runs the conflict and same-day checks and the insert under the
// doctor's calendar lock. The store repeats both checks atomically.
func (s *Service) create(ctx context.Context, draft *Appointment) (*Appointment, error) {
	var created *Appointment
	err := s.withCalendar(ctx, draft.DoctorID, draft.Date, func(lockCtx context.Context) error {
		conflicts, err := s.repo.FindConflicts(lockCtx, draft.DoctorID, draft.Date, draft.Interval(), nil)
		if err != nil {
			return fmt.Errorf("find conflicts: %w", err)
		}
		if len(conflicts) > 0 {
			return ErrTimeConflict
		}

		_, err = s.repo.FindSameDayAppointment(lockCtx, draft.PatientID, draft.DoctorID, draft.Date)
		switch {
		case err == nil:
			return ErrDuplicateSameDay
		case !errors.Is(err, ErrAppointmentNotFound):
			return fmt.Errorf("find same-day appointment: %w", err)
		}

		created, err = s.repo.CreateAppointment(lockCtx, draft)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

type ManualBookingRequest struct {
	BookingRequest
	// SlotID, when set, is reserved for the new appointment.
	SlotID *uuid.UUID
}

// CreateManualAppointment is the front-desk flow. The doctor only has to be
// active, the appointment starts out confirmed and the calendar is still
// conflict-checked.
func (s *Service) CreateManualAppointment(ctx context.Context, actor Actor, req ManualBookingRequest) (*Appointment, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}
	duration, err := normaliseDuration(req.Duration)
	if err != nil {
		return nil, err
	}

	doctor, err := s.repo.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != RoleDoctor || !doctor.Active {
		return nil, ErrDoctorNotFound
	}

	typ := req.Type
	if typ != TypeWalkIn {
		typ = TypeManual
	}

	now := s.now()
	lastModified := actor.ID
	draft := &Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Duration:  duration,
		Reason:    req.Reason,
		Symptoms:  req.Symptoms,
		Status:    StatusConfirmed,
		Priority:  orDefault(req.Priority, PriorityMedium),
		Type:      typ,
		Payment: Payment{
			Amount: doctor.ConsultationFee,
			Status: PaymentPending,
			Method: req.PaymentMethod,
		},
		SlotID:         req.SlotID,
		CreatedBy:      actor.ID,
		LastModifiedBy: &lastModified,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The slot, when given, is reserved together with the insert, so a
	// refused slot leaves no appointment behind.
	created, err := s.create(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, events.AppointmentBooked, &created.ID, nil, map[string]any{
		"patient_id": created.PatientID.String(),
		"doctor_id":  created.DoctorID.String(),
		"date":       created.Date.String(),
		"time":       created.Time.String(),
		"created_by": actor.ID.String(),
		"type":       string(created.Type),
	})
	if created.SlotID != nil {
		s.logEvent(ctx, events.SlotReserved, &created.ID, created.SlotID, map[string]any{
			"created_by": actor.ID.String(),
		})
	}
	return created, nil
}

type RescheduleRequest struct {
	ID       uuid.UUID
	Date     calendar.Date
	Time     calendar.Clock
	Duration int // 0 keeps the current duration
}

// RescheduleAppointment moves a pending or confirmed appointment. The new
// interval goes through the same checks as a booking, ignoring the
// appointment itself. A linked slot is released.
func (s *Service) RescheduleAppointment(ctx context.Context, actor Actor, req RescheduleRequest) (*Appointment, error) {
	current, err := s.repo.GetAppointment(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParticipant(current, actor); err != nil {
		return nil, err
	}
	if current.Status != StatusPending && current.Status != StatusConfirmed {
		return nil, ErrInvalidStatusChange.Withf("cannot reschedule a %s appointment", current.Status)
	}

	duration := current.Duration
	if req.Duration != 0 {
		if duration, err = normaliseDuration(req.Duration); err != nil {
			return nil, err
		}
	}

	doctor, err := s.repo.GetDoctor(ctx, current.DoctorID)
	if err != nil {
		return nil, err
	}
	if err := s.checkWindow(doctor, req.Date, req.Time); err != nil {
		return nil, err
	}

	var moved *Appointment
	err = s.withCalendar(ctx, current.DoctorID, req.Date, func(lockCtx context.Context) error {
		conflicts, err := s.repo.FindConflicts(lockCtx, current.DoctorID, req.Date, calendar.NewInterval(req.Time, duration), &current.ID)
		if err != nil {
			return fmt.Errorf("find conflicts: %w", err)
		}
		if len(conflicts) > 0 {
			return ErrTimeConflict
		}

		if !req.Date.Equal(current.Date) {
			other, err := s.repo.FindSameDayAppointment(lockCtx, current.PatientID, current.DoctorID, req.Date)
			switch {
			case err == nil && other.ID != current.ID:
				return ErrDuplicateSameDay
			case err != nil && !errors.Is(err, ErrAppointmentNotFound):
				return fmt.Errorf("find same-day appointment: %w", err)
			}
		}

		now := s.now()
		moved, err = s.repo.RescheduleAppointment(lockCtx, current.ID, func(a *Appointment) error {
			if a.Status != StatusPending && a.Status != StatusConfirmed {
				return ErrInvalidStatusChange.Withf("cannot reschedule a %s appointment", a.Status)
			}
			a.Date = req.Date
			a.Time = req.Time
			a.Duration = duration
			a.SlotID = nil
			a.touch(actor.ID, now)
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logEvent(ctx, events.AppointmentRescheduled, &moved.ID, nil, map[string]any{
		"from_date": current.Date.String(),
		"from_time": current.Time.String(),
		"date":      moved.Date.String(),
		"time":      moved.Time.String(),
		"duration":  moved.Duration,
	})
	return moved, nil
}

func authorizeParticipant(a *Appointment, actor Actor) error {
	switch actor.Role {
	case RoleAdmin, RoleReceptionist:
		return nil
	case RoleDoctor:
		if a.DoctorID == actor.ID {
			return nil
		}
	case RolePatient:
		if a.PatientID == actor.ID {
			return nil
		}
	}
	return ErrNotParticipant
}

func authorizeClinician(a *Appointment, actor Actor) error {
	if actor.IsStaff() || (actor.Role == RoleDoctor && a.DoctorID == actor.ID) {
		return nil
	}
	return ErrNotParticipant
}

// transition loads the appointment, checks the actor and applies fn under
// the store's row lock.
func (s *Service) transition(ctx context.Context, id uuid.UUID, actor Actor, allowed func(*Appointment, Actor) error, eventType string, fn Mutation) (*Appointment, error) {
	current, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := allowed(current, actor); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateAppointment(ctx, id, fn)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"from":   string(current.Status),
		"to":     string(updated.Status),
		"actor":  actor.ID.String(),
		"reason": "",
	}
	if c := updated.Cancellation; c != nil {
		payload["reason"] = c.Reason
		payload["refund_amount"] = c.RefundAmount.StringFixed(2)
	}
	if current.SlotID != nil && updated.SlotID == nil {
		payload["released_slot_id"] = current.SlotID.String()
	}
	s.logEvent(ctx, eventType, &updated.ID, nil, payload)
	return updated, nil
}

func staffOnly(_ *Appointment, actor Actor) error {
	if !actor.IsStaff() {
		return ErrStaffOnly
	}
	return nil
}

func (s *Service) ConfirmAppointment(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, actor, staffOnly, events.AppointmentConfirmed, func(a *Appointment) error {
		return a.Confirm(actor.ID, s.now())
	})
}

func (s *Service) RejectAppointment(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*Appointment, error) {
	return s.transition(ctx, id, actor, staffOnly, events.AppointmentRejected, func(a *Appointment) error {
		return a.Reject(actor.ID, reason, s.now())
	})
}

// CancelAppointment decides eligibility and refund on the row-locked
// snapshot, so both see the same appointment time.
func (s *Service) CancelAppointment(ctx context.Context, actor Actor, id uuid.UUID, reason string) (*Appointment, error) {
	return s.transition(ctx, id, actor, authorizeParticipant, events.AppointmentCancelled, func(a *Appointment) error {
		_, err := a.Cancel(actor.ID, reason, s.now(), s.loc)
		return err
	})
}

func (s *Service) StartAppointment(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, actor, authorizeClinician, events.AppointmentStarted, func(a *Appointment) error {
		return a.Start(actor.ID, s.now())
	})
}

func (s *Service) CompleteAppointment(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, actor, authorizeClinician, events.AppointmentCompleted, func(a *Appointment) error {
		return a.Complete(actor.ID, s.now())
	})
}

func (s *Service) MarkNoShow(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, actor, authorizeClinician, events.AppointmentNoShow, func(a *Appointment) error {
		return a.MarkNoShow(actor.ID, s.now())
	})
}

// MarkStaleNoShows is called by the worker periodically. Pending or
// confirmed appointments that ended more than the grace period ago become
// no-shows. It returns how many were marked.
func (s *Service) MarkStaleNoShows(ctx context.Context) (int, error) {
	now, _ := s.clock()
	cutoff := now.Add(-s.noShowGrace)
	date := calendar.DateOf(cutoff)
	at := calendar.NewClock(cutoff.Hour(), cutoff.Minute())

	stale, err := s.repo.FindStaleActive(ctx, date, at)
	if err != nil {
		return 0, fmt.Errorf("find stale appointments: %w", err)
	}

	marked := 0
	for _, appt := range stale {
		_, err := s.transition(ctx, appt.ID, SystemActor, authorizeClinician, events.AppointmentNoShow, func(a *Appointment) error {
			if a.Status != StatusPending && a.Status != StatusConfirmed {
				return ErrInvalidStatusChange
			}
			return a.MarkNoShow(SystemActor.ID, s.now())
		})
		if errors.Is(err, ErrInvalidStatusChange) {
			continue
		}
		if err != nil {
			s.log.Warn("failed to mark no-show",
				zap.String("appointment_id", appt.ID.String()),
				zap.Error(err),
			)
			continue
		}
		marked++
	}

	return marked, nil
}

func (s *Service) logEvent(ctx context.Context, eventType string, appointmentID, slotID *uuid.UUID, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to marshal event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	now := s.now()
	ev := EventLog{
		EventType:     eventType,
		AppointmentID: appointmentID,
		SlotID:        slotID,
		Payload:       data,
		CreatedAt:     now,
	}
	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("failed to insert event log", zap.String("event", eventType), zap.Error(err))
	}

	if err := s.publisher.Publish(ctx, events.Event{
		ID:            uuid.New(),
		Type:          eventType,
		AppointmentID: appointmentID,
		SlotID:        slotID,
		Payload:       payload,
		OccurredAt:    now,
	}); err != nil {
		s.log.Warn("failed to publish event", zap.String("event", eventType), zap.Error(err))
	}
}

func orDefault[T ~string](v, def T) T {
	if v == "" {
		return def
	}
	return v
}
