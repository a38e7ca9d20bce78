package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func clampPage(f *Filter) {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// FindConflicts lists the doctor's active appointments on date that overlap
// [start, start+duration). The appointment with excludeID, when given, is
// skipped, which is how an appointment is checked against everything but
// itself.
func (s *Service) FindConflicts(ctx context.Context, doctorID uuid.UUID, date calendar.Date, start calendar.Clock, duration int, excludeID *uuid.UUID) ([]Appointment, error) {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return s.repo.FindConflicts(ctx, doctorID, date, calendar.NewInterval(start, duration), excludeID)
}

func (s *Service) GetAppointment(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeParticipant(appt, actor); err != nil {
		return nil, err
	}
	return appt, nil
}

// ListPending is the receptionist's queue, oldest date first.
func (s *Service) ListPending(ctx context.Context, actor Actor, f Filter) ([]Appointment, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}
	f.Statuses = []Status{StatusPending}
	clampPage(&f)
	return s.repo.ListAppointments(ctx, f)
}

func (s *Service) ListByPatient(ctx context.Context, actor Actor, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	if !actor.IsStaff() && actor.ID != patientID {
		return nil, ErrNotParticipant
	}
	f := Filter{PatientID: &patientID, Limit: limit, Offset: offset}
	clampPage(&f)
	return s.repo.ListAppointments(ctx, f)
}

// Stats counts appointments matching f by status. Doctors only ever see
// their own numbers.
func (s *Service) Stats(ctx context.Context, actor Actor, f Filter) (*Stats, error) {
	switch actor.Role {
	case RoleDoctor:
		f.DoctorID = &actor.ID
	case RolePatient:
		f.PatientID = &actor.ID
	case RoleReceptionist, RoleAdmin:
	}
	f.Limit, f.Offset = 0, 0

	all, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, err
	}

	now, today := s.clock()
	stats := &Stats{ByStatus: make(map[Status]int, len(AllStatuses))}
	for _, st := range AllStatuses {
		stats.ByStatus[st] = 0
	}
	for i := range all {
		a := &all[i]
		stats.ByStatus[a.Status]++
		if a.Date.Equal(today) {
			stats.Today++
		}
		if a.IsUpcoming(now, s.loc) {
			stats.Upcoming++
		}
	}
	return stats, nil
}

// GetDoctorAvailability reports the doctor's working window on date and the
// intervals already taken.
func (s *Service) GetDoctorAvailability(ctx context.Context, doctorID uuid.UUID, date calendar.Date) (*Availability, error) {
	doctor, err := s.repo.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Bookable() {
		return nil, ErrDoctorNotFound
	}

	out := &Availability{DoctorID: doctorID, Date: date}
	sched, ok := ScheduleFor(doctor, date)
	if !ok {
		out.Reason = "doctor is not available on " + date.Weekday().String()
		return out, nil
	}

	out.Available = true
	out.Window = &calendar.Interval{Start: sched.Start, End: sched.End}

	var occupying []Status
	for _, st := range AllStatuses {
		if st.OccupiesCalendar() {
			occupying = append(occupying, st)
		}
	}
	booked, err := s.repo.ListAppointments(ctx, Filter{DoctorID: &doctorID, Date: &date, Statuses: occupying})
	if err != nil {
		return nil, err
	}
	for i := range booked {
		out.Booked = append(out.Booked, booked[i].Interval())
	}
	return out, nil
}
