package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/events"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

// 2026-10-19 is a Monday.
var monday = calendar.Date{Year: 2026, Month: time.October, Day: 19}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc       *Service
	repo      *MemRepository
	clock     *fakeClock
	published *recordingPublisher
	doctor    Doctor
	desk      Actor
}

func weekdays(start, end calendar.Clock) []DaySchedule {
	var out []DaySchedule
	for _, d := range []calendar.Weekday{calendar.Monday, calendar.Tuesday, calendar.Wednesday, calendar.Thursday, calendar.Friday} {
		out = append(out, DaySchedule{Day: d, Start: start, End: end, Available: true})
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := NewMemRepository()
	doctor := Doctor{
		ID:              uuid.New(),
		Name:            "Dr. Meera Rao",
		Specialization:  "General Practice",
		Role:            RoleDoctor,
		Active:          true,
		Verified:        true,
		ConsultationFee: decimal.NewFromInt(500),
		Schedule:        weekdays(calendar.NewClock(9, 0), calendar.NewClock(17, 0)),
	}
	repo.PutDoctor(doctor)

	clock := &fakeClock{now: time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC)}
	published := &recordingPublisher{}
	cfg := config.Config{Location: time.UTC, NoShowGrace: time.Hour}

	svc := NewService(repo, redisclient.NewLocalLocker(), published, cfg, zap.NewNop(), WithClock(clock.Now))
	return &fixture{
		svc:       svc,
		repo:      repo,
		clock:     clock,
		published: published,
		doctor:    doctor,
		desk:      Actor{ID: uuid.New(), Role: RoleReceptionist},
	}
}

func (f *fixture) request(patient uuid.UUID, date calendar.Date, hour, minute int) BookingRequest {
	return BookingRequest{
		PatientID: patient,
		DoctorID:  f.doctor.ID,
		Date:      date,
		Time:      calendar.NewClock(hour, minute),
		Reason:    "checkup",
	}
}

func (f *fixture) book(t *testing.T, patient uuid.UUID, date calendar.Date, hour, minute int) *Appointment {
	t.Helper()
	appt, err := f.svc.BookAppointment(context.Background(), f.request(patient, date, hour, minute))
	require.NoError(t, err)
	return appt
}

func patientActor(id uuid.UUID) Actor { return Actor{ID: id, Role: RolePatient} }
