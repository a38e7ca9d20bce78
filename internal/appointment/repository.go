package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

// DoctorDirectory is the read-only view of the user directory.
type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
}

// Mutation changes an appointment in place; returning an error aborts the
// update and leaves the stored record untouched.
type Mutation func(a *Appointment) error

type Filter struct {
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Date      *calendar.Date
	Statuses  []Status
	Limit     int
	Offset    int
}

// Ledger persists appointments.
type Ledger interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, f Filter) ([]Appointment, error)

	// For conflict checks
	FindConflicts(ctx context.Context, doctorID uuid.UUID, date calendar.Date, span calendar.Interval, excludeID *uuid.UUID) ([]Appointment, error)
	FindSameDayAppointment(ctx context.Context, patientID, doctorID uuid.UUID, date calendar.Date) (*Appointment, error)

	// CreateAppointment inserts a and must itself refuse an overlapping or
	// same-day duplicate with ErrTimeConflict / ErrDuplicateSameDay, whatever
	// the caller checked before. When a.SlotID is set the slot is reserved in
	// the same unit of work and a refused slot leaves nothing stored.
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	// RescheduleAppointment applies fn, which moves the appointment, and then
	// refuses the result with ErrTimeConflict if the new interval overlaps
	// another active appointment.
	RescheduleAppointment(ctx context.Context, id uuid.UUID, fn Mutation) (*Appointment, error)
	// UpdateAppointment applies fn under a row lock. If fn clears SlotID the
	// previously linked slot is released in the same unit of work.
	UpdateAppointment(ctx context.Context, id uuid.UUID, fn Mutation) (*Appointment, error)

	// FindStaleActive lists pending or confirmed appointments that ended at or
	// before the given wall-clock moment.
	FindStaleActive(ctx context.Context, date calendar.Date, at calendar.Clock) ([]Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}

// SlotStore persists slots. Reserve and release are single atomic
// read-modify-write operations.
type SlotStore interface {
	// EnsureSlots inserts the drafts that do not exist yet for
	// (doctor, date, start) and returns only those.
	EnsureSlots(ctx context.Context, drafts []Slot) ([]Slot, error)
	ListAvailableSlots(ctx context.Context, doctorID uuid.UUID, date calendar.Date) ([]Slot, error)
	GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error)
	// ReserveSlot refuses a slot of another doctor, day or time with
	// ErrSlotMismatch.
	ReserveSlot(ctx context.Context, slotID, appointmentID uuid.UUID) (*Slot, error)
	// ReleaseSlot gives back the place held by the appointment the slot
	// points at. Other appointments sharing the slot stay linked.
	ReleaseSlot(ctx context.Context, slotID uuid.UUID) (*Slot, error)
	SetSlotBlocked(ctx context.Context, slotID uuid.UUID, blocked bool, reason BlockReason, by uuid.UUID) (*Slot, error)
}

// Repository contains all store interactions needed by the service.
type Repository interface {
	DoctorDirectory
	Ledger
	SlotStore
}
