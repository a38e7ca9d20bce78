package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusRejected   Status = "rejected"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no-show"
)

var AllStatuses = []Status{
	StatusPending, StatusConfirmed, StatusRejected, StatusInProgress,
	StatusCompleted, StatusCancelled, StatusNoShow,
}

func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", &Error{Kind: ErrInvalidRequest, Code: "invalid_status", Msg: fmt.Sprintf("unknown appointment status %q", s)}
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress:
		return false
	case StatusCompleted, StatusCancelled, StatusRejected, StatusNoShow:
		return true
	}
	return true
}

// OccupiesCalendar reports whether an appointment in this status still holds
// its time interval for conflict detection.
func (s Status) OccupiesCalendar() bool {
	switch s {
	case StatusCancelled, StatusNoShow:
		return false
	case StatusPending, StatusConfirmed, StatusRejected, StatusInProgress, StatusCompleted:
		return true
	}
	return true
}

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPaid          PaymentStatus = "paid"
	PaymentPartiallyPaid PaymentStatus = "partially-paid"
	PaymentRefunded      PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentCash      PaymentMethod = "cash"
	PaymentCard      PaymentMethod = "card"
	PaymentUPI       PaymentMethod = "upi"
	PaymentInsurance PaymentMethod = "insurance"
)

type Priority string

const (
	PriorityLow       Priority = "low"
	PriorityMedium    Priority = "medium"
	PriorityHigh      Priority = "high"
	PriorityEmergency Priority = "emergency"
)

type Type string

const (
	TypeConsultation   Type = "consultation"
	TypeFollowUp       Type = "follow-up"
	TypeEmergency      Type = "emergency"
	TypeRoutineCheckup Type = "routine-checkup"
	TypeManual         Type = "manual"
	TypeWalkIn         Type = "walk-in"
)

type Payment struct {
	Amount decimal.Decimal
	Status PaymentStatus
	Method PaymentMethod
}

type Cancellation struct {
	Reason       string
	CancelledBy  uuid.UUID
	CancelledAt  time.Time
	RefundAmount decimal.Decimal
}

type Appointment struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	DoctorID       uuid.UUID
	Date           calendar.Date
	Time           calendar.Clock
	Duration       int // minutes
	Reason         string
	Symptoms       string
	Status         Status
	Priority       Priority
	Type           Type
	Payment        Payment
	Cancellation   *Cancellation
	SlotID         *uuid.UUID
	CreatedBy      uuid.UUID
	LastModifiedBy *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (a *Appointment) Interval() calendar.Interval {
	return calendar.NewInterval(a.Time, a.Duration)
}

func (a *Appointment) EndTime() calendar.Clock {
	return a.Time.Add(a.Duration)
}

// StartsAt combines the appointment day and time in the clinic's location.
func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	return a.Time.On(a.Date, loc)
}

func (a *Appointment) IsUpcoming(now time.Time, loc *time.Location) bool {
	if !a.StartsAt(loc).After(now) {
		return false
	}
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

type Role string

const (
	RolePatient      Role = "patient"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
	RoleAdmin        Role = "admin"
)

// DaySchedule is one entry of a doctor's weekly template.
type DaySchedule struct {
	Day       calendar.Weekday
	Start     calendar.Clock
	End       calendar.Clock
	Available bool
}

// Doctor is a read-only snapshot from the user directory.
type Doctor struct {
	ID              uuid.UUID
	Name            string
	Specialization  string
	Role            Role
	Active          bool
	Verified        bool
	ConsultationFee decimal.Decimal
	Schedule        []DaySchedule
}

// Bookable reports whether patients may book this doctor themselves.
func (d *Doctor) Bookable() bool {
	return d.Role == RoleDoctor && d.Active && d.Verified
}

type SlotStatus string

const (
	SlotBlockedStatus     SlotStatus = "blocked"
	SlotUnavailableStatus SlotStatus = "unavailable"
	SlotFullStatus        SlotStatus = "full"
	SlotBookedStatus      SlotStatus = "booked"
	SlotAvailableStatus   SlotStatus = "available"
)

type BlockReason string

const (
	BlockBreak       BlockReason = "break"
	BlockEmergency   BlockReason = "emergency"
	BlockMaintenance BlockReason = "maintenance"
	BlockPersonal    BlockReason = "personal"
	BlockOther       BlockReason = "other"
)

func ParseBlockReason(s string) (BlockReason, error) {
	switch r := BlockReason(s); r {
	case BlockBreak, BlockEmergency, BlockMaintenance, BlockPersonal, BlockOther:
		return r, nil
	}
	return "", ErrInvalidSlot.Withf("unknown block reason %q", s)
}

type SlotType string

const (
	SlotRegular   SlotType = "regular"
	SlotEmergency SlotType = "emergency"
	SlotFollowUp  SlotType = "followup"
	SlotWalkIn    SlotType = "walkin"
)

type Slot struct {
	ID             uuid.UUID
	DoctorID       uuid.UUID
	Date           calendar.Date
	Start          calendar.Clock
	End            calendar.Clock
	Duration       int
	MaxPatients    int
	BookedPatients int
	Available      bool
	Blocked        bool
	BlockReason    BlockReason
	AppointmentID  *uuid.UUID
	Fee            decimal.Decimal
	Type           SlotType
	CreatedBy      *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Covers reports whether a may hold a place in s: same doctor, same day and
// a start time inside the slot.
func (s *Slot) Covers(a *Appointment) bool {
	return s.DoctorID == a.DoctorID &&
		s.Date.Equal(a.Date) &&
		a.Time >= s.Start && a.Time < s.End
}

// Status is derived, never stored.
func (s *Slot) Status() SlotStatus {
	switch {
	case s.Blocked:
		return SlotBlockedStatus
	case !s.Available:
		return SlotUnavailableStatus
	case s.BookedPatients >= s.MaxPatients:
		return SlotFullStatus
	case s.AppointmentID != nil:
		return SlotBookedStatus
	}
	return SlotAvailableStatus
}

// Open reports whether the slot can take one more patient.
func (s *Slot) Open() bool {
	return s.Available && !s.Blocked && s.BookedPatients < s.MaxPatients
}

// Validate checks the structural slot invariants.
func (s *Slot) Validate() error {
	if s.End <= s.Start {
		return ErrInvalidSlot.Withf("end time must be after start time")
	}
	if s.Duration == 0 {
		s.Duration = int(s.End - s.Start)
	}
	if s.Duration != int(s.End-s.Start) {
		return ErrInvalidSlot.Withf("duration %d does not match %s-%s", s.Duration, s.Start, s.End)
	}
	if s.Duration < MinDuration || s.Duration > MaxDuration {
		return ErrInvalidSlot.Withf("slot duration must be between %d and %d minutes", MinDuration, MaxDuration)
	}
	if s.MaxPatients < 1 || s.MaxPatients > MaxPatientsPerSlot {
		return ErrInvalidSlot.Withf("max patients must be between 1 and %d", MaxPatientsPerSlot)
	}
	if s.BookedPatients < 0 || s.BookedPatients > s.MaxPatients {
		return ErrInvalidSlot.Withf("booked patients out of range")
	}
	return nil
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	SlotID        *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// Availability is a doctor's working window on one date plus the intervals
// already taken by active appointments.
type Availability struct {
	DoctorID  uuid.UUID
	Date      calendar.Date
	Available bool
	Reason    string
	Window    *calendar.Interval
	Booked    []calendar.Interval
}

type Stats struct {
	ByStatus map[Status]int
	Today    int
	Upcoming int
}
