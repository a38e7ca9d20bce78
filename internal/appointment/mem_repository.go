package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

// MemRepository keeps everything in process memory behind one mutex, which
// makes every method a single atomic unit. It backs STORE_DRIVER=memory and
// the service tests.
type MemRepository struct {
	mu           sync.Mutex
	doctors      map[uuid.UUID]Doctor
	appointments map[uuid.UUID]Appointment
	slots        map[uuid.UUID]Slot
	events       []EventLog
}

func NewMemRepository() *MemRepository {
	return &MemRepository{
		doctors:      make(map[uuid.UUID]Doctor),
		appointments: make(map[uuid.UUID]Appointment),
		slots:        make(map[uuid.UUID]Slot),
	}
}

// PutDoctor adds or replaces a doctor in the directory.
func (r *MemRepository) PutDoctor(d Doctor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.Schedule = append([]DaySchedule(nil), d.Schedule...)
	r.doctors[d.ID] = d
}

func (r *MemRepository) Events() []EventLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EventLog(nil), r.events...)
}

func cloneAppointment(a Appointment) Appointment {
	if a.Cancellation != nil {
		c := *a.Cancellation
		a.Cancellation = &c
	}
	if a.SlotID != nil {
		id := *a.SlotID
		a.SlotID = &id
	}
	if a.LastModifiedBy != nil {
		id := *a.LastModifiedBy
		a.LastModifiedBy = &id
	}
	return a
}

func cloneSlot(s Slot) Slot {
	if s.AppointmentID != nil {
		id := *s.AppointmentID
		s.AppointmentID = &id
	}
	if s.CreatedBy != nil {
		id := *s.CreatedBy
		s.CreatedBy = &id
	}
	return s
}

func (r *MemRepository) GetDoctor(_ context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	d.Schedule = append([]DaySchedule(nil), d.Schedule...)
	return &d, nil
}

func (r *MemRepository) GetAppointment(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a = cloneAppointment(a)
	return &a, nil
}

func (f Filter) matches(a *Appointment) bool {
	if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
		return false
	}
	if f.PatientID != nil && a.PatientID != *f.PatientID {
		return false
	}
	if f.Date != nil && !a.Date.Equal(*f.Date) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, st := range f.Statuses {
		if a.Status == st {
			return true
		}
	}
	return false
}

func (r *MemRepository) ListAppointments(_ context.Context, f Filter) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Appointment
	for _, a := range r.appointments {
		if f.matches(&a) {
			out = append(out, cloneAppointment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].Time < out[j].Time
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemRepository) conflictsLocked(doctorID uuid.UUID, date calendar.Date, span calendar.Interval, excludeID *uuid.UUID) []Appointment {
	var sameDay []Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.Date.Equal(date) {
			sameDay = append(sameDay, a)
		}
	}
	return FindOverlapping(sameDay, span, excludeID)
}

func (r *MemRepository) sameDayLocked(patientID, doctorID uuid.UUID, date calendar.Date) *Appointment {
	for _, a := range r.appointments {
		if a.PatientID == patientID && a.DoctorID == doctorID && a.Date.Equal(date) && !a.Status.IsTerminal() {
			found := cloneAppointment(a)
			return &found
		}
	}
	return nil
}

func (r *MemRepository) FindConflicts(_ context.Context, doctorID uuid.UUID, date calendar.Date, span calendar.Interval, excludeID *uuid.UUID) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := r.conflictsLocked(doctorID, date, span, excludeID)
	for i := range found {
		found[i] = cloneAppointment(found[i])
	}
	return found, nil
}

func (r *MemRepository) FindSameDayAppointment(_ context.Context, patientID, doctorID uuid.UUID, date calendar.Date) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a := r.sameDayLocked(patientID, doctorID, date); a != nil {
		return a, nil
	}
	return nil, ErrAppointmentNotFound
}

func (r *MemRepository) CreateAppointment(_ context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.conflictsLocked(a.DoctorID, a.Date, a.Interval(), nil)) > 0 {
		return nil, ErrTimeConflict
	}
	if r.sameDayLocked(a.PatientID, a.DoctorID, a.Date) != nil {
		return nil, ErrDuplicateSameDay
	}

	stored := cloneAppointment(*a)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.SlotID != nil {
		slotID := *stored.SlotID
		stored.SlotID = nil
		if _, err := r.reserveLocked(slotID, &stored); err != nil {
			return nil, err
		}
	}
	r.appointments[stored.ID] = stored

	out := cloneAppointment(stored)
	return &out, nil
}

func (r *MemRepository) mutateLocked(id uuid.UUID, fn Mutation, recheck bool) (*Appointment, error) {
	cur, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	next := cloneAppointment(cur)
	if err := fn(&next); err != nil {
		return nil, err
	}
	if recheck && next.Status.OccupiesCalendar() {
		if len(r.conflictsLocked(next.DoctorID, next.Date, next.Interval(), &next.ID)) > 0 {
			return nil, ErrTimeConflict
		}
	}

	next.UpdatedAt = time.Now()
	r.appointments[id] = next
	if cur.SlotID != nil && next.SlotID == nil {
		r.releaseLocked(*cur.SlotID, &next.ID)
	}

	out := cloneAppointment(next)
	return &out, nil
}

func (r *MemRepository) RescheduleAppointment(_ context.Context, id uuid.UUID, fn Mutation) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutateLocked(id, fn, true)
}

func (r *MemRepository) UpdateAppointment(_ context.Context, id uuid.UUID, fn Mutation) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutateLocked(id, fn, false)
}

func (r *MemRepository) FindStaleActive(_ context.Context, date calendar.Date, at calendar.Clock) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Appointment
	for _, a := range r.appointments {
		if a.Status != StatusPending && a.Status != StatusConfirmed {
			continue
		}
		if a.Date.Before(date) || (a.Date.Equal(date) && a.EndTime() <= at) {
			out = append(out, cloneAppointment(a))
		}
	}
	return out, nil
}

func (r *MemRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = int64(len(r.events) + 1)
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *MemRepository) EnsureSlots(_ context.Context, drafts []Slot) ([]Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var created []Slot
	for _, d := range drafts {
		if r.slotExistsLocked(d.DoctorID, d.Date, d.Start) {
			continue
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		s := cloneSlot(d)
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		now := time.Now()
		s.CreatedAt = now
		s.UpdatedAt = now
		r.slots[s.ID] = s
		created = append(created, cloneSlot(s))
	}
	return created, nil
}

func (r *MemRepository) slotExistsLocked(doctorID uuid.UUID, date calendar.Date, start calendar.Clock) bool {
	for _, s := range r.slots {
		if s.DoctorID == doctorID && s.Date.Equal(date) && s.Start == start {
			return true
		}
	}
	return false
}

func (r *MemRepository) ListAvailableSlots(_ context.Context, doctorID uuid.UUID, date calendar.Date) ([]Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Slot
	for _, s := range r.slots {
		if s.DoctorID == doctorID && s.Date.Equal(date) && s.Open() {
			out = append(out, cloneSlot(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (r *MemRepository) GetSlot(_ context.Context, id uuid.UUID) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	s = cloneSlot(s)
	return &s, nil
}

func (r *MemRepository) ReserveSlot(_ context.Context, slotID, appointmentID uuid.UUID) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[appointmentID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	slot, err := r.reserveLocked(slotID, &a)
	if err != nil {
		return nil, err
	}
	r.appointments[appointmentID] = a
	return &slot, nil
}

// reserveLocked takes one place in the slot for a and links a to it. Nothing
// changes when it fails.
func (r *MemRepository) reserveLocked(slotID uuid.UUID, a *Appointment) (Slot, error) {
	s, ok := r.slots[slotID]
	if !ok {
		return Slot{}, ErrSlotNotFound
	}
	if a.Status != StatusPending && a.Status != StatusConfirmed {
		return Slot{}, ErrAppointmentNotFound
	}
	if !s.Covers(a) {
		return Slot{}, ErrSlotMismatch
	}
	if !s.Available || s.Blocked {
		return Slot{}, ErrSlotUnavailable
	}
	if s.BookedPatients >= s.MaxPatients {
		return Slot{}, ErrSlotFull
	}

	s.BookedPatients++
	apptID := a.ID
	s.AppointmentID = &apptID
	if s.BookedPatients >= s.MaxPatients {
		s.Available = false
	}
	s.UpdatedAt = time.Now()
	r.slots[slotID] = s

	linked := slotID
	a.SlotID = &linked
	return cloneSlot(s), nil
}

// releaseLocked gives back one place in the slot. Only the releasing
// appointment is unlinked; nil means the one the slot points at.
func (r *MemRepository) releaseLocked(slotID uuid.UUID, appointmentID *uuid.UUID) (Slot, bool) {
	s, ok := r.slots[slotID]
	if !ok {
		return Slot{}, false
	}
	target := appointmentID
	if target == nil {
		target = s.AppointmentID
	}
	if target != nil {
		if a, ok := r.appointments[*target]; ok && a.SlotID != nil && *a.SlotID == slotID {
			a.SlotID = nil
			r.appointments[*target] = a
		}
	}

	if s.BookedPatients > 0 {
		s.BookedPatients--
	}
	s.AppointmentID = nil
	for id, a := range r.appointments {
		if a.SlotID != nil && *a.SlotID == slotID {
			remaining := id
			s.AppointmentID = &remaining
			break
		}
	}
	s.Available = true
	s.UpdatedAt = time.Now()
	r.slots[slotID] = s
	return s, true
}

func (r *MemRepository) ReleaseSlot(_ context.Context, slotID uuid.UUID) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.releaseLocked(slotID, nil)
	if !ok {
		return nil, ErrSlotNotFound
	}
	out := cloneSlot(s)
	return &out, nil
}

func (r *MemRepository) SetSlotBlocked(_ context.Context, slotID uuid.UUID, blocked bool, reason BlockReason, _ uuid.UUID) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[slotID]
	if !ok {
		return nil, ErrSlotNotFound
	}
	s.Blocked = blocked
	s.BlockReason = ""
	if blocked {
		s.BlockReason = reason
	}
	s.UpdatedAt = time.Now()
	r.slots[slotID] = s

	out := cloneSlot(s)
	return &out, nil
}
