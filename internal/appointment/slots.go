package appointment

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/events"
)

// GenerateSlotsForDate materialises the doctor's weekly template for date as
// 30-minute slots. Slots that already exist are left alone, so calling it
// again is harmless. It returns only the slots created by this call.
func (s *Service) GenerateSlotsForDate(ctx context.Context, doctorID uuid.UUID, date calendar.Date) ([]Slot, error) {
	doctor, err := s.repo.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != RoleDoctor || !doctor.Active {
		return nil, ErrDoctorNotFound
	}

	sched, ok := ScheduleFor(doctor, date)
	if !ok {
		return nil, nil
	}

	spans := PartitionSchedule(sched, SlotMinutes)
	drafts := make([]Slot, 0, len(spans))
	for _, span := range spans {
		drafts = append(drafts, Slot{
			DoctorID:    doctorID,
			Date:        date,
			Start:       span.Start,
			End:         span.End,
			Duration:    SlotMinutes,
			MaxPatients: 1,
			Available:   true,
			Fee:         doctor.ConsultationFee,
			Type:        SlotRegular,
		})
	}

	created, err := s.repo.EnsureSlots(ctx, drafts)
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		s.log.Debug("slots generated",
			zap.String("doctor_id", doctorID.String()),
			zap.String("date", date.String()),
			zap.Int("count", len(created)),
		)
	}
	return created, nil
}

// GetAvailableSlots lists open slots ordered by start time. It never creates
// slots.
func (s *Service) GetAvailableSlots(ctx context.Context, doctorID uuid.UUID, date calendar.Date) ([]Slot, error) {
	return s.repo.ListAvailableSlots(ctx, doctorID, date)
}

// ListSlots makes sure the day's slots exist and then lists the open ones.
func (s *Service) ListSlots(ctx context.Context, doctorID uuid.UUID, date calendar.Date) ([]Slot, error) {
	if _, err := s.GenerateSlotsForDate(ctx, doctorID, date); err != nil {
		return nil, err
	}
	return s.GetAvailableSlots(ctx, doctorID, date)
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.repo.GetSlot(ctx, id)
}

// ReserveSlot books one place in a slot for an existing appointment.
func (s *Service) ReserveSlot(ctx context.Context, actor Actor, slotID, appointmentID uuid.UUID) (*Slot, error) {
	appt, err := s.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParticipant(appt, actor); err != nil {
		return nil, err
	}

	slot, err := s.repo.ReserveSlot(ctx, slotID, appointmentID)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, events.SlotReserved, &appointmentID, &slot.ID, map[string]any{
		"booked_patients": slot.BookedPatients,
		"max_patients":    slot.MaxPatients,
	})
	return slot, nil
}

func (s *Service) ReleaseSlot(ctx context.Context, actor Actor, slotID uuid.UUID) (*Slot, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	slot, err := s.repo.ReleaseSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, events.SlotReleased, nil, &slot.ID, map[string]any{
		"booked_patients": slot.BookedPatients,
	})
	return slot, nil
}

func (s *Service) BlockSlot(ctx context.Context, actor Actor, slotID uuid.UUID, reason BlockReason) (*Slot, error) {
	if !actor.IsStaff() && actor.Role != RoleDoctor {
		return nil, ErrStaffOnly
	}
	if reason == "" {
		reason = BlockOther
	}
	if _, err := ParseBlockReason(string(reason)); err != nil {
		return nil, err
	}

	if actor.Role == RoleDoctor {
		slot, err := s.repo.GetSlot(ctx, slotID)
		if err != nil {
			return nil, err
		}
		if slot.DoctorID != actor.ID {
			return nil, ErrNotParticipant
		}
	}

	slot, err := s.repo.SetSlotBlocked(ctx, slotID, true, reason, actor.ID)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, events.SlotBlocked, nil, &slot.ID, map[string]any{
		"reason": string(reason),
		"actor":  actor.ID.String(),
	})
	return slot, nil
}

func (s *Service) UnblockSlot(ctx context.Context, actor Actor, slotID uuid.UUID) (*Slot, error) {
	if !actor.IsStaff() {
		return nil, ErrStaffOnly
	}

	slot, err := s.repo.SetSlotBlocked(ctx, slotID, false, "", actor.ID)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, events.SlotUnblocked, nil, &slot.ID, map[string]any{
		"actor": actor.ID.String(),
	})
	return slot, nil
}
