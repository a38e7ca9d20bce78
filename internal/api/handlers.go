package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

func bookAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		actor := actorFrom(r.Context())

		patientID := actor.ID
		if req.PatientID != "" {
			requested := uuid.MustParse(req.PatientID)
			if requested != actor.ID && !actor.IsStaff() {
				handleError(w, r, appointment.ErrNotParticipant)
				return
			}
			patientID = requested
		}

		date, _ := calendar.ParseDate(req.Date)
		at, _ := calendar.ParseClock(req.Time)

		appt, err := svc.BookAppointment(r.Context(), appointment.BookingRequest{
			PatientID:     patientID,
			DoctorID:      uuid.MustParse(req.DoctorID),
			Date:          date,
			Time:          at,
			Duration:      req.Duration,
			Reason:        req.Reason,
			Symptoms:      req.Symptoms,
			Priority:      appointment.Priority(req.Priority),
			Type:          appointment.Type(req.Type),
			PaymentMethod: appointment.PaymentMethod(req.PaymentMethod),
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func manualAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ManualAppointmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		date, _ := calendar.ParseDate(req.Date)
		at, _ := calendar.ParseClock(req.Time)

		manual := appointment.ManualBookingRequest{
			BookingRequest: appointment.BookingRequest{
				PatientID:     uuid.MustParse(req.PatientID),
				DoctorID:      uuid.MustParse(req.DoctorID),
				Date:          date,
				Time:          at,
				Duration:      req.Duration,
				Reason:        req.Reason,
				Symptoms:      req.Symptoms,
				Priority:      appointment.Priority(req.Priority),
				Type:          appointment.Type(req.Type),
				PaymentMethod: appointment.PaymentMethod(req.PaymentMethod),
			},
		}
		if req.SlotID != "" {
			slotID := uuid.MustParse(req.SlotID)
			manual.SlotID = &slotID
		}

		appt, err := svc.CreateManualAppointment(r.Context(), actorFrom(r.Context()), manual)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), actorFrom(r.Context()), id)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// listAppointmentsHandler lists one patient's appointments, the caller's
// own unless patient_id says otherwise.
func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := actorFrom(r.Context())
		patientID, ok := queryUUID(w, r, "patient_id")
		if !ok {
			return
		}
		if patientID == nil {
			patientID = &actor.ID
		}

		list, err := svc.ListByPatient(r.Context(), actor, *patientID, queryInt(r, "limit"), queryInt(r, "offset"))
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentList(list))
	}
}

func filterFromQuery(w http.ResponseWriter, r *http.Request) (appointment.Filter, bool) {
	doctorID, ok := queryUUID(w, r, "doctor_id")
	if !ok {
		return appointment.Filter{}, false
	}
	date, ok := queryDate(w, r, false)
	if !ok {
		return appointment.Filter{}, false
	}
	return appointment.Filter{
		DoctorID: doctorID,
		Date:     date,
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	}, true
}

func listPendingHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := filterFromQuery(w, r)
		if !ok {
			return
		}

		list, err := svc.ListPending(r.Context(), actorFrom(r.Context()), f)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentList(list))
	}
}

func statsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := filterFromQuery(w, r)
		if !ok {
			return
		}

		stats, err := svc.Stats(r.Context(), actorFrom(r.Context()), f)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toStatsResponse(stats))
	}
}

func rescheduleHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		var req RescheduleRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		date, _ := calendar.ParseDate(req.Date)
		at, _ := calendar.ParseClock(req.Time)

		appt, err := svc.RescheduleAppointment(r.Context(), actorFrom(r.Context()), appointment.RescheduleRequest{
			ID:       id,
			Date:     date,
			Time:     at,
			Duration: req.Duration,
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

type transitionFunc func(r *http.Request, actor appointment.Actor, id uuid.UUID) (*appointment.Appointment, error)

// transitionHandler serves the POST /appointments/{id}/<action> family.
func transitionHandler(do transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		appt, err := do(r, actorFrom(r.Context()), id)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func withReason(w http.ResponseWriter, r *http.Request, then func(reason string)) {
	var req ReasonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	then(req.Reason)
}

func confirmHandler(svc *appointment.Service) http.HandlerFunc {
	return transitionHandler(func(r *http.Request, actor appointment.Actor, id uuid.UUID) (*appointment.Appointment, error) {
		return svc.ConfirmAppointment(r.Context(), actor, id)
	})
}

func rejectHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withReason(w, r, func(reason string) {
			transitionHandler(func(r *http.Request, actor appointment.Actor, id uuid.UUID) (*appointment.Appointment, error) {
				return svc.RejectAppointment(r.Context(), actor, id, reason)
			})(w, r)
		})
	}
}

func cancelHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		withReason(w, r, func(reason string) {
			transitionHandler(func(r *http.Request, actor appointment.Actor, id uuid.UUID) (*appointment.Appointment, error) {
				return svc.CancelAppointment(r.Context(), actor, id, reason)
			})(w, r)
		})
	}
}

func startHandler(svc *appointment.Service) http.HandlerFunc {
	return transitionHandler(func(r *http.Request, actor appointment.Actor, id uuid.UUID) (*appointment.Appointment, error) {
		return svc.StartAppointment(r.Context(), actor, id)
	})
}

func completeHandler(svc *appointment.Service) http.HandlerFunc {
	return transitionHandler(func(r *http.Request, actor appointment.Actor, id uuid.UUID) (*appointment.Appointment, error) {
		return svc.CompleteAppointment(r.Context(), actor, id)
	})
}

func noShowHandler(svc *appointment.Service) http.HandlerFunc {
	return transitionHandler(func(r *http.Request, actor appointment.Actor, id uuid.UUID) (*appointment.Appointment, error) {
		return svc.MarkNoShow(r.Context(), actor, id)
	})
}

// Doctors and slots

func doctorSlotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		date, ok := queryDate(w, r, true)
		if !ok {
			return
		}

		slots, err := svc.ListSlots(r.Context(), doctorID, *date)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotList(slots))
	}
}

func doctorAvailabilityHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		date, ok := queryDate(w, r, true)
		if !ok {
			return
		}

		av, err := svc.GetDoctorAvailability(r.Context(), doctorID, *date)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAvailabilityResponse(av))
	}
}

type slotFunc func(r *http.Request, actor appointment.Actor, id uuid.UUID) (*appointment.Slot, error)

func slotHandler(do slotFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}

		slot, err := do(r, actorFrom(r.Context()), id)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotResponse(slot))
	}
}

func reserveSlotHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReserveSlotRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		slotHandler(func(r *http.Request, actor appointment.Actor, id uuid.UUID) (*appointment.Slot, error) {
			return svc.ReserveSlot(r.Context(), actor, id, uuid.MustParse(req.AppointmentID))
		})(w, r)
	}
}

func releaseSlotHandler(svc *appointment.Service) http.HandlerFunc {
	return slotHandler(func(r *http.Request, actor appointment.Actor, id uuid.UUID) (*appointment.Slot, error) {
		return svc.ReleaseSlot(r.Context(), actor, id)
	})
}

func blockSlotHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BlockSlotRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		slotHandler(func(r *http.Request, actor appointment.Actor, id uuid.UUID) (*appointment.Slot, error) {
			return svc.BlockSlot(r.Context(), actor, id, appointment.BlockReason(req.Reason))
		})(w, r)
	}
}

func unblockSlotHandler(svc *appointment.Service) http.HandlerFunc {
	return slotHandler(func(r *http.Request, actor appointment.Actor, id uuid.UUID) (*appointment.Slot, error) {
		return svc.UnblockSlot(r.Context(), actor, id)
	})
}
