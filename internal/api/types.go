package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

type BookAppointmentRequest struct {
	DoctorID      string `json:"doctor_id" validate:"required,uuid"`
	PatientID     string `json:"patient_id" validate:"omitempty,uuid"` // staff booking for someone else
	Date          string `json:"date" validate:"required,isodate"`
	Time          string `json:"time" validate:"required,hhmm"`
	Duration      int    `json:"duration" validate:"omitempty,min=15,max=120"`
	Reason        string `json:"reason" validate:"required,max=500"`
	Symptoms      string `json:"symptoms" validate:"max=1000"`
	Priority      string `json:"priority" validate:"omitempty,oneof=low medium high emergency"`
	Type          string `json:"type" validate:"omitempty,oneof=consultation follow-up emergency routine-checkup"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=cash card upi insurance"`
}

type ManualAppointmentRequest struct {
	DoctorID      string `json:"doctor_id" validate:"required,uuid"`
	PatientID     string `json:"patient_id" validate:"required,uuid"`
	Date          string `json:"date" validate:"required,isodate"`
	Time          string `json:"time" validate:"required,hhmm"`
	Duration      int    `json:"duration" validate:"omitempty,min=15,max=120"`
	Reason        string `json:"reason" validate:"max=500"`
	Symptoms      string `json:"symptoms" validate:"max=1000"`
	Priority      string `json:"priority" validate:"omitempty,oneof=low medium high emergency"`
	Type          string `json:"type" validate:"omitempty,oneof=manual walk-in"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=cash card upi insurance"`
	SlotID        string `json:"slot_id" validate:"omitempty,uuid"`
}

type RescheduleRequest struct {
	Date     string `json:"date" validate:"required,isodate"`
	Time     string `json:"time" validate:"required,hhmm"`
	Duration int    `json:"duration" validate:"omitempty,min=15,max=120"`
}

type ReasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type ReserveSlotRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required,uuid"`
}

type BlockSlotRequest struct {
	Reason string `json:"reason" validate:"omitempty,oneof=break emergency maintenance personal other"`
}

type PaymentResponse struct {
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
	Method string          `json:"method,omitempty"`
}

type CancellationResponse struct {
	Reason       string          `json:"reason"`
	CancelledBy  uuid.UUID       `json:"cancelled_by"`
	CancelledAt  time.Time       `json:"cancelled_at"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

type AppointmentResponse struct {
	ID           uuid.UUID             `json:"id"`
	PatientID    uuid.UUID             `json:"patient_id"`
	DoctorID     uuid.UUID             `json:"doctor_id"`
	Date         calendar.Date         `json:"date"`
	Time         calendar.Clock        `json:"time"`
	EndTime      calendar.Clock        `json:"end_time"`
	Duration     int                   `json:"duration"`
	Reason       string                `json:"reason,omitempty"`
	Symptoms     string                `json:"symptoms,omitempty"`
	Status       string                `json:"status"`
	Priority     string                `json:"priority"`
	Type         string                `json:"type"`
	Payment      PaymentResponse       `json:"payment"`
	Cancellation *CancellationResponse `json:"cancellation,omitempty"`
	SlotID       *uuid.UUID            `json:"slot_id,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:        a.ID,
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		Date:      a.Date,
		Time:      a.Time,
		EndTime:   a.EndTime(),
		Duration:  a.Duration,
		Reason:    a.Reason,
		Symptoms:  a.Symptoms,
		Status:    string(a.Status),
		Priority:  string(a.Priority),
		Type:      string(a.Type),
		Payment: PaymentResponse{
			Amount: a.Payment.Amount,
			Status: string(a.Payment.Status),
			Method: string(a.Payment.Method),
		},
		SlotID:    a.SlotID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if c := a.Cancellation; c != nil {
		resp.Cancellation = &CancellationResponse{
			Reason:       c.Reason,
			CancelledBy:  c.CancelledBy,
			CancelledAt:  c.CancelledAt,
			RefundAmount: c.RefundAmount,
		}
	}
	return resp
}

func toAppointmentList(list []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(list))
	for i := range list {
		out = append(out, toAppointmentResponse(&list[i]))
	}
	return out
}

type SlotResponse struct {
	ID             uuid.UUID       `json:"id"`
	DoctorID       uuid.UUID       `json:"doctor_id"`
	Date           calendar.Date   `json:"date"`
	StartTime      calendar.Clock  `json:"start_time"`
	EndTime        calendar.Clock  `json:"end_time"`
	Duration       int             `json:"duration"`
	MaxPatients    int             `json:"max_patients"`
	BookedPatients int             `json:"booked_patients"`
	Status         string          `json:"status"`
	BlockReason    string          `json:"block_reason,omitempty"`
	AppointmentID  *uuid.UUID      `json:"appointment_id,omitempty"`
	Fee            decimal.Decimal `json:"fee"`
	Type           string          `json:"type"`
}

func toSlotResponse(s *appointment.Slot) SlotResponse {
	return SlotResponse{
		ID:             s.ID,
		DoctorID:       s.DoctorID,
		Date:           s.Date,
		StartTime:      s.Start,
		EndTime:        s.End,
		Duration:       s.Duration,
		MaxPatients:    s.MaxPatients,
		BookedPatients: s.BookedPatients,
		Status:         string(s.Status()),
		BlockReason:    string(s.BlockReason),
		AppointmentID:  s.AppointmentID,
		Fee:            s.Fee,
		Type:           string(s.Type),
	}
}

func toSlotList(list []appointment.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(list))
	for i := range list {
		out = append(out, toSlotResponse(&list[i]))
	}
	return out
}

type IntervalResponse struct {
	Start calendar.Clock `json:"start"`
	End   calendar.Clock `json:"end"`
}

type AvailabilityResponse struct {
	DoctorID  uuid.UUID          `json:"doctor_id"`
	Date      calendar.Date      `json:"date"`
	Available bool               `json:"available"`
	Reason    string             `json:"reason,omitempty"`
	Window    *IntervalResponse  `json:"working_hours,omitempty"`
	Booked    []IntervalResponse `json:"booked"`
}

func toAvailabilityResponse(a *appointment.Availability) AvailabilityResponse {
	resp := AvailabilityResponse{
		DoctorID:  a.DoctorID,
		Date:      a.Date,
		Available: a.Available,
		Reason:    a.Reason,
		Booked:    make([]IntervalResponse, 0, len(a.Booked)),
	}
	if a.Window != nil {
		resp.Window = &IntervalResponse{Start: a.Window.Start, End: a.Window.End}
	}
	for _, b := range a.Booked {
		resp.Booked = append(resp.Booked, IntervalResponse{Start: b.Start, End: b.End})
	}
	return resp
}

type StatsResponse struct {
	ByStatus map[string]int `json:"by_status"`
	Today    int            `json:"today"`
	Upcoming int            `json:"upcoming"`
}

func toStatsResponse(s *appointment.Stats) StatsResponse {
	resp := StatsResponse{ByStatus: make(map[string]int, len(s.ByStatus)), Today: s.Today, Upcoming: s.Upcoming}
	for st, n := range s.ByStatus {
		resp.ByStatus[string(st)] = n
	}
	return resp
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
