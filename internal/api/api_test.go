package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/events"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

var secret = []byte("test-secret")

type testServer struct {
	handler http.Handler
	doctor  appointment.Doctor
	patient appointment.Actor
	desk    appointment.Actor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := appointment.NewMemRepository()
	doctor := appointment.Doctor{
		ID:              uuid.New(),
		Name:            "Dr. Ada Okafor",
		Role:            appointment.RoleDoctor,
		Active:          true,
		Verified:        true,
		ConsultationFee: decimal.NewFromInt(300),
	}
	for _, d := range []calendar.Weekday{calendar.Monday, calendar.Tuesday, calendar.Wednesday, calendar.Thursday, calendar.Friday} {
		doctor.Schedule = append(doctor.Schedule, appointment.DaySchedule{
			Day: d, Start: calendar.NewClock(9, 0), End: calendar.NewClock(17, 0), Available: true,
		})
	}
	repo.PutDoctor(doctor)

	// Monday 2026-10-19, 08:00 UTC.
	now := func() time.Time { return time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC) }
	svc := appointment.NewService(repo, redisclient.NewLocalLocker(), events.NopPublisher{},
		config.Config{Location: time.UTC, NoShowGrace: time.Hour}, zap.NewNop(), appointment.WithClock(now))

	return &testServer{
		handler: NewRouter(RouterConfig{Service: svc, JWTSecret: secret, CORSOrigins: []string{"*"}, Env: "test"}),
		doctor:  doctor,
		patient: appointment.Actor{ID: uuid.New(), Role: appointment.RolePatient},
		desk:    appointment.Actor{ID: uuid.New(), Role: appointment.RoleReceptionist},
	}
}

func (s *testServer) do(t *testing.T, actor *appointment.Actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, err := IssueToken(secret, *actor, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) bookBody(date, at string) map[string]any {
	return map[string]any{
		"doctor_id": s.doctor.ID.String(),
		"date":      date,
		"time":      at,
		"reason":    "persistent cough",
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, nil, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(t, nil, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadinessResponse](t, rec)
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "disabled", ready.Dependencies["postgres"])
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, nil, http.MethodGet, "/appointments/pending", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/appointments/pending", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := IssueToken(secret, s.desk, -time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/appointments/pending", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token expired", decode[ErrorResponse](t, rec).Details)
}

func TestBookAppointmentEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, &s.patient, http.MethodPost, "/appointments", s.bookBody("2026-10-20", "10:00"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	appt := decode[AppointmentResponse](t, rec)
	assert.Equal(t, s.patient.ID, appt.PatientID)
	assert.Equal(t, "pending", appt.Status)
	assert.Equal(t, calendar.NewClock(10, 30), appt.EndTime)
	assert.True(t, appt.Payment.Amount.Equal(decimal.NewFromInt(300)))

	other := appointment.Actor{ID: uuid.New(), Role: appointment.RolePatient}
	rec = s.do(t, &other, http.MethodPost, "/appointments", s.bookBody("2026-10-20", "10:15"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "time_conflict", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, &other, http.MethodPost, "/appointments", s.bookBody("2026-10-20", "10:30"))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, &other, http.MethodPost, "/appointments", s.bookBody("2026-10-18", "10:30"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "past_date", decode[ErrorResponse](t, rec).Error)

	body := s.bookBody("2026-10-21", "10:00")
	body["doctor_id"] = uuid.NewString()
	rec = s.do(t, &other, http.MethodPost, "/appointments", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookAppointmentValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, &s.patient, http.MethodPost, "/appointments", s.bookBody("2026-10-20", "9:00"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation_failed", resp.Error)
	assert.Contains(t, resp.Details, "time must be HH:MM")

	rec = s.do(t, &s.patient, http.MethodPost, "/appointments", s.bookBody("20-10-2026", "09:00"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := s.bookBody("2026-10-20", "09:00")
	body["patient_id"] = uuid.NewString()
	rec = s.do(t, &s.patient, http.MethodPost, "/appointments", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestConfirmRequiresStaff(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, &s.patient, http.MethodPost, "/appointments", s.bookBody("2026-10-20", "11:00"))
	require.Equal(t, http.StatusCreated, rec.Code)
	appt := decode[AppointmentResponse](t, rec)
	path := "/appointments/" + appt.ID.String()

	rec = s.do(t, &s.patient, http.MethodPost, path+"/confirm", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, &s.desk, http.MethodPost, path+"/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "confirmed", decode[AppointmentResponse](t, rec).Status)

	rec = s.do(t, &s.desk, http.MethodPost, path+"/reject", map[string]string{"reason": "too late"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_status_transition", decode[ErrorResponse](t, rec).Error)

	rec = s.do(t, &s.patient, http.MethodPost, path+"/cancel", map[string]string{"reason": "travelling"})
	require.Equal(t, http.StatusOK, rec.Code)
	cancelled := decode[AppointmentResponse](t, rec)
	assert.Equal(t, "cancelled", cancelled.Status)
	require.NotNil(t, cancelled.Cancellation)
	assert.Equal(t, "travelling", cancelled.Cancellation.Reason)

	rec = s.do(t, &s.desk, http.MethodGet, "/appointments/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, &s.desk, http.MethodGet, "/appointments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSlotEndpoints(t *testing.T) {
	s := newTestServer(t)
	path := "/doctors/" + s.doctor.ID.String()

	rec := s.do(t, &s.patient, http.MethodGet, path+"/slots?date=2026-10-20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	slots := decode[[]SlotResponse](t, rec)
	require.Len(t, slots, 16)
	assert.Equal(t, calendar.NewClock(9, 0), slots[0].StartTime)
	assert.Equal(t, "available", slots[0].Status)

	rec = s.do(t, &s.patient, http.MethodGet, path+"/slots", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, &s.desk, http.MethodPost, "/slots/"+slots[1].ID.String()+"/block", map[string]string{"reason": "break"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "blocked", decode[SlotResponse](t, rec).Status)

	rec = s.do(t, &s.patient, http.MethodGet, path+"/slots?date=2026-10-20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]SlotResponse](t, rec), 15)

	rec = s.do(t, &s.patient, http.MethodPost, "/appointments", s.bookBody("2026-10-20", "09:00"))
	require.Equal(t, http.StatusCreated, rec.Code)
	appt := decode[AppointmentResponse](t, rec)

	rec = s.do(t, &s.patient, http.MethodPost, "/slots/"+slots[2].ID.String()+"/reserve", map[string]string{"appointment_id": appt.ID.String()})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "a 10:00 slot cannot hold a 09:00 visit")

	rec = s.do(t, &s.patient, http.MethodPost, "/slots/"+slots[0].ID.String()+"/reserve", map[string]string{"appointment_id": appt.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[SlotResponse](t, rec).BookedPatients)

	rec = s.do(t, &s.patient, http.MethodGet, path+"/availability?date=2026-10-20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	av := decode[AvailabilityResponse](t, rec)
	assert.True(t, av.Available)
	require.Len(t, av.Booked, 1)
	assert.Equal(t, calendar.NewClock(9, 0), av.Booked[0].Start)
}

func TestPendingAndStats(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, &s.patient, http.MethodPost, "/appointments", s.bookBody("2026-10-20", "14:00"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, &s.patient, http.MethodGet, "/appointments/pending", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, &s.desk, http.MethodGet, "/appointments/pending?doctor_id="+s.doctor.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]AppointmentResponse](t, rec), 1)

	rec = s.do(t, &s.desk, http.MethodGet, "/appointments/stats?date=2026-10-20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[StatsResponse](t, rec)
	assert.Equal(t, 1, stats.ByStatus["pending"])
	assert.Equal(t, 1, stats.Upcoming)

	rec = s.do(t, &s.patient, http.MethodGet, "/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]AppointmentResponse](t, rec), 1)
}
