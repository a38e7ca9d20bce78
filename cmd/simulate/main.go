package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logging"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	ConfirmRatio float64
	ReadRatio    float64
	PatientLimit int
	DoctorLimit  int
	DaysAhead    int
	PostgresDSN  string
	JWTSecret    []byte
}

type DataPool struct {
	Patients     []uuid.UUID
	Doctors      []uuid.UUID
	Desk         uuid.UUID // receptionist used for confirmations
	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	pct := func(p int) time.Duration {
		idx := len(latencies) * p / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}

	return sum / time.Duration(len(latencies)), latencies[0], latencies[len(latencies)-1], pct(50), pct(95)
}

type Metrics struct {
	Booking       OperationMetrics
	Confirm       OperationMetrics
	ReadByID      OperationMetrics
	ListByPatient OperationMetrics
	DoctorSlots   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	log     *zap.Logger
	metrics Metrics

	tokenMu sync.Mutex
	tokens  map[uuid.UUID]string
}

func main() {
	logger, err := logging.New("dev", "info")
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	logger.Info("simulator starting",
		zap.Duration("duration", cfg.Duration),
		zap.Int("workers", cfg.Workers),
		zap.Float64("booking", cfg.BookingRatio),
		zap.Float64("confirm", cfg.ConfirmRatio),
		zap.Float64("read", cfg.ReadRatio),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 4})
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		logger.Fatal("load data pool", zap.Error(err))
	}

	logger.Info("data pool loaded",
		zap.Int("patients", len(dataPool.Patients)),
		zap.Int("doctors", len(dataPool.Doctors)),
	)

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger,
		tokens: make(map[uuid.UUID]string),
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() (SimConfig, error) {
	baseCfg, err := config.Load()
	if err != nil {
		return SimConfig{}, fmt.Errorf("load base config: %w", err)
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.5),
		ConfirmRatio: getFloat("SIM_CONFIRM_RATIO", 0.2),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 4000),
		DoctorLimit:  getInt("SIM_DOCTOR_LIMIT", 20),
		DaysAhead:    getInt("SIM_DAYS_AHEAD", 14),
		PostgresDSN:  baseCfg.PostgresDSN,
		JWTSecret:    []byte(baseCfg.JWTSecret),
	}

	total := cfg.BookingRatio + cfg.ConfirmRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ConfirmRatio /= total
		cfg.ReadRatio /= total
	}

	switch {
	case cfg.PostgresDSN == "":
		return cfg, fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	case len(cfg.JWTSecret) == 0:
		return cfg, fmt.Errorf("JWT_SECRET is required to mint simulator tokens")
	case cfg.Workers <= 0:
		return cfg, fmt.Errorf("SIM_WORKERS must be > 0")
	case cfg.Duration <= 0:
		return cfg, fmt.Errorf("SIM_DURATION must be > 0")
	case cfg.DaysAhead <= 0:
		return cfg, fmt.Errorf("SIM_DAYS_AHEAD must be > 0")
	}
	return cfg, nil
}

func loadIDs(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}
	var err error

	dataPool.Patients, err = loadIDs(ctx, pool, `
		SELECT id FROM users WHERE role = 'patient' AND is_active LIMIT $1
	`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}

	// A small doctor pool keeps calendars crowded enough to produce conflicts.
	dataPool.Doctors, err = loadIDs(ctx, pool, `
		SELECT id FROM users WHERE role = 'doctor' AND is_active AND is_verified LIMIT $1
	`, cfg.DoctorLimit)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}

	desk, err := loadIDs(ctx, pool, `SELECT id FROM users WHERE role = 'receptionist' LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("load receptionist: %w", err)
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Doctors) == 0 {
		return nil, fmt.Errorf("no bookable doctors loaded")
	}
	if len(desk) == 0 {
		return nil, fmt.Errorf("no receptionist loaded")
	}
	dataPool.Desk = desk[0]

	return dataPool, nil
}

func (s *Simulator) token(actor appointment.Actor) string {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	if t, ok := s.tokens[actor.ID]; ok {
		return t
	}
	t, err := api.IssueToken(s.config.JWTSecret, actor, s.config.Duration+time.Hour)
	if err != nil {
		s.log.Fatal("issue token", zap.Error(err))
	}
	s.tokens[actor.ID] = t
	return t
}

func (s *Simulator) desk() appointment.Actor {
	return appointment.Actor{ID: s.pool.Desk, Role: appointment.RoleReceptionist}
}

// do sends one request as actor and decodes a JSON body into out when the
// call succeeds.
func (s *Simulator) do(ctx context.Context, actor appointment.Actor, method, path string, body any, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token(actor))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.Info("starting simulation", zap.Duration("duration", s.config.Duration), zap.Int("workers", s.config.Workers))

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.ConfirmRatio:
				s.doConfirm(ctx, rng)
			default:
				switch rng.Intn(3) {
				case 0:
					s.doReadByID(ctx, rng)
				case 1:
					s.doListByPatient(ctx, rng)
				case 2:
					s.doDoctorSlots(ctx, rng)
				}
			}
		}
	}
}

// randomVisit picks a weekday in the booking window and a half-hour start
// between 09:00 and 16:30.
func (s *Simulator) randomVisit(rng *rand.Rand) (calendar.Date, calendar.Clock) {
	date := calendar.DateOf(time.Now().UTC()).AddDays(1 + rng.Intn(s.config.DaysAhead))
	for date.Weekday() == calendar.Saturday || date.Weekday() == calendar.Sunday {
		date = date.AddDays(1)
	}
	return date, calendar.Clock(9*60 + 30*rng.Intn(16))
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	patient := appointment.Actor{ID: s.pool.Patients[rng.Intn(len(s.pool.Patients))], Role: appointment.RolePatient}
	doctorID := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	date, at := s.randomVisit(rng)

	start := time.Now()
	var out api.AppointmentResponse
	status, err := s.do(ctx, patient, http.MethodPost, "/appointments", api.BookAppointmentRequest{
		DoctorID: doctorID.String(),
		Date:     date.String(),
		Time:     at.String(),
		Duration: appointment.DefaultDuration,
		Reason:   "simulated visit",
	}, &out)
	latency := time.Since(start)

	success := err == nil && status == http.StatusCreated
	if success && out.ID != uuid.Nil {
		s.pool.AddAppointment(out.ID)
	}
	s.metrics.Booking.Record(latency, success, status == http.StatusConflict)
}

func (s *Simulator) doConfirm(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	status, err := s.do(ctx, s.desk(), http.MethodPost, fmt.Sprintf("/appointments/%s/confirm", apptID), nil, nil)
	latency := time.Since(start)

	// Confirming twice is an invalid transition, which is the expected race here.
	s.metrics.Confirm.Record(latency, err == nil && status == http.StatusOK,
		status == http.StatusConflict || status == http.StatusBadRequest)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	status, err := s.do(ctx, s.desk(), http.MethodGet, fmt.Sprintf("/appointments/%s", apptID), nil, nil)
	s.metrics.ReadByID.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doListByPatient(ctx context.Context, rng *rand.Rand) {
	patient := appointment.Actor{ID: s.pool.Patients[rng.Intn(len(s.pool.Patients))], Role: appointment.RolePatient}

	start := time.Now()
	status, err := s.do(ctx, patient, http.MethodGet, "/appointments?limit=20&offset=0", nil, nil)
	s.metrics.ListByPatient.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doDoctorSlots(ctx context.Context, rng *rand.Rand) {
	patient := appointment.Actor{ID: s.pool.Patients[rng.Intn(len(s.pool.Patients))], Role: appointment.RolePatient}
	doctorID := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	date, _ := s.randomVisit(rng)

	start := time.Now()
	status, err := s.do(ctx, patient, http.MethodGet, fmt.Sprintf("/doctors/%s/slots?date=%s", doctorID, date), nil, nil)
	s.metrics.DoctorSlots.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Confirm", &s.metrics.Confirm)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List by Patient", &s.metrics.ListByPatient)
	printOperationReport("Doctor Slots", &s.metrics.DoctorSlots)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
