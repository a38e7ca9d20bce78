package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
)

const maxTxAttempts = 3

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Helpers

func pgDate(d calendar.Date) time.Time { return d.In(time.UTC) }

func statusNames(keep func(Status) bool) []string {
	var out []string
	for _, s := range AllStatuses {
		if keep(s) {
			out = append(out, string(s))
		}
	}
	return out
}

var (
	occupyingStatuses   = statusNames(Status.OccupiesCalendar)
	nonTerminalStatuses = statusNames(func(s Status) bool { return !s.IsTerminal() })
)

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// serializable runs fn in a SERIALIZABLE transaction and retries it when
// Postgres aborts it for a serialization failure or deadlock.
func (r *PgRepository) serializable(ctx context.Context, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
		if !isSerializationFailure(err) {
			break
		}
	}
	if isUniqueViolation(err) {
		return ErrTimeConflict
	}
	return err
}

const appointmentColumns = `
	id, patient_id, doctor_id, appointment_date, start_minute, duration,
	reason, symptoms, status, priority, type,
	payment_amount, payment_status, payment_method,
	cancel_reason, cancelled_by, cancelled_at, refund_amount,
	slot_id, created_by, last_modified_by, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a            Appointment
		date         time.Time
		start        int
		method       *string
		cancelReason *string
		cancelledBy  *uuid.UUID
		cancelledAt  *time.Time
		refund       decimal.NullDecimal
	)

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&date,
		&start,
		&a.Duration,
		&a.Reason,
		&a.Symptoms,
		&a.Status,
		&a.Priority,
		&a.Type,
		&a.Payment.Amount,
		&a.Payment.Status,
		&method,
		&cancelReason,
		&cancelledBy,
		&cancelledAt,
		&refund,
		&a.SlotID,
		&a.CreatedBy,
		&a.LastModifiedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = calendar.DateOf(date)
	a.Time = calendar.Clock(start)
	if method != nil {
		a.Payment.Method = PaymentMethod(*method)
	}
	if cancelledAt != nil {
		a.Cancellation = &Cancellation{CancelledAt: *cancelledAt, RefundAmount: refund.Decimal}
		if cancelReason != nil {
			a.Cancellation.Reason = *cancelReason
		}
		if cancelledBy != nil {
			a.Cancellation.CancelledBy = *cancelledBy
		}
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows, err error) ([]Appointment, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

const slotColumns = `
	id, doctor_id, slot_date, start_minute, end_minute, duration,
	max_patients, booked_patients, is_available, is_blocked, block_reason,
	appointment_id, fee, slot_type, created_by, created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var (
		s           Slot
		date        time.Time
		start, end  int
		blockReason *string
	)

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&date,
		&start,
		&end,
		&s.Duration,
		&s.MaxPatients,
		&s.BookedPatients,
		&s.Available,
		&s.Blocked,
		&blockReason,
		&s.AppointmentID,
		&s.Fee,
		&s.Type,
		&s.CreatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.Date = calendar.DateOf(date)
	s.Start = calendar.Clock(start)
	s.End = calendar.Clock(end)
	if blockReason != nil {
		s.BlockReason = BlockReason(*blockReason)
	}
	return &s, nil
}

func collectSlots(rows pgx.Rows, err error) ([]Slot, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Directory

func (r *PgRepository) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var (
		d              Doctor
		specialization *string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, specialization, role, is_active, is_verified, consultation_fee
		FROM users
		WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &specialization, &d.Role, &d.Active, &d.Verified, &d.ConsultationFee)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if specialization != nil {
		d.Specialization = *specialization
	}

	rows, err := r.pool.Query(ctx, `
		SELECT day, start_minute, end_minute, is_available
		FROM doctor_schedules
		WHERE doctor_id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			day        string
			start, end int
			entry      DaySchedule
		)
		if err := rows.Scan(&day, &start, &end, &entry.Available); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		if entry.Day, err = calendar.ParseWeekday(day); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		entry.Start = calendar.Clock(start)
		entry.End = calendar.Clock(end)
		d.Schedule = append(d.Schedule, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	return &d, nil
}

// Ledger

func (r *PgRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f Filter) ([]Appointment, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.DoctorID != nil {
		where = append(where, "doctor_id = "+arg(*f.DoctorID))
	}
	if f.PatientID != nil {
		where = append(where, "patient_id = "+arg(*f.PatientID))
	}
	if f.Date != nil {
		where = append(where, "appointment_date = "+arg(pgDate(*f.Date)))
	}
	if len(f.Statuses) > 0 {
		names := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			names[i] = string(s)
		}
		where = append(where, "status = ANY("+arg(names)+")")
	}

	q := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY appointment_date, start_minute"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		q += " OFFSET " + arg(f.Offset)
	}

	return collectAppointments(r.pool.Query(ctx, q, args...))
}

func findConflicts(ctx context.Context, q querier, doctorID uuid.UUID, date calendar.Date, span calendar.Interval, excludeID *uuid.UUID) ([]Appointment, error) {
	return collectAppointments(q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date = $2
		  AND status = ANY($3)
		  AND start_minute < $5
		  AND $4 < start_minute + duration
		  AND ($6::uuid IS NULL OR id <> $6)
		ORDER BY start_minute
	`, doctorID, pgDate(date), occupyingStatuses, int(span.Start), int(span.End), excludeID))
}

func findSameDay(ctx context.Context, q querier, patientID, doctorID uuid.UUID, date calendar.Date) (*Appointment, error) {
	row := q.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		  AND doctor_id = $2
		  AND appointment_date = $3
		  AND status = ANY($4)
		ORDER BY start_minute
		LIMIT 1
	`, patientID, doctorID, pgDate(date), nonTerminalStatuses)
	return scanAppointment(row)
}

func (r *PgRepository) FindConflicts(ctx context.Context, doctorID uuid.UUID, date calendar.Date, span calendar.Interval, excludeID *uuid.UUID) ([]Appointment, error) {
	return findConflicts(ctx, r.pool, doctorID, date, span, excludeID)
}

func (r *PgRepository) FindSameDayAppointment(ctx context.Context, patientID, doctorID uuid.UUID, date calendar.Date) (*Appointment, error) {
	return findSameDay(ctx, r.pool, patientID, doctorID, date)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	var created *Appointment
	err := r.serializable(ctx, func(tx pgx.Tx) error {
		conflicts, err := findConflicts(ctx, tx, a.DoctorID, a.Date, a.Interval(), nil)
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if len(conflicts) > 0 {
			return ErrTimeConflict
		}

		_, err = findSameDay(ctx, tx, a.PatientID, a.DoctorID, a.Date)
		switch {
		case err == nil:
			return ErrDuplicateSameDay
		case !errors.Is(err, ErrAppointmentNotFound):
			return fmt.Errorf("check same day: %w", err)
		}

		var method *string
		if a.Payment.Method != "" {
			m := string(a.Payment.Method)
			method = &m
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO appointments (
				id, patient_id, doctor_id, appointment_date, start_minute, duration,
				reason, symptoms, status, priority, type,
				payment_amount, payment_status, payment_method,
				slot_id, created_by, last_modified_by, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now(), now())
			RETURNING `+appointmentColumns,
			id, a.PatientID, a.DoctorID, pgDate(a.Date), int(a.Time), a.Duration,
			a.Reason, a.Symptoms, a.Status, a.Priority, a.Type,
			a.Payment.Amount, a.Payment.Status, method,
			a.SlotID, a.CreatedBy, a.LastModifiedBy,
		)
		created, err = scanAppointment(row)
		if err != nil || a.SlotID == nil {
			return err
		}
		_, err = reserveSlot(ctx, tx, *a.SlotID, created)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// mutate locks the row, applies fn and writes the result back. With recheck
// the new interval is checked against the doctor's other appointments.
func mutate(ctx context.Context, tx pgx.Tx, id uuid.UUID, fn Mutation, recheck bool) (*Appointment, error) {
	cur, err := scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE
	`, id))
	if err != nil {
		return nil, err
	}

	next := cloneAppointment(*cur)
	if err := fn(&next); err != nil {
		return nil, err
	}

	if recheck && next.Status.OccupiesCalendar() {
		conflicts, err := findConflicts(ctx, tx, next.DoctorID, next.Date, next.Interval(), &next.ID)
		if err != nil {
			return nil, fmt.Errorf("check conflicts: %w", err)
		}
		if len(conflicts) > 0 {
			return nil, ErrTimeConflict
		}
	}

	var (
		method       *string
		cancelReason *string
		cancelledBy  *uuid.UUID
		cancelledAt  *time.Time
		refund       decimal.NullDecimal
	)
	if next.Payment.Method != "" {
		m := string(next.Payment.Method)
		method = &m
	}
	if c := next.Cancellation; c != nil {
		cancelReason = &c.Reason
		cancelledBy = &c.CancelledBy
		cancelledAt = &c.CancelledAt
		refund = decimal.NullDecimal{Decimal: c.RefundAmount, Valid: true}
	}

	updated, err := scanAppointment(tx.QueryRow(ctx, `
		UPDATE appointments
		SET appointment_date = $2,
		    start_minute = $3,
		    duration = $4,
		    reason = $5,
		    symptoms = $6,
		    status = $7,
		    priority = $8,
		    type = $9,
		    payment_amount = $10,
		    payment_status = $11,
		    payment_method = $12,
		    cancel_reason = $13,
		    cancelled_by = $14,
		    cancelled_at = $15,
		    refund_amount = $16,
		    slot_id = $17,
		    last_modified_by = $18,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id, pgDate(next.Date), int(next.Time), next.Duration,
		next.Reason, next.Symptoms, next.Status, next.Priority, next.Type,
		next.Payment.Amount, next.Payment.Status, method,
		cancelReason, cancelledBy, cancelledAt, refund,
		next.SlotID, next.LastModifiedBy,
	))
	if err != nil {
		return nil, err
	}

	if cur.SlotID != nil && next.SlotID == nil {
		if _, err := releaseSlot(ctx, tx, *cur.SlotID, &id); err != nil && !errors.Is(err, ErrSlotNotFound) {
			return nil, fmt.Errorf("release slot: %w", err)
		}
	}

	return updated, nil
}

func (r *PgRepository) RescheduleAppointment(ctx context.Context, id uuid.UUID, fn Mutation) (*Appointment, error) {
	var updated *Appointment
	err := r.serializable(ctx, func(tx pgx.Tx) error {
		var err error
		updated, err = mutate(ctx, tx, id, fn, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, id uuid.UUID, fn Mutation) (*Appointment, error) {
	var updated *Appointment
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		updated, err = mutate(ctx, tx, id, fn, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) FindStaleActive(ctx context.Context, date calendar.Date, at calendar.Clock) ([]Appointment, error) {
	return collectAppointments(r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status IN ('pending', 'confirmed')
		  AND (appointment_date < $1
		       OR (appointment_date = $1 AND start_minute + duration <= $2))
		ORDER BY appointment_date, start_minute
	`, pgDate(date), int(at)))
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, slot_id, payload, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, ev.EventType, ev.AppointmentID, ev.SlotID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Slots

func (r *PgRepository) EnsureSlots(ctx context.Context, drafts []Slot) ([]Slot, error) {
	var created []Slot
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		created = created[:0]
		for _, d := range drafts {
			if err := d.Validate(); err != nil {
				return err
			}
			id := d.ID
			if id == uuid.Nil {
				id = uuid.New()
			}

			s, err := scanSlot(tx.QueryRow(ctx, `
				INSERT INTO slots (
					id, doctor_id, slot_date, start_minute, end_minute, duration,
					max_patients, booked_patients, is_available, is_blocked,
					fee, slot_type, created_by, created_at, updated_at
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, 0, TRUE, FALSE, $8, $9, $10, now(), now())
				ON CONFLICT (doctor_id, slot_date, start_minute) DO NOTHING
				RETURNING `+slotColumns,
				id, d.DoctorID, pgDate(d.Date), int(d.Start), int(d.End), d.Duration,
				d.MaxPatients, d.Fee, d.Type, d.CreatedBy,
			))
			if errors.Is(err, ErrSlotNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("insert slot %s: %w", d.Start, err)
			}
			created = append(created, *s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) ListAvailableSlots(ctx context.Context, doctorID uuid.UUID, date calendar.Date) ([]Slot, error) {
	return collectSlots(r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM slots
		WHERE doctor_id = $1
		  AND slot_date = $2
		  AND is_available
		  AND NOT is_blocked
		  AND booked_patients < max_patients
		ORDER BY start_minute
	`, doctorID, pgDate(date)))
}

func (r *PgRepository) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return scanSlot(r.pool.QueryRow(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = $1`, id))
}

func (r *PgRepository) ReserveSlot(ctx context.Context, slotID, appointmentID uuid.UUID) (*Slot, error) {
	var reserved *Slot
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		appt, err := scanAppointment(tx.QueryRow(ctx, `
			SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE
		`, appointmentID))
		if err != nil {
			return err
		}

		reserved, err = reserveSlot(ctx, tx, slotID, appt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reserved, nil
}

// reserveSlot takes one place in the slot for appt with a single conditional
// UPDATE and links appt to it. appt must already be stored.
func reserveSlot(ctx context.Context, q querier, slotID uuid.UUID, appt *Appointment) (*Slot, error) {
	if appt.Status != StatusPending && appt.Status != StatusConfirmed {
		return nil, ErrAppointmentNotFound
	}

	reserved, err := scanSlot(q.QueryRow(ctx, `
		UPDATE slots
		SET booked_patients = booked_patients + 1,
		    appointment_id = $2,
		    is_available = booked_patients + 1 < max_patients,
		    updated_at = now()
		WHERE id = $1
		  AND doctor_id = $3
		  AND slot_date = $4
		  AND start_minute <= $5
		  AND $5 < end_minute
		  AND is_available
		  AND NOT is_blocked
		  AND booked_patients < max_patients
		RETURNING `+slotColumns,
		slotID, appt.ID, appt.DoctorID, pgDate(appt.Date), int(appt.Time),
	))
	if errors.Is(err, ErrSlotNotFound) {
		return nil, whySlotRefused(ctx, q, slotID, appt)
	}
	if err != nil {
		return nil, fmt.Errorf("reserve slot: %w", err)
	}

	if _, err := q.Exec(ctx, `
		UPDATE appointments SET slot_id = $2, updated_at = now() WHERE id = $1
	`, appt.ID, slotID); err != nil {
		return nil, fmt.Errorf("link slot: %w", err)
	}
	return reserved, nil
}

// whySlotRefused explains a reserve that matched no row.
func whySlotRefused(ctx context.Context, q querier, slotID uuid.UUID, appt *Appointment) error {
	s, err := scanSlot(q.QueryRow(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = $1`, slotID))
	if err != nil {
		return err
	}
	if !s.Covers(appt) {
		return ErrSlotMismatch
	}
	if s.Available && !s.Blocked && s.BookedPatients >= s.MaxPatients {
		return ErrSlotFull
	}
	return ErrSlotUnavailable
}

// releaseSlot gives back one place in the slot. Only appointmentID is
// unlinked; nil means the appointment the slot currently points at.
func releaseSlot(ctx context.Context, q querier, slotID uuid.UUID, appointmentID *uuid.UUID) (*Slot, error) {
	var current *uuid.UUID
	err := q.QueryRow(ctx, `SELECT appointment_id FROM slots WHERE id = $1 FOR UPDATE`, slotID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock slot: %w", err)
	}

	target := appointmentID
	if target == nil {
		target = current
	}
	if target != nil {
		if _, err := q.Exec(ctx, `
			UPDATE appointments SET slot_id = NULL, updated_at = now() WHERE id = $1 AND slot_id = $2
		`, *target, slotID); err != nil {
			return nil, fmt.Errorf("unlink slot: %w", err)
		}
	}

	return scanSlot(q.QueryRow(ctx, `
		UPDATE slots
		SET booked_patients = GREATEST(booked_patients - 1, 0),
		    appointment_id = (
		        SELECT a.id FROM appointments a
		        WHERE a.slot_id = $1
		        ORDER BY a.updated_at DESC
		        LIMIT 1
		    ),
		    is_available = TRUE,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+slotColumns,
		slotID,
	))
}

func (r *PgRepository) ReleaseSlot(ctx context.Context, slotID uuid.UUID) (*Slot, error) {
	var released *Slot
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		released, err = releaseSlot(ctx, tx, slotID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

func (r *PgRepository) SetSlotBlocked(ctx context.Context, slotID uuid.UUID, blocked bool, reason BlockReason, by uuid.UUID) (*Slot, error) {
	var stored *string
	if blocked {
		v := string(reason)
		stored = &v
	}

	return scanSlot(r.pool.QueryRow(ctx, `
		UPDATE slots
		SET is_blocked = $2,
		    block_reason = $3,
		    last_modified_by = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+slotColumns,
		slotID, blocked, stored, by,
	))
}
