package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logging"
)

func main() {
	doctors := flag.Int("doctors", 100, "number of doctors to create")
	patients := flag.Int("patients", 9000, "number of patients to create")
	receptionists := flag.Int("receptionists", 5, "number of front-desk accounts to create")
	flag.Parse()

	logger, err := logging.New("dev", "info")
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, db.PoolOptions{})
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	applied, err := db.Migrate(ctx, pool)
	if err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", zap.Strings("files", applied))
	}

	fake := gofakeit.New(time.Now().UnixNano())
	s := &seeder{pool: pool, fake: fake, log: logger}

	bg := context.Background()
	if err := s.doctors(bg, *doctors); err != nil {
		logger.Fatal("seed doctors", zap.Error(err))
	}
	if err := s.users(bg, "receptionist", *receptionists); err != nil {
		logger.Fatal("seed receptionists", zap.Error(err))
	}
	if err := s.users(bg, "patient", *patients); err != nil {
		logger.Fatal("seed patients", zap.Error(err))
	}

	logger.Info("seed complete")
}

type seeder struct {
	pool *pgxpool.Pool
	fake *gofakeit.Faker
	log  *zap.Logger
}

var specializations = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

// shifts are the weekday templates handed out to seeded doctors.
var shifts = []struct{ start, end calendar.Clock }{
	{9 * 60, 17 * 60},
	{8 * 60, 14 * 60},
	{12 * 60, 20 * 60},
	{10 * 60, 16*60 + 30},
}

var weekdays = []calendar.Weekday{
	calendar.Monday, calendar.Tuesday, calendar.Wednesday, calendar.Thursday, calendar.Friday,
}

func (s *seeder) doctors(ctx context.Context, count int) error {
	s.log.Info("seeding doctors", zap.Int("count", count))

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for i := 0; i < count; i++ {
			id := uuid.New()
			fee := decimal.NewFromInt(int64(s.fake.Number(20, 120)) * 10)
			// Roughly one in ten doctors is still awaiting verification.
			verified := s.fake.Number(1, 10) > 1

			_, err := tx.Exec(ctx, `
				INSERT INTO users (id, name, email, role, specialization, is_active, is_verified, consultation_fee)
				VALUES ($1, $2, $3, 'doctor', $4, TRUE, $5, $6)
			`, id, "Dr. "+s.fake.Name(), s.fake.Email(), specializations[s.fake.Number(0, len(specializations)-1)], verified, fee)
			if err != nil {
				return err
			}

			shift := shifts[s.fake.Number(0, len(shifts)-1)]
			for _, day := range weekdays {
				_, err := tx.Exec(ctx, `
					INSERT INTO doctor_schedules (doctor_id, day, start_minute, end_minute, is_available)
					VALUES ($1, $2, $3, $4, TRUE)
				`, id, string(day), int(shift.start), int(shift.end))
				if err != nil {
					return err
				}
			}
			if s.fake.Bool() {
				_, err := tx.Exec(ctx, `
					INSERT INTO doctor_schedules (doctor_id, day, start_minute, end_minute, is_available)
					VALUES ($1, $2, $3, $4, TRUE)
				`, id, string(calendar.Saturday), 9*60, 13*60)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *seeder) users(ctx context.Context, role string, count int) error {
	s.log.Info("seeding users", zap.String("role", role), zap.Int("count", count))

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			for i := offset; i < end; i++ {
				_, err := tx.Exec(ctx, `
					INSERT INTO users (id, name, email, role, is_active, is_verified)
					VALUES ($1, $2, $3, $4, TRUE, TRUE)
				`, uuid.New(), s.fake.Name(), s.fake.Email(), role)
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		s.log.Info("users seeded", zap.String("role", role), zap.Int("done", end), zap.Int("total", count))
	}

	return nil
}
