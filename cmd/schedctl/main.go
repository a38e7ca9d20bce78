package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/bootstrap"
	"github.com/hackgods/clinic-scheduling/internal/calendar"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "schedctl",
		Short:        "Operator tooling for the clinic scheduling engine",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(noShowCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env loads configuration and a logger. Every subcommand starts with it.
func env() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config load: %w", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("logger init: %w", err)
	}
	return cfg, logger, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := env()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.StoreDriver != config.StorePostgres {
				return errors.New("migrate needs STORE_DRIVER=postgres")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := db.Migrate(ctx, pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				logger.Info("schema is up to date")
				return nil
			}
			logger.Info("migrations applied", zap.Strings("files", applied))
			return nil
		},
	}
}

func slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Manage bookable slots",
	}

	var (
		doctor string
		from   string
		days   int
	)
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Materialise a doctor's weekly template as slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			doctorID, err := uuid.Parse(doctor)
			if err != nil {
				return fmt.Errorf("--doctor: %w", err)
			}
			start, err := calendar.ParseDate(from)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}
			if days <= 0 {
				return errors.New("--days must be > 0")
			}

			cfg, logger, err := env()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			deps, err := bootstrap.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			total := 0
			for i := 0; i < days; i++ {
				date := start.AddDays(i)
				created, err := deps.Service.GenerateSlotsForDate(cmd.Context(), doctorID, date)
				if err != nil {
					return fmt.Errorf("%s: %w", date, err)
				}
				total += len(created)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-9s %d new slots\n", date, date.Weekday(), len(created))
			}
			logger.Info("slot generation complete", zap.String("doctor_id", doctorID.String()), zap.Int("created", total))
			return nil
		},
	}
	generate.Flags().StringVar(&doctor, "doctor", "", "doctor id")
	generate.Flags().StringVar(&from, "date", "", "first day, YYYY-MM-DD")
	generate.Flags().IntVar(&days, "days", 1, "number of consecutive days")
	_ = generate.MarkFlagRequired("doctor")
	_ = generate.MarkFlagRequired("date")

	cmd.AddCommand(generate)
	return cmd
}

func noShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "noshow",
		Short: "Mark overdue active appointments as no-shows once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := env()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			deps, err := bootstrap.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer deps.Close()

			n, err := deps.Service.MarkStaleNoShows(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d appointments marked as no-show\n", n)
			return nil
		},
	}
}
