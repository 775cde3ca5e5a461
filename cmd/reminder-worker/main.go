package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/clinic-appointment-scheduling/internal/appointment"
	"github.com/hackgods/clinic-appointment-scheduling/internal/config"
	"github.com/hackgods/clinic-appointment-scheduling/internal/db"
	"github.com/hackgods/clinic-appointment-scheduling/internal/events"
	"github.com/hackgods/clinic-appointment-scheduling/internal/logger"
	"github.com/hackgods/clinic-appointment-scheduling/internal/reminder"
)

func main() {
	once := flag.Bool("once", false, "send today's reminders and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("", "info", "reminder-worker")
		bootLog.Fatal().Err(err).Msg("config load error")
	}
	log := logger.New(cfg.Env, cfg.LogLevel, "reminder-worker")
	log.Info().Str("env", cfg.Env).Str("schedule", cfg.ReminderSchedule).Msg("reminder-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.DBMaxConns, cfg.DBMinConns)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	publisher, err := events.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("events publisher error")
	}
	defer publisher.Close()

	job := reminder.NewJob(appointment.NewPgRepository(pgPool), publisher, log)

	if *once {
		n, err := job.RunOnce(rootCtx)
		if err != nil {
			log.Error().Err(err).Msg("reminder run failed")
			os.Exit(1)
		}
		log.Info().Int("sent", n).Msg("reminder run complete")
		return
	}

	stopCron, err := job.Schedule(rootCtx, cfg.ReminderSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("schedule error")
	}

	<-rootCtx.Done()
	log.Info().Msg("shutdown signal received, stopping reminder worker")
	stopCron()
}
