// Command reminder-job sends today's reminder emails once and exits. It is meant for
// a cron scheduler that cannot reach the API's /jobs/reminder-emails endpoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"doctrack/internal/config"
	"doctrack/internal/database"
	"doctrack/internal/logger"
	"doctrack/internal/notify"
	"doctrack/internal/repository/postgres"
	"doctrack/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.Logging, cfg.Location())

	if err := run(cfg, log); err != nil {
		log.Error("reminder_job_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	rabbit, err := notify.DialRabbit(cfg.RabbitMQ.URL, log)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer rabbit.Close()

	job := service.NewReminderJob(postgres.NewReminderPostgres(db), rabbit, service.ReminderJobConfig{
		Queue:      cfg.RabbitMQ.EmailQueue,
		From:       cfg.Jobs.EmailFrom,
		AppBaseURL: cfg.Jobs.AppBaseURL,
	}, time.Now, log)

	res, err := job.Run(ctx)
	if err != nil {
		return err
	}
	log.Info("reminder_job_done", "message", res.Message, "sent", res.Sent, "errors", res.Errors, "total", res.Total)
	return nil
}
