package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"practice_reminder_service/internal/app"
	"practice_reminder_service/internal/infra/config"
	idb "practice_reminder_service/internal/infra/database"
	"practice_reminder_service/internal/infra/email"
	"practice_reminder_service/internal/infra/logger"
	"practice_reminder_service/internal/infra/scheduler"
)

func main() {
	fmt.Println("Practice Reminder Service starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Horizon: %d months", cfg.LogLevel, cfg.Environment, cfg.HorizonMonths)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Initialize Repositories
	subscriptionRepo := idb.NewPostgresSubscriptionRepository(db)
	workTypeRepo := idb.NewPostgresWorkTypeRepository(db)
	taskRepo := idb.NewPostgresTaskRepository(db)
	reminderRepo := idb.NewPostgresReminderRepository(db)
	directoryRepo := idb.NewPostgresDirectoryRepository(db)
	notifyRepo := idb.NewPostgresNotifyRepository(db)
	log.Info("Repositories initialized.")

	// Domain events: overdue instances raise an in-app alert for the assignee.
	bus := app.NewBus()
	bus.Subscribe(app.NewAssigneeOverdueNotifier(notifyRepo, log))

	// Initialize Services
	reminderService := app.NewReminderService(subscriptionRepo, workTypeRepo, reminderRepo, directoryRepo, log, cfg.ReminderSendHour)
	taskService := app.NewTaskService(subscriptionRepo, taskRepo, workTypeRepo, reminderService, bus, log, cfg.HorizonMonths)
	overdueService := app.NewOverdueService(taskRepo, bus, log)
	sender := email.NewSMTPSender(cfg)
	dispatchService := app.NewDispatchService(reminderRepo, taskRepo, subscriptionRepo, workTypeRepo, directoryRepo, notifyRepo, sender, log)
	log.Info("Services initialized.")

	// Initialize and start the job scheduler
	jobScheduler := scheduler.NewJobScheduler(taskService, overdueService, dispatchService, log, cfg)
	jobScheduler.Start()

	log.Info("Application setup complete. Scheduler is running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	jobScheduler.Stop()
	log.Info("Application shut down gracefully.")
}
