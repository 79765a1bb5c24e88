package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"practice_reminder_service/internal/app"
	"practice_reminder_service/internal/infra/config"
	idb "practice_reminder_service/internal/infra/database"
	"practice_reminder_service/internal/infra/email"
	"practice_reminder_service/internal/infra/logger"
)

const usage = `Usage: jobs <command> [flags]

Commands:
  generate_work_instances   Pre-generate task instances for all active subscriptions
      --lookforward-months N   Override the generation horizon
      --dry-run                Report what would be created without writing
  update_overdue_tasks      Mark open instances past their due date as overdue
  send_reminder_emails      Dispatch all reminders that are due now
      --dry-run                Report what would be sent without sending
      --force-send ID          Send one reminder immediately regardless of schedule
  auto_start_tasks          Start auto-driven instances whose period has begun
      --dry-run                Report what would be started without writing
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg)
	log := logger.Get()

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()

	subscriptionRepo := idb.NewPostgresSubscriptionRepository(db)
	workTypeRepo := idb.NewPostgresWorkTypeRepository(db)
	taskRepo := idb.NewPostgresTaskRepository(db)
	reminderRepo := idb.NewPostgresReminderRepository(db)
	directoryRepo := idb.NewPostgresDirectoryRepository(db)
	notifyRepo := idb.NewPostgresNotifyRepository(db)

	bus := app.NewBus()
	bus.Subscribe(app.NewAssigneeOverdueNotifier(notifyRepo, log))

	reminderService := app.NewReminderService(subscriptionRepo, workTypeRepo, reminderRepo, directoryRepo, log, cfg.ReminderSendHour)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	now := time.Now().UTC()

	// Each command exits 0 even when individual rows fail: per-row outcomes
	// land in the printed summary, and cron reruns pick up the remainder.
	switch os.Args[1] {
	case "generate_work_instances":
		fs := flag.NewFlagSet("generate_work_instances", flag.ExitOnError)
		months := fs.Int("lookforward-months", cfg.HorizonMonths, "how many months ahead to generate")
		dryRun := fs.Bool("dry-run", false, "report without writing")
		fs.Parse(os.Args[2:])

		taskService := app.NewTaskService(subscriptionRepo, taskRepo, workTypeRepo, reminderService, bus, log, *months)
		summary, err := taskService.GenerateAll(ctx, now, *dryRun)
		if err != nil {
			log.WithError(err).Error("instance generation failed")
		}
		fmt.Println(summary.String())

	case "update_overdue_tasks":
		overdueService := app.NewOverdueService(taskRepo, bus, log)
		affected, err := overdueService.Sweep(ctx, now)
		if err != nil {
			log.WithError(err).Error("overdue sweep failed")
		}
		fmt.Printf("marked %d instance(s) overdue\n", affected)

	case "send_reminder_emails":
		fs := flag.NewFlagSet("send_reminder_emails", flag.ExitOnError)
		dryRun := fs.Bool("dry-run", false, "report without sending")
		forceSend := fs.Int64("force-send", 0, "reminder ID to send immediately")
		fs.Parse(os.Args[2:])

		sender := email.NewSMTPSender(cfg)
		dispatchService := app.NewDispatchService(reminderRepo, taskRepo, subscriptionRepo, workTypeRepo, directoryRepo, notifyRepo, sender, log)
		if *forceSend > 0 {
			if err := dispatchService.ForceSend(ctx, *forceSend); err != nil {
				log.WithError(err).Errorf("force-send of reminder %d failed", *forceSend)
			} else {
				fmt.Printf("reminder %d sent\n", *forceSend)
			}
			return
		}
		summary, err := dispatchService.ProcessDue(ctx, now, *dryRun)
		if err != nil {
			log.WithError(err).Error("reminder dispatch failed")
		}
		fmt.Println(summary.String())

	case "auto_start_tasks":
		fs := flag.NewFlagSet("auto_start_tasks", flag.ExitOnError)
		dryRun := fs.Bool("dry-run", false, "report without writing")
		fs.Parse(os.Args[2:])

		taskService := app.NewTaskService(subscriptionRepo, taskRepo, workTypeRepo, reminderService, bus, log, cfg.HorizonMonths)
		summary, err := taskService.AutoStartDue(ctx, now, *dryRun)
		if err != nil {
			log.WithError(err).Error("auto-start failed")
		}
		fmt.Println(summary.String())

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
	}
}
