package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifecycle_notification_service/internal/app"
	"lifecycle_notification_service/internal/domain/catalog"
	domaintelegram "lifecycle_notification_service/internal/domain/telegram"
	"lifecycle_notification_service/internal/infra/config"
	idb "lifecycle_notification_service/internal/infra/database"
	"lifecycle_notification_service/internal/infra/logger"
	"lifecycle_notification_service/internal/infra/scheduler"
	"lifecycle_notification_service/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	runOnce := flag.Bool("once", false, "run a single lifecycle batch and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Service().WithField("component", "main")

	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"admin_id":    cfg.AdminTelegramID,
		"timezone":    cfg.Timezone.String(),
		"bot_enabled": cfg.BotEnabled(),
	}).Info("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	if cfg.RunMigrations {
		if err := idb.Migrate(db, logger.Service()); err != nil {
			mainLogger.WithError(err).Fatal("Could not apply database migrations")
		}
	}

	// Initialize Repositories
	retryPolicy := idb.DefaultRetryPolicy()
	retryPolicy.Timeout = cfg.StoreTimeout
	retryPolicy.MaxRetries = uint(cfg.StoreMaxRetries)
	subjectRepo := idb.NewRetryingSubjectRepository(idb.NewPostgresSubjectRepository(db), retryPolicy, logger.Service())
	notificationRepo := idb.NewRetryingNotificationRepository(idb.NewPostgresNotificationRepository(db), retryPolicy, logger.Service())
	mainLogger.Info("Repositories initialized.")

	// Initialize Catalog and Services
	eventCatalog := catalog.Default()
	for _, rejected := range eventCatalog.Rejected() {
		mainLogger.WithError(rejected).Warn("Catalog row dropped")
	}
	mainLogger.WithFields(logrus.Fields{
		"catalog_version": eventCatalog.Version(),
		"events":          eventCatalog.Len(),
	}).Info("Event catalog loaded")

	planner := app.NewPlanner(eventCatalog, app.DefaultSchedulePolicy(), logger.Service())
	lifecycleService := app.NewLifecycleService(subjectRepo, notificationRepo, planner, logger.Service(), cfg.BatchConcurrency)

	// Initialize Telegram Bot
	var bot *telebot.Bot
	var reporter domaintelegram.Client
	if cfg.BotEnabled() {
		botLogger := logger.Service().WithField("component", "telegram")
		pref := telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				entry := botLogger.WithError(err)
				if c != nil && c.Sender() != nil && c.Chat() != nil {
					entry = entry.WithFields(logrus.Fields{"text": c.Text(), "sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
				}
				entry.Error("Telegram handler error")
			},
		}
		bot, err = telebot.NewBot(pref)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		reporter = telegram.NewTelebotAdapter(bot)
	} else {
		mainLogger.Warn("TELEGRAM_TOKEN is not set. Operator bot and batch reports are disabled.")
	}

	operatorService := app.NewOperatorService(lifecycleService, notificationRepo, reporter, cfg.AdminTelegramID, cfg.Timezone, logger.Service())

	batchScheduler := scheduler.NewBatchScheduler(
		operatorService,
		logger.Service(),
		cfg.Timezone,
		cfg.CronSpecDailyBatch,
		cfg.BatchTimeout,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if *runOnce {
		mainLogger.Info("Running a single lifecycle batch.")
		go func() {
			<-quit
			mainLogger.Info("Signal received. Cancelling batch.")
			batchScheduler.Stop()
		}()
		if err := batchScheduler.RunNow(); err != nil {
			mainLogger.WithError(err).Error("Lifecycle batch did not complete")
			db.Close()
			os.Exit(1)
		}
		return
	}

	if err := batchScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start batch scheduler")
	}

	if bot != nil {
		handlerLogger := logger.Service().WithField("component", "telegram_handlers")
		telegram.RegisterBotCommands(bot, cfg.AdminTelegramID, handlerLogger)
		telegram.RegisterOperatorHandlers(ctx, bot, operatorService, cfg.AdminTelegramID, handlerLogger)
		telegram.RegisterStatusCallbackHandlers(ctx, bot, operatorService, handlerLogger)
		mainLogger.Info("Operator command handlers registered.")

		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
	}

	mainLogger.Info("Application setup complete. Scheduler is running.")

	// Graceful shutdown
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	cancel()
	if bot != nil {
		bot.Stop()
	}
	<-batchScheduler.Stop().Done()
	mainLogger.Info("Application shut down gracefully.")
}
