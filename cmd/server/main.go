package main

import (
	"math/rand"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/entregaszap/portaria/internal/config"
	"github.com/entregaszap/portaria/internal/database"
	"github.com/entregaszap/portaria/internal/handler"
	"github.com/entregaszap/portaria/internal/identity"
	"github.com/entregaszap/portaria/internal/notify"
	"github.com/entregaszap/portaria/internal/queue"
	"github.com/entregaszap/portaria/internal/repository"
	"github.com/entregaszap/portaria/internal/router"
	"github.com/entregaszap/portaria/internal/storage"
	"github.com/entregaszap/portaria/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	if cfg.Env != "prod" {
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; response cache and rate limiting disabled")
	}

	buildings := repository.NewBuildingRepo(db)
	residents := repository.NewResidentRepo(db)
	employees := repository.NewEmployeeRepo(db)
	deliveries := repository.NewDeliveryRepo(db)
	sessions := repository.NewSessionRepo(db)

	adapter := identity.NewAdapter()
	notifier := notify.NewClient(cfg.DefaultWebhookURL, cfg.WebhookTimeout, log)
	clock := workflow.RealClock()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	publisher := queue.NewPublisher(cfg.RabbitURL, log)
	go queue.StartConsumer(cfg.RabbitURL, log)

	photos, err := storage.NewPhotoStore(cfg.PhotoDir, cfg.PhotoBaseURL)
	if err != nil {
		log.WithError(err).Fatal("photo store init failed")
	}

	registrar := workflow.NewRegistrar(adapter, deliveries, employees, notifier, publisher,
		clock, cfg.DeliverySendDelay, rng, log)
	pickups := workflow.NewPickupService(adapter, deliveries, notifier, publisher, clock, log)
	reminders := workflow.NewReminderService(adapter, deliveries, notifier, clock, cfg.ReminderSendDelay, log)
	broadcaster := workflow.NewBroadcaster(notifier, clock, cfg.ReminderSendDelay, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())

	router.Register(e, router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, adapter, employees, buildings, sessions),
		Buildings:  handler.NewBuildingHandler(adapter, buildings),
		Residents:  handler.NewResidentHandler(adapter, buildings, residents),
		Employees:  handler.NewEmployeeHandler(cfg, adapter, buildings, employees),
		Deliveries: handler.NewDeliveryHandler(adapter, buildings, residents, deliveries, registrar, photos),
		Pickups:    handler.NewPickupHandler(pickups),
		Reminders:  handler.NewReminderHandler(adapter, reminders, deliveries),
		Reports:    handler.NewReportHandler(adapter, buildings, deliveries),
		Broadcasts: handler.NewBroadcastHandler(adapter, buildings, residents, employees, broadcaster),
	}, cfg, rdb, photos.Dir())

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
