package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/gym_revenue/configs"
	"github.com/anjiri1684/gym_revenue/database"
	"github.com/anjiri1684/gym_revenue/handlers"
	"github.com/anjiri1684/gym_revenue/jobs"
	"github.com/anjiri1684/gym_revenue/logging"
	"github.com/anjiri1684/gym_revenue/notifications"
	"github.com/anjiri1684/gym_revenue/routes"
	"github.com/anjiri1684/gym_revenue/services"
	"github.com/anjiri1684/gym_revenue/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	log := logging.New(config.ConfigDefault("LOG_LEVEL", "info"))

	jwtSecret := config.Config("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	database.ConnectDB(log)
	database.Migrate(log)
	created, err := database.SeedAdmin(database.DB,
		config.Config("ADMIN_EMAIL"),
		config.Config("ADMIN_PASSWORD"),
		config.ConfigDefault("ADMIN_FULL_NAME", "Administrator"),
	)
	if err != nil {
		log.Warn().Err(err).Msg("admin seeding skipped")
	} else if created {
		log.Info().Msg("admin user created")
	}

	email := notifications.NewBrevoService(
		config.Config("BREVO_API_KEY"),
		config.Config("EMAIL_SENDER"),
		config.Config("EMAIL_SENDER_NAME"),
		log,
	)
	hub := websocket.NewHub(log)
	go hub.Run()

	pushers := []services.NotificationPusher{hub}
	if email != nil {
		pushers = append(pushers, email)
	}

	recorder := services.GormActivityRecorder{}
	rates := services.NewRateTable(database.DB, recorder, log)
	settlement := services.NewSettlementService(database.DB, rates, log)
	notifier := services.NewNotifier(database.DB, log, pushers...)
	ledger := services.NewWithdrawalLedger(database.DB, notifier, recorder, log)

	tz := config.ConfigDefault("APP_TIMEZONE", "Asia/Kolkata")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn().Err(err).Str("timezone", tz).Msg("unknown timezone, using UTC")
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	sweep := jobs.NewSettlementSweep(settlement, logging.Component(log, "jobs"))
	if err := sweep.Schedule(c, config.ConfigDefault("SETTLEMENT_SWEEP_CRON", "*/5 * * * *")); err != nil {
		log.Fatal().Err(err).Msg("invalid SETTLEMENT_SWEEP_CRON")
	}
	c.Start()
	log.Info().Msg("settlement sweep scheduled")

	httpLog := logging.Component(log, "http")
	app := fiber.New(fiber.Config{
		Prefork:       false,
		AppName:       "Gym Revenue",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			httpLog.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Int("code", code).Msg("unhandled error")
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   tz,
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.Setup(app, &handlers.Handler{
		DB:         database.DB,
		Rates:      rates,
		Settlement: settlement,
		Ledger:     ledger,
		Notifier:   notifier,
		Hub:        hub,
		JWTSecret:  jwtSecret,
		Logger:     httpLog,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		<-c.Stop().Done()
		hub.Stop()
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	port := config.ConfigDefault("PORT", "8080")
	log.Info().Str("port", port).Msg("server is running")
	if err := app.Listen(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}
