package main

import (
	"time"

	"rally-booking/config"
	"rally-booking/database"
	"rally-booking/logger"
	"rally-booking/middleware"
	"rally-booking/routes"
	"rally-booking/services/ledger"
	"rally-booking/services/notify"
	"rally-booking/services/sweeper"
	tokenService "rally-booking/services/token"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration: " + err.Error())
	}

	app := fiber.New(fiber.Config{
		ReadBufferSize:  32768,
		WriteBufferSize: 32768,
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
	})

	logger.Success("Server is running on ip: " + cfg.AppHost + " port: " + cfg.AppPort +
		"\n\t\t\t\t\t\t******************************************************************************************\n")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to the database: " + err.Error())
	}

	middleware.Secret = []byte(cfg.JWTSecret)

	notifier, err := notify.NewNotifier(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logger.Fatal("Failed to connect to the message broker: " + err.Error())
	}
	defer notifier.Close()

	ledgerSvc := ledger.NewService(db, cfg.PurchaseValidityDays)
	tokenSvc := tokenService.NewService(db, notifier, cfg.TokenValidityMinutes)

	sweep := sweeper.NewService(ledgerSvc, tokenSvc)
	if err := sweep.Start(cfg.SweepSchedule); err != nil {
		logger.Fatal("Failed to start the expiration sweeper: " + err.Error())
	}
	defer sweep.Stop()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	routes.SetupRoutes(app, db, cfg, ledgerSvc, tokenSvc, notifier)

	if err := app.Listen(cfg.AppHost + ":" + cfg.AppPort); err != nil {
		logger.Fatal("Server stopped: " + err.Error())
	}
}
