package routes

import (
	"time"

	"rally-booking/config"
	"rally-booking/constants"
	authController "rally-booking/controllers/auth"
	bookingController "rally-booking/controllers/booking"
	garageController "rally-booking/controllers/garage"
	rallyController "rally-booking/controllers/rally"
	webhookController "rally-booking/controllers/webhook"
	gateway "rally-booking/httpServices/payment"
	"rally-booking/httpServices/quotes"
	"rally-booking/middleware"
	cascadeService "rally-booking/services/cascade"
	garageService "rally-booking/services/garage"
	"rally-booking/services/ledger"
	"rally-booking/services/notify"
	"rally-booking/services/reconcile"
	tokenService "rally-booking/services/token"
	"rally-booking/types"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg config.App, ledgerSvc *ledger.Service, tokenSvc *tokenService.Service, notifier *notify.Notifier) {
	wallet := gateway.NewWalletClient(cfg.WalletBaseURL, cfg.WalletAccessToken)
	intl := gateway.NewIntlClient(cfg.IntlBaseURL, cfg.IntlClientID, cfg.IntlClientSecret)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	quoteSvc := quotes.NewService(cfg.QuoteBaseURL, rdb, time.Duration(cfg.QuoteCacheTTL)*time.Second)

	cascadeSvc := cascadeService.NewService(db, notifier)
	reconcileSvc := reconcile.NewService(ledgerSvc, notifier)
	garageSvc := garageService.NewService(db, quoteSvc)

	bookings := bookingController.NewBookingController(db, ledgerSvc, cascadeSvc, wallet, intl)
	webhooks := webhookController.NewWebhookController(db, wallet, intl, reconcileSvc)
	garage := garageController.NewGarageController(garageSvc)
	rallies := rallyController.NewRallyController(db, cascadeSvc)
	auth := authController.NewAuthController(db, tokenSvc)

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
			Message: "rally-booking up",
			Status:  fiber.StatusOK,
		})
	})

	/*=============================================================================
	| Public Routes (provider callbacks carry no user token)
	===============================================================================*/
	api := app.Group("/api")
	api.Post("/webhooks/wallet", webhooks.WalletWebhook)
	api.Post("/webhooks/international", webhooks.InternationalWebhook)

	/*=============================================================================
	| Booking Routes
	===============================================================================*/
	api.Post("/purchases", middleware.RequireAuthentication(), bookings.StorePurchase)
	api.Post("/rentals", middleware.RequireAuthentication(), bookings.StoreRental)
	api.Get("/garage", middleware.RequireAuthentication(), garage.Index)

	/*=============================================================================
	| Rally Routes
	===============================================================================*/
	api.Get("/rallies", rallies.Index)
	api.Get("/rallies/:id", rallies.Show)
	api.Post("/rallies", middleware.RequireRoles(
		constants.EventManagerRoles...,
	), rallies.Store)
	api.Put("/rallies/:id/date", middleware.RequireRoles(
		constants.EventManagerRoles...,
	), rallies.Reschedule)
	api.Delete("/rallies/:id", middleware.RequireRoles(
		constants.EventManagerRoles...,
	), rallies.Destroy)

	/*=============================================================================
	| Admin Routes
	===============================================================================*/
	admin := api.Group("/admin").Use(middleware.RequireRoles(constants.RoleAdmin))
	admin.Post("/purchases/:id/approve", bookings.ApprovePurchase)
	admin.Post("/purchases/:id/reject", bookings.RejectPurchase)
	admin.Delete("/purchases/:id", bookings.DestroyPurchase)
	admin.Post("/rentals/:id/approve", bookings.ApproveRental)
	admin.Post("/rentals/:id/reject", bookings.RejectRental)
	admin.Delete("/rentals/:id", bookings.DestroyRental)
	admin.Put("/rentals/:id/rally", bookings.MoveRental)
	admin.Post("/transactions/:externalId/confirm", webhooks.Confirm)

	/*=============================================================================
	| Auth Support Routes
	===============================================================================*/
	authGroup := api.Group("/auth").Use(middleware.RequireAuthentication())
	authGroup.Post("/request-verification", auth.RequestVerification)
	authGroup.Post("/confirm-verification", auth.ConfirmVerification)
}
