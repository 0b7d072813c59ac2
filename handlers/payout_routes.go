// handlers/payout_routes.go
package handlers

import (
	"streak-challenge-system/middleware"
	"streak-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPayoutRoutes(app *fiber.App, payoutService *services.PayoutService) {
	// 🔐 Secured routes — require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/payouts", payoutService.GetPayoutsEndpoint)
	secured.Post("/payouts", payoutService.RequestPayoutEndpoint)

	// Admin / payment-rails endpoints
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.AdminOnlyMiddleware())

	admin.Patch("/payouts/:id/status", payoutService.UpdatePayoutStatusEndpoint)
}
