// handlers/bet_routes.go
package handlers

import (
	"streak-challenge-system/middleware"
	"streak-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBetRoutes(app *fiber.App, betService *services.BetService, settlementService *services.SettlementService) {
	// 🔐 Secured routes — require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/bets", betService.PlaceBetEndpoint)
	secured.Get("/bets", betService.GetBetsEndpoint)

	// Settlement comes from the sportsbook pipeline or admins, not end users
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.AdminOnlyMiddleware())

	admin.Patch("/bets/:id/settle", settlementService.SettleBetEndpoint)
}
