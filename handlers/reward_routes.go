// handlers/reward_routes.go
package handlers

import (
	"streak-challenge-system/middleware"
	"streak-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRewardRoutes(app *fiber.App, ledgerService *services.LedgerService) {
	// 🔐 Secured routes — require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/rewards", ledgerService.GetRewardsEndpoint)
	secured.Post("/rewards/claim", ledgerService.ClaimRewardsEndpoint)
}
