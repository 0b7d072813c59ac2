// handlers/challenge_routes.go
package handlers

import (
	"streak-challenge-system/middleware"
	"streak-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challengeService *services.ChallengeService) {
	// 🔓 Public routes — no user context, but still behind Gateway auth
	app.Get("/challenges/catalog", challengeService.GetCatalogEndpoint)

	// 🔐 Secured routes — require user context (userID, roles)
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/challenges", challengeService.GetChallengesEndpoint)
	secured.Post("/challenges", challengeService.PurchaseChallengeEndpoint)
	secured.Get("/challenges/:id", challengeService.GetChallengeEndpoint)
	secured.Post("/challenges/:id/reset", challengeService.ResetChallengeEndpoint)

	// Admin endpoints
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.AdminOnlyMiddleware())

	admin.Post("/challenges/:id/cancel", challengeService.CancelChallengeEndpoint)
	admin.Post("/challenges/:id/streak/grant", challengeService.GrantStreakEndpoint)
}
