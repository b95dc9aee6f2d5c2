package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/chalkitup/backend/internal/api/handlers"
	"github.com/chalkitup/backend/internal/config"
	"github.com/chalkitup/backend/internal/coordinator"
	"github.com/chalkitup/backend/internal/middleware"
	"github.com/chalkitup/backend/internal/owners"
	"github.com/chalkitup/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, coord *coordinator.Coordinator, hub *ws.Hub, db *sqlx.DB, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.WebSocketCORSCheck(cfg))

	// No-cache headers in development so kiosks never serve stale JSON
	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	router.GET("/health", handlers.HealthCheck)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Venue-owner accounts
		owner := v1.Group("/owner")
		{
			owner.POST("/register", handlers.RegisterOwner(db, cfg))
			owner.POST("/login", handlers.LoginOwner(db, cfg))
		}

		// Venue management (owner token required)
		venue := v1.Group("/venue")
		venue.Use(owners.AuthMiddleware(cfg))
		{
			venue.POST("", handlers.CreateVenue(coord, db))
			venue.GET("/:venueId", handlers.GetVenue(coord))
			venue.PUT("/:venueId", handlers.UpdateVenue(coord))
			venue.DELETE("/:venueId", handlers.DeleteVenue(coord))
			venue.POST("/:venueId/claim-table", handlers.ClaimTable(coord))
		}
		v1.GET("/venues", owners.AuthMiddleware(cfg), handlers.ListVenues(coord))

		// Table sessions
		table := v1.Group("/table")
		{
			table.POST("", handlers.CreateTable(coord))
			table.GET("/code/:shortCode", handlers.GetTableByCode(coord))
			table.GET("/:tableId", handlers.GetTable(coord))
			table.DELETE("/:tableId", handlers.DeleteTable(coord))
			table.GET("/:tableId/ws", ws.HandleWebSocket(hub))
			table.GET("/:tableId/leaderboard", handlers.Leaderboard(coord))
			table.GET("/:tableId/history", handlers.TableHistory(coord))

			// Table admin (PIN in X-Table-Pin header)
			table.PUT("/:tableId/settings", handlers.UpdateSettings(coord))
			table.POST("/:tableId/reset", handlers.ResetTable(coord))
			table.POST("/:tableId/private", handlers.TogglePrivateMode(coord))

			// Queue
			table.POST("/:tableId/queue", handlers.AddToQueue(coord))
			table.DELETE("/:tableId/queue/:entryId", handlers.RemoveFromQueue(coord))
			table.PUT("/:tableId/queue/:entryId/position", handlers.ReorderQueue(coord))
			table.POST("/:tableId/queue/:entryId/hold", handlers.HoldPosition(coord))
			table.POST("/:tableId/queue/:entryId/unhold", handlers.UnholdPosition(coord))
			table.POST("/:tableId/queue/:entryId/to-back", handlers.MoveToBack(coord))
			table.POST("/:tableId/queue/:entryId/claim", handlers.ClaimQueueSpot(coord))

			// Games
			table.POST("/:tableId/game/start", handlers.StartGame(coord))
			table.POST("/:tableId/game/register", handlers.RegisterGame(coord))
			table.POST("/:tableId/game/result", handlers.ReportResult(coord))
			table.POST("/:tableId/game/cancel", handlers.CancelGame(coord))
			table.POST("/:tableId/game/dismiss-no-show", handlers.DismissNoShow(coord))
			table.POST("/:tableId/game/resolve-no-shows", handlers.ResolveNoShows(coord))

			// Killer
			table.POST("/:tableId/killer/start", handlers.StartKiller(coord))
			table.POST("/:tableId/killer/eliminate", handlers.EliminateKillerPlayer(coord))
			table.POST("/:tableId/killer/finish", handlers.FinishKillerGame(coord))

			// Tournaments
			table.POST("/:tableId/tournament", handlers.StartTournament(coord))
			table.POST("/:tableId/tournament/result", handlers.ReportTournamentMatch(coord))
			table.DELETE("/:tableId/tournament", handlers.CancelTournament(coord))
		}

		// Signed-in users
		user := v1.Group("/user")
		{
			user.GET("/:uid/stats", handlers.UserStats(coord))
			user.GET("/:uid/history", handlers.UserHistory(coord))
		}
	}
}
