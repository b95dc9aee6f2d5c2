package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chalkitup/backend/internal/coordinator"
)

// UserStats returns a signed-in user's lifetime record across tables.
func UserStats(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := coord.UserLifetimeStats(c.Request.Context(), c.Param("uid"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// UserHistory pages through games the user was chalked into, newest first.
func UserHistory(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, before := historyParams(c)
		records, err := coord.UserHistory(c.Request.Context(), c.Param("uid"), limit, before)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"games": records})
	}
}
