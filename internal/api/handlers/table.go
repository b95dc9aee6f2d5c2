package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chalkitup/backend/internal/chalk"
	"github.com/chalkitup/backend/internal/coordinator"
)

// CreateTable provisions a fresh table session.
func CreateTable(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name      string `json:"name" binding:"required"`
			PIN       string `json:"pin" binding:"required"`
			VenueName string `json:"venueName"`
			VenueID   string `json:"venueId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and pin required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.CreateTable(c.Request.Context(), req.Name, req.PIN, req.VenueName, req.VenueID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, tbl)
	}
}

// GetTable returns the table document by id.
func GetTable(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tbl, err := coord.GetTable(c.Request.Context(), c.Param("tableId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// GetTableByCode resolves a CHALK-XXXX join code to the table document.
func GetTableByCode(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tbl, err := coord.GetTableByShortCode(c.Request.Context(), c.Param("shortCode"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// DeleteTable tears a table session down. Refused while a game is live.
func DeleteTable(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := coord.DeleteTable(c.Request.Context(), c.Param("tableId"), tablePIN(c)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// UpdateSettings applies a partial settings update. PIN-gated.
func UpdateSettings(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var update chalk.SettingsUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload", "code": "invalid_input"})
			return
		}

		tbl, err := coord.UpdateSettings(c.Request.Context(), c.Param("tableId"), tablePIN(c), update)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// ResetTable clears the queue, game and session scores. PIN-gated.
func ResetTable(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tbl, err := coord.ResetTable(c.Request.Context(), c.Param("tableId"), tablePIN(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// TogglePrivateMode flips the allow-list gate on joining. PIN-gated.
func TogglePrivateMode(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Enabled      *bool    `json:"enabled" binding:"required"`
			AllowedNames []string `json:"allowedNames"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "enabled flag required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.TogglePrivateMode(c.Request.Context(), c.Param("tableId"), tablePIN(c), *req.Enabled, req.AllowedNames)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// Leaderboard returns session standings sorted by wins.
func Leaderboard(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := coord.Leaderboard(c.Request.Context(), c.Param("tableId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
	}
}

// historyParams reads the shared ?limit & ?before pagination query.
func historyParams(c *gin.Context) (int, int64) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	before, _ := strconv.ParseInt(c.Query("before"), 10, 64)
	return limit, before
}

// TableHistory pages through a table's finished games, newest first.
func TableHistory(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, before := historyParams(c)
		records, err := coord.TableHistory(c.Request.Context(), c.Param("tableId"), limit, before)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"games": records})
	}
}
