package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chalkitup/backend/internal/chalk"
	"github.com/chalkitup/backend/internal/coordinator"
)

// AddToQueue chalks one or two names onto the board.
func AddToQueue(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Names   []string          `json:"names" binding:"required"`
			Mode    chalk.GameMode    `json:"mode" binding:"required"`
			UserIDs map[string]string `json:"userIds"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "names and mode required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.AddToQueue(c.Request.Context(), c.Param("tableId"), req.Names, req.Mode, req.UserIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, tbl)
	}
}

// RemoveFromQueue rubs an entry off the board.
func RemoveFromQueue(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tbl, err := coord.RemoveFromQueue(c.Request.Context(), c.Param("tableId"), c.Param("entryId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// ReorderQueue moves a waiting entry to a new position.
func ReorderQueue(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Position *int `json:"position" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "position required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.ReorderQueue(c.Request.Context(), c.Param("tableId"), c.Param("entryId"), *req.Position)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// HoldPosition parks an entry without losing its spot.
func HoldPosition(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tbl, err := coord.HoldPosition(c.Request.Context(), c.Param("tableId"), c.Param("entryId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// UnholdPosition puts a held entry back in play.
func UnholdPosition(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tbl, err := coord.UnholdPosition(c.Request.Context(), c.Param("tableId"), c.Param("entryId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// MoveToBack sends an entry to the end of the queue.
func MoveToBack(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tbl, err := coord.MoveToBack(c.Request.Context(), c.Param("tableId"), c.Param("entryId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// ClaimQueueSpot binds a signed-in user to a chalked name on the entry.
func ClaimQueueSpot(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name   string `json:"name" binding:"required"`
			UserID string `json:"userId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and userId required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.ClaimQueueSpot(c.Request.Context(), c.Param("tableId"), c.Param("entryId"), req.Name, req.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}
