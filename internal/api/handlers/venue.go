package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/chalkitup/backend/internal/coordinator"
	"github.com/chalkitup/backend/internal/owners"
)

// CreateVenue registers a venue for the authenticated owner.
func CreateVenue(coord *coordinator.Coordinator, db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name    string  `json:"name" binding:"required"`
			LogoURL *string `json:"logoUrl"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "venue name required", "code": "invalid_input"})
			return
		}

		ownerID := owners.OwnerID(c)
		acct, err := owners.ByID(db, ownerID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown owner", "code": "auth_failed"})
			return
		}

		venue, err := coord.CreateVenue(c.Request.Context(), ownerID, acct.DisplayName, req.Name, req.LogoURL)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, venue)
	}
}

// GetVenue returns one venue the authenticated owner controls.
func GetVenue(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		venue, err := coord.GetVenue(c.Request.Context(), c.Param("venueId"), owners.OwnerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, venue)
	}
}

// ListVenues returns every venue the authenticated owner controls.
func ListVenues(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		venues, err := coord.OwnerVenues(c.Request.Context(), owners.OwnerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"venues": venues})
	}
}

// UpdateVenue renames a venue or swaps its logo.
func UpdateVenue(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name    *string `json:"name"`
			LogoURL *string `json:"logoUrl"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid venue update", "code": "invalid_input"})
			return
		}

		venue, err := coord.UpdateVenue(c.Request.Context(), c.Param("venueId"), owners.OwnerID(c), req.Name, req.LogoURL)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, venue)
	}
}

// DeleteVenue removes an empty venue.
func DeleteVenue(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := coord.DeleteVenue(c.Request.Context(), c.Param("venueId"), owners.OwnerID(c)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// ClaimTable attaches an existing table to a venue by short code + PIN.
func ClaimTable(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ShortCode string `json:"shortCode" binding:"required"`
			PIN       string `json:"pin" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shortCode and pin required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.ClaimTable(c.Request.Context(), c.Param("venueId"), owners.OwnerID(c), req.ShortCode, req.PIN)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}
