package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/chalkitup/backend/internal/config"
	"github.com/chalkitup/backend/internal/owners"
)

// ownerError maps owners package failures onto the API error shape.
func ownerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, owners.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered", "code": "duplicate"})
	case errors.Is(err, owners.ErrInvalidEmail), errors.Is(err, owners.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_input"})
	case errors.Is(err, owners.ErrBadCredentials), errors.Is(err, owners.ErrBadToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password", "code": "auth_failed"})
	default:
		log.Printf("[API] owner command failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "owner account service unavailable", "code": "unavailable"})
	}
}

// RegisterOwner creates a venue-owner account and returns a session token.
func RegisterOwner(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email       string `json:"email" binding:"required"`
			Password    string `json:"password" binding:"required"`
			DisplayName string `json:"displayName"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required", "code": "invalid_input"})
			return
		}

		acct, err := owners.Register(db, req.Email, req.Password, req.DisplayName)
		if err != nil {
			ownerError(c, err)
			return
		}

		token, err := owners.IssueToken(cfg.JWTSecret, acct.ID)
		if err != nil {
			log.Printf("[API] token issue failed for owner %s: %v", acct.ID, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not issue token", "code": "unavailable"})
			return
		}

		log.Printf("[OWNER] registered %s (%s)", acct.Email, acct.ID)
		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"owner": gin.H{
				"id":          acct.ID,
				"email":       acct.Email,
				"displayName": acct.DisplayName,
			},
		})
	}
}

// LoginOwner checks credentials and returns a session token.
func LoginOwner(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required", "code": "invalid_input"})
			return
		}

		acct, err := owners.Login(db, req.Email, req.Password)
		if err != nil {
			ownerError(c, err)
			return
		}

		token, err := owners.IssueToken(cfg.JWTSecret, acct.ID)
		if err != nil {
			log.Printf("[API] token issue failed for owner %s: %v", acct.ID, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not issue token", "code": "unavailable"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"owner": gin.H{
				"id":          acct.ID,
				"email":       acct.Email,
				"displayName": acct.DisplayName,
			},
		})
	}
}
