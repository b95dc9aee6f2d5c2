package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chalkitup/backend/internal/coordinator"
)

// pinHeader carries the table PIN on admin commands.
const pinHeader = "X-Table-Pin"

// statusForKind maps a command failure kind to an HTTP status.
func statusForKind(kind coordinator.Kind) int {
	switch kind {
	case coordinator.KindInvalidInput:
		return http.StatusBadRequest
	case coordinator.KindAuthFailed:
		return http.StatusUnauthorized
	case coordinator.KindPrivateSessionForbidden:
		return http.StatusForbidden
	case coordinator.KindNotFound:
		return http.StatusNotFound
	case coordinator.KindConflict, coordinator.KindDuplicate, coordinator.KindGameInProgress,
		coordinator.KindQueueFull, coordinator.KindVenueNotEmpty:
		return http.StatusConflict
	case coordinator.KindNoActiveGame, coordinator.KindInsufficientPlayers,
		coordinator.KindInvalidDoubles:
		return http.StatusUnprocessableEntity
	case coordinator.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders a command failure as {"error": ..., "code": ...}.
func respondError(c *gin.Context, err error) {
	kind := coordinator.KindOf(err)
	c.JSON(statusForKind(kind), gin.H{"error": err.Error(), "code": string(kind)})
}

// tablePIN reads the admin PIN header.
func tablePIN(c *gin.Context) string {
	return c.GetHeader(pinHeader)
}
