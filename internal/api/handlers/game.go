package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chalkitup/backend/internal/chalk"
	"github.com/chalkitup/backend/internal/coordinator"
)

// StartGame seats the front of the queue on the table.
func StartGame(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tbl, err := coord.StartNextGame(c.Request.Context(), c.Param("tableId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// RegisterGame records a game that started off-queue (walk-up players).
func RegisterGame(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			HolderNames     []string       `json:"holderNames" binding:"required"`
			ChallengerNames []string       `json:"challengerNames" binding:"required"`
			Mode            chalk.GameMode `json:"mode" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "holderNames, challengerNames and mode required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.RegisterCurrentGame(c.Request.Context(), c.Param("tableId"), req.HolderNames, req.ChallengerNames, req.Mode)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// ReportResult finishes the live game and rotates the queue.
func ReportResult(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WinnerSide  chalk.Side `json:"winnerSide" binding:"required"`
			WinnerNames []string   `json:"winnerNames"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "winnerSide required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.ReportResult(c.Request.Context(), c.Param("tableId"), req.WinnerSide, req.WinnerNames)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// CancelGame abandons the live game and re-seats its entries.
func CancelGame(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tbl, err := coord.CancelGame(c.Request.Context(), c.Param("tableId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// DismissNoShow clears the no-show warning on called entries.
func DismissNoShow(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tbl, err := coord.DismissNoShow(c.Request.Context(), c.Param("tableId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// ResolveNoShows drops the named entries and cancels the stalled game.
func ResolveNoShows(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			EntryIDs []string `json:"entryIds" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "entryIds required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.ResolveNoShows(c.Request.Context(), c.Param("tableId"), req.EntryIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// StartKiller starts a killer game for the named players, skipping the queue.
func StartKiller(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerNames []string `json:"playerNames" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "playerNames required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.StartKiller(c.Request.Context(), c.Param("tableId"), req.PlayerNames)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// EliminateKillerPlayer takes one life off the named player.
func EliminateKillerPlayer(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PlayerName string `json:"playerName" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "playerName required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.EliminateKillerPlayer(c.Request.Context(), c.Param("tableId"), req.PlayerName)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// FinishKillerGame ends the killer game. An empty winnerName means the sole
// survivor takes it.
func FinishKillerGame(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			WinnerName string `json:"winnerName"`
		}
		// Body is optional when a sole survivor decides the game.
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid killer finish payload", "code": "invalid_input"})
				return
			}
		}

		tbl, err := coord.FinishKillerGame(c.Request.Context(), c.Param("tableId"), req.WinnerName)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// StartTournament seeds a bracket on the table.
func StartTournament(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name        string                 `json:"name"`
			Format      chalk.TournamentFormat `json:"format" binding:"required"`
			PlayerNames []string               `json:"playerNames" binding:"required"`
			RaceTo      int                    `json:"raceTo" binding:"required"`
			UserIDs     map[string]string      `json:"userIds"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "format, playerNames and raceTo required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.StartTournament(c.Request.Context(), c.Param("tableId"), req.Name, req.Format, req.PlayerNames, req.RaceTo, req.UserIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// ReportTournamentMatch records a whole match scoreline. An empty matchId
// targets the tournament's current match.
func ReportTournamentMatch(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			MatchID      string `json:"matchId"`
			WinnerName   string `json:"winnerName" binding:"required"`
			WinnerFrames int    `json:"winnerFrames" binding:"required"`
			LoserFrames  int    `json:"loserFrames"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "winnerName and winnerFrames required", "code": "invalid_input"})
			return
		}

		tbl, err := coord.ReportTournamentMatch(c.Request.Context(), c.Param("tableId"), req.MatchID, req.WinnerName, req.WinnerFrames, req.LoserFrames)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}

// CancelTournament abandons the bracket and re-seats the players.
func CancelTournament(coord *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tbl, err := coord.CancelTournament(c.Request.Context(), c.Param("tableId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tbl)
	}
}
