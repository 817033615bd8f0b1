package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jp310194/wwfc-webapp/internal/model"
	"github.com/jp310194/wwfc-webapp/internal/mw"
)

// GetPlayers lists all member profiles.
func (h *Handler) GetPlayers(c *gin.Context) {
	profiles, err := h.store.ListProfiles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	players := make([]gin.H, 0, len(profiles))
	for _, p := range profiles {
		players = append(players, gin.H{
			"id":         p.ID,
			"name":       p.Name,
			"role":       p.Role,
			"avatar_url": p.AvatarURL,
		})
	}
	c.JSON(http.StatusOK, players)
}

// GetPlayerRating returns a player's average performance score.
func (h *Handler) GetPlayerRating(c *gin.Context) {
	playerID := c.Param("id")

	average, count, err := h.store.PlayerAverageRating(c.Request.Context(), playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"average": average, "count": count})
}

// GetProfile returns the caller's own profile.
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.store.GetProfile(c.Request.Context(), mw.Principal(c).ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, profile)
}

type profileRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateProfile updates the caller's display name.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.UpdateProfileName(c.Request.Context(), mw.Principal(c).ID, req.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetStats returns the performance leaderboard.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.ListStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rows := make([]gin.H, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, gin.H{
			"player_id":      s.PlayerID,
			"name":           s.Player.Name,
			"appearances":    s.Appearances,
			"goals":          s.Goals,
			"assists":        s.Assists,
			"clean_sheets":   s.CleanSheets,
			"motm":           s.MOTM,
			"transfer_value": s.TransferValue(),
		})
	}
	c.JSON(http.StatusOK, rows)
}

type statRequest struct {
	Appearances int `json:"appearances" binding:"min=0"`
	Goals       int `json:"goals" binding:"min=0"`
	Assists     int `json:"assists" binding:"min=0"`
	CleanSheets int `json:"clean_sheets" binding:"min=0"`
	MOTM        int `json:"motm" binding:"min=0"`
}

// PutStat upserts a player's performance row. Admin only.
func (h *Handler) PutStat(c *gin.Context) {
	var req statRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stat := model.PlayerStat{
		PlayerID:    c.Param("player_id"),
		Appearances: req.Appearances,
		Goals:       req.Goals,
		Assists:     req.Assists,
		CleanSheets: req.CleanSheets,
		MOTM:        req.MOTM,
	}
	if err := h.store.UpsertStat(c.Request.Context(), stat); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
