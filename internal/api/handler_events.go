package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jp310194/wwfc-webapp/internal/model"
	"github.com/jp310194/wwfc-webapp/internal/mw"
)

type eventRequest struct {
	Title     string     `json:"title" binding:"required"`
	Type      string     `json:"type"`
	Opponent  string     `json:"opponent"`
	StartTime time.Time  `json:"start_time" binding:"required"`
	MeetTime  *time.Time `json:"meet_time"`
	Location  string     `json:"location"`
	KitColour string     `json:"kit_colour"`
	Notes     string     `json:"notes"`
}

func eventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return 0, false
	}
	return id, true
}

// GetEvents lists upcoming events ordered by start time.
func (h *Handler) GetEvents(c *gin.Context) {
	events, err := h.store.ListUpcomingEvents(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) GetEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	ev, err := h.store.GetEvent(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ev)
}

// CreateEvent adds a fixture or training session. Admin only.
func (h *Handler) CreateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev := model.Event{
		Title:     req.Title,
		Type:      req.Type,
		Opponent:  req.Opponent,
		StartTime: req.StartTime,
		MeetTime:  req.MeetTime,
		Location:  req.Location,
		KitColour: req.KitColour,
		Notes:     req.Notes,
	}
	if err := h.store.CreateEvent(c.Request.Context(), &ev); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// UpdateEvent replaces an event's details. Admin only.
func (h *Handler) UpdateEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev := model.Event{
		ID:        id,
		Title:     req.Title,
		Type:      req.Type,
		Opponent:  req.Opponent,
		StartTime: req.StartTime,
		MeetTime:  req.MeetTime,
		Location:  req.Location,
		KitColour: req.KitColour,
		Notes:     req.Notes,
	}
	if err := h.store.UpdateEvent(c.Request.Context(), &ev); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type voteRequest struct {
	Status string `json:"status" binding:"required,oneof=in out maybe"`
}

// PutVote upserts the caller's availability for an event.
func (h *Handler) PutVote(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vote := model.Vote{
		EventID: id,
		UserID:  mw.Principal(c).ID,
		Status:  req.Status,
	}
	if err := h.store.UpsertVote(c.Request.Context(), vote); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type voteEntry struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// GetVotes returns every availability answer for an event plus the names
// of members who have not responded.
func (h *Handler) GetVotes(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	votes, err := h.store.ListVotes(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	profiles, err := h.store.ListProfiles(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	voted := make(map[string]bool, len(votes))
	entries := make([]voteEntry, 0, len(votes))
	for _, v := range votes {
		voted[v.UserID] = true
		entries = append(entries, voteEntry{Name: v.Profile.Name, Status: v.Status})
	}

	notResponded := make([]string, 0)
	for _, p := range profiles {
		if !voted[p.ID] {
			notResponded = append(notResponded, p.Name)
		}
	}

	c.JSON(http.StatusOK, gin.H{"votes": entries, "not_responded": notResponded})
}

type motmRequest struct {
	NomineeID string `json:"nominee_id" binding:"required"`
}

// PutMOTM upserts the caller's man-of-the-match nomination.
func (h *Handler) PutMOTM(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	var req motmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vote := model.MOTMVote{
		EventID:   id,
		VoterID:   mw.Principal(c).ID,
		NomineeID: req.NomineeID,
	}
	if err := h.store.UpsertMOTMVote(c.Request.Context(), vote); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetMOTM returns the nomination tally for an event.
func (h *Handler) GetMOTM(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	tally, err := h.store.TallyMOTM(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tally": tally})
}

type ratingsRequest struct {
	Ratings []struct {
		PlayerID string `json:"player_id" binding:"required"`
		Score    int    `json:"score" binding:"required,min=1,max=10"`
	} `json:"ratings" binding:"required,dive"`
}

// PutRatings upserts the caller's full scorecard for an event.
func (h *Handler) PutRatings(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}

	var req ratingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raterID := mw.Principal(c).ID
	ratings := make([]model.PlayerRating, 0, len(req.Ratings))
	for _, r := range req.Ratings {
		ratings = append(ratings, model.PlayerRating{
			EventID:  id,
			RaterID:  raterID,
			PlayerID: r.PlayerID,
			Score:    r.Score,
		})
	}

	if err := h.store.UpsertRatings(c.Request.Context(), ratings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
