package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jp310194/wwfc-webapp/config"
	"github.com/jp310194/wwfc-webapp/internal/auth"
	"github.com/jp310194/wwfc-webapp/internal/mw"
	"github.com/jp310194/wwfc-webapp/internal/push"
	"github.com/jp310194/wwfc-webapp/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, gate *auth.Gate, dispatcher *push.Dispatcher, webpushOptions *webpush.Options, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, webpushOptions, gate, dispatcher)

	ratePerSec := cfg.RateLimitPerSec
	if ratePerSec <= 0 {
		ratePerSec = 10
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 5
	}
	rateLimiter := mw.RateLimiter(rate.Limit(ratePerSec), burst, cfg.RequestIPHeader)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	requireUser := mw.RequireUser(gate)
	requireAdmin := mw.RequireAdmin(gate)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Push: registration is open, broadcast authorizes inside the
		// dispatcher.
		api.POST("/push/subscribe", handler.Subscribe)
		api.POST("/push/broadcast", handler.Broadcast)
		api.GET("/push/vapid_public_key", handler.GetVAPIDPublicKey)

		api.GET("/players", caching, handler.GetPlayers)
		api.GET("/players/:id/rating", handler.GetPlayerRating)
		api.GET("/profile", requireUser, handler.GetProfile)
		api.PUT("/profile", requireUser, handler.UpdateProfile)

		api.GET("/events", handler.GetEvents)
		api.POST("/events", requireAdmin, handler.CreateEvent)
		api.GET("/events/:id", handler.GetEvent)
		api.PUT("/events/:id", requireAdmin, handler.UpdateEvent)
		api.GET("/events/:id/votes", handler.GetVotes)
		api.PUT("/events/:id/vote", requireUser, handler.PutVote)
		api.GET("/events/:id/motm", handler.GetMOTM)
		api.PUT("/events/:id/motm", requireUser, handler.PutMOTM)
		api.PUT("/events/:id/ratings", requireUser, handler.PutRatings)

		api.GET("/forum", handler.GetPosts)
		api.POST("/forum", requireUser, handler.CreatePost)
		api.GET("/forum/:id", handler.GetPost)
		api.DELETE("/forum/:id", requireUser, handler.DeletePost)
		api.PUT("/forum/:id/pin", requireAdmin, handler.PinPost)
		api.POST("/forum/:id/comments", requireUser, handler.CreateComment)
		api.DELETE("/comments/:id", requireUser, handler.DeleteComment)

		api.GET("/stats", caching, handler.GetStats)
		api.PUT("/stats/:player_id", requireAdmin, handler.PutStat)
	}

	return r
}
