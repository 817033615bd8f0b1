package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"github.com/jp310194/wwfc-webapp/internal/auth"
	"github.com/jp310194/wwfc-webapp/internal/push"
	"github.com/jp310194/wwfc-webapp/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	webpush    *webpush.Options
	gate       *auth.Gate
	dispatcher *push.Dispatcher
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, webpushOptions *webpush.Options, gate *auth.Gate, dispatcher *push.Dispatcher) *Handler {
	return &Handler{
		store:      s,
		webpush:    webpushOptions,
		gate:       gate,
		dispatcher: dispatcher,
	}
}
