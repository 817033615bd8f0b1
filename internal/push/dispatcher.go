// Package push fans a single message out to every registered web push
// subscription and tallies per-endpoint outcomes.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/jp310194/wwfc-webapp/internal/auth"
	"github.com/jp310194/wwfc-webapp/internal/model"
)

// ErrMissingConfig means the VAPID signing identity is not configured.
var ErrMissingConfig = errors.New("missing VAPID configuration")

// Message is the broadcast content collected from the admin. Empty fields
// are substituted with defaults before sending.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Result is the aggregate outcome of one broadcast.
type Result struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(ctx context.Context, payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotificationWithContext(ctx, payload, sub, options)
}

// SubscriptionSource provides the set of subscriptions to deliver to.
type SubscriptionSource interface {
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
}

// Config holds the dispatcher's delivery settings.
type Config struct {
	DefaultTitle string
	SendTimeout  time.Duration
	PoolSize     int
}

// Dispatcher delivers one message to every registered subscription,
// tolerating independent per-endpoint failures.
type Dispatcher struct {
	subs      SubscriptionSource
	gate      *auth.Gate
	webpush   *webpush.Options
	cfg       Config
	sender    Sender
	onExpired func(ctx context.Context, endpoint string)
}

// NewDispatcher creates a broadcast dispatcher.
func NewDispatcher(subs SubscriptionSource, gate *auth.Gate, webpushOptions *webpush.Options, cfg Config) *Dispatcher {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 8
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	return &Dispatcher{
		subs:    subs,
		gate:    gate,
		webpush: webpushOptions,
		cfg:     cfg,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// SetSender replaces the delivery transport. Used by tests.
func (d *Dispatcher) SetSender(s Sender) {
	d.sender = s
}

// OnPermanentFailure registers a callback invoked with the endpoint when
// the push service reports the subscription gone. Wiring it to the
// registry's delete prunes dead endpoints; leaving it unset keeps them.
func (d *Dispatcher) OnPermanentFailure(fn func(ctx context.Context, endpoint string)) {
	d.onExpired = fn
}

// Broadcast authorizes the caller, loads all subscriptions and delivers
// the message to each one concurrently. Individual delivery failures are
// absorbed into the failed count; only authorization and the registry
// read can fail the operation itself.
func (d *Dispatcher) Broadcast(ctx context.Context, token string, msg Message) (Result, error) {
	if d.webpush == nil || d.webpush.Subscriber == "" || d.webpush.VAPIDPublicKey == "" || d.webpush.VAPIDPrivateKey == "" {
		return Result{}, ErrMissingConfig
	}

	if _, err := d.gate.RequireAdmin(ctx, token); err != nil {
		return Result{}, err
	}

	subscriptions, err := d.subs.ListSubscriptions(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	payload, err := json.Marshal(d.withDefaults(msg))
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode payload: %w", err)
	}

	var sent, failed atomic.Int64

	workers := d.cfg.PoolSize
	if workers > len(subscriptions) {
		workers = len(subscriptions)
	}

	jobs := make(chan model.PushSubscription)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range jobs {
				if d.deliver(ctx, sub, payload) {
					sent.Add(1)
				} else {
					failed.Add(1)
				}
			}
		}()
	}

	for _, sub := range subscriptions {
		jobs <- sub
	}
	close(jobs)
	wg.Wait()

	return Result{Sent: int(sent.Load()), Failed: int(failed.Load())}, nil
}

// withDefaults substitutes the documented defaults for empty fields.
func (d *Dispatcher) withDefaults(msg Message) Message {
	if msg.Title == "" {
		msg.Title = d.cfg.DefaultTitle
	}
	if msg.Body == "" {
		msg.Body = "Update"
	}
	if msg.URL == "" {
		msg.URL = "/"
	}
	return msg
}

// deliver attempts one send and reports whether it succeeded. Each
// attempt carries its own timeout so one unreachable endpoint cannot
// stall the aggregate result.
func (d *Dispatcher) deliver(ctx context.Context, sub model.PushSubscription, payload []byte) bool {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := d.sender.Send(sendCtx, payload, wpSub, d.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return false
	}
	defer resp.Body.Close()

	// The push service reported the subscription permanently gone.
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		log.Printf("Subscription for endpoint %s is no longer valid.", sub.Endpoint)
		if d.onExpired != nil {
			d.onExpired(ctx, sub.Endpoint)
		}
		return false
	}

	if resp.StatusCode >= http.StatusBadRequest {
		log.Printf("Push service rejected notification to %s: status %d", sub.Endpoint, resp.StatusCode)
		return false
	}

	return true
}
