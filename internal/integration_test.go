package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jp310194/wwfc-webapp/config"
	"github.com/jp310194/wwfc-webapp/internal/api"
	"github.com/jp310194/wwfc-webapp/internal/auth"
	"github.com/jp310194/wwfc-webapp/internal/model"
	"github.com/jp310194/wwfc-webapp/internal/push"
	"github.com/jp310194/wwfc-webapp/internal/store"
)

const testJWTSecret = "integration-test-secret"

// recordingSender simulates the push service: it records every payload
// and answers with a configured status per endpoint.
type recordingSender struct {
	mu       sync.Mutex
	statuses map[string]int
	payloads map[string][]string
}

func newRecordingSender() *recordingSender {
	return &recordingSender{
		statuses: make(map[string]int),
		payloads: make(map[string][]string),
	}
}

func (s *recordingSender) Send(_ context.Context, payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payloads[sub.Endpoint] = append(s.payloads[sub.Endpoint], string(payload))
	code, ok := s.statuses[sub.Endpoint]
	if !ok {
		code = http.StatusCreated
	}
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(bytes.NewBufferString("")),
	}, nil
}

func mintToken(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	store  store.Store
	sender *recordingSender
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := testDB.DB()
		sqlDB.Close()
	})

	require.NoError(t, testDB.AutoMigrate(
		&model.Profile{},
		&model.PushSubscription{},
		&model.Event{},
		&model.Vote{},
		&model.ForumPost{},
		&model.ForumComment{},
		&model.PlayerStat{},
		&model.MOTMVote{},
		&model.PlayerRating{},
	))

	// Seed the club roster.
	require.NoError(t, testDB.Create(&[]model.Profile{
		{ID: "admin-1", Name: "Alex Admin", Role: model.RoleAdmin},
		{ID: "player-1", Name: "Pat Player", Role: model.RolePlayer},
		{ID: "player-2", Name: "Sam Striker", Role: model.RolePlayer},
	}).Error)

	appStore := store.NewGormStore(testDB)
	gate := auth.NewGate(auth.NewJWTResolver(testJWTSecret), appStore)

	webpushOptions := &webpush.Options{
		VAPIDPublicKey:  "test-public",
		VAPIDPrivateKey: "test-private",
		Subscriber:      "mailto:club@example.com",
	}

	sender := newRecordingSender()
	dispatcher := push.NewDispatcher(appStore, gate, webpushOptions, push.Config{
		DefaultTitle: "Wiseman West FC",
		PoolSize:     4,
	})
	dispatcher.SetSender(sender)
	dispatcher.OnPermanentFailure(func(ctx context.Context, endpoint string) {
		_ = appStore.DeleteSubscription(ctx, endpoint)
	})

	router := api.NewRouter(appStore, gate, dispatcher, webpushOptions, &config.ServerConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
	})

	return &testApp{router: router, db: testDB, store: appStore, sender: sender}
}

func (a *testApp) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestPushLifecycle(t *testing.T) {
	app := newTestApp(t)
	adminToken := mintToken(t, "admin-1")
	playerToken := mintToken(t, "player-1")

	endpointA := "https://push.example.com/device-a"
	endpointB := "https://push.example.com/device-b"

	// Devices register without any credentials.
	w := app.do(t, "POST", "/api/push/subscribe", "",
		`{"endpoint":"`+endpointA+`","keys":{"p256dh":"old-key","auth":"old-secret"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	// Re-subscribing the same endpoint rotates keys, not rows.
	w = app.do(t, "POST", "/api/push/subscribe", "",
		`{"endpoint":"`+endpointA+`","keys":{"p256dh":"new-key","auth":"new-secret"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, app.db.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var stored model.PushSubscription
	require.NoError(t, app.db.First(&stored, "endpoint = ?", endpointA).Error)
	assert.Equal(t, "new-key", stored.P256DH)
	assert.Equal(t, "new-secret", stored.Auth)

	w = app.do(t, "POST", "/api/push/subscribe", "",
		`{"endpoint":"`+endpointB+`","keys":{"p256dh":"kb","auth":"sb"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	// No token: unauthenticated, nothing sent.
	w = app.do(t, "POST", "/api/push/broadcast", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Standard member: forbidden.
	w = app.do(t, "POST", "/api/push/broadcast", playerToken, `{}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, app.sender.payloads)

	// Admin broadcast: device A has gone away, device B is live.
	app.sender.statuses[endpointA] = http.StatusGone
	w = app.do(t, "POST", "/api/push/broadcast", adminToken,
		`{"title":"Training","body":"7pm","url":"/events"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"sent":1,"failed":1}`, w.Body.String())

	want := `{"title":"Training","body":"7pm","url":"/events"}`
	require.Len(t, app.sender.payloads[endpointA], 1)
	require.Len(t, app.sender.payloads[endpointB], 1)
	assert.JSONEq(t, want, app.sender.payloads[endpointA][0])
	assert.JSONEq(t, want, app.sender.payloads[endpointB][0])

	// The gone endpoint was pruned by the permanent-failure hook.
	require.NoError(t, app.db.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	var remaining model.PushSubscription
	require.NoError(t, app.db.First(&remaining).Error)
	assert.Equal(t, endpointB, remaining.Endpoint)

	// A broadcast with an empty message carries the documented defaults.
	w = app.do(t, "POST", "/api/push/broadcast", adminToken, `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"sent":1,"failed":0}`, w.Body.String())
	require.Len(t, app.sender.payloads[endpointB], 2)
	assert.JSONEq(t, `{"title":"Wiseman West FC","body":"Update","url":"/"}`, app.sender.payloads[endpointB][1])
}

func TestEventAndVoteFlow(t *testing.T) {
	app := newTestApp(t)
	adminToken := mintToken(t, "admin-1")
	playerToken := mintToken(t, "player-1")

	// Only admins schedule events.
	eventBody := `{"title":"League vs Rovers","type":"match","opponent":"Rovers","start_time":"2030-09-01T19:00:00Z","location":"Home Ground","kit_colour":"Red"}`
	w := app.do(t, "POST", "/api/events", playerToken, eventBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, "POST", "/api/events", adminToken, eventBody)
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	// Upcoming events are listed.
	w = app.do(t, "GET", "/api/events", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var events []model.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "League vs Rovers", events[0].Title)

	// A member votes, then changes their mind; one row remains.
	path := "/api/events/" + itoa(created.ID) + "/vote"
	w = app.do(t, "PUT", path, playerToken, `{"status":"in"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, "PUT", path, playerToken, `{"status":"maybe"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var voteCount int64
	require.NoError(t, app.db.Model(&model.Vote{}).Count(&voteCount).Error)
	assert.Equal(t, int64(1), voteCount)

	w = app.do(t, "PUT", path, playerToken, `{"status":"sideline"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The tally names the voter and lists everyone who has not answered.
	w = app.do(t, "GET", "/api/events/"+itoa(created.ID)+"/votes", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var votes struct {
		Votes []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"votes"`
		NotResponded []string `json:"not_responded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &votes))
	require.Len(t, votes.Votes, 1)
	assert.Equal(t, "Pat Player", votes.Votes[0].Name)
	assert.Equal(t, "maybe", votes.Votes[0].Status)
	assert.ElementsMatch(t, []string{"Alex Admin", "Sam Striker"}, votes.NotResponded)

	// MOTM nominations upsert per voter.
	motmPath := "/api/events/" + itoa(created.ID) + "/motm"
	w = app.do(t, "PUT", motmPath, playerToken, `{"nominee_id":"player-2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, "PUT", motmPath, mintToken(t, "player-2"), `{"nominee_id":"player-2"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, "GET", motmPath, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tally struct {
		Tally []store.MOTMTally `json:"tally"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tally))
	require.Len(t, tally.Tally, 1)
	assert.Equal(t, "Sam Striker", tally.Tally[0].Name)
	assert.Equal(t, int64(2), tally.Tally[0].Votes)

	// Ratings upsert and aggregate.
	w = app.do(t, "PUT", "/api/events/"+itoa(created.ID)+"/ratings", playerToken,
		`{"ratings":[{"player_id":"player-2","score":8}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, "PUT", "/api/events/"+itoa(created.ID)+"/ratings", mintToken(t, "player-2"),
		`{"ratings":[{"player_id":"player-2","score":6}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, "GET", "/api/players/player-2/rating", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rating struct {
		Average float64 `json:"average"`
		Count   int64   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rating))
	assert.Equal(t, int64(2), rating.Count)
	assert.InDelta(t, 7.0, rating.Average, 0.001)
}

func TestForumFlow(t *testing.T) {
	app := newTestApp(t)
	adminToken := mintToken(t, "admin-1")
	playerToken := mintToken(t, "player-1")
	otherToken := mintToken(t, "player-2")

	w := app.do(t, "POST", "/api/forum", playerToken,
		`{"title":"Boots for sale","body":"Size 9, barely worn"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var post model.ForumPost
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))

	w = app.do(t, "POST", "/api/forum/"+itoa(post.ID)+"/comments", otherToken,
		`{"body":"What colour?"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// Pinning is admin only.
	w = app.do(t, "PUT", "/api/forum/"+itoa(post.ID)+"/pin", playerToken, `{"pinned":true}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = app.do(t, "PUT", "/api/forum/"+itoa(post.ID)+"/pin", adminToken, `{"pinned":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, "GET", "/api/forum/"+itoa(post.ID), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var fetched model.ForumPost
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.True(t, fetched.Pinned)
	require.Len(t, fetched.Comments, 1)
	assert.Equal(t, "Sam Striker", fetched.Comments[0].Author.Name)

	// Another member cannot delete someone else's thread; an admin can.
	w = app.do(t, "DELETE", "/api/forum/"+itoa(post.ID), otherToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = app.do(t, "DELETE", "/api/forum/"+itoa(post.ID), adminToken, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	var postCount, commentCount int64
	require.NoError(t, app.db.Model(&model.ForumPost{}).Count(&postCount).Error)
	require.NoError(t, app.db.Model(&model.ForumComment{}).Count(&commentCount).Error)
	assert.Zero(t, postCount)
	assert.Zero(t, commentCount)
}

func TestStatsFlow(t *testing.T) {
	app := newTestApp(t)
	adminToken := mintToken(t, "admin-1")
	playerToken := mintToken(t, "player-1")

	w := app.do(t, "PUT", "/api/stats/player-2", playerToken,
		`{"appearances":10,"goals":7,"assists":3,"clean_sheets":0,"motm":2}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, "PUT", "/api/stats/player-2", adminToken,
		`{"appearances":10,"goals":7,"assists":3,"clean_sheets":0,"motm":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	// Upsert on player_id: a correction replaces, not duplicates.
	w = app.do(t, "PUT", "/api/stats/player-2", adminToken,
		`{"appearances":11,"goals":8,"assists":3,"clean_sheets":0,"motm":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, "GET", "/api/stats", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Sam Striker", rows[0]["name"])
	assert.EqualValues(t, 8, rows[0]["goals"])
	// 11 appearances, 8 goals, 3 assists and 2 MOTM awards priced up.
	assert.EqualValues(t, 4_150_000, rows[0]["transfer_value"])

	// Profile self-service.
	w = app.do(t, "GET", "/api/profile", playerToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, "PUT", "/api/profile", playerToken, `{"name":"Pat P."}`)
	require.Equal(t, http.StatusOK, w.Code)

	var profile model.Profile
	require.NoError(t, app.db.First(&profile, "id = ?", "player-1").Error)
	assert.Equal(t, "Pat P.", profile.Name)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
