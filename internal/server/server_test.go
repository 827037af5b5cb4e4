package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/luggagehub/internal/capacity"
	"github.com/smallbiznis/luggagehub/internal/clock"
	"github.com/smallbiznis/luggagehub/internal/config"
	conversationdomain "github.com/smallbiznis/luggagehub/internal/conversation/domain"
	conversationrepo "github.com/smallbiznis/luggagehub/internal/conversation/repository"
	conversationservice "github.com/smallbiznis/luggagehub/internal/conversation/service"
	listingdomain "github.com/smallbiznis/luggagehub/internal/listing/domain"
	listingrepo "github.com/smallbiznis/luggagehub/internal/listing/repository"
	listingservice "github.com/smallbiznis/luggagehub/internal/listing/service"
	"github.com/smallbiznis/luggagehub/internal/notification"
	tgprovider "github.com/smallbiznis/luggagehub/internal/providers/telegram"
	requestdomain "github.com/smallbiznis/luggagehub/internal/request/domain"
	requestrepo "github.com/smallbiznis/luggagehub/internal/request/repository"
	requestservice "github.com/smallbiznis/luggagehub/internal/request/service"
	reservationdomain "github.com/smallbiznis/luggagehub/internal/reservation/domain"
	reservationrepo "github.com/smallbiznis/luggagehub/internal/reservation/repository"
	reservationservice "github.com/smallbiznis/luggagehub/internal/reservation/service"
	subscriptiondomain "github.com/smallbiznis/luggagehub/internal/subscription/domain"
	subscriptionrepo "github.com/smallbiznis/luggagehub/internal/subscription/repository"
	subscriptionservice "github.com/smallbiznis/luggagehub/internal/subscription/service"
	"github.com/smallbiznis/luggagehub/internal/telegram"
	userdomain "github.com/smallbiznis/luggagehub/internal/user/domain"
	userrepo "github.com/smallbiznis/luggagehub/internal/user/repository"
	userservice "github.com/smallbiznis/luggagehub/internal/user/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sellerHeader = "1001"
	buyerHeader  = "1002"
	otherHeader  = "1003"

	webhookSecret = "hook-secret"
)

type sentMessage struct {
	chatID string
	text   string
}

type fakeSender struct {
	tgprovider.NoOpProvider

	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type testServer struct {
	engine *gin.Engine
	sender *fakeSender
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&userdomain.User{},
		&userdomain.LinkToken{},
		&listingdomain.Listing{},
		&reservationdomain.Reservation{},
		&subscriptiondomain.Subscription{},
		&requestdomain.Request{},
		&conversationdomain.Conversation{},
		&conversationdomain.Message{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	cfg := config.Config{}
	cfg.Telegram.BotUsername = "luggage_bot"
	cfg.Telegram.WebhookSecret = webhookSecret
	marketplace := config.NewStaticMarketplaceConfigHolder(config.DefaultMarketplaceConfig())
	log := zap.NewNop()
	sender := &fakeSender{}

	listings := listingrepo.Provide()
	reservations := reservationrepo.Provide()
	users := userrepo.Provide()
	subscriptions := subscriptionrepo.Provide()

	userSvc := userservice.NewService(userservice.ServiceParam{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       fake,
		Config:      cfg,
		Marketplace: marketplace,
		Repo:        users,
		Tokens:      userrepo.ProvideLinkTokens(),
	})
	listingSvc := listingservice.NewService(listingservice.ServiceParam{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        fake,
		Config:       cfg,
		Marketplace:  marketplace,
		Repo:         listings,
		Reservations: reservations,
	})
	subscriptionSvc := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Repo:     subscriptions,
		Listings: listings,
	})
	notifier := notification.NewService(notification.ServiceParam{
		DB:            db,
		Log:           log,
		Subscriptions: subscriptions,
		Users:         users,
		Sender:        sender,
		Marketplace:   marketplace,
	})
	reservationSvc := reservationservice.NewService(reservationservice.ServiceParam{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Config:   cfg,
		Repo:     reservations,
		Listings: listings,
		Users:    users,
		Notifier: notifier,
	})
	requests := requestrepo.Provide()
	requestSvc := requestservice.NewService(requestservice.ServiceParam{
		DB:     db,
		Log:    log,
		GenID:  node,
		Clock:  fake,
		Config: cfg,
		Repo:   requests,
	})
	conversationSvc := conversationservice.NewService(conversationservice.ServiceParam{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Repo:     conversationrepo.Provide(),
		Requests: requests,
	})
	bot := telegram.NewDispatcher(telegram.DispatcherParam{
		Log:           log,
		Config:        cfg,
		Users:         userSvc,
		Subscriptions: subscriptionSvc,
		Sender:        sender,
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:             engine,
		Cfg:             cfg,
		Log:             log,
		UserSvc:         userSvc,
		ListingSvc:      listingSvc,
		ReservationSvc:  reservationSvc,
		SubscriptionSvc: subscriptionSvc,
		RequestSvc:      requestSvc,
		ConversationSvc: conversationSvc,
		Bot:             bot,
	})
	srv.RegisterRoutes()

	return &testServer{engine: engine, sender: sender}
}

func (ts *testServer) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(HeaderUserID, userID)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func (ts *testServer) webhook(t *testing.T, secret string, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(headerTelegramSecret, secret)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type listingEnvelope struct {
	Data struct {
		ID       string `json:"id"`
		SellerID string `json:"seller_id"`
		Title    string `json:"title"`
		Capacity struct {
			RemainingKg string `json:"remaining_kg"`
			SoldOut     bool   `json:"sold_out"`
		} `json:"capacity"`
		Subscription *struct {
			ID       string `json:"id"`
			IsActive bool   `json:"is_active"`
		} `json:"subscription"`
	} `json:"data"`
}

type reservationEnvelope struct {
	Data struct {
		Reservation struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"reservation"`
		Capacity struct {
			RemainingKg string `json:"remaining_kg"`
		} `json:"capacity"`
	} `json:"data"`
}

func (ts *testServer) createListing(t *testing.T, totalKg string) string {
	t.Helper()

	w := ts.do(t, http.MethodPost, "/api/listings", sellerHeader, map[string]any{
		"title":           "Tashkent to Tokyo",
		"total_kg":        totalKg,
		"price_per_kg":    "12",
		"price_currency":  "usd",
		"available_until": "2026-03-20",
		"departure_city":  "Tashkent",
		"arrival_city":    "Tokyo",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[listingEnvelope](t, w).Data.ID
}

func TestAuthenticatedRoutesRequireUser(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/listings", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	resp := decode[errorResponse](t, w)
	assert.Equal(t, "unauthorized", resp.Error.Type)

	w = ts.do(t, http.MethodGet, "/api/me", "not-a-number", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateListingAndBrowseAnonymously(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createListing(t, "10")

	w := ts.do(t, http.MethodGet, "/api/listings", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	page := decode[struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, w)
	require.Len(t, page.Data, 1)
	assert.Equal(t, id, page.Data[0].ID)

	w = ts.do(t, http.MethodGet, "/api/listings/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[listingEnvelope](t, w)
	assert.Equal(t, "10", detail.Data.Capacity.RemainingKg)
	assert.Nil(t, detail.Data.Subscription)
}

func TestCreateListingRejectsUnknownCurrency(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/listings", sellerHeader, map[string]any{
		"title":           "Tashkent to Tokyo",
		"total_kg":        "10",
		"price_per_kg":    "12",
		"price_currency":  "eur",
		"available_until": "2026-03-20",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[errorResponse](t, w)
	assert.Equal(t, "validation_error", resp.Error.Type)
}

func TestReservationFlowOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	listingID := ts.createListing(t, "10")
	path := fmt.Sprintf("/api/listings/%s/reservations", listingID)

	w := ts.do(t, http.MethodPost, path, buyerHeader, map[string]any{
		"kg_requested":   "6",
		"contact_handle": "@buyer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[reservationEnvelope](t, w)
	assert.Equal(t, "pending", first.Data.Reservation.Status)
	assert.Equal(t, "4", first.Data.Capacity.RemainingKg)

	w = ts.do(t, http.MethodPost, path, otherHeader, map[string]any{"kg_requested": "5"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	rejected := decode[errorResponse](t, w)
	assert.Equal(t, "4", rejected.Error.RemainingKg)
	require.Len(t, rejected.Error.Errors, 1)
	assert.Equal(t, capacity.ErrInsufficientCapacity.Error(), rejected.Error.Errors[0].Code)
	assert.Equal(t, "kg_requested", rejected.Error.Errors[0].Field)

	w = ts.do(t, http.MethodPost, path, otherHeader, map[string]any{"kg_requested": "4"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Buyers cannot confirm their own reservation.
	statusPath := fmt.Sprintf("/api/reservations/%s/status", first.Data.Reservation.ID)
	w = ts.do(t, http.MethodPost, statusPath, buyerHeader, map[string]any{"status": "reserved"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, statusPath, sellerHeader, map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cancelled := decode[reservationEnvelope](t, w)
	assert.Equal(t, "cancelled", cancelled.Data.Reservation.Status)
	assert.Equal(t, "6", cancelled.Data.Capacity.RemainingKg)

	w = ts.do(t, http.MethodGet, "/api/listings/"+listingID+"/reservations", sellerHeader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/listings/"+listingID+"/reservations", buyerHeader, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodGet, "/api/reservations/mine", buyerHeader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Len(t, mine.Data, 1)
}

func TestSellerCannotReserveOwnListing(t *testing.T) {
	ts := newTestServer(t)
	listingID := ts.createListing(t, "10")

	w := ts.do(t, http.MethodPost, "/api/listings/"+listingID+"/reservations", sellerHeader, map[string]any{"kg_requested": "1"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[errorResponse](t, w)
	require.Len(t, resp.Error.Errors, 1)
	assert.Equal(t, capacity.ErrOwnCapacity.Error(), resp.Error.Errors[0].Code)
	assert.Equal(t, "listing", resp.Error.Errors[0].Field)
}

func TestUnknownListingReturnsNotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/listings/424242", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/listings/424242/reservations", buyerHeader, map[string]any{"kg_requested": "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleNotifyShowsSubscriptionOnDetail(t *testing.T) {
	ts := newTestServer(t)
	listingID := ts.createListing(t, "10")

	w := ts.do(t, http.MethodPost, "/api/listings/"+listingID+"/telegram-notify", buyerHeader, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/listings/"+listingID, buyerHeader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[listingEnvelope](t, w)
	require.NotNil(t, detail.Data.Subscription)
	assert.True(t, detail.Data.Subscription.IsActive)

	w = ts.do(t, http.MethodGet, "/api/subscriptions", buyerHeader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var subs struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &subs))
	require.Len(t, subs.Data, 1)

	w = ts.do(t, http.MethodPut, "/api/subscriptions/"+subs.Data[0].ID, otherHeader, map[string]any{"is_active": false})
	assert.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, w.Code)
}

func TestSetListingActiveRequiresFlag(t *testing.T) {
	ts := newTestServer(t)
	listingID := ts.createListing(t, "10")

	w := ts.do(t, http.MethodPost, "/api/listings/"+listingID+"/active", sellerHeader, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/listings/"+listingID+"/active", buyerHeader, map[string]any{"is_active": false})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, "/api/listings/"+listingID+"/active", sellerHeader, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/listings/"+listingID+"/reservations", buyerHeader, map[string]any{"kg_requested": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTelegramWebhookRejectsBadSecret(t *testing.T) {
	ts := newTestServer(t)

	w := ts.webhook(t, "wrong", `{"update_id":1,"message":{"message_id":1,"chat":{"id":555},"text":"/help"}}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, ts.sender.messages())
}

func TestTelegramWebhookRepliesToUnknownCommand(t *testing.T) {
	ts := newTestServer(t)

	w := ts.webhook(t, webhookSecret, `{"update_id":2,"message":{"message_id":1,"chat":{"id":555},"text":"/frobnicate"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	sent := ts.sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "555", sent[0].chatID)
	assert.Equal(t, "Unknown command. Send /help to see the available commands.", sent[0].text)
}

func TestTelegramWebhookAcknowledgesMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	w := ts.webhook(t, webhookSecret, `{not json`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ts.sender.messages())
}

func TestTelegramLinkThroughWebhook(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/me/telegram/link", buyerHeader, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	link := decode[struct {
		Data userdomain.LinkTokenResponse `json:"data"`
	}](t, w)
	require.NotEmpty(t, link.Data.Token)
	assert.Contains(t, link.Data.StartURL, "https://t.me/luggage_bot?start=")

	body := fmt.Sprintf(`{"update_id":3,"message":{"message_id":1,"chat":{"id":777},"text":"/start %s"}}`, link.Data.Token)
	w = ts.webhook(t, webhookSecret, body)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/me", buyerHeader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[struct {
		Data struct {
			TelegramChatID *string `json:"telegram_chat_id"`
		} `json:"data"`
	}](t, w)
	require.NotNil(t, me.Data.TelegramChatID)
	assert.Equal(t, "777", *me.Data.TelegramChatID)
}

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrUnauthorized, http.StatusUnauthorized},
		{listingdomain.ErrForbidden, http.StatusForbidden},
		{reservationdomain.ErrForbidden, http.StatusForbidden},
		{listingdomain.ErrListingNotFound, http.StatusNotFound},
		{gorm.ErrRecordNotFound, http.StatusNotFound},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrServiceUnavailable, http.StatusServiceUnavailable},
		{capacity.ErrInvalidQuantity, http.StatusBadRequest},
		{listingdomain.ErrHasReservations, http.StatusConflict},
		{requestdomain.ErrForbidden, http.StatusForbidden},
		{requestdomain.ErrRequestNotFound, http.StatusNotFound},
		{requestdomain.ErrInvalidAmount, http.StatusBadRequest},
		{conversationdomain.ErrForbidden, http.StatusForbidden},
		{conversationdomain.ErrConversationNotFound, http.StatusNotFound},
		{conversationdomain.ErrOwnRequest, http.StatusBadRequest},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}

	typ, code := classifyErrorForLog(capacity.ErrOwnCapacity)
	assert.Equal(t, "validation_error", typ)
	assert.Equal(t, capacity.ErrOwnCapacity.Error(), code)
}

func TestReservationRejectsExtraDecimalPlaces(t *testing.T) {
	ts := newTestServer(t)
	listingID := ts.createListing(t, "10")

	w := ts.do(t, http.MethodPost, "/api/listings/"+listingID+"/reservations", buyerHeader, map[string]any{"kg_requested": "0.005"})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	resp := decode[errorResponse](t, w)
	require.Len(t, resp.Error.Errors, 1)
	assert.Equal(t, capacity.ErrInvalidQuantity.Error(), resp.Error.Errors[0].Code)
	assert.Equal(t, "kg_requested", resp.Error.Errors[0].Field)
}

func TestDeleteListingOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	listingID := ts.createListing(t, "10")
	reservedID := ts.createListing(t, "10")

	w := ts.do(t, http.MethodPost, "/api/listings/"+reservedID+"/reservations", buyerHeader, map[string]any{"kg_requested": "2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodDelete, "/api/listings/"+reservedID, sellerHeader, nil)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "conflict", decode[errorResponse](t, w).Error.Type)

	w = ts.do(t, http.MethodDelete, "/api/listings/"+listingID, buyerHeader, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/listings/"+listingID, sellerHeader, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/listings/"+listingID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type requestEnvelope struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		PotentialSavings string `json:"potential_savings"`
	} `json:"data"`
}

func TestExchangeRequestAndConversationFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/requests", sellerHeader, map[string]any{
		"type":       "send",
		"amount":     "200000",
		"currency":   "jpy",
		"deadline":   "2026-03-25T18:30",
		"conditions": "meet at Ueno",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[requestEnvelope](t, w)
	assert.Equal(t, "active", created.Data.Status)
	assert.Equal(t, "6000", created.Data.PotentialSavings)
	requestID := created.Data.ID

	w = ts.do(t, http.MethodGet, "/api/requests?type=send", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var board struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	require.Len(t, board.Data, 1)
	assert.Equal(t, requestID, board.Data[0].ID)

	w = ts.do(t, http.MethodPost, "/api/requests/"+requestID+"/conversations", sellerHeader, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/requests/"+requestID+"/conversations", buyerHeader, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	conversationID := decode[struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}](t, w).Data.ID

	w = ts.do(t, http.MethodPost, "/api/conversations/"+conversationID+"/messages", buyerHeader, map[string]any{"content": "I can take it"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/conversations/"+conversationID+"/messages", otherHeader, map[string]any{"content": "me too"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	type unreadEnvelope struct {
		Data struct {
			UnreadMessages int64 `json:"unread_messages"`
		} `json:"data"`
	}
	w = ts.do(t, http.MethodGet, "/api/conversations/unread", sellerHeader, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), decode[unreadEnvelope](t, w).Data.UnreadMessages)

	w = ts.do(t, http.MethodGet, "/api/conversations/"+conversationID, sellerHeader, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/conversations/unread", sellerHeader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[unreadEnvelope](t, w).Data.UnreadMessages)

	w = ts.do(t, http.MethodPost, "/api/requests/"+requestID+"/complete", buyerHeader, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, "/api/requests/"+requestID+"/complete", sellerHeader, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", decode[requestEnvelope](t, w).Data.Status)

	w = ts.do(t, http.MethodDelete, "/api/requests/"+requestID, sellerHeader, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/conversations/"+conversationID, buyerHeader, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
