package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nashcompany/storefront/internal/domain"
	"github.com/nashcompany/storefront/internal/logger"
	"github.com/nashcompany/storefront/internal/notify"
	"github.com/nashcompany/storefront/internal/payment"
	"github.com/nashcompany/storefront/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type relayMock struct {
	mu        sync.Mutex
	result    *service.CheckoutResult
	err       error
	lastReq   *service.CheckoutRequest
	events    []service.WebhookEvent
	hookError error
}

func (m *relayMock) Checkout(_ context.Context, req *service.CheckoutRequest) (*service.CheckoutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastReq = req
	return m.result, m.err
}

func (m *relayMock) HandleWebhook(_ context.Context, ev service.WebhookEvent) (service.WebhookResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return service.WebhookResult{}, m.hookError
}

type failingMessenger struct{}

func (failingMessenger) SendText(context.Context, string, string) error {
	return errors.New("api down")
}

// --- helper ---

type testServer struct {
	handler http.Handler
	relay   *relayMock
	log     *notify.MemoryLog
	sender  *notify.Sender
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, RouterConfig{AdminRateLimit: rateLimit, AdminBurst: 2})
}

func newTestServerWithConfig(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	relay := &relayMock{}
	msgLog := notify.NewMemoryLog()
	sender := notify.NewSender(failingMessenger{}, msgLog, "", logger.Discard())

	h := NewRouter(Handlers{
		Checkout: NewCheckoutHandler(relay, 5*time.Second, logger.Discard()),
		Admin:    NewAdminHandler(sender, msgLog, 5*time.Second, logger.Discard()),
		Pages:    NewPagesHandler(notify.DefaultAdminPhone),
	}, cfg, logger.Discard())

	return &testServer{handler: h, relay: relay, log: msgLog, sender: sender}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- Checkout tests ---

func TestCheckout_Success(t *testing.T) {
	s := newTestServer(t, 30)
	s.relay.result = &service.CheckoutResult{
		SessionID:          "pref-1",
		RedirectURL:        "https://pay.example/live",
		SandboxRedirectURL: "https://pay.example/sandbox",
	}

	for _, path := range []string{"/checkout", "/api/create_preference"} {
		rec := s.do(http.MethodPost, path, `{"items":[{"id":"camisa-a","name":"Camisa A","price":50,"color":"Preto","size":"M","quantity":2}]}`)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var resp CheckoutResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "pref-1", resp.SessionID)
		assert.Equal(t, "pref-1", resp.ID)
		assert.Equal(t, "https://pay.example/live", resp.RedirectURL)
		assert.Equal(t, "https://pay.example/live", resp.InitPoint)
		assert.Equal(t, "https://pay.example/sandbox", resp.SandboxInitPoint)
	}

	require.NotNil(t, s.relay.lastReq)
	require.Len(t, s.relay.lastReq.Items, 1)
	assert.Equal(t, 2.0, s.relay.lastReq.Items[0].Quantity)
}

func TestCheckout_ValidationError(t *testing.T) {
	s := newTestServer(t, 30)
	s.relay.err = &service.ValidationError{Details: []string{"Endereço de entrega é obrigatório"}}

	rec := s.do(http.MethodPost, "/checkout", `{"items":[],"address":{"street":"Rua das Flores"}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Dados inválidos", body["error"])
	assert.Equal(t, []any{"Endereço de entrega é obrigatório"}, body["details"])
}

func TestCheckout_InvalidJSON(t *testing.T) {
	s := newTestServer(t, 30)

	rec := s.do(http.MethodPost, "/checkout", `{"items":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Dados inválidos", decodeError(t, rec)["error"])
	assert.Nil(t, s.relay.lastReq)
}

func TestCheckout_UpstreamError(t *testing.T) {
	s := newTestServer(t, 30)
	s.relay.err = &payment.UpstreamError{Op: "create preference", StatusCode: 401, Message: "invalid access token"}

	rec := s.do(http.MethodPost, "/checkout", `{"items":[{"id":"a","price":10,"quantity":1}]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Erro interno do servidor", body["error"])
	assert.Equal(t, "invalid access token", body["details"])
}

// --- Webhook tests ---

func TestWebhook_BodyNotification(t *testing.T) {
	s := newTestServer(t, 30)

	rec := s.do(http.MethodPost, "/webhook", `{"type":"payment","action":"payment.created","data":{"id":123456}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	require.Len(t, s.relay.events, 1)
	assert.Equal(t, service.WebhookEvent{Type: "payment", Action: "payment.created", PaymentID: "123456"}, s.relay.events[0])
}

func TestWebhook_QueryNotification(t *testing.T) {
	s := newTestServer(t, 30)

	rec := s.do(http.MethodPost, "/api/webhook?topic=payment&id=42", ``)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, s.relay.events, 1)
	assert.Equal(t, "payment", s.relay.events[0].Type)
	assert.Equal(t, "42", s.relay.events[0].PaymentID)
}

func TestWebhook_AlwaysOK(t *testing.T) {
	s := newTestServer(t, 30)
	s.relay.hookError = errors.New("payment api down")

	rec := s.do(http.MethodPost, "/webhook", `{"type":"payment","data":{"id":"1"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

// --- Admin tests ---

func TestAdminMessages(t *testing.T) {
	s := newTestServer(t, 30)
	_, err := s.sender.Send(context.Background(), "71 99999-0000", "oi")
	require.NoError(t, err)

	rec := s.do(http.MethodGet, "/admin/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MessagesResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, domain.MessageStatusPending, resp.Messages[0].Status)
	assert.Equal(t, domain.MessageStats{Total: 1, Pending: 1}, resp.Stats)
	assert.False(t, resp.LastUpdate.IsZero())
}

func TestAdminResend(t *testing.T) {
	s := newTestServer(t, 30)
	_, err := s.sender.Send(context.Background(), "71 99999-0000", "oi")
	require.NoError(t, err)
	entries, _ := s.log.List(context.Background())
	require.Len(t, entries, 1)

	rec := s.do(http.MethodPost, "/admin/resend-message/"+entries[0].ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp notify.ResendResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, notify.MethodWeb, resp.Method)
	assert.Contains(t, resp.Message, "https://wa.me/5571999990000")

	rec = s.do(http.MethodPost, "/admin/resend-message/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_RateLimited(t *testing.T) {
	s := newTestServer(t, 1)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, s.do(http.MethodGet, "/admin/messages", "").Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestAdmin_RateLimitIgnoresForwardedHeadersByDefault(t *testing.T) {
	s := newTestServer(t, 1)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/admin/messages", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestAdmin_RateLimitUsesForwardedHeadersWhenTrusted(t *testing.T) {
	s := newTestServerWithConfig(t, RouterConfig{AdminRateLimit: 1, AdminBurst: 1, TrustProxyHeaders: true})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin/messages", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.1"))
	assert.Equal(t, http.StatusOK, send("203.0.113.2"))
}

func TestRateLimiter_PerClient(t *testing.T) {
	l := NewRateLimiter(60, 1)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
}

// --- misc ---

func TestHealthAndPages(t *testing.T) {
	s := newTestServer(t, 30)

	rec := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	for path, heading := range map[string]string{
		"/success": "Pagamento Aprovado",
		"/pending": "Pagamento Pendente",
		"/failure": "Pagamento Não Aprovado",
	} {
		rec := s.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), heading)
		assert.Contains(t, rec.Body.String(), "https://wa.me/5571988689508")
	}
}
