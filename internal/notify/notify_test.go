package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nashcompany/storefront/internal/domain"
	"github.com/nashcompany/storefront/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (f *fakeMessenger) SendText(_ context.Context, phone, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, phone)
	return nil
}

func sampleOrder() *domain.PendingOrder {
	return &domain.PendingOrder{
		SessionID:         "pref-1",
		ExternalReference: "nash_1",
		Customer:          &domain.Customer{Name: "Ana", Phone: "(71) 99999-0000"},
		Address: &domain.Address{
			Street: "Rua das Flores", Number: "10", Neighborhood: "Barra",
			City: "Salvador", State: "BA", ZipCode: "40000-000",
		},
		Items: []domain.CartLineItem{
			{ProductID: "camisa-a", Name: "Camisa A", Price: 50, Color: "Preto", Size: "M", Quantity: 2},
		},
		Total:         1234.56,
		PaymentMethod: "pix",
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5571999990000", NormalizePhone("(71) 99999-0000"))
	assert.Equal(t, "5571999990000", NormalizePhone("+55 71 99999-0000"))
	assert.Equal(t, "55", NormalizePhone(""))
}

func TestDeepLink(t *testing.T) {
	link := DeepLink("71 99999-0000", "Olá mundo & cia")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/5571999990000", u.Path)
	assert.Equal(t, "Olá mundo & cia", u.Query().Get("text"))
}

func TestLocalCity(t *testing.T) {
	assert.Equal(t, "Salvador", DefaultLocalCity.Label(&domain.Address{City: "SALVADOR"}))
	assert.Equal(t, "Salvador", DefaultLocalCity.Label(&domain.Address{City: "Lauro de Freitas / SSA"}))
	assert.Equal(t, "Fora de Salvador", DefaultLocalCity.Label(&domain.Address{City: "Feira de Santana"}))
	assert.Equal(t, "Fora de Salvador", DefaultLocalCity.Label(nil))
}

func TestAdminMessage(t *testing.T) {
	msg := AdminMessage(sampleOrder(), DefaultLocalCity)

	assert.Contains(t, msg, "• Cliente: Ana")
	assert.Contains(t, msg, "• Camisa A - Preto / M (x2)")
	assert.Contains(t, msg, "R$ 1.234,56")
	assert.Contains(t, msg, "CEP: 40000-000")
	assert.Contains(t, msg, "Localidade:\nSalvador")
	assert.Contains(t, msg, "Forma de pagamento: pix")
}

func TestAdminMessage_MissingCustomerAndAddress(t *testing.T) {
	order := sampleOrder()
	order.Customer = nil
	order.Address = nil

	msg := AdminMessage(order, DefaultLocalCity)
	assert.Contains(t, msg, "Cliente: não informado")
	assert.Contains(t, msg, "Endereço não informado")
	assert.Contains(t, msg, "Fora de Salvador")
}

func TestCustomerMessage(t *testing.T) {
	msg := CustomerMessage(sampleOrder(), DefaultLocalCity)

	assert.Contains(t, msg, "Seu pedido foi confirmado")
	assert.Contains(t, msg, "• Camisa A - Preto / M (x2)")
	assert.Contains(t, msg, "Localidade: Salvador")
	assert.NotContains(t, msg, "CEP")
}

func TestAPIMessenger_SendText(t *testing.T) {
	var got sendPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewAPIMessenger(APIConfig{BaseURL: srv.URL + "/", APIKey: "secret"}, logger.Discard())
	require.NoError(t, m.SendText(context.Background(), "5571999990000", "oi"))

	assert.Equal(t, "5571999990000", got.To)
	assert.Equal(t, "oi", got.Message)
	assert.Equal(t, "text", got.Type)
}

func TestAPIMessenger_NonOKIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	m := NewAPIMessenger(APIConfig{BaseURL: srv.URL, APIKey: "secret"}, logger.Discard())
	err := m.SendText(context.Background(), "5571999990000", "oi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "201")
}

func TestAPIMessenger_NoKey(t *testing.T) {
	m := NewAPIMessenger(APIConfig{BaseURL: "http://unused"}, logger.Discard())
	assert.ErrorIs(t, m.SendText(context.Background(), "5571999990000", "oi"), ErrAPIUnavailable)
}

func TestSender_SendViaAPI(t *testing.T) {
	messenger := &fakeMessenger{}
	log := NewMemoryLog()
	s := NewSender(messenger, log, "", logger.Discard())

	res, err := s.Send(context.Background(), "(71) 99999-0000", "oi")
	require.NoError(t, err)
	assert.Equal(t, Result{Success: true, Method: MethodAPI}, res)
	assert.Equal(t, []string{"5571999990000"}, messenger.sent)

	entries, _ := log.List(context.Background())
	require.Len(t, entries, 1)
	assert.Equal(t, domain.MessageStatusSent, entries[0].Status)
	assert.Equal(t, "5571999990000", entries[0].PhoneNumber)
}

func TestSender_FallsBackToWebLink(t *testing.T) {
	messenger := &fakeMessenger{err: errors.New("boom")}
	log := NewMemoryLog()
	s := NewSender(messenger, log, "", logger.Discard())

	res, err := s.Send(context.Background(), "71 99999-0000", "pedido novo")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, MethodWeb, res.Method)
	assert.True(t, strings.HasPrefix(res.URL, "https://wa.me/5571999990000?text="))

	stats, _ := log.Stats(context.Background())
	assert.Equal(t, domain.MessageStats{Total: 1, Pending: 1}, stats)
}

func TestSender_InvalidPhoneLogsError(t *testing.T) {
	log := NewMemoryLog()
	s := NewSender(&fakeMessenger{}, log, "", logger.Discard())

	_, err := s.Send(context.Background(), "abc", "oi")
	assert.ErrorIs(t, err, ErrInvalidPhone)

	stats, _ := log.Stats(context.Background())
	assert.Equal(t, 1, stats.Error)
}

func TestSender_SendToAdminAndCustomer(t *testing.T) {
	messenger := &fakeMessenger{}
	s := NewSender(messenger, NewMemoryLog(), "5571000000000", logger.Discard())

	_, err := s.SendToAdmin(context.Background(), sampleOrder())
	require.NoError(t, err)
	_, err = s.SendToCustomer(context.Background(), sampleOrder())
	require.NoError(t, err)

	assert.Equal(t, []string{"5571000000000", "5571999990000"}, messenger.sent)

	order := sampleOrder()
	order.Customer = nil
	_, err = s.SendToCustomer(context.Background(), order)
	assert.ErrorIs(t, err, ErrNoCustomerPhone)
}

func TestSender_Resend(t *testing.T) {
	messenger := &fakeMessenger{err: errors.New("down")}
	log := NewMemoryLog()
	s := NewSender(messenger, log, "", logger.Discard())

	_, err := s.Send(context.Background(), "71 99999-0000", "oi")
	require.NoError(t, err)
	entries, _ := log.List(context.Background())
	require.Len(t, entries, 1)

	messenger.err = nil
	res, err := s.Resend(context.Background(), entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, ResendResult{Success: true, Method: MethodAPI, Message: "Mensagem reenviada com sucesso"}, res)

	stats, _ := log.Stats(context.Background())
	assert.Equal(t, domain.MessageStats{Total: 2, Sent: 1, Pending: 1}, stats)

	_, err = s.Resend(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func eachLog(t *testing.T, fn func(t *testing.T, l MessageLog)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryLog())
	})
	t.Run("sqlite", func(t *testing.T) {
		l, err := NewSQLiteLog(":memory:")
		require.NoError(t, err)
		defer l.Close()
		fn(t, l)
	})
}

func entry(i int, status domain.MessageStatus) domain.NotificationLogEntry {
	return domain.NotificationLogEntry{
		ID:          fmt.Sprintf("msg-%03d", i),
		Timestamp:   time.Date(2026, 1, 1, 12, 0, i%60, 0, time.UTC),
		PhoneNumber: "5571999990000",
		Message:     fmt.Sprintf("mensagem %d", i),
		Status:      status,
	}
}

func TestMessageLog_AppendGetList(t *testing.T) {
	eachLog(t, func(t *testing.T, l MessageLog) {
		ctx := context.Background()
		require.NoError(t, l.Append(ctx, entry(1, domain.MessageStatusSent)))
		require.NoError(t, l.Append(ctx, entry(2, domain.MessageStatusPending)))

		got, err := l.Get(ctx, "msg-002")
		require.NoError(t, err)
		assert.Equal(t, "mensagem 2", got.Message)
		assert.Equal(t, domain.MessageStatusPending, got.Status)
		assert.True(t, got.Timestamp.Equal(entry(2, "").Timestamp))

		_, err = l.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrEntryNotFound)

		entries, err := l.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "msg-001", entries[0].ID)
		assert.Equal(t, "msg-002", entries[1].ID)
	})
}

func TestMessageLog_BoundedToMostRecent(t *testing.T) {
	eachLog(t, func(t *testing.T, l MessageLog) {
		ctx := context.Background()
		for i := 0; i < MaxLogEntries+5; i++ {
			require.NoError(t, l.Append(ctx, entry(i, domain.MessageStatusSent)))
		}

		entries, err := l.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, MaxLogEntries)
		assert.Equal(t, "msg-005", entries[0].ID)
		assert.Equal(t, fmt.Sprintf("msg-%03d", MaxLogEntries+4), entries[len(entries)-1].ID)

		_, err = l.Get(ctx, "msg-000")
		assert.ErrorIs(t, err, ErrEntryNotFound)
	})
}

func TestMessageLog_Stats(t *testing.T) {
	eachLog(t, func(t *testing.T, l MessageLog) {
		ctx := context.Background()
		statuses := []domain.MessageStatus{
			domain.MessageStatusSent, domain.MessageStatusSent,
			domain.MessageStatusPending, domain.MessageStatusError,
		}
		for i, s := range statuses {
			require.NoError(t, l.Append(ctx, entry(i, s)))
		}

		stats, err := l.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.MessageStats{Total: 4, Sent: 2, Pending: 1, Error: 1}, stats)
	})
}
