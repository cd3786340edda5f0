package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nashcompany/storefront/internal/domain"
)

const (
	MethodAPI = "api"
	MethodWeb = "web"

	DefaultAdminPhone = "5571988689508"
)

var (
	ErrInvalidPhone    = errors.New("phone number has too few digits")
	ErrNoCustomerPhone = errors.New("order has no customer phone")
)

// minPhoneDigits counts the country code.
const minPhoneDigits = 12

// Result describes how a notification went out.
type Result struct {
	Success bool   `json:"success"`
	Method  string `json:"method,omitempty"`
	URL     string `json:"url,omitempty"`
}

// ResendResult is returned by Resend.
type ResendResult struct {
	Success bool   `json:"success"`
	Method  string `json:"method,omitempty"`
	Message string `json:"message"`
}

// Sender delivers order notifications, falling back to a wa.me link when the
// API fails, and records every attempt in its MessageLog.
type Sender struct {
	messenger  Messenger
	log        MessageLog
	adminPhone string
	city       LocalCity
	logger     *slog.Logger
	now        func() time.Time
}

// NewSender creates a new Sender. An empty adminPhone uses DefaultAdminPhone.
func NewSender(messenger Messenger, messageLog MessageLog, adminPhone string, logger *slog.Logger) *Sender {
	if adminPhone == "" {
		adminPhone = DefaultAdminPhone
	}
	return &Sender{
		messenger:  messenger,
		log:        messageLog,
		adminPhone: adminPhone,
		city:       DefaultLocalCity,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Sender) Log() MessageLog {
	return s.log
}

// Send tries the messaging API first and falls back to a click-to-chat link.
// Every attempt is recorded in the message log.
func (s *Sender) Send(ctx context.Context, phone, message string) (Result, error) {
	normalized := NormalizePhone(phone)
	if len(normalized) < minPhoneDigits {
		s.record(ctx, normalized, message, domain.MessageStatusError)
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}

	err := s.messenger.SendText(ctx, normalized, message)
	if err == nil {
		s.record(ctx, normalized, message, domain.MessageStatusSent)
		s.logger.InfoContext(ctx, "message sent via api", "phone", normalized)
		return Result{Success: true, Method: MethodAPI}, nil
	}

	s.logger.WarnContext(ctx, "messaging api failed, using web link", "phone", normalized, "error", err)
	link := DeepLink(normalized, message)
	s.record(ctx, normalized, message, domain.MessageStatusPending)
	return Result{Success: true, Method: MethodWeb, URL: link}, nil
}

// SendToAdmin notifies the shop about a confirmed order.
func (s *Sender) SendToAdmin(ctx context.Context, order *domain.PendingOrder) (Result, error) {
	return s.Send(ctx, s.adminPhone, AdminMessage(order, s.city))
}

// SendToCustomer confirms the order to the buyer. It returns ErrNoCustomerPhone
// when the order carries no phone.
func (s *Sender) SendToCustomer(ctx context.Context, order *domain.PendingOrder) (Result, error) {
	if order.Customer == nil || order.Customer.Phone == "" {
		return Result{}, ErrNoCustomerPhone
	}
	return s.Send(ctx, order.Customer.Phone, CustomerMessage(order, s.city))
}

// Resend dispatches a logged message again; the new attempt gets its own entry.
func (s *Sender) Resend(ctx context.Context, id string) (ResendResult, error) {
	entry, err := s.log.Get(ctx, id)
	if err != nil {
		return ResendResult{}, err
	}

	res, err := s.Send(ctx, entry.PhoneNumber, entry.Message)
	if err != nil {
		return ResendResult{Message: "Erro ao reenviar mensagem"}, err
	}
	out := ResendResult{Success: res.Success, Method: res.Method, Message: "Mensagem reenviada com sucesso"}
	if res.Method == MethodWeb {
		out.Message = "Link do WhatsApp gerado: " + res.URL
	}
	return out, nil
}

func (s *Sender) record(ctx context.Context, phone, message string, status domain.MessageStatus) {
	entry := domain.NotificationLogEntry{
		ID:          uuid.NewString(),
		Timestamp:   s.now(),
		PhoneNumber: phone,
		Message:     message,
		Status:      status,
	}
	if err := s.log.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to append message log", "id", entry.ID, "error", err)
	}
}
