package domain

import "time"

// MessageStatus is the outcome recorded for a notification.
type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusError   MessageStatus = "error"
)

func (s MessageStatus) String() string {
	return string(s)
}

// NotificationLogEntry is one notification attempt.
type NotificationLogEntry struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	PhoneNumber string        `json:"phoneNumber"`
	Message     string        `json:"message"`
	Status      MessageStatus `json:"status"`
}

// MessageStats summarises the notification log.
type MessageStats struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Pending int `json:"pending"`
	Error   int `json:"error"`
}
