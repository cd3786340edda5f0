package domain

import "time"

// Customer is the buyer's contact data.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Address is the delivery address.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
}

// PendingOrder is the checkout snapshot held until the payment is approved.
type PendingOrder struct {
	SessionID         string         `json:"session_id"`
	ExternalReference string         `json:"external_reference"`
	Customer          *Customer      `json:"customer,omitempty"`
	Address           *Address       `json:"address,omitempty"`
	Items             []CartLineItem `json:"items"`
	Total             float64        `json:"total"`
	PaymentMethod     string         `json:"payment_method"`
	CreatedAt         time.Time      `json:"created_at"`
}

func (o *PendingOrder) OlderThan(age time.Duration, now time.Time) bool {
	return now.Sub(o.CreatedAt) > age
}
