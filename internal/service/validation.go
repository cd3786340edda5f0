package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nashcompany/storefront/internal/domain"
)

var phonePattern = regexp.MustCompile(`^[0-9()+\-\s]{8,20}$`)

// Per-line ceilings; anything above them is rejected before the float
// values are converted for the payment provider.
const (
	maxItemQuantity = 1000
	maxItemPrice    = 1_000_000
)

// ValidationError lists every rule a checkout request broke.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "invalid checkout request: " + strings.Join(e.Details, "; ")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

func validateCheckout(req *CheckoutRequest) error {
	var details []string

	if len(req.Items) == 0 {
		details = append(details, "Array de itens é obrigatório")
	}
	for i, item := range req.Items {
		n := i + 1
		if !(item.Price > 0) || item.Price > maxItemPrice {
			details = append(details, fmt.Sprintf("Item %d: preço inválido", n))
		}
		if !(item.Quantity > 0) || item.Quantity > maxItemQuantity || item.Quantity != math.Trunc(item.Quantity) {
			details = append(details, fmt.Sprintf("Item %d: quantidade inválida", n))
		}
	}

	if c := req.Customer; c != nil {
		if runeLen(c.Name) < 2 {
			details = append(details, "Nome deve ter pelo menos 2 caracteres")
		}
		if !phonePattern.MatchString(c.Phone) {
			details = append(details, "Telefone inválido")
		}
	}

	if a := req.Address; a != nil {
		shortStreet := runeLen(a.Street) < 5
		shortCity := runeLen(a.City) < 2
		if shortStreet || shortCity {
			details = append(details, "Endereço de entrega é obrigatório")
		}
		if shortStreet {
			details = append(details, "Rua deve ter pelo menos 5 caracteres")
		}
		if shortCity {
			details = append(details, "Cidade deve ter pelo menos 2 caracteres")
		}
	}

	if len(details) > 0 {
		return &ValidationError{Details: details}
	}
	return nil
}

func (req *CheckoutRequest) lineItems() []domain.CartLineItem {
	items := make([]domain.CartLineItem, 0, len(req.Items))
	for _, item := range req.Items {
		sel := domain.Selection{Color: item.Color, Size: item.Size}.Normalized()
		items = append(items, domain.CartLineItem{
			CartItemID: domain.CartItemID(item.ID, sel),
			ProductID:  item.ID,
			Name:       item.Name,
			Price:      item.Price,
			Img:        item.Img,
			Color:      sel.Color,
			Size:       sel.Size,
			Quantity:   int(item.Quantity),
		})
	}
	return items
}
