package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/nashcompany/storefront/internal/domain"
	"github.com/nashcompany/storefront/internal/notify"
	"github.com/shopspring/decimal"
)

// MessagingLinkStrategy hands the order to the shop over chat instead of a
// payment page. Nothing is sent to the relay.
type MessagingLinkStrategy struct {
	ShopPhone string
}

func (s MessagingLinkStrategy) Begin(_ context.Context, items []domain.CartLineItem, buyer Buyer) (string, error) {
	return notify.DeepLink(s.ShopPhone, OrderMessage(items, buyer)), nil
}

// OrderMessage builds the order text sent to the shop over WhatsApp.
func OrderMessage(items []domain.CartLineItem, buyer Buyer) string {
	var b strings.Builder
	b.WriteString("Olá, NASH COMPANY! 🚀\nGostaria de finalizar meu pedido:\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "*Produto:* %s\n", item.Name)
		fmt.Fprintf(&b, "*Detalhes:* %s / %s\n", item.Color, item.Size)
		fmt.Fprintf(&b, "*Preço:* %s\n", domain.FormatBRL(decimal.NewFromFloat(item.Price)))
		fmt.Fprintf(&b, "*Quantidade:* %d\n", item.Quantity)
		b.WriteString("------------------------\n")
	}
	fmt.Fprintf(&b, "\n*SUBTOTAL DO PEDIDO: %s*", domain.FormatBRL(domain.SumItems(items)))

	if c := buyer.Customer; c != nil {
		fmt.Fprintf(&b, "\n\n*Nome:* %s\n*Telefone:* %s", c.Name, c.Phone)
	}
	if a := buyer.Address; a != nil {
		fmt.Fprintf(&b, "\n*Entrega:* %s, %s - %s, %s/%s", a.Street, a.Number, a.Neighborhood, a.City, a.State)
	}
	b.WriteString("\n\nAguardo as instruções para pagamento.")
	return b.String()
}
