package notify

import (
	"fmt"
	"strings"

	"github.com/nashcompany/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// LocalCity decides the "Salvador / Fora de Salvador" line of the summaries.
type LocalCity struct {
	Name    string
	Matches []string
}

// DefaultLocalCity is the shop's home city.
var DefaultLocalCity = LocalCity{Name: "Salvador", Matches: []string{"salvador", "ssa"}}

func (l LocalCity) Contains(addr *domain.Address) bool {
	if addr == nil || addr.City == "" {
		return false
	}
	city := strings.ToLower(addr.City)
	for _, m := range l.Matches {
		if strings.Contains(city, m) {
			return true
		}
	}
	return false
}

func (l LocalCity) Label(addr *domain.Address) string {
	if l.Contains(addr) {
		return l.Name
	}
	return "Fora de " + l.Name
}

func itemLines(items []domain.CartLineItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("• %s - %s / %s (x%d)", item.Name, item.Color, item.Size, item.Quantity))
	}
	return strings.Join(lines, "\n")
}

func addressLines(addr *domain.Address, withZip bool) string {
	if addr == nil {
		return "Endereço não informado"
	}
	s := fmt.Sprintf("%s, %s\n%s, %s - %s", addr.Street, addr.Number, addr.Neighborhood, addr.City, addr.State)
	if withZip {
		s += "\nCEP: " + addr.ZipCode
	}
	return s
}

func total(order *domain.PendingOrder) string {
	return domain.FormatBRLGrouped(decimal.NewFromFloat(order.Total).Round(2))
}

// AdminMessage is the new-order summary sent to the shop.
func AdminMessage(order *domain.PendingOrder, city LocalCity) string {
	customer := domain.Customer{Name: "não informado", Phone: "não informado"}
	if order.Customer != nil {
		customer = *order.Customer
	}

	var b strings.Builder
	b.WriteString("Salve, Nash! 👋\n\n")
	b.WriteString("Novo pedido confirmado no site da Nash Company 🖤\n\n")
	b.WriteString("🧾 Dados do pedido:\n")
	fmt.Fprintf(&b, "• Cliente: %s\n", customer.Name)
	fmt.Fprintf(&b, "• Telefone: %s\n", customer.Phone)
	b.WriteString("• Produtos:\n")
	b.WriteString(itemLines(order.Items))
	fmt.Fprintf(&b, "\n• Valor total: %s\n\n", total(order))
	b.WriteString("📍 Endereço de entrega:\n")
	b.WriteString(addressLines(order.Address, true))
	fmt.Fprintf(&b, "\n\n🏙️ Localidade:\n%s\n\n", city.Label(order.Address))
	fmt.Fprintf(&b, "💳 Forma de pagamento: %s\n", order.PaymentMethod)
	b.WriteString("🕒 Status: Pagamento confirmado ✅")
	return b.String()
}

// CustomerMessage is the order confirmation sent to the buyer.
func CustomerMessage(order *domain.PendingOrder, city LocalCity) string {
	var b strings.Builder
	b.WriteString("Olá! 👋\n\n")
	b.WriteString("Seu pedido foi confirmado na NASH COMPANY! 🖤\n\n")
	b.WriteString("🧾 Resumo do seu pedido:\n")
	b.WriteString(itemLines(order.Items))
	fmt.Fprintf(&b, "\n\n💰 Valor total: %s\n\n", total(order))
	b.WriteString("📍 Entrega será feita em:\n")
	b.WriteString(addressLines(order.Address, false))
	fmt.Fprintf(&b, "\n\n🏙️ Localidade: %s\n\n", city.Label(order.Address))
	b.WriteString("✅ Pagamento confirmado! Vamos combinar a entrega com você em seguida.\n\n")
	b.WriteString("Obrigado por escolher a NASH COMPANY! 🖤")
	return b.String()
}
