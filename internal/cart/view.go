package cart

import (
	"fmt"
	"io"
	"sync"

	"github.com/nashcompany/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// EmptyMessage is shown in place of the item list when the cart has no lines.
const EmptyMessage = "Seu carrinho está vazio."

// RenderedLine is one cart line formatted for display.
type RenderedLine struct {
	CartItemID string
	Name       string
	Meta       string
	Price      string
	Quantity   int
	Img        string
}

// Rendering is the full mini-cart state produced on each re-render.
type Rendering struct {
	Lines        []RenderedLine
	Empty        bool
	EmptyMessage string
	Subtotal     string
	Badge        int
	PanelOpen    bool
}

// View re-renders the whole mini-cart on every store event.
type View struct {
	store *Store
	out   io.Writer

	mu        sync.Mutex
	last      Rendering
	panelOpen bool
}

// NewView subscribes to the store. out may be nil when only Current is used.
func NewView(store *Store, out io.Writer) *View {
	v := &View{store: store, out: out}
	store.Subscribe(v.onEvent)
	v.render()
	return v
}

func (v *View) onEvent(e Event) {
	if e.Kind == EventAdded {
		v.mu.Lock()
		v.panelOpen = true
		v.mu.Unlock()
	}
	v.render()
}

// OpenPanel shows the cart panel and re-renders.
func (v *View) OpenPanel() {
	v.mu.Lock()
	v.panelOpen = true
	v.mu.Unlock()
	v.render()
}

func (v *View) ClosePanel() {
	v.mu.Lock()
	v.panelOpen = false
	v.mu.Unlock()
	v.render()
}

// Current returns the last rendering.
func (v *View) Current() Rendering {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

func (v *View) render() {
	items := v.store.Items()

	r := Rendering{
		Empty:    len(items) == 0,
		Subtotal: domain.FormatBRL(domain.SumItems(items)),
	}
	if r.Empty {
		r.EmptyMessage = EmptyMessage
	}
	for _, item := range items {
		r.Badge += item.Quantity
		r.Lines = append(r.Lines, RenderedLine{
			CartItemID: item.CartItemID,
			Name:       item.Name,
			Meta:       fmt.Sprintf("%s / %s", item.Color, item.Size),
			Price:      fmt.Sprintf("%s (x%d)", domain.FormatBRL(decimal.NewFromFloat(item.Price)), item.Quantity),
			Quantity:   item.Quantity,
			Img:        item.Img,
		})
	}

	v.mu.Lock()
	r.PanelOpen = v.panelOpen
	v.last = r
	v.mu.Unlock()
}

// WriteTo prints the current rendering as text.
func (v *View) WriteTo(w io.Writer) (int64, error) {
	r := v.Current()
	var n int64
	write := func(format string, args ...any) error {
		c, err := fmt.Fprintf(w, format, args...)
		n += int64(c)
		return err
	}

	if err := write("Carrinho (%d)\n", r.Badge); err != nil {
		return n, err
	}
	if r.Empty {
		if err := write("%s\n", r.EmptyMessage); err != nil {
			return n, err
		}
	}
	for _, line := range r.Lines {
		if err := write("  %s  %s\n    %s  %s\n", line.CartItemID, line.Name, line.Meta, line.Price); err != nil {
			return n, err
		}
	}
	err := write("Subtotal: %s\n", r.Subtotal)
	return n, err
}

// Print writes the current rendering to the view's output, if any.
func (v *View) Print() error {
	if v.out == nil {
		return nil
	}
	_, err := v.WriteTo(v.out)
	return err
}
