package http

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/nashcompany/storefront/internal/notify"
)

type returnPage struct {
	Title   string
	Heading string
	Message string
	Accent  string
	ChatURL string
}

var pageTemplate = template.Must(template.New("return").Parse(`<!DOCTYPE html>
<html lang="pt-br">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}} - NASH COMPANY</title>
<style>
body { font-family: 'Inter', sans-serif; background: #000; color: #fff; text-align: center; padding: 50px; }
.box { max-width: 600px; margin: 0 auto; background: #0a0a0a; padding: 40px; border: 1px solid #222; border-radius: 10px; }
h1 { color: {{.Accent}}; }
a { display: inline-block; background: #25D366; color: #fff; padding: 15px 30px; text-decoration: none; border-radius: 5px; margin-top: 20px; }
</style>
</head>
<body>
<div class="box">
<h1>{{.Heading}}</h1>
<p>{{.Message}}</p>
<a href="{{.ChatURL}}">Falar no WhatsApp</a>
<p><a href="/">Voltar à loja</a></p>
</div>
</body>
</html>
`))

// PagesHandler serves the pages the payment provider redirects back to.
type PagesHandler struct {
	shopPhone string
}

// NewPagesHandler creates the payment return pages handler.
func NewPagesHandler(shopPhone string) *PagesHandler {
	return &PagesHandler{shopPhone: shopPhone}
}

func (h *PagesHandler) render(w http.ResponseWriter, page returnPage) {
	page.ChatURL = notify.DeepLink(h.shopPhone, "Olá! Acabei de fazer um pedido no site.")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, page); err != nil {
		slog.Error("failed to render page", "page", page.Title, "error", err)
	}
}

func (h *PagesHandler) Success(w http.ResponseWriter, _ *http.Request) {
	h.render(w, returnPage{
		Title:   "Pagamento Aprovado",
		Heading: "✅ Pagamento Aprovado!",
		Message: "Seu pedido foi confirmado. Você receberá a confirmação pelo WhatsApp.",
		Accent:  "#25D366",
	})
}

func (h *PagesHandler) Pending(w http.ResponseWriter, _ *http.Request) {
	h.render(w, returnPage{
		Title:   "Pagamento Pendente",
		Heading: "⏳ Pagamento Pendente",
		Message: "Estamos aguardando a confirmação do pagamento. Avisaremos assim que for aprovado.",
		Accent:  "#f5a623",
	})
}

func (h *PagesHandler) Failure(w http.ResponseWriter, _ *http.Request) {
	h.render(w, returnPage{
		Title:   "Pagamento Não Aprovado",
		Heading: "❌ Pagamento Não Aprovado",
		Message: "Não foi possível concluir o pagamento. Tente novamente ou fale com a gente.",
		Accent:  "#e74c3c",
	})
}
