package usecase

import (
	"fmt"
	"strings"

	"truelive-router/internal/domain"
)

// Fixed user-facing replies.
const (
	WelcomeReply          = "Olá, eu sou o True Live! Como posso ajudar você hoje?"
	InvalidMessageReply   = "Mensagem inválida. Envie um texto para que eu possa ajudar."
	FallbackReply         = "Desculpe, algo deu errado. Tente novamente!"
	NoRecentNewsReply     = "Não encontrei notícias recentes sobre esse assunto."
	NewsFailedReply       = "Não consegui buscar as notícias agora. Tente novamente mais tarde."
	NoTrustedResultReply  = "Não encontrei nada relevante em fontes confiáveis sobre esse assunto."
	NoRelevantResultReply = "Não encontrei nada relevante sobre esse assunto."
	AssistantFailedReply  = "Desculpe, não consegui responder agora. Tente novamente mais tarde."
)

const newsDateLayout = "02/01/2006"

func formatLatestNews(topic string, a domain.Article) string {
	return fmt.Sprintf("🗞️ Última notícia sobre %s: *%s* (%s, %s)",
		topic, a.Title, sourceName(a), a.PublishedAt.Format(newsDateLayout))
}

func formatPointer(a domain.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Para mais informações, veja: *%s* (%s)", a.Title, sourceName(a))
	if u := strings.TrimSpace(a.URL); u != "" {
		b.WriteString(" ")
		b.WriteString(u)
	}
	return b.String()
}

func formatFact(f domain.Fact) string {
	return f.Answer + " [Source: " + f.Source + "]"
}

func sourceName(a domain.Article) string {
	if s := strings.TrimSpace(a.Source); s != "" {
		return s
	}
	return "fonte desconhecida"
}
