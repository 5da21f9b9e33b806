package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"truelive-router/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	contentTypeText   = "text/plain; charset=utf-8"
	maxBodyBytes      = 64 << 10
)

type Responder interface {
	Respond(ctx context.Context, in usecase.Input) (usecase.Reply, error)
}

// Metrics is the observability surface the handler exposes and feeds.
type Metrics interface {
	Handler() http.Handler
	ObserveResponse(d time.Duration)
}

type Handler struct {
	responder Responder
	metrics   Metrics
	log       *slog.Logger
}

type Option func(*Handler)

func WithMetrics(m Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

func NewHandler(responder Responder, opts ...Option) (*Handler, error) {
	if responder == nil {
		return nil, errors.New("handler: responder must not be nil")
	}
	h := &Handler{responder: responder, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle serves an API Gateway proxy event. The response is always 200 with a
// plain-text reply.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(headerValue(req.Headers, correlationHeader))

	body := req.Body
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			h.log.WarnContext(ctx, "undecodable request body", "correlation_id", corrID, "err", err)
			return textResponse(corrID, usecase.InvalidMessageReply), nil
		}
		body = string(decoded)
	}

	text := h.reply(ctx, corrID, headerValue(req.Headers, "Content-Type"), body)
	return textResponse(corrID, text), nil
}

// Router exposes the same webhook over plain HTTP.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/webhook", h.handleWebhook)
	r.Get("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}
	return r
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	corrID := correlationID(r.Header.Get(correlationHeader))

	text := usecase.InvalidMessageReply
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.log.WarnContext(r.Context(), "unreadable request body", "correlation_id", corrID, "err", err)
	} else {
		text = h.reply(r.Context(), corrID, r.Header.Get("Content-Type"), string(raw))
	}

	w.Header().Set("Content-Type", contentTypeText)
	w.Header().Set(correlationHeader, corrID)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", contentTypeText)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

// reply parses an inbound message and maps every failure to a fixed text.
func (h *Handler) reply(ctx context.Context, corrID, contentType, body string) string {
	log := h.log.With("correlation_id", corrID)
	start := time.Now()

	in, err := parseInbound(contentType, body)
	if err != nil {
		log.WarnContext(ctx, "invalid inbound message", "err", err)
		return usecase.InvalidMessageReply
	}

	out, err := h.responder.Respond(ctx, in)
	if h.metrics != nil {
		h.metrics.ObserveResponse(time.Since(start))
	}
	if err != nil {
		var uerr *usecase.Error
		if errors.As(err, &uerr) && uerr.Code == usecase.ErrorInvalidInput {
			log.WarnContext(ctx, "rejected inbound message", "reason", uerr.Reason)
			return usecase.InvalidMessageReply
		}
		log.ErrorContext(ctx, "failed to respond", "user", in.UserID, "err", err)
		return usecase.FallbackReply
	}

	log.InfoContext(ctx, "replied", "user", in.UserID, "route", out.Route)
	return out.Text
}

// inboundMessage accepts both {"from","body"} and Twilio's From/Body; JSON
// keys match case-insensitively.
type inboundMessage struct {
	From string `json:"from"`
	Body string `json:"body"`
}

func parseInbound(contentType, body string) (usecase.Input, error) {
	if strings.TrimSpace(body) == "" {
		return usecase.Input{}, errors.New("handler: empty body")
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/x-www-form-urlencoded" {
		form, err := url.ParseQuery(body)
		if err != nil {
			return usecase.Input{}, fmt.Errorf("handler: parse form: %w", err)
		}
		return usecase.Input{
			UserID: firstNonEmpty(form.Get("from"), form.Get("From")),
			Text:   firstNonEmpty(form.Get("body"), form.Get("Body")),
		}, nil
	}

	var msg inboundMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return usecase.Input{}, fmt.Errorf("handler: parse json: %w", err)
	}
	return usecase.Input{UserID: msg.From, Text: msg.Body}, nil
}

func textResponse(corrID, text string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":    contentTypeText,
			correlationHeader: corrID,
		},
		Body: text,
	}
}

func correlationID(given string) string {
	if id := strings.TrimSpace(given); id != "" {
		return id
	}
	return newUUID()
}

var newUUID = func() string {
	return uuid.NewString()
}

// headerValue looks a header up ignoring case; API Gateway forwards header
// names as the client sent them.
func headerValue(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
