package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"truelive-router/internal/domain"
	"truelive-router/internal/transcript"
)

const (
	defaultModel       = "gpt-3.5-turbo"
	defaultMaxTokens   = 150
	defaultCallTimeout = 10 * time.Second
)

// Route names the rule that produced a reply.
type Route string

const (
	RouteWelcome        Route = "welcome"
	RouteNews           Route = "news"
	RouteKnowledge      Route = "knowledge"
	RouteTrustedPointer Route = "trusted_pointer"
	RouteOpenPointer    Route = "open_pointer"
	RouteAssistant      Route = "assistant"
)

type TranscriptStore interface {
	Load(ctx context.Context, userID string) (domain.Transcript, error)
	Save(ctx context.Context, userID string, t domain.Transcript) error
}

// NewsSearcher returns a single article, or nil when the provider found none.
type NewsSearcher interface {
	Latest(ctx context.Context, q domain.NewsQuery) (*domain.Article, error)
	Relevant(ctx context.Context, q domain.NewsQuery) (*domain.Article, error)
}

type LLMClient interface {
	Chat(ctx context.Context, model string, maxTokens int, messages []domain.ChatMessage) (string, error)
}

type LanguageDetector interface {
	Detect(text string) string
}

type FactMatcher interface {
	Match(text string) (domain.Fact, bool)
}

// Recorder receives routing and failure counts.
type Recorder interface {
	RouteSelected(route string)
	ProviderFailed(provider string)
	StoreFailed(op string)
}

type nopRecorder struct{}

func (nopRecorder) RouteSelected(string)  {}
func (nopRecorder) ProviderFailed(string) {}
func (nopRecorder) StoreFailed(string)    {}

// Dependencies are the collaborators a Router is built from. Metrics and
// Logger are optional.
type Dependencies struct {
	Store          TranscriptStore
	News           NewsSearcher
	LLM            LLMClient
	Detector       LanguageDetector
	Facts          FactMatcher
	Classifier     *Classifier
	TrustedDomains []string
	Metrics        Recorder
	Logger         *slog.Logger
}

// Settings tune the assistant and the external call budget.
type Settings struct {
	Model       string
	MaxTokens   int
	Persona     string
	CallTimeout time.Duration
}

// Router classifies one inbound message, applies exactly one response rule and
// persists the updated transcript.
type Router struct {
	store      TranscriptStore
	news       NewsSearcher
	llm        LLMClient
	detector   LanguageDetector
	facts      FactMatcher
	classifier *Classifier
	trusted    []string
	metrics    Recorder
	log        *slog.Logger
	settings   Settings
	now        func() time.Time
}

type Input struct {
	UserID string
	Text   string
}

type Reply struct {
	Text  string
	Route Route
}

func NewRouter(deps Dependencies, settings Settings) (*Router, error) {
	if deps.Store == nil {
		return nil, errors.New("usecase: transcript store must not be nil")
	}
	if deps.News == nil {
		return nil, errors.New("usecase: news searcher must not be nil")
	}
	if deps.LLM == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if deps.Detector == nil {
		return nil, errors.New("usecase: language detector must not be nil")
	}
	if deps.Facts == nil {
		return nil, errors.New("usecase: fact matcher must not be nil")
	}
	if deps.Classifier == nil {
		return nil, errors.New("usecase: classifier must not be nil")
	}
	if len(deps.TrustedDomains) == 0 {
		return nil, errors.New("usecase: trusted domains must not be empty")
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if strings.TrimSpace(settings.Model) == "" {
		settings.Model = defaultModel
	}
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = defaultMaxTokens
	}
	if strings.TrimSpace(settings.Persona) == "" {
		settings.Persona = DefaultPersona
	}
	if settings.CallTimeout <= 0 {
		settings.CallTimeout = defaultCallTimeout
	}
	return &Router{
		store:      deps.Store,
		news:       deps.News,
		llm:        deps.LLM,
		detector:   deps.Detector,
		facts:      deps.Facts,
		classifier: deps.Classifier,
		trusted:    append([]string(nil), deps.TrustedDomains...),
		metrics:    deps.Metrics,
		log:        deps.Logger,
		settings:   settings,
		now:        time.Now,
	}, nil
}

// request is the per-message state shared by the rules.
type request struct {
	userID     string
	text       string
	now        time.Time
	transcript domain.Transcript
	class      Classification
	fact       domain.Fact
}

// outcome is a rule's reply plus an optional system turn persisted before it.
type outcome struct {
	reply  string
	system *domain.Turn
}

// rule pairs a predicate with the action it selects.
type rule struct {
	route   Route
	applies func(r *Router, req *request) bool
	respond func(r *Router, ctx context.Context, req *request) outcome
}

// rules are evaluated top to bottom; the first applicable one wins.
var rules = []rule{
	{route: RouteWelcome, applies: isFirstContact, respond: (*Router).welcome},
	{route: RouteNews, applies: isNewsRequest, respond: (*Router).latestNews},
	{route: RouteKnowledge, applies: (*Router).matchesFact, respond: (*Router).knowledgeAnswer},
	{route: RouteTrustedPointer, applies: isSensitiveAndRecent, respond: (*Router).trustedPointer},
	{route: RouteOpenPointer, applies: isRecentOnly, respond: (*Router).openPointer},
	{route: RouteAssistant, applies: always, respond: (*Router).assistant},
}

func isFirstContact(_ *Router, req *request) bool {
	return req.transcript.Len() == 1
}

func isNewsRequest(_ *Router, req *request) bool {
	return req.class.News
}

func isSensitiveAndRecent(_ *Router, req *request) bool {
	return req.class.Sensitive && req.class.Recent
}

func isRecentOnly(_ *Router, req *request) bool {
	return !req.class.Sensitive && req.class.Recent
}

func always(*Router, *request) bool {
	return true
}

func (r *Router) matchesFact(req *request) bool {
	if !req.class.Sensitive {
		return false
	}
	f, ok := r.facts.Match(req.text)
	if ok {
		req.fact = f
	}
	return ok
}

// Respond produces the reply for one inbound message. It returns an error only
// for malformed input or an unreadable transcript; every other failure is
// mapped to a fixed reply.
func (r *Router) Respond(ctx context.Context, in Input) (Reply, error) {
	userID := strings.TrimSpace(in.UserID)
	text := strings.TrimSpace(in.Text)
	if userID == "" {
		return Reply{}, newError(ErrorInvalidInput, "missing_user_id", nil)
	}
	if text == "" {
		return Reply{}, newError(ErrorInvalidInput, "missing_message", nil)
	}

	now := r.now()
	loaded, err := r.load(ctx, userID)
	if err != nil {
		r.metrics.StoreFailed("load")
		return Reply{}, newError(ErrorInternal, "transcript_load_error", err)
	}

	req := &request{
		userID:     userID,
		text:       text,
		now:        now,
		transcript: transcript.Filter(loaded, now).Append(domain.NewTurn(domain.RoleUser, text, now)),
		class:      r.classifier.Classify(text, now),
	}

	for _, rl := range rules {
		if !rl.applies(r, req) {
			continue
		}
		out := rl.respond(r, ctx, req)
		r.metrics.RouteSelected(string(rl.route))
		r.log.InfoContext(ctx, "message routed", "user", userID, "route", rl.route,
			"sensitive", req.class.Sensitive, "recent", req.class.Recent)

		var turns []domain.Turn
		if out.system != nil {
			turns = append(turns, *out.system)
		}
		turns = append(turns, domain.NewTurn(domain.RoleAssistant, out.reply, r.now()))
		r.persist(ctx, userID, req.transcript.Append(turns...))
		return Reply{Text: out.reply, Route: rl.route}, nil
	}
	// always matches last; unreachable.
	return Reply{Text: FallbackReply, Route: RouteAssistant}, nil
}

func (r *Router) load(ctx context.Context, userID string) (domain.Transcript, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.settings.CallTimeout)
	defer cancel()
	return r.store.Load(callCtx, userID)
}

// persist saves t; failures are logged and counted, never returned.
func (r *Router) persist(ctx context.Context, userID string, t domain.Transcript) {
	callCtx, cancel := context.WithTimeout(ctx, r.settings.CallTimeout)
	defer cancel()
	if err := r.store.Save(callCtx, userID, t); err != nil {
		r.metrics.StoreFailed("save")
		r.log.ErrorContext(ctx, "failed to save transcript", "user", userID, "err", err)
	}
}

func (r *Router) welcome(_ context.Context, _ *request) outcome {
	return outcome{reply: WelcomeReply}
}

func (r *Router) latestNews(ctx context.Context, req *request) outcome {
	q := domain.NewsQuery{Text: req.class.NewsTopic}
	if req.class.Sensitive {
		q.Domains = r.trusted
	}
	callCtx, cancel := context.WithTimeout(ctx, r.settings.CallTimeout)
	defer cancel()
	a, err := r.news.Latest(callCtx, q)
	if err != nil {
		r.metrics.ProviderFailed("news")
		r.log.ErrorContext(ctx, "latest news lookup failed", "user", req.userID, "topic", q.Text, "err", err)
		return outcome{reply: NewsFailedReply}
	}
	if a == nil {
		return outcome{reply: NoRecentNewsReply}
	}
	return outcome{reply: formatLatestNews(req.class.NewsTopic, *a)}
}

func (r *Router) knowledgeAnswer(_ context.Context, req *request) outcome {
	return outcome{reply: formatFact(req.fact)}
}

func (r *Router) trustedPointer(ctx context.Context, req *request) outcome {
	return r.pointer(ctx, req, r.trusted, NoTrustedResultReply)
}

func (r *Router) openPointer(ctx context.Context, req *request) outcome {
	return r.pointer(ctx, req, nil, NoRelevantResultReply)
}

func (r *Router) pointer(ctx context.Context, req *request, domains []string, empty string) outcome {
	callCtx, cancel := context.WithTimeout(ctx, r.settings.CallTimeout)
	defer cancel()
	a, err := r.news.Relevant(callCtx, domain.NewsQuery{Text: req.text, Domains: domains})
	if err != nil {
		r.metrics.ProviderFailed("news")
		r.log.ErrorContext(ctx, "relevant news lookup failed", "user", req.userID, "err", err)
		return outcome{reply: NewsFailedReply}
	}
	if a == nil {
		return outcome{reply: empty}
	}
	return outcome{reply: formatPointer(*a)}
}

func (r *Router) assistant(ctx context.Context, req *request) outcome {
	lang := r.detector.Detect(req.text)
	system := domain.NewTurn(domain.RoleSystem, buildSystemInstruction(instructionContext{
		persona:   r.settings.Persona,
		language:  lang,
		sensitive: req.class.Sensitive,
	}), req.now)

	callCtx, cancel := context.WithTimeout(ctx, r.settings.CallTimeout)
	defer cancel()
	raw, err := r.llm.Chat(callCtx, r.settings.Model, r.settings.MaxTokens, req.transcript.Append(system).ChatMessages())
	if err == nil && strings.TrimSpace(raw) == "" {
		err = errors.New("usecase: empty completion")
	}
	if err != nil {
		r.metrics.ProviderFailed("openai")
		r.log.ErrorContext(ctx, "completion failed", "user", req.userID, "lang", lang, "err", err)
		return outcome{reply: AssistantFailedReply}
	}
	return outcome{reply: strings.TrimSpace(raw), system: &system}
}
