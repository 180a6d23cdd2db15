package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minios-linux/xckit/langname"
)

// ---------------------------------------------------------------------------
// Provider contract
// ---------------------------------------------------------------------------

// Request is one string translation request.
type Request struct {
	// Text is the source text to translate.
	Text string
	// SourceLanguage and TargetLanguage are locale identifiers (en, fr-CA).
	SourceLanguage string
	TargetLanguage string
	// Comment is optional translator guidance passed verbatim to the model.
	Comment string
}

// Provider translates a single string. Implementations must be safe for
// concurrent use; the worker pool invokes them from many tasks at once.
type Provider interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// Quality is an evaluator verdict.
type Quality string

const (
	QualityGood Quality = "good"
	QualityPoor Quality = "poor"
)

// Evaluation is the outcome of a quality check on one stored translation.
type Evaluation struct {
	Quality     Quality
	Explanation string
}

// EvaluationRequest asks whether a stored translation is acceptable.
type EvaluationRequest struct {
	Source      string
	Translation string
	Language    string
	Comment     string
}

// QualityEvaluator is the optional second capability of a provider. Review
// commands fail fast when the configured provider does not implement it.
type QualityEvaluator interface {
	EvaluateQuality(ctx context.Context, req EvaluationRequest) (Evaluation, error)
}

// ErrNoTranslationReturned is returned when the provider answers with an
// empty translation.
var ErrNoTranslationReturned = errors.New("no translation returned")

// ErrEvaluationNotSupported is returned by review operations when the
// provider lacks the quality-evaluation capability.
var ErrEvaluationNotSupported = errors.New("evaluation is not supported by this provider")

// ---------------------------------------------------------------------------
// Rate limit state (global pause shared by parallel workers)
// ---------------------------------------------------------------------------

type rateLimitState struct {
	mu       sync.Mutex
	paused   int32 // atomic: 1 = paused
	pauseEnd time.Time
}

func (r *rateLimitState) isPaused() bool {
	return atomic.LoadInt32(&r.paused) == 1
}

func (r *rateLimitState) pause(duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauseEnd = time.Now().Add(duration)
	atomic.StoreInt32(&r.paused, 1)
}

func (r *rateLimitState) unpause() {
	atomic.StoreInt32(&r.paused, 0)
}

// waitIfPaused blocks until the rate limit pause is over.
func (r *rateLimitState) waitIfPaused(ctx context.Context) error {
	for r.isPaused() {
		r.mu.Lock()
		remaining := time.Until(r.pauseEnd)
		r.mu.Unlock()
		if remaining <= 0 {
			r.unpause()
			return nil
		}
		if remaining > 100*time.Millisecond {
			remaining = 100 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(remaining):
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// System prompts
// ---------------------------------------------------------------------------

const translateSystemPrompt = `You are a professional translator specializing in software and product localization. You are translating UI strings for an application.

CONTEXT AWARENESS:
- The audience is software users
- Tone: professional yet approachable, clear and concise
- Use IT/software terminology that is standard in {{targetLang}}

IMPORTANT TRANSLATION PRINCIPLES:
- Translate for NATURALNESS and FLUENCY in {{targetLang}}, not word-for-word
- Use idiomatic expressions natural to {{targetLang}}, not literal translations
- Maintain the original tone and intent

TECHNICAL REQUIREMENTS:
- Preserve all format specifiers exactly as-is (%@, %d, %lld, %1$@, etc.).
- Preserve {placeholder} tokens, leading/trailing whitespace, and newlines.
- Keep brand names and proper nouns unchanged.
- Return ONLY the translated text, no explanations, quotes, or markdown.`

const evaluateSystemPrompt = `You are a professional localization reviewer. You judge whether a translation of a UI string into {{targetLang}} is acceptable.

A translation is acceptable when it is fluent, faithful to the source, and preserves all format specifiers and placeholders. It is poor when it is literal to the point of awkwardness, mistranslates the source, or breaks technical tokens.

Respond with ONLY a JSON object of the form:
{"quality": "good", "explanation": "..."}
where quality is "good" or "poor" and explanation is one short sentence.
Return ONLY the JSON object, no markdown code blocks.`

// ---------------------------------------------------------------------------
// OpenAI-compatible chat-completions provider
// ---------------------------------------------------------------------------

// DefaultBaseURL is the OpenAI API endpoint used when none is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultModel is the model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// ProviderConfig configures the HTTP chat-completions provider.
type ProviderConfig struct {
	// BaseURL is the API base URL (default DefaultBaseURL). Any
	// OpenAI-compatible endpoint works.
	BaseURL string
	// APIKey is the bearer token (empty for local servers).
	APIKey string
	// Model is the model identifier (default DefaultModel).
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the per-request timeout (default 120s).
	Timeout time.Duration
	// Verbose enables request logging through Log.
	Verbose bool
	// Log receives verbose diagnostics; nil discards them.
	Log func(format string, args ...any)
}

// ChatProvider talks to an OpenAI-compatible chat-completions endpoint. It
// implements both Provider and QualityEvaluator and is safe for concurrent
// use; a 429 response pauses all workers until the advertised delay passes.
type ChatProvider struct {
	cfg    ProviderConfig
	client *http.Client
	rl     rateLimitState
}

// NewChatProvider builds a provider from config, applying defaults.
func NewChatProvider(cfg ProviderConfig) *ChatProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &ChatProvider{
		cfg:    cfg,
		client: makeHTTPClient(cfg.Proxy, cfg.Timeout),
	}
}

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Support both the --proxy flag and HTTP_PROXY/HTTPS_PROXY env vars.
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Translate sends one string to the chat endpoint and returns the model's
// translation.
func (p *ChatProvider) Translate(ctx context.Context, req Request) (string, error) {
	systemPrompt := strings.ReplaceAll(translateSystemPrompt, "{{targetLang}}", langname.English(req.TargetLanguage))

	var user strings.Builder
	fmt.Fprintf(&user, "Translate from %s to %s.\n", langname.English(req.SourceLanguage), langname.English(req.TargetLanguage))
	if req.Comment != "" {
		fmt.Fprintf(&user, "Context: %s\n", req.Comment)
	}
	user.WriteString("\n")
	user.WriteString(req.Text)

	text, err := p.call(ctx, systemPrompt, user.String())
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrNoTranslationReturned
	}
	return text, nil
}

// EvaluateQuality asks the model to judge a stored translation.
func (p *ChatProvider) EvaluateQuality(ctx context.Context, req EvaluationRequest) (Evaluation, error) {
	systemPrompt := strings.ReplaceAll(evaluateSystemPrompt, "{{targetLang}}", langname.English(req.Language))

	var user strings.Builder
	fmt.Fprintf(&user, "Source: %s\n", req.Source)
	fmt.Fprintf(&user, "Translation (%s): %s\n", req.Language, req.Translation)
	if req.Comment != "" {
		fmt.Fprintf(&user, "Context: %s\n", req.Comment)
	}

	text, err := p.call(ctx, systemPrompt, user.String())
	if err != nil {
		return Evaluation{}, err
	}
	return parseEvaluation(text)
}

func (p *ChatProvider) verbose(format string, args ...any) {
	if p.cfg.Verbose && p.cfg.Log != nil {
		p.cfg.Log(format, args...)
	}
}

// call performs one chat-completions request. A 429 pauses every worker for
// the server-advertised delay and retries the request once; other failures
// surface immediately and are handled by the caller's retry policy.
func (p *ChatProvider) call(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := buildChatRequest(p.cfg.Model, systemPrompt, userPrompt, 0.3)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/chat/completions"

	for attempt := 0; ; attempt++ {
		if err := p.rl.waitIfPaused(ctx); err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
		}

		p.verbose("POST %s (attempt %d)", endpoint, attempt+1)

		resp, err := p.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("API request failed: %w", err)
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests && attempt == 0 {
			delay := parseRetryDelay(resp.Header, respBody)
			p.verbose("429 rate limited, pausing %v", delay)
			p.rl.pause(delay)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			p.rl.unpause()
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
		}

		return extractChatText(respBody)
	}
}

func buildChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		Stream:      false,
	}
	return json.Marshal(req)
}

// extractChatText pulls choices[0].message.content out of a response.
func extractChatText(body []byte) (string, error) {
	var raw struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}
	if raw.Error != nil {
		return "", fmt.Errorf("API error: %s", raw.Error.Message)
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("response has no choices: %s", truncate(string(body), 300))
	}
	return strings.TrimSpace(raw.Choices[0].Message.Content), nil
}

// parseRetryDelay extracts the wait from a 429 response: the Retry-After
// header when present, then the delay some endpoints spell only inside the
// error message ("Please try again in 20s"), otherwise 60s plus a buffer.
func parseRetryDelay(header http.Header, body []byte) time.Duration {
	const defaultDelay = 65 * time.Second

	if v := header.Get("Retry-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		if m := retryAfterInMessage.FindStringSubmatch(errResp.Error.Message); len(m) > 1 {
			if secs, err := strconv.ParseFloat(m[1], 64); err == nil && secs > 0 {
				return time.Duration(secs*float64(time.Second)) + time.Second
			}
		}
	}

	return defaultDelay
}

var retryAfterInMessage = regexp.MustCompile(`try again in ([0-9.]+)s`)

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parseEvaluation parses the model's JSON verdict, tolerating markdown
// fences and surrounding prose.
func parseEvaluation(content string) (Evaluation, error) {
	content = strings.TrimSpace(content)
	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}
	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		content = content[start : end+1]
	}

	var raw struct {
		Quality     string `json:"quality"`
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Evaluation{}, fmt.Errorf("failed to parse evaluation response: %w\nResponse: %s", err, truncate(content, 300))
	}

	switch strings.ToLower(raw.Quality) {
	case "good":
		return Evaluation{Quality: QualityGood, Explanation: raw.Explanation}, nil
	case "poor":
		return Evaluation{Quality: QualityPoor, Explanation: raw.Explanation}, nil
	default:
		return Evaluation{}, fmt.Errorf("evaluation verdict %q is neither good nor poor", raw.Quality)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
