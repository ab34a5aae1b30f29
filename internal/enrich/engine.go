// Package enrich turns raw announcement text into a structured analysis
// via an external model, with bounded retry and strict output validation.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pravaha/internal/announce"
	"pravaha/internal/platform/metrics"
)

// Analyzer is the structured-analysis capability. It takes a fully built
// prompt and returns the model's raw text response.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

// Result is a validated analysis.
type Result struct {
	Summary        string                  `json:"summary"`
	Sentiment      announce.Sentiment      `json:"sentiment"`
	Classification announce.Classification `json:"classification"`
	Reasoning      string                  `json:"reasoning"`
}

// CompanyContext grounds the prompt in directory data when available.
type CompanyContext struct {
	Name      string
	Industry  string
	MarketCap float64
}

// RetryPolicy bounds the analysis attempts. Backoff grows by Factor after
// every failed attempt, starting from InitialBackoff.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Factor         float64
}

// DefaultRetryPolicy matches the capability's rate limits: 5 attempts,
// 1s initial backoff, doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Second, Factor: 2}
}

// Engine drives one enrichment: prompt build, bounded retry, validation.
type Engine struct {
	analyzer Analyzer
	policy   RetryPolicy
	logger   *slog.Logger
	metrics  *metrics.Metrics
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// withSleep replaces the backoff sleeper in tests.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) {
		e.sleep = sleep
	}
}

// New creates an enrichment Engine.
func New(analyzer Analyzer, opts ...Option) (*Engine, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	e := &Engine{
		analyzer: analyzer,
		policy:   DefaultRetryPolicy(),
		logger:   slog.Default(),
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Enrich analyzes the announcement text. companyCtx may be nil; it only
// improves grounding and never gates the call. After the retry budget is
// exhausted the last failure is returned; the caller skips the item.
func (e *Engine) Enrich(ctx context.Context, text string, companyCtx *CompanyContext) (Result, error) {
	prompt := buildPrompt(text, companyCtx)

	backoff := e.policy.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if e.metrics != nil {
			e.metrics.EnrichAttempts.Inc()
		}

		result, err := e.analyzeOnce(ctx, prompt)
		if err == nil {
			return result, nil
		}
		lastErr = err
		e.logger.Warn("analysis attempt failed",
			"attempt", attempt, "max_attempts", e.policy.MaxAttempts, "error", err)

		if attempt == e.policy.MaxAttempts {
			break
		}
		if err := e.sleep(ctx, backoff); err != nil {
			return Result{}, err
		}
		backoff = time.Duration(float64(backoff) * e.policy.Factor)
	}

	if e.metrics != nil {
		e.metrics.EnrichFailures.Inc()
	}
	return Result{}, fmt.Errorf("enrichment exhausted %d attempts: %w", e.policy.MaxAttempts, lastErr)
}

func (e *Engine) analyzeOnce(ctx context.Context, prompt string) (Result, error) {
	raw, err := e.analyzer.Analyze(ctx, prompt)
	if err != nil {
		return Result{}, err
	}
	return parseResult(raw)
}

// parseResult decodes and validates the model output. Models wrap JSON in
// markdown fences more often than not, so those are stripped first.
func parseResult(raw string) (Result, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return Result{}, fmt.Errorf("empty analysis response")
	}

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return Result{}, fmt.Errorf("analysis response is not valid JSON: %w", err)
	}

	if result.Summary == "" {
		return Result{}, fmt.Errorf("analysis response missing summary")
	}
	if !result.Sentiment.Valid() {
		return Result{}, fmt.Errorf("sentiment %q outside domain", result.Sentiment)
	}
	if !result.Classification.Valid() {
		return Result{}, fmt.Errorf("classification %q outside domain", result.Classification)
	}
	return result, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func buildPrompt(text string, companyCtx *CompanyContext) string {
	var b strings.Builder
	b.WriteString(`You are an expert financial analyst for the Indian stock market. Analyze the following corporate announcement text and respond with a structured JSON object.

Instructions:
1. Read the entire text carefully to understand the core message.
2. Do not hallucinate or add information not present in the text.
3. The output MUST be a valid JSON object following the schema below.

JSON schema to follow:
{
  "summary": "A concise, one-sentence summary of the announcement's main point.",
  "sentiment": "Classify the sentiment as 'Positive', 'Negative', or 'Neutral'.",
  "classification": "Classify the practical market implication as 'Potential Upside', 'Potential Downside', or 'Neutral'.",
  "reasoning": "A brief explanation (1-2 sentences) of why you chose the sentiment and classification, citing key details from the text."
}
`)

	if companyCtx != nil {
		b.WriteString("\nCompany context:\n")
		fmt.Fprintf(&b, "- Name: %s\n", companyCtx.Name)
		if companyCtx.Industry != "" {
			fmt.Fprintf(&b, "- Industry: %s\n", companyCtx.Industry)
		}
		if companyCtx.MarketCap > 0 {
			fmt.Fprintf(&b, "- Market capitalization: %.2f\n", companyCtx.MarketCap)
		}
	}

	b.WriteString("\nAnnouncement text to analyze:\n---\n")
	b.WriteString(text)
	b.WriteString("\n---\n")
	return b.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
