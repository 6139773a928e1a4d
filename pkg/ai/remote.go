package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single upstream scoring call.
const DefaultTimeout = 60 * time.Second

var (
	providerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "redaia",
		Subsystem: "ai",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of remote essay scoring calls",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60},
	}, []string{"provider", "model"})

	providerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "redaia",
		Subsystem: "ai",
		Name:      "evaluation_failures_total",
		Help:      "Number of failed remote essay scoring calls",
	}, []string{"provider", "reason"})
)

// completer sends one prompt upstream and returns the raw model text.
type completer func(ctx context.Context, prompt string) (string, error)

type remoteConfig struct {
	name    string
	model   string
	schema  Schema
	timeout time.Duration
	logger  zerolog.Logger
}

// RemoteProvider is the ScoreProvider shared by every LLM back end. The
// back end only supplies the transport; prompt construction, the timeout
// race, metrics and normalization live here.
type RemoteProvider struct {
	name    string
	model   string
	schema  Schema
	timeout time.Duration
	send    completer
	closer  func() error
	tracer  trace.Tracer
	logger  zerolog.Logger
}

func newRemoteProvider(cfg remoteConfig, send completer) *RemoteProvider {
	if cfg.timeout <= 0 {
		cfg.timeout = DefaultTimeout
	}

	return &RemoteProvider{
		name:    cfg.name,
		model:   cfg.model,
		schema:  cfg.schema,
		timeout: cfg.timeout,
		send:    send,
		tracer:  otel.Tracer("github.com/noah-isme/redaia-api/pkg/ai/" + cfg.name),
		logger:  cfg.logger.With().Str("component", "score_provider").Str("provider", cfg.name).Logger(),
	}
}

func (p *RemoteProvider) Name() string { return p.name }

// Model returns the upstream model identifier.
func (p *RemoteProvider) Model() string { return p.model }

func (p *RemoteProvider) IsConfigured() bool { return p.send != nil }

// Close releases the upstream client, if any.
func (p *RemoteProvider) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// Evaluate scores the essay upstream. Nothing is retried.
func (p *RemoteProvider) Evaluate(parent context.Context, content, themeTitle string) (EvaluationResult, error) {
	if !p.IsConfigured() {
		return EvaluationResult{}, &ProviderError{Provider: p.name, Message: "api key not set", Kind: ErrNotConfigured}
	}

	ctx, span := p.tracer.Start(parent, p.name+".evaluate", trace.WithAttributes(
		attribute.String("provider", p.name),
		attribute.String("model", p.model),
		attribute.String("schema", p.schema.String()),
	))
	defer span.End()

	start := time.Now()
	raw, err := p.call(ctx, BuildPrompt(p.schema, content, themeTitle))
	providerDuration.WithLabelValues(p.name, p.model).Observe(time.Since(start).Seconds())

	var result EvaluationResult
	if err == nil {
		result, err = Normalize(raw, p.schema)
	}
	if err != nil {
		providerFailures.WithLabelValues(p.name, FailureReason(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("remote scoring failed")
		return EvaluationResult{}, err
	}

	span.SetAttributes(attribute.Int("essay.total_score", result.TotalScore))
	p.logger.Info().Int("total_score", result.TotalScore).Dur("elapsed", time.Since(start)).Msg("essay scored")
	return result, nil
}

// call races the upstream request against the timeout. When the timer wins
// the request context is cancelled and its eventual result is discarded.
func (p *RemoteProvider) call(parent context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := p.send(ctx, prompt)
		done <- outcome{text: text, err: err}
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			if ctxErr := parent.Err(); ctxErr != nil {
				return "", p.contextError(ctxErr)
			}
			return "", out.err
		}
		if strings.TrimSpace(out.text) == "" {
			return "", &ProviderError{Provider: p.name, Kind: ErrEmptyResponse}
		}
		return out.text, nil
	case <-timer.C:
		return "", &ProviderError{Provider: p.name, Message: fmt.Sprintf("no response within %s", p.timeout), Kind: ErrTimeout}
	case <-parent.Done():
		return "", p.contextError(parent.Err())
	}
}

func (p *RemoteProvider) contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Provider: p.name, Message: "request deadline exceeded", Kind: ErrTimeout}
	}
	return fmt.Errorf("%s: %w", p.name, err)
}

// FailureReason maps a provider error to a short label.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	default:
		return "unknown"
	}
}
