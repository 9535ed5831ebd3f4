package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/lernbuddy/internal/logger"
	"github.com/abhisek/lernbuddy/internal/metrics"
)

const tracerName = "github.com/abhisek/lernbuddy/internal/llm"

// ResponseKind selects how a reply is post-processed.
type ResponseKind int

const (
	// KindText returns the reply verbatim.
	KindText ResponseKind = iota
	// KindJSON runs the reply through Repair against Call.Schema.
	KindJSON
)

// Call is one logical generation request. A call may span several
// attempts; each attempt is one provider round trip.
type Call struct {
	// Purpose labels events, spans and metrics, e.g. "exercises".
	Purpose string

	System string
	Prompt string

	Kind   ResponseKind
	Schema *Schema

	// Validate, when set, checks the repaired JSON of a KindJSON call. A
	// rejection fails the attempt the same way a repair failure does.
	Validate func(json.RawMessage) error

	// Timeout bounds each attempt. Zero uses the model's configured
	// timeout.
	Timeout time.Duration

	// MaxAttempts is the attempt budget. Zero uses the configured default.
	MaxAttempts int

	MaxTokens   int
	Temperature float64
}

// Result is a successful generation.
type Result struct {
	// Text is the raw reply of the successful attempt.
	Text string

	// JSON is the repaired object for KindJSON calls.
	JSON json.RawMessage

	// Stage is the repair stage that produced JSON.
	Stage RepairStage

	// Attempts is how many attempts were made, including the successful one.
	Attempts int

	Model string
	Usage Usage
}

// Client is the resilient front of a Provider. It owns the attempt budget,
// the per-attempt deadline, backoff between attempts and output repair.
// It keeps no state between calls and is safe for concurrent use.
type Client struct {
	provider Provider
	cfg      Config
	backoff  *Backoff
	log      *logger.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBackoff replaces the backoff policy built from the config.
func WithBackoff(b *Backoff) ClientOption {
	return func(c *Client) { c.backoff = b }
}

func WithLogger(l *logger.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

func WithTracer(t trace.Tracer) ClientOption {
	return func(c *Client) { c.tracer = t }
}

// NewClient wraps p. cfg supplies the attempt budget, timeouts and
// backoff; it is captured by value.
func NewClient(p Provider, cfg Config, opts ...ClientOption) *Client {
	c := &Client{
		provider: p,
		cfg:      cfg,
		backoff:  NewBackoff(cfg.Retry),
		log:      logger.Nop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ModelID reports the model behind the client.
func (c *Client) ModelID() string {
	return c.provider.ModelID()
}

// Generate runs call until one attempt succeeds or the budget is spent.
// Every failure mode, including cancellation of ctx, ends in
// *ErrGenerationFailure so callers have a single fallback branch.
func (c *Client) Generate(ctx context.Context, call Call) (res *Result, err error) {
	attempts := call.MaxAttempts
	if attempts <= 0 {
		attempts = c.cfg.Retry.MaxAttempts
	}
	if attempts <= 0 {
		attempts = 2
	}
	timeout := call.Timeout
	if timeout <= 0 {
		timeout = c.cfg.TimeoutFor(c.provider.ModelID())
	}
	if call.Kind == KindJSON && call.Schema == nil {
		return nil, &ErrGenerationFailure{Purpose: call.Purpose, Err: errors.New("json call without schema")}
	}

	ctx = WithPurpose(ctx, call.Purpose)
	ctx, span := c.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("llm.purpose", call.Purpose),
		attribute.String("llm.model", c.provider.ModelID()),
		attribute.Int("llm.max_attempts", attempts),
		attribute.Int64("llm.timeout_ms", timeout.Milliseconds()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(
				attribute.Int("llm.attempts", res.Attempts),
				attribute.String("llm.repair_stage", res.Stage.String()),
			)
		}
		span.End()
	}()

	req := Request{
		System:      call.System,
		Messages:    []Message{{Role: RoleUser, Content: call.Prompt}},
		JSONMode:    call.Kind == KindJSON,
		MaxTokens:   call.MaxTokens,
		Temperature: call.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		r, aerr := c.attempt(ctx, call, req, timeout)
		if aerr == nil {
			r.Attempts = attempt + 1
			return r, nil
		}
		lastErr = aerr

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &ErrGenerationFailure{Purpose: call.Purpose, Attempts: attempt + 1, Err: ctxErr}
		}

		c.log.Warn("generation attempt failed",
			"purpose", call.Purpose,
			"attempt", attempt+1,
			"max_attempts", attempts,
			"error", aerr,
		)

		if attempt == attempts-1 {
			break
		}
		if werr := c.backoff.Wait(ctx, attempt, aerr); werr != nil {
			return nil, &ErrGenerationFailure{Purpose: call.Purpose, Attempts: attempt + 1, Err: werr}
		}
	}

	return nil, &ErrGenerationFailure{Purpose: call.Purpose, Attempts: attempts, Err: lastErr}
}

type providerResult struct {
	resp *Response
	err  error
}

// attempt performs one round trip under a hard deadline. The deadline is
// enforced here as well as through the context, so a provider that ignores
// cancellation cannot stall the call.
func (c *Client) attempt(ctx context.Context, call Call, req Request, timeout time.Duration) (*Result, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan providerResult, 1)
	go func() {
		resp, err := c.provider.Generate(actx, req)
		done <- providerResult{resp: resp, err: err}
	}()

	var pr providerResult
	select {
	case pr = <-done:
	case <-actx.Done():
		pr = providerResult{err: actx.Err()}
	}
	elapsed := time.Since(start).Seconds()

	if pr.err != nil {
		if errors.Is(pr.err, context.DeadlineExceeded) && ctx.Err() == nil {
			c.metrics.ObserveAttempt(call.Purpose, "timeout", elapsed)
			return nil, &ErrAttemptTimeout{Timeout: timeout}
		}
		c.metrics.ObserveAttempt(call.Purpose, "error", elapsed)
		return nil, pr.err
	}
	if pr.resp == nil {
		c.metrics.ObserveAttempt(call.Purpose, "invalid", elapsed)
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("provider returned no response")}
	}

	res := &Result{
		Text:  pr.resp.Text,
		Model: pr.resp.Model,
		Usage: pr.resp.Usage,
	}

	if call.Kind == KindText {
		if strings.TrimSpace(res.Text) == "" {
			c.metrics.ObserveAttempt(call.Purpose, "invalid", elapsed)
			return nil, &ErrInvalidResponse{Err: fmt.Errorf("empty response")}
		}
		c.metrics.ObserveAttempt(call.Purpose, "ok", elapsed)
		return res, nil
	}

	raw, stage, err := Repair(res.Text, call.Schema)
	if err != nil {
		c.metrics.ObserveAttempt(call.Purpose, "invalid", elapsed)
		return nil, err
	}
	if call.Validate != nil {
		if verr := call.Validate(raw); verr != nil {
			c.metrics.ObserveAttempt(call.Purpose, "invalid", elapsed)
			return nil, &ErrInvalidResponse{Content: res.Text, Err: verr}
		}
	}
	if stage != StageStrict {
		c.log.Debug("repaired generation output", "purpose", call.Purpose, "stage", stage.String())
	}
	c.metrics.ObserveAttempt(call.Purpose, "ok", elapsed)

	res.JSON = raw
	res.Stage = stage
	return res, nil
}
