// Package judge turns split photos into a score and commentary. External
// judge failures never escape this package: Scorer falls back to a fixed
// verdict instead.
package judge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"splitboard/internal/models"
	"splitboard/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// FallbackScore is returned whenever the judge cannot produce a usable verdict.
	FallbackScore = 5.0
	// FallbackCommentary accompanies FallbackScore.
	FallbackCommentary = "Our AI judge is on a pint break! Try again in a moment."

	// DefaultTimeout bounds a single judge round trip.
	DefaultTimeout = 30 * time.Second

	MinScore = 1.0
	MaxScore = 10.0
)

// Prompt is sent alongside every image.
const Prompt = `You are a witty Irish bartender judging a "split the G" attempt on a pint of Guinness.

The goal is to drink so the line between the black stout and the creamy head sits exactly on the horizontal bar of the "G" in the Guinness logo on the glass.

Rate the attempt from 1 to 10 based on:
- How precisely the line sits on the middle of the "G"
- The quality of the head and the pour
- Overall presentation

Reply with ONLY a JSON object, no other text:
{"rating": <number from 1 to 10>, "feedback": "<one or two sentences of playful, Irish-flavoured feedback>"}`

// Fallback returns the fixed verdict used when judging fails.
func Fallback() models.Judgment {
	return models.Judgment{Score: FallbackScore, Commentary: FallbackCommentary}
}

// Client sends an image and instructions to an external judge and returns its
// raw text reply.
type Client interface {
	Judge(ctx context.Context, image []byte, mediaType, prompt string) (string, error)
}

// Scorer wraps a Client with reply parsing, validation, a hard timeout and
// the fallback verdict.
type Scorer struct {
	client  Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewScorer builds a Scorer. A nil client makes every call return the fallback.
func NewScorer(client Client, timeout time.Duration, logger *slog.Logger) *Scorer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{client: client, timeout: timeout, logger: logger}
}

// Score judges image. It always returns a verdict with a score in [1, 10]
// and non-empty commentary.
func (s *Scorer) Score(ctx context.Context, image []byte, mediaType string) models.Judgment {
	span, ctx := observability.NewSpan(ctx, "judge.score", observability.WithSpanKind(observability.SpanKindClient))
	defer span.End()

	verdict, outcome, err := s.score(ctx, image, mediaType)
	observability.JudgeResults.WithLabelValues(outcome).Inc()
	span.AddAttributes(attribute.String("judge.outcome", outcome))
	if err != nil {
		span.SetError(err)
		s.logger.WarnContext(ctx, "judge failed, using fallback verdict",
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)
		return Fallback()
	}
	return verdict
}

func (s *Scorer) score(ctx context.Context, image []byte, mediaType string) (models.Judgment, string, error) {
	if s.client == nil {
		return models.Judgment{}, "unconfigured", errors.New("no judge client configured")
	}
	if len(image) == 0 {
		return models.Judgment{}, "empty_image", errors.New("empty image")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.client.Judge(callCtx, image, mediaType, Prompt)
	observability.JudgeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return models.Judgment{}, "timeout", err
		}
		return models.Judgment{}, "unavailable", err
	}

	verdict, err := ParseVerdict(reply)
	if err != nil {
		return models.Judgment{}, "invalid_reply", err
	}
	return verdict, "ok", nil
}
