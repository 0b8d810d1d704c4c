// Package comment produces the coaching text attached to focus point
// feedback. A deterministic template generator is always available; an
// optional outer generator can be layered on top with retry, rate
// limiting and template fallback.
package comment

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/driveloop/drivescore-backend-go/internal/metrics"
	"github.com/driveloop/drivescore-backend-go/internal/models"
)

// ShortCommentMaxRunes caps the card-sized summary of a full comment.
const ShortCommentMaxRunes = 150

// Context carries everything a generator may use besides the windowed
// stats themselves.
type Context struct {
	FocusLabel string
	Rating     string
	DiffText   string
	Diff       *models.DiffStats
	History    []models.HistoricalFeedback
	Raw        []models.MotionSample
}

// Generator produces a coaching comment for one evaluated focus point.
type Generator interface {
	Generate(ctx context.Context, stats models.DetailedStats, c Context) (string, error)
}

// TemplateGenerator builds a comment from fixed phrasing. It never
// fails, which makes it usable as the fallback of a flakier generator.
type TemplateGenerator struct{}

// Generate assembles rating, trend and key figures into two or three
// sentences.
func (TemplateGenerator) Generate(_ context.Context, stats models.DetailedStats, c Context) (string, error) {
	var b strings.Builder

	label := c.FocusLabel
	if label == "" {
		label = "this focus point"
	}

	switch c.Rating {
	case models.RatingVeryGood:
		fmt.Fprintf(&b, "Excellent handling at %s.", label)
	case models.RatingGood:
		fmt.Fprintf(&b, "Good handling at %s.", label)
	case models.RatingAverage:
		fmt.Fprintf(&b, "Handling at %s was acceptable but uneven.", label)
	case models.RatingPoor:
		fmt.Fprintf(&b, "Handling at %s needs attention.", label)
	default:
		fmt.Fprintf(&b, "Not enough data to judge %s this time.", label)
	}

	if stats.DataPoints > 0 {
		fmt.Fprintf(&b, " Average speed was %.1f km/h with longitudinal sway of %.3f g and lateral sway of %.3f g.",
			stats.AvgSpeed, stats.StdGZ, stats.StdGX)
	}

	if c.DiffText != "" {
		b.WriteString(" ")
		b.WriteString(c.DiffText)
	}

	return b.String(), nil
}

// Resilient wraps a generator with retries, rate limiting and a
// template fallback, so evaluation never fails on comment generation.
type Resilient struct {
	Inner    Generator
	Fallback Generator
	Limiter  *rate.Limiter
	Retries  int
}

// NewResilient wraps inner with a template fallback and the given
// request rate. A nil limiter disables rate limiting.
func NewResilient(inner Generator, limiter *rate.Limiter, retries int) *Resilient {
	if retries < 0 {
		retries = 0
	}
	return &Resilient{Inner: inner, Fallback: TemplateGenerator{}, Limiter: limiter, Retries: retries}
}

// Generate tries the inner generator up to Retries+1 times, waiting on
// the rate limiter before each attempt, and falls back to the template
// generator when every attempt fails. Fallbacks are counted, not
// surfaced as errors.
func (r *Resilient) Generate(ctx context.Context, stats models.DetailedStats, c Context) (string, error) {
	if r.Inner != nil {
		for attempt := 0; attempt <= r.Retries; attempt++ {
			if r.Limiter != nil {
				if err := r.Limiter.Wait(ctx); err != nil {
					break
				}
			}
			text, err := r.Inner.Generate(ctx, stats, c)
			if err == nil && strings.TrimSpace(text) != "" {
				return text, nil
			}
		}
	}

	metrics.CommentFallbacks.Inc()
	fallback := r.Fallback
	if fallback == nil {
		fallback = TemplateGenerator{}
	}
	return fallback.Generate(ctx, stats, c)
}

// Summarize shortens a comment to at most maxRunes runes, appending an
// ellipsis when it had to cut. Safe on multi-byte text.
func Summarize(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
