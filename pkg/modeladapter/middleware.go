package modeladapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// previewWidth is the display width of the prompt preview in log records.
const previewWidth = 60

// Middleware wraps a Generator, returning a new Generator with added behaviour.
type Middleware func(next Generator) Generator

// Chain composes multiple middleware into a single Middleware.
// The first middleware in the list is the outermost (runs first).
func Chain(mws ...Middleware) Middleware {
	return func(next Generator) Generator {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Apply wraps a generator with the given middleware. The first middleware
// in the list is the outermost (runs first).
func Apply(g Generator, mws ...Middleware) Generator {
	return Chain(mws...)(g)
}

// --- Timeout middleware ---

type timeoutGenerator struct {
	next    Generator
	timeout time.Duration
}

func (g *timeoutGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	return g.next.Generate(ctx, prompt)
}

// Timeout returns a Middleware that wraps each call's context with a deadline.
// A non-positive duration leaves the generator unwrapped.
func Timeout(d time.Duration) Middleware {
	return func(next Generator) Generator {
		if d <= 0 {
			return next
		}
		return &timeoutGenerator{next: next, timeout: d}
	}
}

// --- Logger middleware ---

type loggerGenerator struct {
	next  Generator
	log   *slog.Logger
	model string
}

func (g *loggerGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.log.InfoContext(ctx, "generate started",
		"model", g.model,
		"prompt_width", runewidth.StringWidth(prompt),
	)
	g.log.DebugContext(ctx, "prompt", "preview", Preview(prompt, previewWidth))

	start := time.Now()

	out, err := g.next.Generate(ctx, prompt)

	duration := time.Since(start)

	if err != nil {
		g.log.ErrorContext(ctx, "generate finished with error",
			"model", g.model,
			"duration", duration,
			"error", err,
		)
		return out, err
	}

	g.log.InfoContext(ctx, "generate finished",
		"model", g.model,
		"duration", duration,
		"response_width", runewidth.StringWidth(out),
	)

	return out, nil
}

// Logger returns a Middleware that logs call start, duration, and error.
// The model name is attached to every record.
func Logger(log *slog.Logger, model string) Middleware {
	return func(next Generator) Generator {
		return &loggerGenerator{next: next, log: log, model: model}
	}
}

// Preview collapses s onto a single line and truncates it to at most width
// display cells, appending "..." when truncated.
func Preview(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "...")
}
