package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/germanamz/ollamagen/pkg/modeladapter/usage"
)

// askPrompt shows a multi-line input form and returns what the user typed.
func askPrompt() (string, error) {
	var prompt string

	if err := huh.NewForm(huh.NewGroup(
		huh.NewText().
			Title("Prompt").
			Description("Sent to the model as-is. Submit with enter, new line with alt+enter.").
			Value(&prompt),
	)).Run(); err != nil {
		return "", err
	}

	return prompt, nil
}

// renderMarkdown converts markdown text to terminal-formatted output using
// glamour. Falls back to plain text if the renderer is unavailable.
func renderMarkdown(text string, width int) string {
	if width <= 0 {
		width = 100
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}

	out, err := r.Render(text)
	if err != nil {
		return text
	}

	return strings.TrimRight(out, "\n")
}

// fmtTokens formats a token count for display, using k/M suffixes for
// readability.
func fmtTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

func fmtUsage(model string, c usage.Count) string {
	return fmt.Sprintf("%s · prompt %s · response %s · %s",
		model, fmtTokens(c.PromptTokens), fmtTokens(c.ResponseTokens), c.Duration.Round(time.Millisecond))
}

// fmtTotals summarizes every call served in one session.
func fmtTotals(model string, calls int, c usage.Count) string {
	noun := "calls"
	if calls == 1 {
		noun = "call"
	}

	return fmt.Sprintf("%s · %d %s · prompt %s · response %s · %s",
		model, calls, noun, fmtTokens(c.PromptTokens), fmtTokens(c.ResponseTokens), c.Duration.Round(time.Millisecond))
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("error: "+err.Error()))
}
