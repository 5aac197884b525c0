package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/germanamz/ollamagen/pkg/config"
	"github.com/germanamz/ollamagen/pkg/modeladapter"
	"github.com/germanamz/ollamagen/pkg/tools/mcpserver"
	"github.com/germanamz/ollamagen/pkg/tools/toolbox"
)

// options holds the command-line flags. The output flags exist only on the
// root command.
type options struct {
	configPath string
	envFile    string
	host       string
	model      string
	timeout    string
	deadline   time.Duration
	verbose    bool

	render bool
	width  int
}

// register adds the flags shared by the root command and mcp.
func (o *options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "path to configuration file (default: "+config.DefaultPath+" if present)")
	fs.StringVar(&o.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.StringVar(&o.host, "host", "", "Ollama base URL (overrides config and OLLAMA_HOST)")
	fs.StringVar(&o.model, "model", "", "model name (overrides config and OLLAMA_MODEL)")
	fs.StringVar(&o.timeout, "timeout", "", "HTTP client timeout, e.g. 30s; 0 disables it")
	fs.DurationVar(&o.deadline, "deadline", 0, "deadline for each generate call, e.g. 2m; 0 means none")
	fs.BoolVar(&o.verbose, "verbose", false, "log requests and print usage to stderr")
}

// registerOutput adds the flags that shape printed responses.
func (o *options) registerOutput(fs *flag.FlagSet) {
	fs.BoolVar(&o.render, "render", false, "render the response as markdown")
	fs.IntVar(&o.width, "width", 100, "word wrap width used with -render")
}

// input describes where the prompt comes from.
type input struct {
	args        []string
	stdin       io.Reader
	interactive bool
	ask         func() (string, error)
}

// loadConfig resolves configuration in increasing precedence:
// defaults, config file, environment, flags.
func loadConfig(o options) (config.Config, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(config.ResolvePath(o.configPath))
	if err != nil {
		return config.Config{}, err
	}

	cfg.ApplyEnv()

	if o.host != "" {
		cfg.BaseURL = o.host
	}
	if o.model != "" {
		cfg.Model = o.model
	}
	if o.timeout != "" {
		cfg.Timeout = o.timeout
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, cfg.Validate()
}

// newGenerator builds the adapter from cfg and wraps it with the per-call
// deadline. A nil logOut leaves request logging off.
func newGenerator(cfg config.Config, deadline time.Duration, logOut io.Writer) (modeladapter.Generator, modeladapter.UsageReporter, error) {
	adapter, err := cfg.NewAdapter()
	if err != nil {
		return nil, nil, err
	}

	var mws []modeladapter.Middleware
	if logOut != nil {
		log, err := cfg.Logger(logOut)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, modeladapter.Logger(log, cfg.Model))
	}
	mws = append(mws, modeladapter.Timeout(deadline))

	return modeladapter.Apply(adapter, mws...), adapter, nil
}

// run sends one prompt and prints the response to stdout. The caller prints
// a returned error, so request logs are only written with -verbose.
func run(ctx context.Context, o options, in input, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	var logOut io.Writer
	if o.verbose {
		logOut = stderr
	}

	gen, reporter, err := newGenerator(cfg, o.deadline, logOut)
	if err != nil {
		return err
	}

	prompt, err := readPrompt(in)
	if err != nil {
		return err
	}

	out, err := gen.Generate(ctx, prompt)
	if err != nil {
		return err
	}

	if o.render {
		out = renderMarkdown(out, o.width)
	}

	if _, err := fmt.Fprintln(stdout, out); err != nil {
		return err
	}

	if o.verbose {
		if last, ok := reporter.UsageTracker().Last(); ok {
			fmt.Fprintln(stderr, usageStyle.Render(fmtUsage(cfg.Model, last)))
		}
	}

	return nil
}

// runMCP serves the generate tool over MCP until ctx ends or stdin closes.
// Logs go to stderr because stdout carries the protocol. Failed calls are
// only reported to the client, so they are always logged here.
func runMCP(ctx context.Context, o options, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	gen, reporter, err := newGenerator(cfg, o.deadline, stderr)
	if err != nil {
		return err
	}

	tb := toolbox.New()
	tb.Register(toolbox.GenerateTool(gen))

	err = mcpserver.New("ollamagen", version, tb).Serve(ctx, stdin, stdout)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if o.verbose {
		tracker := reporter.UsageTracker()
		fmt.Fprintln(stderr, usageStyle.Render(fmtTotals(cfg.Model, tracker.Count(), tracker.Total())))
	}

	return err
}

// readPrompt picks the prompt source: joined arguments, stdin when the only
// argument is "-" or stdin is not a terminal, otherwise the interactive form.
// One trailing newline is dropped from stdin input; the rest is sent verbatim.
func readPrompt(in input) (string, error) {
	if len(in.args) == 1 && in.args[0] == "-" {
		return readStdin(in.stdin)
	}

	if len(in.args) > 0 {
		return strings.Join(in.args, " "), nil
	}

	if in.interactive && in.ask != nil {
		return in.ask()
	}

	return readStdin(in.stdin)
}

func readStdin(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}

	s, ok := strings.CutSuffix(string(data), "\n")
	if ok {
		s = strings.TrimSuffix(s, "\r")
	}

	return s, nil
}
