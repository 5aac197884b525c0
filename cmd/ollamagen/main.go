package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Handle subcommands before flag parsing.
	if len(os.Args) > 1 && os.Args[1] == "mcp" {
		mcpCmd := flag.NewFlagSet("mcp", flag.ExitOnError)
		mcpCmd.Usage = func() {
			fmt.Fprintf(os.Stderr, "Usage: ollamagen mcp [flags]\n\nServe the generate tool over MCP on stdin/stdout.\n\nFlags:\n")
			mcpCmd.PrintDefaults()
		}

		var opts options
		opts.register(mcpCmd)
		_ = mcpCmd.Parse(os.Args[2:])

		if err := runMCP(ctx, opts, os.Stdin, os.Stdout, os.Stderr); err != nil {
			printError(os.Stderr, err)
			os.Exit(1)
		}

		return
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ollamagen [flags] [prompt...]\n       ollamagen mcp [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Sends the prompt to an Ollama server and prints the response.\n")
		fmt.Fprintf(os.Stderr, "With no prompt arguments the prompt is read from stdin (use - to force this)\n")
		fmt.Fprintf(os.Stderr, "or asked for interactively when stdin is a terminal.\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n  mcp  Serve the generate tool over MCP on stdin/stdout\n")
	}

	var opts options
	opts.register(flag.CommandLine)
	opts.registerOutput(flag.CommandLine)
	flag.Parse()

	in := input{
		args:        flag.Args(),
		stdin:       os.Stdin,
		interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
		ask:         askPrompt,
	}

	if err := run(ctx, opts, in, os.Stdout, os.Stderr); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
