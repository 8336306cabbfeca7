// Package main provides the styx CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/styx/cli"
)

var (
	// Global flags
	provider string
	model    string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "styx",
		Short: "Streaming chat bridge across LLM providers",
		Long: `A CLI for streaming chat with LLM providers through a normalized
event protocol: text deltas, tool-call lifecycle events, and a single
terminal per response. Supports OpenAI, Anthropic, DeepSeek, and Gemini.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "anthropic", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Model override (default per provider)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show tool-call arguments while streaming")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(toolsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func askCmd() *cobra.Command {
	var sessionID string
	var noTools bool

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Stream a single prompt and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider:  provider,
				Model:     model,
				SessionID: sessionID,
				Tools:     !noTools,
				Verbose:   verbose,
			}
			return cli.Ask(context.Background(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (generated when omitted)")
	cmd.Flags().BoolVar(&noTools, "no-tools", false, "Disable tool calling")

	return cmd
}

func chatCmd() *cobra.Command {
	var sessionID string
	var noTools bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session. Each turn streams to stdout;
Ctrl-C aborts the in-flight response without ending the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider:  provider,
				Model:     model,
				SessionID: sessionID,
				Tools:     !noTools,
				Verbose:   verbose,
			}
			return cli.Chat(context.Background(), opts)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (generated when omitted)")
	cmd.Flags().BoolVar(&noTools, "no-tools", false, "Disable tool calling")

	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the built-in tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListTools(cli.Options{Provider: provider})
		},
	}
}
