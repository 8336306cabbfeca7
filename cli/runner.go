// Command execution for CLI commands.
//
// Information Hiding:
// - Provider and tool setup hidden
// - Event rendering and signal handling hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/richinex/styx/bridge"
	"github.com/richinex/styx/config"
	"github.com/richinex/styx/llm"
	"github.com/richinex/styx/storage"
	"github.com/richinex/styx/tools"
)

// Options holds CLI execution options.
type Options struct {
	Provider  string
	Model     string
	SessionID string
	Tools     bool
	Verbose   bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		Provider: "anthropic",
		Tools:    true,
	}
}

// Ask streams a single prompt to stdout.
func Ask(ctx context.Context, prompt string, opts Options) error {
	client, settings, cleanup, err := buildClient(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	_, err = streamTurn(ctx, client, settings, bridge.Request{
		SessionID:    sessionID,
		Prompt:       prompt,
		Model:        opts.Model,
		ToolsEnabled: opts.Tools,
	}, opts.Verbose)
	return err
}

// Chat starts an interactive chat session. Each turn carries the full
// prior conversation; Ctrl-C aborts the in-flight response without
// ending the session.
func Chat(ctx context.Context, opts Options) error {
	client, settings, cleanup, err := buildClient(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	fmt.Printf("Chat session %s with %s (%s). Type 'exit' to quit.\n\n",
		sessionID, settings.LLM.Provider, settings.LLM.Model)

	var history []llm.Message
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}
		if prompt == "exit" || prompt == "quit" {
			break
		}

		reply, err := streamTurn(ctx, client, settings, bridge.Request{
			SessionID:    sessionID,
			Prompt:       prompt,
			History:      history,
			Model:        opts.Model,
			ToolsEnabled: opts.Tools,
		}, opts.Verbose)
		if err != nil {
			return err
		}
		history = append(history, llm.UserMessage(prompt), llm.AssistantMessage(reply))
	}
	return scanner.Err()
}

// ListTools prints the registered tool descriptors.
func ListTools(opts Options) error {
	registry, cleanup, err := buildRegistry("")
	if err != nil {
		return err
	}
	defer cleanup()

	for _, desc := range registry.Snapshot() {
		fmt.Printf("%-14s %s\n", desc.Name, desc.Description)
	}
	return nil
}

// buildClient assembles the provider, tool registry, and bridge client
// from settings. The returned cleanup closes the result store.
func buildClient(opts Options) (*bridge.Client, config.Settings, func(), error) {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return nil, config.Settings{}, nil, err
	}

	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, config.Settings{}, nil, err
	}
	model := opts.Model
	if model == "" {
		model = settings.LLM.Model
	}
	provider, err := providerType.Model(model).FromEnv()
	if err != nil {
		return nil, config.Settings{}, nil, err
	}

	registry, cleanup, err := buildRegistry(settings.Stream.ResultsDB)
	if err != nil {
		return nil, config.Settings{}, nil, err
	}

	client := bridge.NewClient(provider).
		WithTools(registry).
		WithLimits(settings.LLM.MaxTokens, settings.Stream.MaxToolSteps)
	return client, settings, cleanup, nil
}

// buildRegistry registers the built-in tools. dbPath selects the result
// store location; empty means in-memory.
func buildRegistry(dbPath string) (*tools.Registry, func(), error) {
	var store *storage.ResultStore
	var err error
	if dbPath != "" {
		store, err = storage.Open(dbPath)
	} else {
		store, err = storage.OpenInMemory()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open result store: %w", err)
	}

	registry := tools.NewRegistry()
	for _, desc := range []tools.Descriptor{
		tools.HTTPGetTool(),
		tools.ReadFileTool(),
		tools.SaveResultTool(store),
		tools.GetResultTool(store),
	} {
		if err := registry.Register(desc); err != nil {
			store.Close()
			return nil, nil, err
		}
	}
	return registry, func() { store.Close() }, nil
}

// streamTurn runs one request and renders its events to stdout,
// returning the concatenated assistant text. SIGINT cancels the
// in-flight request; the stream then ends without a synthetic error.
func streamTurn(ctx context.Context, client *bridge.Client, settings config.Settings, req bridge.Request, verbose bool) (string, error) {
	cancel := bridge.NewCancelSignal()
	req.Cancel = cancel
	req.Temperature = &settings.LLM.Temperature
	req.TopP = &settings.LLM.TopP
	req.TopK = &settings.LLM.TopK
	if settings.Stream.TrimPrefix != "" || settings.Stream.TrimSuffix != "" {
		req.Trim = &bridge.TrimConfig{
			Prefix: settings.Stream.TrimPrefix,
			Suffix: settings.Stream.TrimSuffix,
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-interrupt:
			fmt.Fprintln(os.Stderr, "\ninterrupted")
			cancel.Cancel()
		case <-done:
		}
	}()

	// The dispatcher pushes synchronously, so the sink must be consumed
	// while Stream runs: the request streams in a goroutine and events
	// are rendered here as they arrive. A rejected request never touches
	// the sink, so the goroutine closes it to release the consumer.
	sink := bridge.NewEventChannel(64)
	rejected := make(chan error, 1)
	go func() {
		err := client.Stream(ctx, req, sink)
		if err != nil {
			sink.Close()
		}
		rejected <- err
	}()

	var reply strings.Builder
	var streamErr error
	for event := range sink.Events() {
		switch event.Kind {
		case bridge.EventContent:
			fmt.Print(event.Text)
			reply.WriteString(event.Text)
		case bridge.EventToolCall:
			renderToolCall(event.ToolCall, verbose)
		case bridge.EventError:
			fmt.Fprintf(os.Stderr, "\nError: %v\n", event.Err)
			streamErr = event.Err
		}
	}

	if err := <-rejected; err != nil {
		return "", err
	}
	if streamErr != nil {
		return reply.String(), streamErr
	}
	fmt.Println()
	return reply.String(), nil
}

// renderToolCall prints tool lifecycle updates. Argument fragments are
// only shown in verbose mode.
func renderToolCall(call *bridge.ToolCallEvent, verbose bool) {
	switch call.State {
	case bridge.ToolCallStreamingStart:
		fmt.Fprintf(os.Stderr, "\n[tool %s started]\n", call.Name)
	case bridge.ToolCallStreaming:
		if verbose {
			fmt.Fprint(os.Stderr, call.Args)
		}
	case bridge.ToolCallComplete:
		if verbose {
			fmt.Fprintf(os.Stderr, "[tool %s called with %s]\n", call.Name, call.Args)
		}
	case bridge.ToolCallResult:
		fmt.Fprintf(os.Stderr, "[tool %s finished]\n", call.Name)
	}
}
