// Result store tools - let the model park large outputs under a key
// and fetch them back later, keyed by the requesting session.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/richinex/styx/storage"
)

// summaryLimit bounds the auto-generated summary length.
const summaryLimit = 200

// SaveResultTool returns a descriptor that stores content in the
// result store under a session-scoped key.
func SaveResultTool(store *storage.ResultStore) Descriptor {
	return Descriptor{
		Name:        "save_result",
		Description: "Save content under a key for later retrieval with get_result",
		Parameters: ObjectSchema(map[string]any{
			"key":     StringProperty("Key to store the content under"),
			"content": StringProperty("Content to store"),
			"summary": StringProperty("Optional short description of the content"),
		}, "key", "content"),
		Handler: func(ctx context.Context, argsJSON string, inv *Invocation) (any, error) {
			var args struct {
				Key     string `json:"key"`
				Content string `json:"content"`
				Summary string `json:"summary"`
			}
			if err := DecodeArgs(argsJSON, &args); err != nil {
				return nil, err
			}
			summary := args.Summary
			if summary == "" {
				summary = summarize(args.Content)
			}

			result, err := store.Save(ctx, inv.SessionID, args.Key, args.Content, summary)
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("Saved '%s' (%d lines, %d bytes)", result.Key, result.LineCount, result.ByteSize), nil
		},
	}
}

// GetResultTool returns a descriptor that retrieves previously saved
// content by key. With no key it lists what the session has stored.
func GetResultTool(store *storage.ResultStore) Descriptor {
	return Descriptor{
		Name:        "get_result",
		Description: "Retrieve content previously saved with save_result; omit key to list saved results",
		Parameters: ObjectSchema(map[string]any{
			"key": StringProperty("Key of the saved content; omit to list all keys"),
		}),
		Handler: func(ctx context.Context, argsJSON string, inv *Invocation) (any, error) {
			var args struct {
				Key string `json:"key"`
			}
			if err := DecodeArgs(argsJSON, &args); err != nil {
				return nil, err
			}

			if args.Key == "" {
				results, err := store.List(ctx, inv.SessionID)
				if err != nil {
					return nil, err
				}
				if len(results) == 0 {
					return "No saved results", nil
				}
				var sb strings.Builder
				for _, r := range results {
					fmt.Fprintf(&sb, "%s: %s (%d lines, %d bytes)\n", r.Key, r.Summary, r.LineCount, r.ByteSize)
				}
				return sb.String(), nil
			}

			result, err := store.Get(ctx, inv.SessionID, args.Key)
			if err != nil {
				return nil, err
			}
			return result.Content, nil
		},
	}
}

func summarize(content string) string {
	line := content
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	if len(line) > summaryLimit {
		line = line[:summaryLimit]
	}
	return strings.TrimSpace(line)
}
