// HTTP fetch tool.
//
// Information Hiding:
// - HTTP client implementation details hidden
// - Response size limiting hidden from the model

package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// maxHTTPBody caps how much of a response body is returned to the model.
const maxHTTPBody = 64 * 1024

// HTTPGetTool returns a descriptor that fetches a URL over HTTP GET.
// Only http and https schemes are accepted.
func HTTPGetTool() Descriptor {
	client := &http.Client{Timeout: defaultHTTPTimeout}
	return Descriptor{
		Name:        "http_get",
		Description: "Fetch the contents of a URL over HTTP GET",
		Parameters: ObjectSchema(map[string]any{
			"url": StringProperty("The URL to fetch"),
		}, "url"),
		Handler: func(ctx context.Context, argsJSON string, inv *Invocation) (any, error) {
			var args struct {
				URL string `json:"url"`
			}
			if err := DecodeArgs(argsJSON, &args); err != nil {
				return nil, err
			}
			if args.URL == "" {
				return nil, fmt.Errorf("url cannot be empty")
			}
			parsed, err := url.Parse(args.URL)
			if err != nil {
				return nil, fmt.Errorf("invalid url: %w", err)
			}
			if parsed.Scheme != "http" && parsed.Scheme != "https" {
				return nil, fmt.Errorf("unsupported scheme '%s'", parsed.Scheme)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, args.URL, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to build request: %w", err)
			}
			inv.Progress(fmt.Sprintf("fetching %s", args.URL))

			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("request failed: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTTPBody))
			if err != nil {
				return nil, fmt.Errorf("failed to read response: %w", err)
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "Status: %s\n\n", resp.Status)
			sb.Write(body)
			return sb.String(), nil
		},
	}
}
