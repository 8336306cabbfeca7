// File reading tool.
//
// Information Hiding:
// - File I/O and size limiting hidden from the model

package tools

import (
	"context"
	"fmt"
	"os"
)

// maxReadFileBytes caps how much file content is returned to the model.
const maxReadFileBytes = 256 * 1024

// ReadFileTool returns a descriptor that reads a file from disk.
func ReadFileTool() Descriptor {
	return Descriptor{
		Name:        "read_file",
		Description: "Read the contents of a file from the filesystem",
		Parameters: ObjectSchema(map[string]any{
			"path": StringProperty("Path of the file to read"),
		}, "path"),
		Handler: func(ctx context.Context, argsJSON string, inv *Invocation) (any, error) {
			var args struct {
				Path string `json:"path"`
			}
			if err := DecodeArgs(argsJSON, &args); err != nil {
				return nil, err
			}
			if args.Path == "" {
				return nil, fmt.Errorf("path cannot be empty")
			}

			info, err := os.Stat(args.Path)
			if err != nil {
				return nil, fmt.Errorf("cannot access '%s': %w", args.Path, err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("'%s' is a directory", args.Path)
			}
			if info.Size() > maxReadFileBytes {
				return nil, fmt.Errorf("file '%s' is too large (%d bytes, limit %d)",
					args.Path, info.Size(), maxReadFileBytes)
			}

			content, err := os.ReadFile(args.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to read '%s': %w", args.Path, err)
			}
			return string(content), nil
		},
	}
}
