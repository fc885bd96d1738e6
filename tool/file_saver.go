package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hupe1980/taskmesh/core"
)

// FileSaverOptions configure the file saver tool.
type FileSaverOptions struct {
	// BaseDir confines writes to a directory when set; relative paths are
	// resolved against it.
	BaseDir string
}

// FileSaver writes model-produced content to the local filesystem, creating
// parent directories as needed.
type FileSaver struct {
	opts FileSaverOptions
}

// NewFileSaver creates a file saver tool.
func NewFileSaver(optFns ...func(o *FileSaverOptions)) *FileSaver {
	opts := FileSaverOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &FileSaver{opts: opts}
}

// Name implements Tool.
func (f *FileSaver) Name() string { return "file_saver" }

// Description implements Tool.
func (f *FileSaver) Description() string {
	return "Save content to a local file at a specified path. Use when you need to persist text, code, or generated content."
}

// Parameters implements Tool.
func (f *FileSaver) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "The content to save to the file.",
			},
			"file_path": map[string]any{
				"type":        "string",
				"description": "The path where the file should be saved, including filename and extension.",
			},
			"mode": map[string]any{
				"type":        "string",
				"description": "The file opening mode. Default is write.",
				"enum":        []string{"write", "append"},
			},
		},
		"required": []string{"content", "file_path"},
	}
}

// Execute implements Tool.
func (f *FileSaver) Execute(ctx context.Context, args map[string]any) (core.ToolResult, error) {
	content, _ := args["content"].(string)
	path, ok := args["file_path"].(string)
	if !ok || path == "" {
		return core.ToolResult{}, NewToolError(f.Name(), "file_path must be a non-empty string", "VALIDATION_ERROR")
	}

	if f.opts.BaseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(f.opts.BaseDir, path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return core.ToolResult{Error: fmt.Sprintf("error saving file: %v", err)}, nil
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if mode, _ := args["mode"].(string); mode == "append" {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("error saving file: %v", err)}, nil
	}
	defer file.Close()

	if _, err := file.WriteString(content); err != nil {
		return core.ToolResult{Error: fmt.Sprintf("error saving file: %v", err)}, nil
	}

	return core.ToolResult{Output: fmt.Sprintf("Content successfully saved to %s", path)}, nil
}
