package typebridge

import (
	"path/filepath"
	"strings"
)

// File is the unit of work exchanged with the host pipeline: a logical
// source path plus the full file contents. Compile returns a File with
// Data replaced by the emitted JavaScript and, when source maps are
// enabled, Map holding the JSON serialized source map.
type File struct {
	Path string
	Data string
	Map  string
}

// Plugin metadata consumed by the host build tool.
const (
	// IsTranspiler marks the plugin as a source-to-source compiler.
	IsTranspiler = true

	// OutputType tags the emitted artifacts for downstream plugins.
	OutputType = "javascript"

	// DefaultPattern matches the files handed to the adapter when the
	// pattern option is not set.
	DefaultPattern = "**/*.{ts,tsx}"
)

// OutputPath maps a matched source path to its JavaScript output path.
func OutputPath(path string) string {
	ext := filepath.Ext(path)
	switch ext {
	case ".ts", ".tsx":
		return strings.TrimSuffix(path, ext) + ".js"
	}
	return path
}
