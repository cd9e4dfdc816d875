// =============================================================================
// utils.go - shared helpers
// =============================================================================
//
// Logging goes to stderr so stdout stays reserved for JSON output
// (./pipeline ... | jq '.').
//
// =============================================================================
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// -----------------------------------------------------------------------------
// logging
// -----------------------------------------------------------------------------

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "WARN: "+format+"\n", args...)
}

func infof(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "INFO: "+format+"\n", args...)
}

func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
}

// Fatalf prints the message to stderr and exits with status 1.
// Exported for the CLI entrypoint.
func Fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// -----------------------------------------------------------------------------
// JSON file helpers
// -----------------------------------------------------------------------------

// WriteJSONToStdout writes v as indented JSON to stdout.
func WriteJSONToStdout(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteJSONFile saves v as indented JSON at path.
func WriteJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// ReadJSONFile loads the JSON file at path into out (pass a pointer).
func ReadJSONFile(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// -----------------------------------------------------------------------------
// string helpers
// -----------------------------------------------------------------------------

// truncateRunes cuts s to at most maxLen runes, with no ellipsis.
// Rune-based so multi-byte characters are never split.
func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

// truncateString cuts s to at most maxLen runes, appending "..." when cut.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// normalizeWhitespace collapses runs of whitespace into single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
