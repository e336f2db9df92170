package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteProgram writes a G-code file whose first line follows the header
// contract: identifier token, optionally followed by a parenthesized title.
// The body defaults to a small tool path when empty.
func WriteProgram(t testing.TB, path, identifier, title, body string) {
	t.Helper()

	header := identifier
	if title != "" {
		header = fmt.Sprintf("%s (%s)", identifier, title)
	}
	if body == "" {
		body = "G00 X0 Z0\nG01 X1.5 Z-0.25 F0.012\nM30\n"
	}
	content := header + "\n" + body

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
