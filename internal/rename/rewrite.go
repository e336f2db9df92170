package rename

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// rewriteContent replaces every standalone occurrence of the old base token
// in the file body with the new identifier, then inserts a provenance
// comment directly below the header line. Replacement is case-normalized: an
// upper-case O in the file keeps an upper-case O after the substitution. The
// first non-blank line must keep beginning with the identifier token, so the
// comment never goes above it.
func rewriteContent(content []byte, oldCore int, newIdentifier, reason string, now time.Time) []byte {
	// The old number may appear padded or not; match both along with any
	// disambiguation suffix glued onto the token.
	pattern := regexp.MustCompile(fmt.Sprintf(`(?i)\b(o)0*%d(\(\d+\)|_\d+)?\b`, oldCore))

	body := pattern.ReplaceAllStringFunc(string(content), func(match string) string {
		replacement := newIdentifier
		if strings.HasPrefix(match, "O") {
			replacement = strings.ToUpper(replacement)
		}
		return replacement
	})

	comment := fmt.Sprintf("(RENAMED FROM O%05d ON %s", oldCore, now.Format("2006-01-02"))
	if reason != "" {
		comment += " - " + strings.ToUpper(reason)
	}
	comment += ")"

	return []byte(insertAfterHeader(body, comment))
}

// insertAfterHeader places line directly after the first non-blank line. A
// file with no non-blank line at all gets the line appended.
func insertAfterHeader(body, line string) string {
	lines := strings.Split(body, "\n")
	for i, existing := range lines {
		if strings.TrimSpace(existing) == "" {
			continue
		}
		out := make([]string, 0, len(lines)+1)
		out = append(out, lines[:i+1]...)
		out = append(out, line)
		out = append(out, lines[i+1:]...)
		return strings.Join(out, "\n")
	}
	if body == "" {
		return line + "\n"
	}
	return body + line + "\n"
}
