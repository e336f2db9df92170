package ingest

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"ocat/internal/faults"
)

// headerPattern captures the identifier token opening the first non-blank
// line, with an optional parenthesized title after it.
var headerPattern = regexp.MustCompile(`^\s*([oO]\d+(?:\(\d+\)|_\d+)?)\s*(?:\((.*)\))?`)

// Header is the parsed first line of a program file.
type Header struct {
	Identifier string
	Title      string
}

// ParseHeader reads the file format contract: the first non-blank line
// begins with the identifier token (case-insensitive o + digits), optionally
// followed by a parenthesized title.
func ParseHeader(content []byte) (Header, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		match := headerPattern.FindStringSubmatch(line)
		if match == nil {
			return Header{}, faults.Wrap(faults.ErrParseFailure, "ingest", "parse header",
				"first non-blank line does not begin with a program number", nil)
		}
		return Header{
			Identifier: match[1],
			Title:      strings.TrimSpace(match[2]),
		}, nil
	}
	return Header{}, faults.Wrap(faults.ErrParseFailure, "ingest", "parse header", "file is empty", nil)
}
