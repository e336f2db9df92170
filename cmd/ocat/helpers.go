package main

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// displayTitle renders the ALL-CAPS titles found in program headers in a
// readable Title Case for tables.
func displayTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "-"
	}
	return cases.Title(language.Und).String(strings.ToLower(title))
}

func formatRoundSize(size float64) string {
	if size <= 0 {
		return "-"
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", size), "0"), ".")
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
