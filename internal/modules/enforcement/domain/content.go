package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const DefaultMaxContentRunes = 5000

const (
	missingTitle       = "No title found"
	missingDescription = "No meta description found"
	missingOG          = "No OG description found"
)

// PageContent is what a page offers for relevance scoring.
type PageContent struct {
	Title         string
	Description   string
	OGDescription string
	Text          string
}

// Compose renders the scoring text: a three line header followed by body text,
// NFC-normalized, whitespace-collapsed and cut to maxRunes.
func (c PageContent) Compose(maxRunes int) string {
	var b strings.Builder
	b.WriteString("Title: " + orDefault(c.Title, missingTitle) + "\n")
	b.WriteString("Meta Description: " + orDefault(c.Description, missingDescription) + "\n")
	b.WriteString("OG Description: " + orDefault(c.OGDescription, missingOG))
	if body := collapse(c.Text); body != "" {
		b.WriteString("\n" + body)
	}
	return truncateRunes(norm.NFC.String(b.String()), maxRunes)
}

// Fingerprint identifies content for change detection.
func (c PageContent) Fingerprint() string {
	return c.Compose(DefaultMaxContentRunes)
}

func (c PageContent) Empty() bool {
	return strings.TrimSpace(c.Title+c.Description+c.OGDescription+c.Text) == ""
}

func orDefault(value, fallback string) string {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return fallback
	}
	return value
}

func collapse(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
