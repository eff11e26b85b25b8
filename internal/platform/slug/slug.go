package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxRunes = 48

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make turns a focus topic into a filename-safe slug. Diacritics are folded
// ("Café" becomes "cafe"); letters from other scripts are kept as-is.
func Make(topic string) string {
	folded, _, err := transform.String(foldMarks, topic)
	if err != nil {
		folded = topic
	}

	var b strings.Builder
	n := 0
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if n == maxRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && n > 0 {
				b.WriteByte('-')
				n++
				if n == maxRunes {
					break
				}
			}
			b.WriteRune(r)
			n++
			pendingDash = false
			continue
		}
		pendingDash = true
	}

	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return "untitled"
	}
	return s
}
