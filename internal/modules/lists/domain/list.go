package domain

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "lockin/internal/platform/errors"
)

type Kind string

const (
	KindAllow Kind = "allow"
	KindBlock Kind = "block"
)

func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindAllow:
		return KindAllow, nil
	case KindBlock:
		return KindBlock, nil
	}
	return "", fmt.Errorf("%w: unknown list %q", apperrors.ErrInvalidInput, raw)
}

func (k Kind) Other() Kind {
	if k == KindAllow {
		return KindBlock
	}
	return KindAllow
}

// Title is the user-facing list name.
func (k Kind) Title() string {
	if k == KindAllow {
		return "Allow List"
	}
	return "Block List"
}

// NormalizeURL accepts only absolute http(s) URLs with a host. It lowercases
// scheme and host, drops the scheme's default port and a lone "/" path.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: please enter a valid URL", apperrors.ErrInvalidInput)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: only http and https URLs are supported", apperrors.ErrInvalidInput)
	}
	u.Host = strings.ToLower(u.Host)
	if port := u.Port(); port != "" && port == defaultPort(u.Scheme) {
		u.Host = strings.TrimSuffix(u.Host, ":"+port)
	}
	if u.Path == "/" {
		u.Path, u.RawPath = "", ""
	}
	return u.String(), nil
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}

func effectivePort(u *url.URL) string {
	if port := u.Port(); port != "" {
		return port
	}
	return defaultPort(strings.ToLower(u.Scheme))
}

// sameEntry compares two URLs after normalization, falling back to the raw text.
func sameEntry(a, b string) bool {
	if a == b {
		return true
	}
	na, errA := NormalizeURL(a)
	nb, errB := NormalizeURL(b)
	return errA == nil && errB == nil && na == nb
}

// Matches reports whether a list entry covers pageURL: the two are equal, or
// the entry is a bare origin sharing the page's scheme, host, and port.
func Matches(entry, pageURL string) bool {
	if sameEntry(entry, pageURL) {
		return true
	}
	e, err := url.Parse(entry)
	if err != nil {
		return false
	}
	if (e.Path != "" && e.Path != "/") || e.RawQuery != "" || e.Fragment != "" {
		return false
	}
	p, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(e.Scheme, p.Scheme) &&
		strings.EqualFold(e.Hostname(), p.Hostname()) &&
		effectivePort(e) == effectivePort(p)
}

// List is an ordered set of normalized URLs.
type List []string

func (l List) Contains(pageURL string) bool {
	for _, entry := range l {
		if Matches(entry, pageURL) {
			return true
		}
	}
	return false
}

// Has reports membership of entry, comparing normalized forms.
func (l List) Has(entry string) bool {
	for _, existing := range l {
		if sameEntry(existing, entry) {
			return true
		}
	}
	return false
}

func (l List) Add(entry string, kind Kind) (List, error) {
	if l.Has(entry) {
		return l, fmt.Errorf("%w: this site is already in your %s", apperrors.ErrDuplicateEntry, kind.Title())
	}
	return append(append(List(nil), l...), entry), nil
}

func (l List) Remove(entry string, kind Kind) (List, error) {
	out := make(List, 0, len(l))
	for _, existing := range l {
		if !sameEntry(existing, entry) {
			out = append(out, existing)
		}
	}
	if len(out) == len(l) {
		return l, fmt.Errorf("%w: %s is not in your %s", apperrors.ErrNotFound, entry, kind.Title())
	}
	return out, nil
}
