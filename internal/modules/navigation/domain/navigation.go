package domain

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	apperrors "lockin/internal/platform/errors"
)

// Kind says how a tab arrived at its current content.
type Kind string

const (
	KindLoad     Kind = "load"
	KindHistory  Kind = "history"
	KindMutation Kind = "mutation"
)

func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindLoad, KindHistory, KindMutation:
		return k, nil
	case "":
		return KindLoad, nil
	}
	return "", fmt.Errorf("%w: unknown navigation kind %q", apperrors.ErrInvalidInput, raw)
}

// Event is one observed page view. Fingerprint summarizes the page content.
type Event struct {
	TabID       int
	URL         string
	Kind        Kind
	Fingerprint string
}

// Evaluated is what the watcher remembers about the last evaluated view of a tab.
type Evaluated struct {
	URL         string
	Fingerprint string
}

// Material reports whether ev differs enough from the last evaluation to
// warrant another one. Fresh loads always do.
func (e Evaluated) Material(ev Event) bool {
	return ev.Kind == KindLoad || ev.URL != e.URL || ev.Fingerprint != e.Fingerprint
}

// Fingerprint hashes page content fields for change detection.
func Fingerprint(fields ...string) string {
	h := fnv.New64a()
	for _, f := range fields {
		_, _ = h.Write([]byte(f))
		_, _ = h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
