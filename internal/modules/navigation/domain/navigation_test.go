package domain

import (
	"errors"
	"testing"

	apperrors "lockin/internal/platform/errors"
)

func TestMaterial(t *testing.T) {
	t.Parallel()
	last := Evaluated{URL: "https://a.test/x", Fingerprint: "f1"}
	cases := []struct {
		name string
		ev   Event
		want bool
	}{
		{"same view mutation", Event{URL: "https://a.test/x", Kind: KindMutation, Fingerprint: "f1"}, false},
		{"same view history", Event{URL: "https://a.test/x", Kind: KindHistory, Fingerprint: "f1"}, false},
		{"reload", Event{URL: "https://a.test/x", Kind: KindLoad, Fingerprint: "f1"}, true},
		{"route change", Event{URL: "https://a.test/y", Kind: KindHistory, Fingerprint: "f1"}, true},
		{"content change", Event{URL: "https://a.test/x", Kind: KindMutation, Fingerprint: "f2"}, true},
	}
	for _, tc := range cases {
		if got := last.Material(tc.ev); got != tc.want {
			t.Fatalf("%s: Material = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	if k, err := ParseKind(" History "); err != nil || k != KindHistory {
		t.Fatalf("ParseKind = %q, %v", k, err)
	}
	if k, err := ParseKind(""); err != nil || k != KindLoad {
		t.Fatalf("empty kind = %q, %v", k, err)
	}
	if _, err := ParseKind("teleport"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("unknown kind err = %v", err)
	}
}
