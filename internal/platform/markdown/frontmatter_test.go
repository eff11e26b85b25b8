package markdown_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lockin/internal/platform/markdown"
)

type noteMeta struct {
	Topic    string `yaml:"topic"`
	Duration int    `yaml:"duration_seconds"`
}

func TestRenderThenSplitFrontmatter(t *testing.T) {
	t.Parallel()
	rendered, err := markdown.Render(noteMeta{Topic: "rust ownership", Duration: 1500}, markdown.Note{
		Title:   "Focus: rust ownership",
		Summary: [][2]string{{"Duration", "25 minutes"}},
		Sections: []markdown.Section{
			{Heading: "Categories", Items: [][2]string{{"learning", "3"}}},
			{Heading: "Top sites"},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(rendered, "---\ntopic: rust ownership\nduration_seconds: 1500\n---\n") {
		t.Fatalf("unexpected frontmatter layout:\n%s", rendered)
	}
	meta := noteMeta{}
	body, err := markdown.SplitFrontmatter(rendered, &meta)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if meta.Topic != "rust ownership" || meta.Duration != 1500 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	want := "\n# Focus: rust ownership\n\n- Duration: 25 minutes\n\n## Categories\n\n- learning: 3\n"
	if body != want {
		t.Fatalf("body = %q, want %q", body, want)
	}
}

func TestSplitFrontmatterRejectsUnterminatedBlock(t *testing.T) {
	t.Parallel()
	if _, err := markdown.SplitFrontmatter("---\ntopic: x\n", &noteMeta{}); err == nil {
		t.Fatalf("expected missing separator error")
	}
	body, err := markdown.SplitFrontmatter("plain body", &noteMeta{})
	if err != nil || body != "plain body" {
		t.Fatalf("plain content should pass through, got %q %v", body, err)
	}
}

func TestReadFrontmatter(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "note.md")
	if err := os.WriteFile(path, []byte("---\ntopic: go\n---\nbody\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	var meta noteMeta
	if err := markdown.ReadFrontmatter(path, &meta); err != nil || meta.Topic != "go" {
		t.Fatalf("meta = %+v, err = %v", meta, err)
	}
	if err := markdown.ReadFrontmatter(filepath.Join(t.TempDir(), "missing.md"), &meta); !os.IsNotExist(err) {
		t.Fatalf("missing file err = %v", err)
	}
}
