package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"lockin/internal/modules/session/domain"
	sessionout "lockin/internal/modules/session/port/out"
	"lockin/internal/platform/markdown"
	"lockin/internal/platform/slug"
)

// MarkdownJournal writes one note per completed session under dir/YYYY/MM/DD.
type MarkdownJournal struct {
	dir string
}

type journalMeta struct {
	SchemaVersion     int    `yaml:"schema_version"`
	ID                string `yaml:"id"`
	Topic             string `yaml:"topic"`
	Date              string `yaml:"date"`
	StartedAt         string `yaml:"started_at"`
	CompletedAt       string `yaml:"completed_at"`
	DurationMinutes   int64  `yaml:"duration_minutes"`
	TotalDistractions int    `yaml:"total_distractions"`
}

func NewMarkdownJournal(dir string) sessionout.Journal {
	return &MarkdownJournal{dir: dir}
}

// Record is idempotent by session id: a note already carrying entry.SessionID
// in its frontmatter is returned as-is.
func (j *MarkdownJournal) Record(_ context.Context, entry domain.HistoryEntry) (string, error) {
	completed := time.UnixMilli(entry.CompletedAt).UTC()
	dir := filepath.Join(j.dir, completed.Format("2006"), completed.Format("01"), completed.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create journal dir: %w", err)
	}
	if existing, ok := findNote(dir, entry.SessionID); ok {
		return existing, nil
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.md", completed.Format("150405"), slug.Make(entry.Topic)))

	meta := journalMeta{
		SchemaVersion:     domain.SchemaVersion,
		ID:                entry.SessionID,
		Topic:             entry.Topic,
		Date:              entry.Date,
		StartedAt:         time.UnixMilli(entry.StartedAt).UTC().Format(time.RFC3339),
		CompletedAt:       completed.Format(time.RFC3339),
		DurationMinutes:   entry.DurationSeconds / 60,
		TotalDistractions: entry.Analytics.TotalDistractions,
	}
	rendered, err := markdown.Render(meta, journalNote(entry))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write journal note: %w", err)
	}
	return path, nil
}

func findNote(dir, sessionID string) (string, bool) {
	if sessionID == "" {
		return "", false
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return "", false
	}
	for _, path := range matches {
		var meta journalMeta
		if err := markdown.ReadFrontmatter(path, &meta); err == nil && meta.ID == sessionID {
			return path, true
		}
	}
	return "", false
}

func journalNote(entry domain.HistoryEntry) markdown.Note {
	labels := make([]string, 0, len(entry.Analytics.CategoryCounts))
	for label := range entry.Analytics.CategoryCounts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	categories := make([][2]string, 0, len(labels))
	for _, label := range labels {
		categories = append(categories, [2]string{label, strconv.Itoa(entry.Analytics.CategoryCounts[label])})
	}

	sites := make([][2]string, 0, len(entry.Analytics.TopSites))
	for _, site := range entry.Analytics.TopSites {
		sites = append(sites, [2]string{site.Host, (time.Duration(site.Seconds) * time.Second).String()})
	}

	return markdown.Note{
		Title: "Focus: " + entry.Topic,
		Summary: [][2]string{
			{"Duration", fmt.Sprintf("%d minutes", entry.DurationSeconds/60)},
			{"Distractions", strconv.Itoa(entry.Analytics.TotalDistractions)},
		},
		Sections: []markdown.Section{
			{Heading: "Categories", Items: categories},
			{Heading: "Top sites", Items: sites},
		},
	}
}
