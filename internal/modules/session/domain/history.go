package domain

import (
	"sort"
	"time"
)

const SchemaVersion = 1

const topSitesLimit = 5

type SiteTime struct {
	Host    string `json:"host"`
	Seconds int64  `json:"seconds"`
}

// Analytics is the per-session accumulator folded into history on completion.
type Analytics struct {
	CategoryCounts    map[string]int `json:"categoryCounts"`
	TopSites          []SiteTime     `json:"topSites"`
	TotalDistractions int            `json:"totalDistractions"`
}

type HistoryEntry struct {
	SessionID       string    `json:"sessionId"`
	Topic           string    `json:"topic"`
	Date            string    `json:"date"`
	StartedAt       int64     `json:"startedAt"`
	CompletedAt     int64     `json:"completedAt"`
	DurationSeconds int64     `json:"durationSeconds"`
	Analytics       Analytics `json:"analytics"`
}

// NewHistoryEntry records a session that reached its deadline. The focused time is
// the requested budget since pauses stop the clock.
func NewHistoryEntry(s Session, analytics Analytics, completedAt time.Time) HistoryEntry {
	if analytics.CategoryCounts == nil {
		analytics.CategoryCounts = map[string]int{}
	}
	analytics.TopSites = TopSites(analytics.TopSites, topSitesLimit)
	return HistoryEntry{
		SessionID:       s.ID,
		Topic:           s.Topic,
		Date:            completedAt.UTC().Format("2006-01-02"),
		StartedAt:       s.StartedAt,
		CompletedAt:     completedAt.UnixMilli(),
		DurationSeconds: s.DurationSeconds,
		Analytics:       analytics,
	}
}

// TopSites orders by time spent, longest first, ties by host, and keeps at most limit.
func TopSites(sites []SiteTime, limit int) []SiteTime {
	out := append([]SiteTime(nil), sites...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Seconds != out[j].Seconds {
			return out[i].Seconds > out[j].Seconds
		}
		return out[i].Host < out[j].Host
	})
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []SiteTime{}
	}
	return out
}
