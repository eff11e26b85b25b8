package domain

import (
	"sort"
	"time"
)

type SiteTime struct {
	Host    string
	Seconds int64
}

type AnalyticsSnapshot struct {
	CategoryCounts    map[string]int
	Sites             []SiteTime
	TotalDistractions int
}

// Analytics accumulates per-session telemetry. Time between consecutive page
// views is credited to the earlier view's host. Not safe for concurrent use.
type Analytics struct {
	categories   map[string]int
	sites        map[string]time.Duration
	distractions int
	lastHost     string
	lastAt       time.Time
}

func NewAnalytics() *Analytics {
	return &Analytics{categories: map[string]int{}, sites: map[string]time.Duration{}}
}

func (a *Analytics) CountCategory(label string) {
	a.categories[label]++
}

func (a *Analytics) RecordDistraction() {
	a.distractions++
}

func (a *Analytics) TrackSite(host string, at time.Time) {
	if a.lastHost != "" && at.After(a.lastAt) {
		a.sites[a.lastHost] += at.Sub(a.lastAt)
	}
	a.lastHost = host
	a.lastAt = at
}

// Snapshot copies the accumulator, longest-visited sites first.
func (a *Analytics) Snapshot() AnalyticsSnapshot {
	counts := make(map[string]int, len(a.categories))
	for k, v := range a.categories {
		counts[k] = v
	}
	sites := make([]SiteTime, 0, len(a.sites))
	for host, d := range a.sites {
		sites = append(sites, SiteTime{Host: host, Seconds: int64(d / time.Second)})
	}
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Seconds != sites[j].Seconds {
			return sites[i].Seconds > sites[j].Seconds
		}
		return sites[i].Host < sites[j].Host
	})
	return AnalyticsSnapshot{CategoryCounts: counts, Sites: sites, TotalDistractions: a.distractions}
}

func (a *Analytics) Reset() {
	*a = *NewAnalytics()
}
