package dto

type StartInput struct {
	Topic           string
	DurationSeconds int64
}

// Session is the wire view of the singleton session. Stage NONE means no session.
type Session struct {
	ID               string `json:"id,omitempty"`
	Stage            string `json:"stage"`
	Topic            string `json:"topic,omitempty"`
	StartedAt        int64  `json:"startedAt,omitempty"`
	DurationSeconds  int64  `json:"durationSeconds,omitempty"`
	EndTime          *int64 `json:"endTime,omitempty"`
	RemainingSeconds *int64 `json:"remainingSeconds,omitempty"`
	CompletedAt      *int64 `json:"completedAt,omitempty"`
}

type SiteTime struct {
	Host    string `json:"host"`
	Seconds int64  `json:"seconds"`
}

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

// Preset is a named duration offered to session starters.
type Preset struct {
	Label   string `json:"label"`
	Seconds int64  `json:"seconds"`
}
