package dto

type CategoryScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type Classification struct {
	Category string          `json:"category"`
	Scores   []CategoryScore `json:"scores"`
}

type SiteTime struct {
	Host    string `json:"host"`
	Seconds int64  `json:"seconds"`
}

type Analytics struct {
	CategoryCounts    map[string]int `json:"categoryCounts"`
	Sites             []SiteTime     `json:"sites"`
	TotalDistractions int            `json:"totalDistractions"`
}
