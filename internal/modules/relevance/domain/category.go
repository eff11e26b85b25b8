package domain

import "fmt"

type Category struct {
	Label       string
	Description string
}

// Categories is the canonical table in classification order. On equal scores
// the earlier entry wins.
var Categories = []Category{
	{"learning", "educational content, tutorials, documentation, courses, research papers, lectures, technical articles and study material"},
	{"social_media", "social networks, feeds, posts, followers, likes, comments, sharing photos and status updates with friends"},
	{"video_streaming", "watching videos, streaming channels, clips, vlogs, subscriptions, playlists and live streams"},
	{"news", "breaking news, headlines, current events, politics, world affairs, journalism and opinion columns"},
	{"shopping", "online shopping, products, prices, deals, discounts, cart, checkout, reviews and delivery"},
	{"gaming", "video games, gameplay, game reviews, esports, consoles, walkthroughs and multiplayer matches"},
	{"entertainment", "movies, television shows, celebrities, music, memes, comics, humor and pop culture"},
	{"sports", "sports scores, matches, teams, players, leagues, tournaments, transfers and highlights"},
}

type CategoryVector struct {
	Label  string
	Vector []float32
}

type CategoryScore struct {
	Label string
	Score float64
}

// CategoryTable is immutable once built.
type CategoryTable struct {
	entries []CategoryVector
}

func NewCategoryTable(entries []CategoryVector) CategoryTable {
	return CategoryTable{entries: append([]CategoryVector(nil), entries...)}
}

func (t CategoryTable) Len() int {
	return len(t.entries)
}

// Classify scores v against every entry and returns the best label, earliest on ties.
func (t CategoryTable) Classify(v []float32) (string, []CategoryScore, error) {
	if len(t.entries) == 0 {
		return "", nil, fmt.Errorf("category table is empty")
	}
	scores := make([]CategoryScore, 0, len(t.entries))
	best := -1
	for i, entry := range t.entries {
		score, err := Cosine(v, entry.Vector)
		if err != nil {
			return "", nil, fmt.Errorf("score %s: %w", entry.Label, err)
		}
		scores = append(scores, CategoryScore{Label: entry.Label, Score: score})
		if best < 0 || score > scores[best].Score {
			best = i
		}
	}
	return scores[best].Label, scores, nil
}
