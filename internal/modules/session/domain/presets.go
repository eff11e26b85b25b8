package domain

import "fmt"

var presetMinutes = []int64{1, 5, 10, 15, 30, 60, 90, 120, 150, 180, 210, 240}

type Preset struct {
	Label   string
	Seconds int64
}

func Presets() []Preset {
	out := make([]Preset, 0, len(presetMinutes))
	for _, m := range presetMinutes {
		out = append(out, Preset{Label: presetLabel(m), Seconds: m * 60})
	}
	return out
}

func presetLabel(minutes int64) string {
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%d min", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
