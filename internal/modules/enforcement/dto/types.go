package dto

type PageContent struct {
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	OGDescription string `json:"ogDescription,omitempty"`
	Text          string `json:"text,omitempty"`
}

type EvaluateInput struct {
	URL     string      `json:"url"`
	Content PageContent `json:"content"`
}

// Result is the verdict view. Optional fields are set only for BLOCK and WARN.
type Result struct {
	Verdict    string   `json:"verdict"`
	Reason     string   `json:"reason,omitempty"`
	Topic      string   `json:"topic,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
	Category   string   `json:"category,omitempty"`
}

type Thresholds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}
