package dto

type AddResult struct {
	Entry   string `json:"entry"`
	Warning string `json:"warning,omitempty"`
}

type Lists struct {
	AllowList []string `json:"allowList"`
	BlockList []string `json:"blockList"`
}
