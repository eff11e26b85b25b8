package dto

import enforcementdto "lockin/internal/modules/enforcement/dto"

type NavigationEvent struct {
	TabID   int                        `json:"tabId"`
	URL     string                     `json:"url"`
	Kind    string                     `json:"kind"`
	Content enforcementdto.PageContent `json:"content"`
}
