// internal/workers/assistant/classify-intent/models.go
package classifyintent

type Input struct {
	Question string `json:"question"`
}

type Output struct {
	Intent        string `json:"intent"`
	LocationSpan  string `json:"locationSpan,omitempty"`
	CommoditySpan string `json:"commoditySpan,omitempty"`
}
