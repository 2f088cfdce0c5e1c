// internal/workers/assistant/resolve-query/models.go
package resolvequery

import "github.com/dark-devil9/Krishi-Mitra/internal/models"

type Input struct {
	LocationSpan  string `json:"locationSpan"`
	CommoditySpan string `json:"commoditySpan"`
	UserID        string `json:"userId,omitempty"`
}

type Output struct {
	Location  models.ResolvedLocation  `json:"location"`
	Commodity models.ResolvedCommodity `json:"commodity"`
}
