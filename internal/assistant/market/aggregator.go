// Package market aggregates raw price records into per-query insights. The
// upstream source is never trusted to filter correctly: every record is
// re-checked client-side against the canonical state and commodity.
package market

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/errors"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

// PriceSource fetches raw records for a state/commodity pair. The filters are
// a hint to the upstream, nothing more; callers must re-filter the result.
type PriceSource interface {
	FetchPrices(ctx context.Context, state, commodity string) ([]models.PriceRecord, error)
}

// Aggregator filters, deduplicates and summarizes price records.
type Aggregator struct {
	source     PriceSource
	windowDays int
	logger     logger.Logger

	// now is swapped out in tests to pin the recency window.
	now func() time.Time
}

func NewAggregator(source PriceSource, windowDays int, log logger.Logger) *Aggregator {
	return &Aggregator{
		source:     source,
		windowDays: windowDays,
		logger:     log,
		now:        time.Now,
	}
}

// Aggregate fetches and summarizes prices for a resolved state/commodity
// pair. An empty surviving set after filtering yields a NoDataError scoped to
// exactly that pair; the result is never widened to other commodities or
// states.
func (a *Aggregator) Aggregate(ctx context.Context, state, commodity string) (*models.PriceInsight, error) {
	records, err := a.source.FetchPrices(ctx, state, commodity)
	if err != nil {
		return nil, err
	}

	filtered := a.filter(records, state, commodity)
	deduped := dedupeByMarket(filtered)

	if len(deduped) == 0 {
		a.logger.Info("no price records survived filtering", map[string]interface{}{
			"state":     state,
			"commodity": commodity,
			"fetched":   len(records),
		})
		return nil, &errors.NoDataError{State: state, Commodity: commodity, WindowDays: a.windowDays}
	}

	insight := &models.PriceInsight{
		Commodity:  commodity,
		State:      state,
		WindowDays: a.windowDays,
		Records:    deduped,
	}
	summarize(insight)
	return insight, nil
}

// filter drops records outside the recency window or not matching the exact
// canonical state and commodity. Upstream sources have returned unrelated
// rows under both filters, so this step is mandatory.
func (a *Aggregator) filter(records []models.PriceRecord, state, commodity string) []models.PriceRecord {
	cutoff := a.now().AddDate(0, 0, -a.windowDays)

	out := make([]models.PriceRecord, 0, len(records))
	for _, rec := range records {
		if registry.Normalize(rec.Commodity) != commodity {
			continue
		}
		if registry.Normalize(rec.State) != state {
			continue
		}
		if rec.Date.Before(cutoff) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// dedupeByMarket keeps the most recent record per market, then orders the
// survivors by date descending with market name as a stable tie-break.
func dedupeByMarket(records []models.PriceRecord) []models.PriceRecord {
	newest := make(map[string]models.PriceRecord, len(records))
	for _, rec := range records {
		key := strings.ToLower(strings.TrimSpace(rec.Market))
		if prev, ok := newest[key]; !ok || rec.Date.After(prev.Date) {
			newest[key] = rec
		}
	}

	out := make([]models.PriceRecord, 0, len(newest))
	for _, rec := range newest {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Market < out[j].Market
	})
	return out
}

// summarize fills the modal-price extremes and every market achieving them.
func summarize(insight *models.PriceInsight) {
	if len(insight.Records) == 0 {
		return
	}

	insight.MinModal = insight.Records[0].ModalPrice
	insight.MaxModal = insight.Records[0].ModalPrice
	for _, rec := range insight.Records[1:] {
		if rec.ModalPrice < insight.MinModal {
			insight.MinModal = rec.ModalPrice
		}
		if rec.ModalPrice > insight.MaxModal {
			insight.MaxModal = rec.ModalPrice
		}
	}

	for _, rec := range insight.Records {
		if rec.ModalPrice == insight.MinModal {
			insight.MinMarkets = append(insight.MinMarkets, rec.Market)
		}
		if rec.ModalPrice == insight.MaxModal {
			insight.MaxMarkets = append(insight.MaxMarkets, rec.Market)
		}
	}
}
