// Package commodity resolves raw commodity mentions into the canonical
// vocabulary, correcting typos and synonyms along the way.
package commodity

import (
	"strings"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/metrics"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

var tierConfidence = map[models.CommodityTier]float64{
	models.CommodityTierExact:      0.95,
	models.CommodityTierSynonym:    0.85,
	models.CommodityTierFuzzy:      0.7,
	models.CommodityTierUnresolved: 0,
}

// minFuzzyLen guards the substring tier against trivial matches like "ra"
// hitting "ragi".
const minFuzzyLen = 4

type strategy struct {
	name string
	run  func(span string) (models.ResolvedCommodity, bool)
}

// Resolver walks the exact → synonym → fuzzy cascade. Read-only over the
// canonical tables, safe for concurrent use.
type Resolver struct {
	tables     *registry.Tables
	logger     logger.Logger
	strategies []strategy
}

func NewResolver(tables *registry.Tables, log logger.Logger) *Resolver {
	r := &Resolver{tables: tables, logger: log}
	r.strategies = []strategy{
		{name: "exact", run: r.exact},
		{name: "synonym", run: r.synonym},
		{name: "fuzzy", run: r.fuzzy},
	}
	return r
}

// Resolve never fails: a span no tier recognizes comes back as tier 4 with
// the raw text preserved, and the aggregator must surface that instead of
// broadening the query.
func (r *Resolver) Resolve(span string) models.ResolvedCommodity {
	normalized := registry.Normalize(span)
	if normalized == "" {
		return unresolved(span)
	}

	for _, s := range r.strategies {
		if c, ok := s.run(normalized); ok {
			c.Raw = span
			c.Confidence = tierConfidence[c.Tier]
			metrics.EntityResolutions.WithLabelValues("commodity", tierLabel(c.Tier)).Inc()
			r.logger.Debug("commodity resolved", map[string]interface{}{
				"span":     span,
				"name":     c.Name,
				"tier":     int(c.Tier),
				"strategy": s.name,
			})
			return c
		}
	}

	metrics.EntityResolutions.WithLabelValues("commodity", tierLabel(models.CommodityTierUnresolved)).Inc()
	return unresolved(span)
}

func unresolved(span string) models.ResolvedCommodity {
	return models.ResolvedCommodity{
		Raw:  span,
		Tier: models.CommodityTierUnresolved,
	}
}

func tierLabel(t models.CommodityTier) string {
	switch t {
	case models.CommodityTierExact:
		return "exact"
	case models.CommodityTierSynonym:
		return "synonym"
	case models.CommodityTierFuzzy:
		return "fuzzy"
	default:
		return "unresolved"
	}
}

func (r *Resolver) exact(span string) (models.ResolvedCommodity, bool) {
	name, ok := r.tables.CanonicalCommodity(span)
	if !ok {
		return models.ResolvedCommodity{}, false
	}
	return models.ResolvedCommodity{
		Name: name,
		Tier: models.CommodityTierExact,
	}, true
}

func (r *Resolver) synonym(span string) (models.ResolvedCommodity, bool) {
	name, ok := r.tables.SynonymOf(span)
	if !ok {
		return models.ResolvedCommodity{}, false
	}
	return models.ResolvedCommodity{
		Name:      name,
		Corrected: true,
		Tier:      models.CommodityTierSynonym,
	}, true
}

// fuzzy matches bidirectional substrings: a vocabulary name inside the span
// handles noise ("fresh tomato crate"), the span inside a name handles
// truncations, and plural forms reduce to their singular vocabulary entry.
// The longest matching name wins so "green gram" beats "gram"-like overlaps.
func (r *Resolver) fuzzy(span string) (models.ResolvedCommodity, bool) {
	if len(span) < minFuzzyLen {
		return models.ResolvedCommodity{}, false
	}

	var best string
	for _, name := range r.tables.Commodities() {
		if len(name) < minFuzzyLen {
			continue
		}
		if strings.Contains(span, name) || strings.Contains(name, span) {
			if len(name) > len(best) {
				best = name
			}
		}
	}
	if best == "" {
		return models.ResolvedCommodity{}, false
	}
	return models.ResolvedCommodity{
		Name:      best,
		Corrected: best != span,
		Tier:      models.CommodityTierFuzzy,
	}, true
}
