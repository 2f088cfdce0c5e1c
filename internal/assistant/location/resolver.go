// Package location resolves free-text place mentions into canonical states
// through an ordered strategy cascade.
package location

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/metrics"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

// Geocoder is the tier-4 fallback. Implementations return the canonical state
// for a free-text place, or an error when the place is unknown or the service
// is unavailable. It is best-effort: any failure moves the cascade on.
type Geocoder interface {
	StateFor(ctx context.Context, place string) (string, error)
}

// Confidence per tier. Monotonically non-increasing with tier number.
var tierConfidence = map[models.LocationTier]float64{
	models.LocationTierDirect:     0.95,
	models.LocationTierPincode:    0.9,
	models.LocationTierExtracted:  0.8,
	models.LocationTierGeocoded:   0.6,
	models.LocationTierUnresolved: 0,
}

// strategy is one rung of the cascade. It reports a miss with ok=false; the
// resolver then moves to the next rung.
type strategy struct {
	name string
	tier models.LocationTier
	run  func(ctx context.Context, span string) (models.ResolvedLocation, bool)
}

// Resolver walks the strategy chain until the first hit. The canonical tables
// are read-only, so a Resolver is safe for concurrent use.
type Resolver struct {
	tables     *registry.Tables
	geocoder   Geocoder
	timeout    time.Duration
	logger     logger.Logger
	strategies []strategy
}

// NewResolver builds the cascade. geocoder may be nil, in which case tier 4
// is skipped entirely.
func NewResolver(tables *registry.Tables, geocoder Geocoder, timeout time.Duration, log logger.Logger) *Resolver {
	r := &Resolver{
		tables:   tables,
		geocoder: geocoder,
		timeout:  timeout,
		logger:   log,
	}
	r.strategies = []strategy{
		{name: "direct-table", tier: models.LocationTierDirect, run: r.direct},
		{name: "pincode", tier: models.LocationTierPincode, run: r.pincode},
		{name: "token-extraction", tier: models.LocationTierExtracted, run: r.extract},
		{name: "geocode", tier: models.LocationTierGeocoded, run: r.geocode},
	}
	return r
}

// Resolve runs the cascade over a raw span. It never fails: when every tier
// misses the result is tier 5 with the original text preserved, and the
// caller decides whether to ask for clarification.
func (r *Resolver) Resolve(ctx context.Context, span string) models.ResolvedLocation {
	normalized := registry.Normalize(span)
	if normalized == "" {
		return unresolved(span)
	}

	for _, s := range r.strategies {
		if loc, ok := s.run(ctx, normalized); ok {
			loc.Raw = span
			loc.Confidence = tierConfidence[loc.Tier]
			metrics.EntityResolutions.WithLabelValues("location", tierLabel(loc.Tier)).Inc()
			r.logger.Debug("location resolved", map[string]interface{}{
				"span":     span,
				"state":    loc.State,
				"tier":     int(loc.Tier),
				"strategy": s.name,
			})
			return loc
		}
	}

	metrics.EntityResolutions.WithLabelValues("location", tierLabel(models.LocationTierUnresolved)).Inc()
	return unresolved(span)
}

func unresolved(span string) models.ResolvedLocation {
	return models.ResolvedLocation{
		Raw:  span,
		Tier: models.LocationTierUnresolved,
	}
}

func tierLabel(t models.LocationTier) string {
	switch t {
	case models.LocationTierDirect:
		return "direct"
	case models.LocationTierPincode:
		return "pincode"
	case models.LocationTierExtracted:
		return "extracted"
	case models.LocationTierGeocoded:
		return "geocoded"
	default:
		return "unresolved"
	}
}

// direct matches the whole normalized span (and its comma-separated pieces)
// against the state and city tables. An explicit state mention wins over a
// city-implied state, so "jaipur, maharashtra" resolves to maharashtra.
func (r *Resolver) direct(_ context.Context, span string) (models.ResolvedLocation, bool) {
	candidates := []string{span}
	for _, part := range strings.Split(span, ",") {
		if p := registry.Normalize(part); p != "" && p != span {
			candidates = append(candidates, p)
		}
	}

	var cityHit *models.ResolvedLocation
	for _, cand := range candidates {
		if state, ok := r.tables.CanonicalState(cand); ok {
			return models.ResolvedLocation{
				State:        state,
				MatchedLevel: models.MatchLevelState,
				Tier:         models.LocationTierDirect,
			}, true
		}
		if state, ok := r.tables.CityState(cand); ok && cityHit == nil {
			cityHit = &models.ResolvedLocation{
				State:        state,
				MatchedLevel: models.MatchLevelCity,
				Tier:         models.LocationTierDirect,
			}
		}
	}
	if cityHit != nil {
		return *cityHit, true
	}
	return models.ResolvedLocation{}, false
}

func (r *Resolver) pincode(_ context.Context, span string) (models.ResolvedLocation, bool) {
	state, ok := r.tables.PincodeState(span)
	if !ok {
		return models.ResolvedLocation{}, false
	}
	return models.ResolvedLocation{
		State:        state,
		MatchedLevel: models.MatchLevelPincode,
		Tier:         models.LocationTierPincode,
	}, true
}

// extract strips filler words and retries the tables over every remaining
// n-gram, up to three words. State hits outrank city hits regardless of
// position, and among state hits the longest mention wins.
func (r *Resolver) extract(_ context.Context, span string) (models.ResolvedLocation, bool) {
	tokens := meaningfulTokens(span)
	if len(tokens) == 0 {
		return models.ResolvedLocation{}, false
	}

	type hit struct {
		state string
		level string
		width int
	}
	var stateHits, cityHits []hit

	for width := 3; width >= 1; width-- {
		for i := 0; i+width <= len(tokens); i++ {
			gram := strings.Join(tokens[i:i+width], " ")
			if state, ok := r.tables.CanonicalState(gram); ok {
				stateHits = append(stateHits, hit{state: state, level: models.MatchLevelState, width: width})
			} else if state, ok := r.tables.CityState(gram); ok {
				cityHits = append(cityHits, hit{state: state, level: models.MatchLevelCity, width: width})
			} else if state, ok := r.tables.PincodeState(gram); ok {
				cityHits = append(cityHits, hit{state: state, level: models.MatchLevelPincode, width: width})
			}
		}
	}

	pick := func(hits []hit) hit {
		sort.SliceStable(hits, func(a, b int) bool { return hits[a].width > hits[b].width })
		return hits[0]
	}

	if len(stateHits) > 0 {
		h := pick(stateHits)
		return models.ResolvedLocation{
			State:        h.state,
			MatchedLevel: h.level,
			Tier:         models.LocationTierExtracted,
		}, true
	}
	if len(cityHits) > 0 {
		h := pick(cityHits)
		return models.ResolvedLocation{
			State:        h.state,
			MatchedLevel: h.level,
			Tier:         models.LocationTierExtracted,
		}, true
	}
	return models.ResolvedLocation{}, false
}

var fillerTokens = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "in": {}, "at": {}, "near": {},
	"district": {}, "city": {}, "village": {}, "mandi": {}, "market": {},
	"state": {}, "area": {}, "region": {}, "my": {},
}

func meaningfulTokens(span string) []string {
	var out []string
	for _, tok := range strings.FieldsFunc(span, func(r rune) bool {
		return r == ' ' || r == ','
	}) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, skip := fillerTokens[tok]; skip {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// geocode asks the external fallback, bounded by the resolver timeout. The
// returned place must still map to a known state; anything else is a miss.
func (r *Resolver) geocode(ctx context.Context, span string) (models.ResolvedLocation, bool) {
	if r.geocoder == nil {
		return models.ResolvedLocation{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	state, err := r.geocoder.StateFor(ctx, span)
	if err != nil {
		r.logger.Warn("geocoding fallback failed", map[string]interface{}{
			"span":  span,
			"error": err.Error(),
		})
		return models.ResolvedLocation{}, false
	}

	canonical, ok := r.tables.CanonicalState(state)
	if !ok {
		return models.ResolvedLocation{}, false
	}
	return models.ResolvedLocation{
		State:        canonical,
		MatchedLevel: models.MatchLevelState,
		Tier:         models.LocationTierGeocoded,
	}, true
}
