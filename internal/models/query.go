// internal/models/query.go
package models

// Intent labels a query with exactly one primary intent. Classification is
// total: unmatched text falls through to IntentGeneral.
type Intent string

const (
	IntentMarketPrice Intent = "MARKET_PRICE"
	IntentWeather     Intent = "WEATHER"
	IntentGrowingCost Intent = "GROWING_COST"
	IntentPolicy      Intent = "POLICY"
	IntentAgriAdvice  Intent = "AGRI_ADVICE"
	IntentGeneral     Intent = "GENERAL"
)

// Query is a raw free-text question plus optional caller context. The profile
// is owned by the external profile store and is never mutated here.
type Query struct {
	Text    string       `json:"text"`
	Locale  string       `json:"locale,omitempty"`
	Profile *UserProfile `json:"profile,omitempty"`
}

// LocationTier ranks the strategy that produced a resolved location.
// Lower tier means a more direct match; confidence never increases with tier.
type LocationTier int

const (
	LocationTierDirect     LocationTier = 1 // city/state table hit
	LocationTierPincode    LocationTier = 2 // pincode table hit
	LocationTierExtracted  LocationTier = 3 // token extraction against tables
	LocationTierGeocoded   LocationTier = 4 // external geocoder fallback
	LocationTierUnresolved LocationTier = 5
)

// MatchedLevel values for ResolvedLocation.
const (
	MatchLevelCity    = "city"
	MatchLevelState   = "state"
	MatchLevelPincode = "pincode"
)

// ResolvedLocation is the outcome of the location cascade. The tier is always
// carried; callers use it for response wording and confidence.
type ResolvedLocation struct {
	Raw          string       `json:"raw"`
	State        string       `json:"state,omitempty"` // canonical, lower-case
	MatchedLevel string       `json:"matchedLevel,omitempty"`
	Tier         LocationTier `json:"tier"`
	Confidence   float64      `json:"confidence"`
}

// Resolved reports whether the cascade produced a canonical state.
func (l ResolvedLocation) Resolved() bool {
	return l.Tier < LocationTierUnresolved && l.State != ""
}

// CommodityTier ranks the strategy that produced a resolved commodity.
type CommodityTier int

const (
	CommodityTierExact      CommodityTier = 1
	CommodityTierSynonym    CommodityTier = 2
	CommodityTierFuzzy      CommodityTier = 3
	CommodityTierUnresolved CommodityTier = 4
)

// ResolvedCommodity is the outcome of the commodity cascade.
type ResolvedCommodity struct {
	Raw        string        `json:"raw"`
	Name       string        `json:"name,omitempty"` // canonical vocabulary member
	Corrected  bool          `json:"corrected"`
	Tier       CommodityTier `json:"tier"`
	Confidence float64       `json:"confidence"`
}

func (c ResolvedCommodity) Resolved() bool {
	return c.Tier < CommodityTierUnresolved && c.Name != ""
}

// Clarification asks the caller for a missing entity. Options lists the
// recognized values when the vocabulary is small enough to enumerate.
type Clarification struct {
	Missing string   `json:"missing"` // "location" | "commodity"
	Options []string `json:"options,omitempty"`
}

// Answer is the single caller-facing result type. Every pipeline exit path
// produces a well-formed Answer; errors surface as clarification or ErrorCode,
// never as an unhandled failure.
type Answer struct {
	RequestID     string             `json:"requestId"`
	Intent        Intent             `json:"intent"`
	Location      *ResolvedLocation  `json:"location,omitempty"`
	Commodity     *ResolvedCommodity `json:"commodity,omitempty"`
	Text          string             `json:"text"`
	Source        string             `json:"source,omitempty"`
	Insight       *PriceInsight      `json:"insight,omitempty"`
	Forecast      *Forecast          `json:"forecast,omitempty"`
	Clarification *Clarification     `json:"clarification,omitempty"`
	ErrorCode     string             `json:"errorCode,omitempty"`
	GeneratedAt   string             `json:"generatedAt"` // RFC3339 UTC
}
