// Package intent labels free-text agricultural queries with a primary intent
// and pulls out the raw location/commodity mentions that feed the resolvers.
package intent

import (
	"regexp"
	"strings"

	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

// Result carries the classification outcome. Spans are raw substrings of the
// query, not canonical entities; empty means no mention was found.
type Result struct {
	Intent        models.Intent `json:"intent"`
	LocationSpan  string        `json:"locationSpan,omitempty"`
	CommoditySpan string        `json:"commoditySpan,omitempty"`
}

// patternGroup binds a compiled keyword set to an intent. Groups are evaluated
// in slice order and the first match wins, so priority lives in the table
// below, not in code structure.
type patternGroup struct {
	name     string
	intent   models.Intent
	patterns []*regexp.Regexp
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// Priority order: growing-cost > policy > weather > market > agri-advice.
// Growing-cost phrases must outrank the generic "cost"/"price" market
// keywords or "cost to grow wheat" would be misrouted to a price lookup.
var patternGroups = []patternGroup{
	{
		name:   "growing-cost",
		intent: models.IntentGrowingCost,
		patterns: compile(
			`cost (?:to|of) grow(?:ing)?`,
			`cultivation cost`,
			`cost of cultivation`,
			`production cost`,
			`input cost`,
			`kharcha`,
		),
	},
	{
		name:   "policy",
		intent: models.IntentPolicy,
		patterns: compile(
			`\bscheme\b`,
			`\bsubsid(?:y|ies)\b`,
			`\byojana\b`,
			`\bpm[- ]?kisan\b`,
			`\bkisan credit\b`,
			`\bkcc\b`,
			`\bcrop insurance\b`,
			`\bloan\b`,
			`\bmsp\b`,
		),
	},
	{
		name:   "weather",
		intent: models.IntentWeather,
		patterns: compile(
			`\bweather\b`,
			`\bforecast\b`,
			`\brain(?:fall|ing)?\b`,
			`\btemperature\b`,
			`\bhumidity\b`,
			`\bwind\b`,
			`\bmausam\b`,
			`\bbarish\b`,
		),
	},
	{
		name:   "market-price",
		intent: models.IntentMarketPrice,
		patterns: compile(
			`\bprices?\b`,
			`\brates?\b`,
			`\bmandi\b`,
			`\bbhav\b`,
			`\bmarket\b`,
			`\bsell(?:ing)?\b`,
			`\bcost\b`,
		),
	},
	{
		name:   "agri-advice",
		intent: models.IntentAgriAdvice,
		patterns: compile(
			`how (?:to|do i|can i) (?:grow|plant|sow)`,
			`\bfertili[sz]er\b`,
			`\bpest(?:icide)?s?\b`,
			`\bdiseases?\b`,
			`\bseeds?\b`,
			`\bsowing\b`,
			`\birrigation\b`,
			`\bharvest(?:ing)?\b`,
			`\badvice\b`,
		),
	},
}

var (
	pincodeSpan = regexp.MustCompile(`\b[1-9][0-9]{5}\b`)

	// Prepositional location patterns. The span runs to end of text or the
	// next clause boundary.
	locationSpan = regexp.MustCompile(`\b(?:in|at|near)\s+([a-z][a-z0-9 ]*?)(?:\s+(?:today|tomorrow|now)\b|[?.,!]|$)`)

	// "price of X" / "rate for X" style commodity patterns.
	commoditySpan = regexp.MustCompile(`\b(?:price|prices|rate|rates|cost|bhav)\s+(?:of|for)\s+([a-z][a-z ]*?)(?:\s+(?:in|at|near|today|tomorrow)\b|[?.,!]|$)`)
)

// Filler tokens stripped when falling back to the whole remaining text as an
// entity span.
var stopTokens = map[string]struct{}{
	"what": {}, "is": {}, "the": {}, "a": {}, "an": {}, "of": {}, "for": {},
	"price": {}, "prices": {}, "rate": {}, "rates": {}, "cost": {}, "bhav": {},
	"mandi": {}, "market": {}, "current": {}, "today": {}, "tomorrow": {},
	"tell": {}, "me": {}, "about": {}, "please": {}, "my": {}, "much": {},
	"how": {}, "weather": {}, "forecast": {}, "will": {}, "it": {},
}

// Classifier is stateless apart from the canonical tables, which it only
// reads; concurrent use is safe.
type Classifier struct {
	tables *registry.Tables
}

func NewClassifier(tables *registry.Tables) *Classifier {
	return &Classifier{tables: tables}
}

// Classify labels the query and extracts raw entity spans. It is total:
// unmatched text yields IntentGeneral with whatever spans could be found.
func (c *Classifier) Classify(text string) Result {
	normalized := registry.Normalize(text)

	res := Result{Intent: models.IntentGeneral}
	for _, group := range patternGroups {
		if matchesAny(normalized, group.patterns) {
			res.Intent = group.intent
			break
		}
	}

	res.LocationSpan = c.extractLocation(normalized)
	res.CommoditySpan = c.extractCommodity(normalized, res.LocationSpan)
	return res
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// extractLocation prefers a 6-digit pincode anywhere in the text, then a
// prepositional phrase. Pincodes are unambiguous so they are checked first.
func (c *Classifier) extractLocation(text string) string {
	if pin := pincodeSpan.FindString(text); pin != "" {
		return pin
	}
	if m := locationSpan.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractCommodity tries the "price of X" patterns first, then scans the
// remaining tokens for a vocabulary or synonym hit, and finally offers the
// filler-stripped residue as a last-resort span for the resolver's fuzzy tier.
func (c *Classifier) extractCommodity(text, location string) string {
	if m := commoditySpan.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	remaining := text
	if location != "" {
		remaining = strings.Replace(remaining, location, "", 1)
	}

	var kept []string
	for _, tok := range strings.Fields(remaining) {
		tok = strings.Trim(tok, "?.,!")
		if tok == "" {
			continue
		}
		if _, skip := stopTokens[tok]; skip {
			continue
		}
		if tok == "in" || tok == "at" || tok == "near" {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return ""
	}

	// Prefer a token (or bigram) the vocabulary already knows.
	for i := range kept {
		if i+1 < len(kept) {
			bigram := kept[i] + " " + kept[i+1]
			if _, ok := c.tables.CanonicalCommodity(bigram); ok {
				return bigram
			}
			if _, ok := c.tables.SynonymOf(bigram); ok {
				return bigram
			}
		}
		if _, ok := c.tables.CanonicalCommodity(kept[i]); ok {
			return kept[i]
		}
		if _, ok := c.tables.SynonymOf(kept[i]); ok {
			return kept[i]
		}
	}

	return strings.Join(kept, " ")
}
