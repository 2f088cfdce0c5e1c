package commodity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(registry.Default(), logger.NewTestLogger(t))
}

func TestResolveCascade(t *testing.T) {
	r := newResolver(t)

	tests := []struct {
		name         string
		span         string
		expectedName string
		expectedTier models.CommodityTier
		corrected    bool
	}{
		{
			name:         "exact canonical match",
			span:         "wheat",
			expectedName: "wheat",
			expectedTier: models.CommodityTierExact,
		},
		{
			name:         "exact match is case insensitive",
			span:         "  Wheat ",
			expectedName: "wheat",
			expectedTier: models.CommodityTierExact,
		},
		{
			name:         "typo corrected via synonym table",
			span:         "chikpea",
			expectedName: "chickpea",
			expectedTier: models.CommodityTierSynonym,
			corrected:    true,
		},
		{
			name:         "vernacular synonym",
			span:         "chana",
			expectedName: "chickpea",
			expectedTier: models.CommodityTierSynonym,
			corrected:    true,
		},
		{
			name:         "dal maps to lentil",
			span:         "dal",
			expectedName: "lentil",
			expectedTier: models.CommodityTierSynonym,
			corrected:    true,
		},
		{
			name:         "plural reduces via substring",
			span:         "tomatoes",
			expectedName: "tomato",
			expectedTier: models.CommodityTierFuzzy,
			corrected:    true,
		},
		{
			name:         "name inside noisy span",
			span:         "fresh onion crate",
			expectedName: "onion",
			expectedTier: models.CommodityTierFuzzy,
			corrected:    true,
		},
		{
			name:         "two word commodity exact",
			span:         "green gram",
			expectedName: "green gram",
			expectedTier: models.CommodityTierExact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := r.Resolve(tt.span)
			require.True(t, c.Resolved())
			assert.Equal(t, tt.expectedName, c.Name)
			assert.Equal(t, tt.expectedTier, c.Tier)
			assert.Equal(t, tt.corrected, c.Corrected)
			assert.Equal(t, tt.span, c.Raw)
		})
	}
}

func TestResolveUnresolved(t *testing.T) {
	r := newResolver(t)

	tests := []struct {
		name string
		span string
	}{
		{name: "empty span", span: ""},
		{name: "unknown word", span: "unobtainium"},
		{name: "too short for fuzzy", span: "xy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := r.Resolve(tt.span)
			assert.False(t, c.Resolved())
			assert.Equal(t, models.CommodityTierUnresolved, c.Tier)
			assert.Equal(t, tt.span, c.Raw)
			assert.Empty(t, c.Name)
		})
	}
}

func TestShortSpanNeverFuzzyMatches(t *testing.T) {
	r := newResolver(t)

	// "ra" appears inside "ragi" but must not match.
	c := r.Resolve("ra")
	assert.False(t, c.Resolved())
}

func TestResolveIsDeterministic(t *testing.T) {
	r := newResolver(t)

	first := r.Resolve("chikpea")
	second := r.Resolve("chikpea")
	assert.Equal(t, first, second)
	assert.True(t, first.Corrected)
}
