package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

type stubGeocoder struct {
	state string
	err   error
	calls int
}

func (s *stubGeocoder) StateFor(ctx context.Context, place string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.state, nil
}

func newResolver(t *testing.T, geo Geocoder) *Resolver {
	t.Helper()
	return NewResolver(registry.Default(), geo, 2*time.Second, logger.NewTestLogger(t))
}

func TestResolveDirectTable(t *testing.T) {
	r := newResolver(t, nil)

	tests := []struct {
		name          string
		span          string
		expectedState string
		expectedTier  models.LocationTier
		expectedLevel string
	}{
		{
			name:          "state literal",
			span:          "Rajasthan",
			expectedState: "rajasthan",
			expectedTier:  models.LocationTierDirect,
			expectedLevel: models.MatchLevelState,
		},
		{
			name:          "state alias",
			span:          "orissa",
			expectedState: "odisha",
			expectedTier:  models.LocationTierDirect,
			expectedLevel: models.MatchLevelState,
		},
		{
			name:          "city lookup",
			span:          "Jaipur",
			expectedState: "rajasthan",
			expectedTier:  models.LocationTierDirect,
			expectedLevel: models.MatchLevelCity,
		},
		{
			name:          "comma separated city and state agree",
			span:          "Jaipur, Rajasthan",
			expectedState: "rajasthan",
			expectedTier:  models.LocationTierDirect,
			expectedLevel: models.MatchLevelState,
		},
		{
			name:          "explicit state wins over conflicting city",
			span:          "Jaipur, Maharashtra",
			expectedState: "maharashtra",
			expectedTier:  models.LocationTierDirect,
			expectedLevel: models.MatchLevelState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := r.Resolve(context.Background(), tt.span)
			require.True(t, loc.Resolved())
			assert.Equal(t, tt.expectedState, loc.State)
			assert.Equal(t, tt.expectedTier, loc.Tier)
			assert.Equal(t, tt.expectedLevel, loc.MatchedLevel)
			assert.Equal(t, tt.span, loc.Raw)
		})
	}
}

func TestResolvePincode(t *testing.T) {
	r := newResolver(t, nil)

	tests := []struct {
		pincode string
		state   string
	}{
		{pincode: "302031", state: "rajasthan"},
		{pincode: "560001", state: "karnataka"},
		{pincode: "751001", state: "odisha"},
	}

	for _, tt := range tests {
		t.Run(tt.pincode, func(t *testing.T) {
			loc := r.Resolve(context.Background(), tt.pincode)
			require.True(t, loc.Resolved())
			assert.Equal(t, tt.state, loc.State)
			assert.Equal(t, models.LocationTierPincode, loc.Tier)
			assert.Equal(t, models.MatchLevelPincode, loc.MatchedLevel)
		})
	}
}

func TestResolveTokenExtraction(t *testing.T) {
	r := newResolver(t, nil)

	t.Run("filler stripped city", func(t *testing.T) {
		loc := r.Resolve(context.Background(), "near jaipur mandi")
		require.True(t, loc.Resolved())
		assert.Equal(t, "rajasthan", loc.State)
		assert.Equal(t, models.LocationTierExtracted, loc.Tier)
	})

	t.Run("explicit state outranks city token", func(t *testing.T) {
		loc := r.Resolve(context.Background(), "jaipur maharashtra")
		require.True(t, loc.Resolved())
		assert.Equal(t, "maharashtra", loc.State)
		assert.Equal(t, models.LocationTierExtracted, loc.Tier)
		assert.Equal(t, models.MatchLevelState, loc.MatchedLevel)
	})

	t.Run("agreeing city and state resolve via state", func(t *testing.T) {
		loc := r.Resolve(context.Background(), "jaipur rajasthan")
		require.True(t, loc.Resolved())
		assert.Equal(t, "rajasthan", loc.State)
		assert.Equal(t, models.MatchLevelState, loc.MatchedLevel)
	})

	t.Run("multi word state inside noise", func(t *testing.T) {
		loc := r.Resolve(context.Background(), "my village in uttar pradesh state")
		require.True(t, loc.Resolved())
		assert.Equal(t, "uttar pradesh", loc.State)
		assert.Equal(t, models.LocationTierExtracted, loc.Tier)
	})

	t.Run("pincode inside noise", func(t *testing.T) {
		loc := r.Resolve(context.Background(), "my farm 302031 area")
		require.True(t, loc.Resolved())
		assert.Equal(t, "rajasthan", loc.State)
		assert.Equal(t, models.LocationTierExtracted, loc.Tier)
	})
}

func TestResolveGeocodeFallback(t *testing.T) {
	t.Run("geocoder hit", func(t *testing.T) {
		geo := &stubGeocoder{state: "kerala"}
		r := newResolver(t, geo)

		loc := r.Resolve(context.Background(), "wayanad")
		require.True(t, loc.Resolved())
		assert.Equal(t, "kerala", loc.State)
		assert.Equal(t, models.LocationTierGeocoded, loc.Tier)
		assert.Equal(t, 1, geo.calls)
	})

	t.Run("geocoder error degrades to unresolved", func(t *testing.T) {
		geo := &stubGeocoder{err: errors.New("service unavailable")}
		r := newResolver(t, geo)

		loc := r.Resolve(context.Background(), "somewhere remote")
		assert.False(t, loc.Resolved())
		assert.Equal(t, models.LocationTierUnresolved, loc.Tier)
	})

	t.Run("geocoder returning unknown state is a miss", func(t *testing.T) {
		geo := &stubGeocoder{state: "narnia"}
		r := newResolver(t, geo)

		loc := r.Resolve(context.Background(), "somewhere remote")
		assert.False(t, loc.Resolved())
	})

	t.Run("table hit never reaches geocoder", func(t *testing.T) {
		geo := &stubGeocoder{state: "kerala"}
		r := newResolver(t, geo)

		loc := r.Resolve(context.Background(), "jaipur")
		assert.Equal(t, "rajasthan", loc.State)
		assert.Equal(t, 0, geo.calls)
	})
}

func TestResolveUnresolved(t *testing.T) {
	r := newResolver(t, nil)

	tests := []struct {
		name string
		span string
	}{
		{name: "empty span", span: ""},
		{name: "whitespace only", span: "   "},
		{name: "garbage text", span: "zzzz qqqq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := r.Resolve(context.Background(), tt.span)
			assert.False(t, loc.Resolved())
			assert.Equal(t, models.LocationTierUnresolved, loc.Tier)
			assert.Equal(t, tt.span, loc.Raw)
			assert.Empty(t, loc.State)
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := newResolver(t, nil)

	first := r.Resolve(context.Background(), "rice in jaipur rajasthan")
	second := r.Resolve(context.Background(), "rice in jaipur rajasthan")
	assert.Equal(t, first, second)
	assert.Equal(t, "rajasthan", first.State)
}

func TestConfidenceDecreasesWithTier(t *testing.T) {
	geo := &stubGeocoder{state: "kerala"}
	r := newResolver(t, geo)

	direct := r.Resolve(context.Background(), "rajasthan")
	pincode := r.Resolve(context.Background(), "302031")
	extracted := r.Resolve(context.Background(), "near jaipur mandi")
	geocoded := r.Resolve(context.Background(), "wayanad")
	missed := r.Resolve(context.Background(), "")

	assert.GreaterOrEqual(t, direct.Confidence, pincode.Confidence)
	assert.GreaterOrEqual(t, pincode.Confidence, extracted.Confidence)
	assert.GreaterOrEqual(t, extracted.Confidence, geocoded.Confidence)
	assert.GreaterOrEqual(t, geocoded.Confidence, missed.Confidence)
}
