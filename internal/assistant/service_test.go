package assistant

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/errors"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/internal/upstream/geocode"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

type stubAggregator struct {
	mu       sync.Mutex
	insights map[string]*models.PriceInsight
	errs     map[string]error
	calls    []string
}

func (s *stubAggregator) Aggregate(ctx context.Context, state, commodity string) (*models.PriceInsight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := state + "/" + commodity
	s.calls = append(s.calls, key)
	if err, ok := s.errs[key]; ok {
		return nil, err
	}
	if ins, ok := s.insights[key]; ok {
		return ins, nil
	}
	return nil, &errors.NoDataError{State: state, Commodity: commodity}
}

type stubPlaces struct {
	err error
}

func (s *stubPlaces) Lookup(ctx context.Context, place string) (*geocode.Place, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &geocode.Place{Name: place, Latitude: 20.0, Longitude: 77.0, Country: "IN"}, nil
}

type stubForecasts struct {
	forecast *models.Forecast
	err      error
}

func (s *stubForecasts) Forecast(ctx context.Context, place string, lat, lon float64) (*models.Forecast, error) {
	if s.err != nil {
		return nil, s.err
	}
	f := *s.forecast
	f.Place = place
	return &f, nil
}

type stubProfiles struct {
	profiles map[string]*models.UserProfile
}

func (s *stubProfiles) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, errors.NewProfileNotFoundError(userID)
	}
	return p, nil
}

func (s *stubProfiles) GetBatch(ctx context.Context, userIDs []string) ([]*models.UserProfile, error) {
	var out []*models.UserProfile
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func wheatInsight(state string) *models.PriceInsight {
	return &models.PriceInsight{
		Commodity:  "wheat",
		State:      state,
		WindowDays: 14,
		Records: []models.PriceRecord{
			{Market: "jaipur", State: state, Commodity: "wheat", ModalPrice: 2100},
		},
		MinModal:   2100,
		MaxModal:   2100,
		MinMarkets: []string{"jaipur"},
		MaxMarkets: []string{"jaipur"},
	}
}

func twoDayForecast() *models.Forecast {
	return &models.Forecast{
		Days: []models.DailyForecast{
			{Date: "2024-07-15", TempMinC: 22, TempMaxC: 30},
			{Date: "2024-07-16", TempMinC: 23, TempMaxC: 31, PrecipProbMaxPct: 85, PrecipitationMM: 14.2, WindMaxKmh: 20, HumidityMeanPct: 75},
		},
	}
}

func newTestService(t *testing.T, agg *stubAggregator, places PlaceSource, forecasts ForecastSource, profiles ProfileSource) *Service {
	t.Helper()
	return NewService(Deps{
		Tables:     registry.Default(),
		Aggregator: agg,
		Places:     places,
		Forecasts:  forecasts,
		Profiles:   profiles,
		Timeout:    time.Second,
		Logger:     logger.NewNoOpLogger(),
	})
}

func TestAnswerMarketPricePipeline(t *testing.T) {
	agg := &stubAggregator{insights: map[string]*models.PriceInsight{
		"rajasthan/wheat": wheatInsight("rajasthan"),
	}}
	svc := newTestService(t, agg, nil, nil, nil)

	ans := svc.Answer(context.Background(), Query{Text: "what is the price of wheat in 302031"})

	assert.Equal(t, models.IntentMarketPrice, ans.Intent)
	require.NotNil(t, ans.Location)
	assert.Equal(t, "rajasthan", ans.Location.State)
	assert.Equal(t, models.LocationTierPincode, ans.Location.Tier)
	require.NotNil(t, ans.Commodity)
	assert.Equal(t, "wheat", ans.Commodity.Name)
	assert.Equal(t, models.CommodityTierExact, ans.Commodity.Tier)
	require.NotNil(t, ans.Insight)
	assert.NotEmpty(t, ans.RequestID)
	assert.NotEmpty(t, ans.GeneratedAt)
	assert.Empty(t, ans.ErrorCode)
	assert.Equal(t, []string{"rajasthan/wheat"}, agg.calls)
}

func TestAnswerMarketPriceNoData(t *testing.T) {
	agg := &stubAggregator{}
	svc := newTestService(t, agg, nil, nil, nil)

	ans := svc.Answer(context.Background(), Query{Text: "what is the price of wheat in 302031"})

	assert.Equal(t, "NO_DATA_FOUND", ans.ErrorCode)
	assert.Contains(t, ans.Text, "Wheat")
	assert.Contains(t, ans.Text, "Rajasthan")
	assert.Nil(t, ans.Insight)
}

func TestAnswerMarketPriceClarifiesMissingLocation(t *testing.T) {
	agg := &stubAggregator{}
	svc := newTestService(t, agg, nil, nil, nil)

	ans := svc.Answer(context.Background(), Query{Text: "price of wheat"})

	require.NotNil(t, ans.Clarification)
	assert.Equal(t, "location", ans.Clarification.Missing)
	assert.Empty(t, agg.calls, "no fetch without a resolved location")
}

func TestAnswerDefaultsLocationFromProfile(t *testing.T) {
	agg := &stubAggregator{insights: map[string]*models.PriceInsight{
		"rajasthan/wheat": wheatInsight("rajasthan"),
	}}
	svc := newTestService(t, agg, nil, nil, nil)

	ans := svc.Answer(context.Background(), Query{
		Text:    "price of wheat",
		Profile: &models.UserProfile{ID: "u1", Pincode: "302031"},
	})

	require.NotNil(t, ans.Location)
	assert.Equal(t, "rajasthan", ans.Location.State)
	assert.Equal(t, models.LocationTierPincode, ans.Location.Tier)
	require.NotNil(t, ans.Insight)
}

func TestAnswerWeather(t *testing.T) {
	svc := newTestService(t, &stubAggregator{}, &stubPlaces{}, &stubForecasts{forecast: twoDayForecast()}, nil)

	ans := svc.Answer(context.Background(), Query{Text: "will it rain tomorrow in nashik"})

	assert.Equal(t, models.IntentWeather, ans.Intent)
	require.NotNil(t, ans.Forecast)
	assert.Contains(t, ans.Text, "chance of rain")
	assert.Empty(t, ans.ErrorCode)
}

func TestAnswerWeatherUpstreamFailureDegrades(t *testing.T) {
	svc := newTestService(t, &stubAggregator{}, &stubPlaces{}, &stubForecasts{err: fmt.Errorf("boom: %w", errors.ErrUpstreamTimeout)}, nil)

	ans := svc.Answer(context.Background(), Query{Text: "weather in jaipur"})

	assert.Equal(t, "WEATHER_API_TIMEOUT", ans.ErrorCode)
	assert.Nil(t, ans.Forecast)
	assert.NotEmpty(t, ans.Text)
}

func TestAnswerGeneralFallback(t *testing.T) {
	svc := newTestService(t, &stubAggregator{}, nil, nil, nil)

	ans := svc.Answer(context.Background(), Query{Text: "hello there"})

	assert.Equal(t, models.IntentGeneral, ans.Intent)
	assert.NotEmpty(t, ans.Text)
	assert.NotEmpty(t, ans.RequestID)
}

func TestAnswerIsDeterministicOnResolution(t *testing.T) {
	svc := newTestService(t, &stubAggregator{}, nil, nil, nil)

	first := svc.Answer(context.Background(), Query{Text: "price of chana in jaipur"})
	second := svc.Answer(context.Background(), Query{Text: "price of chana in jaipur"})

	assert.Equal(t, first.Location, second.Location)
	assert.Equal(t, first.Commodity, second.Commodity)
	assert.Equal(t, first.Intent, second.Intent)
}

func TestAnswerForUsersBatchIsolation(t *testing.T) {
	agg := &stubAggregator{
		insights: map[string]*models.PriceInsight{
			"rajasthan/wheat": wheatInsight("rajasthan"),
		},
		errs: map[string]error{
			"kerala/rice": stderrors.New("connection reset"),
		},
	}
	profiles := &stubProfiles{profiles: map[string]*models.UserProfile{
		"u1": {ID: "u1", State: "rajasthan", Commodities: []string{"wheat"}},
		"u2": {ID: "u2", State: "kerala", Commodities: []string{"rice"}},
	}}
	svc := newTestService(t, agg, nil, nil, profiles)

	answers := svc.AnswerForUsers(context.Background(), []string{"u1", "u2", "ghost"})

	require.Len(t, answers, 3)

	ok := answers["u1"]
	require.NotNil(t, ok.Insight)
	assert.Empty(t, ok.ErrorCode)

	failed := answers["u2"]
	assert.Nil(t, failed.Insight)
	assert.NotEmpty(t, failed.ErrorCode)
	assert.NotEmpty(t, failed.Text)

	unknown := answers["ghost"]
	assert.NotEmpty(t, unknown.Text)
}

func TestDigestFetchesMarketAndWeatherConcurrently(t *testing.T) {
	agg := &stubAggregator{insights: map[string]*models.PriceInsight{
		"rajasthan/wheat": wheatInsight("rajasthan"),
	}}
	svc := newTestService(t, agg, &stubPlaces{}, &stubForecasts{forecast: twoDayForecast()}, nil)

	ans := svc.digest(context.Background(), "u1", &models.UserProfile{
		ID: "u1", State: "rajasthan", Commodities: []string{"wheat"},
	})

	require.NotNil(t, ans.Insight)
	require.NotNil(t, ans.Forecast)
}

func TestDigestWeatherFailureKeepsMarketResult(t *testing.T) {
	agg := &stubAggregator{insights: map[string]*models.PriceInsight{
		"rajasthan/wheat": wheatInsight("rajasthan"),
	}}
	svc := newTestService(t, agg, &stubPlaces{err: stderrors.New("geocode down")}, &stubForecasts{forecast: twoDayForecast()}, nil)

	ans := svc.digest(context.Background(), "u1", &models.UserProfile{
		ID: "u1", State: "rajasthan", Commodities: []string{"wheat"},
	})

	require.NotNil(t, ans.Insight, "market result survives the weather failure")
	assert.Nil(t, ans.Forecast)
}
