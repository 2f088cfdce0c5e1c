// Package assistant runs the query pipeline: classify, resolve, fetch,
// compose. The pipeline is stateless over read-only canonical tables, so one
// Service instance serves concurrent callers.
package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dark-devil9/Krishi-Mitra/internal/assistant/commodity"
	"github.com/dark-devil9/Krishi-Mitra/internal/assistant/compose"
	"github.com/dark-devil9/Krishi-Mitra/internal/assistant/intent"
	"github.com/dark-devil9/Krishi-Mitra/internal/assistant/location"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/metrics"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/observability"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/internal/upstream/geocode"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

// Query is one user utterance. Profile is optional and only ever read; when
// present it defaults the location for queries that mention none.
type Query struct {
	UserID  string
	Text    string
	Profile *models.UserProfile
}

// PriceAggregator produces a price insight for an exact state/commodity pair.
type PriceAggregator interface {
	Aggregate(ctx context.Context, state, commodity string) (*models.PriceInsight, error)
}

// PlaceSource resolves a free-text place to coordinates.
type PlaceSource interface {
	Lookup(ctx context.Context, place string) (*geocode.Place, error)
}

// ForecastSource returns a multi-day forecast for coordinates.
type ForecastSource interface {
	Forecast(ctx context.Context, place string, lat, lon float64) (*models.Forecast, error)
}

// ProfileSource reads subscriber profiles.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	GetBatch(ctx context.Context, userIDs []string) ([]*models.UserProfile, error)
}

type Service struct {
	classifier  *intent.Classifier
	locations   *location.Resolver
	commodities *commodity.Resolver
	aggregator  PriceAggregator
	places      PlaceSource
	forecasts   ForecastSource
	profiles    ProfileSource
	composer    *compose.Composer
	obs         *observability.Observability
	logger      logger.Logger
}

// Deps collects the service's collaborators. places, forecasts and profiles
// may be nil; the matching pipeline branches then degrade instead of failing.
type Deps struct {
	Tables        *registry.Tables
	Geocoder      location.Geocoder
	Aggregator    PriceAggregator
	Places        PlaceSource
	Forecasts     ForecastSource
	Profiles      ProfileSource
	Timeout       time.Duration
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		classifier:  intent.NewClassifier(d.Tables),
		locations:   location.NewResolver(d.Tables, d.Geocoder, d.Timeout, d.Logger),
		commodities: commodity.NewResolver(d.Tables, d.Logger),
		aggregator:  d.Aggregator,
		places:      d.Places,
		forecasts:   d.Forecasts,
		profiles:    d.Profiles,
		composer:    compose.NewComposer(d.Tables),
		obs:         d.Observability,
		logger:      d.Logger,
	}
}

// Answer runs the full pipeline for one query. It never returns an error:
// every exit path, including upstream failures, yields a well-formed Answer.
func (s *Service) Answer(ctx context.Context, q Query) models.Answer {
	start := time.Now()

	cls := s.classifier.Classify(q.Text)
	metrics.QueriesClassified.WithLabelValues(string(cls.Intent)).Inc()

	locSpan := cls.LocationSpan
	if locSpan == "" && q.Profile != nil {
		locSpan = profileLocationSpan(q.Profile)
	}

	loc := s.locations.Resolve(ctx, locSpan)
	com := s.commodities.Resolve(cls.CommoditySpan)

	in := compose.Inputs{
		Intent:    cls.Intent,
		Location:  loc,
		Commodity: com,
	}

	switch cls.Intent {
	case models.IntentMarketPrice:
		if loc.Resolved() && com.Resolved() {
			in.Insight, in.Err = s.aggregator.Aggregate(ctx, loc.State, com.Name)
		}
	case models.IntentWeather:
		if loc.Resolved() {
			in.Forecast, in.Err = s.fetchForecast(ctx, loc)
		}
	}

	ans := s.composer.Compose(in)
	ans.RequestID = uuid.NewString()

	status := "ok"
	if ans.ErrorCode != "" {
		status = "degraded"
	}
	if s.obs != nil {
		s.obs.RecordQueryProcessed(ctx, string(cls.Intent), status)
		s.obs.RecordQueryDuration(ctx, time.Since(start), status)
	}

	s.logger.Info("query answered", map[string]interface{}{
		"requestId":     ans.RequestID,
		"intent":        string(cls.Intent),
		"locationTier":  int(loc.Tier),
		"commodityTier": int(com.Tier),
		"errorCode":     ans.ErrorCode,
	})
	return ans
}

// AnswerForUsers produces one digest answer per user. Users are processed
// concurrently and isolated from each other: a failure for one user yields a
// degraded answer for that user only.
func (s *Service) AnswerForUsers(ctx context.Context, userIDs []string) map[string]models.Answer {
	out := make(map[string]models.Answer, len(userIDs))
	if len(userIDs) == 0 {
		return out
	}

	profiles := map[string]*models.UserProfile{}
	if s.profiles != nil {
		batch, err := s.profiles.GetBatch(ctx, userIDs)
		if err != nil {
			s.logger.Error("profile batch read failed", map[string]interface{}{"error": err.Error()})
		}
		for _, p := range batch {
			profiles[p.ID] = p
		}
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, id := range userIDs {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			ans := s.digest(ctx, userID, profiles[userID])
			mu.Lock()
			out[userID] = ans
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	return out
}

// digest builds the per-user market+weather answer for the alert batch. The
// two fetches are independent and run concurrently; one failing does not
// cancel the other.
func (s *Service) digest(ctx context.Context, userID string, p *models.UserProfile) models.Answer {
	if p == nil || (p.State == "" && p.Pincode == "") {
		ans := s.Answer(ctx, Query{UserID: userID, Text: ""})
		return ans
	}

	loc := s.locations.Resolve(ctx, profileLocationSpan(p))

	com := models.ResolvedCommodity{Tier: models.CommodityTierUnresolved}
	if len(p.Commodities) > 0 {
		com = s.commodities.Resolve(p.Commodities[0])
	}

	var (
		wg       sync.WaitGroup
		insight  *models.PriceInsight
		forecast *models.Forecast
		priceErr error
	)

	if loc.Resolved() && com.Resolved() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			insight, priceErr = s.aggregator.Aggregate(ctx, loc.State, com.Name)
		}()
	}
	if loc.Resolved() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, err := s.fetchForecast(ctx, loc)
			if err != nil {
				s.logger.Warn("digest forecast failed", map[string]interface{}{
					"userId": userID, "error": err.Error(),
				})
				return
			}
			forecast = f
		}()
	}
	wg.Wait()

	ans := s.composer.Compose(compose.Inputs{
		Intent:    models.IntentMarketPrice,
		Location:  loc,
		Commodity: com,
		Insight:   insight,
		Err:       priceErr,
	})
	ans.RequestID = uuid.NewString()
	ans.Forecast = forecast
	return ans
}

// fetchForecast geocodes the resolved location and fetches its forecast. The
// raw span is tried first since it is more specific than the state.
func (s *Service) fetchForecast(ctx context.Context, loc models.ResolvedLocation) (*models.Forecast, error) {
	if s.places == nil || s.forecasts == nil {
		return nil, nil
	}

	place := registry.Normalize(loc.Raw)
	hit, err := s.places.Lookup(ctx, place)
	if err != nil && place != loc.State {
		hit, err = s.places.Lookup(ctx, loc.State)
	}
	if err != nil {
		return nil, err
	}

	return s.forecasts.Forecast(ctx, hit.Name, hit.Latitude, hit.Longitude)
}

func profileLocationSpan(p *models.UserProfile) string {
	if p.Pincode != "" {
		return p.Pincode
	}
	return p.State
}
