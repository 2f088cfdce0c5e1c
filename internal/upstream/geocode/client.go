// Package geocode resolves free-text place names to coordinates and states
// via the open-meteo geocoding API. It serves two callers: the location
// cascade's last-resort state lookup, and the weather pipeline's coordinate
// lookup.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/config"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/errors"
	commonhttp "github.com/dark-devil9/Krishi-Mitra/internal/common/http"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/metrics"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

// Place is one geocoding hit.
type Place struct {
	Name      string
	Admin1    string // state-level division
	Latitude  float64
	Longitude float64
	Country   string // ISO code
}

// Cache stores geocoding hits by normalized place name. Satisfied by
// database.RedisClient; a nil Cache disables caching.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Place names are effectively static; cache entries outlive a price window.
const cacheTTL = 24 * time.Hour

type Client struct {
	baseURL      string
	countryCodes map[string]struct{}
	timeout      time.Duration
	httpClient   *commonhttp.Client
	tables       *registry.Tables
	cache        Cache
	logger       logger.Logger
}

func NewClient(cfg *config.Config, tables *registry.Tables, cache Cache, log logger.Logger) *Client {
	timeout := time.Duration(cfg.APIs.Geocoding.Timeout) * time.Millisecond
	codes := make(map[string]struct{}, len(cfg.APIs.Geocoding.CountryCodes))
	for _, c := range cfg.APIs.Geocoding.CountryCodes {
		codes[strings.ToUpper(c)] = struct{}{}
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.APIs.Geocoding.BaseURL, "/"),
		countryCodes: codes,
		timeout:      timeout,
		httpClient:   commonhttp.NewClient(timeout),
		tables:       tables,
		cache:        cache,
		logger:       log,
	}
}

type wireResult struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Admin1      string  `json:"admin1"`
	CountryCode string  `json:"country_code"`
}

type wireResponse struct {
	Results []wireResult `json:"results"`
}

// Lookup returns the first hit inside the configured countries. A place the
// service does not know yields ErrUnresolvedLocation. Hits are cached;
// negative results are not, so a transient upstream gap never sticks.
func (c *Client) Lookup(ctx context.Context, place string) (*Place, error) {
	cacheKey := "geocode:" + registry.Normalize(place)
	if c.cache != nil {
		var cached Place
		if hit, err := c.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			metrics.CacheRequests.WithLabelValues("geocode", "hit").Inc()
			return &cached, nil
		}
		metrics.CacheRequests.WithLabelValues("geocode", "miss").Inc()
	}

	hit, err := c.lookupUpstream(ctx, place)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, cacheKey, hit, cacheTTL); err != nil {
			c.logger.Warn("geocode cache write failed", map[string]interface{}{
				"place": place, "error": err.Error(),
			})
		}
	}
	return hit, nil
}

func (c *Client) lookupUpstream(ctx context.Context, place string) (*Place, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("name", place)
	q.Set("count", strconv.Itoa(5))
	q.Set("language", "en")
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocoding request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			metrics.UpstreamRequestDuration.WithLabelValues("geocoding", "timeout").Observe(time.Since(start).Seconds())
			return nil, fmt.Errorf("geocoding request: %w", errors.ErrUpstreamTimeout)
		}
		metrics.UpstreamRequestDuration.WithLabelValues("geocoding", "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("geocoding request: %v: %w", err, errors.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequestDuration.WithLabelValues("geocoding", "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("geocoding responded %d: %w", resp.StatusCode, errors.ErrUpstreamUnavailable)
	}

	var body wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues("geocoding", "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("decode geocoding response: %v: %w", err, errors.ErrUpstreamUnavailable)
	}
	metrics.UpstreamRequestDuration.WithLabelValues("geocoding", "ok").Observe(time.Since(start).Seconds())

	for _, r := range body.Results {
		if len(c.countryCodes) > 0 {
			if _, ok := c.countryCodes[strings.ToUpper(r.CountryCode)]; !ok {
				continue
			}
		}
		return &Place{
			Name:      r.Name,
			Admin1:    r.Admin1,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Country:   r.CountryCode,
		}, nil
	}

	return nil, fmt.Errorf("no geocoding hit for %q: %w", place, errors.ErrUnresolvedLocation)
}

// StateFor maps a place to its canonical state through the hit's admin1
// division. Satisfies the location cascade's fallback interface.
func (c *Client) StateFor(ctx context.Context, place string) (string, error) {
	hit, err := c.Lookup(ctx, place)
	if err != nil {
		return "", err
	}

	state, ok := c.tables.CanonicalState(hit.Admin1)
	if !ok {
		c.logger.Debug("geocoding hit outside known states", map[string]interface{}{
			"place": place, "admin1": hit.Admin1,
		})
		return "", fmt.Errorf("unknown state %q for %q: %w", hit.Admin1, place, errors.ErrUnresolvedLocation)
	}
	return state, nil
}
