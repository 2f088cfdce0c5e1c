// Package mandi fetches daily mandi price records from the data.gov.in
// resource API. Responses are cached in redis and the raw records are handed
// to the aggregator, which re-filters them; nothing here trusts the upstream
// filter parameters.
package mandi

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
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
)

// arrival_date wire format used by the resource.
const dateLayout = "02/01/2006"

// Cache stores fetched record sets keyed by state and commodity. Satisfied by
// database.RedisClient; a nil Cache disables caching.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Client calls the data.gov.in resource endpoint with api-key auth and
// offset pagination.
type Client struct {
	baseURL     string
	apiKey      string
	resourceID  string
	pageLimit   int
	recordLimit int
	timeout     time.Duration
	cacheTTL    time.Duration
	httpClient  *commonhttp.Client
	cache       Cache
	logger      logger.Logger
}

func NewClient(cfg *config.Config, cache Cache, log logger.Logger) *Client {
	timeout := time.Duration(cfg.APIs.Mandi.Timeout) * time.Millisecond
	// A non-positive page size would page forever at offset 0.
	pageLimit := cfg.APIs.Mandi.PageLimit
	if pageLimit <= 0 {
		pageLimit = 500
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.APIs.Mandi.BaseURL, "/"),
		apiKey:      cfg.APIs.Mandi.APIKey,
		resourceID:  cfg.APIs.Mandi.ResourceID,
		pageLimit:   pageLimit,
		recordLimit: cfg.Market.RecordLimit,
		timeout:     timeout,
		cacheTTL:    time.Duration(cfg.Market.CacheTTL) * time.Second,
		httpClient:  commonhttp.NewClient(timeout),
		cache:       cache,
		logger:      log,
	}
}

// wireRecord mirrors the resource's JSON. Prices and dates arrive as strings.
type wireRecord struct {
	State       string `json:"state"`
	District    string `json:"district"`
	Market      string `json:"market"`
	Commodity   string `json:"commodity"`
	ArrivalDate string `json:"arrival_date"`
	MinPrice    string `json:"min_price"`
	MaxPrice    string `json:"max_price"`
	ModalPrice  string `json:"modal_price"`
}

type wireResponse struct {
	Records []wireRecord `json:"records"`
	Count   int          `json:"count"`
	Total   int          `json:"total"`
}

// FetchPrices returns raw price records for the state/commodity pair, reading
// through the cache. Malformed rows are skipped, not fatal.
func (c *Client) FetchPrices(ctx context.Context, state, commodity string) ([]models.PriceRecord, error) {
	cacheKey := fmt.Sprintf("mandi:%s:%s", state, commodity)

	if c.cache != nil {
		var cached []models.PriceRecord
		hit, err := c.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			c.logger.Warn("mandi cache read failed", map[string]interface{}{"key": cacheKey, "error": err.Error()})
		} else if hit {
			metrics.CacheRequests.WithLabelValues("mandi", "hit").Inc()
			return cached, nil
		}
		metrics.CacheRequests.WithLabelValues("mandi", "miss").Inc()
	}

	records, err := c.fetchAll(ctx, state, commodity)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, cacheKey, records, c.cacheTTL); err != nil {
			c.logger.Warn("mandi cache write failed", map[string]interface{}{"key": cacheKey, "error": err.Error()})
		}
	}

	return records, nil
}

func (c *Client) fetchAll(ctx context.Context, state, commodity string) ([]models.PriceRecord, error) {
	var out []models.PriceRecord

	for offset := 0; ; offset += c.pageLimit {
		page, err := c.fetchPage(ctx, state, commodity, offset)
		if err != nil {
			return nil, err
		}

		for _, w := range page {
			rec, ok := c.convert(w)
			if !ok {
				continue
			}
			out = append(out, rec)
			if c.recordLimit > 0 && len(out) >= c.recordLimit {
				return out, nil
			}
		}

		if len(page) < c.pageLimit {
			return out, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, state, commodity string, offset int) ([]wireRecord, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, c.resourceID)
	q := url.Values{}
	q.Set("api-key", c.apiKey)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(c.pageLimit))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("filters[state.keyword]", titleCase(state))
	q.Set("filters[commodity]", titleCase(commodity))

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build mandi request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			metrics.UpstreamRequestDuration.WithLabelValues("mandi", "timeout").Observe(time.Since(start).Seconds())
			return nil, fmt.Errorf("mandi request: %w", errors.ErrUpstreamTimeout)
		}
		metrics.UpstreamRequestDuration.WithLabelValues("mandi", "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("mandi request: %v: %w", err, errors.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequestDuration.WithLabelValues("mandi", "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("mandi responded %d: %w", resp.StatusCode, errors.ErrUpstreamUnavailable)
	}

	var body wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues("mandi", "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("decode mandi response: %v: %w", err, errors.ErrUpstreamUnavailable)
	}
	metrics.UpstreamRequestDuration.WithLabelValues("mandi", "ok").Observe(time.Since(start).Seconds())

	return body.Records, nil
}

// convert parses one wire row. Rows with an unparsable date or modal price
// are dropped; min/max default to modal when absent.
func (c *Client) convert(w wireRecord) (models.PriceRecord, bool) {
	date, err := time.Parse(dateLayout, w.ArrivalDate)
	if err != nil {
		c.logger.Debug("skipping record with bad arrival_date", map[string]interface{}{
			"arrival_date": w.ArrivalDate, "market": w.Market,
		})
		return models.PriceRecord{}, false
	}

	modal, err := strconv.ParseFloat(strings.TrimSpace(w.ModalPrice), 64)
	if err != nil || modal <= 0 {
		c.logger.Debug("skipping record with bad modal_price", map[string]interface{}{
			"modal_price": w.ModalPrice, "market": w.Market,
		})
		return models.PriceRecord{}, false
	}

	min, err := strconv.ParseFloat(strings.TrimSpace(w.MinPrice), 64)
	if err != nil {
		min = modal
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(w.MaxPrice), 64)
	if err != nil {
		max = modal
	}

	return models.PriceRecord{
		Commodity:  w.Commodity,
		Market:     w.Market,
		District:   w.District,
		State:      w.State,
		Date:       date,
		MinPrice:   min,
		MaxPrice:   max,
		ModalPrice: modal,
	}, true
}

// titleCase matches the resource's stored casing ("Wheat", "Madhya Pradesh").
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
