package mandi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/config"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/errors"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
)

type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func newTestClient(t *testing.T, baseURL string, cache Cache) *Client {
	t.Helper()

	cfg := &config.Config{}
	cfg.APIs.Mandi.BaseURL = baseURL
	cfg.APIs.Mandi.APIKey = "test-key"
	cfg.APIs.Mandi.ResourceID = "resource-id"
	cfg.APIs.Mandi.Timeout = 2000
	cfg.APIs.Mandi.PageLimit = 100
	cfg.Market.RecordLimit = 500
	cfg.Market.CacheTTL = 300

	return NewClient(cfg, cache, logger.NewNoOpLogger())
}

func wirePayload(records ...map[string]string) []byte {
	body := map[string]interface{}{
		"records": records,
		"count":   len(records),
		"total":   len(records),
	}
	raw, _ := json.Marshal(body)
	return raw
}

func wheatRow(market, date, modal string) map[string]string {
	return map[string]string{
		"state":        "Rajasthan",
		"district":     "Jaipur",
		"market":       market,
		"commodity":    "Wheat",
		"arrival_date": date,
		"min_price":    "2000",
		"max_price":    "2300",
		"modal_price":  modal,
	}
}

func TestFetchPricesParsesRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "Rajasthan", r.URL.Query().Get("filters[state.keyword]"))
		assert.Equal(t, "Wheat", r.URL.Query().Get("filters[commodity]"))
		w.Write(wirePayload(
			wheatRow("Jaipur Mandi", "15/07/2024", "2100"),
			wheatRow("Kota Mandi", "14/07/2024", "2250"),
		))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	records, err := client.FetchPrices(context.Background(), "rajasthan", "wheat")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Jaipur Mandi", records[0].Market)
	assert.Equal(t, "Wheat", records[0].Commodity)
	assert.Equal(t, 2100.0, records[0].ModalPrice)
	assert.Equal(t, 2000.0, records[0].MinPrice)
	assert.Equal(t, 2300.0, records[0].MaxPrice)
	assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), records[0].Date)
}

func TestFetchPricesSkipsMalformedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(wirePayload(
			wheatRow("Good Mandi", "15/07/2024", "2100"),
			wheatRow("Bad Date", "2024-07-15", "2100"),
			wheatRow("Bad Price", "15/07/2024", "NR"),
			wheatRow("Zero Price", "15/07/2024", "0"),
		))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	records, err := client.FetchPrices(context.Background(), "rajasthan", "wheat")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Good Mandi", records[0].Market)
}

func TestFetchPricesMissingMinMaxDefaultToModal(t *testing.T) {
	row := wheatRow("Sparse Mandi", "15/07/2024", "2100")
	row["min_price"] = ""
	row["max_price"] = "NR"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(wirePayload(row))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	records, err := client.FetchPrices(context.Background(), "rajasthan", "wheat")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2100.0, records[0].MinPrice)
	assert.Equal(t, 2100.0, records[0].MaxPrice)
}

func TestFetchPricesPaginates(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		switch offset {
		case 0:
			w.Write(wirePayload(
				wheatRow("M1", "15/07/2024", "2000"),
				wheatRow("M2", "15/07/2024", "2050"),
			))
		case 2:
			w.Write(wirePayload(wheatRow("M3", "15/07/2024", "2100")))
		default:
			t.Errorf("unexpected offset %d", offset)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	client.pageLimit = 2

	records, err := client.FetchPrices(context.Background(), "rajasthan", "wheat")
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 2, requests)
}

func TestFetchPricesStopsAtRecordLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rows []map[string]string
		for i := 0; i < 100; i++ {
			rows = append(rows, wheatRow(fmt.Sprintf("M%d", i), "15/07/2024", "2000"))
		}
		w.Write(wirePayload(rows...))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	client.recordLimit = 10

	records, err := client.FetchPrices(context.Background(), "rajasthan", "wheat")
	require.NoError(t, err)
	assert.Len(t, records, 10)
}

func TestFetchPricesUsesCache(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(wirePayload(wheatRow("Jaipur Mandi", "15/07/2024", "2100")))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, newMemoryCache())

	first, err := client.FetchPrices(context.Background(), "rajasthan", "wheat")
	require.NoError(t, err)
	second, err := client.FetchPrices(context.Background(), "rajasthan", "wheat")
	require.NoError(t, err)

	assert.Equal(t, 1, requests)
	assert.Equal(t, first[0].Market, second[0].Market)
	assert.Equal(t, first[0].ModalPrice, second[0].ModalPrice)
}

func TestFetchPricesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)

	_, err := client.FetchPrices(context.Background(), "rajasthan", "wheat")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUpstreamUnavailable)
}

func TestFetchPricesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write(wirePayload())
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	client.timeout = 50 * time.Millisecond

	_, err := client.FetchPrices(context.Background(), "rajasthan", "wheat")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUpstreamTimeout)
}

func TestNewClientDefaultsPageLimit(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(wirePayload(wheatRow("Jaipur Mandi", "01/08/2026", "2100")))
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.APIs.Mandi.BaseURL = srv.URL
	cfg.APIs.Mandi.APIKey = "test-key"
	cfg.APIs.Mandi.ResourceID = "resource-id"
	cfg.APIs.Mandi.Timeout = 2000
	cfg.Market.RecordLimit = 500

	client := NewClient(cfg, nil, logger.NewNoOpLogger())
	assert.Equal(t, 500, client.pageLimit)

	records, err := client.FetchPrices(context.Background(), "rajasthan", "wheat")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, requests)
}

var _ interface {
	FetchPrices(ctx context.Context, state, commodity string) ([]models.PriceRecord, error)
} = (*Client)(nil)
