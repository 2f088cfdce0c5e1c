package market

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/errors"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
)

type stubSource struct {
	records []models.PriceRecord
	err     error
}

func (s *stubSource) FetchPrices(ctx context.Context, state, commodity string) ([]models.PriceRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

var testNow = time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

func newAggregator(t *testing.T, source PriceSource) *Aggregator {
	t.Helper()
	a := NewAggregator(source, 14, logger.NewTestLogger(t))
	a.now = func() time.Time { return testNow }
	return a
}

func record(commodity, market, state string, daysAgo int, modal float64) models.PriceRecord {
	return models.PriceRecord{
		Commodity:  commodity,
		Market:     market,
		State:      state,
		Date:       testNow.AddDate(0, 0, -daysAgo),
		MinPrice:   modal - 100,
		MaxPrice:   modal + 100,
		ModalPrice: modal,
	}
}

func TestAggregateFiltersUntrustedUpstream(t *testing.T) {
	// Upstream ignores both filters and returns a mixed dump.
	source := &stubSource{records: []models.PriceRecord{
		record("rice", "Jaipur Mandi", "rajasthan", 2, 2400),
		record("apple", "Jaipur Mandi", "rajasthan", 1, 9000),
		record("beetroot", "Kota Mandi", "rajasthan", 3, 1800),
		record("rice", "Ludhiana Mandi", "punjab", 1, 2500),
		record("rice", "Kota Mandi", "rajasthan", 4, 2300),
	}}
	a := newAggregator(t, source)

	insight, err := a.Aggregate(context.Background(), "rajasthan", "rice")
	require.NoError(t, err)

	require.Len(t, insight.Records, 2)
	for _, rec := range insight.Records {
		assert.Equal(t, "rice", rec.Commodity)
		assert.Equal(t, "rajasthan", rec.State)
	}
}

func TestAggregateRecencyWindow(t *testing.T) {
	source := &stubSource{records: []models.PriceRecord{
		record("wheat", "Karnal Mandi", "haryana", 1, 2100),
		record("wheat", "Hisar Mandi", "haryana", 13, 2000),
		record("wheat", "Old Mandi", "haryana", 20, 1900),
	}}
	a := newAggregator(t, source)

	insight, err := a.Aggregate(context.Background(), "haryana", "wheat")
	require.NoError(t, err)

	require.Len(t, insight.Records, 2)
	assert.Equal(t, "Karnal Mandi", insight.Records[0].Market)
	assert.Equal(t, "Hisar Mandi", insight.Records[1].Market)
}

func TestAggregateDeduplicatesByMarket(t *testing.T) {
	source := &stubSource{records: []models.PriceRecord{
		record("onion", "Lasalgaon Mandi", "maharashtra", 5, 1500),
		record("onion", "Lasalgaon Mandi", "maharashtra", 1, 1700),
		record("onion", "Nashik Mandi", "maharashtra", 2, 1600),
	}}
	a := newAggregator(t, source)

	insight, err := a.Aggregate(context.Background(), "maharashtra", "onion")
	require.NoError(t, err)

	require.Len(t, insight.Records, 2)
	// Most recent record per market survives, ordered by date descending.
	assert.Equal(t, "Lasalgaon Mandi", insight.Records[0].Market)
	assert.Equal(t, 1700.0, insight.Records[0].ModalPrice)
	assert.Equal(t, "Nashik Mandi", insight.Records[1].Market)
}

func TestAggregateComputesExtremes(t *testing.T) {
	source := &stubSource{records: []models.PriceRecord{
		record("wheat", "A Mandi", "punjab", 1, 2200),
		record("wheat", "B Mandi", "punjab", 2, 2000),
		record("wheat", "C Mandi", "punjab", 3, 2600),
		record("wheat", "D Mandi", "punjab", 4, 2000),
	}}
	a := newAggregator(t, source)

	insight, err := a.Aggregate(context.Background(), "punjab", "wheat")
	require.NoError(t, err)

	assert.Equal(t, 2000.0, insight.MinModal)
	assert.Equal(t, 2600.0, insight.MaxModal)
	assert.ElementsMatch(t, []string{"B Mandi", "D Mandi"}, insight.MinMarkets)
	assert.Equal(t, []string{"C Mandi"}, insight.MaxMarkets)
	assert.Equal(t, 14, insight.WindowDays)
}

func TestAggregateNoDataError(t *testing.T) {
	tests := []struct {
		name    string
		records []models.PriceRecord
	}{
		{
			name:    "upstream empty",
			records: nil,
		},
		{
			name: "nothing survives commodity filter",
			records: []models.PriceRecord{
				record("apple", "Shimla Mandi", "himachal pradesh", 1, 8000),
			},
		},
		{
			name: "nothing survives recency filter",
			records: []models.PriceRecord{
				record("wheat", "Karnal Mandi", "haryana", 30, 2100),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAggregator(t, &stubSource{records: tt.records})

			insight, err := a.Aggregate(context.Background(), "haryana", "wheat")
			assert.Nil(t, insight)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrNoDataFound))

			var noData *errors.NoDataError
			require.True(t, stderrors.As(err, &noData))
			assert.Equal(t, "haryana", noData.State)
			assert.Equal(t, "wheat", noData.Commodity)
			assert.Equal(t, 14, noData.WindowDays)
		})
	}
}

func TestAggregatePropagatesSourceError(t *testing.T) {
	a := newAggregator(t, &stubSource{err: errors.ErrUpstreamTimeout})

	insight, err := a.Aggregate(context.Background(), "punjab", "rice")
	assert.Nil(t, insight)
	assert.True(t, stderrors.Is(err, errors.ErrUpstreamTimeout))
}

func TestAggregateCaseInsensitiveUpstreamFields(t *testing.T) {
	source := &stubSource{records: []models.PriceRecord{
		{
			Commodity:  "Wheat",
			Market:     "Karnal Mandi",
			State:      "Haryana",
			Date:       testNow.AddDate(0, 0, -1),
			ModalPrice: 2150,
		},
	}}
	a := newAggregator(t, source)

	insight, err := a.Aggregate(context.Background(), "haryana", "wheat")
	require.NoError(t, err)
	require.Len(t, insight.Records, 1)
}
