package classifyintent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(LoadConfig(), registry.Default(), logger.NewTestLogger(t))
}

func TestExecuteClassifiesMarketQuery(t *testing.T) {
	h := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		Question: "what is the price of wheat in 302031",
	})
	require.NoError(t, err)

	assert.Equal(t, "MARKET_PRICE", out.Intent)
	assert.Equal(t, "302031", out.LocationSpan)
	assert.Equal(t, "wheat", out.CommoditySpan)
}

func TestExecuteClassifiesWeatherQuery(t *testing.T) {
	h := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		Question: "will it rain tomorrow in nashik",
	})
	require.NoError(t, err)

	assert.Equal(t, "WEATHER", out.Intent)
	assert.Equal(t, "nashik", out.LocationSpan)
}

func TestExecuteGrowingCostOutranksPrice(t *testing.T) {
	h := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		Question: "what is the cost to grow onion in maharashtra",
	})
	require.NoError(t, err)

	assert.Equal(t, "GROWING_COST", out.Intent)
}

func TestExecuteEmptyQuestionIsGeneral(t *testing.T) {
	h := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{Question: ""})
	require.NoError(t, err)

	assert.Equal(t, "GENERAL", out.Intent)
	assert.Empty(t, out.LocationSpan)
	assert.Empty(t, out.CommoditySpan)
}
