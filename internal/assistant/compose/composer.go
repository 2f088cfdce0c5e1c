// Package compose assembles resolved entities and fetched data into the
// caller-facing Answer. Every input combination yields a well-formed Answer.
package compose

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/errors"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

// Inputs collects everything the pipeline produced for one query. Exactly one
// of Insight/Forecast/Err is meaningful per intent; the composer routes on
// what it finds.
type Inputs struct {
	Intent    models.Intent
	Location  models.ResolvedLocation
	Commodity models.ResolvedCommodity
	Insight   *models.PriceInsight
	Forecast  *models.Forecast
	Err       error
}

// Composer formats answers from pipeline results. Stateless apart from the
// read-only tables.
type Composer struct {
	tables *registry.Tables
}

func NewComposer(tables *registry.Tables) *Composer {
	return &Composer{tables: tables}
}

// Compose builds the Answer. Unresolved entities for an intent that needs
// them become a clarification naming the missing entity; a NoDataError names
// the exact state/commodity pair; upstream failures degrade to a data-
// unavailable message. A different commodity's data is never substituted.
func (c *Composer) Compose(in Inputs) models.Answer {
	ans := models.Answer{
		Intent:      in.Intent,
		Location:    &in.Location,
		Commodity:   &in.Commodity,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}

	switch in.Intent {
	case models.IntentMarketPrice:
		c.composeMarketPrice(&ans, in)
	case models.IntentWeather:
		c.composeWeather(&ans, in)
	case models.IntentGrowingCost:
		c.composeGrowingCost(&ans, in)
	case models.IntentPolicy:
		ans.Text = "Major central schemes include PM-KISAN income support, the Kisan Credit Card for crop loans, and PMFBY crop insurance. Visit your nearest Common Service Centre or agriculture office with your land records and Aadhaar to check eligibility and apply."
	case models.IntentAgriAdvice:
		c.composeAdvice(&ans, in)
	default:
		ans.Text = "I can help with mandi prices, weather forecasts, growing costs and government schemes. Ask me something like \"wheat price in Jaipur\" or \"will it rain tomorrow in Nashik\"."
	}

	return ans
}

func (c *Composer) composeMarketPrice(ans *models.Answer, in Inputs) {
	if !in.Commodity.Resolved() {
		c.askForCommodity(ans, in.Commodity.Raw)
		return
	}
	if !in.Location.Resolved() {
		c.askForLocation(ans)
		return
	}
	if in.Err != nil {
		c.explainDataFailure(ans, in)
		return
	}
	if in.Insight == nil || len(in.Insight.Records) == 0 {
		ans.ErrorCode = string(errors.ErrCodeNoDataFound)
		ans.Text = noDataText(in.Location.State, in.Commodity.Name, 0)
		return
	}

	insight := in.Insight
	ans.Insight = insight
	ans.Source = "mandi"

	var b strings.Builder
	fmt.Fprintf(&b, "%s prices in %s (last %d days, per quintal): ",
		title(insight.Commodity), title(insight.State), insight.WindowDays)
	if insight.MinModal == insight.MaxModal {
		fmt.Fprintf(&b, "₹%.0f at %s.", insight.MinModal, joinMarkets(insight.MinMarkets))
	} else {
		fmt.Fprintf(&b, "lowest ₹%.0f at %s, highest ₹%.0f at %s.",
			insight.MinModal, joinMarkets(insight.MinMarkets),
			insight.MaxModal, joinMarkets(insight.MaxMarkets))
	}
	fmt.Fprintf(&b, " Based on %d market(s).", len(insight.Records))
	if in.Commodity.Corrected {
		fmt.Fprintf(&b, " (Interpreted %q as %s.)", in.Commodity.Raw, insight.Commodity)
	}
	ans.Text = b.String()
}

func (c *Composer) composeWeather(ans *models.Answer, in Inputs) {
	if !in.Location.Resolved() {
		c.askForLocation(ans)
		return
	}
	if in.Err != nil {
		if stderrors.Is(in.Err, errors.ErrUpstreamTimeout) {
			ans.ErrorCode = string(errors.ErrCodeWeatherTimeout)
		} else {
			ans.ErrorCode = string(errors.ErrCodeWeatherAPIFailed)
		}
		ans.Text = fmt.Sprintf("Weather data for %s is unavailable right now. Please try again in a little while.", title(in.Location.State))
		return
	}
	if in.Forecast == nil || len(in.Forecast.Days) == 0 {
		ans.ErrorCode = string(errors.ErrCodeWeatherAPIFailed)
		ans.Text = fmt.Sprintf("No forecast available for %s right now.", title(in.Location.State))
		return
	}

	ans.Forecast = in.Forecast
	ans.Source = "open-meteo"

	day, ok := in.Forecast.Tomorrow()
	label := "Tomorrow"
	if !ok {
		day = in.Forecast.Days[0]
		label = "Today"
	}
	ans.Text = fmt.Sprintf(
		"%s in %s: %.0f–%.0f°C, %.0f%% chance of rain (%.1f mm expected), wind up to %.0f km/h, humidity around %.0f%%.",
		label, title(in.Forecast.Place),
		day.TempMinC, day.TempMaxC,
		day.PrecipProbMaxPct, day.PrecipitationMM,
		day.WindMaxKmh, day.HumidityMeanPct,
	)
}

func (c *Composer) composeGrowingCost(ans *models.Answer, in Inputs) {
	if !in.Commodity.Resolved() {
		c.askForCommodity(ans, in.Commodity.Raw)
		return
	}
	ans.Text = fmt.Sprintf(
		"Cultivation cost for %s varies with region, seed variety and irrigation. Budget for seed, land preparation, fertilizer, plant protection, irrigation and harvest labour; your district agriculture office publishes per-acre cost norms. Current mandi prices for %s can help you estimate the margin.",
		title(in.Commodity.Name), title(in.Commodity.Name),
	)
}

func (c *Composer) composeAdvice(ans *models.Answer, in Inputs) {
	if in.Commodity.Resolved() {
		ans.Text = fmt.Sprintf(
			"For %s, follow your state agriculture university's package of practices: certified seed, soil-test-based fertilizer doses, and need-based plant protection. Your local Krishi Vigyan Kendra can advise on varieties suited to your area.",
			title(in.Commodity.Name),
		)
		return
	}
	ans.Text = "Your local Krishi Vigyan Kendra is the best source for crop-specific guidance. Tell me which crop you are growing and I can be more specific."
}

func (c *Composer) askForCommodity(ans *models.Answer, raw string) {
	ans.Clarification = &models.Clarification{
		Missing: "commodity",
		Options: c.tables.Commodities(),
	}
	if raw != "" {
		ans.Text = fmt.Sprintf("I could not recognize the crop %q. I can look up prices for: %s.", raw, strings.Join(c.tables.Commodities(), ", "))
		return
	}
	ans.Text = "Which crop do you want prices for? I can look up: " + strings.Join(c.tables.Commodities(), ", ") + "."
}

func (c *Composer) askForLocation(ans *models.Answer) {
	ans.Clarification = &models.Clarification{
		Missing: "location",
		Options: c.tables.States(),
	}
	ans.Text = "Which state or district are you asking about? You can also share your 6-digit pincode."
}

func (c *Composer) explainDataFailure(ans *models.Answer, in Inputs) {
	ans.ErrorCode = errorCodeFor(in.Err)

	var noData *errors.NoDataError
	if stderrors.As(in.Err, &noData) {
		ans.Text = noDataText(noData.State, noData.Commodity, noData.WindowDays)
		return
	}
	if stderrors.Is(in.Err, errors.ErrNoDataFound) {
		ans.Text = noDataText(in.Location.State, in.Commodity.Name, 0)
		return
	}

	// Upstream timeout or outage: same wording shape as no-data, never a
	// substituted answer.
	ans.Text = fmt.Sprintf("The market data service is not responding, so I could not fetch %s prices for %s. Please try again shortly.",
		title(in.Commodity.Name), title(in.Location.State))
}

func errorCodeFor(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrNoDataFound):
		return string(errors.ErrCodeNoDataFound)
	case stderrors.Is(err, errors.ErrUpstreamTimeout):
		return string(errors.ErrCodeMandiTimeout)
	case stderrors.Is(err, errors.ErrUpstreamUnavailable):
		return string(errors.ErrCodeMandiAPIFailed)
	default:
		return string(errors.ErrCodeMandiAPIFailed)
	}
}

func noDataText(state, commodity string, windowDays int) string {
	if windowDays > 0 {
		return fmt.Sprintf("No %s price records found for %s in the last %d days. Data for other crops or states is not a substitute, so I have nothing reliable to report.",
			title(commodity), title(state), windowDays)
	}
	return fmt.Sprintf("No recent %s price records found for %s. Data for other crops or states is not a substitute, so I have nothing reliable to report.",
		title(commodity), title(state))
}

func joinMarkets(markets []string) string {
	if len(markets) == 0 {
		return "unknown market"
	}
	shown := make([]string, len(markets))
	for i, m := range markets {
		shown[i] = title(m)
	}
	return strings.Join(shown, ", ")
}

// title upper-cases the first letter of each word for display. Canonical
// identifiers stay lower-case everywhere else.
func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
