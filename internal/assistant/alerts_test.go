package assistant

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/config"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
	"github.com/dark-devil9/Krishi-Mitra/pkg/registry"
)

type stubSubscribers struct {
	subs []*models.UserProfile
	err  error
}

func (s *stubSubscribers) ListAlertSubscribers(ctx context.Context) ([]*models.UserProfile, error) {
	return s.subs, s.err
}

type sentEmail struct {
	to, subject, body string
}

type stubEmail struct {
	sent    []sentEmail
	failFor map[string]error
}

func (s *stubEmail) SendAlertEmail(ctx context.Context, from, to, subject, body string) error {
	if err, ok := s.failFor[to]; ok {
		return err
	}
	s.sent = append(s.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

type stubSMS struct {
	sent []string
}

func (s *stubSMS) PublishSMS(ctx context.Context, phone, message, senderID string) error {
	s.sent = append(s.sent, phone)
	return nil
}

func alertConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Alerts = config.AlertsConfig{
		Enabled:            true,
		RainProbabilityPct: 70,
		HeatThresholdC:     42,
		WindThresholdKmh:   50,
	}
	cfg.Notifications.Email.Enabled = true
	cfg.Notifications.Email.FromEmail = "alerts@krishimitra.example"
	cfg.Notifications.SMS.Enabled = true
	cfg.Notifications.SMS.SenderID = "KRISHI"
	return cfg
}

func newAlertService(t *testing.T, agg *stubAggregator, forecasts ForecastSource, subs SubscriberSource, email EmailSender, sms SMSSender) *AlertService {
	t.Helper()

	svc := NewService(Deps{
		Tables:     registry.Default(),
		Aggregator: agg,
		Places:     &stubPlaces{},
		Forecasts:  forecasts,
		Timeout:    time.Second,
		Logger:     logger.NewNoOpLogger(),
	})
	return NewAlertService(svc, subs, email, sms, alertConfig(), logger.NewNoOpLogger())
}

func rajasthanFarmer(id string) *models.UserProfile {
	return &models.UserProfile{
		ID:          id,
		Name:        "Ramesh",
		Email:       id + "@example.com",
		Phone:       "+91987654" + id,
		State:       "rajasthan",
		Commodities: []string{"wheat"},
	}
}

func TestAlertRunSendsHazardDigest(t *testing.T) {
	agg := &stubAggregator{insights: map[string]*models.PriceInsight{
		"rajasthan/wheat": wheatInsight("rajasthan"),
	}}
	email := &stubEmail{}
	sms := &stubSMS{}
	subs := &stubSubscribers{subs: []*models.UserProfile{rajasthanFarmer("u1")}}

	alerts := newAlertService(t, agg, &stubForecasts{forecast: twoDayForecast()}, subs, email, sms)

	summary, err := alerts.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Subscribers)
	assert.Equal(t, 1, summary.Sent)
	assert.Zero(t, summary.Failed)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "u1@example.com", email.sent[0].to)
	assert.Equal(t, "Krishi Mitra weather alert", email.sent[0].subject)
	assert.Contains(t, email.sent[0].body, "heavy rain likely")
	assert.Contains(t, email.sent[0].body, "Mandi update")
	assert.Contains(t, email.sent[0].body, "Ramesh")

	require.Len(t, sms.sent, 1)
}

func TestAlertRunMarketOnlyDigest(t *testing.T) {
	calm := &models.Forecast{Days: []models.DailyForecast{
		{Date: "2024-07-15", TempMaxC: 28},
		{Date: "2024-07-16", TempMaxC: 29, PrecipProbMaxPct: 5, WindMaxKmh: 8},
	}}
	agg := &stubAggregator{insights: map[string]*models.PriceInsight{
		"rajasthan/wheat": wheatInsight("rajasthan"),
	}}
	email := &stubEmail{}
	subs := &stubSubscribers{subs: []*models.UserProfile{rajasthanFarmer("u1")}}

	alerts := newAlertService(t, agg, &stubForecasts{forecast: calm}, subs, email, &stubSMS{})

	summary, err := alerts.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Sent)
	require.Len(t, email.sent, 1)
	assert.Equal(t, "Krishi Mitra mandi digest", email.sent[0].subject)
	assert.NotContains(t, email.sent[0].body, "Weather alert")
}

func TestAlertRunSkipsQuietSubscribers(t *testing.T) {
	calm := &models.Forecast{Days: []models.DailyForecast{
		{Date: "2024-07-15"},
		{Date: "2024-07-16", PrecipProbMaxPct: 5},
	}}
	// no market data and no hazards: nothing worth sending
	agg := &stubAggregator{errs: map[string]error{
		"rajasthan/wheat": stderrors.New("upstream down"),
	}}
	email := &stubEmail{}
	subs := &stubSubscribers{subs: []*models.UserProfile{rajasthanFarmer("u1")}}

	alerts := newAlertService(t, agg, &stubForecasts{forecast: calm}, subs, email, &stubSMS{})

	summary, err := alerts.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Sent)
	assert.Empty(t, email.sent)
}

func TestAlertRunIsolatesDeliveryFailures(t *testing.T) {
	agg := &stubAggregator{insights: map[string]*models.PriceInsight{
		"rajasthan/wheat": wheatInsight("rajasthan"),
	}}
	email := &stubEmail{failFor: map[string]error{
		"u1@example.com": stderrors.New("ses throttled"),
	}}
	subs := &stubSubscribers{subs: []*models.UserProfile{
		rajasthanFarmer("u1"),
		rajasthanFarmer("u2"),
	}}

	alerts := newAlertService(t, agg, &stubForecasts{forecast: twoDayForecast()}, subs, email, &stubSMS{})

	summary, err := alerts.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Sent)
	require.Len(t, email.sent, 1)
	assert.Equal(t, "u2@example.com", email.sent[0].to)
}

func TestAlertRunSubscriberListingFailure(t *testing.T) {
	subs := &stubSubscribers{err: stderrors.New("db down")}
	alerts := newAlertService(t, &stubAggregator{}, &stubForecasts{forecast: twoDayForecast()}, subs, &stubEmail{}, &stubSMS{})

	_, err := alerts.Run(context.Background())
	assert.Error(t, err)
}
