package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/config"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/logger"
	"github.com/dark-devil9/Krishi-Mitra/internal/common/metrics"
	"github.com/dark-devil9/Krishi-Mitra/internal/models"
)

// SubscriberSource lists the profiles that opted into alert digests.
type SubscriberSource interface {
	ListAlertSubscribers(ctx context.Context) ([]*models.UserProfile, error)
}

// EmailSender delivers one alert email. Satisfied by the SES client.
type EmailSender interface {
	SendAlertEmail(ctx context.Context, from, to, subject, body string) error
}

// SMSSender delivers one alert SMS. Satisfied by the SNS client.
type SMSSender interface {
	PublishSMS(ctx context.Context, phone, message, senderID string) error
}

// AlertRunSummary reports one batch run. Failed counts users whose digest or
// delivery failed; they never abort the run.
type AlertRunSummary struct {
	Subscribers int
	Sent        int
	Skipped     int
	Failed      int
}

// AlertService builds per-subscriber market+weather digests and pushes the
// ones that cross a hazard threshold out over SES/SNS.
type AlertService struct {
	svc         *Service
	subscribers SubscriberSource
	email       EmailSender
	sms         SMSSender
	cfg         config.AlertsConfig
	fromEmail   string
	senderID    string
	emailOn     bool
	smsOn       bool
	logger      logger.Logger
}

func NewAlertService(svc *Service, subs SubscriberSource, email EmailSender, sms SMSSender, cfg *config.Config, log logger.Logger) *AlertService {
	return &AlertService{
		svc:         svc,
		subscribers: subs,
		email:       email,
		sms:         sms,
		cfg:         cfg.Alerts,
		fromEmail:   cfg.Notifications.Email.FromEmail,
		senderID:    cfg.Notifications.SMS.SenderID,
		emailOn:     cfg.Notifications.Email.Enabled && email != nil,
		smsOn:       cfg.Notifications.SMS.Enabled && sms != nil,
		logger:      log,
	}
}

// Run executes one alert batch. Per-user failures are logged and counted,
// never propagated; the returned error covers only the subscriber listing.
func (a *AlertService) Run(ctx context.Context) (AlertRunSummary, error) {
	subs, err := a.subscribers.ListAlertSubscribers(ctx)
	if err != nil {
		return AlertRunSummary{}, err
	}

	summary := AlertRunSummary{Subscribers: len(subs)}
	for _, p := range subs {
		sent, err := a.alertOne(ctx, p)
		switch {
		case err != nil:
			summary.Failed++
			a.logger.Warn("alert digest failed for user", map[string]interface{}{
				"userId": p.ID, "error": err.Error(),
			})
		case sent:
			summary.Sent++
		default:
			summary.Skipped++
		}
	}

	a.logger.Info("alert batch finished", map[string]interface{}{
		"subscribers": summary.Subscribers,
		"sent":        summary.Sent,
		"skipped":     summary.Skipped,
		"failed":      summary.Failed,
	})
	return summary, nil
}

func (a *AlertService) alertOne(ctx context.Context, p *models.UserProfile) (bool, error) {
	ans := a.svc.digest(ctx, p.ID, p)

	hazards := a.hazards(ans.Forecast)
	if len(hazards) == 0 && ans.Insight == nil {
		return false, nil
	}

	subject, body := a.render(p, ans, hazards)

	delivered := false
	if a.emailOn && p.Email != "" {
		if err := a.email.SendAlertEmail(ctx, a.fromEmail, p.Email, subject, body); err != nil {
			metrics.AlertsGenerated.WithLabelValues("email", "failed").Inc()
			return false, fmt.Errorf("send alert email: %w", err)
		}
		metrics.AlertsGenerated.WithLabelValues("email", "sent").Inc()
		delivered = true
	}
	if a.smsOn && p.Phone != "" {
		if err := a.sms.PublishSMS(ctx, p.Phone, body, a.senderID); err != nil {
			metrics.AlertsGenerated.WithLabelValues("sms", "failed").Inc()
			return false, fmt.Errorf("send alert sms: %w", err)
		}
		metrics.AlertsGenerated.WithLabelValues("sms", "sent").Inc()
		delivered = true
	}

	if !delivered {
		metrics.AlertsGenerated.WithLabelValues("none", "skipped").Inc()
	}
	return delivered, nil
}

// hazards evaluates tomorrow's forecast against the configured thresholds.
func (a *AlertService) hazards(f *models.Forecast) []string {
	if f == nil {
		return nil
	}
	day, ok := f.Tomorrow()
	if !ok {
		return nil
	}

	var out []string
	if day.PrecipProbMaxPct >= a.cfg.RainProbabilityPct {
		out = append(out, fmt.Sprintf("heavy rain likely (%.0f%% chance, %.1f mm)", day.PrecipProbMaxPct, day.PrecipitationMM))
	}
	if day.TempMaxC >= a.cfg.HeatThresholdC {
		out = append(out, fmt.Sprintf("extreme heat expected (up to %.0f°C)", day.TempMaxC))
	}
	if day.WindMaxKmh >= a.cfg.WindThresholdKmh {
		out = append(out, fmt.Sprintf("strong winds expected (up to %.0f km/h)", day.WindMaxKmh))
	}
	return out
}

func (a *AlertService) render(p *models.UserProfile, ans models.Answer, hazards []string) (subject, body string) {
	var b strings.Builder

	name := p.Name
	if name == "" {
		name = "farmer"
	}
	fmt.Fprintf(&b, "Namaste %s,\n\n", name)

	if len(hazards) > 0 {
		b.WriteString("Weather alert for tomorrow: ")
		b.WriteString(strings.Join(hazards, "; "))
		b.WriteString(".\n\n")
	}
	if ans.Insight != nil {
		fmt.Fprintf(&b, "Mandi update: %s\n\n", ans.Text)
	}
	b.WriteString("- Krishi Mitra")

	switch {
	case len(hazards) > 0:
		subject = "Krishi Mitra weather alert"
	default:
		subject = "Krishi Mitra mandi digest"
	}
	return subject, b.String()
}
