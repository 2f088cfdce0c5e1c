// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Tables        TablesConfig            `mapstructure:"tables"`
	APIs          APIsConfig              `mapstructure:"apis"`
	Market        MarketConfig            `mapstructure:"market"`
	Alerts        AlertsConfig            `mapstructure:"alerts"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TablesConfig points at the canonical location/commodity tables document.
// An empty path means the compiled-in dataset is used.
type TablesConfig struct {
	Path string `mapstructure:"path"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Specific Configuration Sections ---

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	Mandi struct {
		BaseURL    string `mapstructure:"base_url"`
		APIKey     string `mapstructure:"api_key"`
		ResourceID string `mapstructure:"resource_id"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
		PageLimit  int    `mapstructure:"page_limit"`
	} `mapstructure:"mandi"`

	Geocoding struct {
		BaseURL      string   `mapstructure:"base_url"`
		Timeout      int      `mapstructure:"timeout"` // milliseconds
		CountryCodes []string `mapstructure:"country_codes"`
	} `mapstructure:"geocoding"`

	Weather struct {
		BaseURL      string `mapstructure:"base_url"`
		Timeout      int    `mapstructure:"timeout"` // milliseconds
		Timezone     string `mapstructure:"timezone"`
		ForecastDays int    `mapstructure:"forecast_days"`
	} `mapstructure:"weather"`
}

// MarketConfig holds price aggregation settings.
type MarketConfig struct {
	RecencyDays int `mapstructure:"recency_days"`
	RecordLimit int `mapstructure:"record_limit"`
	CacheTTL    int `mapstructure:"cache_ttl"` // seconds
}

// AlertsConfig holds settings for the scheduled alert digest run.
type AlertsConfig struct {
	Enabled            bool    `mapstructure:"enabled"`
	IntervalMinutes    int     `mapstructure:"interval_minutes"`
	RainProbabilityPct float64 `mapstructure:"rain_probability_pct"`
	HeatThresholdC     float64 `mapstructure:"heat_threshold_c"`
	WindThresholdKmh   float64 `mapstructure:"wind_threshold_kmh"`
}

// NotificationConfig holds settings for alert delivery.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
