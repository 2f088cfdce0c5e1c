// internal/workers/assistant/classify-intent/config.go
package classifyintent

import (
	"time"

	"github.com/dark-devil9/Krishi-Mitra/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    10 * time.Second,
		MaxRetries: 3,
	}
}

// FromWorkerConfig maps the shared workers section onto this worker.
func FromWorkerConfig(wc config.WorkerConfig) *Config {
	cfg := LoadConfig()
	if wc.Timeout > 0 {
		cfg.Timeout = time.Duration(wc.Timeout) * time.Millisecond
	}
	if wc.MaxRetries > 0 {
		cfg.MaxRetries = wc.MaxRetries
	}
	return cfg
}
