package config

import (
	"fmt"
	"strings"

	"github.com/Netflix/go-env"

	"github.com/serviceai/sms-dispatch/internal/provider"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL string `env:"RABBITMQ_URL,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`

	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `env:"TWILIO_FROM_NUMBER"`

	VonageAPIKey     string `env:"VONAGE_API_KEY"`
	VonageAPISecret  string `env:"VONAGE_API_SECRET"`
	VonageFromNumber string `env:"VONAGE_FROM_NUMBER"`

	PrimaryProvider  string `env:"SMS_PRIMARY_PROVIDER,default=twilio"`
	DefaultLanguage  string `env:"DEFAULT_LANGUAGE,default=en"`
	TemplateCacheTTL int    `env:"TEMPLATE_CACHE_TTL_SECONDS,default=300"`

	RateLimitPerSec   int    `env:"RATE_LIMIT_PER_SEC,default=30"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY,default=8"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Store the canonical form so later comparisons against provider names
	// do not depend on how the variable was spelled.
	primary := strings.ToLower(strings.TrimSpace(cfg.PrimaryProvider))
	switch primary {
	case provider.NameTwilio, provider.NameVonage:
		cfg.PrimaryProvider = primary
	default:
		return nil, fmt.Errorf("invalid SMS_PRIMARY_PROVIDER %q", cfg.PrimaryProvider)
	}

	return &cfg, nil
}

// TwilioCredentials returns the Twilio account credentials. An incomplete set
// leaves the provider unconfigured rather than failing startup.
func (c *Config) TwilioCredentials() provider.Credentials {
	return provider.Credentials{
		AccountID:    c.TwilioAccountSID,
		AuthToken:    c.TwilioAuthToken,
		SenderNumber: c.TwilioFromNumber,
	}
}

func (c *Config) VonageCredentials() provider.Credentials {
	return provider.Credentials{
		AccountID:    c.VonageAPIKey,
		AuthToken:    c.VonageAPISecret,
		SenderNumber: c.VonageFromNumber,
	}
}
