package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type RateLimitConfig struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED"         envDefault:"true"`
	Capacity       int           `env:"RATE_LIMIT_CAPACITY"        envDefault:"60"`
	RefillTokens   int           `env:"RATE_LIMIT_REFILL_TOKENS"   envDefault:"1"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"1s"`
	TTL            time.Duration `env:"RATE_LIMIT_TTL"             envDefault:"10m"`
	KeyStrategy    string        `env:"RATE_LIMIT_KEY_STRATEGY"    envDefault:"ip_user_route"`
	Prefix         string        `env:"RATE_LIMIT_PREFIX"          envDefault:"rl"`
	Debug          bool          `env:"RATE_LIMIT_DEBUG"           envDefault:"false"`
	Burst          int           `env:"RATE_LIMIT_BURST"           envDefault:"-1"`
	RefillEvery    time.Duration `env:"RATE_LIMIT_REFILL_EVERY"    envDefault:"0s"`
}

func LoadRateLimitConfig() RateLimitConfig {
	var def RateLimitConfig
	if err := env.Parse(&def); err != nil {
		def = RateLimitConfig{
			Enabled:        true,
			Capacity:       60,
			RefillTokens:   1,
			RefillInterval: time.Second,
			TTL:            10 * time.Minute,
			KeyStrategy:    "ip_user_route",
			Prefix:         "rl",
		}
	}
	if def.Burst > 0 { def.Capacity = def.Burst }
	if def.RefillEvery > 0 {
		def.RefillTokens = 1
		def.RefillInterval = def.RefillEvery
	}
	if def.Capacity < 1 { def.Capacity = 1 }
	if def.RefillTokens < 1 { def.RefillTokens = 1 }
	if def.RefillInterval <= 0 { def.RefillInterval = time.Second }
	minTTL := 5 * def.RefillInterval
	if def.TTL < minTTL { def.TTL = minTTL }
	return def
}
