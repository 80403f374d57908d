// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// バックエンドの種類
const (
	BackendPostgres = "postgres"
	BackendREST     = "rest"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Token
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"eventgate"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	// Backend
	BackendMode    string        `env:"BACKEND_MODE" envDefault:"postgres"`
	BackendBaseURL string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost:3000/api/"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`

	// Rate Limit
	RateLimitGeneral int           `env:"RATE_LIMIT_GENERAL" envDefault:"100"`
	RateLimitLogin   int           `env:"RATE_LIMIT_LOGIN" envDefault:"5"`
	RateLimitWindow  time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`

	// Server
	ServerPort string `env:"SERVER_PORT" envDefault:"4000"`

	// CORS
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Seed
	SeedPassword string `env:"SEED_PASSWORD" envDefault:"password123"`
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合や値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.BackendMode = strings.ToLower(strings.TrimSpace(cfg.BackendMode))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.BackendMode {
	case BackendPostgres:
	case BackendREST:
		u, err := url.Parse(c.BackendBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("BACKEND_BASE_URL must be an http(s) URL: %q", c.BackendBaseURL)
		}
	default:
		return fmt.Errorf("BACKEND_MODE must be %q or %q: %q", BackendPostgres, BackendREST, c.BackendMode)
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive: %s", c.JWTTTL)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive: %s", c.BackendTimeout)
	}
	if c.RateLimitGeneral < 1 || c.RateLimitLogin < 1 {
		return fmt.Errorf("RATE_LIMIT_GENERAL and RATE_LIMIT_LOGIN must be at least 1")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive: %s", c.RateLimitWindow)
	}
	return nil
}
