package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/tubescript/backend/internal/locale"
)

type Config struct {
	Port          int      `env:"PORT" envDefault:"8080"`
	DataPath      string   `env:"DATA_PATH" envDefault:"/data"`
	DBPath        string   `env:"DB_PATH"`
	JWTSecret     string   `env:"JWT_SECRET"`
	AdminUsername string   `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string   `env:"ADMIN_PASSWORD" envDefault:"admin"`
	CORSOrigins   []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel      string   `env:"LOG_LEVEL" envDefault:"info"`
	SiteURL       string   `env:"SITE_URL"`

	Locales            []string      `env:"LOCALES" envDefault:"en,es,pt" envSeparator:","`
	FallbackLocale     string        `env:"FALLBACK_LOCALE" envDefault:"en"`
	DefaultLocale      string        `env:"DEFAULT_LOCALE" envDefault:"es"`
	LocaleCookie       string        `env:"LOCALE_COOKIE" envDefault:"site_locale"`
	SecondaryCookie    string        `env:"LOCALE_SECONDARY_COOKIE" envDefault:"lang"`
	LocaleHeader       string        `env:"LOCALE_HEADER" envDefault:"X-Locale"`
	LocaleCookieMaxAge time.Duration `env:"LOCALE_COOKIE_MAX_AGE" envDefault:"8760h"`
	RestrictedPages    []string      `env:"RESTRICTED_PAGES" envDefault:"/about,/privacy,/contact,/terms" envSeparator:","`

	TranslatePrimary    string        `env:"TRANSLATE_PRIMARY" envDefault:"google"`
	TranslateFallback   string        `env:"TRANSLATE_FALLBACK"`
	TranslateChunkSize  int           `env:"TRANSLATE_CHUNK_SIZE" envDefault:"4800"`
	TranslateChunkDelay time.Duration `env:"TRANSLATE_CHUNK_DELAY" envDefault:"300ms"`
	DeepLAPIKey         string        `env:"DEEPL_API_KEY"`
	GeminiAPIKey        string        `env:"GEMINI_API_KEY"`
	GeminiModel         string        `env:"GEMINI_MODEL"`
	OpenAIAPIKey        string        `env:"OPENAI_API_KEY"`
	OpenAIModel         string        `env:"OPENAI_MODEL"`

	TranscriptLanguages []string      `env:"TRANSCRIPT_LANGUAGES" envDefault:"en,es,pt" envSeparator:","`
	TranscriptCacheTTL  time.Duration `env:"TRANSCRIPT_CACHE_TTL" envDefault:"168h"`

	RateLimit  int           `env:"RATE_LIMIT" envDefault:"30"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
}

// Load parses the environment and fills derived defaults.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataPath, "tubescript.db")
	}

	// JWT secret: require explicit setting or generate random
	if cfg.JWTSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate JWT secret: %w", err)
		}
		cfg.JWTSecret = hex.EncodeToString(b)
		slog.Warn("JWT_SECRET not set, using random secret; admin sessions will not survive restarts")
	}

	origins := cfg.CORSOrigins[:0]
	for _, o := range cfg.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	cfg.CORSOrigins = origins

	if cfg.RateLimit > 0 && cfg.RateWindow <= 0 {
		return nil, fmt.Errorf("RATE_WINDOW must be positive when RATE_LIMIT is set, got %s", cfg.RateWindow)
	}

	if _, err := cfg.Locale(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Locale builds the validated locale router configuration.
func (c *Config) Locale() (locale.Config, error) {
	lc := locale.DefaultConfig()
	lc.Locales = lc.Locales[:0]
	for _, l := range c.Locales {
		if l = strings.TrimSpace(l); l != "" {
			lc.Locales = append(lc.Locales, locale.Locale(l))
		}
	}
	lc.Fallback = locale.Locale(c.FallbackLocale)
	lc.DefaultLocale = locale.Locale(c.DefaultLocale)
	lc.CookieName = c.LocaleCookie
	lc.SecondaryCookieName = c.SecondaryCookie
	lc.HeaderName = c.LocaleHeader
	lc.CookieMaxAge = c.LocaleCookieMaxAge
	lc.RestrictedPages = c.RestrictedPages
	if err := lc.Validate(); err != nil {
		return locale.Config{}, err
	}
	return lc, nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
