package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubescript/backend/internal/locale"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_PATH", "/tmp/ts")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/tmp/ts/tubescript.db", cfg.DBPath)
	assert.Equal(t, "secret", cfg.JWTSecret)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 4800, cfg.TranslateChunkSize)
	assert.Equal(t, 300*time.Millisecond, cfg.TranslateChunkDelay)

	lc, err := cfg.Locale()
	require.NoError(t, err)
	assert.Equal(t, []locale.Locale{"en", "es", "pt"}, lc.Locales)
	assert.Equal(t, locale.Locale("en"), lc.Fallback)
	assert.Equal(t, locale.Locale("es"), lc.DefaultLocale)
	assert.Equal(t, "site_locale", lc.CookieName)
	assert.Equal(t, 365*24*time.Hour, lc.CookieMaxAge)
}

func TestLoadGeneratesJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.JWTSecret, 64)
}

func TestLoadLocaleOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("LOCALES", "en, fr ,de")
	t.Setenv("DEFAULT_LOCALE", "fr")
	t.Setenv("RESTRICTED_PAGES", "/legal")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)

	lc, err := cfg.Locale()
	require.NoError(t, err)
	assert.Equal(t, []locale.Locale{"en", "fr", "de"}, lc.Locales)
	assert.Equal(t, locale.Locale("fr"), lc.DefaultLocale)
	assert.Equal(t, []string{"/legal"}, lc.RestrictedPages)
}

func TestLoadRejectsInvalidLocales(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("FALLBACK_LOCALE", "fr")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRateWindow(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	for _, w := range []string{"0", "-1s"} {
		t.Setenv("RATE_WINDOW", w)
		_, err := Load()
		assert.ErrorContains(t, err, "RATE_WINDOW", w)
	}

	t.Setenv("RATE_LIMIT", "0")
	t.Setenv("RATE_WINDOW", "0")
	cfg, err := Load()
	require.NoError(t, err, "window is unused when limiting is off")
	assert.Zero(t, cfg.RateWindow)
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	} {
		c := Config{LogLevel: in}
		assert.Equal(t, want, c.SlogLevel(), in)
	}
}
