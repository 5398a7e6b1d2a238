package locale

import (
	"fmt"
	"strings"
	"time"
)

// Locale is a supported language tag such as "en" or "pt".
type Locale string

func (l Locale) String() string { return string(l) }

// Config controls how the router classifies paths and negotiates locales.
type Config struct {
	Locales  []Locale
	Fallback Locale
	// DefaultLocale is used by the cookie redirect when the cookie holds a
	// non-fallback value that matches no supported locale. Empty disables it.
	DefaultLocale Locale

	CookieName          string
	SecondaryCookieName string
	HeaderName          string
	CookieMaxAge        time.Duration

	RestrictedPages  []string
	TranscriptPrefix string
	APIPrefix        string
	InternalPrefix   string
	AssetExtensions  []string

	// IconNames are file stems (without extension) of browser icon requests.
	IconNames []string
	// ToolingPrefixes are path prefixes requested by browser tooling.
	ToolingPrefixes []string
}

// DefaultConfig returns the English/Spanish/Portuguese site configuration.
func DefaultConfig() Config {
	return Config{
		Locales:             []Locale{"en", "es", "pt"},
		Fallback:            "en",
		DefaultLocale:       "es",
		CookieName:          "site_locale",
		SecondaryCookieName: "lang",
		HeaderName:          "X-Locale",
		CookieMaxAge:        365 * 24 * time.Hour,
		RestrictedPages:     []string{"/about", "/privacy", "/contact", "/terms"},
		TranscriptPrefix:    "/transcript",
		APIPrefix:           "/api/",
		InternalPrefix:      "/assets/",
		AssetExtensions:     []string{".ico", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".css", ".js"},
		IconNames:           []string{"favicon", "icon", "apple-icon", "apple-touch-icon"},
		ToolingPrefixes:     []string{"/.well-known/appspecific/com.chrome.devtools"},
	}
}

// Validate reports configuration that would make resolution ambiguous.
func (c Config) Validate() error {
	if len(c.Locales) == 0 {
		return fmt.Errorf("locale: no supported locales")
	}
	seen := make(map[Locale]bool, len(c.Locales))
	for _, l := range c.Locales {
		if l == "" || strings.Contains(string(l), "/") {
			return fmt.Errorf("locale: invalid locale %q", l)
		}
		if seen[l] {
			return fmt.Errorf("locale: duplicate locale %q", l)
		}
		seen[l] = true
	}
	if !seen[c.Fallback] {
		return fmt.Errorf("locale: fallback %q is not a supported locale", c.Fallback)
	}
	if c.DefaultLocale != "" {
		if c.DefaultLocale == c.Fallback {
			return fmt.Errorf("locale: default locale must differ from fallback %q", c.Fallback)
		}
		if !seen[c.DefaultLocale] {
			return fmt.Errorf("locale: default locale %q is not a supported locale", c.DefaultLocale)
		}
	}
	if c.CookieName == "" {
		return fmt.Errorf("locale: cookie name is required")
	}
	if c.HeaderName == "" {
		return fmt.Errorf("locale: header name is required")
	}
	if c.TranscriptPrefix == "" || !strings.HasPrefix(c.TranscriptPrefix, "/") {
		return fmt.Errorf("locale: transcript prefix must start with /")
	}
	for _, p := range c.RestrictedPages {
		if !strings.HasPrefix(p, "/") || p == "/" {
			return fmt.Errorf("locale: invalid restricted page %q", p)
		}
	}
	return nil
}

// Supports reports whether l is one of the configured locales.
func (c Config) Supports(l Locale) bool {
	for _, s := range c.Locales {
		if s == l {
			return true
		}
	}
	return false
}

// Alternates returns the supported locales other than the fallback.
func (c Config) Alternates() []Locale {
	out := make([]Locale, 0, len(c.Locales))
	for _, l := range c.Locales {
		if l != c.Fallback {
			out = append(out, l)
		}
	}
	return out
}
