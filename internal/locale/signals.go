package locale

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// negotiate matches a header-style language list against the supported set.
// Unparseable or unmatched input yields no signal.
func (rt *Router) negotiate(value string) (Locale, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(value)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, idx, conf := rt.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(rt.cfg.Locales) {
		return "", false
	}
	return rt.cfg.Locales[idx], true
}

func cookieValue(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// cookieLocale negotiates the primary locale cookie.
func (rt *Router) cookieLocale(r *http.Request) (Locale, bool) {
	return rt.negotiate(cookieValue(r, rt.cfg.CookieName))
}

// storedLocale is the cookie signal of the resolution precedence: the primary
// cookie, then the secondary cookie.
func (rt *Router) storedLocale(r *http.Request) (Locale, bool) {
	if l, ok := rt.cookieLocale(r); ok {
		return l, true
	}
	return rt.negotiate(cookieValue(r, rt.cfg.SecondaryCookieName))
}

func (rt *Router) headerLocale(r *http.Request) (Locale, bool) {
	return rt.negotiate(r.Header.Get("Accept-Language"))
}

// refererLocale returns the locale prefix of the Referer path, if any.
func (rt *Router) refererLocale(r *http.Request) (Locale, bool) {
	ref := strings.TrimSpace(r.Header.Get("Referer"))
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	l, _, ok := rt.SplitPrefix(u.Path)
	return l, ok
}

// pendingCookieRedirect decides the cookie-driven missing-prefix redirect target.
// A cookie naming the fallback, or no cookie at all, gives nothing.
func (rt *Router) pendingCookieRedirect(r *http.Request) (Locale, bool) {
	raw := cookieValue(r, rt.cfg.CookieName)
	if raw == "" {
		return "", false
	}
	if l, ok := rt.negotiate(raw); ok {
		return l, l != rt.cfg.Fallback
	}
	if rt.cfg.DefaultLocale == "" {
		return "", false
	}
	return rt.cfg.DefaultLocale, true
}
