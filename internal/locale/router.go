// Package locale resolves the language of every inbound page request and
// keeps page URLs canonical across locales.
//
// The fallback locale is served without a path prefix, every other locale
// under "/{locale}". Pages listed as restricted exist only in the fallback
// locale. Resolve is a pure function of the request; Handler applies its
// Decision to the response.
package locale

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// State names the terminal (or resolving) state a request reached.
type State int

const (
	StateStart State = iota
	StateAssetBypass
	StateRestrictedPageRedirect
	StateFallbackPrefixRedirect
	StateMissingPrefixCookieRedirect
	StateIconBypass
	StateResolveLocale
	StateMissingPrefixResolvedRedirect
	StateContinue
)

var stateNames = [...]string{
	StateStart:                         "start",
	StateAssetBypass:                   "asset-bypass",
	StateRestrictedPageRedirect:        "restricted-page-redirect",
	StateFallbackPrefixRedirect:        "fallback-prefix-redirect",
	StateMissingPrefixCookieRedirect:   "missing-prefix-cookie-redirect",
	StateIconBypass:                    "icon-bypass",
	StateResolveLocale:                 "resolve-locale",
	StateMissingPrefixResolvedRedirect: "missing-prefix-resolved-redirect",
	StateContinue:                      "continue",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Action is the kind of response a Decision calls for.
type Action int

const (
	ActionBypass Action = iota
	ActionRedirect
	ActionContinue
)

func (a Action) String() string {
	switch a {
	case ActionRedirect:
		return "redirect"
	case ActionContinue:
		return "continue"
	default:
		return "bypass"
	}
}

// Decision is the outcome of resolving one request.
type Decision struct {
	State State

	// Location and Status are set for redirects.
	Location string
	Status   int

	// Locale is the resolved locale forwarded downstream on continue.
	Locale Locale
	// Cookie is the locale to persist; empty means no cookie write.
	Cookie Locale
}

// Action reports which variant the decision is.
func (d Decision) Action() Action {
	switch d.State {
	case StateRestrictedPageRedirect, StateFallbackPrefixRedirect,
		StateMissingPrefixCookieRedirect, StateMissingPrefixResolvedRedirect:
		return ActionRedirect
	case StateContinue:
		return ActionContinue
	default:
		return ActionBypass
	}
}

const (
	// canonicalStatus is used when a URL has exactly one canonical form.
	canonicalStatus = http.StatusPermanentRedirect
	// preferenceStatus is used when the target depends on visitor signals.
	preferenceStatus = http.StatusTemporaryRedirect
)

// Router holds the compiled configuration. It is safe for concurrent use.
type Router struct {
	cfg        Config
	matcher    language.Matcher
	supported  map[Locale]bool
	restricted map[string]bool
	assetExt   map[string]bool
}

// New validates cfg and builds a Router.
func New(cfg Config) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.CookieMaxAge <= 0 {
		cfg.CookieMaxAge = 365 * 24 * time.Hour
	}
	tags := make([]language.Tag, 0, len(cfg.Locales))
	for _, l := range cfg.Locales {
		tag, err := language.Parse(string(l))
		if err != nil {
			return nil, fmt.Errorf("locale: parse %q: %w", l, err)
		}
		tags = append(tags, tag)
	}
	rt := &Router{
		cfg:        cfg,
		matcher:    language.NewMatcher(tags),
		supported:  make(map[Locale]bool, len(cfg.Locales)),
		restricted: make(map[string]bool, len(cfg.RestrictedPages)),
		assetExt:   make(map[string]bool, len(cfg.AssetExtensions)),
	}
	for _, l := range cfg.Locales {
		rt.supported[l] = true
	}
	for _, p := range cfg.RestrictedPages {
		rt.restricted[strings.TrimSuffix(p, "/")] = true
	}
	for _, ext := range cfg.AssetExtensions {
		rt.assetExt[strings.ToLower(ext)] = true
	}
	return rt, nil
}

// Config returns the router configuration.
func (rt *Router) Config() Config { return rt.cfg }

// Resolve decides, in rule order, whether to bypass, redirect or continue.
// The first matching rule wins.
func (rt *Router) Resolve(r *http.Request) Decision {
	// p is decoded and only classified; redirect targets are built from the
	// escaped form so encoded characters survive the round trip.
	p := r.URL.Path
	if p == "" {
		p = "/"
	}
	escaped := r.URL.EscapedPath()
	if escaped == "" {
		escaped = "/"
	}
	query := r.URL.RawQuery
	fallback := rt.cfg.Fallback

	if rt.isAsset(p) {
		return Decision{State: StateAssetBypass}
	}

	prefix, rest, hasPrefix := rt.SplitPrefix(p)

	if hasPrefix && prefix != fallback && rt.isRestricted(rest) {
		return rt.redirect(StateRestrictedPageRedirect, escapedRest(escaped, prefix, rest), query, canonicalStatus, "")
	}

	if hasPrefix && prefix == fallback {
		target := escapedRest(escaped, prefix, rest)
		if rt.isTranscript(rest) {
			if strings.HasPrefix(target, rt.cfg.TranscriptPrefix) {
				target = rt.transcriptPath(target)
			} else {
				target = escapePath(rt.transcriptPath(rest))
			}
		}
		return rt.redirect(StateFallbackPrefixRedirect, target, query, canonicalStatus, fallback)
	}

	if !hasPrefix && p != "/" && !rt.isRestricted(p) {
		if l, ok := rt.pendingCookieRedirect(r); ok {
			return rt.redirect(StateMissingPrefixCookieRedirect, rt.prefixed(l, escaped), query, preferenceStatus, "")
		}
	}

	if rt.isIconRequest(p) {
		return Decision{State: StateIconBypass}
	}

	resolved := rt.resolveLocale(r, prefix, hasPrefix)

	if !hasPrefix && p != "/" && resolved != fallback && !rt.isRestricted(p) {
		return rt.redirect(StateMissingPrefixResolvedRedirect, rt.prefixed(resolved, escaped), query, preferenceStatus, "")
	}

	cookie := resolved
	if hasPrefix {
		cookie = prefix
	} else if l, ok := rt.refererLocale(r); ok {
		cookie = l
	}
	return Decision{State: StateContinue, Locale: resolved, Cookie: cookie}
}

// resolveLocale applies the precedence path prefix, cookie, Accept-Language,
// fallback.
func (rt *Router) resolveLocale(r *http.Request, prefix Locale, hasPrefix bool) Locale {
	if hasPrefix {
		return prefix
	}
	if l, ok := rt.storedLocale(r); ok {
		return l
	}
	if l, ok := rt.headerLocale(r); ok {
		return l
	}
	return rt.cfg.Fallback
}

func (rt *Router) redirect(state State, target, query string, status int, cookie Locale) Decision {
	target = sameOrigin(target)
	if query != "" {
		target += "?" + query
	}
	return Decision{State: state, Location: target, Status: status, Cookie: cookie}
}

// sameOrigin collapses any leading run of slashes and backslashes to a single
// "/", so "//host" and "/\host" stay on this site.
func sameOrigin(target string) string {
	return "/" + strings.TrimLeft(target, "/\\")
}

// escapedRest returns the escaped path following the locale segment. When
// the escaped and decoded paths disagree on that segment, rest is re-escaped.
func escapedRest(escaped string, prefix Locale, rest string) string {
	seg, tail, found := strings.Cut(strings.TrimPrefix(escaped, "/"), "/")
	if u, err := url.PathUnescape(seg); err != nil || u != string(prefix) {
		return escapePath(rest)
	}
	if !found {
		return "/"
	}
	return "/" + tail
}

func escapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}

// transcriptPath rebuilds an unprefixed transcript URL from the video id that
// follows the transcript prefix, leaving the id untouched.
func (rt *Router) transcriptPath(rest string) string {
	id := strings.TrimPrefix(rest, rt.cfg.TranscriptPrefix)
	id = strings.Trim(id, "/")
	if id == "" {
		return rt.cfg.TranscriptPrefix
	}
	return rt.cfg.TranscriptPrefix + "/" + id
}

func (rt *Router) prefixed(l Locale, p string) string {
	if p == "/" {
		return "/" + string(l)
	}
	return "/" + string(l) + p
}

// LocalizedPath returns the canonical path of the logical page p in locale l.
// Restricted pages and the fallback locale are never prefixed.
func (rt *Router) LocalizedPath(l Locale, p string) string {
	if p == "" {
		p = "/"
	}
	if _, rest, ok := rt.SplitPrefix(p); ok {
		p = rest
	}
	if l == rt.cfg.Fallback || !rt.supported[l] || rt.isRestricted(p) {
		return p
	}
	return rt.prefixed(l, p)
}
