package locale

import (
	"path"
	"strings"
)

// RouteKind classifies a request path for locale handling.
type RouteKind int

const (
	// RouteGeneric is a localizable page.
	RouteGeneric RouteKind = iota
	// RouteAsset is a static file, API or internal asset path. Never touched.
	RouteAsset
	// RouteRestricted is a page that exists only under the fallback locale.
	RouteRestricted
	// RouteTranscript is a video transcript page.
	RouteTranscript
)

func (k RouteKind) String() string {
	switch k {
	case RouteAsset:
		return "asset"
	case RouteRestricted:
		return "restricted"
	case RouteTranscript:
		return "transcript"
	default:
		return "generic"
	}
}

// Classify returns the route kind of p, looking through any locale prefix.
func (rt *Router) Classify(p string) RouteKind {
	if rt.isAsset(p) {
		return RouteAsset
	}
	_, rest, _ := rt.SplitPrefix(p)
	switch {
	case rt.isRestricted(rest):
		return RouteRestricted
	case rt.isTranscript(rest):
		return RouteTranscript
	default:
		return RouteGeneric
	}
}

// SplitPrefix separates a leading supported locale segment from p.
// "/es/foo" yields ("es", "/foo", true); "/es" yields ("es", "/", true).
func (rt *Router) SplitPrefix(p string) (Locale, string, bool) {
	trimmed := strings.TrimPrefix(p, "/")
	seg, rest, found := strings.Cut(trimmed, "/")
	l := Locale(seg)
	if !rt.supported[l] {
		return "", p, false
	}
	if !found {
		return l, "/", true
	}
	return l, "/" + rest, true
}

func (rt *Router) isAsset(p string) bool {
	if rt.cfg.APIPrefix != "" && (strings.HasPrefix(p, rt.cfg.APIPrefix) || p == strings.TrimSuffix(rt.cfg.APIPrefix, "/")) {
		return true
	}
	if rt.cfg.InternalPrefix != "" && strings.HasPrefix(p, rt.cfg.InternalPrefix) {
		return true
	}
	ext := strings.ToLower(path.Ext(p))
	return ext != "" && rt.assetExt[ext]
}

func (rt *Router) isRestricted(p string) bool {
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return rt.restricted[p]
}

func (rt *Router) isTranscript(p string) bool {
	prefix := rt.cfg.TranscriptPrefix
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// isIconRequest matches browser icon and tooling requests. Only the last path
// segment is compared against icon stems, so "/lexicon" is not an icon.
func (rt *Router) isIconRequest(p string) bool {
	for _, prefix := range rt.cfg.ToolingPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	base := path.Base(p)
	stem := strings.TrimSuffix(base, path.Ext(base))
	for _, name := range rt.cfg.IconNames {
		if stem == name || strings.HasPrefix(stem, name+"-") {
			return true
		}
	}
	return false
}
