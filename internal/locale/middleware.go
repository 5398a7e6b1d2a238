package locale

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

func (c contextKey) String() string {
	return "locale/" + string(c)
}

const ctxKeyLocale = contextKey("locale")

// ToContext stores the resolved locale in ctx.
func ToContext(ctx context.Context, l Locale) context.Context {
	return context.WithValue(ctx, ctxKeyLocale, l)
}

// FromContext returns the locale stored by the router, if any.
func FromContext(ctx context.Context) (Locale, bool) {
	l, ok := ctx.Value(ctxKeyLocale).(Locale)
	return l, ok && l != ""
}

// FromRequest returns the locale attached to r by the router: the context
// value, then the forwarded header, then the configured fallback.
func (rt *Router) FromRequest(r *http.Request) Locale {
	if l, ok := FromContext(r.Context()); ok {
		return l
	}
	if l := Locale(r.Header.Get(rt.cfg.HeaderName)); rt.supported[l] {
		return l
	}
	if l, _, ok := rt.SplitPrefix(r.URL.Path); ok {
		return l
	}
	return rt.cfg.Fallback
}

// Handler is the HTTP middleware applying Resolve to every request.
func (rt *Router) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := rt.Resolve(r)
		switch d.Action() {
		case ActionRedirect:
			slog.Debug("locale redirect",
				slog.String("component", "locale"),
				slog.String("state", d.State.String()),
				slog.String("from", r.URL.RequestURI()),
				slog.String("to", d.Location))
			if d.Cookie != "" {
				rt.setCookie(w, d.Cookie)
			}
			http.Redirect(w, r, d.Location, d.Status)
		case ActionContinue:
			r.Header.Set(rt.cfg.HeaderName, string(d.Locale))
			r = r.WithContext(ToContext(r.Context(), d.Locale))
			w.Header().Set("Content-Language", string(d.Locale))
			if d.Cookie != "" {
				rt.setCookie(w, d.Cookie)
			}
			next.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (rt *Router) setCookie(w http.ResponseWriter, l Locale) {
	http.SetCookie(w, &http.Cookie{
		Name:     rt.cfg.CookieName,
		Value:    string(l),
		Path:     "/",
		MaxAge:   int(rt.cfg.CookieMaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
