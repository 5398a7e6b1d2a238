package locale

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	called bool
	header string
	locale Locale
	hasCtx bool
}

func captureHandler(rt *Router, c *captured) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.header = r.Header.Get(rt.Config().HeaderName)
		c.locale, c.hasCtx = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestHandlerRedirect(t *testing.T) {
	t.Parallel()
	rt := newTestRouter(t)
	var c captured

	rec := httptest.NewRecorder()
	rt.Handler(captureHandler(rt, &c)).ServeHTTP(rec, newRequest("/es/about?x=1", signals{}))

	assert.False(t, c.called)
	assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "/about?x=1", rec.Header().Get("Location"))
	assert.Empty(t, rec.Result().Cookies())
}

func TestHandlerRedirectStaysOnSite(t *testing.T) {
	t.Parallel()
	rt := newTestRouter(t)

	tests := []struct {
		path string
		want string
	}{
		{"/en//evil.example", "/evil.example"},
		{"/en/%5Cevil.example", "/%5Cevil.example"},
		{"/en/foo%3Fx=1", "/foo%3Fx=1"},
	}
	for _, tt := range tests {
		var c captured
		rec := httptest.NewRecorder()
		rt.Handler(captureHandler(rt, &c)).ServeHTTP(rec, newRequest(tt.path, signals{}))

		assert.False(t, c.called, tt.path)
		assert.Equal(t, http.StatusPermanentRedirect, rec.Code, tt.path)
		loc := rec.Header().Get("Location")
		assert.Equal(t, tt.want, loc, tt.path)
		assert.NotContains(t, []string{"//", "/\\"}, loc[:2], tt.path)
	}
}

func TestHandlerFallbackRedirectWritesCookie(t *testing.T) {
	t.Parallel()
	rt := newTestRouter(t)
	var c captured

	rec := httptest.NewRecorder()
	rt.Handler(captureHandler(rt, &c)).ServeHTTP(rec, newRequest("/en/foo", signals{cookie: "es"}))

	assert.False(t, c.called)
	assert.Equal(t, "/foo", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "en", cookies[0].Value)
}

func TestHandlerContinue(t *testing.T) {
	t.Parallel()
	rt := newTestRouter(t)
	var c captured

	req := newRequest("/pt/transcript/abc", signals{cookie: "es"})
	req.Header.Set("X-Locale", "en")
	rec := httptest.NewRecorder()
	rt.Handler(captureHandler(rt, &c)).ServeHTTP(rec, req)

	require.True(t, c.called)
	assert.Equal(t, "pt", c.header, "client supplied header must be replaced")
	assert.True(t, c.hasCtx)
	assert.Equal(t, Locale("pt"), c.locale)
	assert.Equal(t, "pt", rec.Header().Get("Content-Language"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "site_locale", cookies[0].Name)
	assert.Equal(t, "pt", cookies[0].Value)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, 365*24*60*60, cookies[0].MaxAge)
}

func TestHandlerBypass(t *testing.T) {
	t.Parallel()
	rt := newTestRouter(t)
	var c captured

	req := newRequest("/api/transcript", signals{cookie: "es", accept: "pt"})
	rec := httptest.NewRecorder()
	rt.Handler(captureHandler(rt, &c)).ServeHTTP(rec, req)

	require.True(t, c.called)
	assert.Empty(t, c.header)
	assert.False(t, c.hasCtx)
	assert.Empty(t, rec.Result().Cookies())
	assert.Empty(t, rec.Header().Get("Content-Language"))
}

func TestFromRequest(t *testing.T) {
	t.Parallel()
	rt := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/es/foo", nil)
	assert.Equal(t, Locale("es"), rt.FromRequest(req))

	req = httptest.NewRequest(http.MethodGet, "/foo", nil)
	req.Header.Set("X-Locale", "pt")
	assert.Equal(t, Locale("pt"), rt.FromRequest(req))

	req.Header.Set("X-Locale", "xx")
	assert.Equal(t, Locale("en"), rt.FromRequest(req))

	req = req.WithContext(ToContext(req.Context(), "es"))
	assert.Equal(t, Locale("es"), rt.FromRequest(req))
}
