package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubescript/backend/internal/api/middleware"
	"github.com/tubescript/backend/internal/auth"
	"github.com/tubescript/backend/internal/db"
	"github.com/tubescript/backend/internal/job"
	"github.com/tubescript/backend/internal/transcript"
	"github.com/tubescript/backend/internal/translate"
)

func newTestDB(t *testing.T) *db.Database {
	t.Helper()
	d, err := db.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type fakeTranscripts struct {
	byURL  map[string]*transcript.Transcript
	err    error
	gotLng []string
}

func (f *fakeTranscripts) Fetch(ctx context.Context, rawURL string, langs []string) (*transcript.Transcript, error) {
	f.gotLng = langs
	if f.err != nil {
		return nil, f.err
	}
	if _, err := transcript.ExtractVideoID(rawURL); err != nil {
		return nil, err
	}
	if t, ok := f.byURL[rawURL]; ok {
		return t, nil
	}
	return nil, transcript.ErrVideoNotFound
}

func (f *fakeTranscripts) Cached(videoID string) (*transcript.Transcript, error) {
	for _, t := range f.byURL {
		if t.VideoID == videoID {
			return t, nil
		}
	}
	return nil, transcript.ErrNoTranscript
}

func TestTranscriptFetch(t *testing.T) {
	tr := &transcript.Transcript{
		VideoID:  "dQw4w9WgXcQ",
		Language: "en",
		Segments: []transcript.Segment{{Text: "never", Offset: 0}, {Text: "gonna", Offset: 1.5}},
	}
	fake := &fakeTranscripts{byURL: map[string]*transcript.Transcript{"https://youtu.be/dQw4w9WgXcQ": tr}}
	h := NewTranscriptHandler(fake)

	r := chi.NewRouter()
	r.Post("/api/transcript", h.Fetch)
	r.Get("/api/transcript/{videoID}", h.Get)

	rec := do(t, r, http.MethodPost, "/api/transcript", `{"url":"https://youtu.be/dQw4w9WgXcQ","languages":["pt","en"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]any](t, rec)
	assert.Equal(t, "dQw4w9WgXcQ", got["video_id"])
	assert.Equal(t, "never gonna", got["text"])
	assert.Len(t, got["segments"], 2)
	assert.Equal(t, []string{"pt", "en"}, fake.gotLng)

	rec = do(t, r, http.MethodGet, "/api/transcript/dQw4w9WgXcQ", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/transcript/aaaaaaaaaaa", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTranscriptDownload(t *testing.T) {
	tr := &transcript.Transcript{
		VideoID:  "dQw4w9WgXcQ",
		Language: "en",
		Segments: []transcript.Segment{{Text: "never gonna", Offset: 1, Duration: 2}},
	}
	h := NewTranscriptHandler(&fakeTranscripts{byURL: map[string]*transcript.Transcript{"dQw4w9WgXcQ": tr}})
	r := chi.NewRouter()
	r.Get("/api/transcript/{videoID}/download", h.Download)

	rec := do(t, r, http.MethodGet, "/api/transcript/dQw4w9WgXcQ/download?format=srt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="dQw4w9WgXcQ.en.srt"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:03,000\nnever gonna\n\n", rec.Body.String())

	rec = do(t, r, http.MethodGet, "/api/transcript/dQw4w9WgXcQ/download", "")
	assert.Equal(t, "never gonna\n", rec.Body.String())

	rec = do(t, r, http.MethodGet, "/api/transcript/dQw4w9WgXcQ/download?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/transcript/aaaaaaaaaaa/download", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTranscriptFetchErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"missing url", `{}`, nil, http.StatusBadRequest},
		{"invalid url", `{"url":"https://vimeo.com/123"}`, nil, http.StatusBadRequest},
		{"unknown video", `{"url":"dQw4w9WgXcQ"}`, nil, http.StatusNotFound},
		{"no captions", `{"url":"dQw4w9WgXcQ"}`, transcript.ErrNoTranscript, http.StatusNotFound},
		{"upstream", `{"url":"dQw4w9WgXcQ"}`, errors.New("HTTP 500"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewTranscriptHandler(&fakeTranscripts{err: tc.err})
			rec := do(t, http.HandlerFunc(h.Fetch), http.MethodPost, "/api/transcript", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec), "error")
		})
	}
}

type fakeTranslator struct {
	err error
}

func (f *fakeTranslator) Translate(ctx context.Context, text, target string) (translate.Result, error) {
	if _, err := translate.NormalizeLang(target); err != nil {
		return translate.Result{}, err
	}
	if f.err != nil {
		return translate.Result{}, f.err
	}
	return translate.Result{Text: strings.ToUpper(text), Chunks: 1}, nil
}

func (f *fakeTranslator) TranslateSegments(ctx context.Context, texts []string, target string) (translate.SegmentsResult, error) {
	out := make([]string, len(texts))
	for i, s := range texts {
		out[i] = strings.ToUpper(s)
	}
	return translate.SegmentsResult{Segments: out, Chunks: 1}, nil
}

func (f *fakeTranslator) Engines() []string { return []string{"google", "deepl"} }

func TestTranslate(t *testing.T) {
	h := NewTranslateHandler(&fakeTranslator{})

	rec := do(t, http.HandlerFunc(h.Translate), http.MethodPost, "/api/translate", `{"text":"hola","target":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, translate.Result{Text: "HOLA", Chunks: 1}, decode[translate.Result](t, rec))

	rec = do(t, http.HandlerFunc(h.Translate), http.MethodPost, "/api/translate", `{"segments":["a","b"],"target":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"A", "B"}, decode[translate.SegmentsResult](t, rec).Segments)

	rec = do(t, http.HandlerFunc(h.Engines), http.MethodGet, "/api/translate/engines", "")
	assert.JSONEq(t, `{"engines":["google","deepl"]}`, rec.Body.String())
}

func TestTranslateErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"missing target", `{"text":"hola"}`, nil, http.StatusBadRequest},
		{"missing text", `{"target":"en"}`, nil, http.StatusBadRequest},
		{"bad target", `{"text":"hola","target":"auto"}`, nil, http.StatusBadRequest},
		{"all chunks failed", `{"text":"hola","target":"en"}`, fmt.Errorf("%w: boom", translate.ErrTranslationFailed), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewTranslateHandler(&fakeTranslator{err: tc.err})
			rec := do(t, http.HandlerFunc(h.Translate), http.MethodPost, "/api/translate", tc.body)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	h := middleware.MaxBodySize(8)(http.HandlerFunc(NewTranslateHandler(&fakeTranslator{}).Translate))
	rec := do(t, h, http.MethodPost, "/api/translate", `{"text":"a long body","target":"en"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func jobRouter(t *testing.T) (chi.Router, *job.JobQueue) {
	t.Helper()
	q := job.NewJobQueue(newTestDB(t).DB())
	h := NewJobHandler(q)
	r := chi.NewRouter()
	r.Post("/api/jobs/translate", h.EnqueueTranslate)
	r.Get("/api/jobs", h.ListJobs)
	r.Get("/api/jobs/active", h.ActiveJobs)
	r.Get("/api/jobs/{id}", h.GetJob)
	r.Delete("/api/jobs/{id}", h.CancelJob)
	r.Post("/api/jobs/{id}/retry", h.RetryJob)
	return r, q
}

func TestJobLifecycle(t *testing.T) {
	r, _ := jobRouter(t)

	rec := do(t, r, http.MethodPost, "/api/jobs/translate", `{"video":"https://www.youtube.com/watch?v=dQw4w9WgXcQ","target":"PT-br"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	created := decode[job.Job](t, rec)
	assert.Equal(t, "dQw4w9WgXcQ", created.VideoID)
	assert.Equal(t, job.StatusPending, created.Status)

	var params job.TranslateTranscriptParams
	require.NoError(t, json.Unmarshal(created.Params, &params))
	assert.Equal(t, "pt-BR", params.TargetLang)

	rec = do(t, r, http.MethodGet, "/api/jobs/active", "")
	assert.Len(t, decode[[]job.Job](t, rec), 1)

	rec = do(t, r, http.MethodGet, "/api/jobs/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/jobs/"+created.ID+"/retry", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "pending jobs are not retryable")

	rec = do(t, r, http.MethodDelete, "/api/jobs/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/jobs/active", "")
	assert.Empty(t, decode[[]job.Job](t, rec))

	rec = do(t, r, http.MethodPost, "/api/jobs/"+created.ID+"/retry", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, job.StatusPending, decode[job.Job](t, rec).Status)

	rec = do(t, r, http.MethodGet, "/api/jobs", "")
	assert.Len(t, decode[[]job.Job](t, rec), 1)
}

func TestJobErrors(t *testing.T) {
	r, _ := jobRouter(t)

	rec := do(t, r, http.MethodPost, "/api/jobs/translate", `{"video":"nope","target":"es"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/jobs/translate", `{"video":"dQw4w9WgXcQ","target":"auto"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodDelete, "/api/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/jobs", "")
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestLoginAndMe(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.EnsureAdmin("admin", "secret"))
	jwt := auth.NewJWTService("test-secret")
	h := NewAuthHandler(d, jwt)

	rec := do(t, http.HandlerFunc(h.Login), http.MethodPost, "/api/auth/login", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, http.HandlerFunc(h.Login), http.MethodPost, "/api/auth/login", `{"username":"ghost","password":"secret"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, http.HandlerFunc(h.Login), http.MethodPost, "/api/auth/login", `{"username":"admin","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[loginResponse](t, rec)
	assert.Equal(t, "admin", login.User.Role)
	require.NotEmpty(t, login.Token)

	me := middleware.AuthMiddleware(jwt)(http.HandlerFunc(h.Me))
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	me.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", decode[userResponse](t, rec).Username)
}

func TestSettingsMasking(t *testing.T) {
	d := newTestDB(t)
	h := NewSettingsHandler(d)

	rec := do(t, http.HandlerFunc(h.UpdateSettings), http.MethodPut, "/api/settings",
		`{"deepl_api_key":"abcdefgh1234:fx","gemini_model":" gemini-1.5-pro ","unknown_key":"x"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "gemini-1.5-pro", d.GetSetting("gemini_model", ""))
	assert.Empty(t, d.GetSetting("unknown_key", ""), "unknown keys are ignored")

	rec = do(t, http.HandlerFunc(h.GetSettings), http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	byKey := map[string]SettingResponse{}
	for _, s := range decode[[]SettingResponse](t, rec) {
		byKey[s.Key] = s
	}
	assert.Equal(t, mask+"4:fx", byKey["deepl_api_key"].Value)
	assert.True(t, byKey["deepl_api_key"].HasValue)
	assert.Equal(t, "gemini-1.5-pro", byKey["gemini_model"].Value)
	assert.False(t, byKey["openai_api_key"].HasValue)

	// Echoing the masked value back keeps the stored secret.
	rec = do(t, http.HandlerFunc(h.UpdateSettings), http.MethodPut, "/api/settings", `{"deepl_api_key":"`+mask+`4:fx"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "abcdefgh1234:fx", d.GetSetting("deepl_api_key", ""))

	rec = do(t, http.HandlerFunc(h.UpdateSettings), http.MethodPut, "/api/settings", `{"deepl_api_key":""}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, d.GetSetting("deepl_api_key", ""))
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	rec := do(t, http.HandlerFunc(NewHealthHandler(fakePinger{}).Health), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])

	rec = do(t, http.HandlerFunc(NewHealthHandler(fakePinger{err: errors.New("closed")}).Health), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
