// Package pages renders the localized HTML pages of the site.
package pages

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-chi/chi/v5"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/tubescript/backend/internal/locale"
	"github.com/tubescript/backend/internal/transcript"
)

//go:embed messages/*.toml
var messagesFS embed.FS

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// TranscriptLoader fetches the transcript shown on a transcript page.
type TranscriptLoader interface {
	FetchByID(ctx context.Context, videoID string, langs []string) (*transcript.Transcript, error)
}

// staticPages maps a page slug to its title and body message ids.
var staticPages = map[string]struct{ title, body string }{
	"about":   {"about_title", "about_body"},
	"privacy": {"privacy_title", "privacy_body"},
	"contact": {"contact_title", "contact_body"},
	"terms":   {"terms_title", "terms_body"},
}

type Renderer struct {
	bundle      *i18n.Bundle
	router      *locale.Router
	transcripts TranscriptLoader
	baseURL     string
	templates   map[string]*template.Template
}

// NewBundle loads the embedded message catalogs.
func NewBundle() (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	files, err := fs.Glob(messagesFS, "messages/*.toml")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(messagesFS, f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return bundle, nil
}

// NewRenderer parses the page templates. baseURL, when set, makes canonical
// and alternate links absolute.
func NewRenderer(router *locale.Router, transcripts TranscriptLoader, baseURL string) (*Renderer, error) {
	bundle, err := NewBundle()
	if err != nil {
		return nil, err
	}
	rd := &Renderer{
		bundle:      bundle,
		router:      router,
		transcripts: transcripts,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		templates:   make(map[string]*template.Template),
	}
	funcs := template.FuncMap{"timestamp": timestamp}
	for _, name := range []string{"home", "transcript", "static", "notfound"} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		rd.templates[name] = t
	}
	return rd, nil
}

// Static serves the embedded stylesheet and other assets.
func Static() http.Handler {
	sub, _ := fs.Sub(staticFS, "static")
	return http.FileServer(http.FS(sub))
}

type link struct {
	Lang    string
	Href    string
	Current bool
}

type pageData struct {
	Lang        string
	Title       string
	Description string
	Body        string
	Canonical   string
	Alternates  []link
	Switch      []link
	Transcript  *transcript.Transcript

	loc    *i18n.Localizer
	locale locale.Locale
	rd     *Renderer
}

// T localizes a message id, falling back to the id itself.
func (d *pageData) T(id string, data ...any) string {
	cfg := &i18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}
	s, err := d.loc.Localize(cfg)
	if s == "" {
		if err != nil {
			slog.Debug("missing message", slog.String("component", "pages"), slog.String("id", id), slog.Any("error", err))
		}
		return id
	}
	return s
}

// Link returns the path of the logical page p in the current locale.
func (d *pageData) Link(p string) string {
	return d.rd.router.LocalizedPath(d.locale, p)
}

func (rd *Renderer) newPage(r *http.Request, logical string) *pageData {
	l := rd.router.FromRequest(r)
	cfg := rd.router.Config()
	localized := rd.router.Classify(logical) != locale.RouteRestricted
	if !localized {
		l = cfg.Fallback
	}
	d := &pageData{
		Lang:   string(l),
		loc:    i18n.NewLocalizer(rd.bundle, string(l), string(cfg.Fallback)),
		locale: l,
		rd:     rd,
	}
	d.Canonical = rd.baseURL + rd.router.LocalizedPath(l, logical)

	seen := map[string]bool{}
	for _, alt := range cfg.Locales {
		href := rd.router.LocalizedPath(alt, logical)
		if seen[href] {
			continue
		}
		seen[href] = true
		d.Switch = append(d.Switch, link{Lang: string(alt), Href: href, Current: alt == l})
		if localized || alt == cfg.Fallback {
			d.Alternates = append(d.Alternates, link{Lang: string(alt), Href: rd.baseURL + href})
		}
	}
	d.Alternates = append(d.Alternates, link{
		Lang: "x-default",
		Href: rd.baseURL + rd.router.LocalizedPath(cfg.Fallback, logical),
	})
	return d
}

func (rd *Renderer) render(w http.ResponseWriter, name string, status int, d *pageData) {
	var buf bytes.Buffer
	if err := rd.templates[name].ExecuteTemplate(&buf, "layout", d); err != nil {
		slog.Error("render page", slog.String("component", "pages"), slog.String("page", name), slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (rd *Renderer) Home(w http.ResponseWriter, r *http.Request) {
	d := rd.newPage(r, "/")
	d.Title = d.T("home_title")
	d.Description = d.T("home_description")
	rd.render(w, "home", http.StatusOK, d)
}

func (rd *Renderer) Transcript(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	d := rd.newPage(r, rd.router.Config().TranscriptPrefix+"/"+videoID)

	tr, err := rd.transcripts.FetchByID(r.Context(), videoID, []string{d.Lang})
	switch {
	case err == nil:
		d.Transcript = tr
		title := tr.Title
		if title == "" {
			title = videoID
		}
		vars := map[string]string{"Title": title}
		d.Title = d.T("transcript_title", vars)
		d.Description = d.T("transcript_description", vars)
		rd.render(w, "transcript", http.StatusOK, d)
	case errors.Is(err, transcript.ErrInvalidURL), errors.Is(err, transcript.ErrVideoNotFound):
		rd.NotFound(w, r)
	case errors.Is(err, transcript.ErrNoTranscript):
		d.Title = d.T("transcript_unavailable")
		rd.render(w, "transcript", http.StatusNotFound, d)
	default:
		slog.Warn("transcript page fetch failed",
			slog.String("component", "pages"),
			slog.String("video_id", videoID),
			slog.Any("error", err))
		d.Title = d.T("transcript_unavailable")
		rd.render(w, "transcript", http.StatusBadGateway, d)
	}
}

// Page serves the fixed informational pages by slug.
func (rd *Renderer) Page(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "page")
	ids, ok := staticPages[slug]
	if !ok {
		rd.NotFound(w, r)
		return
	}
	d := rd.newPage(r, "/"+slug)
	d.Title = d.T(ids.title)
	d.Body = d.T(ids.body)
	d.Description = d.Body
	rd.render(w, "static", http.StatusOK, d)
}

func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	d := rd.newPage(r, "/")
	d.Title = d.T("not_found_title")
	d.Body = d.T("not_found_body")
	rd.render(w, "notfound", http.StatusNotFound, d)
}

// timestamp formats seconds as m:ss or h:mm:ss.
func timestamp(sec float64) string {
	total := int(sec)
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
