package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tubescript/backend/internal/translate"
)

// Translator is implemented by *translate.Service.
type Translator interface {
	Translate(ctx context.Context, text, target string) (translate.Result, error)
	TranslateSegments(ctx context.Context, texts []string, target string) (translate.SegmentsResult, error)
	Engines() []string
}

type TranslateHandler struct {
	translator Translator
}

func NewTranslateHandler(translator Translator) *TranslateHandler {
	return &TranslateHandler{translator: translator}
}

type translateRequest struct {
	Text     string   `json:"text"`
	Segments []string `json:"segments"`
	Target   string   `json:"target"`
}

// Translate translates either free text or a list of segments.
func (h *TranslateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Target == "" {
		jsonError(w, "target is required", http.StatusBadRequest)
		return
	}

	var (
		res any
		err error
	)
	switch {
	case len(req.Segments) > 0:
		res, err = h.translator.TranslateSegments(r.Context(), req.Segments, req.Target)
	case req.Text != "":
		res, err = h.translator.Translate(r.Context(), req.Text, req.Target)
	default:
		jsonError(w, "text or segments is required", http.StatusBadRequest)
		return
	}

	switch {
	case err == nil:
		jsonResponse(w, res, http.StatusOK)
	case errors.Is(err, translate.ErrUnsupportedLanguage):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled):
	default:
		slog.Warn("translation failed",
			slog.String("component", "api"),
			slog.String("target", req.Target),
			slog.Any("error", err))
		jsonError(w, "translation failed", http.StatusBadGateway)
	}
}

// Engines lists the configured translation engines, primary first.
func (h *TranslateHandler) Engines(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string][]string{"engines": h.translator.Engines()}, http.StatusOK)
}
