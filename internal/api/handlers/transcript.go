package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tubescript/backend/internal/transcript"
)

// TranscriptFetcher is implemented by *transcript.Service.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, rawURL string, langs []string) (*transcript.Transcript, error)
	Cached(videoID string) (*transcript.Transcript, error)
}

type TranscriptHandler struct {
	transcripts TranscriptFetcher
}

func NewTranscriptHandler(transcripts TranscriptFetcher) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts}
}

type transcriptRequest struct {
	URL       string   `json:"url"`
	Languages []string `json:"languages"`
}

type transcriptResponse struct {
	*transcript.Transcript
	Text string `json:"text"`
}

// Fetch resolves a YouTube URL or id and returns its transcript.
func (h *TranscriptHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	var req transcriptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		jsonError(w, "url is required", http.StatusBadRequest)
		return
	}

	t, err := h.transcripts.Fetch(r.Context(), req.URL, req.Languages)
	if err != nil {
		transcriptError(w, r, err)
		return
	}
	jsonResponse(w, transcriptResponse{Transcript: t, Text: t.Text()}, http.StatusOK)
}

// Get returns a previously fetched transcript without contacting YouTube.
func (h *TranscriptHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.transcripts.Cached(chi.URLParam(r, "videoID"))
	if err != nil {
		transcriptError(w, r, err)
		return
	}
	jsonResponse(w, transcriptResponse{Transcript: t, Text: t.Text()}, http.StatusOK)
}

// Download serves a cached transcript as a txt, vtt or srt attachment.
func (h *TranscriptHandler) Download(w http.ResponseWriter, r *http.Request) {
	format := transcript.FormatText
	if q := r.URL.Query().Get("format"); q != "" {
		f, ok := transcript.ParseFormat(q)
		if !ok {
			jsonError(w, "unsupported format: "+q, http.StatusBadRequest)
			return
		}
		format = f
	}

	t, err := h.transcripts.Cached(chi.URLParam(r, "videoID"))
	if err != nil {
		transcriptError(w, r, err)
		return
	}
	filename := fmt.Sprintf("%s.%s.%s", t.VideoID, t.Language, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	io.WriteString(w, t.Render(format))
}

func transcriptError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, transcript.ErrInvalidURL):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, transcript.ErrVideoNotFound), errors.Is(err, transcript.ErrNoTranscript):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		slog.Warn("transcript fetch failed",
			slog.String("component", "api"),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		jsonError(w, "failed to fetch transcript", http.StatusBadGateway)
	}
}
