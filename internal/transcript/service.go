package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tubescript/backend/internal/db"
)

const fetchTimeout = 60 * time.Second

// Store persists fetched transcripts. *db.Database satisfies it.
type Store interface {
	GetTranscript(videoID, language string) (*db.CachedTranscript, error)
	PutTranscript(videoID, language string, payload []byte) error
}

// Service validates input, serves cached transcripts and collapses
// concurrent fetches of the same video into one provider call.
type Service struct {
	provider Provider
	store    Store
	ttl      time.Duration
	langs    []string
	group    singleflight.Group
}

func NewService(provider Provider, store Store, ttl time.Duration, defaultLangs []string) *Service {
	return &Service{provider: provider, store: store, ttl: ttl, langs: defaultLangs}
}

// Fetch resolves rawURL to a video id and returns its transcript.
func (s *Service) Fetch(ctx context.Context, rawURL string, langs []string) (*Transcript, error) {
	id, err := ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}
	return s.FetchByID(ctx, id, langs)
}

func (s *Service) FetchByID(ctx context.Context, videoID string, langs []string) (*Transcript, error) {
	if !videoIDRe.MatchString(videoID) {
		return nil, ErrInvalidURL
	}
	if len(langs) == 0 {
		langs = s.langs
	}

	if t, ok := s.cached(videoID, langs); ok {
		return t, nil
	}

	key := videoID + "|" + strings.Join(langs, ",")
	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		t, err := s.provider.Fetch(fctx, videoID, langs)
		if err != nil {
			return nil, err
		}
		s.save(t)
		return t, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Transcript), nil
	}
}

// cached finds the stored transcript a fetch with langs would produce. The
// latest entry carries the video's track list, so the pick is replayed
// against it; entries without one are matched by language code.
func (s *Service) cached(videoID string, langs []string) (*Transcript, bool) {
	if s.store == nil {
		return nil, false
	}
	if latest, ok := s.load(videoID, ""); ok && len(latest.Tracks) > 0 {
		i := BestTrack(latest.Tracks, langs)
		if i < 0 {
			return nil, false
		}
		if want := latest.Tracks[i].Language; want != latest.Language {
			return s.load(videoID, want)
		}
		return latest, true
	}
	for _, lang := range langs {
		if t, ok := s.load(videoID, lang); ok {
			return t, true
		}
	}
	return nil, false
}

// load reads one cache entry, skipping expired or undecodable rows.
func (s *Service) load(videoID, lang string) (*Transcript, bool) {
	c, err := s.store.GetTranscript(videoID, lang)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			slog.Warn("transcript cache read failed",
				slog.String("component", "transcript"),
				slog.String("video_id", videoID),
				slog.Any("error", err))
		}
		return nil, false
	}
	if s.ttl > 0 && time.Since(c.FetchedAt) > s.ttl {
		return nil, false
	}
	var t Transcript
	if err := json.Unmarshal(c.Payload, &t); err != nil {
		return nil, false
	}
	return &t, true
}

// Cached returns a stored transcript in any language without fetching.
func (s *Service) Cached(videoID string) (*Transcript, error) {
	if s.store == nil {
		return nil, ErrNoTranscript
	}
	c, err := s.store.GetTranscript(videoID, "")
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNoTranscript
		}
		return nil, err
	}
	var t Transcript
	if err := json.Unmarshal(c.Payload, &t); err != nil {
		return nil, fmt.Errorf("decode cached transcript: %w", err)
	}
	return &t, nil
}

func (s *Service) save(t *Transcript) {
	if s.store == nil {
		return
	}
	payload, err := json.Marshal(t)
	if err == nil {
		err = s.store.PutTranscript(t.VideoID, t.Language, payload)
	}
	if err != nil {
		slog.Warn("transcript cache write failed",
			slog.String("component", "transcript"),
			slog.String("video_id", t.VideoID),
			slog.Any("error", err))
	}
}
