package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Result reports how a translation went. Failed counts chunks that kept
// their original text.
type Result struct {
	Text   string `json:"text"`
	Chunks int    `json:"chunks"`
	Failed int    `json:"failed"`
}

// SegmentsResult is the outcome of TranslateSegments. Lost counts
// segments whose marker did not survive translation.
type SegmentsResult struct {
	Segments []string `json:"segments"`
	Chunks   int      `json:"chunks"`
	Failed   int      `json:"failed"`
	Lost     int      `json:"lost"`
}

// Service translates long text chunk by chunk with a primary engine and an
// optional fallback engine.
type Service struct {
	primary   Engine
	fallback  Engine
	chunkSize int
	delay     time.Duration
	log       *slog.Logger
}

type Option func(*Service)

// WithFallback sets the engine used for the single retry of a failed chunk.
func WithFallback(e Engine) Option {
	return func(s *Service) { s.fallback = e }
}

func WithChunkSize(n int) Option {
	return func(s *Service) { s.chunkSize = n }
}

// WithDelay sets the pause between consecutive chunk requests.
func WithDelay(d time.Duration) Option {
	return func(s *Service) { s.delay = d }
}

func NewService(primary Engine, opts ...Option) *Service {
	s := &Service{
		primary:   primary,
		chunkSize: DefaultChunkSize,
		log:       slog.Default().With(slog.String("component", "translate")),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Engines returns the configured engine names, primary first.
func (s *Service) Engines() []string {
	names := []string{s.primary.Name()}
	if s.fallback != nil {
		names = append(names, s.fallback.Name())
	}
	return names
}

// Translate translates text into target. It fails only when the target is
// invalid or every chunk failed; partial failures keep the original chunks.
func (s *Service) Translate(ctx context.Context, text, target string) (Result, error) {
	return s.translate(ctx, text, target, nil)
}

func (s *Service) translate(ctx context.Context, text, target string, progress func(done, total int)) (Result, error) {
	target, err := NormalizeLang(target)
	if err != nil {
		return Result{}, err
	}
	chunks := SplitChunks(text, s.chunkSize)
	if len(chunks) == 0 {
		return Result{Text: text}, nil
	}

	var sb strings.Builder
	res := Result{Chunks: len(chunks)}
	var lastErr error
	for i, chunk := range chunks {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(s.delay):
			}
		}

		out, err := s.translateChunk(ctx, chunk, target)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			lastErr = err
			res.Failed++
			s.log.Warn("chunk kept untranslated",
				slog.Int("chunk", i+1),
				slog.Int("chunks", len(chunks)),
				slog.String("target", target),
				slog.Any("error", err))
			out = chunk
		} else {
			out = keepSpacing(chunk, out)
		}
		sb.WriteString(out)
		if progress != nil {
			progress(i+1, len(chunks))
		}
	}
	res.Text = sb.String()

	if res.Failed == res.Chunks {
		return res, fmt.Errorf("%w: %v", ErrTranslationFailed, lastErr)
	}
	return res, nil
}

func (s *Service) translateChunk(ctx context.Context, chunk, target string) (string, error) {
	if strings.TrimSpace(chunk) == "" {
		return chunk, nil
	}
	out, err := s.primary.Translate(ctx, chunk, "auto", target)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	retry := s.primary
	if s.fallback != nil {
		retry = s.fallback
	}
	s.log.Debug("retrying chunk",
		slog.String("failed", s.primary.Name()),
		slog.String("retry", retry.Name()),
		slog.Any("error", err))
	out, err = retry.Translate(ctx, chunk, "auto", target)
	if err != nil {
		return "", fmt.Errorf("%s: %w", retry.Name(), err)
	}
	return out, nil
}

// TranslateSegments translates many short texts as one marked-up document.
func (s *Service) TranslateSegments(ctx context.Context, texts []string, target string) (SegmentsResult, error) {
	return s.translateSegments(ctx, texts, target, nil)
}

func (s *Service) translateSegments(ctx context.Context, texts []string, target string, progress func(done, total int)) (SegmentsResult, error) {
	if len(texts) == 0 {
		if _, err := NormalizeLang(target); err != nil {
			return SegmentsResult{}, err
		}
		return SegmentsResult{Segments: []string{}}, nil
	}
	res, err := s.translate(ctx, JoinSegments(texts), target, progress)
	if err != nil {
		return SegmentsResult{}, err
	}
	segments, lost := SplitSegments(res.Text, texts)
	if lost > 0 {
		s.log.Warn("segment markers lost", slog.Int("lost", lost), slog.Int("segments", len(texts)))
	}
	return SegmentsResult{Segments: segments, Chunks: res.Chunks, Failed: res.Failed, Lost: lost}, nil
}
