package translate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubescript/backend/internal/job"
	"github.com/tubescript/backend/internal/transcript"
)

// fakeEngine upper-cases its input, failing on calls listed in failOn
// (1-based) or when the text contains failText.
type fakeEngine struct {
	name     string
	mu       sync.Mutex
	calls    int
	failOn   map[int]bool
	failText string
	targets  []string
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Translate(ctx context.Context, text, source, target string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.targets = append(f.targets, target)
	if f.failOn[f.calls] || (f.failText != "" && strings.Contains(text, f.failText)) {
		return "", errors.New(f.name + " unavailable")
	}
	return strings.ToUpper(strings.TrimSpace(text)), nil
}

func TestTranslateSingleChunk(t *testing.T) {
	t.Parallel()
	primary := &fakeEngine{name: "primary"}
	svc := NewService(primary)

	res, err := svc.Translate(context.Background(), "hello world", "ES")
	require.NoError(t, err)
	assert.Equal(t, Result{Text: "HELLO WORLD", Chunks: 1}, res)
	assert.Equal(t, []string{"es"}, primary.targets)
}

func TestTranslateKeepsParagraphBreaks(t *testing.T) {
	t.Parallel()
	svc := NewService(&fakeEngine{name: "primary"}, WithChunkSize(10))

	res, err := svc.Translate(context.Background(), "one two.\n\nthree.", "pt")
	require.NoError(t, err)
	assert.Equal(t, "ONE TWO.\n\nTHREE.", res.Text)
	assert.Equal(t, 2, res.Chunks)
}

func TestTranslateFallbackRetry(t *testing.T) {
	t.Parallel()
	primary := &fakeEngine{name: "primary", failOn: map[int]bool{1: true}}
	fallback := &fakeEngine{name: "fallback"}
	svc := NewService(primary, WithFallback(fallback))

	res, err := svc.Translate(context.Background(), "hello", "de")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", res.Text)
	assert.Zero(t, res.Failed)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestTranslateRetriesPrimaryWithoutFallback(t *testing.T) {
	t.Parallel()
	primary := &fakeEngine{name: "primary", failOn: map[int]bool{1: true}}
	svc := NewService(primary)

	res, err := svc.Translate(context.Background(), "hello", "de")
	require.NoError(t, err)
	assert.Equal(t, "HELLO", res.Text)
	assert.Equal(t, 2, primary.calls)
}

func TestTranslatePartialFailureKeepsOriginal(t *testing.T) {
	t.Parallel()
	primary := &fakeEngine{name: "primary", failText: "bad"}
	fallback := &fakeEngine{name: "fallback", failText: "bad"}
	svc := NewService(primary, WithFallback(fallback), WithChunkSize(12))

	res, err := svc.Translate(context.Background(), "good one.\n\nbad one.\n\nfine.", "es")
	require.NoError(t, err)
	assert.Equal(t, "GOOD ONE.\n\nbad one.\n\nFINE.", res.Text)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, 1, res.Failed)
}

func TestTranslateAllChunksFailed(t *testing.T) {
	t.Parallel()
	svc := NewService(&fakeEngine{name: "primary", failText: "o"}, WithFallback(&fakeEngine{name: "fallback", failText: "o"}))

	res, err := svc.Translate(context.Background(), "hello world", "es")
	assert.ErrorIs(t, err, ErrTranslationFailed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, "hello world", res.Text)
}

func TestTranslateRejectsBadTarget(t *testing.T) {
	t.Parallel()
	primary := &fakeEngine{name: "primary"}
	svc := NewService(primary)

	for _, target := range []string{"", "auto", "not a language", "xx"} {
		_, err := svc.Translate(context.Background(), "hello", target)
		assert.ErrorIs(t, err, ErrUnsupportedLanguage, target)
	}
	assert.Zero(t, primary.calls)
}

func TestTranslateEmptyText(t *testing.T) {
	t.Parallel()
	primary := &fakeEngine{name: "primary"}
	res, err := NewService(primary).Translate(context.Background(), "   ", "es")
	require.NoError(t, err)
	assert.Equal(t, "   ", res.Text)
	assert.Zero(t, primary.calls)
}

func TestTranslateDelayHonoursContext(t *testing.T) {
	t.Parallel()
	svc := NewService(&fakeEngine{name: "primary"}, WithChunkSize(5), WithDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.Translate(ctx, "aaaa\n\nbbbb", "es")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTranslateSegments(t *testing.T) {
	t.Parallel()
	svc := NewService(&fakeEngine{name: "primary"}, WithChunkSize(12))

	res, err := svc.TranslateSegments(context.Background(), []string{"one", "two", "three"}, "es")
	require.NoError(t, err)
	assert.Equal(t, []string{"ONE", "TWO", "THREE"}, res.Segments)
	assert.Zero(t, res.Lost)
	assert.Greater(t, res.Chunks, 1)
}

type fakeSource struct {
	tr  *transcript.Transcript
	err error
}

func (f fakeSource) FetchByID(ctx context.Context, videoID string, langs []string) (*transcript.Transcript, error) {
	return f.tr, f.err
}

func TestTranscriptJobHandler(t *testing.T) {
	t.Parallel()
	svc := NewService(&fakeEngine{name: "primary"})
	src := fakeSource{tr: &transcript.Transcript{
		VideoID:  "dQw4w9WgXcQ",
		Language: "en",
		Segments: []transcript.Segment{{Text: "hi", Offset: 1, Duration: 2}, {Text: "there", Offset: 3, Duration: 1}},
	}}

	params, _ := json.Marshal(job.TranslateTranscriptParams{TargetLang: "es"})
	j := &job.Job{ID: "1", VideoID: "dQw4w9WgXcQ", Params: params}
	var progress []float64
	err := svc.TranscriptJobHandler(src)(context.Background(), j, func(p float64) { progress = append(progress, p) })
	require.NoError(t, err)

	var out TranscriptResult
	require.NoError(t, json.Unmarshal(j.Result, &out))
	assert.Equal(t, "en", out.SourceLanguage)
	assert.Equal(t, "es", out.TargetLanguage)
	assert.Equal(t, []transcript.Segment{{Text: "HI", Offset: 1, Duration: 2}, {Text: "THERE", Offset: 3, Duration: 1}}, out.Segments)
	require.Len(t, progress, 2)
	assert.InDelta(t, 0.1, progress[0], 1e-9)
	assert.InDelta(t, 1.0, progress[1], 1e-9)
}

func TestTranscriptJobHandlerSourceError(t *testing.T) {
	t.Parallel()
	svc := NewService(&fakeEngine{name: "primary"})
	params, _ := json.Marshal(job.TranslateTranscriptParams{TargetLang: "es"})
	j := &job.Job{ID: "1", VideoID: "dQw4w9WgXcQ", Params: params}

	err := svc.TranscriptJobHandler(fakeSource{err: transcript.ErrNoTranscript})(context.Background(), j, func(float64) {})
	assert.ErrorIs(t, err, transcript.ErrNoTranscript)
	assert.Nil(t, j.Result)
}
