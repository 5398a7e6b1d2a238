package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultWatchURL   = "https://www.youtube.com/watch"
	userAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	playerMarker      = "ytInitialPlayerResponse = "
	maxWatchPageBytes = 6 << 20
	maxTimedTextBytes = 2 << 20
)

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails *struct {
		Title string `json:"title"`
	} `json:"videoDetails"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

type timedText struct {
	Lines []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Text  string `xml:",chardata"`
	} `xml:"text"`
}

type statusError struct {
	Code int
}

func (e *statusError) Error() string { return fmt.Sprintf("HTTP %d", e.Code) }

// YouTubeProvider scrapes the public watch page for caption tracks.
type YouTubeProvider struct {
	client   *http.Client
	watchURL string
	maxTries uint
	initial  time.Duration
}

type YouTubeOption func(*YouTubeProvider)

// WithWatchURL overrides the watch page endpoint.
func WithWatchURL(u string) YouTubeOption {
	return func(p *YouTubeProvider) { p.watchURL = u }
}

// WithRetry sets the attempt count and first backoff interval.
func WithRetry(tries uint, initial time.Duration) YouTubeOption {
	return func(p *YouTubeProvider) {
		p.maxTries = tries
		p.initial = initial
	}
}

func NewYouTubeProvider(client *http.Client, opts ...YouTubeOption) *YouTubeProvider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	p := &YouTubeProvider{
		client:   client,
		watchURL: defaultWatchURL,
		maxTries: 3,
		initial:  500 * time.Millisecond,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *YouTubeProvider) Name() string { return "youtube" }

func (p *YouTubeProvider) Fetch(ctx context.Context, videoID string, langs []string) (*Transcript, error) {
	page, err := p.get(ctx, p.watchURL+"?v="+videoID+"&hl=en")
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("watch page: %w", err)
	}

	player, err := parsePlayerResponse(page)
	if err != nil {
		return nil, err
	}
	if ps := player.PlayabilityStatus; ps != nil {
		switch ps.Status {
		case "ERROR", "UNPLAYABLE":
			return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, ps.Reason)
		}
	}
	if player.Captions == nil {
		return nil, ErrNoTranscript
	}
	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		return nil, ErrNoTranscript
	}

	body, err := p.get(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("timedtext: %w", err)
	}
	segments, err := parseTimedText(body)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, ErrNoTranscript
	}

	t := &Transcript{
		VideoID:  videoID,
		Language: track.LanguageCode,
		Segments: segments,
		Tracks:   trackList(tracks),
	}
	if player.VideoDetails != nil {
		t.Title = player.VideoDetails.Title
	}
	return t, nil
}

// get performs a GET with exponential backoff. 429 and 5xx responses are
// retried; any other non-200 status is permanent.
func (p *YouTubeProvider) get(ctx context.Context, u string) ([]byte, error) {
	limit := int64(maxWatchPageBytes)
	if strings.Contains(u, "timedtext") {
		limit = maxTimedTextBytes
	}

	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, &statusError{Code: resp.StatusCode}
		default:
			return nil, backoff.Permanent(&statusError{Code: resp.StatusCode})
		}
		return io.ReadAll(io.LimitReader(resp.Body, limit))
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initial
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.Debug("youtube retry",
				slog.String("component", "transcript"),
				slog.Duration("wait", wait),
				slog.Any("error", err))
		}),
	)
}

// parsePlayerResponse decodes the ytInitialPlayerResponse object embedded
// in a watch page.
func parsePlayerResponse(page []byte) (*playerResponse, error) {
	idx := bytes.Index(page, []byte(playerMarker))
	if idx < 0 {
		return nil, fmt.Errorf("%w: player response missing", ErrVideoNotFound)
	}
	var player playerResponse
	dec := json.NewDecoder(bytes.NewReader(page[idx+len(playerMarker):]))
	if err := dec.Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	return &player, nil
}

func trackList(tracks []captionTrack) []Track {
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		out[i] = Track{Language: t.LanguageCode, Generated: t.Kind == "asr"}
	}
	return out
}

func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	i := BestTrack(trackList(tracks), langs)
	if i < 0 {
		return captionTrack{}, false
	}
	return tracks[i], true
}

func parseTimedText(body []byte) ([]Segment, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext: %w", err)
	}
	segments := make([]Segment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := strings.Join(strings.Fields(html.UnescapeString(line.Text)), " ")
		if text == "" {
			continue
		}
		start, _ := strconv.ParseFloat(line.Start, 64)
		dur, _ := strconv.ParseFloat(line.Dur, 64)
		segments = append(segments, Segment{Text: text, Offset: start, Duration: dur})
	}
	return segments, nil
}
