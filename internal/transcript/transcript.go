// Package transcript fetches YouTube caption tracks and turns them into
// timed segments.
package transcript

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidURL    = errors.New("invalid youtube url")
	ErrVideoNotFound = errors.New("video not found")
	ErrNoTranscript  = errors.New("no transcript available")
)

// Segment is one caption cue. Offset and Duration are in seconds.
type Segment struct {
	Text     string  `json:"text"`
	Offset   float64 `json:"offset"`
	Duration float64 `json:"duration"`
}

type Transcript struct {
	VideoID  string    `json:"video_id"`
	Title    string    `json:"title,omitempty"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
	// Tracks lists every caption track the video offered when fetched.
	Tracks []Track `json:"tracks,omitempty"`
}

// Track is one caption track of a video.
type Track struct {
	Language  string `json:"language"`
	Generated bool   `json:"generated,omitempty"`
}

// BestTrack returns the index of the track to use for langs, or -1 when
// tracks is empty. It prefers a manual track in a preferred language, then
// an auto-generated one, then any English track, then the first track.
func BestTrack(tracks []Track, langs []string) int {
	if len(tracks) == 0 {
		return -1
	}
	for _, lang := range langs {
		for i, t := range tracks {
			if t.Language == lang && !t.Generated {
				return i
			}
		}
	}
	for _, lang := range langs {
		for i, t := range tracks {
			if t.Language == lang {
				return i
			}
		}
	}
	for i, t := range tracks {
		if strings.HasPrefix(t.Language, "en") {
			return i
		}
	}
	return 0
}

// Text joins the segment texts with single spaces.
func (t *Transcript) Text() string {
	var sb strings.Builder
	for _, s := range t.Segments {
		if s.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Provider fetches the transcript of one video. langs lists preferred
// caption languages in order.
type Provider interface {
	Fetch(ctx context.Context, videoID string, langs []string) (*Transcript, error)
	Name() string
}
