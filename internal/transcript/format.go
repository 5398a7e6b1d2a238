package transcript

import (
	"fmt"
	"math"
	"strings"
)

// Format is a transcript download format.
type Format string

const (
	FormatText Format = "txt"
	FormatVTT  Format = "vtt"
	FormatSRT  Format = "srt"
)

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatVTT:
		return "text/vtt; charset=utf-8"
	case FormatSRT:
		return "application/x-subrip; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// ParseFormat accepts txt, vtt and srt, case-insensitively.
func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatVTT, FormatSRT:
		return f, true
	}
	return "", false
}

// Render writes the transcript in format f.
func (t *Transcript) Render(f Format) string {
	switch f {
	case FormatVTT:
		return t.cues("WEBVTT\n\n", '.')
	case FormatSRT:
		return t.cues("", ',')
	default:
		return t.Text() + "\n"
	}
}

func (t *Transcript) cues(header string, msSep byte) string {
	var sb strings.Builder
	sb.WriteString(header)
	n := 0
	for _, seg := range t.Segments {
		if seg.Text == "" {
			continue
		}
		n++
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n", n,
			cueTimestamp(seg.Offset, msSep),
			cueTimestamp(seg.Offset+seg.Duration, msSep),
			seg.Text)
	}
	return sb.String()
}

func cueTimestamp(seconds float64, msSep byte) string {
	totalMs := int(math.Round(seconds * 1000))
	h := totalMs / 3600000
	totalMs %= 3600000
	m := totalMs / 60000
	totalMs %= 60000
	s := totalMs / 1000
	ms := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, msSep, ms)
}
