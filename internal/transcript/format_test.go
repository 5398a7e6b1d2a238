package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTranscript() *Transcript {
	return &Transcript{
		VideoID:  "dQw4w9WgXcQ",
		Language: "en",
		Segments: []Segment{
			{Text: "never gonna", Offset: 18.2, Duration: 2.5},
			{Text: "", Offset: 20.7, Duration: 0.1},
			{Text: "give you up", Offset: 3725.05, Duration: 1},
		},
	}
}

func TestRenderVTT(t *testing.T) {
	t.Parallel()
	want := "WEBVTT\n\n" +
		"1\n00:00:18.200 --> 00:00:20.700\nnever gonna\n\n" +
		"2\n01:02:05.050 --> 01:02:06.050\ngive you up\n\n"
	assert.Equal(t, want, sampleTranscript().Render(FormatVTT))
}

func TestRenderSRT(t *testing.T) {
	t.Parallel()
	out := sampleTranscript().Render(FormatSRT)
	assert.Contains(t, out, "1\n00:00:18,200 --> 00:00:20,700\nnever gonna\n\n")
	assert.NotContains(t, out, "WEBVTT")
}

func TestRenderText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "never gonna give you up\n", sampleTranscript().Render(FormatText))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	f, ok := ParseFormat("VTT")
	assert.True(t, ok)
	assert.Equal(t, FormatVTT, f)
	assert.Equal(t, "text/vtt; charset=utf-8", f.ContentType())

	_, ok = ParseFormat("docx")
	assert.False(t, ok)
}
