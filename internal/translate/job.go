package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tubescript/backend/internal/job"
	"github.com/tubescript/backend/internal/transcript"
)

// TranscriptSource loads the transcript a job translates.
type TranscriptSource interface {
	FetchByID(ctx context.Context, videoID string, langs []string) (*transcript.Transcript, error)
}

// TranscriptResult is stored as the result of a transcript translation job.
type TranscriptResult struct {
	VideoID        string               `json:"video_id"`
	Title          string               `json:"title,omitempty"`
	SourceLanguage string               `json:"source_language"`
	TargetLanguage string               `json:"target_language"`
	Segments       []transcript.Segment `json:"segments"`
	Chunks         int                  `json:"chunks"`
	Failed         int                  `json:"failed"`
	Lost           int                  `json:"lost"`
}

// TranscriptJobHandler returns the job handler translating a whole
// transcript segment by segment, keeping the original timing.
func (s *Service) TranscriptJobHandler(src TranscriptSource) job.JobHandler {
	return func(ctx context.Context, j *job.Job, updateProgress func(float64)) error {
		var params job.TranslateTranscriptParams
		if err := json.Unmarshal(j.Params, &params); err != nil {
			return fmt.Errorf("unmarshal params: %w", err)
		}

		tr, err := src.FetchByID(ctx, j.VideoID, params.Languages)
		if err != nil {
			return fmt.Errorf("load transcript: %w", err)
		}
		updateProgress(0.1)

		texts := make([]string, len(tr.Segments))
		for i, seg := range tr.Segments {
			texts[i] = seg.Text
		}

		s.log.Info("translating transcript",
			slog.String("video_id", j.VideoID),
			slog.Int("segments", len(texts)),
			slog.String("target", params.TargetLang))

		res, err := s.translateSegments(ctx, texts, params.TargetLang, func(done, total int) {
			updateProgress(0.1 + 0.9*float64(done)/float64(total))
		})
		if err != nil {
			return err
		}

		out := TranscriptResult{
			VideoID:        tr.VideoID,
			Title:          tr.Title,
			SourceLanguage: tr.Language,
			TargetLanguage: params.TargetLang,
			Segments:       make([]transcript.Segment, len(tr.Segments)),
			Chunks:         res.Chunks,
			Failed:         res.Failed,
			Lost:           res.Lost,
		}
		for i, seg := range tr.Segments {
			seg.Text = res.Segments[i]
			out.Segments[i] = seg
		}

		resultJSON, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		j.Result = resultJSON
		return nil
	}
}
