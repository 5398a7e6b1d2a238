package job

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubescript/backend/internal/db"
)

func newTestQueue(t *testing.T) *JobQueue {
	t.Helper()
	d, err := db.NewSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	q := NewJobQueue(d.DB())
	t.Cleanup(func() {
		q.Stop()
		d.Close()
	})
	return q
}

func waitStatus(t *testing.T, q *JobQueue, id string, want JobStatus) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		var err error
		job, err = q.GetJob(id)
		return err == nil && job.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestEnqueueAndComplete(t *testing.T) {
	q := newTestQueue(t)
	q.RegisterHandler(JobTranslateTranscript, func(ctx context.Context, j *Job, progress func(float64)) error {
		var p TranslateTranscriptParams
		require.NoError(t, json.Unmarshal(j.Params, &p))
		progress(0.5)
		j.Result = json.RawMessage(`{"target":"` + p.TargetLang + `"}`)
		return nil
	})
	q.Start()

	job, err := q.Enqueue(JobTranslateTranscript, "dQw4w9WgXcQ", TranslateTranscriptParams{TargetLang: "es"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)

	done := waitStatus(t, q, job.ID, StatusCompleted)
	assert.Equal(t, 1.0, done.Progress)
	assert.JSONEq(t, `{"target":"es"}`, string(done.Result))
	assert.Equal(t, "dQw4w9WgXcQ", done.VideoID)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)

	jobs, err := q.ListJobs()
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestFailedJobCanBeRetried(t *testing.T) {
	q := newTestQueue(t)
	attempts := make(chan struct{}, 2)
	q.RegisterHandler(JobTranslateTranscript, func(ctx context.Context, j *Job, _ func(float64)) error {
		attempts <- struct{}{}
		if len(attempts) == 1 {
			return errors.New("upstream unavailable")
		}
		return nil
	})
	q.Start()

	job, err := q.Enqueue(JobTranslateTranscript, "dQw4w9WgXcQ", TranslateTranscriptParams{TargetLang: "pt"})
	require.NoError(t, err)
	failed := waitStatus(t, q, job.ID, StatusFailed)
	assert.Equal(t, "upstream unavailable", failed.Error)

	_, err = q.RetryJob(job.ID)
	require.NoError(t, err)
	done := waitStatus(t, q, job.ID, StatusCompleted)
	assert.Empty(t, done.Error)
}

func TestRetryRejectsActiveAndUnknownJobs(t *testing.T) {
	q := newTestQueue(t)

	job, err := q.Enqueue(JobTranslateTranscript, "dQw4w9WgXcQ", TranslateTranscriptParams{TargetLang: "pt"})
	require.NoError(t, err)

	_, err = q.RetryJob(job.ID)
	assert.ErrorIs(t, err, ErrNotRetryable)

	_, err = q.RetryJob("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, q.CancelJob("missing"), ErrNotFound)
}

func TestCancelRunningJob(t *testing.T) {
	q := newTestQueue(t)
	started := make(chan struct{})
	q.RegisterHandler(JobTranslateTranscript, func(ctx context.Context, j *Job, _ func(float64)) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	q.Start()

	job, err := q.Enqueue(JobTranslateTranscript, "dQw4w9WgXcQ", TranslateTranscriptParams{TargetLang: "es"})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not start")
	}
	require.NoError(t, q.CancelJob(job.ID))
	waitStatus(t, q, job.ID, StatusCancelled)
}

func TestUnknownJobTypeFails(t *testing.T) {
	q := newTestQueue(t)
	q.Start()

	job, err := q.Enqueue(JobType("bogus"), "dQw4w9WgXcQ", struct{}{})
	require.NoError(t, err)
	failed := waitStatus(t, q, job.ID, StatusFailed)
	assert.Contains(t, failed.Error, "no handler")
}

func TestResumeRequeuesInterruptedJobs(t *testing.T) {
	q := newTestQueue(t)

	job, err := q.Enqueue(JobTranslateTranscript, "dQw4w9WgXcQ", TranslateTranscriptParams{TargetLang: "es"})
	require.NoError(t, err)
	<-q.pending
	_, err = q.db.Exec("UPDATE jobs SET status = ? WHERE id = ?", StatusRunning, job.ID)
	require.NoError(t, err)

	q.RegisterHandler(JobTranslateTranscript, func(context.Context, *Job, func(float64)) error { return nil })
	q.Start()
	waitStatus(t, q, job.ID, StatusCompleted)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCompletionWriteErrorIsLogged(t *testing.T) {
	q := newTestQueue(t)
	var logs syncBuffer
	q.log = slog.New(slog.NewTextHandler(&logs, nil))
	_, err := q.db.Exec(`CREATE TRIGGER reject_completion BEFORE UPDATE OF status ON jobs
		WHEN NEW.status = 'completed' BEGIN SELECT RAISE(ABORT, 'disk full'); END`)
	require.NoError(t, err)

	q.RegisterHandler(JobTranslateTranscript, func(context.Context, *Job, func(float64)) error { return nil })
	q.Start()
	job, err := q.Enqueue(JobTranslateTranscript, "dQw4w9WgXcQ", TranslateTranscriptParams{TargetLang: "es"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "failed to complete job")
	}, 5*time.Second, 10*time.Millisecond)
	out := logs.String()
	assert.Contains(t, out, job.ID)
	assert.Contains(t, out, "disk full")
	assert.NotContains(t, out, "job completed")

	got, err := q.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
}
