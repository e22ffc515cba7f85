package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJob_PayloadAccessors(t *testing.T) {
	job := &Job{Payload: JobPayload{
		"unit":      "episode/7",
		"unit_kind": "episode",
		"unit_id":   float64(7), // JSON numbers decode as float64
		"count":     42,
		"negative":  -1,
	}}

	str, ok := job.GetPayloadString("unit")
	assert.True(t, ok)
	assert.Equal(t, "episode/7", str)

	_, ok = job.GetPayloadString("unit_id")
	assert.False(t, ok, "numeric value is not a string")

	id, ok := job.GetPayloadUint("unit_id")
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)

	count, ok := job.GetPayloadUint("count")
	assert.True(t, ok)
	assert.Equal(t, uint(42), count)

	_, ok = job.GetPayloadUint("negative")
	assert.False(t, ok)

	_, ok = job.GetPayloadUint("missing")
	assert.False(t, ok)

	empty := &Job{}
	_, ok = empty.GetPayloadString("unit")
	assert.False(t, ok)
}

func TestJob_Scheduling(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	immediate := &Job{Status: JobStatusPending}
	assert.True(t, immediate.IsDue(now))
	assert.True(t, immediate.CanProcess(now))

	delayed := &Job{Status: JobStatusPending, RunAt: &future}
	assert.False(t, delayed.IsDue(now))
	assert.False(t, delayed.CanProcess(now))
	assert.True(t, delayed.CanProcess(future), "due at exactly run_at")

	overdue := &Job{Status: JobStatusPending, RunAt: &past}
	assert.True(t, overdue.CanProcess(now))

	claimed := &Job{Status: JobStatusProcessing}
	assert.False(t, claimed.CanProcess(now))
}

func TestJob_Terminal(t *testing.T) {
	assert.True(t, (&Job{Status: JobStatusCompleted}).IsTerminal())
	assert.True(t, (&Job{Status: JobStatusPermanentlyFailed}).IsTerminal())
	assert.True(t, (&Job{Status: JobStatusCancelled}).IsTerminal())

	retryable := &Job{Status: JobStatusFailed, RetryCount: 1, MaxRetries: 3}
	assert.False(t, retryable.IsTerminal())
	assert.True(t, retryable.IsRetryable())

	exhausted := &Job{Status: JobStatusFailed, RetryCount: 3, MaxRetries: 3}
	assert.True(t, exhausted.IsTerminal())
	assert.False(t, exhausted.IsRetryable())

	assert.False(t, (&Job{Status: JobStatusPending}).IsTerminal())
}

func TestStructuredJobError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewTranscriptionError("TRANSCRIPTION_FAILED", "transcription failed for unit episode/1", "network", cause)

	assert.Equal(t, ErrorTypeTranscription, err.Type)
	assert.Equal(t, "transcription failed for unit episode/1", err.Error())
	assert.ErrorIs(t, err, cause)

	var structured *StructuredJobError
	assert.ErrorAs(t, error(err), &structured)

	assert.Equal(t, ErrorTypeSummarization, NewSummarizationError("C", "m", "", nil).Type)
	assert.Equal(t, ErrorTypeSystem, NewSystemError("C", "m", "", nil).Type)
}

func TestJob_SetErrorDetails(t *testing.T) {
	job := &Job{}
	job.SetErrorDetails(ErrorTypeSummarization, "SUMMARIZATION_FAILED", "rate limited", "429 from upstream")

	assert.Equal(t, string(ErrorTypeSummarization), job.ErrorType)
	assert.Equal(t, "SUMMARIZATION_FAILED", job.ErrorCode)
	assert.Equal(t, "rate limited", job.Error)
	assert.Equal(t, "429 from upstream", job.ErrorDetails)
}
