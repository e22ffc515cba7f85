package models

import (
	"time"
)

// ProcessingStatus represents where a processing unit is in the
// transcription/summarization pipeline
type ProcessingStatus string

const (
	ProcessingStatusPending      ProcessingStatus = "pending"
	ProcessingStatusDownloading  ProcessingStatus = "downloading"
	ProcessingStatusTranscribing ProcessingStatus = "transcribing"
	ProcessingStatusSummarizing  ProcessingStatus = "summarizing"
	ProcessingStatusReady        ProcessingStatus = "ready"
	ProcessingStatusError        ProcessingStatus = "error"
)

// Valid returns true if the status is one of the six known values
func (s ProcessingStatus) Valid() bool {
	switch s {
	case ProcessingStatusPending, ProcessingStatusDownloading,
		ProcessingStatusTranscribing, ProcessingStatusSummarizing,
		ProcessingStatusReady, ProcessingStatusError:
		return true
	}
	return false
}

// IsTerminal returns true if the status is terminal for an invocation
func (s ProcessingStatus) IsTerminal() bool {
	return s == ProcessingStatusReady || s == ProcessingStatusError
}

// InFlight returns true while an external API call may be outstanding.
// The stuck sweeper only considers in-flight units.
func (s ProcessingStatus) InFlight() bool {
	return s == ProcessingStatusTranscribing || s == ProcessingStatusSummarizing
}

// ProcessingState holds the pipeline state machine fields shared by both
// processing-unit variants (the per-user UserEpisode and the shared Episode).
type ProcessingState struct {
	ProcessingStatus ProcessingStatus `json:"processing_status" gorm:"default:'pending';index"`
	ProcessingError  string           `json:"processing_error,omitempty"`
	RetryCount       int              `json:"retry_count" gorm:"default:0"`
	NextRetryAt      *time.Time       `json:"next_retry_at"`
	LastErrorAt      *time.Time       `json:"last_error_at"`
}

// IsReady returns true once both artifacts exist and the unit completed
func (p *ProcessingState) IsReady() bool {
	return p.ProcessingStatus == ProcessingStatusReady
}

// IsError returns true if the unit hit a terminal failure
func (p *ProcessingState) IsError() bool {
	return p.ProcessingStatus == ProcessingStatusError
}

// AwaitingRetry returns true while a rescheduled attempt has not yet run
func (p *ProcessingState) AwaitingRetry() bool {
	return p.NextRetryAt != nil && p.RetryCount > 0
}

// ResetProcessing returns the state fields to their initial values,
// used by manual retry and by moving an episode back into the library
func (p *ProcessingState) ResetProcessing() {
	p.ProcessingStatus = ProcessingStatusPending
	p.ProcessingError = ""
	p.RetryCount = 0
	p.NextRetryAt = nil
	p.LastErrorAt = nil
}
