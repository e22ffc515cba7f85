package units

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpaola2/show-notes/internal/models"
)

// ErrUnitNotFound indicates the referenced processing unit does not exist
var ErrUnitNotFound = errors.New("processing unit not found")

// Kind distinguishes the two processing-unit variants: the shared canonical
// episode and a user's per-copy of it. Both carry the same ProcessingState
// and are driven by the same orchestrator.
type Kind string

const (
	KindEpisode     Kind = "episode"
	KindUserEpisode Kind = "user_episode"
)

// Valid returns true for a known unit kind
func (k Kind) Valid() bool {
	return k == KindEpisode || k == KindUserEpisode
}

// Ref identifies one processing unit
type Ref struct {
	Kind Kind
	ID   uint
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

// Unit is the orchestrator's view of a processing unit: identity, the
// episode it feeds from, and the pipeline state machine fields
type Unit struct {
	Ref       Ref
	EpisodeID uint
	AudioURL  string
	State     models.ProcessingState
}

// Store persists processing-unit state transitions. Every write touches
// updated_at, which doubles as the staleness clock for the stuck sweeper.
type Store interface {
	Get(ctx context.Context, ref Ref) (*Unit, error)

	// SetStatus records a stage transition (downloading, transcribing, ...)
	SetStatus(ctx context.Context, ref Ref, status models.ProcessingStatus) error

	// MarkReady completes the pipeline: status ready, retry fields cleared
	MarkReady(ctx context.Context, ref Ref) error

	// MarkError records a terminal failure with a human-readable message
	MarkError(ctx context.Context, ref Ref, message string, at time.Time) error

	// ScheduleRetry persists the retry bookkeeping for a rescheduled
	// attempt without changing the status
	ScheduleRetry(ctx context.Context, ref Ref, retryCount int, nextRetryAt time.Time, message string, at time.Time) error

	// ResetProcessing returns the unit to its initial pending state,
	// used by manual retry
	ResetProcessing(ctx context.Context, ref Ref) error

	// FailStuck force-fails every unit of every kind that has sat in an
	// in-flight status since before the cutoff. Returns how many rows of
	// each kind were failed.
	FailStuck(ctx context.Context, cutoff time.Time, message string, now time.Time) (map[Kind]int64, error)
}
