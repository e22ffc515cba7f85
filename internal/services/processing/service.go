package processing

import (
	"context"
	"fmt"
	"log"

	"github.com/dpaola2/show-notes/internal/models"
	"github.com/dpaola2/show-notes/internal/services/jobs"
	"github.com/dpaola2/show-notes/internal/services/units"
)

// payload keys understood by the episode processing worker
const (
	PayloadUnit     = "unit"
	PayloadUnitKind = "unit_kind"
	PayloadUnitID   = "unit_id"
)

func payloadFor(ref units.Ref) models.JobPayload {
	return models.JobPayload{
		PayloadUnit:     ref.String(),
		PayloadUnitKind: string(ref.Kind),
		PayloadUnitID:   ref.ID,
	}
}

// RefFromJob reconstructs the unit reference a job was enqueued with
func RefFromJob(job *models.Job) (units.Ref, error) {
	kindStr, ok := job.GetPayloadString(PayloadUnitKind)
	if !ok {
		return units.Ref{}, fmt.Errorf("job %d payload missing %s", job.ID, PayloadUnitKind)
	}
	kind := units.Kind(kindStr)
	if !kind.Valid() {
		return units.Ref{}, fmt.Errorf("unknown unit kind %q", kindStr)
	}
	id, ok := job.GetPayloadUint(PayloadUnitID)
	if !ok {
		return units.Ref{}, fmt.Errorf("job %d payload missing %s", job.ID, PayloadUnitID)
	}
	return units.Ref{Kind: kind, ID: id}, nil
}

type service struct {
	*Orchestrator
	jobService jobs.Service
}

// NewService wraps the orchestrator with the enqueue entry points
func NewService(o *Orchestrator, jobService jobs.Service) Service {
	return &service{Orchestrator: o, jobService: jobService}
}

func (s *service) EnqueueProcessing(ctx context.Context, ref units.Ref) (*models.Job, error) {
	job, err := s.jobService.EnqueueUniqueJob(ctx, models.JobTypeEpisodeProcessing, payloadFor(ref), PayloadUnit)
	if err != nil {
		return nil, fmt.Errorf("enqueueing processing for unit %s: %w", ref, err)
	}
	return job, nil
}

func (s *service) RetryProcessing(ctx context.Context, ref units.Ref) (*models.Job, error) {
	if err := s.Orchestrator.units.ResetProcessing(ctx, ref); err != nil {
		return nil, fmt.Errorf("resetting unit %s: %w", ref, err)
	}
	log.Printf("[INFO] Unit %s: processing reset, re-enqueueing", ref)
	return s.EnqueueProcessing(ctx, ref)
}
