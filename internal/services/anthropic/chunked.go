package anthropic

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dpaola2/show-notes/pkg/chunker"
)

// SummarizeChunked summarizes a transcript of any length. Short transcripts
// (one chunk) go through a single Summarize call. Longer ones get one call
// per chunk plus a final synthesis call that merges the partial summaries.
//
// Chunk summaries are not persisted: a rate-limit error from any call
// propagates to the caller, whose backoff retry reruns the whole operation.
func (c *Client) SummarizeChunked(ctx context.Context, transcript string) (*Summary, error) {
	chunks, err := chunker.ChunkTranscript(transcript)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSummary, err)
	}

	// Common case: the whole transcript fits in one chunk, so no
	// chunk-position framing and no synthesis pass.
	if len(chunks) == 1 {
		return c.Summarize(ctx, transcript)
	}

	log.Printf("[DEBUG] Summarizing transcript in %d chunks (~%d tokens total)",
		len(chunks), totalTokens(chunks))

	chunkSummaries := make([]*Summary, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := c.complete(ctx, chunkPrompt(chunk))
		if err != nil {
			return nil, fmt.Errorf("summarizing chunk %d of %d: %w", i+1, len(chunks), err)
		}
		chunkSummaries = append(chunkSummaries, summary)

		if i < len(chunks)-1 {
			if err := c.pause(ctx); err != nil {
				return nil, err
			}
		}
	}

	if err := c.pause(ctx); err != nil {
		return nil, err
	}

	merged, err := c.complete(ctx, synthesisPrompt(chunkSummaries))
	if err != nil {
		return nil, fmt.Errorf("synthesizing %d chunk summaries: %w", len(chunkSummaries), err)
	}

	return merged, nil
}

// pause waits the configured inter-request delay, honoring cancellation
func (c *Client) pause(ctx context.Context) error {
	timer := time.NewTimer(c.config.ChunkDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func totalTokens(chunks []chunker.Chunk) int {
	total := 0
	for _, c := range chunks {
		total += c.TokenEstimate
	}
	return total
}
