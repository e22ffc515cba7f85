package processing

import (
	"context"
	"log"
)

// NopNotifier discards completion notifications
type NopNotifier struct{}

func (NopNotifier) SummaryReady(ctx context.Context, episodeID uint) {}

// LogNotifier records completion notifications to the application log.
// Used until a downstream consumer (OG image generation) is wired in.
type LogNotifier struct{}

func (LogNotifier) SummaryReady(ctx context.Context, episodeID uint) {
	log.Printf("[INFO] Summary ready for episode %d", episodeID)
}
