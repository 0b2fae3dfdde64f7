package outreach

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/recruitflow/recruitflow-server/internal/models"
)

// Subjects used between the server and the outreach executor.
const (
	SubjectRunQueued = "outreach.run.queued"

	// Executor progress events arrive on outreach.run.<run_id>.event.
	SubjectRunEvents = "outreach.run.*.event"
)

// EventSubject returns the subject executor events for a run are
// published on.
func EventSubject(runID string) string {
	return fmt.Sprintf("outreach.run.%s.event", runID)
}

// Publisher hands admitted runs to the outreach executor over NATS.
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher creates a publisher
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

// PublishRunQueued publishes the handoff message for an admitted run
func (p *Publisher) PublishRunQueued(ctx context.Context, msg *models.RunQueuedMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal run queued message: %w", err)
	}

	if err := p.nc.Publish(SubjectRunQueued, data); err != nil {
		return fmt.Errorf("publish run queued: %w", err)
	}

	log.Debug().
		Str("run_id", msg.RunID.String()).
		Str("subject", SubjectRunQueued).
		Msg("Published run handoff")

	return nil
}
