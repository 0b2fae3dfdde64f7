package outreach

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
)

// Subscriber consumes executor progress events over NATS and applies
// them to the store.
type Subscriber struct {
	nc      *nats.Conn
	store   storage.Store
	timeout time.Duration
	subs    []*nats.Subscription
}

// NewSubscriber creates a subscriber. timeout bounds the store work for
// one event; a NATS callback has no caller context to inherit.
func NewSubscriber(nc *nats.Conn, store storage.Store, timeout time.Duration) *Subscriber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Subscriber{
		nc:      nc,
		store:   store,
		timeout: timeout,
		subs:    make([]*nats.Subscription, 0),
	}
}

// Start subscribes and blocks until the context is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	sub, err := s.nc.Subscribe(SubjectRunEvents, s.handleRunEvent)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)

	log.Info().
		Int("subscriptions", len(s.subs)).
		Msg("Outreach subscriber started")

	<-ctx.Done()

	for _, sub := range s.subs {
		sub.Unsubscribe()
	}

	return ctx.Err()
}

// handleRunEvent handles one executor progress event
func (s *Subscriber) handleRunEvent(msg *nats.Msg) {
	var event models.OutreachEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("Failed to unmarshal outreach event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := ApplyEvent(ctx, s.store, &event); err != nil {
		log.Error().Err(err).
			Str("run_id", event.RunID.String()).
			Str("type", string(event.Type)).
			Msg("Failed to apply outreach event")
	}
}
