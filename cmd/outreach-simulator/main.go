package main

import (
	"encoding/json"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/recruitflow/recruitflow-server/internal/config"
	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/outreach"
)

// The simulator stands in for the external outreach executor during
// development: it consumes queued runs and plays back a plausible
// started/progress/completed event sequence.
func main() {
	// Command line flags
	var configFile string
	var stepDelay time.Duration
	flag.StringVar(&configFile, "config", "config/recruitflow-server.yml", "Configuration file path")
	flag.DurationVar(&stepDelay, "step-delay", 2*time.Second, "Delay between simulated progress events")
	flag.Parse()

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to NATS
	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Name("outreach-simulator"),
		nats.UserInfo(cfg.NATS.Username, cfg.NATS.Password),
		nats.ReconnectWait(cfg.NATS.ReconnectInterval),
		nats.MaxReconnects(cfg.NATS.MaxReconnects),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer nc.Close()

	log.Info().Msg("Connected to NATS")

	// Consume queued runs
	sub, err := nc.Subscribe(outreach.SubjectRunQueued, func(m *nats.Msg) {
		var msg models.RunQueuedMessage
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log.Error().Err(err).Msg("Failed to unmarshal run queued message")
			return
		}

		log.Info().
			Str("run_id", msg.RunID.String()).
			Str("job_url", msg.JobURL).
			Msg("Picked up queued run")

		go simulateRun(nc, &msg, stepDelay)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe")
	}
	defer sub.Unsubscribe()

	log.Info().Str("subject", outreach.SubjectRunQueued).Msg("Outreach simulator started")

	// Wait for signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
}

// simulateRun plays back an execution for one run
func simulateRun(nc *nats.Conn, msg *models.RunQueuedMessage, stepDelay time.Duration) {
	publish(nc, &models.OutreachEvent{
		RunID:          msg.RunID,
		OrganizationID: msg.OrganizationID,
		Type:           models.OutreachEventStarted,
		OccurredAt:     time.Now().UTC(),
	})

	steps := 2 + rand.Intn(3)
	for i := 0; i < steps; i++ {
		time.Sleep(stepDelay)

		publish(nc, &models.OutreachEvent{
			RunID:              msg.RunID,
			OrganizationID:     msg.OrganizationID,
			Type:               models.OutreachEventProgress,
			ProspectsContacted: 1 + rand.Intn(5),
			InvitesSent:        rand.Intn(3),
			MessagesSent:       rand.Intn(4),
			OccurredAt:         time.Now().UTC(),
		})
	}

	time.Sleep(stepDelay)

	publish(nc, &models.OutreachEvent{
		RunID:          msg.RunID,
		OrganizationID: msg.OrganizationID,
		Type:           models.OutreachEventCompleted,
		OccurredAt:     time.Now().UTC(),
	})

	log.Info().Str("run_id", msg.RunID.String()).Msg("Simulated run completed")
}

// publish sends one event on the run's event subject
func publish(nc *nats.Conn, event *models.OutreachEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal event")
		return
	}

	if err := nc.Publish(outreach.EventSubject(event.RunID.String()), data); err != nil {
		log.Error().Err(err).
			Str("run_id", event.RunID.String()).
			Msg("Failed to publish event")
	}
}
