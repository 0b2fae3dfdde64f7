package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/outreach"
	"github.com/recruitflow/recruitflow-server/internal/storage"
	"github.com/recruitflow/recruitflow-server/pkg/crypto"
)

// HandleMemberSync ingests a team-member sync from the identity
// provider. The organization is created on first sync; the response
// then carries the generated webhook secret in plaintext, the only
// time it is ever returned.
func (s *RESTServer) HandleMemberSync(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Provisioning-Secret")
	if s.config.Webhook.ProvisioningSecret == "" ||
		!crypto.ConstantTimeEqual(secret, s.config.Webhook.ProvisioningSecret) {
		s.respondError(w, http.StatusUnauthorized, "invalid provisioning secret")
		return
	}

	var msg models.MemberSyncMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg.OrganizationID == uuid.Nil || msg.MemberID == uuid.Nil || msg.Email == "" {
		s.respondError(w, http.StatusBadRequest, "organizationId, memberId and email are required")
		return
	}

	ctx := r.Context()

	var webhookSecret string
	org, err := s.store.GetOrganization(ctx, msg.OrganizationID)
	if errors.Is(err, storage.ErrNotFound) {
		plan := msg.Plan
		if plan == "" {
			plan = s.config.Admission.DefaultPlan
		}

		webhookSecret, err = crypto.GenerateSecret(32)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to generate webhook secret")
			return
		}
		hash, err := crypto.HashSecret(webhookSecret)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to hash webhook secret")
			return
		}

		org = &models.Organization{
			ID:                msg.OrganizationID,
			Name:              msg.OrganizationName,
			Plan:              plan,
			IsActive:          true,
			WebhookSecretHash: hash,
		}

		if err := s.store.CreateOrganization(ctx, org); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				// Lost the creation race with a concurrent sync.
				webhookSecret = ""
				org, err = s.store.GetOrganization(ctx, msg.OrganizationID)
			}
			if err != nil {
				s.respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
		} else {
			log.Info().
				Str("org_id", org.ID.String()).
				Str("plan", org.Plan).
				Msg("Created organization from member sync")
		}
	} else if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	member := &models.Member{
		ID:             msg.MemberID,
		OrganizationID: org.ID,
		Email:          msg.Email,
		Name:           msg.Name,
		IsActive:       true,
	}

	if err := s.store.UpsertMember(ctx, member); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"organizationId": org.ID,
		"memberId":       member.ID,
		"synced":         true,
	}
	if webhookSecret != "" {
		resp["webhookSecret"] = webhookSecret
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// HandleOutreachEvent ingests an executor progress callback over HTTP.
// The caller authenticates with the organization's webhook secret; the
// event semantics are shared with the NATS subscriber.
func (s *RESTServer) HandleOutreachEvent(w http.ResponseWriter, r *http.Request) {
	var event models.OutreachEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if event.RunID == uuid.Nil || event.OrganizationID == uuid.Nil {
		s.respondError(w, http.StatusBadRequest, "runId and organizationId are required")
		return
	}

	ctx := r.Context()

	org, err := s.store.GetOrganization(ctx, event.OrganizationID)
	if err != nil {
		// Do not reveal whether the organization exists.
		s.respondError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	secret := r.Header.Get("X-Webhook-Secret")
	if secret == "" || !crypto.VerifySecret(secret, org.WebhookSecretHash) {
		s.respondError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	if err := outreach.ApplyEvent(ctx, s.store, &event); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "run not found")
			return
		}
		if errors.Is(err, storage.ErrInvalidData) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"applied": true,
	})
}
