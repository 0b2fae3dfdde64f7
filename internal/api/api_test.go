package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitflow/recruitflow-server/internal/admission"
	"github.com/recruitflow/recruitflow-server/internal/auth"
	"github.com/recruitflow/recruitflow-server/internal/config"
	"github.com/recruitflow/recruitflow-server/internal/models"
	"github.com/recruitflow/recruitflow-server/internal/storage"
)

type testEnv struct {
	server *RESTServer
	store  *storage.MemoryStore
	org    *models.Organization
	member uuid.UUID
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Name = "recruitflow-server"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenTTL = time.Hour
	cfg.Webhook.ProvisioningSecret = "prov-secret"
	cfg.Admission.DefaultPlan = "starter"

	st := storage.NewMemoryStore()

	org := &models.Organization{
		ID:       uuid.New(),
		Name:     "Test Org",
		Plan:     "starter",
		IsActive: true,
	}
	require.NoError(t, st.CreateOrganization(context.Background(), org))

	claims := admission.NewClaimManager(0)
	pipeline := admission.NewPipeline(st, claims, nil)
	server := NewRESTServer(cfg, st, pipeline, claims)

	member := uuid.New()
	token, err := auth.NewJWTManager(&cfg.JWT).GenerateToken(member, org.ID, "Alice", "alice@example.com")
	require.NoError(t, err)

	return &testEnv{
		server: server,
		store:  st,
		org:    org,
		member: member,
		token:  token,
	}
}

// completeWarmup lets tests create several runs without tripping the
// day-1 throttle.
func (e *testEnv) completeWarmup(t *testing.T) {
	t.Helper()
	status, err := e.store.GetOrCreateWarmupStatus(context.Background(), e.org.ID, nowUTC())
	require.NoError(t, err)
	status.Completed = true
	require.NoError(t, e.store.SaveWarmupStatus(context.Background(), status))
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	w := httptest.NewRecorder()
	e.server.router.ServeHTTP(w, req)
	return w
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodGet, "/api/v1/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestAuthRequired(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodGet, "/api/v1/runs/", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	e.server.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRun(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodPost, "/api/v1/runs/create", map[string]string{
		"jobUrl":  "https://jobs.acme.com/posting/123",
		"title":   "Senior Engineer",
		"company": "Acme Corp",
	}, true)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "queued", body["status"])
	assert.NotEmpty(t, body["runId"])
}

func TestCreateRunValidation(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodPost, "/api/v1/runs/create", map[string]string{}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.request(t, http.MethodPost, "/api/v1/runs/create", map[string]string{
		"jobUrl": "ftp://jobs.acme.com/p",
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRunQuotaDenied(t *testing.T) {
	e := newTestEnv(t)
	e.completeWarmup(t)

	require.NoError(t, e.store.IncrementUsage(context.Background(), e.org.ID,
		models.MetricRuns, 10, models.UnlimitedLimit, nowUTC()))

	w := e.request(t, http.MethodPost, "/api/v1/runs/create", map[string]string{
		"jobUrl": "https://jobs.acme.com/posting/123",
	}, true)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "usage_limit_exceeded", decode(t, w)["error"])
}

func TestCreateRunWarmupDenied(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodPost, "/api/v1/runs/create", map[string]string{
		"jobUrl": "https://jobs.acme.com/posting/1",
	}, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.request(t, http.MethodPost, "/api/v1/runs/create", map[string]string{
		"jobUrl": "https://jobs.acme.com/posting/2",
	}, true)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "warmup_limit", decode(t, w)["error"])
}

func TestCreateRunDuplicateDenied(t *testing.T) {
	e := newTestEnv(t)
	e.completeWarmup(t)

	w := e.request(t, http.MethodPost, "/api/v1/runs/create", map[string]string{
		"jobUrl": "https://jobs.acme.com/posting/123",
	}, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.request(t, http.MethodPost, "/api/v1/runs/create", map[string]string{
		"jobUrl": "https://jobs.acme.com/posting/123?utm_source=x",
	}, true)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_job_url", decode(t, w)["error"])
}

func TestCreateRunClaimedDenied(t *testing.T) {
	e := newTestEnv(t)
	e.completeWarmup(t)

	_, err := admission.NewClaimManager(0).TryClaim(context.Background(), e.store,
		e.org.ID, "https://jobs.acme.com/posting/123", uuid.New(), "Bob", nowUTC())
	require.NoError(t, err)

	w := e.request(t, http.MethodPost, "/api/v1/runs/create", map[string]string{
		"jobUrl": "https://jobs.acme.com/posting/123",
	}, true)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "job_claimed_by_other", decode(t, w)["error"])
}

func TestListAndGetRuns(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodPost, "/api/v1/runs/create", map[string]string{
		"jobUrl": "https://jobs.acme.com/posting/123",
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	runID := decode(t, w)["runId"].(string)

	w = e.request(t, http.MethodGet, "/api/v1/runs/", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = e.request(t, http.MethodGet, "/api/v1/runs/"+runID, nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, runID, decode(t, w)["id"])

	w = e.request(t, http.MethodGet, "/api/v1/runs/"+uuid.NewString(), nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.request(t, http.MethodGet, "/api/v1/runs/not-a-uuid", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimLifecycle(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodPost, "/api/v1/claims/create", map[string]string{
		"jobUrl": "https://jobs.acme.com/posting/123",
	}, true)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["granted"])
	claim := body["claim"].(map[string]interface{})
	claimID := claim["id"].(string)

	w = e.request(t, http.MethodGet, "/api/v1/claims/"+e.org.ID.String(), nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = e.request(t, http.MethodDelete, "/api/v1/claims/"+e.org.ID.String()+"/"+claimID, nil, true)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.request(t, http.MethodGet, "/api/v1/claims/"+e.org.ID.String(), nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total"])
}

func TestClaimsOrgMismatch(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodGet, "/api/v1/claims/"+uuid.NewString(), nil, true)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.request(t, http.MethodDelete, "/api/v1/claims/"+uuid.NewString()+"/"+uuid.NewString(), nil, true)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetWarmup(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodGet, "/api/v1/warmup/"+e.org.ID.String(), nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.EqualValues(t, 1, body["daysSinceStart"])
	assert.EqualValues(t, 14, body["daysRemaining"])
	assert.Equal(t, false, body["completed"])

	today := body["today"].(map[string]interface{})
	assert.EqualValues(t, 1, today["runsLimit"])
	assert.EqualValues(t, 3, today["invitesLimit"])
}

func TestGetUsage(t *testing.T) {
	e := newTestEnv(t)

	require.NoError(t, e.store.IncrementUsage(context.Background(), e.org.ID,
		models.MetricRuns, 3, models.UnlimitedLimit, nowUTC()))

	w := e.request(t, http.MethodGet, "/api/v1/usage", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "starter", body["plan"])
	usage := body["usage"].(map[string]interface{})
	assert.EqualValues(t, 3, usage["runs"])
	limits := body["limits"].(map[string]interface{})
	assert.EqualValues(t, 10, limits["runs"])
}

func TestBlacklistCRUD(t *testing.T) {
	e := newTestEnv(t)

	w := e.request(t, http.MethodPost, "/api/v1/blacklist/", map[string]string{
		"company": "Acme Corp",
		"reason":  "client conflict",
	}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	entryID := decode(t, w)["id"].(string)

	w = e.request(t, http.MethodPost, "/api/v1/blacklist/", map[string]string{}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.request(t, http.MethodGet, "/api/v1/blacklist/", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = e.request(t, http.MethodDelete, "/api/v1/blacklist/"+entryID, nil, true)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.request(t, http.MethodGet, "/api/v1/blacklist/", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total"])
}
