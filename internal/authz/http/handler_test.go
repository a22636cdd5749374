package authzhttp_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-authz/aegis/internal/authz"
	authzhttp "github.com/aegis-authz/aegis/internal/authz/http"
	"github.com/aegis-authz/aegis/internal/identity"
	"github.com/aegis-authz/aegis/internal/observability"
	"github.com/aegis-authz/aegis/internal/shared"
	_ "github.com/aegis-authz/aegis/testing"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := identity.NewService(identity.NewStore(client, time.Hour), authz.DefaultConfig())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := authzhttp.NewHandler(logger, svc, observability.NewMetrics())

	router := chi.NewRouter()
	router.Use(authzhttp.ResolverMiddleware(svc, logger))
	router.Route("/v1", func(r chi.Router) {
		handler.MountRoutes(r)
	})
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path, session string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if session != "" {
		req.Header.Set(shared.SessionHeader, session)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func ingest(t *testing.T, router http.Handler, snap identity.Snapshot) string {
	t.Helper()
	rr := doJSON(t, router, http.MethodPut, "/v1/identity", "", snap)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func decodeDecision(t *testing.T, rr *httptest.ResponseRecorder) bool {
	t.Helper()
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Allowed bool `json:"allowed"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Allowed
}

func TestPermissionDecision(t *testing.T) {
	router := newTestRouter(t)
	session := ingest(t, router, identity.Snapshot{
		UserID:            "u1",
		CoarseRole:        "TENANT_USER",
		CustomPermissions: []string{"exports.csv"},
	})

	rr := doJSON(t, router, http.MethodPost, "/v1/decisions/permission", session, map[string]any{"key": "exports.csv"})
	assert.True(t, decodeDecision(t, rr))

	rr = doJSON(t, router, http.MethodPost, "/v1/decisions/permission", session, map[string]any{"key": "tenants.manage"})
	assert.False(t, decodeDecision(t, rr))

	rr = doJSON(t, router, http.MethodPost, "/v1/decisions/permission", session, map[string]any{
		"keys": []string{"tenants.manage", "exports.csv"},
	})
	assert.True(t, decodeDecision(t, rr), "any mode is the default for key sets")

	rr = doJSON(t, router, http.MethodPost, "/v1/decisions/permission", session, map[string]any{
		"keys": []string{"tenants.manage", "exports.csv"},
		"mode": "all",
	})
	assert.False(t, decodeDecision(t, rr))
}

func TestResourceDecisionMatrix(t *testing.T) {
	router := newTestRouter(t)
	session := ingest(t, router, identity.Snapshot{UserID: "u1", CoarseRole: "TENANT_USER"})

	rr := doJSON(t, router, http.MethodPost, "/v1/decisions/resource", session, map[string]any{"resource": "content", "action": "read"})
	assert.True(t, decodeDecision(t, rr))

	rr = doJSON(t, router, http.MethodPost, "/v1/decisions/resource", session, map[string]any{"resource": "tenants", "action": "create"})
	assert.False(t, decodeDecision(t, rr))
}

func TestMissingSessionDeniesWithoutError(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/v1/decisions/resource", "", map[string]any{"resource": "content", "action": "read"})
	assert.False(t, decodeDecision(t, rr), "denial must be a 200 value, not an error")

	rr = doJSON(t, router, http.MethodGet, "/v1/levels/content", "unknown-session", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Level string `json:"level"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "none", resp.Level)
}

func TestAccessDecisionAdminBypass(t *testing.T) {
	router := newTestRouter(t)
	session := ingest(t, router, identity.Snapshot{UserID: "root", CoarseRole: "PLATFORM_ADMIN"})

	rr := doJSON(t, router, http.MethodPost, "/v1/decisions/access", session, map[string]any{
		"resource": "tenants",
		"context":  map[string]string{"tenantId": "someone-else", "userId": "other"},
	})
	assert.True(t, decodeDecision(t, rr))
}

func TestDataDecisionTenantScope(t *testing.T) {
	router := newTestRouter(t)
	session := ingest(t, router, identity.Snapshot{UserID: "a1", CoarseRole: "TENANT_ADMIN", TenantID: "t1"})

	rr := doJSON(t, router, http.MethodPost, "/v1/decisions/data", session, map[string]any{
		"resource": "orders",
		"filters":  map[string]string{"tenantId": "t1"},
	})
	assert.True(t, decodeDecision(t, rr))

	rr = doJSON(t, router, http.MethodPost, "/v1/decisions/data", session, map[string]any{
		"resource": "orders",
		"filters":  map[string]string{"tenantId": "t2"},
	})
	assert.False(t, decodeDecision(t, rr))
}

func TestFeatureLevelAcrossMemberships(t *testing.T) {
	router := newTestRouter(t)
	session := ingest(t, router, identity.Snapshot{
		UserID:     "u1",
		CoarseRole: "END_CUSTOMER",
		Memberships: []identity.MembershipRecord{
			{GroupID: "g1", GroupName: "Tenant Users", RoleLabel: "Analyst", Permissions: map[string]string{"analytics": "read"}},
			{GroupID: "g2", GroupName: "Management Users", RoleLabel: "Finance Manager", Permissions: map[string]string{"analytics": "manage"}},
		},
	})

	rr := doJSON(t, router, http.MethodGet, "/v1/levels/feature/analytics", session, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Feature string `json:"feature"`
		Level   string `json:"level"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "analytics", resp.Feature)
	assert.Equal(t, "manage", resp.Level)
}

func TestProfileEvaluatesCatalog(t *testing.T) {
	router := newTestRouter(t)
	session := ingest(t, router, identity.Snapshot{
		UserID:     "u1",
		CoarseRole: "TENANT_USER",
		Memberships: []identity.MembershipRecord{
			{GroupID: "g1", GroupName: "Management Users", RoleLabel: "Finance Manager"},
			{GroupID: "g2", GroupName: "Tenant Users", RoleLabel: "Editor"},
		},
	})

	rr := doJSON(t, router, http.MethodGet, "/v1/profile", session, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Authenticated bool `json:"authenticated"`
		MultiGroup    bool `json:"multiGroup"`
		Predicates    []struct {
			Department string `json:"department"`
			Seniority  string `json:"seniority"`
			Holds      bool   `json:"holds"`
		} `json:"predicates"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Authenticated)
	assert.True(t, resp.MultiGroup)
	require.Len(t, resp.Predicates, 25)

	found := false
	for _, p := range resp.Predicates {
		if p.Department == "finance" && p.Seniority == "manager" {
			found = true
			assert.True(t, p.Holds)
		}
		if p.Department == "hr" {
			assert.False(t, p.Holds)
		}
	}
	require.True(t, found, "finance manager predicate missing from profile")
}

func TestBatchPreservesOrder(t *testing.T) {
	router := newTestRouter(t)
	session := ingest(t, router, identity.Snapshot{UserID: "u1", CoarseRole: "TENANT_USER", TenantID: "t1"})

	rr := doJSON(t, router, http.MethodPost, "/v1/decisions/batch", session, map[string]any{
		"checks": []map[string]any{
			{"kind": "resource", "resource": "content", "action": "read"},
			{"kind": "resource", "resource": "tenants", "action": "manage"},
			{"kind": "level", "resource": "content"},
			{"kind": "access", "resource": "content", "context": map[string]string{"tenantId": "t1"}},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Results []struct {
			Kind    string `json:"kind"`
			Allowed *bool  `json:"allowed"`
			Level   string `json:"level"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 4)
	require.NotNil(t, resp.Results[0].Allowed)
	assert.True(t, *resp.Results[0].Allowed)
	require.NotNil(t, resp.Results[1].Allowed)
	assert.False(t, *resp.Results[1].Allowed)
	assert.Equal(t, "update", resp.Results[2].Level)
	require.NotNil(t, resp.Results[3].Allowed)
	assert.True(t, *resp.Results[3].Allowed)
}

func TestRevokeDeniesFollowingChecks(t *testing.T) {
	router := newTestRouter(t)
	session := ingest(t, router, identity.Snapshot{UserID: "u1", CoarseRole: "PLATFORM_ADMIN"})

	rr := doJSON(t, router, http.MethodDelete, "/v1/identity/"+session, "", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/v1/decisions/resource", session, map[string]any{"resource": "content", "action": "read"})
	assert.False(t, decodeDecision(t, rr))
}

func TestMalformedRequests(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/decisions/resource", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/v1/decisions/resource", "", map[string]any{"resource": "content"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "missing action must fail validation")

	rr = doJSON(t, router, http.MethodPut, "/v1/identity", "", map[string]any{"coarseRole": "TENANT_USER"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "missing userId must fail validation")
}
