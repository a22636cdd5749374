package authzhttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/aegis-authz/aegis/internal/authz"
	"github.com/aegis-authz/aegis/internal/identity"
	"github.com/aegis-authz/aegis/internal/observability"
	"github.com/aegis-authz/aegis/internal/shared"
)

// maxBatchChecks bounds a single batch decision request.
const maxBatchChecks = 50

// maxBodyBytes bounds decision and ingest payloads.
const maxBodyBytes = 1 << 20

// Handler wires the JSON decision endpoints. Denial is a value: denied
// checks answer 200 with allowed=false or level=none, never an error
// status. Only transport and validation failures produce 4xx/5xx.
type Handler struct {
	logger    *slog.Logger
	service   *identity.Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *identity.Service, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		metrics:   metrics,
		validator: validator.New(),
	}
}

type ingestResponse struct {
	SessionID string `json:"sessionId"`
}

type permissionRequest struct {
	Key  string   `json:"key" validate:"required_without=Keys,omitempty,max=128"`
	Keys []string `json:"keys" validate:"required_without=Key,omitempty,max=64,dive,max=128"`
	Mode string   `json:"mode" validate:"omitempty,oneof=any all"`
}

type resourceRequest struct {
	Resource string `json:"resource" validate:"required,max=64"`
	Action   string `json:"action" validate:"required,max=32"`
}

type accessContext struct {
	TenantID string `json:"tenantId"`
	UserID   string `json:"userId"`
}

type accessRequest struct {
	Resource string         `json:"resource" validate:"required,max=64"`
	Context  *accessContext `json:"context"`
}

type dataFilters struct {
	TenantID string            `json:"tenantId"`
	UserID   string            `json:"userId"`
	DateFrom string            `json:"dateFrom"`
	DateTo   string            `json:"dateTo"`
	Custom   map[string]string `json:"custom"`
}

type dataRequest struct {
	Resource string       `json:"resource" validate:"required,max=64"`
	Filters  *dataFilters `json:"filters"`
}

type decisionResponse struct {
	Allowed bool `json:"allowed"`
}

type levelResponse struct {
	Resource string `json:"resource,omitempty"`
	Feature  string `json:"feature,omitempty"`
	Level    string `json:"level"`
}

type predicateView struct {
	Department string `json:"department,omitempty"`
	Seniority  string `json:"seniority"`
	Holds      bool   `json:"holds"`
}

type profileResponse struct {
	Authenticated bool            `json:"authenticated"`
	MultiGroup    bool            `json:"multiGroup"`
	Predicates    []predicateView `json:"predicates"`
}

type batchCheck struct {
	Kind     string         `json:"kind" validate:"required,oneof=permission resource access data level"`
	Key      string         `json:"key" validate:"omitempty,max=128"`
	Resource string         `json:"resource" validate:"omitempty,max=64"`
	Action   string         `json:"action" validate:"omitempty,max=32"`
	Context  *accessContext `json:"context"`
	Filters  *dataFilters   `json:"filters"`
}

type batchRequest struct {
	Checks []batchCheck `json:"checks" validate:"required,min=1,dive"`
}

type batchResult struct {
	Kind    string `json:"kind"`
	Allowed *bool  `json:"allowed,omitempty"`
	Level   string `json:"level,omitempty"`
}

type batchResponse struct {
	Results []batchResult `json:"results"`
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	var snap identity.Snapshot
	if !h.decode(w, r, &snap) {
		return
	}
	sessionID, err := h.service.Ingest(r.Context(), snap)
	if err != nil {
		h.serverError(w, "ingest identity snapshot", err)
		return
	}
	h.respond(w, http.StatusOK, ingestResponse{SessionID: sessionID})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.service.Revoke(r.Context(), sessionID); err != nil {
		h.serverError(w, "revoke identity snapshot", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if !h.decode(w, r, &req) {
		return
	}
	resolver := h.resolver(r)

	var allowed bool
	switch {
	case len(req.Keys) > 0 && req.Mode == "all":
		allowed = resolver.HasAllPermissions(req.Keys...)
	case len(req.Keys) > 0:
		allowed = resolver.HasAnyPermission(req.Keys...)
	default:
		allowed = resolver.HasPermission(req.Key)
	}
	h.metrics.Decision("permission", allowed)
	h.respond(w, http.StatusOK, decisionResponse{Allowed: allowed})
}

func (h *Handler) handleResource(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	if !h.decode(w, r, &req) {
		return
	}
	allowed := h.resolver(r).HasResourcePermission(req.Resource, req.Action)
	h.metrics.Decision("resource", allowed)
	h.respond(w, http.StatusOK, decisionResponse{Allowed: allowed})
}

func (h *Handler) handleAccess(w http.ResponseWriter, r *http.Request) {
	var req accessRequest
	if !h.decode(w, r, &req) {
		return
	}
	allowed := h.resolver(r).CanAccessResource(req.Resource, req.Context.toDomain())
	h.metrics.Decision("access", allowed)
	h.respond(w, http.StatusOK, decisionResponse{Allowed: allowed})
}

func (h *Handler) handleData(w http.ResponseWriter, r *http.Request) {
	var req dataRequest
	if !h.decode(w, r, &req) {
		return
	}
	allowed := h.resolver(r).CanAccessDataWithFilters(req.Resource, req.Filters.toDomain())
	h.metrics.Decision("data", allowed)
	h.respond(w, http.StatusOK, decisionResponse{Allowed: allowed})
}

func (h *Handler) handleLevel(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	level := h.resolver(r).PermissionLevel(resource)
	h.metrics.Decision("level", level > authz.LevelNone)
	h.respond(w, http.StatusOK, levelResponse{Resource: resource, Level: level.String()})
}

func (h *Handler) handleFeatureLevel(w http.ResponseWriter, r *http.Request) {
	feature := chi.URLParam(r, "feature")
	level := h.resolver(r).HighestPermissionLevel(feature)
	h.metrics.Decision("feature_level", level > authz.LevelNone)
	h.respond(w, http.StatusOK, levelResponse{Feature: feature, Level: level.String()})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	resolver := h.resolver(r)
	resp := profileResponse{
		Authenticated: resolver.Identity() != nil,
		MultiGroup:    resolver.IsMultiGroupUser(),
		Predicates:    []predicateView{},
	}
	for _, result := range resolver.EvaluateCatalog() {
		resp.Predicates = append(resp.Predicates, predicateView{
			Department: string(result.Key.Department),
			Seniority:  string(result.Key.Seniority),
			Holds:      result.Holds,
		})
	}
	h.respond(w, http.StatusOK, resp)
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Checks) > maxBatchChecks {
		http.Error(w, shared.ErrBatchTooLarge.Error(), http.StatusBadRequest)
		return
	}
	resolver := h.resolver(r)

	results := make([]batchResult, len(req.Checks))
	g, _ := errgroup.WithContext(r.Context())
	for i, check := range req.Checks {
		g.Go(func() error {
			results[i] = h.evaluate(resolver, check)
			return nil
		})
	}
	// Resolver reads are pure; the group exists for fan-out, not errors.
	_ = g.Wait()
	h.respond(w, http.StatusOK, batchResponse{Results: results})
}

// evaluate answers one batch check against the resolver.
func (h *Handler) evaluate(resolver *authz.Resolver, check batchCheck) batchResult {
	result := batchResult{Kind: check.Kind}
	boolResult := func(allowed bool) {
		h.metrics.Decision(check.Kind, allowed)
		result.Allowed = &allowed
	}
	switch check.Kind {
	case "permission":
		boolResult(resolver.HasPermission(check.Key))
	case "resource":
		boolResult(resolver.HasResourcePermission(check.Resource, check.Action))
	case "access":
		boolResult(resolver.CanAccessResource(check.Resource, check.Context.toDomain()))
	case "data":
		boolResult(resolver.CanAccessDataWithFilters(check.Resource, check.Filters.toDomain()))
	case "level":
		level := resolver.PermissionLevel(check.Resource)
		h.metrics.Decision(check.Kind, level > authz.LevelNone)
		result.Level = level.String()
	}
	return result
}

func (c *accessContext) toDomain() *authz.AccessContext {
	if c == nil {
		return nil
	}
	return &authz.AccessContext{TenantID: c.TenantID, UserID: c.UserID}
}

func (f *dataFilters) toDomain() *authz.DataFilters {
	if f == nil {
		return nil
	}
	return &authz.DataFilters{
		TenantID: f.TenantID,
		UserID:   f.UserID,
		DateFrom: f.DateFrom,
		DateTo:   f.DateTo,
		Custom:   f.Custom,
	}
}

// resolver returns the request's resolver, falling back to a deny-all
// resolver when the middleware did not run.
func (h *Handler) resolver(r *http.Request) *authz.Resolver {
	if resolver := shared.ResolverFromContext(r.Context()); resolver != nil {
		return resolver
	}
	return authz.NewResolver(h.service.Config(), nil)
}

// decode reads, decodes, and validates a JSON body. It writes the error
// response itself and reports whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Error("encode response", slog.Any("error", err))
	}
}

func (h *Handler) serverError(w http.ResponseWriter, context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
