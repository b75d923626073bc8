package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/volt/internal/adapter/driven/auth"
	"github.com/ericfisherdev/volt/internal/application"
	"github.com/ericfisherdev/volt/internal/domain/model"
	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

// Services groups the application services the handler drives.
type Services struct {
	Vault *application.VaultService
	Query *application.QueryService
	Icons *application.IconService
	Audit *application.AuditService
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	svc    Services
	authn  driven.Authenticator
	logger *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(svc Services, authn driven.Authenticator, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		authn:  authn,
		logger: logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware. Routes that mutate the vault or
// reveal a secret pass the Authenticator first.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)

	mux.HandleFunc("GET /api/v1/groups", h.ListGroups)
	mux.HandleFunc("POST /api/v1/groups", h.guard(h.CreateGroup))
	mux.HandleFunc("GET /api/v1/groups/{id}", h.GetGroup)
	mux.HandleFunc("GET /api/v1/groups/{id}/targets", h.ListMoveTargets)
	mux.HandleFunc("PUT /api/v1/groups/{id}", h.guard(h.MoveGroup))
	mux.HandleFunc("DELETE /api/v1/groups/{id}", h.guard(h.DeleteGroup))

	mux.HandleFunc("GET /api/v1/credentials", h.ListCredentials)
	mux.HandleFunc("POST /api/v1/credentials", h.guard(h.CreateCredential))
	mux.HandleFunc("GET /api/v1/credentials/{id}", h.guard(h.GetCredential))
	mux.HandleFunc("PUT /api/v1/credentials/{id}", h.guard(h.UpdateCredential))
	mux.HandleFunc("DELETE /api/v1/credentials/{id}", h.guard(h.DeleteCredential))

	mux.HandleFunc("GET /api/v1/icons", h.ListIcons)
	mux.HandleFunc("POST /api/v1/icons", h.guard(h.AddIcon))
	mux.HandleFunc("POST /api/v1/icons/prune", h.guard(h.PruneIcons))
	mux.HandleFunc("DELETE /api/v1/icons/{id}", h.guard(h.DeleteIcon))

	mux.HandleFunc("GET /api/v1/audit", h.Audit)
	mux.HandleFunc("POST /api/v1/audit/purge", h.guard(h.PurgeOrphans))

	mux.HandleFunc("DELETE /api/v1/vault", h.guard(h.DeleteVault))

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// --- Groups ---

// ListGroups returns the direct children of ?parent= (root when absent).
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	parent, ok := queryID(w, r, "parent")
	if !ok {
		return
	}

	views, err := h.svc.Query.ChildGroups(r.Context(), parent)
	if err != nil {
		h.fail(w, "list groups", err)
		return
	}

	resp := make([]GroupResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toGroupViewResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetGroup returns a single group.
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	g, err := h.svc.Query.GroupInfo(r.Context(), id)
	if err != nil {
		h.fail(w, "get group", err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(*g))
}

// ListMoveTargets returns the groups a group may be moved under.
func (h *Handler) ListMoveTargets(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	groups, err := h.svc.Query.ValidMoveTargets(r.Context(), id)
	if err != nil {
		h.fail(w, "list move targets", err)
		return
	}

	resp := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, toGroupResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateGroup creates a group.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.svc.Vault.CreateGroup(r.Context(), application.CreateGroupInput{
		Name:     sanitize(req.Name),
		ParentID: req.ParentID,
		IconID:   req.IconID,
	})
	if err != nil {
		h.fail(w, "create group", err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

// MoveGroup renames and reparents a group and optionally relocates
// credentials from its subtree.
func (h *Handler) MoveGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req MoveGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.svc.Vault.MoveGroup(r.Context(), application.MoveGroupInput{
		GroupID:       id,
		Name:          sanitize(req.Name),
		ParentID:      req.ParentID,
		CredentialIDs: req.CredentialIDs,
		TargetGroupID: req.TargetGroupID,
	})
	if err != nil {
		h.fail(w, "move group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteGroup deletes a group with its whole subtree and credentials.
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Vault.DeleteGroupSubtree(r.Context(), id); err != nil {
		h.fail(w, "delete group", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Credentials ---

// ListCredentials returns records in the scope of ?group= (all when absent).
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	group, ok := queryID(w, r, "group")
	if !ok {
		return
	}

	recs, err := h.svc.Query.CredentialsInScope(r.Context(), group)
	if err != nil {
		h.fail(w, "list credentials", err)
		return
	}

	resp := make([]CredentialResponse, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, toCredentialResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCredential returns a record with its username and password.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	cred, err := h.svc.Query.CredentialDetail(r.Context(), id)
	if err != nil {
		h.fail(w, "get credential", err)
		return
	}
	writeJSON(w, http.StatusOK, toCredentialDetailResponse(*cred))
}

// CreateCredential stores a new credential.
func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var req CreateCredentialRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.svc.Vault.CreateCredential(r.Context(), application.CreateCredentialInput{
		Title:    sanitize(req.Title),
		GroupID:  req.GroupID,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, "create credential", err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

// UpdateCredential replaces a credential's title, secret and optionally group.
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateCredentialRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.svc.Vault.UpdateCredential(r.Context(), application.UpdateCredentialInput{
		ID:          id,
		SecretKey:   req.SecretKey,
		Title:       sanitize(req.Title),
		Username:    req.Username,
		Password:    req.Password,
		ChangeGroup: req.ChangeGroup,
		GroupID:     req.GroupID,
	})
	if err != nil {
		h.fail(w, "update credential", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCredential deletes a credential. ?secret_key= is optional and, when
// present, must match the stored record.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Vault.DeleteCredential(r.Context(), id, r.URL.Query().Get("secret_key")); err != nil {
		h.fail(w, "delete credential", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Icons ---

// ListIcons returns the icon catalog.
func (h *Handler) ListIcons(w http.ResponseWriter, r *http.Request) {
	icons, err := h.svc.Icons.ListIcons(r.Context())
	if err != nil {
		h.fail(w, "list icons", err)
		return
	}

	resp := make([]IconResponse, 0, len(icons))
	for _, icon := range icons {
		resp = append(resp, toIconResponse(icon))
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddIcon adds an icon to the catalog.
func (h *Handler) AddIcon(w http.ResponseWriter, r *http.Request) {
	var req AddIconRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := h.svc.Icons.AddIcon(r.Context(), sanitize(req.Name), model.IconProvider(req.Provider))
	if err != nil {
		h.fail(w, "add icon", err)
		return
	}
	writeJSON(w, http.StatusCreated, IDResponse{ID: id})
}

// DeleteIcon removes an icon no group uses.
func (h *Handler) DeleteIcon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Icons.DeleteIcon(r.Context(), id); err != nil {
		h.fail(w, "delete icon", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PruneIcons removes every unused icon except the default.
func (h *Handler) PruneIcons(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Icons.PruneUnusedIcons(r.Context())
	if err != nil {
		h.fail(w, "prune icons", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// --- Audit & vault ---

// Audit reports disagreements between the secret and metadata stores.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Audit.Audit(r.Context())
	if err != nil {
		h.fail(w, "audit", err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditResponse(*report))
}

// PurgeOrphans deletes secrets that no record owns.
func (h *Handler) PurgeOrphans(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Audit.PurgeOrphanSecrets(r.Context())
	if err != nil {
		h.fail(w, "purge orphan secrets", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// DeleteVault irreversibly deletes all vault data. Requires ?confirm=true.
func (h *Handler) DeleteVault(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "deleting the vault requires confirm=true")
		return
	}

	if err := h.svc.Vault.DeleteAllData(r.Context()); err != nil {
		h.fail(w, "delete vault", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// guard runs the Authenticator with the request's bearer token before next.
func (h *Handler) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithToken(r.Context(), bearerToken(r))
		if err := h.authn.Authenticate(ctx); err != nil {
			if !errors.Is(err, driven.ErrAccessDenied) {
				h.logger.Error("authentication failed", "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="volt"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r.WithContext(ctx))
	}
}

// fail maps a service error to a status code and writes it.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var verr *model.ValidationError
	var pf *model.PartialFailureError
	var orphan *model.OrphanRiskError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, toValidationResponse(verr))
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrInvalidMove), errors.Is(err, model.ErrIconInUse):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &pf):
		h.logger.Error(op+" partially failed", "group_id", pf.GroupID, "deleted", pf.Deleted, "remaining", pf.Remaining, "error", err)
		writeJSON(w, http.StatusInternalServerError, PartialFailureResponse{
			Error:     "delete stopped before completion",
			Deleted:   pf.Deleted,
			Remaining: pf.Remaining,
		})
	case errors.As(err, &orphan):
		h.logger.Error(op+" left stores inconsistent", "secret_key", orphan.SecretKey, "record_id", orphan.RecordID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error; run an audit")
	default:
		h.logger.Error("failed to "+op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pathID parses the {id} path value, writing 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// queryID parses an optional id query parameter; absent means root.
func queryID(w http.ResponseWriter, r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return nil, false
	}
	return &id, true
}

// decodeBody decodes a JSON request body, writing 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
