package http

import (
	"errors"
	"net/http"

	"github.com/Flarenzy/keygate/internal/auth"
	"github.com/Flarenzy/keygate/internal/domain"
)

// @Summary Health check
// @Tags health
// @Success 200 {string} string "ok"
// @Router /healthz [get]
func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// @Summary Readiness check
// @Tags health
// @Success 200 {string} string "ready"
// @Failure 503 {string} string "store unavailable"
// @Router /readyz [get]
func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if a.Health != nil {
		if err := a.Health.Ping(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "readiness check failed", "err", err.Error())
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// @Summary Current caller
// @Description Returns the authenticated principal with its claims in order.
// @Tags identity
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Success 200 {object} MeResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/me [get]
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.requirePrincipal(w, r)
	if !ok {
		return
	}

	resp := principalToResponse(principal)
	if tenant, err := auth.ClaimString(principal, tenantClaimType); err == nil {
		resp.Tenant = tenant
	}
	a.respond(w, r, http.StatusOK, resp)
}

// @Summary List keys
// @Tags keys
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param user_id query string false "Owner of the keys, defaults to the caller. Other users need the admin role."
// @Success 200 {array} KeyResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/keys [get]
func (a *API) handleListKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := a.requirePrincipal(w, r)
	if !ok || !a.requireKeyService(w, r) {
		return
	}

	userID, err := resolveTargetUser(principal, r.URL.Query().Get("user_id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	keys, err := a.Keys.ListKeys(ctx, userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.respond(w, r, http.StatusOK, keysToResponse(keys))
}

// @Summary Issue key
// @Description The plaintext key is only ever returned by this call.
// @Tags keys
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param payload body CreateKeyRequest true "Key to issue"
// @Success 201 {object} CreatedKeyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/keys [post]
func (a *API) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := a.requirePrincipal(w, r)
	if !ok || !a.requireKeyService(w, r) {
		return
	}

	req, err := decode[CreateKeyRequest](r)
	defer r.Body.Close()
	if err != nil {
		a.Logger.DebugContext(ctx, "unmarshaling key request", "err", err.Error())
		a.respond(w, r, http.StatusBadRequest, ErrorResponse{Error: "bad request"})
		return
	}

	userID, err := resolveTargetUser(principal, req.UserID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	issued, err := a.Keys.CreateKey(ctx, req.toInput(userID))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.respond(w, r, http.StatusCreated, CreatedKeyResponse{
		KeyResponse: keyToResponse(issued.APIKey),
		Key:         issued.Plaintext,
	})
}

// @Summary Get key
// @Tags keys
// @Produce json
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param id path string true "Key ID"
// @Success 200 {object} KeyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/keys/{id} [get]
func (a *API) handleGetKey(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.requirePrincipal(w, r)
	if !ok || !a.requireKeyService(w, r) {
		return
	}

	key, ok := a.loadOwnedKey(w, r, principal)
	if !ok {
		return
	}

	a.respond(w, r, http.StatusOK, keyToResponse(key))
}

// @Summary Revoke key
// @Tags keys
// @Security ApiKeyAuth
// @Security BearerAuth
// @Param id path string true "Key ID"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/keys/{id} [delete]
func (a *API) handleRevokeKey(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.requirePrincipal(w, r)
	if !ok || !a.requireKeyService(w, r) {
		return
	}

	key, ok := a.loadOwnedKey(w, r, principal)
	if !ok {
		return
	}

	if err := a.Keys.RevokeKey(r.Context(), key.ID); err != nil {
		a.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// loadOwnedKey resolves the {id} path value. Keys owned by someone else
// look missing unless the caller is an admin.
func (a *API) loadOwnedKey(w http.ResponseWriter, r *http.Request, principal auth.Principal) (domain.APIKey, bool) {
	id, err := validateKeyID(r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return domain.APIKey{}, false
	}

	key, err := a.Keys.GetKey(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return domain.APIKey{}, false
	}
	if !canAccessKey(principal, key) {
		a.writeError(w, r, domain.ErrNotFound)
		return domain.APIKey{}, false
	}

	return key, true
}

func (a *API) requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		a.respond(w, r, http.StatusUnauthorized, ErrorResponse{Error: msgMissingCredentials})
		return auth.Principal{}, false
	}
	return principal, true
}

func (a *API) requireKeyService(w http.ResponseWriter, r *http.Request) bool {
	if a.Keys == nil {
		a.respond(w, r, http.StatusNotImplemented, ErrorResponse{Error: "key management is not available for this key store"})
		return false
	}
	return true
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusForError(err)
	if status == http.StatusInternalServerError {
		a.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err.Error())
	}
	a.respond(w, r, status, ErrorResponse{Error: message})
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "key not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "key already exists"
	default:
		return http.StatusInternalServerError, msgInternalError
	}
}
