package httpapi

import (
	"net/http"
	"strings"
)

type issueIdentityRequest struct {
	Name        string `json:"name"`
	MetadataURI string `json:"metadata_uri"`
}

type transferIdentityRequest struct {
	To string `json:"to"`
}

func (a *API) issueIdentity(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}

	var req issueIdentityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if len(name) > 256 {
		writeError(w, r, http.StatusBadRequest, "name too long")
		return
	}

	id, err := a.market.IssueIdentity(r.Context(), addr, name, strings.TrimSpace(req.MetadataURI))
	if err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.audit(r.Context(), "identity.issue", map[string]any{
		"identity_id": id.ID,
	})

	w.Header().Set("Location", "/v1/identities/"+uintString(id.ID))
	writeJSON(w, http.StatusCreated, id)
}

// identityIndex serves both the credential count and owner resolution,
// depending on whether an owner query parameter is present.
func (a *API) identityIndex(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if owner == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"count": a.market.IdentityCount(r.Context()),
		})
		return
	}

	id, err := a.market.ResolveIdentity(r.Context(), owner)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    id,
		"owner": owner,
	})
}

func (a *API) getIdentity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	identity, err := a.market.GetIdentity(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (a *API) burnIdentity(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.market.BurnIdentity(r.Context(), addr, id); err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.audit(r.Context(), "identity.burn", map[string]any{
		"identity_id": id,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) transferIdentity(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req transferIdentityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	to := strings.TrimSpace(req.To)
	if to == "" {
		writeError(w, r, http.StatusBadRequest, "to is required")
		return
	}

	// Credentials are soulbound: this always fails, and the error carries
	// the reason.
	if err := a.market.TransferIdentity(r.Context(), addr, id, to); err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transferred": true})
}
