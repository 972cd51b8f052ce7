package httpapi

import (
	"net/http"
	"strings"

	"rentledger.org/internal/auth"
)

type tokenRequest struct {
	Address string `json:"address"`
}

// issueToken exchanges an account address for a signed bearer token. There
// is no password step: callers prove control of an address out of band and
// the gateway in front of this service is expected to enforce it.
func (a *API) issueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		writeError(w, r, http.StatusBadRequest, "address is required")
		return
	}
	if len(address) > 128 {
		writeError(w, r, http.StatusBadRequest, "address too long")
		return
	}

	token, err := auth.GenerateToken(address)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	a.audit(r.Context(), "auth.token.issue", map[string]any{
		"address": address,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"token_type": "Bearer",
	})
}
