package httpapi

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"time"

	"rentledger.org/internal/oracle"
)

// oracleQuote converts a native amount into the reference currency using
// the configured exchange-rate feed.
func (a *API) oracleQuote(w http.ResponseWriter, r *http.Request) {
	if a.converter == nil {
		writeError(w, r, http.StatusServiceUnavailable, "oracle disabled")
		return
	}

	amount := int64(1)
	if raw := r.URL.Query().Get("amount"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			writeError(w, r, http.StatusBadRequest, "amount must be a non-negative integer")
			return
		}
		amount = v
	}

	quote, err := a.converter.Latest(r.Context())
	if err != nil {
		if errors.Is(err, oracle.ErrUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	converted, err := a.converter.Convert(r.Context(), amount)
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"amount":     amount,
		"converted":  converted,
		"rate":       quote.Rate,
		"updated_at": quote.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

type storeContentRequest struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// storeContent uploads a listing document (photo, terms text) to the
// content store and returns its content address for use in listing terms.
func (a *API) storeContent(w http.ResponseWriter, r *http.Request) {
	if a.content == nil {
		writeError(w, r, http.StatusServiceUnavailable, "content store disabled")
		return
	}
	if _, ok := caller(w, r); !ok {
		return
	}

	var req storeContentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "content must be base64")
		return
	}
	if len(raw) == 0 {
		writeError(w, r, http.StatusBadRequest, "content is required")
		return
	}

	address, err := a.content.Store(r.Context(), raw, req.Metadata)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, "content store error")
		return
	}

	a.audit(r.Context(), "content.store", map[string]any{
		"address": address,
		"bytes":   len(raw),
	})

	writeJSON(w, http.StatusCreated, map[string]any{"address": address})
}
