package httpapi

import (
	"net/http"
	"strings"

	"rentledger.org/internal/market"
	"rentledger.org/internal/stream"
)

type createPropertyRequest struct {
	Name        string `json:"name"`
	MetadataURI string `json:"metadata_uri"`
	Location    string `json:"location"`
}

type listPropertyRequest struct {
	Description   string   `json:"description"`
	RentalTerm    int64    `json:"rental_term"`
	RentalPrice   int64    `json:"rental_price"`
	DepositAmount int64    `json:"deposit_amount"`
	PhotoHashes   []string `json:"photo_hashes"`
	TermsHash     string   `json:"terms_hash"`
}

type updateListingRequest struct {
	RentalTerm    int64    `json:"rental_term"`
	RentalPrice   int64    `json:"rental_price"`
	DepositAmount int64    `json:"deposit_amount"`
	PhotoHashes   []string `json:"photo_hashes"`
	TermsHash     string   `json:"terms_hash"`
}

func (a *API) createProperty(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}

	var req createPropertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	prop, err := a.market.CreateProperty(r.Context(), addr, name,
		strings.TrimSpace(req.MetadataURI), strings.TrimSpace(req.Location))
	if err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.audit(r.Context(), "property.create", map[string]any{
		"property_id": prop.ID,
	})

	w.Header().Set("Location", "/v1/properties/"+uintString(prop.ID))
	writeJSON(w, http.StatusCreated, prop)
}

func (a *API) propertyIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"listed": a.market.ListedPropertyIDs(r.Context()),
		"count":  a.market.PropertyCount(r.Context()),
	})
}

func (a *API) getProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	prop, err := a.market.GetProperty(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

func (a *API) listProperty(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req listPropertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	terms := market.ListingTerms{
		Description: strings.TrimSpace(req.Description),
		EconomicTerms: market.EconomicTerms{
			RentalTerm:    req.RentalTerm,
			RentalPrice:   req.RentalPrice,
			DepositAmount: req.DepositAmount,
			PhotoHashes:   req.PhotoHashes,
			TermsHash:     strings.TrimSpace(req.TermsHash),
		},
	}
	if err := a.market.ListProperty(r.Context(), addr, id, terms); err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.publish(stream.Event{Type: stream.EventPropertyListed, PropertyID: id})
	a.audit(r.Context(), "property.list", map[string]any{
		"property_id":  id,
		"rental_price": req.RentalPrice,
	})

	prop, err := a.market.GetProperty(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

func (a *API) updateListing(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req updateListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	terms := market.EconomicTerms{
		RentalTerm:    req.RentalTerm,
		RentalPrice:   req.RentalPrice,
		DepositAmount: req.DepositAmount,
		PhotoHashes:   req.PhotoHashes,
		TermsHash:     strings.TrimSpace(req.TermsHash),
	}
	if err := a.market.UpdateListing(r.Context(), addr, id, terms); err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.audit(r.Context(), "property.update_listing", map[string]any{
		"property_id": id,
	})

	prop, err := a.market.GetProperty(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

func (a *API) removeFromListed(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.market.RemoveFromListed(r.Context(), addr, id); err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.audit(r.Context(), "property.unlist", map[string]any{
		"property_id": id,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) propertyContracts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ids, err := a.market.PropertyContractIDs(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contract_ids": ids})
}

func (a *API) propertyRentHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	history, err := a.market.PropertyRentHistory(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contract_ids": history})
}
