package httpapi

import (
	"net/http"

	"rentledger.org/internal/stream"
)

type proposeContractRequest struct {
	PropertyID     uint64 `json:"property_id"`
	TenantID       uint64 `json:"tenant_id"`
	RentalTerm     int64  `json:"rental_term"`
	RentalPrice    int64  `json:"rental_price"`
	DepositAmount  int64  `json:"deposit_amount"`
	StartTimestamp int64  `json:"start_timestamp"`
	ValidityTerm   int64  `json:"validity_term"`
}

type contractPropertyRequest struct {
	PropertyID uint64 `json:"property_id"`
}

func (a *API) proposeContract(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}

	var req proposeContractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.RentalTerm <= 0 || req.RentalPrice <= 0 {
		writeError(w, r, http.StatusBadRequest, "rental_term and rental_price must be > 0")
		return
	}
	if req.DepositAmount < 0 {
		writeError(w, r, http.StatusBadRequest, "deposit_amount must be >= 0")
		return
	}

	c, err := a.market.ProposeContract(r.Context(), addr,
		req.PropertyID, req.TenantID,
		req.RentalTerm, req.RentalPrice, req.DepositAmount,
		req.StartTimestamp, req.ValidityTerm)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.publish(stream.Event{
		Type:       stream.EventContractProposed,
		PropertyID: c.PropertyID,
		ContractID: c.ID,
	})
	a.audit(r.Context(), "contract.propose", map[string]any{
		"contract_id": c.ID,
		"property_id": c.PropertyID,
		"tenant_id":   c.TenantID,
	})

	w.Header().Set("Location", "/v1/contracts/"+uintString(c.ID))
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) contractIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"count": a.market.ContractCount(r.Context()),
	})
}

func (a *API) getContract(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	c, err := a.market.GetContract(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) acceptContract(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req contractPropertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	c, err := a.market.AcceptContract(r.Context(), addr, req.PropertyID, id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.publish(stream.Event{
		Type:       stream.EventContractConfirmed,
		PropertyID: c.PropertyID,
		ContractID: c.ID,
	})
	a.audit(r.Context(), "contract.accept", map[string]any{
		"contract_id": c.ID,
		"property_id": c.PropertyID,
	})

	writeJSON(w, http.StatusOK, c)
}

func (a *API) terminateContract(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req contractPropertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.market.TerminateContract(r.Context(), addr, req.PropertyID, id); err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.publish(stream.Event{
		Type:       stream.EventContractTerminated,
		PropertyID: req.PropertyID,
		ContractID: id,
	})
	a.audit(r.Context(), "contract.terminate", map[string]any{
		"contract_id": id,
		"property_id": req.PropertyID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) cancelContract(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.market.CancelContract(r.Context(), addr, id); err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.publish(stream.Event{
		Type:       stream.EventContractCancelled,
		ContractID: id,
	})
	a.audit(r.Context(), "contract.cancel", map[string]any{
		"contract_id": id,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) tenantContracts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ids, err := a.market.TenantContractIDs(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contract_ids": ids})
}

func (a *API) tenantCurrentContract(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	contractID, ok, err := a.market.TenantCurrentContractID(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "tenant has no current contract")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contract_id": contractID})
}

func (a *API) tenantRentHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	history, err := a.market.TenantRentHistory(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contract_ids": history})
}
