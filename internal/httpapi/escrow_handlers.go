package httpapi

import (
	"net/http"
	"strings"

	"rentledger.org/internal/stream"
)

type paymentRequest struct {
	PropertyID uint64 `json:"property_id"`
	Amount     int64  `json:"amount"`
}

type depositReleaseRequest struct {
	Action string `json:"action"`
}

type createDisputeRequest struct {
	Description string `json:"description"`
}

func (a *API) payDeposit(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Amount <= 0 {
		writeError(w, r, http.StatusBadRequest, "amount must be > 0")
		return
	}

	p, err := a.market.PayDeposit(r.Context(), addr, req.PropertyID, id, req.Amount)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.publish(stream.Event{
		Type:       stream.EventDepositPaid,
		PropertyID: req.PropertyID,
		ContractID: id,
		PaymentID:  p.ID,
		Amount:     p.Amount,
	})
	a.audit(r.Context(), "escrow.deposit.pay", map[string]any{
		"contract_id": id,
		"payment_id":  p.ID,
		"amount":      p.Amount,
	})

	writeJSON(w, http.StatusCreated, p)
}

func (a *API) getDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := a.market.Deposit(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"amount": amount})
}

func (a *API) payRent(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Amount <= 0 {
		writeError(w, r, http.StatusBadRequest, "amount must be > 0")
		return
	}

	p, err := a.market.PayRent(r.Context(), addr, req.PropertyID, id, req.Amount)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.publish(stream.Event{
		Type:       stream.EventRentPaid,
		PropertyID: req.PropertyID,
		ContractID: id,
		PaymentID:  p.ID,
		Amount:     p.Amount,
	})
	a.audit(r.Context(), "escrow.rent.pay", map[string]any{
		"contract_id": id,
		"payment_id":  p.ID,
		"amount":      p.Amount,
	})

	writeJSON(w, http.StatusCreated, p)
}

func (a *API) getPaidRent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := a.market.PaidRent(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"amount": amount})
}

func (a *API) propertyBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	balance, err := a.market.PropertyBalance(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balance": balance})
}

func (a *API) withdrawProceeds(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := a.market.WithdrawProceeds(r.Context(), addr, id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.publish(stream.Event{
		Type:       stream.EventProceedsWithdrawn,
		PropertyID: id,
		Amount:     amount,
	})
	a.audit(r.Context(), "escrow.proceeds.withdraw", map[string]any{
		"property_id": id,
		"amount":      amount,
	})

	writeJSON(w, http.StatusOK, map[string]any{"amount": amount})
}

// depositRelease handles both sides of the release handshake: the owner
// grants, then the tenant claims.
func (a *API) depositRelease(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req depositReleaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	switch strings.TrimSpace(req.Action) {
	case "grant":
		if err := a.market.GrantDepositRelease(r.Context(), addr, id); err != nil {
			handleMarketError(w, r, err)
			return
		}
		a.audit(r.Context(), "escrow.deposit.grant_release", map[string]any{
			"contract_id": id,
		})
		writeJSON(w, http.StatusOK, map[string]any{"granted": true})

	case "claim":
		amount, err := a.market.ReleaseDeposit(r.Context(), addr, id)
		if err != nil {
			handleMarketError(w, r, err)
			return
		}
		a.publish(stream.Event{
			Type:       stream.EventDepositReleased,
			ContractID: id,
			Amount:     amount,
		})
		a.audit(r.Context(), "escrow.deposit.release", map[string]any{
			"contract_id": id,
			"amount":      amount,
		})
		writeJSON(w, http.StatusOK, map[string]any{"amount": amount})

	default:
		writeError(w, r, http.StatusBadRequest, "action must be grant or claim")
	}
}

func (a *API) createDispute(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req createDisputeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		writeError(w, r, http.StatusBadRequest, "description is required")
		return
	}
	if len(description) > 4096 {
		writeError(w, r, http.StatusBadRequest, "description too long")
		return
	}

	d, err := a.market.CreateDispute(r.Context(), addr, id, description)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}

	a.publish(stream.Event{
		Type:       stream.EventDisputeOpened,
		ContractID: id,
	})
	a.audit(r.Context(), "escrow.dispute.open", map[string]any{
		"contract_id": id,
		"dispute_id":  d.ID,
	})

	writeJSON(w, http.StatusCreated, d)
}

func (a *API) contractDisputes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	disputes, err := a.market.ContractDisputes(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": disputes})
}

func (a *API) contractPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	payments, err := a.market.ContractPayments(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": payments})
}

func (a *API) paymentIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"count": a.market.PaymentCount(r.Context()),
	})
}

func (a *API) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.market.GetPayment(r.Context(), id)
	if err != nil {
		handleMarketError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
