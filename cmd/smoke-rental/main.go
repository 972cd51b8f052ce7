package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

// Drives a full rental lifecycle against a running API instance:
// credential, listing, proposal, acceptance, escrow and release.
func main() {
	base := os.Getenv("RENTLEDGER_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	c := &smokeClient{
		base:   base,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	ownerAuth := c.token("0xsmoke-owner")
	tenantAuth := c.token("0xsmoke-tenant")

	identity := c.call(http.MethodPost, "/v1/identities", tenantAuth, map[string]any{
		"name": "Smoke Tenant",
	}, http.StatusCreated)
	tenantID := uint64(identity["id"].(float64))

	prop := c.call(http.MethodPost, "/v1/properties", ownerAuth, map[string]any{
		"name":     "Smoke Flat",
		"location": "Almaty",
	}, http.StatusCreated)
	propertyID := uint64(prop["id"].(float64))

	c.call(http.MethodPut, fmt.Sprintf("/v1/properties/%d/listing", propertyID), ownerAuth, map[string]any{
		"description":    "Smoke test listing",
		"rental_term":    2_592_000,
		"rental_price":   30,
		"deposit_amount": 10,
	}, http.StatusOK)

	contract := c.call(http.MethodPost, "/v1/contracts", tenantAuth, map[string]any{
		"property_id":    propertyID,
		"tenant_id":      tenantID,
		"rental_term":    2_592_000,
		"rental_price":   30,
		"deposit_amount": 10,
	}, http.StatusCreated)
	contractID := uint64(contract["id"].(float64))

	confirmed := c.call(http.MethodPost, fmt.Sprintf("/v1/contracts/%d/accept", contractID), ownerAuth, map[string]any{
		"property_id": propertyID,
	}, http.StatusOK)
	if confirmed["status"].(float64) != 1 {
		log.Fatalf("contract not confirmed: %v", confirmed["status"])
	}

	c.call(http.MethodPost, fmt.Sprintf("/v1/contracts/%d/deposit", contractID), tenantAuth, map[string]any{
		"property_id": propertyID,
		"amount":      10,
	}, http.StatusCreated)

	c.call(http.MethodPost, fmt.Sprintf("/v1/contracts/%d/rent", contractID), tenantAuth, map[string]any{
		"property_id": propertyID,
		"amount":      30,
	}, http.StatusCreated)

	balance := c.call(http.MethodGet, fmt.Sprintf("/v1/properties/%d/balance", propertyID), ownerAuth, nil, http.StatusOK)
	if balance["balance"].(float64) != 30 {
		log.Fatalf("unexpected balance: %v", balance["balance"])
	}

	withdrawal := c.call(http.MethodPost, fmt.Sprintf("/v1/properties/%d/withdrawals", propertyID), ownerAuth, nil, http.StatusOK)
	if withdrawal["amount"].(float64) != 30 {
		log.Fatalf("unexpected withdrawal: %v", withdrawal["amount"])
	}

	c.call(http.MethodPost, fmt.Sprintf("/v1/contracts/%d/deposit-release", contractID), ownerAuth, map[string]any{
		"action": "grant",
	}, http.StatusOK)

	c.callNoBody(http.MethodPost, fmt.Sprintf("/v1/contracts/%d/terminate", contractID), ownerAuth, map[string]any{
		"property_id": propertyID,
	}, http.StatusNoContent)

	released := c.call(http.MethodPost, fmt.Sprintf("/v1/contracts/%d/deposit-release", contractID), tenantAuth, map[string]any{
		"action": "claim",
	}, http.StatusOK)
	if released["amount"].(float64) != 10 {
		log.Fatalf("unexpected released deposit: %v", released["amount"])
	}

	fmt.Printf("✅ rental smoke test passed: property=%d contract=%d\n", propertyID, contractID)
}

type smokeClient struct {
	base   string
	client *http.Client
}

func (c *smokeClient) token(address string) string {
	payload := c.call(http.MethodPost, "/v1/auth/token", "", map[string]any{
		"address": address,
	}, http.StatusOK)
	token, _ := payload["token"].(string)
	if token == "" {
		log.Fatalf("empty token for %s", address)
	}
	return "Bearer " + token
}

func (c *smokeClient) call(method, path, authHeader string, body any, wantStatus int) map[string]any {
	resp := c.doRequest(method, path, authHeader, body, wantStatus)
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return out
}

func (c *smokeClient) callNoBody(method, path, authHeader string, body any, wantStatus int) {
	resp := c.doRequest(method, path, authHeader, body, wantStatus)
	resp.Body.Close()
}

func (c *smokeClient) doRequest(method, path, authHeader string, body any, wantStatus int) *http.Response {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.base+path, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	if resp.StatusCode != wantStatus {
		log.Fatalf("%s %s: status %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	return resp
}
