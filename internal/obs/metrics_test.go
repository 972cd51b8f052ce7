package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                               "/",
		"/metrics":                       "/metrics",
		"/v1/properties/12":              "/v1/properties/:id",
		"/v1/properties/12/listing":      "/v1/properties/:id/listing",
		"/v1/properties/12/balance":      "/v1/properties/:id/balance",
		"/v1/contracts/3/deposit":        "/v1/contracts/:id/deposit",
		"/v1/contracts/3/disputes":       "/v1/contracts/:id/disputes",
		"/v1/tenants/0/contracts":        "/v1/tenants/:id/contracts",
		"/v1/payments/7":                 "/v1/payments/:id",
		"/v1/identities/1":               "/v1/identities/:id",
		"/v1/oracle/quote":               "/v1/oracle/quote",
		"/v1/oracle/quote?amount=10":     "/v1/oracle/quote",
		"/v1/properties":                 "/v1/properties",
		"/v1/auth/token":                 "/v1/auth/token",
		"/v1/unknown/55/whatever/extras": "/v1/unknown/55/whatever/extras",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
