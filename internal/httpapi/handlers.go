package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"rentledger.org/api/spec"
	"rentledger.org/internal/audit"
	"rentledger.org/internal/content"
	"rentledger.org/internal/market"
	"rentledger.org/internal/obs"
	"rentledger.org/internal/oracle"
	"rentledger.org/internal/stream"
)

// Pinger reports whether an external dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventArchive reads back persisted marketplace events for operators.
type EventArchive interface {
	RecentEvents(ctx context.Context, limit int) ([]stream.Event, error)
}

// ReadyProbe checks external dependencies for readiness. A nil Archive
// means the service runs without the Postgres archive and is always
// ready.
type ReadyProbe struct {
	Archive Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Archive == nil {
		return nil
	}
	return rp.Archive.Ping(ctx)
}

// API is the HTTP layer over the marketplace service.
type API struct {
	router     *mux.Router
	readyProbe ReadyProbe
	version    string
	market     market.Service
	stream     *stream.Stream
	converter  *oracle.Converter
	content    *content.Client
	archive    EventArchive

	rateBurst  int
	ratePerSec float64
}

// Option configures optional API collaborators.
type APIOption func(*API)

// WithConverter enables the oracle quote endpoint.
func WithConverter(c *oracle.Converter) APIOption {
	return func(a *API) { a.converter = c }
}

// WithContentStore enables the content upload endpoint.
func WithContentStore(c *content.Client) APIOption {
	return func(a *API) { a.content = c }
}

// WithEventArchive enables the archived-event replay endpoint.
func WithEventArchive(ar EventArchive) APIOption {
	return func(a *API) { a.archive = ar }
}

// WithRateLimit tunes the per-client limiter applied by Handler.
func WithRateLimit(burst int, perSec float64) APIOption {
	return func(a *API) {
		a.rateBurst = burst
		a.ratePerSec = perSec
	}
}

func New(rp ReadyProbe, version string, svc market.Service, st *stream.Stream, opts ...APIOption) *API {
	a := &API{
		router:     mux.NewRouter(),
		readyProbe: rp,
		version:    version,
		market:     svc,
		stream:     st,
		rateBurst:  20,
		ratePerSec: 10,
	}
	for _, opt := range opts {
		opt(a)
	}

	r := a.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, req, http.StatusMethodNotAllowed, "method not allowed")
	})

	// health/ready/info
	r.HandleFunc("/healthz", a.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.Ready).Methods(http.MethodGet)
	r.HandleFunc("/v1/info", a.Info).Methods(http.MethodGet)
	r.HandleFunc("/openapi.yaml", a.OpenAPISpec).Methods(http.MethodGet)
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	// auth
	r.HandleFunc("/v1/auth/token", a.issueToken).Methods(http.MethodPost)

	// identity registry
	r.HandleFunc("/v1/identities", a.issueIdentity).Methods(http.MethodPost)
	r.HandleFunc("/v1/identities", a.identityIndex).Methods(http.MethodGet)
	r.HandleFunc("/v1/identities/{id:[0-9]+}", a.getIdentity).Methods(http.MethodGet)
	r.HandleFunc("/v1/identities/{id:[0-9]+}", a.burnIdentity).Methods(http.MethodDelete)
	r.HandleFunc("/v1/identities/{id:[0-9]+}/transfer", a.transferIdentity).Methods(http.MethodPost)

	// property catalog
	r.HandleFunc("/v1/properties", a.createProperty).Methods(http.MethodPost)
	r.HandleFunc("/v1/properties", a.propertyIndex).Methods(http.MethodGet)
	r.HandleFunc("/v1/properties/{id:[0-9]+}", a.getProperty).Methods(http.MethodGet)
	r.HandleFunc("/v1/properties/{id:[0-9]+}/listing", a.listProperty).Methods(http.MethodPut)
	r.HandleFunc("/v1/properties/{id:[0-9]+}/listing", a.updateListing).Methods(http.MethodPatch)
	r.HandleFunc("/v1/properties/{id:[0-9]+}/listing", a.removeFromListed).Methods(http.MethodDelete)
	r.HandleFunc("/v1/properties/{id:[0-9]+}/contracts", a.propertyContracts).Methods(http.MethodGet)
	r.HandleFunc("/v1/properties/{id:[0-9]+}/rent-history", a.propertyRentHistory).Methods(http.MethodGet)
	r.HandleFunc("/v1/properties/{id:[0-9]+}/balance", a.propertyBalance).Methods(http.MethodGet)
	r.HandleFunc("/v1/properties/{id:[0-9]+}/withdrawals", a.withdrawProceeds).Methods(http.MethodPost)

	// agreement engine
	r.HandleFunc("/v1/contracts", a.proposeContract).Methods(http.MethodPost)
	r.HandleFunc("/v1/contracts", a.contractIndex).Methods(http.MethodGet)
	r.HandleFunc("/v1/contracts/{id:[0-9]+}", a.getContract).Methods(http.MethodGet)
	r.HandleFunc("/v1/contracts/{id:[0-9]+}/accept", a.acceptContract).Methods(http.MethodPost)
	r.HandleFunc("/v1/contracts/{id:[0-9]+}/terminate", a.terminateContract).Methods(http.MethodPost)
	r.HandleFunc("/v1/contracts/{id:[0-9]+}/cancel", a.cancelContract).Methods(http.MethodPost)
	r.HandleFunc("/v1/tenants/{id:[0-9]+}/contracts", a.tenantContracts).Methods(http.MethodGet)
	r.HandleFunc("/v1/tenants/{id:[0-9]+}/contracts/current", a.tenantCurrentContract).Methods(http.MethodGet)
	r.HandleFunc("/v1/tenants/{id:[0-9]+}/rent-history", a.tenantRentHistory).Methods(http.MethodGet)

	// escrow & dispute ledger
	r.HandleFunc("/v1/contracts/{id:[0-9]+}/deposit", a.payDeposit).Methods(http.MethodPost)
	r.HandleFunc("/v1/contracts/{id:[0-9]+}/deposit", a.getDeposit).Methods(http.MethodGet)
	r.HandleFunc("/v1/contracts/{id:[0-9]+}/rent", a.payRent).Methods(http.MethodPost)
	r.HandleFunc("/v1/contracts/{id:[0-9]+}/rent-paid", a.getPaidRent).Methods(http.MethodGet)
	r.HandleFunc("/v1/contracts/{id:[0-9]+}/deposit-release", a.depositRelease).Methods(http.MethodPost)
	r.HandleFunc("/v1/contracts/{id:[0-9]+}/disputes", a.createDispute).Methods(http.MethodPost)
	r.HandleFunc("/v1/contracts/{id:[0-9]+}/disputes", a.contractDisputes).Methods(http.MethodGet)
	r.HandleFunc("/v1/contracts/{id:[0-9]+}/payments", a.contractPayments).Methods(http.MethodGet)
	r.HandleFunc("/v1/payments", a.paymentIndex).Methods(http.MethodGet)
	r.HandleFunc("/v1/payments/{id:[0-9]+}", a.getPayment).Methods(http.MethodGet)

	// oracle & content
	r.HandleFunc("/v1/oracle/quote", a.oracleQuote).Methods(http.MethodGet)
	r.HandleFunc("/v1/content", a.storeContent).Methods(http.MethodPost)

	// events
	r.HandleFunc("/v1/events", a.Stream).Methods(http.MethodGet)
	r.HandleFunc("/v1/events/recent", a.recentEvents).Methods(http.MethodGet)

	return a
}

// Handler wires the middleware chain around the router.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = a.withAuth(h)
	h = obs.Instrument(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = LoggingJSON(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return h
}

// --- probes & meta ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "rentledger-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "rentledger-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(spec.OpenAPI)
}

func (a *API) publish(ev stream.Event) {
	if a.stream != nil {
		a.stream.Publish(ev)
	}
}

func (a *API) audit(ctx context.Context, event string, fields map[string]any) {
	audit.LogEvent(ctx, event, fields)
}

// --- helpers ---

func pathID(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.New("id must be a non-negative integer")
	}
	return id, nil
}

func uintString(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func handleMarketError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, market.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, market.ErrUnauthorized), errors.Is(err, market.ErrNonTransferable):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, market.ErrInvalidState), errors.Is(err, market.ErrSelfDealing):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, market.ErrInsufficientAmount):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, market.ErrTransferFailed):
		writeError(w, r, http.StatusBadGateway, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
