package market

import (
	"context"
	"sync"
	"time"
)

// Service defines the marketplace operations: identity registry, property
// catalog, agreement engine and escrow/dispute ledger. Callers are opaque
// account addresses; every mutating operation re-validates authorization
// and state atomically with the mutation.
type Service interface {
	// Identity registry.
	IssueIdentity(ctx context.Context, caller, name, metadataURI string) (Identity, error)
	BurnIdentity(ctx context.Context, caller string, id uint64) error
	TransferIdentity(ctx context.Context, caller string, id uint64, to string) error
	GetIdentity(ctx context.Context, id uint64) (Identity, error)
	IdentityOwner(ctx context.Context, id uint64) (string, error)
	ResolveIdentity(ctx context.Context, owner string) (uint64, error)
	IdentityName(ctx context.Context, id uint64) (string, error)
	IdentityCount(ctx context.Context) uint64

	// Property catalog.
	CreateProperty(ctx context.Context, caller, name, metadataURI, location string) (Property, error)
	ListProperty(ctx context.Context, caller string, id uint64, terms ListingTerms) error
	UpdateListing(ctx context.Context, caller string, id uint64, terms EconomicTerms) error
	RemoveFromListed(ctx context.Context, caller string, id uint64) error
	GetProperty(ctx context.Context, id uint64) (Property, error)
	ListedPropertyIDs(ctx context.Context) []uint64
	PropertyCount(ctx context.Context) uint64
	PropertyRentHistory(ctx context.Context, id uint64) ([]uint64, error)

	// Agreement engine.
	ProposeContract(ctx context.Context, caller string, propertyID, tenantID uint64, rentalTerm, rentalPrice, depositAmount, startTimestamp, validityTerm int64) (RentContract, error)
	AcceptContract(ctx context.Context, caller string, propertyID, contractID uint64) (RentContract, error)
	TerminateContract(ctx context.Context, caller string, propertyID, contractID uint64) error
	CancelContract(ctx context.Context, caller string, contractID uint64) error
	GetContract(ctx context.Context, id uint64) (RentContract, error)
	PropertyContractIDs(ctx context.Context, propertyID uint64) ([]uint64, error)
	TenantContractIDs(ctx context.Context, tenantID uint64) ([]uint64, error)
	TenantCurrentContractID(ctx context.Context, tenantID uint64) (uint64, bool, error)
	TenantRentHistory(ctx context.Context, tenantID uint64) ([]uint64, error)
	ContractCount(ctx context.Context) uint64

	// Escrow & dispute ledger.
	PayDeposit(ctx context.Context, caller string, propertyID, contractID uint64, amount int64) (Payment, error)
	PayRent(ctx context.Context, caller string, propertyID, contractID uint64, amount int64) (Payment, error)
	WithdrawProceeds(ctx context.Context, caller string, propertyID uint64) (int64, error)
	GrantDepositRelease(ctx context.Context, caller string, contractID uint64) error
	ReleaseDeposit(ctx context.Context, caller string, contractID uint64) (int64, error)
	CreateDispute(ctx context.Context, caller string, contractID uint64, description string) (Dispute, error)
	GetPayment(ctx context.Context, id uint64) (Payment, error)
	ContractPayments(ctx context.Context, contractID uint64) ([]Payment, error)
	ContractDisputes(ctx context.Context, contractID uint64) ([]Dispute, error)
	Deposit(ctx context.Context, contractID uint64) (int64, error)
	PaidRent(ctx context.Context, contractID uint64) (int64, error)
	PropertyBalance(ctx context.Context, propertyID uint64) (int64, error)
	PaymentCount(ctx context.Context) uint64
}

// Transferor moves funds out of escrow custody to an external account.
// Implementations settle against a payment rail; a failure after the
// ledger has been zeroed is surfaced as ErrTransferFailed and requires
// operator intervention, never an automatic retry.
type Transferor interface {
	Payout(ctx context.Context, to string, amount int64) error
}

// TransferorFunc adapts a function to the Transferor interface.
type TransferorFunc func(ctx context.Context, to string, amount int64) error

func (f TransferorFunc) Payout(ctx context.Context, to string, amount int64) error {
	return f(ctx, to, amount)
}

// InMemory implements Service with in-process concurrency safety. A single
// lock covers all four components, so cross-component transitions (accept
// flips both the contract and the property) are atomic: either the whole
// operation happens or none of it does.
type InMemory struct {
	mu sync.RWMutex

	identities      map[uint64]*Identity
	identityByOwner map[string]uint64
	nextIdentity    uint64

	properties   map[uint64]*Property
	listed       map[uint64]struct{}
	nextProperty uint64

	contracts     map[uint64]*RentContract
	tenantIDs     map[uint64][]uint64 // tenant identity -> contract ids
	tenantHistory map[uint64][]uint64 // tenant identity -> accepted contract ids
	tenantCurrent map[uint64]uint64   // tenant identity -> confirmed contract id
	nextContract  uint64

	payments         []Payment
	contractPayments map[uint64][]uint64 // contract id -> payment ids
	deposits         map[uint64]int64    // contract id -> held deposit
	paidRent         map[uint64]int64    // contract id -> cumulative rent
	proceeds         map[uint64]int64    // property id -> withdrawable proceeds
	releaseGranted   map[uint64]bool     // contract id -> owner release grant
	disputes         map[uint64][]Dispute

	bank Transferor
	now  func() time.Time
}

// Option configures InMemory.
type Option func(*InMemory)

// WithTransferor replaces the outbound settlement rail.
func WithTransferor(t Transferor) Option {
	return func(s *InMemory) {
		if t != nil {
			s.bank = t
		}
	}
}

// WithClock overrides the time source. Expiry and validity checks are
// evaluated lazily inside operations using this clock, never via timers.
func WithClock(now func() time.Time) Option {
	return func(s *InMemory) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInMemory creates an empty marketplace. All id counters start at 0 and
// are never reused, including after burn or delisting.
func NewInMemory(opts ...Option) *InMemory {
	s := &InMemory{
		identities:       make(map[uint64]*Identity),
		identityByOwner:  make(map[string]uint64),
		properties:       make(map[uint64]*Property),
		listed:           make(map[uint64]struct{}),
		contracts:        make(map[uint64]*RentContract),
		tenantIDs:        make(map[uint64][]uint64),
		tenantHistory:    make(map[uint64][]uint64),
		tenantCurrent:    make(map[uint64]uint64),
		contractPayments: make(map[uint64][]uint64),
		deposits:         make(map[uint64]int64),
		paidRent:         make(map[uint64]int64),
		proceeds:         make(map[uint64]int64),
		releaseGranted:   make(map[uint64]bool),
		disputes:         make(map[uint64][]Dispute),
		bank:             TransferorFunc(func(context.Context, string, int64) error { return nil }),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Service = (*InMemory)(nil)
