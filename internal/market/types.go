package market

import (
	"errors"
	"time"
)

// ContractStatus is the lifecycle state of a rent contract.
type ContractStatus int

const (
	StatusPending ContractStatus = iota
	StatusConfirmed
	StatusTerminated
	StatusCancelled
)

func (s ContractStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusTerminated:
		return "terminated"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// PaymentKind distinguishes escrowed security deposits from rent payments.
type PaymentKind int

const (
	PaymentDeposit PaymentKind = iota
	PaymentRent
)

func (k PaymentKind) String() string {
	switch k {
	case PaymentDeposit:
		return "deposit"
	case PaymentRent:
		return "rent"
	default:
		return "unknown"
	}
}

// Identity is a non-transferable tenant credential. Owner is cleared to the
// empty string on burn; the id is never reassigned.
type Identity struct {
	ID          uint64    `json:"id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	MetadataURI string    `json:"metadata_uri"`
	IssuedAt    time.Time `json:"issued_at"`
}

// EconomicTerms are the mutable economic fields of a listing. All amounts
// are in minor units of the native currency. RentalTerm is in seconds.
type EconomicTerms struct {
	RentalTerm    int64    `json:"rental_term"`
	RentalPrice   int64    `json:"rental_price"`
	DepositAmount int64    `json:"deposit_amount"`
	PhotoHashes   []string `json:"photo_hashes"`
	TermsHash     string   `json:"terms_hash"`
}

// ListingTerms is everything a listing carries. Description is fixed at
// listing time and survives later term updates.
type ListingTerms struct {
	Description string `json:"description"`
	EconomicTerms
}

// Property is owned by the catalog. Contract transitions flip Listed,
// Rented and CurrentContractID; everything else mutates only through
// catalog operations.
type Property struct {
	ID                uint64       `json:"id"`
	Owner             string       `json:"owner"`
	Name              string       `json:"name"`
	MetadataURI       string       `json:"metadata_uri"`
	Location          string       `json:"location"`
	Listing           ListingTerms `json:"listing"`
	Listed            bool         `json:"listed"`
	Rented            bool         `json:"rented"`
	CurrentContractID *uint64      `json:"current_contract_id,omitempty"`
	AcceptedContracts uint64       `json:"accepted_contracts"`
	ContractIDs       []uint64     `json:"contract_ids"`
	RentHistory       []uint64     `json:"rent_history"`
	CreatedAt         time.Time    `json:"created_at"`
}

// RentContract is owned by the agreement engine and referenced by id from
// the escrow ledger. Timestamps are unix seconds; ExpiryTimestamp is
// derived once, at acceptance.
type RentContract struct {
	ID              uint64         `json:"id"`
	PropertyID      uint64         `json:"property_id"`
	TenantID        uint64         `json:"tenant_id"`
	RentalTerm      int64          `json:"rental_term"`
	RentalPrice     int64          `json:"rental_price"`
	DepositAmount   int64          `json:"deposit_amount"`
	StartTimestamp  int64          `json:"start_timestamp"`
	ExpiryTimestamp int64          `json:"expiry_timestamp"`
	ValidityTerm    int64          `json:"validity_term"`
	Status          ContractStatus `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Payment is an append-only escrow ledger entry.
type Payment struct {
	ID         uint64      `json:"id"`
	Kind       PaymentKind `json:"kind"`
	ContractID uint64      `json:"contract_id"`
	Amount     int64       `json:"amount"`
	PaidAt     time.Time   `json:"paid_at"`
}

// Dispute is a recorded grievance tied to a confirmed contract. Ids are
// scoped to the contract and start at 0. There is no resolution workflow.
type Dispute struct {
	ID          uint64    `json:"id"`
	ContractID  uint64    `json:"contract_id"`
	Description string    `json:"description"`
	RaisedBy    string    `json:"raised_by"`
	Open        bool      `json:"open"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("caller is not authorized")
	ErrInvalidState       = errors.New("operation not permitted in current state")
	ErrInsufficientAmount = errors.New("amount below required value")
	ErrSelfDealing        = errors.New("owner and tenant resolve to the same holder")
	ErrTransferFailed     = errors.New("outbound transfer failed")
	ErrNonTransferable    = errors.New("identity credential is non-transferable")
)
