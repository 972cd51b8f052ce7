package market

import (
	"context"
	"testing"
	"time"
)

const (
	ownerAddr  = "0xowner"
	tenantAddr = "0xtenant"
	otherAddr  = "0xother"

	monthSeconds = int64(60 * 60 * 24 * 30)
	testPrice    = int64(30)
	testDeposit  = int64(10)
)

func testTerms() ListingTerms {
	return ListingTerms{
		Description: "nice flat with a lot of amenities",
		EconomicTerms: EconomicTerms{
			RentalTerm:    monthSeconds,
			RentalPrice:   testPrice,
			DepositAmount: testDeposit,
			PhotoHashes:   []string{"mockPhotoHash1", "mockPhotoHash2"},
			TermsHash:     "mockHashOfTermsAndConditions",
		},
	}
}

// seedListing creates and lists a property owned by ownerAddr and returns
// its id.
func seedListing(t *testing.T, s *InMemory) uint64 {
	t.Helper()
	ctx := context.Background()
	p, err := s.CreateProperty(ctx, ownerAddr, "Ben", "ipfs://property-metadata", "Lisbon")
	if err != nil {
		t.Fatalf("create property: %v", err)
	}
	if err := s.ListProperty(ctx, ownerAddr, p.ID, testTerms()); err != nil {
		t.Fatalf("list property: %v", err)
	}
	return p.ID
}

// seedProposal seeds a listing, a tenant credential and a pending contract.
func seedProposal(t *testing.T, s *InMemory) (propertyID, tenantID, contractID uint64) {
	t.Helper()
	ctx := context.Background()
	propertyID = seedListing(t, s)
	ident, err := s.IssueIdentity(ctx, tenantAddr, "John", "ipfs://tenant-metadata")
	if err != nil {
		t.Fatalf("issue identity: %v", err)
	}
	now := time.Now().Unix()
	c, err := s.ProposeContract(ctx, tenantAddr, propertyID, ident.ID,
		monthSeconds, testPrice, testDeposit, now+5*86400, now+3*86400)
	if err != nil {
		t.Fatalf("propose contract: %v", err)
	}
	return propertyID, ident.ID, c.ID
}

// seedConfirmed seeds a proposal and has the owner accept it.
func seedConfirmed(t *testing.T, s *InMemory) (propertyID, tenantID, contractID uint64) {
	t.Helper()
	propertyID, tenantID, contractID = seedProposal(t, s)
	if _, err := s.AcceptContract(context.Background(), ownerAddr, propertyID, contractID); err != nil {
		t.Fatalf("accept contract: %v", err)
	}
	return propertyID, tenantID, contractID
}

func containsID(ids []uint64, want uint64) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
