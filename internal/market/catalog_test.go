package market

import (
	"context"
	"errors"
	"testing"
)

func TestCreatePropertyAssignsOwnerAndCounts(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	before := s.PropertyCount(ctx)
	p, err := s.CreateProperty(ctx, ownerAddr, "Ben", "ipfs://property-metadata", "Lisbon")
	if err != nil {
		t.Fatal(err)
	}
	if p.Owner != ownerAddr {
		t.Fatalf("owner = %q, want %q", p.Owner, ownerAddr)
	}
	if after := s.PropertyCount(ctx); after != before+1 {
		t.Fatalf("count %d -> %d, want +1", before, after)
	}
	if p.Listed || p.Rented {
		t.Fatalf("new property should be neither listed nor rented: %+v", p)
	}
}

func TestListPropertyAddsToListedSet(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	id := seedListing(t, s)
	if !containsID(s.ListedPropertyIDs(ctx), id) {
		t.Fatalf("listed ids %v missing %d", s.ListedPropertyIDs(ctx), id)
	}
	p, _ := s.GetProperty(ctx, id)
	if !p.Listed {
		t.Fatal("property not flagged as listed")
	}
	if p.Listing.RentalPrice != testPrice || p.Listing.DepositAmount != testDeposit {
		t.Fatalf("unexpected terms: %+v", p.Listing)
	}
}

func TestListPropertyAuthorizationAndState(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	p, _ := s.CreateProperty(ctx, ownerAddr, "Ben", "", "")
	if err := s.ListProperty(ctx, otherAddr, p.ID, testTerms()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := s.ListProperty(ctx, ownerAddr, 99, testTerms()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	bad := testTerms()
	bad.RentalTerm = 0
	if err := s.ListProperty(ctx, ownerAddr, p.ID, bad); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for zero term, got %v", err)
	}

	// A rented property cannot be re-listed.
	sr := NewInMemory()
	propertyID, _, _ := seedConfirmed(t, sr)
	if err := sr.ListProperty(ctx, ownerAddr, propertyID, testTerms()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState while rented, got %v", err)
	}
}

func TestUpdateListingChangesOnlyEconomicTerms(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	id := seedListing(t, s)
	before, _ := s.GetProperty(ctx, id)

	updated := before.Listing.EconomicTerms
	updated.RentalPrice = 50
	updated.DepositAmount = 30
	if err := s.UpdateListing(ctx, ownerAddr, id, updated); err != nil {
		t.Fatal(err)
	}
	after, _ := s.GetProperty(ctx, id)

	if after.Name != before.Name || after.MetadataURI != before.MetadataURI || after.ID != before.ID {
		t.Fatalf("immutable fields changed: %+v", after)
	}
	if after.Listing.Description != before.Listing.Description {
		t.Fatalf("description changed: %q -> %q", before.Listing.Description, after.Listing.Description)
	}
	if before.Listing.RentalPrice != 30 || after.Listing.RentalPrice != 50 {
		t.Fatalf("rental price %d -> %d, want 30 -> 50", before.Listing.RentalPrice, after.Listing.RentalPrice)
	}
	if before.Listing.DepositAmount != 10 || after.Listing.DepositAmount != 30 {
		t.Fatalf("deposit %d -> %d, want 10 -> 30", before.Listing.DepositAmount, after.Listing.DepositAmount)
	}
	if after.Listing.RentalTerm != before.Listing.RentalTerm {
		t.Fatalf("rental term changed unexpectedly")
	}
}

func TestUpdateListingRejectedWhileRented(t *testing.T) {
	s := NewInMemory()
	propertyID, _, _ := seedConfirmed(t, s)

	terms := testTerms().EconomicTerms
	if err := s.UpdateListing(context.Background(), ownerAddr, propertyID, terms); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestRemoveFromListedIsIdempotent(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	id := seedListing(t, s)
	if err := s.RemoveFromListed(ctx, ownerAddr, id); err != nil {
		t.Fatal(err)
	}
	if containsID(s.ListedPropertyIDs(ctx), id) {
		t.Fatal("property still listed after removal")
	}
	// Second removal is a no-op, the record survives.
	if err := s.RemoveFromListed(ctx, ownerAddr, id); err != nil {
		t.Fatalf("second removal: %v", err)
	}
	if _, err := s.GetProperty(ctx, id); err != nil {
		t.Fatalf("property record deleted: %v", err)
	}
	if err := s.RemoveFromListed(ctx, otherAddr, id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestListedPropertyIDsSorted(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, _ := s.CreateProperty(ctx, ownerAddr, "Ben", "", "")
		if err := s.ListProperty(ctx, ownerAddr, p.ID, testTerms()); err != nil {
			t.Fatal(err)
		}
	}
	ids := s.ListedPropertyIDs(ctx)
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("ids not ascending: %v", ids)
		}
	}
}
