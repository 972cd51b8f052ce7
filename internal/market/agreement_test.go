package market

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestProposeContractRejectsSelfDealing(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	id := seedListing(t, s)
	ident, _ := s.IssueIdentity(ctx, ownerAddr, "John", "")
	now := time.Now().Unix()
	_, err := s.ProposeContract(ctx, ownerAddr, id, ident.ID, monthSeconds, testPrice, testDeposit, now, now+86400)
	if !errors.Is(err, ErrSelfDealing) {
		t.Fatalf("expected ErrSelfDealing, got %v", err)
	}
}

func TestProposeContractRequiresCredentialHolder(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	id := seedListing(t, s)
	ident, _ := s.IssueIdentity(ctx, tenantAddr, "John", "")
	now := time.Now().Unix()
	_, err := s.ProposeContract(ctx, otherAddr, id, ident.ID, monthSeconds, testPrice, testDeposit, now, now+86400)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestProposeContractRequiresListedProperty(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	p, _ := s.CreateProperty(ctx, ownerAddr, "Ben", "", "")
	ident, _ := s.IssueIdentity(ctx, tenantAddr, "John", "")
	now := time.Now().Unix()
	_, err := s.ProposeContract(ctx, tenantAddr, p.ID, ident.ID, monthSeconds, testPrice, testDeposit, now, now+86400)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestProposeContractAppendsToBothIndexes(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	propertyID, tenantID, contractID := seedProposal(t, s)

	propContracts, err := s.PropertyContractIDs(ctx, propertyID)
	if err != nil {
		t.Fatal(err)
	}
	tenantContracts, err := s.TenantContractIDs(ctx, tenantID)
	if err != nil {
		t.Fatal(err)
	}
	if !containsID(propContracts, contractID) || !containsID(tenantContracts, contractID) {
		t.Fatalf("contract %d missing from indexes %v / %v", contractID, propContracts, tenantContracts)
	}
	c, _ := s.GetContract(ctx, contractID)
	if c.Status != StatusPending {
		t.Fatalf("status = %v, want pending", c.Status)
	}
	if c.ExpiryTimestamp != 0 {
		t.Fatalf("expiry computed before acceptance: %d", c.ExpiryTimestamp)
	}
}

func TestAcceptContractUpdatesPropertyAndContract(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	propertyID, tenantID, contractID := seedProposal(t, s)
	before, _ := s.GetProperty(ctx, propertyID)

	c, err := s.AcceptContract(ctx, ownerAddr, propertyID, contractID)
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != StatusConfirmed {
		t.Fatalf("status = %v, want confirmed", c.Status)
	}
	if c.ExpiryTimestamp != c.StartTimestamp+c.RentalTerm {
		t.Fatalf("expiry = %d, want start+term = %d", c.ExpiryTimestamp, c.StartTimestamp+c.RentalTerm)
	}

	after, _ := s.GetProperty(ctx, propertyID)
	if after.AcceptedContracts != before.AcceptedContracts+1 {
		t.Fatalf("accepted count %d -> %d", before.AcceptedContracts, after.AcceptedContracts)
	}
	if after.CurrentContractID == nil || *after.CurrentContractID != contractID {
		t.Fatalf("current contract = %v, want %d", after.CurrentContractID, contractID)
	}
	if !after.Rented || after.Listed {
		t.Fatalf("property flags wrong after accept: rented=%v listed=%v", after.Rented, after.Listed)
	}
	if containsID(s.ListedPropertyIDs(ctx), propertyID) {
		t.Fatal("property still in listed set after accept")
	}
	if !containsID(after.RentHistory, contractID) {
		t.Fatalf("rent history %v missing contract", after.RentHistory)
	}

	history, _ := s.TenantRentHistory(ctx, tenantID)
	if !containsID(history, contractID) {
		t.Fatalf("tenant history %v missing contract", history)
	}
	cur, ok, err := s.TenantCurrentContractID(ctx, tenantID)
	if err != nil || !ok || cur != contractID {
		t.Fatalf("tenant current = %d, %v, %v", cur, ok, err)
	}
}

func TestAcceptContractAuthorizationAndState(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	propertyID, _, contractID := seedProposal(t, s)
	if _, err := s.AcceptContract(ctx, tenantAddr, propertyID, contractID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := s.AcceptContract(ctx, ownerAddr, propertyID, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := s.AcceptContract(ctx, ownerAddr, propertyID, contractID); err != nil {
		t.Fatal(err)
	}
	// A confirmed contract cannot be accepted again.
	if _, err := s.AcceptContract(ctx, ownerAddr, propertyID, contractID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestAcceptContractRejectsExpiredOffer(t *testing.T) {
	clock := time.Now()
	s := NewInMemory(WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	propertyID, _, contractID := seedProposal(t, s)

	// Move past the validity deadline: the check happens lazily at accept.
	clock = clock.Add(4 * 24 * time.Hour)
	if _, err := s.AcceptContract(ctx, ownerAddr, propertyID, contractID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for expired offer, got %v", err)
	}
}

func TestAcceptContractEnforcesOneActiveContract(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	propertyID, _, first := seedProposal(t, s)
	ident, _ := s.IssueIdentity(ctx, otherAddr, "Ben", "")
	now := time.Now().Unix()
	second, err := s.ProposeContract(ctx, otherAddr, propertyID, ident.ID, monthSeconds, testPrice, testDeposit, now, now+86400)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AcceptContract(ctx, ownerAddr, propertyID, first); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AcceptContract(ctx, ownerAddr, propertyID, second.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for second accept, got %v", err)
	}
}

func TestTerminateContractByEitherParty(t *testing.T) {
	for _, caller := range []string{ownerAddr, tenantAddr} {
		s := NewInMemory()
		ctx := context.Background()
		propertyID, tenantID, contractID := seedConfirmed(t, s)

		if err := s.TerminateContract(ctx, caller, propertyID, contractID); err != nil {
			t.Fatalf("terminate by %q: %v", caller, err)
		}
		c, _ := s.GetContract(ctx, contractID)
		if c.Status != StatusTerminated {
			t.Fatalf("status = %v, want terminated", c.Status)
		}
		p, _ := s.GetProperty(ctx, propertyID)
		if p.Rented || p.CurrentContractID != nil {
			t.Fatalf("property not cleared: rented=%v current=%v", p.Rented, p.CurrentContractID)
		}
		// Termination does not re-list the property.
		if p.Listed || containsID(s.ListedPropertyIDs(ctx), propertyID) {
			t.Fatal("property re-listed after termination")
		}
		if _, ok, _ := s.TenantCurrentContractID(ctx, tenantID); ok {
			t.Fatal("tenant current contract not cleared")
		}
	}
}

func TestTerminateContractRejectsStrangersAndBadState(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	propertyID, _, contractID := seedConfirmed(t, s)
	if err := s.TerminateContract(ctx, otherAddr, propertyID, contractID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := s.TerminateContract(ctx, ownerAddr, propertyID, contractID); err != nil {
		t.Fatal(err)
	}
	if err := s.TerminateContract(ctx, ownerAddr, propertyID, contractID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double terminate, got %v", err)
	}
}

func TestCancelContractOnlyPendingByTenant(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	_, _, contractID := seedProposal(t, s)
	if err := s.CancelContract(ctx, ownerAddr, contractID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := s.CancelContract(ctx, tenantAddr, contractID); err != nil {
		t.Fatal(err)
	}
	c, _ := s.GetContract(ctx, contractID)
	if c.Status != StatusCancelled {
		t.Fatalf("status = %v, want cancelled", c.Status)
	}
	if err := s.CancelContract(ctx, tenantAddr, contractID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on cancelled contract, got %v", err)
	}
}

func TestContractCount(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if s.ContractCount(ctx) != 0 {
		t.Fatal("fresh engine has contracts")
	}
	seedProposal(t, s)
	if got := s.ContractCount(ctx); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}
}
