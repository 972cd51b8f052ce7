package market

import (
	"context"
	"errors"
	"testing"
)

func TestIssueIdentityAssignsSequentialIDs(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if got := s.IdentityCount(ctx); got != 0 {
		t.Fatalf("fresh registry count = %d, want 0", got)
	}
	a, err := s.IssueIdentity(ctx, tenantAddr, "John", "ipfs://a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.IssueIdentity(ctx, otherAddr, "Ben", "ipfs://b")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != 0 || b.ID != 1 {
		t.Fatalf("unexpected ids: %d, %d", a.ID, b.ID)
	}
	if got := s.IdentityCount(ctx); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
}

func TestIssueIdentityRejectsSecondLiveCredential(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	if _, err := s.IssueIdentity(ctx, tenantAddr, "John", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.IssueIdentity(ctx, tenantAddr, "John again", ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestBurnClearsOwnerWithoutReuse(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	ident, err := s.IssueIdentity(ctx, tenantAddr, "John", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.BurnIdentity(ctx, tenantAddr, ident.ID); err != nil {
		t.Fatal(err)
	}
	owner, err := s.IdentityOwner(ctx, ident.ID)
	if err != nil {
		t.Fatal(err)
	}
	if owner != "" {
		t.Fatalf("owner after burn = %q, want empty sentinel", owner)
	}
	if _, err := s.ResolveIdentity(ctx, tenantAddr); !errors.Is(err, ErrNotFound) {
		t.Fatalf("resolve after burn: %v", err)
	}

	// The address may register again, but the retired id is not reused.
	next, err := s.IssueIdentity(ctx, tenantAddr, "John", "")
	if err != nil {
		t.Fatal(err)
	}
	if next.ID != ident.ID+1 {
		t.Fatalf("id %d reused after burn", next.ID)
	}
}

func TestBurnRequiresHolder(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	ident, _ := s.IssueIdentity(ctx, tenantAddr, "John", "")
	if err := s.BurnIdentity(ctx, otherAddr, ident.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := s.BurnIdentity(ctx, tenantAddr, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransferIdentityAlwaysRejected(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	ident, _ := s.IssueIdentity(ctx, tenantAddr, "John", "")
	// Rejected for the holder, for strangers and for unknown ids alike.
	for _, caller := range []string{tenantAddr, otherAddr, ""} {
		if err := s.TransferIdentity(ctx, caller, ident.ID, otherAddr); !errors.Is(err, ErrNonTransferable) {
			t.Fatalf("caller %q: expected ErrNonTransferable, got %v", caller, err)
		}
	}
	if err := s.TransferIdentity(ctx, tenantAddr, 99, otherAddr); !errors.Is(err, ErrNonTransferable) {
		t.Fatalf("unknown id: expected ErrNonTransferable, got %v", err)
	}
}

func TestIdentityLookups(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	ident, _ := s.IssueIdentity(ctx, tenantAddr, "John", "ipfs://tenant")
	id, err := s.ResolveIdentity(ctx, tenantAddr)
	if err != nil || id != ident.ID {
		t.Fatalf("resolve = %d, %v", id, err)
	}
	name, err := s.IdentityName(ctx, ident.ID)
	if err != nil || name != "John" {
		t.Fatalf("name = %q, %v", name, err)
	}
	owner, err := s.IdentityOwner(ctx, ident.ID)
	if err != nil || owner != tenantAddr {
		t.Fatalf("owner = %q, %v", owner, err)
	}
	if _, err := s.GetIdentity(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
