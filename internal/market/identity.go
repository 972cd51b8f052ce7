package market

import (
	"context"
	"strings"
)

// IssueIdentity mints a credential for the caller. An address can hold at
// most one live credential at a time; burned ids are never reassigned.
func (s *InMemory) IssueIdentity(ctx context.Context, caller, name, metadataURI string) (Identity, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" || strings.TrimSpace(name) == "" {
		return Identity{}, ErrInvalidState
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.identityByOwner[caller]; ok {
		return Identity{}, ErrInvalidState
	}
	id := s.nextIdentity
	s.nextIdentity++
	ident := &Identity{
		ID:          id,
		Owner:       caller,
		Name:        name,
		MetadataURI: metadataURI,
		IssuedAt:    s.now().UTC(),
	}
	s.identities[id] = ident
	s.identityByOwner[caller] = id
	return *ident, nil
}

// BurnIdentity destroys the credential. Only the current holder may burn;
// the owner is cleared to the empty sentinel and the id stays retired.
func (s *InMemory) BurnIdentity(ctx context.Context, caller string, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident, ok := s.identities[id]
	if !ok {
		return ErrNotFound
	}
	if ident.Owner == "" || ident.Owner != caller {
		return ErrUnauthorized
	}
	delete(s.identityByOwner, ident.Owner)
	ident.Owner = ""
	return nil
}

// TransferIdentity always fails: the credential is soulbound. This is a
// hard policy, not a permission check, so it rejects before any ownership
// lookup.
func (s *InMemory) TransferIdentity(ctx context.Context, caller string, id uint64, to string) error {
	return ErrNonTransferable
}

func (s *InMemory) GetIdentity(ctx context.Context, id uint64) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.identities[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return *ident, nil
}

// IdentityOwner returns the holder address, or the empty string for a
// burned credential.
func (s *InMemory) IdentityOwner(ctx context.Context, id uint64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.identities[id]
	if !ok {
		return "", ErrNotFound
	}
	return ident.Owner, nil
}

func (s *InMemory) ResolveIdentity(ctx context.Context, owner string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.identityByOwner[owner]
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}

func (s *InMemory) IdentityName(ctx context.Context, id uint64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.identities[id]
	if !ok {
		return "", ErrNotFound
	}
	return ident.Name, nil
}

func (s *InMemory) IdentityCount(ctx context.Context) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextIdentity
}
