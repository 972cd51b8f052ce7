package market

import (
	"context"
	"sort"
	"strings"
)

// CreateProperty registers a property record bound to the caller. The
// property is not rentable until it is listed.
func (s *InMemory) CreateProperty(ctx context.Context, caller, name, metadataURI, location string) (Property, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" || strings.TrimSpace(name) == "" {
		return Property{}, ErrInvalidState
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextProperty
	s.nextProperty++
	p := &Property{
		ID:          id,
		Owner:       caller,
		Name:        name,
		MetadataURI: metadataURI,
		Location:    location,
		CreatedAt:   s.now().UTC(),
	}
	s.properties[id] = p
	return copyProperty(p), nil
}

// ListProperty sets the economic terms and adds the property to the listed
// set. Owner only; rejected while the property is rented.
func (s *InMemory) ListProperty(ctx context.Context, caller string, id uint64, terms ListingTerms) error {
	if err := validateTerms(terms.EconomicTerms); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.properties[id]
	if !ok {
		return ErrNotFound
	}
	if p.Owner != caller {
		return ErrUnauthorized
	}
	if p.Rented {
		return ErrInvalidState
	}
	p.Listing = ListingTerms{
		Description:   terms.Description,
		EconomicTerms: copyTerms(terms.EconomicTerms),
	}
	p.Listed = true
	s.listed[id] = struct{}{}
	return nil
}

// UpdateListing overwrites the economic terms of an existing listing. The
// id, owner, name, description and metadata reference never change here.
func (s *InMemory) UpdateListing(ctx context.Context, caller string, id uint64, terms EconomicTerms) error {
	if err := validateTerms(terms); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.properties[id]
	if !ok {
		return ErrNotFound
	}
	if p.Owner != caller {
		return ErrUnauthorized
	}
	if p.Rented {
		return ErrInvalidState
	}
	p.Listing.EconomicTerms = copyTerms(terms)
	return nil
}

// RemoveFromListed takes the property off the listed set. Idempotent; the
// record itself is kept.
func (s *InMemory) RemoveFromListed(ctx context.Context, caller string, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.properties[id]
	if !ok {
		return ErrNotFound
	}
	if p.Owner != caller {
		return ErrUnauthorized
	}
	p.Listed = false
	delete(s.listed, id)
	return nil
}

func (s *InMemory) GetProperty(ctx context.Context, id uint64) (Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	if !ok {
		return Property{}, ErrNotFound
	}
	return copyProperty(p), nil
}

// ListedPropertyIDs returns the listed set in ascending id order.
func (s *InMemory) ListedPropertyIDs(ctx context.Context) []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uint64, 0, len(s.listed))
	for id := range s.listed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *InMemory) PropertyCount(ctx context.Context) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextProperty
}

func (s *InMemory) PropertyRentHistory(ctx context.Context, id uint64) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]uint64(nil), p.RentHistory...), nil
}

func validateTerms(t EconomicTerms) error {
	if t.RentalTerm <= 0 || t.RentalPrice <= 0 || t.DepositAmount < 0 {
		return ErrInvalidState
	}
	return nil
}

func copyTerms(t EconomicTerms) EconomicTerms {
	out := t
	out.PhotoHashes = append([]string(nil), t.PhotoHashes...)
	return out
}

func copyProperty(p *Property) Property {
	out := *p
	out.Listing.EconomicTerms = copyTerms(p.Listing.EconomicTerms)
	out.ContractIDs = append([]uint64(nil), p.ContractIDs...)
	out.RentHistory = append([]uint64(nil), p.RentHistory...)
	if p.CurrentContractID != nil {
		id := *p.CurrentContractID
		out.CurrentContractID = &id
	}
	return out
}
