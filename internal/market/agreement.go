package market

import "context"

// ProposeContract creates a Pending contract between a listed property and
// the caller's tenant credential. The caller must hold tenantID and must
// not be the property owner.
func (s *InMemory) ProposeContract(ctx context.Context, caller string, propertyID, tenantID uint64, rentalTerm, rentalPrice, depositAmount, startTimestamp, validityTerm int64) (RentContract, error) {
	if rentalTerm <= 0 || rentalPrice <= 0 || depositAmount < 0 {
		return RentContract{}, ErrInvalidState
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.properties[propertyID]
	if !ok {
		return RentContract{}, ErrNotFound
	}
	ident, ok := s.identities[tenantID]
	if !ok || ident.Owner == "" {
		return RentContract{}, ErrNotFound
	}
	if ident.Owner != caller {
		return RentContract{}, ErrUnauthorized
	}
	if p.Owner == caller {
		return RentContract{}, ErrSelfDealing
	}
	if !p.Listed {
		return RentContract{}, ErrInvalidState
	}

	id := s.nextContract
	s.nextContract++
	c := &RentContract{
		ID:             id,
		PropertyID:     propertyID,
		TenantID:       tenantID,
		RentalTerm:     rentalTerm,
		RentalPrice:    rentalPrice,
		DepositAmount:  depositAmount,
		StartTimestamp: startTimestamp,
		ValidityTerm:   validityTerm,
		Status:         StatusPending,
		CreatedAt:      s.now().UTC(),
	}
	s.contracts[id] = c
	p.ContractIDs = append(p.ContractIDs, id)
	s.tenantIDs[tenantID] = append(s.tenantIDs[tenantID], id)
	return *c, nil
}

// AcceptContract confirms a pending contract. Owner only. The expiry is
// derived here and only here; the property leaves the listed set and both
// current-contract references are set.
func (s *InMemory) AcceptContract(ctx context.Context, caller string, propertyID, contractID uint64) (RentContract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.properties[propertyID]
	if !ok {
		return RentContract{}, ErrNotFound
	}
	c, ok := s.contracts[contractID]
	if !ok {
		return RentContract{}, ErrNotFound
	}
	if p.Owner != caller {
		return RentContract{}, ErrUnauthorized
	}
	if c.PropertyID != propertyID || c.Status != StatusPending || p.Rented {
		return RentContract{}, ErrInvalidState
	}
	// The validity window is evaluated lazily, at the moment of the call.
	if c.ValidityTerm > 0 && s.now().Unix() > c.ValidityTerm {
		return RentContract{}, ErrInvalidState
	}

	c.Status = StatusConfirmed
	c.ExpiryTimestamp = c.StartTimestamp + c.RentalTerm
	id := c.ID
	p.AcceptedContracts++
	p.CurrentContractID = &id
	p.Rented = true
	p.Listed = false
	delete(s.listed, propertyID)
	p.RentHistory = append(p.RentHistory, id)
	s.tenantHistory[c.TenantID] = append(s.tenantHistory[c.TenantID], id)
	s.tenantCurrent[c.TenantID] = id
	return *c, nil
}

// TerminateContract ends a confirmed contract. Either party may call it.
// The property is not re-listed automatically; that is an explicit owner
// action.
func (s *InMemory) TerminateContract(ctx context.Context, caller string, propertyID, contractID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.properties[propertyID]
	if !ok {
		return ErrNotFound
	}
	c, ok := s.contracts[contractID]
	if !ok {
		return ErrNotFound
	}
	if c.PropertyID != propertyID {
		return ErrInvalidState
	}
	if caller != p.Owner && caller != s.tenantOwnerLocked(c.TenantID) {
		return ErrUnauthorized
	}
	if c.Status != StatusConfirmed {
		return ErrInvalidState
	}

	c.Status = StatusTerminated
	p.Rented = false
	p.CurrentContractID = nil
	if cur, ok := s.tenantCurrent[c.TenantID]; ok && cur == contractID {
		delete(s.tenantCurrent, c.TenantID)
	}
	return nil
}

// CancelContract withdraws a pending proposal. Proposing tenant only.
func (s *InMemory) CancelContract(ctx context.Context, caller string, contractID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contracts[contractID]
	if !ok {
		return ErrNotFound
	}
	if caller == "" || caller != s.tenantOwnerLocked(c.TenantID) {
		return ErrUnauthorized
	}
	if c.Status != StatusPending {
		return ErrInvalidState
	}
	c.Status = StatusCancelled
	return nil
}

func (s *InMemory) GetContract(ctx context.Context, id uint64) (RentContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contracts[id]
	if !ok {
		return RentContract{}, ErrNotFound
	}
	return *c, nil
}

func (s *InMemory) PropertyContractIDs(ctx context.Context, propertyID uint64) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[propertyID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]uint64(nil), p.ContractIDs...), nil
}

func (s *InMemory) TenantContractIDs(ctx context.Context, tenantID uint64) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.identities[tenantID]; !ok {
		return nil, ErrNotFound
	}
	return append([]uint64(nil), s.tenantIDs[tenantID]...), nil
}

// TenantCurrentContractID reports the tenant's confirmed contract, if any.
func (s *InMemory) TenantCurrentContractID(ctx context.Context, tenantID uint64) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.identities[tenantID]; !ok {
		return 0, false, ErrNotFound
	}
	id, ok := s.tenantCurrent[tenantID]
	return id, ok, nil
}

func (s *InMemory) TenantRentHistory(ctx context.Context, tenantID uint64) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.identities[tenantID]; !ok {
		return nil, ErrNotFound
	}
	return append([]uint64(nil), s.tenantHistory[tenantID]...), nil
}

func (s *InMemory) ContractCount(ctx context.Context) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextContract
}

// tenantOwnerLocked resolves the holder of a tenant credential. Empty for
// burned or unknown ids. Callers must hold s.mu.
func (s *InMemory) tenantOwnerLocked(tenantID uint64) string {
	ident, ok := s.identities[tenantID]
	if !ok {
		return ""
	}
	return ident.Owner
}
