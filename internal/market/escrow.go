package market

import (
	"context"
	"fmt"
)

// PayDeposit escrows a security deposit against a confirmed contract. A
// deposit already held cannot be topped up; underpayment is rejected with
// no partial credit.
func (s *InMemory) PayDeposit(ctx context.Context, caller string, propertyID, contractID uint64, amount int64) (Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.confirmedContractLocked(propertyID, contractID)
	if err != nil {
		return Payment{}, err
	}
	if amount < c.DepositAmount {
		return Payment{}, ErrInsufficientAmount
	}
	if s.deposits[contractID] > 0 {
		return Payment{}, ErrInvalidState
	}
	pay := s.recordPaymentLocked(PaymentDeposit, contractID, amount)
	s.deposits[contractID] += amount
	return pay, nil
}

// PayRent records a rent payment and credits the property's withdrawable
// proceeds.
func (s *InMemory) PayRent(ctx context.Context, caller string, propertyID, contractID uint64, amount int64) (Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.confirmedContractLocked(propertyID, contractID)
	if err != nil {
		return Payment{}, err
	}
	if amount < c.RentalPrice {
		return Payment{}, ErrInsufficientAmount
	}
	pay := s.recordPaymentLocked(PaymentRent, contractID, amount)
	s.paidRent[contractID] += amount
	s.proceeds[propertyID] += amount
	return pay, nil
}

// WithdrawProceeds pays accumulated rent out to the property owner. The
// accumulator is zeroed before the outbound transfer; if the transfer then
// fails the zeroed state stands and the failure is surfaced to the caller.
func (s *InMemory) WithdrawProceeds(ctx context.Context, caller string, propertyID uint64) (int64, error) {
	s.mu.Lock()
	p, ok := s.properties[propertyID]
	if !ok {
		s.mu.Unlock()
		return 0, ErrNotFound
	}
	if p.Owner != caller {
		s.mu.Unlock()
		return 0, ErrUnauthorized
	}
	amount := s.proceeds[propertyID]
	if amount <= 0 {
		s.mu.Unlock()
		return 0, ErrInvalidState
	}
	s.proceeds[propertyID] = 0
	s.mu.Unlock()

	if err := s.bank.Payout(ctx, caller, amount); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return amount, nil
}

// GrantDepositRelease sets the owner's one-way release permission for the
// contract's deposit. Idempotent.
func (s *InMemory) GrantDepositRelease(ctx context.Context, caller string, contractID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contracts[contractID]
	if !ok {
		return ErrNotFound
	}
	p, ok := s.properties[c.PropertyID]
	if !ok {
		return ErrNotFound
	}
	if p.Owner != caller {
		return ErrUnauthorized
	}
	s.releaseGranted[contractID] = true
	return nil
}

// ReleaseDeposit returns the held deposit to the tenant. Requires both the
// owner's grant and a terminated (or expired) contract. The balance is
// zeroed before the transfer so a re-entering caller observes zero and
// fails the InvalidState check.
func (s *InMemory) ReleaseDeposit(ctx context.Context, caller string, contractID uint64) (int64, error) {
	s.mu.Lock()
	c, ok := s.contracts[contractID]
	if !ok {
		s.mu.Unlock()
		return 0, ErrNotFound
	}
	if caller == "" || caller != s.tenantOwnerLocked(c.TenantID) {
		s.mu.Unlock()
		return 0, ErrUnauthorized
	}
	if !s.releaseGranted[contractID] {
		s.mu.Unlock()
		return 0, ErrInvalidState
	}
	expired := c.ExpiryTimestamp > 0 && s.now().Unix() > c.ExpiryTimestamp
	if c.Status != StatusTerminated && !expired {
		s.mu.Unlock()
		return 0, ErrInvalidState
	}
	amount := s.deposits[contractID]
	if amount <= 0 {
		s.mu.Unlock()
		return 0, ErrInvalidState
	}
	s.deposits[contractID] = 0
	s.mu.Unlock()

	if err := s.bank.Payout(ctx, caller, amount); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return amount, nil
}

// CreateDispute appends a grievance to a confirmed contract. Only the two
// contract parties may raise one. Dispute ids are scoped per contract and
// start at 0.
func (s *InMemory) CreateDispute(ctx context.Context, caller string, contractID uint64, description string) (Dispute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contracts[contractID]
	if !ok {
		return Dispute{}, ErrNotFound
	}
	if c.Status != StatusConfirmed {
		return Dispute{}, ErrInvalidState
	}
	p, ok := s.properties[c.PropertyID]
	if !ok {
		return Dispute{}, ErrNotFound
	}
	if caller != p.Owner && caller != s.tenantOwnerLocked(c.TenantID) {
		return Dispute{}, ErrUnauthorized
	}
	d := Dispute{
		ID:          uint64(len(s.disputes[contractID])),
		ContractID:  contractID,
		Description: description,
		RaisedBy:    caller,
		Open:        true,
		CreatedAt:   s.now().UTC(),
	}
	s.disputes[contractID] = append(s.disputes[contractID], d)
	return d, nil
}

func (s *InMemory) GetPayment(ctx context.Context, id uint64) (Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id >= uint64(len(s.payments)) {
		return Payment{}, ErrNotFound
	}
	return s.payments[id], nil
}

// ContractPayments returns the contract's payment history in order of
// payment.
func (s *InMemory) ContractPayments(ctx context.Context, contractID uint64) ([]Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.contracts[contractID]; !ok {
		return nil, ErrNotFound
	}
	ids := s.contractPayments[contractID]
	out := make([]Payment, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.payments[id])
	}
	return out, nil
}

func (s *InMemory) ContractDisputes(ctx context.Context, contractID uint64) ([]Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.contracts[contractID]; !ok {
		return nil, ErrNotFound
	}
	return append([]Dispute(nil), s.disputes[contractID]...), nil
}

func (s *InMemory) Deposit(ctx context.Context, contractID uint64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.contracts[contractID]; !ok {
		return 0, ErrNotFound
	}
	return s.deposits[contractID], nil
}

func (s *InMemory) PaidRent(ctx context.Context, contractID uint64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.contracts[contractID]; !ok {
		return 0, ErrNotFound
	}
	return s.paidRent[contractID], nil
}

func (s *InMemory) PropertyBalance(ctx context.Context, propertyID uint64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.properties[propertyID]; !ok {
		return 0, ErrNotFound
	}
	return s.proceeds[propertyID], nil
}

func (s *InMemory) PaymentCount(ctx context.Context) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.payments))
}

// confirmedContractLocked gates the fund-moving operations: the contract
// must exist, belong to the property and be Confirmed. Callers hold s.mu.
func (s *InMemory) confirmedContractLocked(propertyID, contractID uint64) (*RentContract, error) {
	if _, ok := s.properties[propertyID]; !ok {
		return nil, ErrNotFound
	}
	c, ok := s.contracts[contractID]
	if !ok {
		return nil, ErrNotFound
	}
	if c.PropertyID != propertyID || c.Status != StatusConfirmed {
		return nil, ErrInvalidState
	}
	return c, nil
}

func (s *InMemory) recordPaymentLocked(kind PaymentKind, contractID uint64, amount int64) Payment {
	pay := Payment{
		ID:         uint64(len(s.payments)),
		Kind:       kind,
		ContractID: contractID,
		Amount:     amount,
		PaidAt:     s.now().UTC(),
	}
	s.payments = append(s.payments, pay)
	s.contractPayments[contractID] = append(s.contractPayments[contractID], pay.ID)
	return pay
}
