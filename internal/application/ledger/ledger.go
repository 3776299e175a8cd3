// Package ledger tracks per-account balances. The directory stores the
// balance as a decimal-formatted attribute string; callers only ever see
// float64 amounts.
package ledger

import (
	"context"
	"strconv"

	"anticair-backend/internal/application/directory"
	"anticair-backend/internal/domain"
	"anticair-backend/internal/pricing"
)

const balanceKey = "balance"

// Service reads and credits balances through the directory attribute bag.
type Service struct {
	Dir directory.Directory
}

// Get returns the account balance; a missing attribute reads as 0.
func (s *Service) Get(ctx context.Context, email string) (float64, error) {
	raw, err := s.Dir.GetAttribute(ctx, email, balanceKey)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.ErrInvalidBalance
	}
	return v, nil
}

// AddTo credits the account by amount. Amounts must be non-negative; the
// ledger only accumulates payouts, it never debits.
func (s *Service) AddTo(ctx context.Context, email string, amount float64) error {
	if amount < 0 {
		return domain.ErrInvalidAmount
	}
	current, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	return s.Dir.SetAttribute(ctx, email, balanceKey, pricing.FormatAmount(current+amount))
}
