// Package settlement turns an approved payment into a sold listing: capture,
// invoice, commission split, ledger credits, terminal state. The invoice
// correlation id makes the whole settlement idempotent per listing.
package settlement

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"anticair-backend/internal/application/emails"
	"anticair-backend/internal/application/ledger"
	"anticair-backend/internal/application/listings"
	"anticair-backend/internal/domain"
	"anticair-backend/internal/infrastructure/paypal"
	"anticair-backend/internal/pricing"
)

// Service orchestrates checkout and settlement against the payment gateway.
type Service struct {
	Listings   *listings.Service
	Ledger     *ledger.Service
	Gateway    paypal.Gateway
	Mail       emails.Sender
	Pricing    pricing.Calculator
	Locks      listings.Locker
	Currency   string
	SuccessURL string
	CancelURL  string
}

// CorrelationID ties a charge and its invoice back to one listing.
func CorrelationID(listingID uint) string {
	return fmt.Sprintf("Antiquity-%d", listingID)
}

// ParseCorrelationID recovers the listing id from a correlation id.
func ParseCorrelationID(s string) (uint, error) {
	var id uint
	if _, err := fmt.Sscanf(s, "Antiquity-%d", &id); err != nil || id == 0 {
		return 0, fmt.Errorf("invalid correlation id %q", s)
	}
	return id, nil
}

// Checkout creates the payment for a listing and returns the URL the buyer
// must visit to approve it.
func (s *Service) Checkout(ctx context.Context, listingID uint) (string, error) {
	listing, err := s.Listings.GetByID(ctx, listingID)
	if err != nil {
		return "", err
	}
	if listing.State == domain.StateSold {
		return "", domain.ErrAlreadySold
	}
	charge, err := s.Gateway.CreateCharge(ctx, paypal.CreateChargeInput{
		Total:       listing.Price,
		Currency:    s.Currency,
		Description: listing.Title,
		SuccessURL:  s.SuccessURL,
		CancelURL:   s.CancelURL,
		Custom:      CorrelationID(listingID),
	})
	if err != nil {
		return "", err
	}
	return charge.ApprovalURL, nil
}

// ExecutePayment captures an approved charge and settles the listing named
// by the charge's correlation id.
func (s *Service) ExecutePayment(ctx context.Context, paymentID, payerID string) (*domain.Listing, error) {
	charge, err := s.Gateway.CaptureCharge(ctx, paymentID, payerID)
	if err != nil {
		return nil, err
	}
	if !charge.Approved {
		return nil, domain.ErrPaymentNotApproved
	}
	listingID, err := ParseCorrelationID(charge.Custom)
	if err != nil {
		return nil, err
	}
	return s.Settle(ctx, listingID, charge.Payer)
}

// Settle invoices the buyer, splits the price between antiquarian and seller
// and marks the listing sold. Re-settling a sold listing is a no-op; an
// already existing invoice skips invoicing and crediting so the split is
// applied at most once.
func (s *Service) Settle(ctx context.Context, listingID uint, payer paypal.Payer) (*domain.Listing, error) {
	unlock, err := s.lock(ctx, listingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	listing, err := s.Listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.State == domain.StateSold {
		return &listing.Listing, nil
	}

	note := CorrelationID(listingID)
	existing, err := s.Gateway.FindInvoice(ctx, note)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		invoice, err := s.Gateway.CreateInvoice(ctx, paypal.CreateInvoiceInput{
			ItemName: listing.Title,
			Price:    listing.Price,
			Currency: s.Currency,
			Quantity: 1,
			Note:     note,
			Billing:  payer,
		})
		if err != nil {
			return nil, err
		}
		if err := s.Gateway.SendInvoice(ctx, invoice.ID); err != nil {
			return nil, err
		}
		if err := s.Gateway.MarkInvoicePaid(ctx, invoice.ID, listing.Price, s.Currency); err != nil {
			return nil, err
		}
		if err := s.credit(ctx, &listing.Listing); err != nil {
			return nil, err
		}
	}
	return s.Listings.MarkSold(ctx, listingID)
}

// credit splits the sale price: the antiquarian gets the commission share,
// the seller the pre-commission base. A failure after the first credit is
// surfaced as a partial credit so the caller can retry the seller's share.
func (s *Service) credit(ctx context.Context, listing *domain.Listing) error {
	portion := s.Pricing.Portion(listing.Price)
	base := s.Pricing.Base(listing.Price)

	if err := s.Ledger.AddTo(ctx, listing.AntiquarianEmail, portion); err != nil {
		return err
	}
	if err := s.Ledger.AddTo(ctx, listing.SellerEmail, base); err != nil {
		return fmt.Errorf("%w: seller %s not credited: %v", domain.ErrPartialCredit, listing.SellerEmail, err)
	}
	if s.Mail != nil {
		payload := emails.Payload{
			"title":       listing.Title,
			"description": listing.Description,
			"price":       pricing.FormatAmount(listing.Price),
		}
		if err := s.Mail.Send(ctx, listing.AntiquarianEmail, emails.KindCommissionPaid, payload); err != nil {
			log.Warn().Err(err).Str("receiver", listing.AntiquarianEmail).Msg("notification failed")
		}
	}
	return nil
}

func (s *Service) lock(ctx context.Context, id uint) (func(), error) {
	if s.Locks == nil {
		return func() {}, nil
	}
	release, err := s.Locks.Acquire(ctx, fmt.Sprintf("listing:%d", id))
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(); err != nil {
			log.Warn().Err(err).Uint("listing_id", id).Msg("lock release failed")
		}
	}, nil
}
