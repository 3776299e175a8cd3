// Package assignment picks antiquarians for listings and moves a departing
// antiquarian's open reviews to a replacement.
package assignment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"

	"anticair-backend/internal/application/directory"
	"anticair-backend/internal/application/emails"
	"anticair-backend/internal/application/listings"
	"anticair-backend/internal/domain"
)

// Service draws validators uniformly from the antiquarian group. Rand is
// injectable so tests can force a draw.
type Service struct {
	Dir      directory.Directory
	Listings *listings.Service
	Mail     emails.Sender
	Group    string
	Rand     func(n int) int
}

var _ listings.ValidatorPicker = (*Service)(nil)

func (s *Service) intn(n int) int {
	if s.Rand != nil {
		return s.Rand(n)
	}
	return rand.Intn(n)
}

// candidates returns the enabled antiquarians minus the excluded emails.
func (s *Service) candidates(ctx context.Context, exclude ...string) ([]domain.Account, error) {
	members, err := s.Dir.ListByGroup(ctx, s.Group)
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[e] = true
	}
	var out []domain.Account
	for _, m := range members {
		if m.Enabled && !excluded[m.Email] {
			out = append(out, m)
		}
	}
	return out, nil
}

// PickValidator draws one enabled antiquarian uniformly, never one of the
// excluded emails.
func (s *Service) PickValidator(ctx context.Context, exclude ...string) (*domain.Account, error) {
	pool, err := s.candidates(ctx, exclude...)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, domain.ErrNoValidatorAvailable
	}
	picked := pool[s.intn(len(pool))]
	return &picked, nil
}

// Redistribute hands every open review of the departing antiquarian to one
// replacement. The replacement is drawn once for the whole batch and must not
// be the departing antiquarian nor the seller of any listing in the batch.
// Listings already reassigned stay reassigned when a later one fails; the
// error then lists the ids still held by the departing antiquarian.
func (s *Service) Redistribute(ctx context.Context, departing string) error {
	if departing == "" {
		return domain.ErrMissingFields
	}
	open, err := s.Listings.OpenByValidator(ctx, departing)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return nil
	}

	exclude := []string{departing}
	for _, l := range open {
		exclude = append(exclude, l.SellerEmail)
	}
	pool, err := s.candidates(ctx, exclude...)
	if err != nil {
		return err
	}
	if len(pool) == 0 {
		return domain.ErrNoReplacementValidator
	}
	replacement := pool[s.intn(len(pool))]

	var failed []uint
	for i := range open {
		if err := s.Listings.ChangeValidator(ctx, &open[i], replacement.Email); err != nil {
			log.Error().Err(err).Uint("listing_id", open[i].ID).
				Str("replacement", replacement.Email).Msg("validator change failed")
			failed = append(failed, open[i].ID)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("redistribution from %s incomplete, listings %v not reassigned", departing, failed)
	}

	if s.Mail != nil {
		if err := s.Mail.Send(ctx, departing, emails.KindRedistributionDeparting, emails.Payload{}); err != nil {
			log.Warn().Err(err).Str("receiver", departing).Msg("notification failed")
		}
	}
	return nil
}
