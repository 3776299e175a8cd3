// Package accounts implements the administrative account workflows. Whenever
// an antiquarian leaves active duty, their open reviews are redistributed
// first; the account change is aborted if redistribution fails.
package accounts

import (
	"context"

	"github.com/rs/zerolog/log"

	"anticair-backend/internal/application/assignment"
	"anticair-backend/internal/application/directory"
	"anticair-backend/internal/application/emails"
	"anticair-backend/internal/domain"
)

// Service wires account status changes to redistribution and notifications.
type Service struct {
	Dir              *directory.Service
	Assign           *assignment.Service
	Mail             emails.Sender
	AdminGroup       string
	AntiquarianGroup string
}

func (s *Service) inGroup(ctx context.Context, email, group string) (bool, error) {
	groups, err := s.Dir.GroupsOf(ctx, email)
	if err != nil {
		return false, err
	}
	for _, g := range groups {
		if g == group {
			return true, nil
		}
	}
	return false, nil
}

// DisableUser deactivates the account. Admins cannot be disabled; an
// antiquarian's open reviews must be fully redistributed first.
func (s *Service) DisableUser(ctx context.Context, email string) error {
	if _, err := s.Dir.FindByEmail(ctx, email); err != nil {
		return err
	}
	isAdmin, err := s.inGroup(ctx, email, s.AdminGroup)
	if err != nil {
		return err
	}
	if isAdmin {
		return domain.ErrCannotDisableAdmin
	}
	isAntiquarian, err := s.inGroup(ctx, email, s.AntiquarianGroup)
	if err != nil {
		return err
	}
	if isAntiquarian {
		if err := s.Assign.Redistribute(ctx, email); err != nil {
			return err
		}
	}
	if err := s.Dir.SetEnabled(ctx, email, false); err != nil {
		return err
	}
	s.notifyStatus(ctx, email, "disabled")
	return nil
}

// EnableUser reactivates the account.
func (s *Service) EnableUser(ctx context.Context, email string) error {
	if err := s.Dir.SetEnabled(ctx, email, true); err != nil {
		return err
	}
	s.notifyStatus(ctx, email, "enabled")
	return nil
}

// AddToGroup grants group membership.
func (s *Service) AddToGroup(ctx context.Context, email, group string) error {
	return s.Dir.JoinGroup(ctx, email, group)
}

// RemoveFromGroup revokes group membership. Leaving the antiquarian group
// requires the member's open reviews to be redistributed first.
func (s *Service) RemoveFromGroup(ctx context.Context, email, group string) error {
	if group == s.AntiquarianGroup {
		if err := s.Assign.Redistribute(ctx, email); err != nil {
			return err
		}
	}
	return s.Dir.LeaveGroup(ctx, email, group)
}

// Anonymize scrubs the account's personal data and disables it. An
// antiquarian's open reviews are redistributed before the scrub so no
// listing points at an anonymized reviewer.
func (s *Service) Anonymize(ctx context.Context, email string) (*domain.Account, error) {
	isAntiquarian, err := s.inGroup(ctx, email, s.AntiquarianGroup)
	if err != nil {
		return nil, err
	}
	if isAntiquarian {
		if err := s.Assign.Redistribute(ctx, email); err != nil {
			return nil, err
		}
	}
	if s.Mail != nil {
		if err := s.Mail.Send(ctx, email, emails.KindDataDeleted, emails.Payload{}); err != nil {
			log.Warn().Err(err).Str("receiver", email).Msg("notification failed")
		}
	}
	return s.Dir.Anonymize(ctx, email)
}

// notifyStatus reports the new account status, best effort.
func (s *Service) notifyStatus(ctx context.Context, email, status string) {
	if s.Mail == nil {
		return
	}
	err := s.Mail.Send(ctx, email, emails.KindAccountStatus, emails.Payload{"account_newstatus": status})
	if err != nil {
		log.Warn().Err(err).Str("receiver", email).Msg("notification failed")
	}
}
