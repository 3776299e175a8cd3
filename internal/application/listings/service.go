// Package listings implements the antique listing lifecycle: creation,
// antiquarian review, edits, visibility, and validator changes. All state
// transitions on a listing are serialized through a per-listing lock.
package listings

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"anticair-backend/internal/application/directory"
	"anticair-backend/internal/application/emails"
	"anticair-backend/internal/domain"
	"anticair-backend/internal/pricing"
)

// ValidatorPicker selects an antiquarian for a listing. The excluded emails
// are never returned; a seller cannot review their own antiquity.
type ValidatorPicker interface {
	PickValidator(ctx context.Context, exclude ...string) (*domain.Account, error)
}

// Locker serializes work on a key. Acquire blocks until the key is free.
type Locker interface {
	Acquire(ctx context.Context, key string) (func() error, error)
}

// Service drives the listing lifecycle. Picker is wired after construction
// because the assignment service also depends on listings queries.
type Service struct {
	DB      *gorm.DB
	Dir     directory.Directory
	Mail    emails.Sender
	Pricing pricing.Calculator
	Picker  ValidatorPicker
	Locks   Locker
}

// CreateInput is a seller's new listing submission.
type CreateInput struct {
	SellerEmail string   `json:"mail_seller"`
	Title       string   `json:"title_antiquity"`
	Description string   `json:"description_antiquity"`
	Price       float64  `json:"price_antiquity"`
	Photos      []string `json:"photos"`
}

// UpdateInput carries the editable listing fields. Empty strings and a zero
// price leave the stored value unchanged; nil Photos keeps the current set.
type UpdateInput struct {
	Title       string   `json:"title_antiquity"`
	Description string   `json:"description_antiquity"`
	Price       float64  `json:"price_antiquity"`
	Photos      []string `json:"photos"`
}

// RejectionNotes is the antiquarian's per-aspect review verdict. All four
// notes are required for a rejection to be actionable by the seller.
type RejectionNotes struct {
	Title       string `json:"note_title"`
	Description string `json:"note_description"`
	Price       string `json:"note_price"`
	Photo       string `json:"note_photo"`
}

func (n RejectionNotes) complete() bool {
	return n.Title != "" && n.Description != "" && n.Price != "" && n.Photo != ""
}

// Create validates the submission, assigns a random antiquarian and stores
// the listing awaiting review.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Listing, error) {
	if in.Price < 0 {
		return nil, domain.ErrNegativePrice
	}
	if in.Price == 0 || in.Title == "" || in.Description == "" || in.SellerEmail == "" {
		return nil, domain.ErrMissingFields
	}
	if _, err := s.Dir.FindByEmail(ctx, in.SellerEmail); err != nil {
		return nil, err
	}
	validator, err := s.Picker.PickValidator(ctx, in.SellerEmail)
	if err != nil {
		return nil, err
	}
	listing := &domain.Listing{
		Price:            in.Price,
		Title:            in.Title,
		Description:      in.Description,
		SellerEmail:      in.SellerEmail,
		AntiquarianEmail: validator.Email,
		State:            domain.StateNeedsReview,
		IsDisplay:        true,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(listing).Error; err != nil {
			return err
		}
		for _, path := range in.Photos {
			if err := tx.Create(&domain.Photo{ListingID: listing.ID, Path: path}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, validator.Email, emails.KindNewListing, payloadFor(listing))
	return listing, nil
}

// Accept validates the listing. The commission is applied exactly once, on
// the first acceptance out of needs-review; re-accepting a modified listing
// keeps the already-commissioned price. Returns (nil, nil) when the listing
// is missing or not in a reviewable state.
func (s *Service) Accept(ctx context.Context, id uint) (*domain.Listing, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil || !listing.State.Reviewable() {
		return nil, nil
	}
	initial := listing.State
	listing.State = domain.StateAccepted
	if initial == domain.StateNeedsReview {
		listing.Price = s.Pricing.Apply(listing.Price)
	}
	if err := s.DB.WithContext(ctx).Save(listing).Error; err != nil {
		return nil, err
	}
	s.notify(ctx, listing.SellerEmail, emails.KindListingValidated, payloadFor(listing))
	if initial == domain.StateNeedsReview {
		s.notify(ctx, listing.SellerEmail, emails.KindCommissionApplied, payloadFor(listing))
	}
	return listing, nil
}

// Reject refuses the listing with the antiquarian's notes. A needs-review
// listing becomes rejected; an accepted-but-modified one keeps its state so
// the previously validated version stays sellable. Returns (nil, nil) when
// the notes are incomplete or the listing is not reviewable.
func (s *Service) Reject(ctx context.Context, id uint, notes RejectionNotes) (*domain.Listing, error) {
	if !notes.complete() {
		return nil, nil
	}
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil || !listing.State.Reviewable() {
		return nil, nil
	}
	if listing.State == domain.StateNeedsReview {
		listing.State = domain.StateRejected
	}
	listing.NoteTitle = notes.Title
	listing.NoteDescription = notes.Description
	listing.NotePrice = notes.Price
	listing.NotePhoto = notes.Photo
	if err := s.DB.WithContext(ctx).Save(listing).Error; err != nil {
		return nil, err
	}
	payload := payloadFor(listing)
	payload["note_title"] = notes.Title
	payload["note_description"] = notes.Description
	payload["note_price"] = notes.Price
	payload["note_photo"] = notes.Photo
	s.notify(ctx, listing.SellerEmail, emails.KindListingRejected, payload)
	return listing, nil
}

// Edit updates a listing's content and moves it back into review when its
// current state requires a fresh verdict. A sold listing is returned as-is.
func (s *Service) Edit(ctx context.Context, id uint, in UpdateInput) (*domain.Listing, error) {
	if in.Price < 0 {
		return nil, domain.ErrNegativePrice
	}
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, domain.ErrListingNotFound
	}

	notifyValidator := false
	switch listing.State {
	case domain.StateRejected:
		listing.State = domain.StateNeedsReview
		notifyValidator = true
	case domain.StateAccepted:
		listing.State = domain.StateAcceptedButModified
		notifyValidator = true
	case domain.StateSold:
		return listing, nil
	}

	if in.Title != "" {
		listing.Title = in.Title
	}
	if in.Description != "" {
		listing.Description = in.Description
	}
	if in.Price > 0 {
		listing.Price = in.Price
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(listing).Error; err != nil {
			return err
		}
		if in.Photos != nil {
			return replacePhotos(tx, listing.ID, in.Photos)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if notifyValidator {
		s.notify(ctx, listing.AntiquarianEmail, emails.KindNewListing, payloadFor(listing))
	}
	return listing, nil
}

// Hide takes the listing off public display. Selling state is untouched;
// a sold listing cannot be hidden and returns (nil, nil).
func (s *Service) Hide(ctx context.Context, id uint) (*domain.Listing, error) {
	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, domain.ErrListingNotFound
	}
	if listing.State == domain.StateSold {
		return nil, nil
	}
	listing.IsDisplay = false
	if err := s.DB.WithContext(ctx).Save(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// MarkSold moves the listing into its terminal state and off display.
// Callers hold the per-listing lock.
func (s *Service) MarkSold(ctx context.Context, id uint) (*domain.Listing, error) {
	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, domain.ErrListingNotFound
	}
	listing.State = domain.StateSold
	listing.IsDisplay = false
	if err := s.DB.WithContext(ctx).Save(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// ChangeValidator reassigns the listing to another antiquarian. The new
// validator must exist, be enabled, and not be the seller.
func (s *Service) ChangeValidator(ctx context.Context, listing *domain.Listing, newEmail string) error {
	if listing == nil || newEmail == "" {
		return domain.ErrMissingFields
	}
	if newEmail == listing.SellerEmail {
		return domain.ErrSelfValidation
	}
	if _, err := s.Dir.FindByEmail(ctx, newEmail); err != nil {
		return err
	}
	enabled, err := s.Dir.IsEnabled(ctx, newEmail)
	if err != nil {
		return err
	}
	if !enabled {
		return domain.ErrNoReplacementValidator
	}
	listing.AntiquarianEmail = newEmail
	if err := s.DB.WithContext(ctx).Save(listing).Error; err != nil {
		return err
	}
	s.notify(ctx, newEmail, emails.KindRedistributionNew, payloadFor(listing))
	return nil
}

// GetByID returns the listing and its photo paths.
func (s *Service) GetByID(ctx context.Context, id uint) (*domain.ListingWithPhotos, error) {
	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, domain.ErrListingNotFound
	}
	var photos []domain.Photo
	if err := s.DB.WithContext(ctx).Where("listing_id = ?", id).Order("id").Find(&photos).Error; err != nil {
		return nil, err
	}
	out := &domain.ListingWithPhotos{Listing: *listing, Photos: make([]string, 0, len(photos))}
	for _, p := range photos {
		out.Photos = append(out.Photos, p.Path)
	}
	return out, nil
}

// All returns every listing regardless of state.
func (s *Service) All(ctx context.Context) ([]domain.Listing, error) {
	var out []domain.Listing
	if err := s.DB.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domain.ErrNoListings
	}
	return out, nil
}

// Accepted returns the listings buyers can see: validated and on display.
func (s *Service) Accepted(ctx context.Context) ([]domain.Listing, error) {
	var out []domain.Listing
	err := s.DB.WithContext(ctx).
		Where("state = ? AND is_display = ?", domain.StateAccepted, true).
		Order("id").Find(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domain.ErrNoListings
	}
	return out, nil
}

// OpenByValidator returns the listings still awaiting the antiquarian's
// verdict, the set a redistribution moves.
func (s *Service) OpenByValidator(ctx context.Context, email string) ([]domain.Listing, error) {
	var out []domain.Listing
	err := s.DB.WithContext(ctx).
		Where("antiquarian_email = ? AND state IN ?", email,
			[]domain.ListingState{domain.StateNeedsReview, domain.StateAcceptedButModified}).
		Order("id").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BySeller returns every listing the seller submitted.
func (s *Service) BySeller(ctx context.Context, email string) ([]domain.Listing, error) {
	var out []domain.Listing
	if err := s.DB.WithContext(ctx).Where("seller_email = ?", email).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) find(ctx context.Context, id uint) (*domain.Listing, error) {
	var listing domain.Listing
	err := s.DB.WithContext(ctx).First(&listing, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func replacePhotos(tx *gorm.DB, listingID uint, paths []string) error {
	if err := tx.Where("listing_id = ?", listingID).Delete(&domain.Photo{}).Error; err != nil {
		return err
	}
	for _, path := range paths {
		if err := tx.Create(&domain.Photo{ListingID: listingID, Path: path}).Error; err != nil {
			return err
		}
	}
	return nil
}

// lock acquires the per-listing mutex. A nil Locker degrades to no locking,
// which single-writer tests rely on.
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

// notify sends a workflow mail, logging failures without failing the
// transition. Mail delivery is best effort by contract.
func (s *Service) notify(ctx context.Context, receiver string, kind emails.Kind, payload emails.Payload) {
	if s.Mail == nil {
		return
	}
	if err := s.Mail.Send(ctx, receiver, kind, payload); err != nil {
		log.Warn().Err(err).Str("receiver", receiver).Str("subject", kind.Subject()).Msg("notification failed")
	}
}

func payloadFor(l *domain.Listing) emails.Payload {
	return emails.Payload{
		"title":       l.Title,
		"description": l.Description,
		"price":       pricing.FormatAmount(l.Price),
	}
}
