package listings

import (
	"context"
	"testing"

	"anticair-backend/internal/application/directory"
	"anticair-backend/internal/application/emails"
	"anticair-backend/internal/domain"
	"anticair-backend/internal/pricing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sentMail struct {
	Receiver string
	Kind     emails.Kind
	Payload  emails.Payload
}

type fakeSender struct {
	sent []sentMail
}

func (f *fakeSender) Send(_ context.Context, receiver string, kind emails.Kind, payload emails.Payload) error {
	f.sent = append(f.sent, sentMail{Receiver: receiver, Kind: kind, Payload: payload})
	return nil
}

type fixedPicker struct {
	email string
}

func (p fixedPicker) PickValidator(_ context.Context, _ ...string) (*domain.Account, error) {
	return &domain.Account{Email: p.email}, nil
}

func setupListings(t *testing.T) (*Service, *fakeSender) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Listing{}, &domain.Photo{},
		&domain.Account{}, &domain.Group{}, &domain.GroupMembership{},
	))
	dir := &directory.Service{DB: db}
	for _, email := range []string{"seller@anticair.be", "anti1@anticair.be", "anti2@anticair.be"} {
		_, err := dir.CreateAccount(context.Background(), directory.CreateAccountInput{Email: email, Password: "pw"})
		require.NoError(t, err)
	}
	mail := &fakeSender{}
	svc := &Service{
		DB:      db,
		Dir:     dir,
		Mail:    mail,
		Pricing: pricing.New(0.20),
		Picker:  fixedPicker{email: "anti1@anticair.be"},
	}
	return svc, mail
}

func createListing(t *testing.T, s *Service, price float64) *domain.Listing {
	l, err := s.Create(context.Background(), CreateInput{
		SellerEmail: "seller@anticair.be",
		Title:       "Louis XV chair",
		Description: "Walnut, carved back, circa 1760",
		Price:       price,
		Photos:      []string{"chair-front.jpg", "chair-back.jpg"},
	})
	require.NoError(t, err)
	require.NotNil(t, l)
	return l
}

func notes() RejectionNotes {
	return RejectionNotes{Title: "ok", Description: "too vague", Price: "too high", Photo: "blurry"}
}

func TestCreate_Validation(t *testing.T) {
	s, _ := setupListings(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateInput{SellerEmail: "seller@anticair.be", Title: "t", Description: "d", Price: -1})
	assert.ErrorIs(t, err, domain.ErrNegativePrice)

	_, err = s.Create(ctx, CreateInput{SellerEmail: "seller@anticair.be", Title: "", Description: "d", Price: 10})
	assert.ErrorIs(t, err, domain.ErrMissingFields)

	_, err = s.Create(ctx, CreateInput{SellerEmail: "ghost@anticair.be", Title: "t", Description: "d", Price: 10})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestCreate_AssignsValidatorAndNotifies(t *testing.T) {
	s, mail := setupListings(t)
	l := createListing(t, s, 100)

	assert.Equal(t, domain.StateNeedsReview, l.State)
	assert.Equal(t, "anti1@anticair.be", l.AntiquarianEmail)
	assert.True(t, l.IsDisplay)

	got, err := s.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"chair-front.jpg", "chair-back.jpg"}, got.Photos)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "anti1@anticair.be", mail.sent[0].Receiver)
	assert.Equal(t, emails.KindNewListing, mail.sent[0].Kind)
}

func TestAccept_AppliesCommissionOnce(t *testing.T) {
	s, mail := setupListings(t)
	ctx := context.Background()
	l := createListing(t, s, 100)

	accepted, err := s.Accept(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, accepted)
	assert.Equal(t, domain.StateAccepted, accepted.State)
	assert.Equal(t, 120.0, accepted.Price)

	// seller gets the validation mail plus the commission confirmation
	var kinds []emails.Kind
	for _, m := range mail.sent[1:] {
		assert.Equal(t, "seller@anticair.be", m.Receiver)
		kinds = append(kinds, m.Kind)
	}
	assert.Contains(t, kinds, emails.KindListingValidated)
	assert.Contains(t, kinds, emails.KindCommissionApplied)

	// accepted is no longer reviewable, a second accept is a silent no-op
	again, err := s.Accept(ctx, l.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestAccept_ModifiedListingKeepsPrice(t *testing.T) {
	s, _ := setupListings(t)
	ctx := context.Background()
	l := createListing(t, s, 100)

	_, err := s.Accept(ctx, l.ID)
	require.NoError(t, err)
	_, err = s.Edit(ctx, l.ID, UpdateInput{Description: "Walnut, restored in 1990"})
	require.NoError(t, err)

	accepted, err := s.Accept(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, accepted)
	assert.Equal(t, domain.StateAccepted, accepted.State)
	assert.Equal(t, 120.0, accepted.Price)
}

func TestAccept_UnknownListing(t *testing.T) {
	s, _ := setupListings(t)
	got, err := s.Accept(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReject_RequiresCompleteNotes(t *testing.T) {
	s, _ := setupListings(t)
	l := createListing(t, s, 100)

	got, err := s.Reject(context.Background(), l.ID, RejectionNotes{Title: "only title"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReject_FromNeedsReview(t *testing.T) {
	s, mail := setupListings(t)
	l := createListing(t, s, 100)

	rejected, err := s.Reject(context.Background(), l.ID, notes())
	require.NoError(t, err)
	require.NotNil(t, rejected)
	assert.Equal(t, domain.StateRejected, rejected.State)
	assert.Equal(t, "blurry", rejected.NotePhoto)

	last := mail.sent[len(mail.sent)-1]
	assert.Equal(t, "seller@anticair.be", last.Receiver)
	assert.Equal(t, emails.KindListingRejected, last.Kind)
	assert.Equal(t, "too vague", last.Payload["note_description"])
}

func TestReject_ModifiedListingKeepsState(t *testing.T) {
	s, _ := setupListings(t)
	ctx := context.Background()
	l := createListing(t, s, 100)

	_, err := s.Accept(ctx, l.ID)
	require.NoError(t, err)
	_, err = s.Edit(ctx, l.ID, UpdateInput{Title: "Louis XVI chair"})
	require.NoError(t, err)

	rejected, err := s.Reject(ctx, l.ID, notes())
	require.NoError(t, err)
	require.NotNil(t, rejected)
	// the previously validated version stays on sale
	assert.Equal(t, domain.StateAcceptedButModified, rejected.State)
	assert.Equal(t, "too high", rejected.NotePrice)
}

func TestEdit_RejectedGoesBackToReview(t *testing.T) {
	s, mail := setupListings(t)
	ctx := context.Background()
	l := createListing(t, s, 100)
	_, err := s.Reject(ctx, l.ID, notes())
	require.NoError(t, err)

	edited, err := s.Edit(ctx, l.ID, UpdateInput{Title: "Louis XV armchair", Price: 90})
	require.NoError(t, err)
	assert.Equal(t, domain.StateNeedsReview, edited.State)
	assert.Equal(t, "Louis XV armchair", edited.Title)
	assert.Equal(t, 90.0, edited.Price)

	last := mail.sent[len(mail.sent)-1]
	assert.Equal(t, "anti1@anticair.be", last.Receiver)
	assert.Equal(t, emails.KindNewListing, last.Kind)
}

func TestEdit_SoldIsNoop(t *testing.T) {
	s, _ := setupListings(t)
	ctx := context.Background()
	l := createListing(t, s, 100)
	_, err := s.MarkSold(ctx, l.ID)
	require.NoError(t, err)

	edited, err := s.Edit(ctx, l.ID, UpdateInput{Title: "changed"})
	require.NoError(t, err)
	require.NotNil(t, edited)
	assert.Equal(t, domain.StateSold, edited.State)
	assert.Equal(t, "Louis XV chair", edited.Title)
}

func TestEdit_ReplacesPhotos(t *testing.T) {
	s, _ := setupListings(t)
	ctx := context.Background()
	l := createListing(t, s, 100)

	_, err := s.Edit(ctx, l.ID, UpdateInput{Photos: []string{"new-1.jpg"}})
	require.NoError(t, err)

	got, err := s.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"new-1.jpg"}, got.Photos)
}

func TestHide(t *testing.T) {
	s, _ := setupListings(t)
	ctx := context.Background()
	l := createListing(t, s, 100)

	hidden, err := s.Hide(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, hidden)
	assert.False(t, hidden.IsDisplay)

	_, err = s.MarkSold(ctx, l.ID)
	require.NoError(t, err)
	got, err := s.Hide(ctx, l.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestChangeValidator(t *testing.T) {
	s, mail := setupListings(t)
	ctx := context.Background()
	l := createListing(t, s, 100)

	err := s.ChangeValidator(ctx, l, "seller@anticair.be")
	assert.ErrorIs(t, err, domain.ErrSelfValidation)

	require.NoError(t, s.Dir.SetEnabled(ctx, "anti2@anticair.be", false))
	err = s.ChangeValidator(ctx, l, "anti2@anticair.be")
	assert.ErrorIs(t, err, domain.ErrNoReplacementValidator)

	require.NoError(t, s.Dir.SetEnabled(ctx, "anti2@anticair.be", true))
	require.NoError(t, s.ChangeValidator(ctx, l, "anti2@anticair.be"))
	assert.Equal(t, "anti2@anticair.be", l.AntiquarianEmail)

	last := mail.sent[len(mail.sent)-1]
	assert.Equal(t, "anti2@anticair.be", last.Receiver)
	assert.Equal(t, emails.KindRedistributionNew, last.Kind)
}

func TestQueries(t *testing.T) {
	s, _ := setupListings(t)
	ctx := context.Background()

	_, err := s.All(ctx)
	assert.ErrorIs(t, err, domain.ErrNoListings)
	_, err = s.Accepted(ctx)
	assert.ErrorIs(t, err, domain.ErrNoListings)

	a := createListing(t, s, 100)
	b := createListing(t, s, 50)
	_, err = s.Accept(ctx, a.ID)
	require.NoError(t, err)

	accepted, err := s.Accepted(ctx)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, a.ID, accepted[0].ID)

	// hidden listings drop out of the public view
	_, err = s.Hide(ctx, a.ID)
	require.NoError(t, err)
	_, err = s.Accepted(ctx)
	assert.ErrorIs(t, err, domain.ErrNoListings)

	open, err := s.OpenByValidator(ctx, "anti1@anticair.be")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, b.ID, open[0].ID)

	mine, err := s.BySeller(ctx, "seller@anticair.be")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetByID_NotFound(t *testing.T) {
	s, _ := setupListings(t)
	_, err := s.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}
