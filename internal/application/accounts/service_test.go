package accounts

import (
	"context"
	"testing"

	"anticair-backend/internal/application/assignment"
	"anticair-backend/internal/application/directory"
	"anticair-backend/internal/application/emails"
	"anticair-backend/internal/application/listings"
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

type env struct {
	svc      *Service
	dir      *directory.Service
	listings *listings.Service
	mail     *fakeSender
}

func setup(t *testing.T) *env {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Listing{}, &domain.Photo{},
		&domain.Account{}, &domain.Group{}, &domain.GroupMembership{},
	))
	for _, name := range []string{"Admin", "Antiquarian"} {
		require.NoError(t, db.Create(&domain.Group{Name: name}).Error)
	}
	dir := &directory.Service{DB: db}
	mail := &fakeSender{}
	ls := &listings.Service{DB: db, Dir: dir, Mail: mail, Pricing: pricing.New(0.20)}
	assign := &assignment.Service{
		Dir: dir, Listings: ls, Mail: mail, Group: "Antiquarian",
		Rand: func(int) int { return 0 },
	}
	ls.Picker = assign
	svc := &Service{
		Dir: dir, Assign: assign, Mail: mail,
		AdminGroup: "Admin", AntiquarianGroup: "Antiquarian",
	}
	return &env{svc: svc, dir: dir, listings: ls, mail: mail}
}

func (e *env) addAccount(t *testing.T, email string, groups ...string) {
	_, err := e.dir.CreateAccount(context.Background(), directory.CreateAccountInput{Email: email, Password: "pw"})
	require.NoError(t, err)
	for _, g := range groups {
		require.NoError(t, e.dir.JoinGroup(context.Background(), email, g))
	}
}

func (e *env) addListing(t *testing.T, seller string) *domain.Listing {
	l, err := e.listings.Create(context.Background(), listings.CreateInput{
		SellerEmail: seller, Title: "Vase", Description: "Delft vase", Price: 60,
	})
	require.NoError(t, err)
	return l
}

func TestDisableUser_AdminRefused(t *testing.T) {
	e := setup(t)
	e.addAccount(t, "admin@anticair.be", "Admin")

	err := e.svc.DisableUser(context.Background(), "admin@anticair.be")
	assert.ErrorIs(t, err, domain.ErrCannotDisableAdmin)

	enabled, err := e.dir.IsEnabled(context.Background(), "admin@anticair.be")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestDisableUser_UnknownAccount(t *testing.T) {
	e := setup(t)
	err := e.svc.DisableUser(context.Background(), "ghost@anticair.be")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestDisableUser_BlockedWithoutReplacement(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.addAccount(t, "seller@anticair.be")
	e.addAccount(t, "anti@anticair.be", "Antiquarian")
	e.addListing(t, "seller@anticair.be")

	err := e.svc.DisableUser(ctx, "anti@anticair.be")
	assert.ErrorIs(t, err, domain.ErrNoReplacementValidator)

	// the disable never happened
	enabled, err := e.dir.IsEnabled(ctx, "anti@anticair.be")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestDisableUser_RedistributesThenDisables(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.addAccount(t, "seller@anticair.be")
	e.addAccount(t, "anti1@anticair.be", "Antiquarian")
	e.addAccount(t, "anti2@anticair.be", "Antiquarian")
	l := e.addListing(t, "seller@anticair.be")
	require.Equal(t, "anti1@anticair.be", l.AntiquarianEmail)

	require.NoError(t, e.svc.DisableUser(ctx, "anti1@anticair.be"))

	enabled, err := e.dir.IsEnabled(ctx, "anti1@anticair.be")
	require.NoError(t, err)
	assert.False(t, enabled)

	open, err := e.listings.OpenByValidator(ctx, "anti2@anticair.be")
	require.NoError(t, err)
	assert.Len(t, open, 1)

	last := e.mail.sent[len(e.mail.sent)-1]
	assert.Equal(t, emails.KindAccountStatus, last.Kind)
	assert.Equal(t, "disabled", last.Payload["account_newstatus"])
}

func TestEnableUser(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.addAccount(t, "user@anticair.be")
	require.NoError(t, e.dir.SetEnabled(ctx, "user@anticair.be", false))

	require.NoError(t, e.svc.EnableUser(ctx, "user@anticair.be"))
	enabled, err := e.dir.IsEnabled(ctx, "user@anticair.be")
	require.NoError(t, err)
	assert.True(t, enabled)

	last := e.mail.sent[len(e.mail.sent)-1]
	assert.Equal(t, emails.KindAccountStatus, last.Kind)
	assert.Equal(t, "enabled", last.Payload["account_newstatus"])
}

func TestRemoveFromGroup_AntiquarianRequiresRedistribution(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.addAccount(t, "seller@anticair.be")
	e.addAccount(t, "anti@anticair.be", "Antiquarian")
	e.addListing(t, "seller@anticair.be")

	err := e.svc.RemoveFromGroup(ctx, "anti@anticair.be", "Antiquarian")
	assert.ErrorIs(t, err, domain.ErrNoReplacementValidator)
	groups, err := e.dir.GroupsOf(ctx, "anti@anticair.be")
	require.NoError(t, err)
	assert.Contains(t, groups, "Antiquarian")

	e.addAccount(t, "anti2@anticair.be", "Antiquarian")
	require.NoError(t, e.svc.RemoveFromGroup(ctx, "anti@anticair.be", "Antiquarian"))
	groups, err = e.dir.GroupsOf(ctx, "anti@anticair.be")
	require.NoError(t, err)
	assert.NotContains(t, groups, "Antiquarian")
}

func TestAddToGroup(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.addAccount(t, "user@anticair.be")

	require.NoError(t, e.svc.AddToGroup(ctx, "user@anticair.be", "Antiquarian"))
	groups, err := e.dir.GroupsOf(ctx, "user@anticair.be")
	require.NoError(t, err)
	assert.Contains(t, groups, "Antiquarian")
}

func TestAnonymize(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.addAccount(t, "gone@anticair.be")

	scrubbed, err := e.svc.Anonymize(ctx, "gone@anticair.be")
	require.NoError(t, err)
	assert.False(t, scrubbed.Enabled)

	// the farewell mail went to the address before it was scrubbed
	var kinds []emails.Kind
	for _, m := range e.mail.sent {
		if m.Receiver == "gone@anticair.be" {
			kinds = append(kinds, m.Kind)
		}
	}
	assert.Contains(t, kinds, emails.KindDataDeleted)

	_, err = e.dir.FindByEmail(ctx, "gone@anticair.be")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
