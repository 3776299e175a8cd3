package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anticair-backend/internal/domain"
	"anticair-backend/internal/pkg/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is the gorm-backed directory.
type Service struct {
	DB *gorm.DB
}

var _ Directory = (*Service)(nil)

// CreateAccountInput holds the fields for a new directory account.
type CreateAccountInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// CreateAccount registers a new identity. Accounts start enabled with an
// empty attribute bag.
func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput) (*domain.Account, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if !validation.IsValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	var existing domain.Account
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, errors.New("Email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, err
	}
	a := &domain.Account{
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Enabled:      true,
		Attributes:   datatypes.JSONMap{},
	}
	if err := s.DB.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var a domain.Account
	if err := s.DB.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListAll returns every account in the directory.
func (s *Service) ListAll(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := s.DB.WithContext(ctx).Order("email").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListWithoutGroup returns accounts with no group membership at all.
func (s *Service) ListWithoutGroup(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	sub := s.DB.Model(&domain.GroupMembership{}).Select("account_id")
	if err := s.DB.WithContext(ctx).Where("id NOT IN (?)", sub).Order("email").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Service) ListByGroup(ctx context.Context, groupName string) ([]domain.Account, error) {
	if strings.TrimSpace(groupName) == "" {
		return nil, domain.ErrGroupNotFound
	}
	if err := s.groupExists(ctx, groupName); err != nil {
		return nil, err
	}
	var accounts []domain.Account
	err := s.DB.WithContext(ctx).
		Joins("JOIN group_memberships ON group_memberships.account_id = accounts.id").
		Where("group_memberships.group_name = ?", groupName).
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Service) GroupsOf(ctx context.Context, email string) ([]string, error) {
	a, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	var names []string
	err = s.DB.WithContext(ctx).Model(&domain.GroupMembership{}).
		Where("account_id = ?", a.ID).
		Pluck("group_name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (s *Service) SetEnabled(ctx context.Context, email string, enabled bool) error {
	a, err := s.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Model(a).Update("enabled", enabled).Error
}

func (s *Service) IsEnabled(ctx context.Context, email string) (bool, error) {
	a, err := s.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return a.Enabled, nil
}

// GetAttribute returns the attribute value or "" when the key is absent.
func (s *Service) GetAttribute(ctx context.Context, email, key string) (string, error) {
	a, err := s.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if a.Attributes == nil {
		return "", nil
	}
	if v, ok := a.Attributes[key].(string); ok {
		return v, nil
	}
	return "", nil
}

func (s *Service) SetAttribute(ctx context.Context, email, key, value string) error {
	a, err := s.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	attrs := a.Attributes
	if attrs == nil {
		attrs = datatypes.JSONMap{}
	}
	attrs[key] = value
	return s.DB.WithContext(ctx).Model(a).Update("attributes", attrs).Error
}

func (s *Service) JoinGroup(ctx context.Context, email, groupName string) error {
	a, err := s.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.groupExists(ctx, groupName); err != nil {
		return err
	}
	m := domain.GroupMembership{AccountID: a.ID, GroupName: groupName}
	return s.DB.WithContext(ctx).Where(&m).FirstOrCreate(&m).Error
}

func (s *Service) LeaveGroup(ctx context.Context, email, groupName string) error {
	a, err := s.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.groupExists(ctx, groupName); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).
		Where("account_id = ? AND group_name = ?", a.ID, groupName).
		Delete(&domain.GroupMembership{}).Error
}

// UpdateProfile updates name and phone for an account.
func (s *Service) UpdateProfile(ctx context.Context, email, firstName, lastName, phone string) (*domain.Account, error) {
	a, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"first_name": strings.TrimSpace(firstName),
		"last_name":  strings.TrimSpace(lastName),
		"phone":      strings.TrimSpace(phone),
	}
	if err := s.DB.WithContext(ctx).Model(a).Updates(updates).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// Anonymize scrubs personal data (GDPR erasure) and disables the account.
// The email is replaced with a deterministic placeholder so references held
// by sold listings keep resolving to a (disabled) record.
func (s *Service) Anonymize(ctx context.Context, email string) (*domain.Account, error) {
	a, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"first_name": fmt.Sprintf("FirstName_%s", a.ID),
		"last_name":  fmt.Sprintf("LastName_%s", a.ID),
		"phone":      "+32000000000",
		"email":      fmt.Sprintf("anonymized%s@deleted.com", a.ID),
		"enabled":    false,
	}
	if err := s.DB.WithContext(ctx).Model(a).Updates(updates).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) groupExists(ctx context.Context, groupName string) error {
	var g domain.Group
	if err := s.DB.WithContext(ctx).Where("name = ?", groupName).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrGroupNotFound
		}
		return err
	}
	return nil
}
