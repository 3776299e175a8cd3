package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account is an identity-directory record: sellers, antiquarians and admins.
// The attribute bag mirrors the directory's free-form key/value storage; the
// ledger balance lives there as a decimal-formatted string.
type Account struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email        string            `gorm:"column:email;uniqueIndex;not null" json:"email"`
	FirstName    string            `gorm:"column:first_name" json:"first_name"`
	LastName     string            `gorm:"column:last_name" json:"last_name"`
	Phone        string            `gorm:"column:phone" json:"phone"`
	PasswordHash string            `gorm:"column:password_hash" json:"-"`
	Enabled      bool              `gorm:"column:enabled;not null;default:true" json:"enabled"`
	Attributes   datatypes.JSONMap `gorm:"column:attributes" json:"attributes"`
	CreatedAt    time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate sets id if not already set (DBs without default uuid).
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Group is a named role container ("Admin", "Antiquarian").
type Group struct {
	ID   uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
}

func (Group) TableName() string {
	return "groups"
}

// GroupMembership links an account to a group.
type GroupMembership struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AccountID uuid.UUID `gorm:"column:account_id;type:uuid;not null;index:idx_membership,unique" json:"account_id"`
	GroupName string    `gorm:"column:group_name;not null;index:idx_membership,unique" json:"group_name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (GroupMembership) TableName() string {
	return "group_memberships"
}
