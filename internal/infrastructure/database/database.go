package database

import (
	"anticair-backend/internal/domain"
	"anticair-backend/internal/pkg/constants"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN (Postgres).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when using connection poolers.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate runs migrations for core models and seeds the role groups.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Listing{},
		&domain.Photo{},
		&domain.Account{},
		&domain.Group{},
		&domain.GroupMembership{},
	); err != nil {
		return err
	}
	for _, name := range constants.ValidGroups {
		if err := db.Where(&domain.Group{Name: name}).FirstOrCreate(&domain.Group{Name: name}).Error; err != nil {
			return err
		}
	}
	return nil
}
