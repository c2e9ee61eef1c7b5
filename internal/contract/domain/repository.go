package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the storage boundary for contracts.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contract *Contract) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Contract, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Contract, error)
	List(ctx context.Context, db *gorm.DB, req ListContractRequest, orgID snowflake.ID) ([]Contract, error)

	// UpdateGuarded writes the contract only when its persisted status still
	// matches expected, reporting whether a row was touched.
	UpdateGuarded(ctx context.Context, db *gorm.DB, contract *Contract, expected string) (bool, error)

	// FindOverdue returns contracts past their end date that can still expire.
	FindOverdue(ctx context.Context, db *gorm.DB, deadline time.Time, statuses []string, limit int) ([]Contract, error)
}
