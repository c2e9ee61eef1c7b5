package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the storage boundary for quotes and their items. All
// methods take the *gorm.DB so the service can run them inside one
// transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, quote *Quote) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Quote, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Quote, error)
	List(ctx context.Context, db *gorm.DB, req ListQuoteRequest, orgID snowflake.ID) ([]Quote, error)

	// UpdateGuarded writes the quote only when its persisted status still
	// matches expected, reporting whether a row was touched.
	UpdateGuarded(ctx context.Context, db *gorm.DB, quote *Quote, expected string) (bool, error)

	InsertItem(ctx context.Context, db *gorm.DB, item *QuoteLineItem) error
	FindItems(ctx context.Context, db *gorm.DB, orgID, quoteID snowflake.ID) ([]QuoteLineItem, error)
	FindItemByID(ctx context.Context, db *gorm.DB, orgID, quoteID, itemID snowflake.ID) (*QuoteLineItem, error)
	UpdateItem(ctx context.Context, db *gorm.DB, item *QuoteLineItem) error
	DeleteItem(ctx context.Context, db *gorm.DB, orgID, quoteID, itemID snowflake.ID) error

	// FindOverdue returns quotes past deadline that can still expire.
	FindOverdue(ctx context.Context, db *gorm.DB, deadline time.Time, statuses []string, limit int) ([]Quote, error)
}
