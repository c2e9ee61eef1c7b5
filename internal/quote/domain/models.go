// Package domain contains persistence models for quoting.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealdesk/internal/lifecycle"
	"gorm.io/datatypes"
)

// Quote represents a priced offer under negotiation.
type Quote struct {
	ID            snowflake.ID     `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID     `gorm:"not null;index" json:"organization_id"`
	CustomerID    *snowflake.ID    `gorm:"index" json:"customer_id,omitempty"`
	ContactID     *snowflake.ID    `gorm:"index" json:"contact_id,omitempty"`
	OpportunityID *snowflake.ID    `gorm:"index" json:"opportunity_id,omitempty"`
	Title         string           `gorm:"type:text" json:"title,omitempty"`
	Status        lifecycle.Status `gorm:"type:text;not null;default:'draft'" json:"status"`

	DiscountPercent float64 `gorm:"not null;default:0" json:"discount_percent"`
	TaxPercent      float64 `gorm:"not null;default:0" json:"tax_percent"`

	// Derived amounts, kept consistent with the items and percentages by
	// recomputing inside every mutating transaction.
	SubtotalCents       int64 `gorm:"not null;default:0" json:"subtotal_cents"`
	DiscountAmountCents int64 `gorm:"not null;default:0" json:"discount_amount_cents"`
	TaxAmountCents      int64 `gorm:"not null;default:0" json:"tax_amount_cents"`
	TotalCents          int64 `gorm:"not null;default:0" json:"total_cents"`

	ValidUntil *time.Time        `gorm:"" json:"valid_until,omitempty"`
	ApprovedAt *time.Time        `gorm:"" json:"approved_at,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Quote) TableName() string { return "quotes" }

// QuoteLineItem is one priced product entry owned by exactly one quote.
// Items are removed with their quote.
type QuoteLineItem struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID  `gorm:"not null;index" json:"organization_id"`
	QuoteID   snowflake.ID  `gorm:"not null;index;constraint:OnDelete:CASCADE" json:"quote_id"`
	ProductID *snowflake.ID `gorm:"index" json:"product_id,omitempty"`
	Name      string        `gorm:"type:text;not null" json:"name"`

	UnitPriceCents  int64   `gorm:"not null" json:"unit_price_cents"`
	Quantity        int64   `gorm:"not null" json:"quantity"`
	DiscountPercent float64 `gorm:"not null;default:0" json:"discount_percent"`
	LineTotalCents  int64   `gorm:"not null" json:"line_total_cents"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (QuoteLineItem) TableName() string { return "quote_line_items" }
