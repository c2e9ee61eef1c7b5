// Package domain contains persistence models for contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealdesk/internal/lifecycle"
	"gorm.io/datatypes"
)

// Contract is a legal agreement derived from an accepted quote or drafted
// from a template.
type Contract struct {
	ID         snowflake.ID     `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID     `gorm:"not null;index" json:"organization_id"`
	QuoteID    *snowflake.ID    `gorm:"index" json:"quote_id,omitempty"`
	CustomerID *snowflake.ID    `gorm:"index" json:"customer_id,omitempty"`
	TemplateID *snowflake.ID    `gorm:"index" json:"template_id,omitempty"`
	Title      string           `gorm:"type:text;not null" json:"title"`
	Body       string           `gorm:"type:text" json:"body,omitempty"`
	Status     lifecycle.Status `gorm:"type:text;not null;default:'draft'" json:"status"`

	ValueCents int64 `gorm:"not null;default:0" json:"value_cents"`

	StartDate  *time.Time        `gorm:"" json:"start_date,omitempty"`
	EndDate    *time.Time        `gorm:"" json:"end_date,omitempty"`
	ApprovedAt *time.Time        `gorm:"" json:"approved_at,omitempty"`
	SignedAt   *time.Time        `gorm:"" json:"signed_at,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Contract) TableName() string { return "contracts" }
