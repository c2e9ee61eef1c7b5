// Package domain defines reusable contract templates.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ContractTemplate is boilerplate contract text an org reuses when drafting
// contracts. Placeholders in the body are filled from Variables defaults
// unless the contract overrides them.
type ContractTemplate struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID      `gorm:"not null;index" json:"organization_id"`
	Name      string            `gorm:"type:text;not null" json:"name"`
	Body      string            `gorm:"type:text;not null" json:"body"`
	IsDefault bool              `gorm:"not null;default:false" json:"is_default"`
	IsActive  bool              `gorm:"not null;default:true" json:"is_active"`
	Variables datatypes.JSONMap `gorm:"type:jsonb" json:"variables,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ContractTemplate) TableName() string { return "contract_templates" }
