// Package domain defines accounts and the admin-approved signup flow.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is an authenticated account. Accounts are only created by approving
// a signup request.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	DisplayName  string       `gorm:"type:text" json:"display_name,omitempty"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// OrganizationMember grants a user a role within one org. The role string
// feeds both session-role resolution and casbin grouping.
type OrganizationMember struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index:idx_org_members_org_user,unique" json:"organization_id"`
	UserID    snowflake.ID `gorm:"not null;index:idx_org_members_org_user,unique" json:"user_id"`
	Role      string       `gorm:"type:text;not null" json:"role"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OrganizationMember) TableName() string { return "organization_members" }

// Signup request statuses.
const (
	SignupPending  = "pending"
	SignupApproved = "approved"
	SignupRejected = "rejected"
)

// SignupRequest is a pending application for org access. The password is
// hashed at submission so the plaintext never rests in the database.
type SignupRequest struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Email        string       `gorm:"type:text;not null;index" json:"email"`
	DisplayName  string       `gorm:"type:text" json:"display_name,omitempty"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	Status       string       `gorm:"type:text;not null;default:'pending';index" json:"status"`
	DecidedBy    *snowflake.ID `gorm:"" json:"decided_by,omitempty"`
	DecidedAt    *time.Time    `gorm:"" json:"decided_at,omitempty"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (SignupRequest) TableName() string { return "signup_requests" }
