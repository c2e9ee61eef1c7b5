package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_template_name")
	ErrInvalidBody         = errors.New("invalid_template_body")
	ErrInvalidID           = errors.New("invalid_template_id")
	ErrNotFound            = errors.New("template_not_found")
)

type CreateRequest struct {
	Name      string         `json:"name" binding:"required"`
	Body      string         `json:"body" binding:"required"`
	IsDefault bool           `json:"is_default"`
	Variables map[string]any `json:"variables,omitempty"`
}

type UpdateRequest struct {
	TemplateID string         `json:"-"`
	Name       *string        `json:"name,omitempty"`
	Body       *string        `json:"body,omitempty"`
	IsDefault  *bool          `json:"is_default,omitempty"`
	IsActive   *bool          `json:"is_active,omitempty"`
	Variables  map[string]any `json:"variables,omitempty"`
}

type ListRequest struct {
	Name      string `form:"name"`
	IsDefault *bool  `form:"is_default"`
	IsActive  *bool  `form:"is_active"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*ContractTemplate, error)
	List(ctx context.Context, req ListRequest) ([]ContractTemplate, error)
	Get(ctx context.Context, templateID string) (*ContractTemplate, error)
	Update(ctx context.Context, req UpdateRequest) (*ContractTemplate, error)
	Delete(ctx context.Context, templateID string) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tmpl *ContractTemplate) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*ContractTemplate, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListRequest) ([]ContractTemplate, error)
	Update(ctx context.Context, db *gorm.DB, tmpl *ContractTemplate) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
	UnsetDefault(ctx context.Context, db *gorm.DB, orgID snowflake.ID) error
}
