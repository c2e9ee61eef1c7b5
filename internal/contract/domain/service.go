package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/dealdesk/internal/lifecycle"
	"github.com/smallbiznis/dealdesk/pkg/db/pagination"
)

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_contract_id")
	ErrInvalidTitle        = errors.New("invalid_contract_title")
	ErrInvalidStatus       = errors.New("invalid_contract_status")
	ErrInvalidDates        = errors.New("invalid_contract_dates")
	ErrInvalidQuote        = errors.New("invalid_source_quote")
	ErrTemplateInactive    = errors.New("template_inactive")
	ErrNotFound            = errors.New("contract_not_found")
	ErrNotEditable         = errors.New("contract_not_editable")
)

// ListContractRequest filters the contract collection.
type ListContractRequest struct {
	pagination.Pagination
	CustomerID string           `form:"customer_id"`
	Status     lifecycle.Status `form:"status"`
}

// ListContractResponse wraps a page of contracts.
type ListContractResponse struct {
	Contracts []Contract          `json:"contracts"`
	PageInfo  pagination.PageInfo `json:"page_info"`
}

// CreateContractRequest drafts a contract, optionally seeded from an
// accepted quote and a template body.
type CreateContractRequest struct {
	QuoteID    string         `json:"quote_id,omitempty"`
	CustomerID string         `json:"customer_id,omitempty"`
	TemplateID string         `json:"template_id,omitempty"`
	Title      string         `json:"title,omitempty"`
	Body       string         `json:"body,omitempty"`
	StartDate  *time.Time     `json:"start_date,omitempty"`
	EndDate    *time.Time     `json:"end_date,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// UpdateContractRequest edits a draft contract. Nil fields stay untouched.
type UpdateContractRequest struct {
	ContractID string     `json:"-"`
	Title      *string    `json:"title,omitempty"`
	Body       *string    `json:"body,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	ValueCents *int64     `json:"value_cents,omitempty"`
}

// TransitionContractRequest moves a contract to a new status.
type TransitionContractRequest struct {
	ContractID     string           `json:"-"`
	ToStatus       lifecycle.Status `json:"to_status" binding:"required"`
	Role           lifecycle.Role   `json:"-"`
	ExpectedStatus lifecycle.Status `json:"expected_status,omitempty"`
}

// Service manages contracts through their lifecycle.
type Service interface {
	ListContracts(ctx context.Context, req ListContractRequest) (*ListContractResponse, error)
	CreateContract(ctx context.Context, req CreateContractRequest) (*Contract, error)
	GetContract(ctx context.Context, contractID string) (*Contract, error)
	UpdateContract(ctx context.Context, req UpdateContractRequest) (*Contract, error)
	Transition(ctx context.Context, req TransitionContractRequest) (*Contract, error)
	ExpireOverdue(ctx context.Context, batchSize int) (int, error)
}
