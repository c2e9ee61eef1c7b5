package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/dealdesk/internal/lifecycle"
	"github.com/smallbiznis/dealdesk/pkg/db/pagination"
)

var (
	ErrInvalidOrganization = errors.New("invalid_organization_id")
	ErrInvalidID           = errors.New("invalid_quote_id")
	ErrInvalidItemID       = errors.New("invalid_item_id")
	ErrInvalidItem         = errors.New("invalid_line_item")
	ErrInvalidPercent      = errors.New("invalid_percent")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrNotFound            = errors.New("quote_not_found")
	ErrItemNotFound        = errors.New("line_item_not_found")
	ErrNotEditable         = errors.New("quote_not_editable")
)

// ListQuoteRequest filters the quote collection.
type ListQuoteRequest struct {
	pagination.Pagination
	CustomerID string           `form:"customer_id"`
	Status     lifecycle.Status `form:"status"`
}

// ListQuoteResponse wraps a page of quotes.
type ListQuoteResponse struct {
	Quotes   []Quote             `json:"quotes"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

// LineItemInput carries caller-supplied item fields. The line total is
// never accepted from the caller.
type LineItemInput struct {
	ProductID       string  `json:"product_id,omitempty"`
	Name            string  `json:"name" binding:"required"`
	UnitPrice       string  `json:"unit_price" binding:"required"`
	Quantity        int64   `json:"quantity" binding:"required"`
	DiscountPercent float64 `json:"discount_percent"`
}

// CreateQuoteRequest creates a draft quote, optionally with initial items.
type CreateQuoteRequest struct {
	CustomerID      string          `json:"customer_id,omitempty"`
	ContactID       string          `json:"contact_id,omitempty"`
	OpportunityID   string          `json:"opportunity_id,omitempty"`
	Title           string          `json:"title,omitempty"`
	DiscountPercent float64         `json:"discount_percent"`
	TaxPercent      *float64        `json:"tax_percent,omitempty"`
	Items           []LineItemInput `json:"items,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
}

// GetQuoteRequest fetches one quote with its items.
type GetQuoteRequest struct {
	QuoteID string `uri:"quote_id" binding:"required"`
}

// UpdatePercentagesRequest changes the quote-level discount and/or tax
// percent. Nil fields are left untouched.
type UpdatePercentagesRequest struct {
	QuoteID         string   `json:"-"`
	DiscountPercent *float64 `json:"discount_percent,omitempty"`
	TaxPercent      *float64 `json:"tax_percent,omitempty"`
}

// AddItemRequest appends one line item to a draft quote.
type AddItemRequest struct {
	QuoteID string `json:"-"`
	Item    LineItemInput
}

// UpdateItemRequest replaces the mutable fields of one line item.
type UpdateItemRequest struct {
	QuoteID string `json:"-"`
	ItemID  string `json:"-"`
	Item    LineItemInput
}

// RemoveItemRequest deletes one line item from a draft quote.
type RemoveItemRequest struct {
	QuoteID string
	ItemID  string
}

// CachedTotals is the caller's last-seen view of the derived amounts,
// supplied when submitting or sending so a concurrent edit is detected
// instead of silently shipping different numbers.
type CachedTotals struct {
	SubtotalCents       int64 `json:"subtotal_cents"`
	DiscountAmountCents int64 `json:"discount_amount_cents"`
	TaxAmountCents      int64 `json:"tax_amount_cents"`
	TotalCents          int64 `json:"total_cents"`
}

// TransitionQuoteRequest moves a quote to a new status.
type TransitionQuoteRequest struct {
	QuoteID        string           `json:"-"`
	ToStatus       lifecycle.Status `json:"to_status" binding:"required"`
	Role           lifecycle.Role   `json:"-"`
	ExpectedStatus lifecycle.Status `json:"expected_status,omitempty"`
	CachedTotals   *CachedTotals    `json:"cached_totals,omitempty"`
}

// QuoteWithItems is the full read model returned by Get and mutations.
type QuoteWithItems struct {
	Quote
	Items []QuoteLineItem `json:"items"`
}

// Service manages quotes through their lifecycle.
type Service interface {
	ListQuotes(ctx context.Context, req ListQuoteRequest) (*ListQuoteResponse, error)
	CreateQuote(ctx context.Context, req CreateQuoteRequest) (*QuoteWithItems, error)
	GetQuote(ctx context.Context, req GetQuoteRequest) (*QuoteWithItems, error)
	ComputeTotals(ctx context.Context, req GetQuoteRequest) (*CachedTotals, error)
	UpdatePercentages(ctx context.Context, req UpdatePercentagesRequest) (*QuoteWithItems, error)
	AddItem(ctx context.Context, req AddItemRequest) (*QuoteWithItems, error)
	UpdateItem(ctx context.Context, req UpdateItemRequest) (*QuoteWithItems, error)
	RemoveItem(ctx context.Context, req RemoveItemRequest) (*QuoteWithItems, error)
	Transition(ctx context.Context, req TransitionQuoteRequest) (*QuoteWithItems, error)
	ExpireOverdue(ctx context.Context, batchSize int) (int, error)
}
