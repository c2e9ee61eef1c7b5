// Package authorization enforces per-org capabilities with casbin and
// exposes the fail-closed gate consulted on document transitions.
package authorization

import (
	"context"
	"errors"
)

var (
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrForbidden           = errors.New("forbidden")
)

const (
	ObjectQuote            = "quote"
	ObjectContract         = "contract"
	ObjectContractTemplate = "contract_template"
	ObjectCustomer         = "customer"
	ObjectSignupRequest    = "signup_request"
	ObjectAuditLog         = "audit_log"
)

const (
	ActionQuoteTransition    = "quote.transition"
	ActionContractTransition = "contract.transition"

	ActionContractTemplateManage = "contract_template.manage"

	ActionCustomerView   = "customer.view"
	ActionCustomerCreate = "customer.create"

	// Approving a signup grants org access, so the capability is held by
	// admins only, not by every employee.
	ActionSignupApprove = "signup_request.approve"
	ActionSignupReject  = "signup_request.reject"
	ActionSignupView    = "signup_request.view"

	ActionAuditLogView = "audit_log.view"
)

// Service answers capability checks for a concrete actor within an org.
// Actors are "system" or "user:<id>".
type Service interface {
	Authorize(ctx context.Context, actor string, orgID string, object string, action string) error
}
