package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidRequest      = errors.New("invalid_signup_request")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrWeakPassword        = errors.New("weak_password")
	ErrEmailTaken          = errors.New("email_taken")
	ErrNotFound            = errors.New("signup_request_not_found")
	ErrAlreadyDecided      = errors.New("signup_request_already_decided")
)

// SubmitRequest applies for access to an org. No authentication required.
type SubmitRequest struct {
	Email       string `json:"email" binding:"required"`
	DisplayName string `json:"display_name,omitempty"`
	Password    string `json:"password" binding:"required"`
}

// DecideRequest approves or rejects one pending signup. ApproverID is the
// acting user, checked against the signup approval capability.
type DecideRequest struct {
	RequestID  string `json:"-"`
	ApproverID string `json:"-"`
}

// Service manages the signup request queue.
type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*SignupRequest, error)
	ListPending(ctx context.Context) ([]SignupRequest, error)
	Approve(ctx context.Context, req DecideRequest) (*SignupRequest, error)
	Reject(ctx context.Context, req DecideRequest) (*SignupRequest, error)
}
