package signup

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealdesk/internal/authorization"
	"github.com/smallbiznis/dealdesk/internal/clock"
	"github.com/smallbiznis/dealdesk/internal/orgcontext"
	"github.com/smallbiznis/dealdesk/internal/signup/domain"
	dbpkg "github.com/smallbiznis/dealdesk/pkg/db"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// authzStub grants the decision capabilities to a fixed set of actors.
type authzStub struct {
	admins map[string]bool
	calls  []string
}

func (a *authzStub) Authorize(ctx context.Context, actor, orgID, object, action string) error {
	a.calls = append(a.calls, actor+" "+object+" "+action)
	if a.admins[actor] {
		return nil
	}
	return authorization.ErrForbidden
}

func newTestService(t *testing.T) (domain.Service, *authzStub, *gorm.DB) {
	t.Helper()

	dbConn, err := dbpkg.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&domain.User{},
		&domain.OrganizationMember{},
		&domain.SignupRequest{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	authz := &authzStub{admins: map[string]bool{"user:777": true}}

	svc := NewService(Params{
		DB:       dbConn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
		AuthzSvc: authz,
	})
	return svc, authz, dbConn
}

func testCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), 42)
}

func TestSubmitHashesPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	request, err := svc.Submit(testCtx(), domain.SubmitRequest{
		Email:    "Newcomer@Example.com",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("failed to submit: %v", err)
	}

	assert.Equal(t, domain.SignupPending, request.Status)
	assert.Equal(t, "newcomer@example.com", request.Email)
	assert.NotEqual(t, "long-enough-password", request.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(request.PasswordHash), []byte("long-enough-password")))
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Submit(testCtx(), domain.SubmitRequest{Email: "not-an-email", Password: "long-enough-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Submit(testCtx(), domain.SubmitRequest{Email: "a@b.com", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrWeakPassword)

	_, err = svc.Submit(context.Background(), domain.SubmitRequest{Email: "a@b.com", Password: "long-enough-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestApproveCreatesUserAndMembership(t *testing.T) {
	svc, _, dbConn := newTestService(t)

	request, err := svc.Submit(testCtx(), domain.SubmitRequest{
		Email:    "newcomer@example.com",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("failed to submit: %v", err)
	}

	decided, err := svc.Approve(testCtx(), domain.DecideRequest{
		RequestID:  request.ID.String(),
		ApproverID: "777",
	})
	if err != nil {
		t.Fatalf("failed to approve: %v", err)
	}
	assert.Equal(t, domain.SignupApproved, decided.Status)
	assert.NotNil(t, decided.DecidedAt)

	var user domain.User
	if err := dbConn.Where("email = ?", "newcomer@example.com").First(&user).Error; err != nil {
		t.Fatalf("expected user to exist: %v", err)
	}

	var member domain.OrganizationMember
	if err := dbConn.Where("user_id = ?", user.ID).First(&member).Error; err != nil {
		t.Fatalf("expected membership to exist: %v", err)
	}
	assert.Equal(t, "member", member.Role)
	assert.Equal(t, snowflake.ID(42), member.OrgID)
}

func TestApproveRequiresCapability(t *testing.T) {
	svc, authz, dbConn := newTestService(t)

	request, err := svc.Submit(testCtx(), domain.SubmitRequest{
		Email:    "newcomer@example.com",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("failed to submit: %v", err)
	}

	// A regular member holds no signup capability.
	_, err = svc.Approve(testCtx(), domain.DecideRequest{
		RequestID:  request.ID.String(),
		ApproverID: "555",
	})
	assert.ErrorIs(t, err, authorization.ErrForbidden)
	assert.Contains(t, authz.calls, "user:555 signup_request signup_request.approve")

	// Nothing was provisioned.
	var users int64
	dbConn.Model(&domain.User{}).Count(&users)
	assert.Equal(t, int64(0), users)
}

func TestDecisionIsFinal(t *testing.T) {
	svc, _, _ := newTestService(t)

	request, err := svc.Submit(testCtx(), domain.SubmitRequest{
		Email:    "newcomer@example.com",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("failed to submit: %v", err)
	}

	if _, err := svc.Reject(testCtx(), domain.DecideRequest{
		RequestID:  request.ID.String(),
		ApproverID: "777",
	}); err != nil {
		t.Fatalf("failed to reject: %v", err)
	}

	_, err = svc.Approve(testCtx(), domain.DecideRequest{
		RequestID:  request.ID.String(),
		ApproverID: "777",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
}

func TestSubmitRejectsTakenEmail(t *testing.T) {
	svc, _, _ := newTestService(t)

	request, err := svc.Submit(testCtx(), domain.SubmitRequest{
		Email:    "taken@example.com",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	if _, err := svc.Approve(testCtx(), domain.DecideRequest{
		RequestID:  request.ID.String(),
		ApproverID: "777",
	}); err != nil {
		t.Fatalf("failed to approve: %v", err)
	}

	_, err = svc.Submit(testCtx(), domain.SubmitRequest{
		Email:    "taken@example.com",
		Password: "long-enough-password",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestListPending(t *testing.T) {
	svc, _, _ := newTestService(t)

	first, err := svc.Submit(testCtx(), domain.SubmitRequest{
		Email:    "a@example.com",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	if _, err := svc.Submit(testCtx(), domain.SubmitRequest{
		Email:    "b@example.com",
		Password: "long-enough-password",
	}); err != nil {
		t.Fatalf("failed to submit: %v", err)
	}

	if _, err := svc.Reject(testCtx(), domain.DecideRequest{
		RequestID:  first.ID.String(),
		ApproverID: "777",
	}); err != nil {
		t.Fatalf("failed to reject: %v", err)
	}

	pending, err := svc.ListPending(testCtx())
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if assert.Len(t, pending, 1) {
		assert.Equal(t, "b@example.com", pending[0].Email)
	}
}
