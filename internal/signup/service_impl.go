// Package signup implements the admin-approved access flow: anyone may
// apply, an admin decides, and approval provisions the account and org
// membership in one transaction.
package signup

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/dealdesk/internal/audit/domain"
	"github.com/smallbiznis/dealdesk/internal/authorization"
	"github.com/smallbiznis/dealdesk/internal/clock"
	"github.com/smallbiznis/dealdesk/internal/orgcontext"
	"github.com/smallbiznis/dealdesk/internal/signup/domain"
	"github.com/smallbiznis/dealdesk/pkg/db"
	"github.com/smallbiznis/dealdesk/pkg/db/option"
	"github.com/smallbiznis/dealdesk/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// defaultMemberRole is the org role granted on approval.
const defaultMemberRole = "member"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	AuthzSvc authorization.Service
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	authzSvc     authorization.Service
	auditSvc     auditdomain.Service
	userStore    repository.Repository[domain.User]
	memberStore  repository.Repository[domain.OrganizationMember]
	requestStore repository.Repository[domain.SignupRequest]
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("signup.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		authzSvc:     p.AuthzSvc,
		auditSvc:     p.AuditSvc,
		userStore:    repository.ProvideStore[domain.User](p.DB),
		memberStore:  repository.ProvideStore[domain.OrganizationMember](p.DB),
		requestStore: repository.ProvideStore[domain.SignupRequest](p.DB),
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.SignupRequest, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	request := &domain.SignupRequest{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		Email:        email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: string(hash),
		Status:       domain.SignupPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	existing, err := s.userStore.Count(ctx, &domain.User{Email: email})
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, domain.ErrEmailTaken
	}

	if err := s.requestStore.Create(ctx, request); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info("signup request submitted",
		zap.String("request_id", request.ID.String()),
	)
	return request, nil
}

func (s *Service) ListPending(ctx context.Context) ([]domain.SignupRequest, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	rows, err := s.requestStore.Find(ctx,
		&domain.SignupRequest{OrgID: orgID, Status: domain.SignupPending},
		option.WithOrder("created_at asc, id asc"),
	)
	if err != nil {
		return nil, err
	}

	requests := make([]domain.SignupRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, *row)
	}
	return requests, nil
}

// Approve creates the user account and org membership. The capability check
// runs before anything is written; a non-admin employee cannot grant
// access.
func (s *Service) Approve(ctx context.Context, req domain.DecideRequest) (*domain.SignupRequest, error) {
	request, orgID, err := s.authorizeDecision(ctx, req, authorization.ActionSignupApprove)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := &domain.User{
			ID:           s.genID.Generate(),
			Email:        request.Email,
			DisplayName:  request.DisplayName,
			PasswordHash: request.PasswordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.userStore.WithTrx(tx).Create(ctx, user); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrEmailTaken
			}
			return err
		}

		member := &domain.OrganizationMember{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			UserID:    user.ID,
			Role:      defaultMemberRole,
			CreatedAt: now,
		}
		if err := s.memberStore.WithTrx(tx).Create(ctx, member); err != nil {
			return err
		}

		return s.decide(tx, request, domain.SignupApproved, req.ApproverID, now)
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "signup_request.approved", request, req.ApproverID)
	return request, nil
}

// Reject closes the request without creating anything.
func (s *Service) Reject(ctx context.Context, req domain.DecideRequest) (*domain.SignupRequest, error) {
	request, _, err := s.authorizeDecision(ctx, req, authorization.ActionSignupReject)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.decide(tx, request, domain.SignupRejected, req.ApproverID, now)
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "signup_request.rejected", request, req.ApproverID)
	return request, nil
}

func (s *Service) authorizeDecision(ctx context.Context, req domain.DecideRequest, action string) (*domain.SignupRequest, snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, 0, domain.ErrInvalidOrganization
	}

	approverID := strings.TrimSpace(req.ApproverID)
	if approverID == "" {
		return nil, 0, authorization.ErrInvalidActor
	}

	if err := s.authzSvc.Authorize(ctx, "user:"+approverID, orgID.String(), authorization.ObjectSignupRequest, action); err != nil {
		return nil, 0, err
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.RequestID))
	if err != nil || id == 0 {
		return nil, 0, domain.ErrNotFound
	}

	request, err := s.requestStore.FindOne(ctx, &domain.SignupRequest{OrgID: orgID, ID: id})
	if err != nil {
		return nil, 0, err
	}
	if request == nil {
		return nil, 0, domain.ErrNotFound
	}
	if request.Status != domain.SignupPending {
		return nil, 0, domain.ErrAlreadyDecided
	}
	return request, orgID, nil
}

// decide flips the request status, guarding on pending so two admins
// cannot both decide it.
func (s *Service) decide(tx *gorm.DB, request *domain.SignupRequest, status string, approverID string, now time.Time) error {
	var decidedBy *snowflake.ID
	if id, err := snowflake.ParseString(strings.TrimSpace(approverID)); err == nil && id != 0 {
		decidedBy = &id
	}

	res := tx.Model(&domain.SignupRequest{}).
		Where("id = ? AND status = ?", request.ID, domain.SignupPending).
		Updates(map[string]any{
			"status":     status,
			"decided_by": decidedBy,
			"decided_at": now,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyDecided
	}

	request.Status = status
	request.DecidedBy = decidedBy
	request.DecidedAt = &now
	request.UpdatedAt = now
	return nil
}

func (s *Service) emitAudit(ctx context.Context, action string, request *domain.SignupRequest, approverID string) {
	if s.auditSvc == nil || request == nil {
		return
	}
	targetID := request.ID.String()
	_ = s.auditSvc.AuditLog(ctx, &request.OrgID, "user", &approverID, action, "signup_request", &targetID, map[string]any{
		"email": request.Email,
	})
}
