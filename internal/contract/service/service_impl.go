package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealdesk/internal/clock"
	contractdomain "github.com/smallbiznis/dealdesk/internal/contract/domain"
	templatedomain "github.com/smallbiznis/dealdesk/internal/contracttemplate/domain"
	"github.com/smallbiznis/dealdesk/internal/lifecycle"
	"github.com/smallbiznis/dealdesk/internal/orgcontext"
	quotedomain "github.com/smallbiznis/dealdesk/internal/quote/domain"
	"github.com/smallbiznis/dealdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Gate        lifecycle.Authorizer
	Repo        contractdomain.Repository
	QuoteSvc    quotedomain.Service
	TemplateSvc templatedomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	machine     *lifecycle.Machine
	repo        contractdomain.Repository
	quoteSvc    quotedomain.Service
	templateSvc templatedomain.Service
}

func New(p Params) contractdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("contract.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		machine:     lifecycle.NewMachine(lifecycle.ContractSpec(), p.Gate),
		repo:        p.Repo,
		quoteSvc:    p.QuoteSvc,
		templateSvc: p.TemplateSvc,
	}
}

// CreateContract drafts a contract. A source quote must be accepted; its
// customer and total seed the contract. A template contributes the body
// unless the request supplies one.
func (s *Service) CreateContract(ctx context.Context, req contractdomain.CreateContractRequest) (*contractdomain.Contract, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, contractdomain.ErrInvalidOrganization
	}

	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, contractdomain.ErrInvalidDates
	}

	now := s.clock.Now()
	contract := &contractdomain.Contract{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Title:     strings.TrimSpace(req.Title),
		Body:      strings.TrimSpace(req.Body),
		Status:    lifecycle.ContractDraft,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Metadata:  datatypes.JSONMap(req.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if contract.Metadata == nil {
		contract.Metadata = datatypes.JSONMap{}
	}

	if quoteID := strings.TrimSpace(req.QuoteID); quoteID != "" {
		quote, err := s.quoteSvc.GetQuote(ctx, quotedomain.GetQuoteRequest{QuoteID: quoteID})
		if err != nil {
			return nil, contractdomain.ErrInvalidQuote
		}
		if quote.Status != lifecycle.QuoteAccepted {
			return nil, contractdomain.ErrInvalidQuote
		}
		contract.QuoteID = &quote.ID
		contract.CustomerID = quote.CustomerID
		contract.ValueCents = quote.TotalCents
		if contract.Title == "" {
			contract.Title = quote.Title
		}
	}

	if customerID := strings.TrimSpace(req.CustomerID); customerID != "" {
		id, err := snowflake.ParseString(customerID)
		if err != nil || id == 0 {
			return nil, contractdomain.ErrInvalidID
		}
		contract.CustomerID = &id
	}

	if templateID := strings.TrimSpace(req.TemplateID); templateID != "" {
		tmpl, err := s.templateSvc.Get(ctx, templateID)
		if err != nil {
			return nil, err
		}
		if !tmpl.IsActive {
			return nil, contractdomain.ErrTemplateInactive
		}
		contract.TemplateID = &tmpl.ID
		if contract.Body == "" {
			contract.Body = tmpl.Body
		}
	}

	if contract.Title == "" {
		return nil, contractdomain.ErrInvalidTitle
	}

	if err := s.repo.Insert(ctx, s.db, contract); err != nil {
		return nil, err
	}

	s.log.Info("contract created", zap.String("contract_id", contract.ID.String()))
	return contract, nil
}

func (s *Service) GetContract(ctx context.Context, contractID string) (*contractdomain.Contract, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, contractdomain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(contractID))
	if err != nil || id == 0 {
		return nil, contractdomain.ErrInvalidID
	}

	contract, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, contractdomain.ErrNotFound
	}
	return contract, nil
}

func (s *Service) ListContracts(ctx context.Context, req contractdomain.ListContractRequest) (*contractdomain.ListContractResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, contractdomain.ErrInvalidOrganization
	}

	if req.Status != "" && !lifecycle.ContractSpec().Known(req.Status) {
		return nil, contractdomain.ErrInvalidStatus
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	req.PageSize = pageSize

	contracts, err := s.repo.List(ctx, s.db, req, orgID)
	if err != nil {
		return nil, err
	}

	refs := make([]*contractdomain.Contract, len(contracts))
	for i := range contracts {
		refs[i] = &contracts[i]
	}

	pageInfo := pagination.BuildCursorPageInfo(refs, int32(pageSize), func(contract *contractdomain.Contract) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        contract.ID.String(),
			CreatedAt: contract.CreatedAt.Format(timeLayout),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo.HasMore && len(contracts) > pageSize {
		contracts = contracts[:pageSize]
	}

	return &contractdomain.ListContractResponse{Contracts: contracts, PageInfo: *pageInfo}, nil
}

// UpdateContract edits a draft contract under a row lock.
func (s *Service) UpdateContract(ctx context.Context, req contractdomain.UpdateContractRequest) (*contractdomain.Contract, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, contractdomain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ContractID))
	if err != nil || id == 0 {
		return nil, contractdomain.ErrInvalidID
	}

	var contract *contractdomain.Contract
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err = s.repo.FindByIDForUpdate(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if contract == nil {
			return contractdomain.ErrNotFound
		}
		if contract.Status != lifecycle.ContractDraft {
			return contractdomain.ErrNotEditable
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return contractdomain.ErrInvalidTitle
			}
			contract.Title = title
		}
		if req.Body != nil {
			contract.Body = strings.TrimSpace(*req.Body)
		}
		if req.StartDate != nil {
			contract.StartDate = req.StartDate
		}
		if req.EndDate != nil {
			contract.EndDate = req.EndDate
		}
		if contract.StartDate != nil && contract.EndDate != nil && contract.EndDate.Before(*contract.StartDate) {
			return contractdomain.ErrInvalidDates
		}
		if req.ValueCents != nil {
			contract.ValueCents = *req.ValueCents
		}

		contract.UpdatedAt = s.clock.Now()

		touched, err := s.repo.UpdateGuarded(ctx, tx, contract, string(lifecycle.ContractDraft))
		if err != nil {
			return err
		}
		if !touched {
			return lifecycle.ErrConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// Transition moves the contract to a new status under a row lock. Approval
// and signature timestamps are stamped by the transition table, never by
// the caller.
func (s *Service) Transition(ctx context.Context, req contractdomain.TransitionContractRequest) (*contractdomain.Contract, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, contractdomain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ContractID))
	if err != nil || id == 0 {
		return nil, contractdomain.ErrInvalidID
	}

	var contract *contractdomain.Contract
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contract, err = s.repo.FindByIDForUpdate(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if contract == nil {
			return contractdomain.ErrNotFound
		}

		loadedStatus := contract.Status
		if req.ExpectedStatus != "" && contract.Status != req.ExpectedStatus {
			return lifecycle.ErrConflict
		}

		now := s.clock.Now()
		doc := lifecycle.Document{
			Kind:       lifecycle.KindContract,
			Status:     contract.Status,
			ApprovedAt: contract.ApprovedAt,
			SignedAt:   contract.SignedAt,
		}
		doc, err = s.machine.Transition(doc, req.ToStatus, req.Role, now)
		if err != nil {
			return err
		}

		contract.Status = doc.Status
		contract.ApprovedAt = doc.ApprovedAt
		contract.SignedAt = doc.SignedAt
		contract.UpdatedAt = now

		touched, err := s.repo.UpdateGuarded(ctx, tx, contract, string(loadedStatus))
		if err != nil {
			return err
		}
		if !touched {
			return lifecycle.ErrConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("contract transitioned",
		zap.String("contract_id", contract.ID.String()),
		zap.String("status", string(contract.Status)),
	)
	return contract, nil
}

// ExpireOverdue flips contracts past their end date to expired, acting as
// the system employee.
func (s *Service) ExpireOverdue(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	now := s.clock.Now()
	expirable := make([]string, 0, 5)
	for _, status := range []lifecycle.Status{
		lifecycle.ContractDraft,
		lifecycle.ContractPendingReview,
		lifecycle.ContractPendingApproval,
		lifecycle.ContractApproved,
		lifecycle.ContractSent,
	} {
		expirable = append(expirable, string(status))
	}

	contracts, err := s.repo.FindOverdue(ctx, s.db, now, expirable, batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range contracts {
		contract := contracts[i]
		doc := lifecycle.Document{
			Kind:       lifecycle.KindContract,
			Status:     contract.Status,
			ApprovedAt: contract.ApprovedAt,
			SignedAt:   contract.SignedAt,
		}
		doc, err := s.machine.Transition(doc, lifecycle.ContractExpired, lifecycle.RoleEmployee, now)
		if err != nil {
			continue
		}

		prev := string(contract.Status)
		contract.Status = doc.Status
		contract.UpdatedAt = now

		touched, err := s.repo.UpdateGuarded(ctx, s.db, &contract, prev)
		if err != nil {
			return expired, err
		}
		if touched {
			expired++
		}
	}

	if expired > 0 {
		s.log.Info("expired overdue contracts", zap.Int("count", expired))
	}
	return expired, nil
}

const timeLayout = "2006-01-02T15:04:05.000000Z07:00"
