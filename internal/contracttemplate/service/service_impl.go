package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/dealdesk/internal/audit/domain"
	"github.com/smallbiznis/dealdesk/internal/clock"
	templatedomain "github.com/smallbiznis/dealdesk/internal/contracttemplate/domain"
	"github.com/smallbiznis/dealdesk/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     templatedomain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     templatedomain.Repository
	auditSvc auditdomain.Service
}

func NewService(p Params) templatedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("contracttemplate.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req templatedomain.CreateRequest) (*templatedomain.ContractTemplate, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, templatedomain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, templatedomain.ErrInvalidName
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, templatedomain.ErrInvalidBody
	}

	now := s.clock.Now()
	tmpl := &templatedomain.ContractTemplate{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		Body:      body,
		IsDefault: req.IsDefault,
		IsActive:  true,
		Variables: normalizeMap(req.Variables),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := s.repo.UnsetDefault(ctx, tx, orgID); err != nil {
				return err
			}
		}
		return s.repo.Insert(ctx, tx, tmpl)
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "contract_template.created", tmpl)
	return tmpl, nil
}

func (s *Service) List(ctx context.Context, req templatedomain.ListRequest) ([]templatedomain.ContractTemplate, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, templatedomain.ErrInvalidOrganization
	}

	return s.repo.List(ctx, s.db, orgID, templatedomain.ListRequest{
		Name:      strings.TrimSpace(req.Name),
		IsDefault: req.IsDefault,
		IsActive:  req.IsActive,
	})
}

func (s *Service) Get(ctx context.Context, templateID string) (*templatedomain.ContractTemplate, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, templatedomain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(templateID))
	if err != nil || id == 0 {
		return nil, templatedomain.ErrInvalidID
	}

	tmpl, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, templatedomain.ErrNotFound
	}
	return tmpl, nil
}

func (s *Service) Update(ctx context.Context, req templatedomain.UpdateRequest) (*templatedomain.ContractTemplate, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, templatedomain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.TemplateID))
	if err != nil || id == 0 {
		return nil, templatedomain.ErrInvalidID
	}

	var tmpl *templatedomain.ContractTemplate
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tmpl, err = s.repo.FindByID(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if tmpl == nil {
			return templatedomain.ErrNotFound
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return templatedomain.ErrInvalidName
			}
			tmpl.Name = name
		}
		if req.Body != nil {
			body := strings.TrimSpace(*req.Body)
			if body == "" {
				return templatedomain.ErrInvalidBody
			}
			tmpl.Body = body
		}
		if req.Variables != nil {
			tmpl.Variables = normalizeMap(req.Variables)
		}
		if req.IsDefault != nil {
			if *req.IsDefault && !tmpl.IsDefault {
				if err := s.repo.UnsetDefault(ctx, tx, orgID); err != nil {
					return err
				}
			}
			tmpl.IsDefault = *req.IsDefault
		}
		if req.IsActive != nil {
			tmpl.IsActive = *req.IsActive
			// A deactivated template cannot stay the org default.
			if !tmpl.IsActive {
				tmpl.IsDefault = false
			}
		}

		tmpl.UpdatedAt = s.clock.Now()
		return s.repo.Update(ctx, tx, tmpl)
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "contract_template.updated", tmpl)
	return tmpl, nil
}

func (s *Service) Delete(ctx context.Context, templateID string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return templatedomain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(templateID))
	if err != nil || id == 0 {
		return templatedomain.ErrInvalidID
	}

	tmpl, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return err
	}
	if tmpl == nil {
		return templatedomain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, orgID, id); err != nil {
		return err
	}

	s.emitAudit(ctx, "contract_template.deleted", tmpl)
	return nil
}

func (s *Service) emitAudit(ctx context.Context, action string, tmpl *templatedomain.ContractTemplate) {
	if s.auditSvc == nil || tmpl == nil {
		return
	}
	targetID := tmpl.ID.String()
	if err := s.auditSvc.AuditLog(ctx, &tmpl.OrgID, "", nil, action, "contract_template", &targetID, map[string]any{
		"name": tmpl.Name,
	}); err != nil {
		s.log.Warn("failed to emit audit log", zap.String("action", action), zap.Error(err))
	}
}

func normalizeMap(in map[string]any) datatypes.JSONMap {
	if in == nil {
		return datatypes.JSONMap{}
	}
	return datatypes.JSONMap(in)
}
