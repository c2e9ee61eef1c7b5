package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealdesk/internal/contract/domain"
	"github.com/smallbiznis/dealdesk/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

// Provide constructs the gorm-backed contract repository.
func Provide() domain.Repository { return &repo{} }

func (r *repo) Insert(ctx context.Context, db *gorm.DB, contract *domain.Contract) error {
	return db.WithContext(ctx).Create(contract).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Contract, error) {
	var contract domain.Contract
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contract, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Contract, error) {
	var contract domain.Contract
	stmt := option.WithLockForUpdate().
		Apply(db.WithContext(ctx)).
		Where("org_id = ? AND id = ?", orgID, id)
	err := stmt.First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contract, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, req domain.ListContractRequest, orgID snowflake.ID) ([]domain.Contract, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Contract{}).
		Where("org_id = ?", orgID)

	if req.CustomerID != "" {
		customerID, err := snowflake.ParseString(req.CustomerID)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		stmt = stmt.Where("customer_id = ?", customerID)
	}
	if req.Status != "" {
		stmt = stmt.Where("status = ?", string(req.Status))
	}

	stmt = option.ApplyPagination(req.Pagination).Apply(stmt)

	var contracts []domain.Contract
	if err := stmt.Order("created_at desc, id desc").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *repo) UpdateGuarded(ctx context.Context, db *gorm.DB, contract *domain.Contract, expected string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Contract{}).
		Where("org_id = ? AND id = ? AND status = ?", contract.OrgID, contract.ID, expected).
		Updates(map[string]any{
			"status":      string(contract.Status),
			"title":       contract.Title,
			"body":        contract.Body,
			"value_cents": contract.ValueCents,
			"start_date":  contract.StartDate,
			"end_date":    contract.EndDate,
			"approved_at": contract.ApprovedAt,
			"signed_at":   contract.SignedAt,
			"updated_at":  contract.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindOverdue(ctx context.Context, db *gorm.DB, deadline time.Time, statuses []string, limit int) ([]domain.Contract, error) {
	var contracts []domain.Contract
	err := db.WithContext(ctx).
		Where("end_date IS NOT NULL AND end_date < ?", deadline).
		Where("status IN ?", statuses).
		Order("end_date asc").
		Limit(limit).
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}
