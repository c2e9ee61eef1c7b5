package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealdesk/internal/contracttemplate/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository { return &repo{} }

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tmpl *domain.ContractTemplate) error {
	return db.WithContext(ctx).Create(tmpl).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.ContractTemplate, error) {
	var tmpl domain.ContractTemplate
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&tmpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tmpl, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListRequest) ([]domain.ContractTemplate, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.ContractTemplate{}).
		Where("org_id = ?", orgID)

	if name := strings.TrimSpace(filter.Name); name != "" {
		stmt = stmt.Where("name = ?", name)
	}
	if filter.IsDefault != nil {
		stmt = stmt.Where("is_default = ?", *filter.IsDefault)
	}
	if filter.IsActive != nil {
		stmt = stmt.Where("is_active = ?", *filter.IsActive)
	}

	var templates []domain.ContractTemplate
	if err := stmt.Order("created_at desc, id desc").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, tmpl *domain.ContractTemplate) error {
	return db.WithContext(ctx).Save(tmpl).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.ContractTemplate{}).Error
}

func (r *repo) UnsetDefault(ctx context.Context, db *gorm.DB, orgID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.ContractTemplate{}).
		Where("org_id = ? AND is_default = ?", orgID, true).
		Update("is_default", false).Error
}
