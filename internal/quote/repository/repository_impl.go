package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealdesk/internal/quote/domain"
	"github.com/smallbiznis/dealdesk/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

// Provide constructs the gorm-backed quote repository.
func Provide() domain.Repository { return &repo{} }

func (r *repo) Insert(ctx context.Context, db *gorm.DB, quote *domain.Quote) error {
	return db.WithContext(ctx).Create(quote).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Quote, error) {
	var quote domain.Quote
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &quote, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Quote, error) {
	var quote domain.Quote
	stmt := option.WithLockForUpdate().
		Apply(db.WithContext(ctx)).
		Where("org_id = ? AND id = ?", orgID, id)
	err := stmt.First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &quote, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, req domain.ListQuoteRequest, orgID snowflake.ID) ([]domain.Quote, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Quote{}).
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

	var quotes []domain.Quote
	if err := stmt.Order("created_at desc, id desc").Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *repo) UpdateGuarded(ctx context.Context, db *gorm.DB, quote *domain.Quote, expected string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Quote{}).
		Where("org_id = ? AND id = ? AND status = ?", quote.OrgID, quote.ID, expected).
		Updates(map[string]any{
			"status":                string(quote.Status),
			"discount_percent":      quote.DiscountPercent,
			"tax_percent":           quote.TaxPercent,
			"subtotal_cents":        quote.SubtotalCents,
			"discount_amount_cents": quote.DiscountAmountCents,
			"tax_amount_cents":      quote.TaxAmountCents,
			"total_cents":           quote.TotalCents,
			"valid_until":           quote.ValidUntil,
			"approved_at":           quote.ApprovedAt,
			"updated_at":            quote.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *domain.QuoteLineItem) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repo) FindItems(ctx context.Context, db *gorm.DB, orgID, quoteID snowflake.ID) ([]domain.QuoteLineItem, error) {
	var items []domain.QuoteLineItem
	err := db.WithContext(ctx).
		Where("org_id = ? AND quote_id = ?", orgID, quoteID).
		Order("created_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindItemByID(ctx context.Context, db *gorm.DB, orgID, quoteID, itemID snowflake.ID) (*domain.QuoteLineItem, error) {
	var item domain.QuoteLineItem
	err := db.WithContext(ctx).
		Where("org_id = ? AND quote_id = ? AND id = ?", orgID, quoteID, itemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) UpdateItem(ctx context.Context, db *gorm.DB, item *domain.QuoteLineItem) error {
	return db.WithContext(ctx).Save(item).Error
}

func (r *repo) DeleteItem(ctx context.Context, db *gorm.DB, orgID, quoteID, itemID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND quote_id = ? AND id = ?", orgID, quoteID, itemID).
		Delete(&domain.QuoteLineItem{}).Error
}

func (r *repo) FindOverdue(ctx context.Context, db *gorm.DB, deadline time.Time, statuses []string, limit int) ([]domain.Quote, error) {
	var quotes []domain.Quote
	err := db.WithContext(ctx).
		Where("valid_until IS NOT NULL AND valid_until < ?", deadline).
		Where("status IN ?", statuses).
		Order("valid_until asc").
		Limit(limit).
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	return quotes, nil
}
