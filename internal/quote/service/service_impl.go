package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealdesk/internal/clock"
	"github.com/smallbiznis/dealdesk/internal/config"
	"github.com/smallbiznis/dealdesk/internal/lifecycle"
	"github.com/smallbiznis/dealdesk/internal/money"
	"github.com/smallbiznis/dealdesk/internal/orgcontext"
	"github.com/smallbiznis/dealdesk/internal/pricing"
	"github.com/smallbiznis/dealdesk/internal/quote/domain"
	"github.com/smallbiznis/dealdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Quoting *config.QuotingConfigHolder
	Gate    lifecycle.Authorizer
	Repo    domain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	quoting *config.QuotingConfigHolder
	machine *lifecycle.Machine
	repo    domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("quote.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		quoting: p.Quoting,
		machine: lifecycle.NewMachine(lifecycle.QuoteSpec(), p.Gate),
		repo:    p.Repo,
	}
}

func (s *Service) CreateQuote(ctx context.Context, req domain.CreateQuoteRequest) (*domain.QuoteWithItems, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		return nil, domain.ErrInvalidPercent
	}

	taxPercent := s.quoting.Get().DefaultTaxPercent
	if req.TaxPercent != nil {
		taxPercent = *req.TaxPercent
	}
	if taxPercent < 0 || taxPercent > 100 {
		return nil, domain.ErrInvalidPercent
	}

	now := s.clock.Now()
	quote := domain.Quote{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		Title:           strings.TrimSpace(req.Title),
		Status:          lifecycle.QuoteDraft,
		DiscountPercent: req.DiscountPercent,
		TaxPercent:      taxPercent,
		Metadata:        datatypes.JSONMap(req.Metadata),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if quote.Metadata == nil {
		quote.Metadata = datatypes.JSONMap{}
	}

	var err error
	if quote.CustomerID, err = parseOptionalID(req.CustomerID); err != nil {
		return nil, domain.ErrInvalidID
	}
	if quote.ContactID, err = parseOptionalID(req.ContactID); err != nil {
		return nil, domain.ErrInvalidID
	}
	if quote.OpportunityID, err = parseOptionalID(req.OpportunityID); err != nil {
		return nil, domain.ErrInvalidID
	}

	items := make([]domain.QuoteLineItem, 0, len(req.Items))
	for _, input := range req.Items {
		item, err := s.buildItem(orgID, quote.ID, input, now)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := applyTotals(&quote, items); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &quote); err != nil {
			return err
		}
		for i := range items {
			if err := s.repo.InsertItem(ctx, tx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("quote created",
		zap.String("quote_id", quote.ID.String()),
		zap.Int("items", len(items)),
	)
	return &domain.QuoteWithItems{Quote: quote, Items: items}, nil
}

func (s *Service) GetQuote(ctx context.Context, req domain.GetQuoteRequest) (*domain.QuoteWithItems, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.QuoteID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}

	quote, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, domain.ErrNotFound
	}

	items, err := s.repo.FindItems(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}

	return &domain.QuoteWithItems{Quote: *quote, Items: items}, nil
}

// ComputeTotals recomputes the derived amounts from the current line items
// without persisting anything. Callers pass the result back as CachedTotals
// when submitting or sending.
func (s *Service) ComputeTotals(ctx context.Context, req domain.GetQuoteRequest) (*domain.CachedTotals, error) {
	full, err := s.GetQuote(ctx, req)
	if err != nil {
		return nil, err
	}

	totals, err := computeTotals(full.Quote, full.Items)
	if err != nil {
		return nil, err
	}

	return &domain.CachedTotals{
		SubtotalCents:       totals.Subtotal.Cents(),
		DiscountAmountCents: totals.DiscountAmount.Cents(),
		TaxAmountCents:      totals.TaxAmount.Cents(),
		TotalCents:          totals.Total.Cents(),
	}, nil
}

func (s *Service) ListQuotes(ctx context.Context, req domain.ListQuoteRequest) (*domain.ListQuoteResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	if req.Status != "" && !lifecycle.QuoteSpec().Known(req.Status) {
		return nil, domain.ErrInvalidStatus
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	req.PageSize = pageSize

	quotes, err := s.repo.List(ctx, s.db, req, orgID)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.Quote, len(quotes))
	for i := range quotes {
		refs[i] = &quotes[i]
	}

	pageInfo := pagination.BuildCursorPageInfo(refs, int32(pageSize), func(quote *domain.Quote) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        quote.ID.String(),
			CreatedAt: quote.CreatedAt.Format(timeLayout),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo.HasMore && len(quotes) > pageSize {
		quotes = quotes[:pageSize]
	}

	return &domain.ListQuoteResponse{Quotes: quotes, PageInfo: *pageInfo}, nil
}

func (s *Service) UpdatePercentages(ctx context.Context, req domain.UpdatePercentagesRequest) (*domain.QuoteWithItems, error) {
	return s.mutateDraft(ctx, req.QuoteID, func(tx *gorm.DB, quote *domain.Quote, items []domain.QuoteLineItem) ([]domain.QuoteLineItem, error) {
		if req.DiscountPercent != nil {
			if *req.DiscountPercent < 0 || *req.DiscountPercent > 100 {
				return nil, domain.ErrInvalidPercent
			}
			quote.DiscountPercent = *req.DiscountPercent
		}
		if req.TaxPercent != nil {
			if *req.TaxPercent < 0 || *req.TaxPercent > 100 {
				return nil, domain.ErrInvalidPercent
			}
			quote.TaxPercent = *req.TaxPercent
		}
		return items, nil
	})
}

func (s *Service) AddItem(ctx context.Context, req domain.AddItemRequest) (*domain.QuoteWithItems, error) {
	return s.mutateDraft(ctx, req.QuoteID, func(tx *gorm.DB, quote *domain.Quote, items []domain.QuoteLineItem) ([]domain.QuoteLineItem, error) {
		item, err := s.buildItem(quote.OrgID, quote.ID, req.Item, s.clock.Now())
		if err != nil {
			return nil, err
		}
		if err := s.repo.InsertItem(ctx, tx, item); err != nil {
			return nil, err
		}
		return append(items, *item), nil
	})
}

func (s *Service) UpdateItem(ctx context.Context, req domain.UpdateItemRequest) (*domain.QuoteWithItems, error) {
	itemID, err := snowflake.ParseString(strings.TrimSpace(req.ItemID))
	if err != nil || itemID == 0 {
		return nil, domain.ErrInvalidItemID
	}

	return s.mutateDraft(ctx, req.QuoteID, func(tx *gorm.DB, quote *domain.Quote, items []domain.QuoteLineItem) ([]domain.QuoteLineItem, error) {
		updated, err := s.buildItem(quote.OrgID, quote.ID, req.Item, s.clock.Now())
		if err != nil {
			return nil, err
		}

		found := false
		for i := range items {
			if items[i].ID != itemID {
				continue
			}
			items[i].ProductID = updated.ProductID
			items[i].Name = updated.Name
			items[i].UnitPriceCents = updated.UnitPriceCents
			items[i].Quantity = updated.Quantity
			items[i].DiscountPercent = updated.DiscountPercent
			items[i].LineTotalCents = updated.LineTotalCents
			items[i].UpdatedAt = s.clock.Now()
			if err := s.repo.UpdateItem(ctx, tx, &items[i]); err != nil {
				return nil, err
			}
			found = true
			break
		}
		if !found {
			return nil, domain.ErrItemNotFound
		}
		return items, nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, req domain.RemoveItemRequest) (*domain.QuoteWithItems, error) {
	itemID, err := snowflake.ParseString(strings.TrimSpace(req.ItemID))
	if err != nil || itemID == 0 {
		return nil, domain.ErrInvalidItemID
	}

	return s.mutateDraft(ctx, req.QuoteID, func(tx *gorm.DB, quote *domain.Quote, items []domain.QuoteLineItem) ([]domain.QuoteLineItem, error) {
		remaining := items[:0]
		found := false
		for _, item := range items {
			if item.ID == itemID {
				found = true
				continue
			}
			remaining = append(remaining, item)
		}
		if !found {
			return nil, domain.ErrItemNotFound
		}
		if err := s.repo.DeleteItem(ctx, tx, quote.OrgID, quote.ID, itemID); err != nil {
			return nil, err
		}
		return remaining, nil
	})
}

// Transition moves the quote to a new status under a row lock. Submitting
// for approval or sending recomputes the totals from the stored items; when
// the caller supplies its last-seen totals and they no longer match, the
// move is refused so nobody approves or ships numbers they never saw.
func (s *Service) Transition(ctx context.Context, req domain.TransitionQuoteRequest) (*domain.QuoteWithItems, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.QuoteID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}

	var result *domain.QuoteWithItems
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if quote == nil {
			return domain.ErrNotFound
		}

		loadedStatus := quote.Status
		if req.ExpectedStatus != "" && quote.Status != req.ExpectedStatus {
			return lifecycle.ErrConflict
		}

		now := s.clock.Now()
		doc := lifecycle.Document{
			Kind:       lifecycle.KindQuote,
			Status:     quote.Status,
			ApprovedAt: quote.ApprovedAt,
		}
		doc, err = s.machine.Transition(doc, req.ToStatus, req.Role, now)
		if err != nil {
			return err
		}

		items, err := s.repo.FindItems(ctx, tx, orgID, id)
		if err != nil {
			return err
		}

		if req.ToStatus == lifecycle.QuotePendingApproval || req.ToStatus == lifecycle.QuoteSent {
			totals, err := computeTotals(*quote, items)
			if err != nil {
				return err
			}
			if req.CachedTotals != nil && !totalsMatch(*req.CachedTotals, totals) {
				return lifecycle.ErrStaleTotals
			}
			setTotals(quote, totals)
		}
		if req.ToStatus == lifecycle.QuoteSent && quote.ValidUntil == nil {
			deadline := now.AddDate(0, 0, s.quoting.Get().QuoteValidityDays)
			quote.ValidUntil = &deadline
		}

		quote.Status = doc.Status
		quote.ApprovedAt = doc.ApprovedAt
		quote.UpdatedAt = now

		touched, err := s.repo.UpdateGuarded(ctx, tx, quote, string(loadedStatus))
		if err != nil {
			return err
		}
		if !touched {
			return lifecycle.ErrConflict
		}

		result = &domain.QuoteWithItems{Quote: *quote, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("quote transitioned",
		zap.String("quote_id", result.ID.String()),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// ExpireOverdue flips quotes past their validity deadline to expired,
// acting as the system employee. It returns the number of quotes expired.
func (s *Service) ExpireOverdue(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = s.quoting.Get().ExpirySweepBatchSize
	}

	now := s.clock.Now()
	expirable := make([]string, 0, 4)
	for _, status := range []lifecycle.Status{lifecycle.QuoteDraft, lifecycle.QuotePendingApproval, lifecycle.QuoteApproved, lifecycle.QuoteSent} {
		expirable = append(expirable, string(status))
	}

	quotes, err := s.repo.FindOverdue(ctx, s.db, now, expirable, batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range quotes {
		quote := quotes[i]
		doc := lifecycle.Document{
			Kind:       lifecycle.KindQuote,
			Status:     quote.Status,
			ApprovedAt: quote.ApprovedAt,
		}
		doc, err := s.machine.Transition(doc, lifecycle.QuoteExpired, lifecycle.RoleEmployee, now)
		if err != nil {
			continue
		}

		prev := string(quote.Status)
		quote.Status = doc.Status
		quote.UpdatedAt = now

		touched, err := s.repo.UpdateGuarded(ctx, s.db, &quote, prev)
		if err != nil {
			return expired, err
		}
		if touched {
			expired++
		}
	}

	if expired > 0 {
		s.log.Info("expired overdue quotes", zap.Int("count", expired))
	}
	return expired, nil
}

// mutateDraft loads the quote and its items under a row lock, applies the
// mutation, recomputes the derived amounts, and persists the quote with a
// status guard. Item and percentage edits only apply to drafts.
func (s *Service) mutateDraft(
	ctx context.Context,
	quoteID string,
	mutate func(tx *gorm.DB, quote *domain.Quote, items []domain.QuoteLineItem) ([]domain.QuoteLineItem, error),
) (*domain.QuoteWithItems, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(quoteID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}

	var result *domain.QuoteWithItems
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote, err := s.repo.FindByIDForUpdate(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if quote == nil {
			return domain.ErrNotFound
		}
		if quote.Status != lifecycle.QuoteDraft {
			return domain.ErrNotEditable
		}

		items, err := s.repo.FindItems(ctx, tx, orgID, id)
		if err != nil {
			return err
		}

		items, err = mutate(tx, quote, items)
		if err != nil {
			return err
		}

		if err := applyTotals(quote, items); err != nil {
			return err
		}
		quote.UpdatedAt = s.clock.Now()

		touched, err := s.repo.UpdateGuarded(ctx, tx, quote, string(lifecycle.QuoteDraft))
		if err != nil {
			return err
		}
		if !touched {
			return lifecycle.ErrConflict
		}

		result = &domain.QuoteWithItems{Quote: *quote, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) buildItem(orgID, quoteID snowflake.ID, input domain.LineItemInput, now time.Time) (*domain.QuoteLineItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrInvalidItem
	}

	unitPrice, err := money.Parse(strings.TrimSpace(input.UnitPrice))
	if err != nil {
		return nil, domain.ErrInvalidItem
	}

	lineTotal, err := pricing.LineTotal(pricing.LineItem{
		UnitPrice:       unitPrice,
		Quantity:        input.Quantity,
		DiscountPercent: input.DiscountPercent,
	})
	if err != nil {
		return nil, domain.ErrInvalidItem
	}

	productID, err := parseOptionalID(input.ProductID)
	if err != nil {
		return nil, domain.ErrInvalidItem
	}

	return &domain.QuoteLineItem{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		QuoteID:         quoteID,
		ProductID:       productID,
		Name:            name,
		UnitPriceCents:  unitPrice.Cents(),
		Quantity:        input.Quantity,
		DiscountPercent: input.DiscountPercent,
		LineTotalCents:  lineTotal.Cents(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func computeTotals(quote domain.Quote, items []domain.QuoteLineItem) (pricing.Totals, error) {
	lineItems := make([]pricing.LineItem, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, pricing.LineItem{
			UnitPrice:       money.FromCents(item.UnitPriceCents),
			Quantity:        item.Quantity,
			DiscountPercent: item.DiscountPercent,
		})
	}
	return pricing.ComputeQuoteTotals(lineItems, quote.DiscountPercent, quote.TaxPercent)
}

func applyTotals(quote *domain.Quote, items []domain.QuoteLineItem) error {
	totals, err := computeTotals(*quote, items)
	if err != nil {
		return err
	}
	setTotals(quote, totals)
	return nil
}

func setTotals(quote *domain.Quote, totals pricing.Totals) {
	quote.SubtotalCents = totals.Subtotal.Cents()
	quote.DiscountAmountCents = totals.DiscountAmount.Cents()
	quote.TaxAmountCents = totals.TaxAmount.Cents()
	quote.TotalCents = totals.Total.Cents()
}

func totalsMatch(cached domain.CachedTotals, totals pricing.Totals) bool {
	return cached.SubtotalCents == totals.Subtotal.Cents() &&
		cached.DiscountAmountCents == totals.DiscountAmount.Cents() &&
		cached.TaxAmountCents == totals.TaxAmount.Cents() &&
		cached.TotalCents == totals.Total.Cents()
}

func parseOptionalID(value string) (*snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(value)
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}
	return &id, nil
}

const timeLayout = "2006-01-02T15:04:05.000000Z07:00"
