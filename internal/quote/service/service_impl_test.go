package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealdesk/internal/clock"
	"github.com/smallbiznis/dealdesk/internal/config"
	"github.com/smallbiznis/dealdesk/internal/lifecycle"
	"github.com/smallbiznis/dealdesk/internal/orgcontext"
	"github.com/smallbiznis/dealdesk/internal/quote/domain"
	"github.com/smallbiznis/dealdesk/internal/quote/repository"
	"github.com/smallbiznis/dealdesk/pkg/db"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type allowAllGate struct{}

func (allowAllGate) Can(action string, role lifecycle.Role) bool { return true }

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.Quote{}, &domain.QuoteLineItem{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	holder, err := config.NewQuotingConfigHolder()
	if err != nil {
		t.Fatalf("failed to build quoting config: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:      dbConn,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		Quoting: holder,
		Gate:    allowAllGate{},
		Repo:    repository.Provide(),
	})
	return svc, fake
}

func testCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), 42)
}

func seedQuote(t *testing.T, svc domain.Service) *domain.QuoteWithItems {
	t.Helper()

	quote, err := svc.CreateQuote(testCtx(), domain.CreateQuoteRequest{
		Title:           "Q2 renewal",
		DiscountPercent: 5,
		TaxPercent:      floatPtr(18),
		Items: []domain.LineItemInput{
			{Name: "Seat license", UnitPrice: "100.00", Quantity: 2},
			{Name: "Onboarding", UnitPrice: "50.00", Quantity: 1, DiscountPercent: 10},
		},
	})
	if err != nil {
		t.Fatalf("failed to create quote: %v", err)
	}
	return quote
}

func floatPtr(v float64) *float64 { return &v }

func TestCreateQuoteComputesTotals(t *testing.T) {
	svc, _ := newTestService(t)

	quote := seedQuote(t, svc)

	assert.Equal(t, lifecycle.QuoteDraft, quote.Status)
	assert.Len(t, quote.Items, 2)
	// 100.00*2 + 50.00*0.9 = 245.00
	assert.Equal(t, int64(24500), quote.SubtotalCents)
	assert.Equal(t, int64(1225), quote.DiscountAmountCents)
	// tax 18% of 232.75 = 41.895 -> 41.90 half-to-even
	assert.Equal(t, int64(4190), quote.TaxAmountCents)
	assert.Equal(t, int64(27465), quote.TotalCents)
}

func TestComputeTotalsMatchesStoredAmounts(t *testing.T) {
	svc, _ := newTestService(t)

	quote := seedQuote(t, svc)

	totals, err := svc.ComputeTotals(testCtx(), domain.GetQuoteRequest{QuoteID: quote.ID.String()})
	if err != nil {
		t.Fatalf("failed to compute totals: %v", err)
	}
	assert.Equal(t, quote.SubtotalCents, totals.SubtotalCents)
	assert.Equal(t, quote.DiscountAmountCents, totals.DiscountAmountCents)
	assert.Equal(t, quote.TaxAmountCents, totals.TaxAmountCents)
	assert.Equal(t, quote.TotalCents, totals.TotalCents)

	_, err = svc.ComputeTotals(testCtx(), domain.GetQuoteRequest{QuoteID: "84"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateQuoteRejectsBadItems(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateQuote(testCtx(), domain.CreateQuoteRequest{
		Items: []domain.LineItemInput{{Name: "Bad", UnitPrice: "10.00", Quantity: 0}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidItem)

	_, err = svc.CreateQuote(testCtx(), domain.CreateQuoteRequest{DiscountPercent: 120})
	assert.ErrorIs(t, err, domain.ErrInvalidPercent)
}

func TestCreateQuoteRequiresOrg(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateQuote(context.Background(), domain.CreateQuoteRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestItemMutationsRecomputeTotals(t *testing.T) {
	svc, _ := newTestService(t)
	quote := seedQuote(t, svc)

	updated, err := svc.AddItem(testCtx(), domain.AddItemRequest{
		QuoteID: quote.ID.String(),
		Item:    domain.LineItemInput{Name: "Support", UnitPrice: "10.00", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("failed to add item: %v", err)
	}
	assert.Len(t, updated.Items, 3)
	assert.Equal(t, int64(25500), updated.SubtotalCents)

	target := updated.Items[2]
	updated, err = svc.UpdateItem(testCtx(), domain.UpdateItemRequest{
		QuoteID: quote.ID.String(),
		ItemID:  target.ID.String(),
		Item:    domain.LineItemInput{Name: "Support", UnitPrice: "20.00", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("failed to update item: %v", err)
	}
	assert.Equal(t, int64(26500), updated.SubtotalCents)

	updated, err = svc.RemoveItem(testCtx(), domain.RemoveItemRequest{
		QuoteID: quote.ID.String(),
		ItemID:  target.ID.String(),
	})
	if err != nil {
		t.Fatalf("failed to remove item: %v", err)
	}
	assert.Len(t, updated.Items, 2)
	assert.Equal(t, int64(24500), updated.SubtotalCents)
}

func TestItemMutationRequiresDraft(t *testing.T) {
	svc, _ := newTestService(t)
	quote := seedQuote(t, svc)

	_, err := svc.Transition(testCtx(), domain.TransitionQuoteRequest{
		QuoteID:  quote.ID.String(),
		ToStatus: lifecycle.QuotePendingApproval,
		Role:     lifecycle.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("failed to submit quote: %v", err)
	}

	_, err = svc.AddItem(testCtx(), domain.AddItemRequest{
		QuoteID: quote.ID.String(),
		Item:    domain.LineItemInput{Name: "Late", UnitPrice: "1.00", Quantity: 1},
	})
	assert.ErrorIs(t, err, domain.ErrNotEditable)
}

func TestTransitionHappyPath(t *testing.T) {
	svc, fake := newTestService(t)
	quote := seedQuote(t, svc)

	submitted, err := svc.Transition(testCtx(), domain.TransitionQuoteRequest{
		QuoteID:  quote.ID.String(),
		ToStatus: lifecycle.QuotePendingApproval,
		Role:     lifecycle.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("failed to submit: %v", err)
	}
	assert.Equal(t, lifecycle.QuotePendingApproval, submitted.Status)
	assert.Nil(t, submitted.ApprovedAt)

	fake.Advance(time.Hour)
	approved, err := svc.Transition(testCtx(), domain.TransitionQuoteRequest{
		QuoteID:  quote.ID.String(),
		ToStatus: lifecycle.QuoteApproved,
		Role:     lifecycle.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("failed to approve: %v", err)
	}
	if assert.NotNil(t, approved.ApprovedAt) {
		assert.Equal(t, fake.Now(), approved.ApprovedAt.UTC())
	}

	sent, err := svc.Transition(testCtx(), domain.TransitionQuoteRequest{
		QuoteID:  quote.ID.String(),
		ToStatus: lifecycle.QuoteSent,
		Role:     lifecycle.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("failed to send: %v", err)
	}
	if assert.NotNil(t, sent.ValidUntil) {
		assert.Equal(t, fake.Now().AddDate(0, 0, 30), sent.ValidUntil.UTC())
	}

	accepted, err := svc.Transition(testCtx(), domain.TransitionQuoteRequest{
		QuoteID:  quote.ID.String(),
		ToStatus: lifecycle.QuoteAccepted,
		Role:     lifecycle.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("failed to accept: %v", err)
	}
	assert.Equal(t, lifecycle.QuoteAccepted, accepted.Status)
}

func TestTransitionIllegalMove(t *testing.T) {
	svc, _ := newTestService(t)
	quote := seedQuote(t, svc)

	_, err := svc.Transition(testCtx(), domain.TransitionQuoteRequest{
		QuoteID:  quote.ID.String(),
		ToStatus: lifecycle.QuoteAccepted,
		Role:     lifecycle.RoleEmployee,
	})
	assert.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
}

func TestTransitionUnauthorizedRole(t *testing.T) {
	svc, _ := newTestService(t)
	quote := seedQuote(t, svc)

	_, err := svc.Transition(testCtx(), domain.TransitionQuoteRequest{
		QuoteID:  quote.ID.String(),
		ToStatus: lifecycle.QuotePendingApproval,
		Role:     lifecycle.RoleCustomer,
	})
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)

	got, err := svc.GetQuote(testCtx(), domain.GetQuoteRequest{QuoteID: quote.ID.String()})
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	assert.Equal(t, lifecycle.QuoteDraft, got.Status)
}

func TestTransitionStaleTotals(t *testing.T) {
	svc, _ := newTestService(t)
	quote := seedQuote(t, svc)

	// Another session edits the quote after our read.
	_, err := svc.AddItem(testCtx(), domain.AddItemRequest{
		QuoteID: quote.ID.String(),
		Item:    domain.LineItemInput{Name: "Rider", UnitPrice: "99.00", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("failed to add item: %v", err)
	}

	_, err = svc.Transition(testCtx(), domain.TransitionQuoteRequest{
		QuoteID:  quote.ID.String(),
		ToStatus: lifecycle.QuotePendingApproval,
		Role:     lifecycle.RoleEmployee,
		CachedTotals: &domain.CachedTotals{
			SubtotalCents:       quote.SubtotalCents,
			DiscountAmountCents: quote.DiscountAmountCents,
			TaxAmountCents:      quote.TaxAmountCents,
			TotalCents:          quote.TotalCents,
		},
	})
	assert.ErrorIs(t, err, lifecycle.ErrStaleTotals)

	got, err := svc.GetQuote(testCtx(), domain.GetQuoteRequest{QuoteID: quote.ID.String()})
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	assert.Equal(t, lifecycle.QuoteDraft, got.Status)
}

func TestTransitionExpectedStatusConflict(t *testing.T) {
	svc, _ := newTestService(t)
	quote := seedQuote(t, svc)

	_, err := svc.Transition(testCtx(), domain.TransitionQuoteRequest{
		QuoteID:  quote.ID.String(),
		ToStatus: lifecycle.QuotePendingApproval,
		Role:     lifecycle.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("failed to submit: %v", err)
	}

	// A second actor still believes the quote is a draft.
	_, err = svc.Transition(testCtx(), domain.TransitionQuoteRequest{
		QuoteID:        quote.ID.String(),
		ToStatus:       lifecycle.QuotePendingApproval,
		Role:           lifecycle.RoleEmployee,
		ExpectedStatus: lifecycle.QuoteDraft,
	})
	if !errors.Is(err, lifecycle.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestTransitionNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Transition(testCtx(), domain.TransitionQuoteRequest{
		QuoteID:  "123456789",
		ToStatus: lifecycle.QuotePendingApproval,
		Role:     lifecycle.RoleEmployee,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpireOverdue(t *testing.T) {
	svc, fake := newTestService(t)
	quote := seedQuote(t, svc)

	for _, to := range []lifecycle.Status{lifecycle.QuotePendingApproval, lifecycle.QuoteApproved, lifecycle.QuoteSent} {
		if _, err := svc.Transition(testCtx(), domain.TransitionQuoteRequest{
			QuoteID:  quote.ID.String(),
			ToStatus: to,
			Role:     lifecycle.RoleEmployee,
		}); err != nil {
			t.Fatalf("failed to reach %s: %v", to, err)
		}
	}

	// Not yet due.
	expired, err := svc.ExpireOverdue(testCtx(), 0)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	assert.Equal(t, 0, expired)

	fake.Advance(31 * 24 * time.Hour)
	expired, err = svc.ExpireOverdue(testCtx(), 0)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	assert.Equal(t, 1, expired)

	got, err := svc.GetQuote(testCtx(), domain.GetQuoteRequest{QuoteID: quote.ID.String()})
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	assert.Equal(t, lifecycle.QuoteExpired, got.Status)

	// Terminal quotes are not swept again.
	expired, err = svc.ExpireOverdue(testCtx(), 0)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	assert.Equal(t, 0, expired)
}

func TestListQuotesFiltersByStatus(t *testing.T) {
	svc, _ := newTestService(t)
	seedQuote(t, svc)
	second := seedQuote(t, svc)

	if _, err := svc.Transition(testCtx(), domain.TransitionQuoteRequest{
		QuoteID:  second.ID.String(),
		ToStatus: lifecycle.QuotePendingApproval,
		Role:     lifecycle.RoleEmployee,
	}); err != nil {
		t.Fatalf("failed to submit: %v", err)
	}

	resp, err := svc.ListQuotes(testCtx(), domain.ListQuoteRequest{Status: lifecycle.QuotePendingApproval})
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if assert.Len(t, resp.Quotes, 1) {
		assert.Equal(t, second.ID, resp.Quotes[0].ID)
	}

	_, err = svc.ListQuotes(testCtx(), domain.ListQuoteRequest{Status: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestUpdatePercentages(t *testing.T) {
	svc, _ := newTestService(t)
	quote := seedQuote(t, svc)

	updated, err := svc.UpdatePercentages(testCtx(), domain.UpdatePercentagesRequest{
		QuoteID:         quote.ID.String(),
		DiscountPercent: floatPtr(0),
		TaxPercent:      floatPtr(10),
	})
	if err != nil {
		t.Fatalf("failed to update percentages: %v", err)
	}
	assert.Equal(t, int64(24500), updated.SubtotalCents)
	assert.Equal(t, int64(0), updated.DiscountAmountCents)
	assert.Equal(t, int64(2450), updated.TaxAmountCents)
	assert.Equal(t, int64(26950), updated.TotalCents)

	_, err = svc.UpdatePercentages(testCtx(), domain.UpdatePercentagesRequest{
		QuoteID:    quote.ID.String(),
		TaxPercent: floatPtr(101),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPercent)
}
