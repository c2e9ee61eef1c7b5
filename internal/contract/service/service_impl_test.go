package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/dealdesk/internal/clock"
	"github.com/smallbiznis/dealdesk/internal/config"
	contractdomain "github.com/smallbiznis/dealdesk/internal/contract/domain"
	"github.com/smallbiznis/dealdesk/internal/contract/repository"
	templatedomain "github.com/smallbiznis/dealdesk/internal/contracttemplate/domain"
	"github.com/smallbiznis/dealdesk/internal/lifecycle"
	"github.com/smallbiznis/dealdesk/internal/orgcontext"
	quotedomain "github.com/smallbiznis/dealdesk/internal/quote/domain"
	quoterepository "github.com/smallbiznis/dealdesk/internal/quote/repository"
	quoteservice "github.com/smallbiznis/dealdesk/internal/quote/service"
	"github.com/smallbiznis/dealdesk/pkg/db"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type allowAllGate struct{}

func (allowAllGate) Can(action string, role lifecycle.Role) bool { return true }

type templateStub struct {
	templates map[string]*templatedomain.ContractTemplate
}

func (s *templateStub) Create(ctx context.Context, req templatedomain.CreateRequest) (*templatedomain.ContractTemplate, error) {
	return nil, nil
}

func (s *templateStub) List(ctx context.Context, req templatedomain.ListRequest) ([]templatedomain.ContractTemplate, error) {
	return nil, nil
}

func (s *templateStub) Get(ctx context.Context, templateID string) (*templatedomain.ContractTemplate, error) {
	tmpl, ok := s.templates[templateID]
	if !ok {
		return nil, templatedomain.ErrNotFound
	}
	return tmpl, nil
}

func (s *templateStub) Update(ctx context.Context, req templatedomain.UpdateRequest) (*templatedomain.ContractTemplate, error) {
	return nil, nil
}

func (s *templateStub) Delete(ctx context.Context, templateID string) error { return nil }

type testEnv struct {
	contracts contractdomain.Service
	quotes    quotedomain.Service
	templates *templateStub
	clock     *clock.FakeClock
	db        *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&contractdomain.Contract{},
		&quotedomain.Quote{},
		&quotedomain.QuoteLineItem{},
	); err != nil {
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

	quoteSvc := quoteservice.New(quoteservice.Params{
		DB:      dbConn,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		Quoting: holder,
		Gate:    allowAllGate{},
		Repo:    quoterepository.Provide(),
	})

	templates := &templateStub{templates: map[string]*templatedomain.ContractTemplate{}}

	contractSvc := New(Params{
		DB:          dbConn,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Gate:        allowAllGate{},
		Repo:        repository.Provide(),
		QuoteSvc:    quoteSvc,
		TemplateSvc: templates,
	})

	return &testEnv{
		contracts: contractSvc,
		quotes:    quoteSvc,
		templates: templates,
		clock:     fake,
		db:        dbConn,
	}
}

func testCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), 42)
}

func acceptedQuote(t *testing.T, env *testEnv) *quotedomain.QuoteWithItems {
	t.Helper()

	quote, err := env.quotes.CreateQuote(testCtx(), quotedomain.CreateQuoteRequest{
		Title: "Annual plan",
		Items: []quotedomain.LineItemInput{
			{Name: "Platform fee", UnitPrice: "1200.00", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("failed to create quote: %v", err)
	}

	for _, to := range []lifecycle.Status{lifecycle.QuoteSent, lifecycle.QuoteAccepted} {
		if _, err := env.quotes.Transition(testCtx(), quotedomain.TransitionQuoteRequest{
			QuoteID:  quote.ID.String(),
			ToStatus: to,
			Role:     lifecycle.RoleEmployee,
		}); err != nil {
			t.Fatalf("failed to reach %s: %v", to, err)
		}
	}

	got, err := env.quotes.GetQuote(testCtx(), quotedomain.GetQuoteRequest{QuoteID: quote.ID.String()})
	if err != nil {
		t.Fatalf("failed to reload quote: %v", err)
	}
	return got
}

func TestCreateContractFromAcceptedQuote(t *testing.T) {
	env := newTestEnv(t)
	quote := acceptedQuote(t, env)

	contract, err := env.contracts.CreateContract(testCtx(), contractdomain.CreateContractRequest{
		QuoteID: quote.ID.String(),
	})
	if err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}

	assert.Equal(t, lifecycle.ContractDraft, contract.Status)
	assert.Equal(t, "Annual plan", contract.Title)
	if assert.NotNil(t, contract.QuoteID) {
		assert.Equal(t, quote.ID, *contract.QuoteID)
	}
	assert.Equal(t, quote.TotalCents, contract.ValueCents)
}

func TestCreateContractRejectsUnacceptedQuote(t *testing.T) {
	env := newTestEnv(t)

	quote, err := env.quotes.CreateQuote(testCtx(), quotedomain.CreateQuoteRequest{
		Title: "Draft deal",
		Items: []quotedomain.LineItemInput{{Name: "Fee", UnitPrice: "10.00", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("failed to create quote: %v", err)
	}

	_, err = env.contracts.CreateContract(testCtx(), contractdomain.CreateContractRequest{
		QuoteID: quote.ID.String(),
	})
	assert.ErrorIs(t, err, contractdomain.ErrInvalidQuote)
}

func TestCreateContractFromTemplate(t *testing.T) {
	env := newTestEnv(t)
	env.templates.templates["9001"] = &templatedomain.ContractTemplate{
		ID:       snowflake.ID(9001),
		Body:     "Standard terms apply.",
		IsActive: true,
	}

	contract, err := env.contracts.CreateContract(testCtx(), contractdomain.CreateContractRequest{
		Title:      "Master services agreement",
		TemplateID: "9001",
	})
	if err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}
	assert.Equal(t, "Standard terms apply.", contract.Body)
	if assert.NotNil(t, contract.TemplateID) {
		assert.Equal(t, snowflake.ID(9001), *contract.TemplateID)
	}

	_, err = env.contracts.CreateContract(testCtx(), contractdomain.CreateContractRequest{
		Title:      "Broken",
		TemplateID: "9999",
	})
	assert.ErrorIs(t, err, templatedomain.ErrNotFound)
}

func TestCreateContractRejectsInactiveTemplate(t *testing.T) {
	env := newTestEnv(t)
	env.templates.templates["9002"] = &templatedomain.ContractTemplate{
		ID:   snowflake.ID(9002),
		Body: "Retired terms.",
	}

	_, err := env.contracts.CreateContract(testCtx(), contractdomain.CreateContractRequest{
		Title:      "Out of date",
		TemplateID: "9002",
	})
	assert.ErrorIs(t, err, contractdomain.ErrTemplateInactive)
}

func TestCreateContractRequiresTitle(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.contracts.CreateContract(testCtx(), contractdomain.CreateContractRequest{})
	assert.ErrorIs(t, err, contractdomain.ErrInvalidTitle)
}

func TestContractFullLifecycle(t *testing.T) {
	env := newTestEnv(t)

	contract, err := env.contracts.CreateContract(testCtx(), contractdomain.CreateContractRequest{
		Title: "Support agreement",
	})
	if err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}

	step := func(to lifecycle.Status) *contractdomain.Contract {
		t.Helper()
		got, err := env.contracts.Transition(testCtx(), contractdomain.TransitionContractRequest{
			ContractID: contract.ID.String(),
			ToStatus:   to,
			Role:       lifecycle.RoleEmployee,
		})
		if err != nil {
			t.Fatalf("failed to reach %s: %v", to, err)
		}
		return got
	}

	step(lifecycle.ContractPendingReview)

	// Reviewer sends it back, then it goes through again.
	sentBack := step(lifecycle.ContractDraft)
	assert.Nil(t, sentBack.ApprovedAt)

	step(lifecycle.ContractPendingReview)

	approvalTime := env.clock.Now()
	approved := step(lifecycle.ContractApproved)
	if assert.NotNil(t, approved.ApprovedAt) {
		assert.Equal(t, approvalTime, approved.ApprovedAt.UTC())
	}

	sent := step(lifecycle.ContractSent)
	assert.Nil(t, sent.SignedAt)

	env.clock.Advance(48 * time.Hour)
	signed := step(lifecycle.ContractSigned)
	if assert.NotNil(t, signed.SignedAt) {
		assert.Equal(t, env.clock.Now(), signed.SignedAt.UTC())
		assert.True(t, signed.SignedAt.After(*signed.ApprovedAt))
	}
}

func TestContractTransitionRejectsCustomer(t *testing.T) {
	env := newTestEnv(t)

	contract, err := env.contracts.CreateContract(testCtx(), contractdomain.CreateContractRequest{
		Title: "NDA",
	})
	if err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}

	_, err = env.contracts.Transition(testCtx(), contractdomain.TransitionContractRequest{
		ContractID: contract.ID.String(),
		ToStatus:   lifecycle.ContractPendingReview,
		Role:       lifecycle.RoleCustomer,
	})
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)
}

func TestContractCancelFromAnyNonTerminal(t *testing.T) {
	env := newTestEnv(t)

	contract, err := env.contracts.CreateContract(testCtx(), contractdomain.CreateContractRequest{
		Title: "Cancelable",
	})
	if err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}

	cancelled, err := env.contracts.Transition(testCtx(), contractdomain.TransitionContractRequest{
		ContractID: contract.ID.String(),
		ToStatus:   lifecycle.ContractCancelled,
		Role:       lifecycle.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}
	assert.Equal(t, lifecycle.ContractCancelled, cancelled.Status)

	// Terminal: no further moves.
	_, err = env.contracts.Transition(testCtx(), contractdomain.TransitionContractRequest{
		ContractID: contract.ID.String(),
		ToStatus:   lifecycle.ContractDraft,
		Role:       lifecycle.RoleEmployee,
	})
	assert.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
}

func TestUpdateContractDraftOnly(t *testing.T) {
	env := newTestEnv(t)

	contract, err := env.contracts.CreateContract(testCtx(), contractdomain.CreateContractRequest{
		Title: "Editable",
	})
	if err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}

	newTitle := "Editable v2"
	updated, err := env.contracts.UpdateContract(testCtx(), contractdomain.UpdateContractRequest{
		ContractID: contract.ID.String(),
		Title:      &newTitle,
	})
	if err != nil {
		t.Fatalf("failed to update: %v", err)
	}
	assert.Equal(t, "Editable v2", updated.Title)

	if _, err := env.contracts.Transition(testCtx(), contractdomain.TransitionContractRequest{
		ContractID: contract.ID.String(),
		ToStatus:   lifecycle.ContractPendingReview,
		Role:       lifecycle.RoleEmployee,
	}); err != nil {
		t.Fatalf("failed to submit: %v", err)
	}

	_, err = env.contracts.UpdateContract(testCtx(), contractdomain.UpdateContractRequest{
		ContractID: contract.ID.String(),
		Title:      &newTitle,
	})
	assert.ErrorIs(t, err, contractdomain.ErrNotEditable)
}

func TestContractExpireOverdue(t *testing.T) {
	env := newTestEnv(t)

	end := env.clock.Now().Add(24 * time.Hour)
	contract, err := env.contracts.CreateContract(testCtx(), contractdomain.CreateContractRequest{
		Title:   "Expiring",
		EndDate: &end,
	})
	if err != nil {
		t.Fatalf("failed to create contract: %v", err)
	}

	expired, err := env.contracts.ExpireOverdue(testCtx(), 0)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	assert.Equal(t, 0, expired)

	env.clock.Advance(48 * time.Hour)
	expired, err = env.contracts.ExpireOverdue(testCtx(), 0)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	assert.Equal(t, 1, expired)

	got, err := env.contracts.GetContract(testCtx(), contract.ID.String())
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	assert.Equal(t, lifecycle.ContractExpired, got.Status)
}

func TestCreateContractRejectsInvertedDates(t *testing.T) {
	env := newTestEnv(t)

	start := env.clock.Now()
	end := start.Add(-time.Hour)
	_, err := env.contracts.CreateContract(testCtx(), contractdomain.CreateContractRequest{
		Title:     "Backwards",
		StartDate: &start,
		EndDate:   &end,
	})
	assert.ErrorIs(t, err, contractdomain.ErrInvalidDates)
}
