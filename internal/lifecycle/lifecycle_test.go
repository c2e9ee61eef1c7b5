package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type allowAll struct{}

func (allowAll) Can(action string, role Role) bool {
	_ = action
	_ = role
	return true
}

type denyAll struct{}

func (denyAll) Can(action string, role Role) bool {
	_ = action
	_ = role
	return false
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestQuoteTransitions(t *testing.T) {
	m := NewMachine(QuoteSpec(), allowAll{})

	doc := Document{Kind: KindQuote, Status: QuoteDraft}

	doc, err := m.Transition(doc, QuotePendingApproval, RoleEmployee, testNow)
	assert.NoError(t, err)
	assert.Equal(t, QuotePendingApproval, doc.Status)
	assert.Nil(t, doc.ApprovedAt)

	doc, err = m.Transition(doc, QuoteApproved, RoleEmployee, testNow)
	assert.NoError(t, err)
	assert.Equal(t, QuoteApproved, doc.Status)
	if assert.NotNil(t, doc.ApprovedAt) {
		assert.Equal(t, testNow, *doc.ApprovedAt)
	}

	doc, err = m.Transition(doc, QuoteSent, RoleEmployee, testNow)
	assert.NoError(t, err)
	doc, err = m.Transition(doc, QuoteAccepted, RoleEmployee, testNow)
	assert.NoError(t, err)
	assert.Equal(t, QuoteAccepted, doc.Status)
	assert.Nil(t, doc.SignedAt)
}

func TestQuoteDraftToSentShortcut(t *testing.T) {
	m := NewMachine(QuoteSpec(), allowAll{})

	doc := Document{Kind: KindQuote, Status: QuoteDraft}
	doc, err := m.Transition(doc, QuoteSent, RoleEmployee, testNow)
	assert.NoError(t, err)
	assert.Equal(t, QuoteSent, doc.Status)
	assert.Nil(t, doc.ApprovedAt)
}

func TestQuoteIllegalTransition(t *testing.T) {
	m := NewMachine(QuoteSpec(), allowAll{})

	// sent → pending_approval is not in the table
	doc := Document{Kind: KindQuote, Status: QuoteSent}
	out, err := m.Transition(doc, QuotePendingApproval, RoleEmployee, testNow)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, doc, out)
}

func TestQuoteExpireFromAnyNonTerminal(t *testing.T) {
	m := NewMachine(QuoteSpec(), allowAll{})

	for _, from := range []Status{QuoteDraft, QuotePendingApproval, QuoteApproved, QuoteSent} {
		doc := Document{Kind: KindQuote, Status: from}
		out, err := m.Transition(doc, QuoteExpired, RoleEmployee, testNow)
		assert.NoError(t, err, "from %s", from)
		assert.Equal(t, QuoteExpired, out.Status)
	}

	for _, from := range []Status{QuoteRejected, QuoteAccepted, QuoteExpired} {
		doc := Document{Kind: KindQuote, Status: from}
		_, err := m.Transition(doc, QuoteExpired, RoleEmployee, testNow)
		assert.ErrorIs(t, err, ErrIllegalTransition, "from %s", from)
	}
}

func TestContractTransitions(t *testing.T) {
	m := NewMachine(ContractSpec(), allowAll{})

	doc := Document{Kind: KindContract, Status: ContractDraft}

	doc, err := m.Transition(doc, ContractPendingReview, RoleEmployee, testNow)
	assert.NoError(t, err)

	// send back to draft, then forward again
	doc, err = m.Transition(doc, ContractDraft, RoleEmployee, testNow)
	assert.NoError(t, err)
	doc, err = m.Transition(doc, ContractPendingReview, RoleEmployee, testNow)
	assert.NoError(t, err)

	doc, err = m.Transition(doc, ContractApproved, RoleEmployee, testNow)
	assert.NoError(t, err)
	assert.NotNil(t, doc.ApprovedAt)

	doc, err = m.Transition(doc, ContractSent, RoleEmployee, testNow)
	assert.NoError(t, err)
	assert.Equal(t, ContractSent, doc.Status)
	assert.Nil(t, doc.SignedAt)

	later := testNow.Add(48 * time.Hour)
	doc, err = m.Transition(doc, ContractSigned, RoleEmployee, later)
	assert.NoError(t, err)
	if assert.NotNil(t, doc.SignedAt) {
		assert.Equal(t, later, *doc.SignedAt)
	}
}

func TestContractUnauthorizedRole(t *testing.T) {
	m := NewMachine(ContractSpec(), allowAll{})

	doc := Document{Kind: KindContract, Status: ContractPendingReview}
	out, err := m.Transition(doc, ContractApproved, RoleCustomer, testNow)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, doc, out)

	_, err = m.Transition(doc, ContractApproved, RoleGuest, testNow)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestContractCancelFromAnyNonTerminal(t *testing.T) {
	m := NewMachine(ContractSpec(), allowAll{})

	for _, from := range []Status{ContractDraft, ContractPendingReview, ContractApproved, ContractSent} {
		doc := Document{Kind: KindContract, Status: from}
		out, err := m.Transition(doc, ContractCancelled, RoleEmployee, testNow)
		assert.NoError(t, err, "from %s", from)
		assert.Equal(t, ContractCancelled, out.Status)
	}

	for _, from := range []Status{ContractSigned, ContractCancelled, ContractExpired} {
		doc := Document{Kind: KindContract, Status: from}
		_, err := m.Transition(doc, ContractCancelled, RoleEmployee, testNow)
		assert.ErrorIs(t, err, ErrIllegalTransition, "from %s", from)
	}
}

func TestGateFailClosed(t *testing.T) {
	m := NewMachine(QuoteSpec(), denyAll{})

	doc := Document{Kind: KindQuote, Status: QuoteDraft}
	_, err := m.Transition(doc, QuotePendingApproval, RoleEmployee, testNow)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUnknownStatus(t *testing.T) {
	m := NewMachine(QuoteSpec(), allowAll{})

	doc := Document{Kind: KindQuote, Status: Status("bogus")}
	_, err := m.Transition(doc, QuoteSent, RoleEmployee, testNow)
	assert.ErrorIs(t, err, ErrUnknownStatus)

	doc = Document{Kind: KindQuote, Status: QuoteDraft}
	_, err = m.Transition(doc, ContractSigned, RoleEmployee, testNow)
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
