// Package lifecycle governs the status transitions of commercial documents.
// Legal transitions are table data per document kind, so quotes and
// contracts share one engine and the tables stay the single source of truth
// for legality.
package lifecycle

// Status is a document lifecycle state. The string values are persisted and
// must not change.
type Status string

// Kind identifies a document family with its own transition table.
type Kind string

const (
	KindQuote    Kind = "quote"
	KindContract Kind = "contract"
)

// Quote statuses.
const (
	QuoteDraft           Status = "draft"
	QuotePendingApproval Status = "pending_approval"
	QuoteApproved        Status = "approved"
	QuoteRejected        Status = "rejected"
	QuoteSent            Status = "sent"
	QuoteAccepted        Status = "accepted"
	QuoteExpired         Status = "expired"
)

// Contract statuses.
const (
	ContractDraft           Status = "draft"
	ContractPendingReview   Status = "pending_review"
	ContractPendingApproval Status = "pending_approval"
	ContractApproved        Status = "approved"
	ContractSent            Status = "sent"
	ContractSigned          Status = "signed"
	ContractExpired         Status = "expired"
	ContractCancelled       Status = "cancelled"
)

// Effect is a side effect applied on entering a status.
type Effect string

const (
	EffectStampApprovedAt Effect = "stamp_approved_at"
	EffectStampSignedAt   Effect = "stamp_signed_at"
)

// Transition is a (from, to) pair looked up in a Spec table.
type Transition struct {
	From Status
	To   Status
}

// Spec is the declarative transition table for one document kind.
type Spec struct {
	kind        Kind
	statuses    map[Status]bool
	terminal    map[Status]bool
	transitions map[Transition]Role
	effects     map[Status]Effect
}

func (s *Spec) DocumentKind() Kind { return s.kind }

// Known reports whether the status belongs to this kind's vocabulary.
func (s *Spec) Known(status Status) bool { return s.statuses[status] }

// Terminal reports whether no transition may leave the status.
func (s *Spec) Terminal(status Status) bool { return s.terminal[status] }

// RequiredRole returns the role required for a transition, if the
// transition is in the table at all.
func (s *Spec) RequiredRole(from, to Status) (Role, bool) {
	role, ok := s.transitions[Transition{From: from, To: to}]
	return role, ok
}

// EffectOnEnter returns the side effect stamped on entering a status.
func (s *Spec) EffectOnEnter(to Status) (Effect, bool) {
	effect, ok := s.effects[to]
	return effect, ok
}

// QuoteSpec builds the quote transition table. Draft quotes may be sent
// without going through approval.
func QuoteSpec() *Spec {
	s := newSpec(KindQuote,
		[]Status{QuoteDraft, QuotePendingApproval, QuoteApproved, QuoteRejected, QuoteSent, QuoteAccepted, QuoteExpired},
		[]Status{QuoteRejected, QuoteAccepted, QuoteExpired},
	)
	s.allow(QuoteDraft, QuotePendingApproval, RoleEmployee)
	s.allow(QuoteDraft, QuoteSent, RoleEmployee)
	s.allow(QuotePendingApproval, QuoteApproved, RoleEmployee)
	s.allow(QuotePendingApproval, QuoteRejected, RoleEmployee)
	s.allow(QuoteApproved, QuoteSent, RoleEmployee)
	s.allow(QuoteSent, QuoteAccepted, RoleEmployee)
	s.allowFromAnyNonTerminal(QuoteExpired, RoleEmployee)

	s.effects[QuoteApproved] = EffectStampApprovedAt
	return s
}

// ContractSpec builds the contract transition table.
func ContractSpec() *Spec {
	s := newSpec(KindContract,
		[]Status{ContractDraft, ContractPendingReview, ContractPendingApproval, ContractApproved, ContractSent, ContractSigned, ContractExpired, ContractCancelled},
		[]Status{ContractSigned, ContractCancelled, ContractExpired},
	)
	s.allow(ContractDraft, ContractPendingReview, RoleEmployee)
	s.allow(ContractPendingReview, ContractDraft, RoleEmployee) // send back
	s.allow(ContractPendingReview, ContractApproved, RoleEmployee)
	s.allow(ContractApproved, ContractSent, RoleEmployee)
	s.allow(ContractSent, ContractSigned, RoleEmployee)
	s.allowFromAnyNonTerminal(ContractCancelled, RoleEmployee)
	s.allowFromAnyNonTerminal(ContractExpired, RoleEmployee)

	s.effects[ContractApproved] = EffectStampApprovedAt
	s.effects[ContractSigned] = EffectStampSignedAt
	return s
}

func newSpec(kind Kind, statuses, terminal []Status) *Spec {
	s := &Spec{
		kind:        kind,
		statuses:    make(map[Status]bool, len(statuses)),
		terminal:    make(map[Status]bool, len(terminal)),
		transitions: make(map[Transition]Role),
		effects:     make(map[Status]Effect),
	}
	for _, status := range statuses {
		s.statuses[status] = true
	}
	for _, status := range terminal {
		s.terminal[status] = true
	}
	return s
}

func (s *Spec) allow(from, to Status, required Role) {
	s.transitions[Transition{From: from, To: to}] = required
}

func (s *Spec) allowFromAnyNonTerminal(to Status, required Role) {
	for status := range s.statuses {
		if s.terminal[status] || status == to {
			continue
		}
		s.allow(status, to, required)
	}
}
