package lifecycle

import "time"

// Document is the lifecycle-relevant projection of a quote or contract.
// Services map their persistence models in and out of it, so the machine
// stays a pure reducer with no storage concern.
type Document struct {
	Kind       Kind
	Status     Status
	ApprovedAt *time.Time
	SignedAt   *time.Time
}

// Authorizer answers whether a role may perform an action. The zero check
// in the machine is the transition table's required role; the authorizer is
// the fail-closed gate consulted on top of it.
type Authorizer interface {
	Can(action string, role Role) bool
}

// Machine applies one kind's transition table. It holds no mutable state;
// the only state is the document passed in and returned.
type Machine struct {
	spec *Spec
	auth Authorizer
}

func NewMachine(spec *Spec, auth Authorizer) *Machine {
	return &Machine{spec: spec, auth: auth}
}

func (m *Machine) Spec() *Spec { return m.spec }

// Transition validates the requested move and returns the updated document.
// On any error the input document is returned unchanged.
func (m *Machine) Transition(doc Document, to Status, role Role, now time.Time) (Document, error) {
	if !m.spec.Known(doc.Status) || !m.spec.Known(to) {
		return doc, ErrUnknownStatus
	}

	required, ok := m.spec.RequiredRole(doc.Status, to)
	if !ok {
		return doc, ErrIllegalTransition
	}
	if !role.Satisfies(required) {
		return doc, ErrUnauthorized
	}
	if m.auth != nil && !m.auth.Can(string(m.spec.DocumentKind())+".transition", role) {
		return doc, ErrUnauthorized
	}

	updated := doc
	updated.Status = to

	if effect, ok := m.spec.EffectOnEnter(to); ok {
		stamp := now.UTC()
		switch effect {
		case EffectStampApprovedAt:
			updated.ApprovedAt = &stamp
		case EffectStampSignedAt:
			updated.SignedAt = &stamp
		}
	}

	return updated, nil
}
