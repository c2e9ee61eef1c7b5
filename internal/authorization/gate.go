package authorization

import "github.com/smallbiznis/dealdesk/internal/lifecycle"

// transitionActions are the document actions the gate recognizes. Anything
// else is denied.
var transitionActions = map[string]lifecycle.Role{
	ActionQuoteTransition:    lifecycle.RoleEmployee,
	ActionContractTransition: lifecycle.RoleEmployee,
}

// RoleGate is the coarse session-role gate consulted by the lifecycle
// machine. It denies unknown actions and unknown roles; capability checks
// for individual users go through the casbin Service instead.
type RoleGate struct{}

func NewRoleGate() RoleGate { return RoleGate{} }

func (RoleGate) Can(action string, role lifecycle.Role) bool {
	required, ok := transitionActions[action]
	if !ok {
		return false
	}
	return role.Satisfies(required)
}
