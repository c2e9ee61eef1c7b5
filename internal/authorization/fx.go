package authorization

import (
	"github.com/smallbiznis/dealdesk/internal/lifecycle"
	"go.uber.org/fx"
)

var Module = fx.Module("authorization.service",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
	fx.Provide(func() lifecycle.Authorizer { return NewRoleGate() }),
)
