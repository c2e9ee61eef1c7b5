package contracttemplate

import (
	"github.com/smallbiznis/dealdesk/internal/contracttemplate/repository"
	"github.com/smallbiznis/dealdesk/internal/contracttemplate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contracttemplate.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
