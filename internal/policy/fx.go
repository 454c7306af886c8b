package policy

import (
	"github.com/segurosandina/backoffice/internal/policy/repository"
	"github.com/segurosandina/backoffice/internal/policy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("policy.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
