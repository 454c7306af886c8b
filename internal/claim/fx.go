package claim

import (
	"github.com/segurosandina/backoffice/internal/claim/repository"
	"github.com/segurosandina/backoffice/internal/claim/service"
	"go.uber.org/fx"
)

var Module = fx.Module("claim.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
