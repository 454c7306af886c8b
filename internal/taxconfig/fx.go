package taxconfig

import (
	"github.com/segurosandina/backoffice/internal/taxconfig/repository"
	"github.com/segurosandina/backoffice/internal/taxconfig/service"
	"go.uber.org/fx"
)

var Module = fx.Module("taxconfig.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
