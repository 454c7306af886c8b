package invoice

import (
	"github.com/segurosandina/backoffice/internal/invoice/repository"
	"github.com/segurosandina/backoffice/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
