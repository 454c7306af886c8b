package asset

import (
	"github.com/segurosandina/backoffice/internal/asset/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("asset.repository",
	fx.Provide(repository.Provide),
)
