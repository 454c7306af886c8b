package document

import (
	"github.com/segurosandina/backoffice/internal/document/store"
	"go.uber.org/fx"
)

var Module = fx.Module("document.store",
	fx.Provide(store.New),
)
