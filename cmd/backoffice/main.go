package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/segurosandina/backoffice/internal/alert"
	"github.com/segurosandina/backoffice/internal/asset"
	"github.com/segurosandina/backoffice/internal/claim"
	"github.com/segurosandina/backoffice/internal/clock"
	"github.com/segurosandina/backoffice/internal/config"
	"github.com/segurosandina/backoffice/internal/document"
	"github.com/segurosandina/backoffice/internal/invoice"
	"github.com/segurosandina/backoffice/internal/migration"
	"github.com/segurosandina/backoffice/internal/notification"
	"github.com/segurosandina/backoffice/internal/observability"
	"github.com/segurosandina/backoffice/internal/payment"
	"github.com/segurosandina/backoffice/internal/policy"
	"github.com/segurosandina/backoffice/internal/scheduler"
	"github.com/segurosandina/backoffice/internal/taxconfig"
	"github.com/segurosandina/backoffice/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		notification.Module,

		// Domains
		taxconfig.Module,
		policy.Module,
		asset.Module,
		invoice.Module,
		payment.Module,
		claim.Module,
		document.Module,
		alert.Module,

		migration.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
