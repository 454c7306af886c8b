// Package migration applies the schema at startup.
package migration

import (
	assetdomain "github.com/segurosandina/backoffice/internal/asset/domain"
	claimdomain "github.com/segurosandina/backoffice/internal/claim/domain"
	documentdomain "github.com/segurosandina/backoffice/internal/document/domain"
	invoicedomain "github.com/segurosandina/backoffice/internal/invoice/domain"
	paymentdomain "github.com/segurosandina/backoffice/internal/payment/domain"
	policydomain "github.com/segurosandina/backoffice/internal/policy/domain"
	taxdomain "github.com/segurosandina/backoffice/internal/taxconfig/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Run(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&taxdomain.SystemConfig{},
		&policydomain.Insurer{},
		&policydomain.Broker{},
		&policydomain.Policy{},
		&policydomain.PolicyLineItem{},
		&assetdomain.InsuredAsset{},
		&invoicedomain.Invoice{},
		&paymentdomain.Payment{},
		&claimdomain.Claim{},
		&documentdomain.Reference{},
	)
	if err != nil {
		return err
	}
	log.Info("schema migrated")
	return nil
}

var Module = fx.Module("migration",
	fx.Invoke(Run),
)
