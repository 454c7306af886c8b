package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fsnotify/fsnotify"
	"github.com/segurosandina/backoffice/internal/config"
	"github.com/segurosandina/backoffice/internal/taxconfig/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Built-in defaults mirror the statutory values the system shipped
// with. Operators override them per key, in the database or in the
// optional taxes.yml file.
func builtinDefaults() map[string]string {
	return map[string]string{
		domain.KeySuperintendencyRate:      `"0.035"`,
		domain.KeyAgriculturalRate:         `"0.005"`,
		domain.KeyVATRate:                  `"0.15"`,
		domain.KeyEarlyPaymentDiscountRate: `"0.05"`,
		domain.KeyEarlyPaymentWindowDays:   `20`,
		domain.KeyClaimDocsAlertDays:       `30`,
		domain.KeyInsurerResponseAlertDays: `8`,
		domain.KeyPolicyExpiryAlertDays:    `30`,
		domain.KeyLiquidationDeadlineHours: `72`,
		domain.KeyEmissionFeeTable: `[
			{"upper_bound": "250", "fee": "0.50"},
			{"upper_bound": "500", "fee": "1.00"},
			{"upper_bound": "1000", "fee": "3.00"},
			{"upper_bound": "2000", "fee": "5.00"},
			{"upper_bound": "4000", "fee": "7.00"},
			{"upper_bound": null, "fee": "9.00"}
		]`,
	}
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Cfg   config.Config
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository

	// fileDefaults holds the taxes.yml snapshot; swapped atomically on
	// hot reload so readers never see a partial file.
	fileDefaults atomic.Value // map[string]string
}

func New(p Params) domain.Provider {
	s := &Service{
		db:    p.DB,
		log:   p.Log.Named("taxconfig.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
	s.fileDefaults.Store(map[string]string{})
	s.loadFileDefaults(p.Cfg.TaxConfigPath)
	return s
}

// loadFileDefaults reads the optional taxes.yml and watches it for
// operator edits. Absence of the file is not an error.
func (s *Service) loadFileDefaults(path string) {
	v := viper.New()
	v.SetConfigName("taxes")
	v.SetConfigType("yml")
	v.AddConfigPath(path)
	v.AddConfigPath("/etc/backoffice")

	read := func() {
		defaults := map[string]string{}
		for key, raw := range v.GetStringMapString("taxes") {
			defaults[strings.ToUpper(key)] = raw
		}
		s.fileDefaults.Store(defaults)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			s.log.Warn("taxes.yml unreadable, using built-in defaults", zap.Error(err))
		}
		return
	}
	read()

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		read()
		s.log.Info("tax defaults reloaded", zap.String("file", e.Name))
	})
}

// raw resolves the JSON document for key: DB override, then file
// default, then built-in default.
func (s *Service) raw(ctx context.Context, key string) (string, error) {
	stored, err := s.repo.Get(ctx, s.db, key)
	if err != nil {
		return "", err
	}
	if stored != nil {
		return string(stored.Value), nil
	}
	if defaults, ok := s.fileDefaults.Load().(map[string]string); ok {
		if raw, ok := defaults[key]; ok && strings.TrimSpace(raw) != "" {
			return raw, nil
		}
	}
	if raw, ok := builtinDefaults()[key]; ok {
		return raw, nil
	}
	return "", &domain.MissingConfigError{Key: key}
}

func (s *Service) Decimal(ctx context.Context, key string) (decimal.Decimal, error) {
	raw, err := s.raw(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(strings.Trim(strings.TrimSpace(raw), `"`))
	if err != nil {
		return decimal.Zero, &domain.InvalidConfigError{Key: key, Cause: err}
	}
	return d, nil
}

func (s *Service) Int(ctx context.Context, key string) (int, error) {
	d, err := s.Decimal(ctx, key)
	if err != nil {
		return 0, err
	}
	return int(d.IntPart()), nil
}

func (s *Service) EmissionFees(ctx context.Context) (domain.EmissionFeeTable, error) {
	raw, err := s.raw(ctx, domain.KeyEmissionFeeTable)
	if err != nil {
		return nil, err
	}
	var table domain.EmissionFeeTable
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		return nil, &domain.InvalidConfigError{Key: domain.KeyEmissionFeeTable, Cause: err}
	}
	if err := table.Validate(); err != nil {
		return nil, &domain.InvalidConfigError{Key: domain.KeyEmissionFeeTable, Cause: err}
	}
	return table, nil
}

func (s *Service) Rates(ctx context.Context) (domain.Rates, error) {
	var (
		rates domain.Rates
		err   error
	)
	if rates.SuperintendencyRate, err = s.Decimal(ctx, domain.KeySuperintendencyRate); err != nil {
		return domain.Rates{}, err
	}
	if rates.AgriculturalRate, err = s.Decimal(ctx, domain.KeyAgriculturalRate); err != nil {
		return domain.Rates{}, err
	}
	if rates.VATRate, err = s.Decimal(ctx, domain.KeyVATRate); err != nil {
		return domain.Rates{}, err
	}
	if rates.EmissionFees, err = s.EmissionFees(ctx); err != nil {
		return domain.Rates{}, err
	}
	if rates.EarlyPaymentDiscountRate, err = s.Decimal(ctx, domain.KeyEarlyPaymentDiscountRate); err != nil {
		return domain.Rates{}, err
	}
	if rates.EarlyPaymentWindowDays, err = s.Int(ctx, domain.KeyEarlyPaymentWindowDays); err != nil {
		return domain.Rates{}, err
	}
	if rates.ClaimDocsAlertDays, err = s.Int(ctx, domain.KeyClaimDocsAlertDays); err != nil {
		return domain.Rates{}, err
	}
	if rates.InsurerResponseAlertDays, err = s.Int(ctx, domain.KeyInsurerResponseAlertDays); err != nil {
		return domain.Rates{}, err
	}
	if rates.PolicyExpiryAlertDays, err = s.Int(ctx, domain.KeyPolicyExpiryAlertDays); err != nil {
		return domain.Rates{}, err
	}
	if rates.LiquidationDeadlineHours, err = s.Int(ctx, domain.KeyLiquidationDeadlineHours); err != nil {
		return domain.Rates{}, err
	}
	return rates, nil
}

func (s *Service) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return &domain.InvalidConfigError{Key: key, Cause: err}
	}
	if key == domain.KeyEmissionFeeTable {
		var table domain.EmissionFeeTable
		if err := json.Unmarshal(raw, &table); err != nil {
			return &domain.InvalidConfigError{Key: key, Cause: err}
		}
		if err := table.Validate(); err != nil {
			return &domain.InvalidConfigError{Key: key, Cause: err}
		}
	}
	return s.repo.Upsert(ctx, s.db, &domain.SystemConfig{
		ID:        s.genID.Generate(),
		Key:       key,
		Value:     datatypes.JSON(raw),
		UpdatedAt: time.Now().UTC(),
	})
}
