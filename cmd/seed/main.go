// Seeds reference data for local development: the USD and EUR denomination
// sets and one demo register. Safe to run repeatedly.
//
//	go run ./cmd/seed
package main

import (
	"context"
	"time"

	"cashdesk/internal/config"
	"cashdesk/internal/infra"
	"cashdesk/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type denom struct {
	value string
	typ   model.DenominationType
	label string
}

var denominationSets = map[string][]denom{
	"USD": {
		{"100", model.DenominationNote, "$100"},
		{"50", model.DenominationNote, "$50"},
		{"20", model.DenominationNote, "$20"},
		{"10", model.DenominationNote, "$10"},
		{"5", model.DenominationNote, "$5"},
		{"1", model.DenominationNote, "$1"},
		{"0.25", model.DenominationCoin, "25¢"},
		{"0.10", model.DenominationCoin, "10¢"},
		{"0.05", model.DenominationCoin, "5¢"},
		{"0.01", model.DenominationCoin, "1¢"},
	},
	"EUR": {
		{"500", model.DenominationNote, "€500"},
		{"200", model.DenominationNote, "€200"},
		{"100", model.DenominationNote, "€100"},
		{"50", model.DenominationNote, "€50"},
		{"20", model.DenominationNote, "€20"},
		{"10", model.DenominationNote, "€10"},
		{"5", model.DenominationNote, "€5"},
		{"2", model.DenominationCoin, "€2"},
		{"1", model.DenominationCoin, "€1"},
		{"0.50", model.DenominationCoin, "50c"},
		{"0.20", model.DenominationCoin, "20c"},
		{"0.10", model.DenominationCoin, "10c"},
		{"0.05", model.DenominationCoin, "5c"},
		{"0.02", model.DenominationCoin, "2c"},
		{"0.01", model.DenominationCoin, "1c"},
	},
}

// demoStore is fixed so that dev tokens can carry a stable store_id.
var demoStore = uuid.MustParse("00000000-0000-4000-8000-000000000001")

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for currency, set := range denominationSets {
			rows := make([]model.Denomination, 0, len(set))
			for i, d := range set {
				rows = append(rows, model.Denomination{
					CurrencyCode: currency,
					Value:        decimal.RequireFromString(d.value),
					Type:         d.typ,
					Label:        d.label,
					SortOrder:    i + 1,
					Active:       true,
				})
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "currency_code"}, {Name: "value"}},
				DoUpdates: clause.AssignmentColumns([]string{"type", "label", "sort_order", "active"}),
			}).Create(&rows).Error; err != nil {
				return err
			}
			log.Info().Str("currency", currency).Int("denominations", len(rows)).Msg("seeded")
		}

		register := model.CashRegister{
			Name:         "Front counter",
			Code:         "REG-01",
			StoreID:      demoStore,
			Active:       true,
			InitialFloat: decimal.NewFromInt(200),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "store_id", "active", "initial_float"}),
		}).Create(&register).Error
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Str("store_id", demoStore.String()).Msg("demo register REG-01 ready")
}
