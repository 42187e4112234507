package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/db"
	"eps-campanhas/pkg/hashistack/secretmanager"
	"eps-campanhas/pkg/logger"
	"eps-campanhas/services/premio"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Module,
		logger.Module,
		db.Module,
		fx.Provide(provideSnowflakeNode),
		fx.Invoke(seedPremios),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	if err := app.Err(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

// seedPremios fills an empty catalog with a starter prize list so a fresh
// environment has something to redeem against.
func seedPremios(db *gorm.DB, node *snowflake.Node) error {
	if err := db.AutoMigrate(&premio.Premio{}); err != nil {
		return err
	}

	var count int64
	if err := db.Model(&premio.Premio{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		zap.L().Info("[seed] premio catalog already populated, skipping", zap.Int64("count", count))
		return nil
	}

	items := []premio.Premio{
		{
			ID:             node.Generate().String(),
			Name:           "Vale-compras R$ 100",
			Description:    "Vale-compras de R$ 100 para usar em lojas parceiras.",
			PointsCost:     1000,
			MaxStock:       100,
			RemainingStock: 100,
			Status:         premio.StatusActive,
		},
		{
			ID:             node.Generate().String(),
			Name:           "Fone de ouvido Bluetooth",
			Description:    "Fone de ouvido sem fio com estojo de recarga.",
			PointsCost:     2500,
			MaxStock:       40,
			RemainingStock: 40,
			Status:         premio.StatusActive,
		},
		{
			ID:             node.Generate().String(),
			Name:           "Caixa de som portátil",
			Description:    "Caixa de som Bluetooth resistente a água.",
			PointsCost:     4000,
			MaxStock:       25,
			RemainingStock: 25,
			Status:         premio.StatusActive,
		},
		{
			ID:             node.Generate().String(),
			Name:           "Smartwatch",
			Description:    "Relógio inteligente com monitor de atividades.",
			PointsCost:     8000,
			MaxStock:       10,
			RemainingStock: 10,
			Status:         premio.StatusActive,
		},
	}

	if err := db.Create(&items).Error; err != nil {
		return err
	}

	zap.L().Info("[seed] premio catalog seeded", zap.Int("items", len(items)))
	return nil
}
