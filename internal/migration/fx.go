package migration

import (
	"github.com/jubileu50/pedidos/internal/config"
	ledgerdomain "github.com/jubileu50/pedidos/internal/ledger/domain"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
	"github.com/jubileu50/pedidos/internal/seed"
	settingsdomain "github.com/jubileu50/pedidos/internal/settings/domain"
	statsdomain "github.com/jubileu50/pedidos/internal/stats/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite installs rely on the model definitions.
			if err := AutoMigrate(conn); err != nil {
				return err
			}
		}

		return seed.EnsureSettings(conn)
	}),
)

// AutoMigrate creates the schema from the model definitions.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&orderdomain.Order{},
		&ledgerdomain.Ledger{},
		&statsdomain.Document{},
		&settingsdomain.Settings{},
		&settingsdomain.ReconcileJob{},
	)
}
