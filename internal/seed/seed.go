package seed

import (
	"time"

	settingsdomain "github.com/jubileu50/pedidos/internal/settings/domain"
	"github.com/jubileu50/pedidos/internal/settings/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureSettings guarantees the configuration row exists so first-run
// installs are immediately usable.
func EnsureSettings(conn *gorm.DB) error {
	settings := &settingsdomain.Settings{
		ID:           settingsdomain.DocumentID,
		OrdersOpen:   true,
		UnitPrice:    repository.DefaultUnitPrice,
		CurrentBatch: 1,
		UpdatedAt:    time.Now().UTC(),
	}
	return conn.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(settings).Error
}
