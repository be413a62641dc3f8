package settings

import (
	"github.com/jubileu50/pedidos/internal/settings/repository"
	"github.com/jubileu50/pedidos/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
