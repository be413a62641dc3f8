package stats

import (
	"github.com/jubileu50/pedidos/internal/stats/service"
	"go.uber.org/fx"
)

var Module = fx.Module("stats.service",
	fx.Provide(service.New),
)
