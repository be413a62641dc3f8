package order

import (
	"github.com/jubileu50/pedidos/internal/order/repository"
	"github.com/jubileu50/pedidos/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
