package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/jubileu50/pedidos/internal/migration"
	"github.com/jubileu50/pedidos/internal/observability"
	"github.com/jubileu50/pedidos/internal/server"
	settingsdomain "github.com/jubileu50/pedidos/internal/settings/domain"
	"github.com/jubileu50/pedidos/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		server.Module,
		migration.Module,
		fx.Invoke(resumeReconcileJobs),
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

// resumeReconcileJobs repairs journaled two-phase operations interrupted by
// a previous crash before the server starts taking traffic.
func resumeReconcileJobs(lc fx.Lifecycle, svc settingsdomain.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.ResumePendingJobs(ctx)
		},
	})
}
