package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	ordersCreated     metric.Int64Counter
	ordersDeleted     metric.Int64Counter
	paymentsRecorded  metric.Int64Counter
	paymentsCancelled metric.Int64Counter
	statsResyncs      metric.Int64Counter
	reconcileJobs     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "pedidos"
	}
	meter := provider.Meter(name)

	ordersCreated, err := meter.Int64Counter("pedidos_orders_created_total")
	if err != nil {
		return nil, err
	}
	ordersDeleted, err := meter.Int64Counter("pedidos_orders_deleted_total")
	if err != nil {
		return nil, err
	}
	paymentsRecorded, err := meter.Int64Counter("pedidos_payments_recorded_total")
	if err != nil {
		return nil, err
	}
	paymentsCancelled, err := meter.Int64Counter("pedidos_payments_cancelled_total")
	if err != nil {
		return nil, err
	}
	statsResyncs, err := meter.Int64Counter("pedidos_stats_resyncs_total")
	if err != nil {
		return nil, err
	}
	reconcileJobs, err := meter.Int64Counter("pedidos_reconcile_jobs_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersCreated:     ordersCreated,
		ordersDeleted:     ordersDeleted,
		paymentsRecorded:  paymentsRecorded,
		paymentsCancelled: paymentsCancelled,
		statsResyncs:      statsResyncs,
		reconcileJobs:     reconcileJobs,
	}, nil
}

// RecordOrderCreated increments order creation counts.
func (m *Metrics) RecordOrderCreated(ctx context.Context, locationType string) {
	if m == nil {
		return
	}
	m.ordersCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("location_type", strings.TrimSpace(locationType)),
	))
}

// RecordOrderDeleted increments order deletion counts.
func (m *Metrics) RecordOrderDeleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.ordersDeleted.Add(ctx, 1)
}

// RecordPayment increments payment counts.
func (m *Metrics) RecordPayment(ctx context.Context) {
	if m == nil {
		return
	}
	m.paymentsRecorded.Add(ctx, 1)
}

// RecordPaymentCancelled increments payment cancellation counts.
func (m *Metrics) RecordPaymentCancelled(ctx context.Context) {
	if m == nil {
		return
	}
	m.paymentsCancelled.Add(ctx, 1)
}

// RecordStatsResync increments full-resync counts.
func (m *Metrics) RecordStatsResync(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	m.statsResyncs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("trigger", strings.TrimSpace(trigger)),
	))
}

// RecordReconcileJob increments reconcile job counts by kind and outcome.
func (m *Metrics) RecordReconcileJob(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	m.reconcileJobs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
