package otelcol

import (
	"context"

	"eps-campanhas/pkg/config"
	"eps-campanhas/pkg/otelcol/exporters"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	apitrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("otelcol", fx.Provide(ProvideTracerProvider))

type Params struct {
	fx.In
	Lc     fx.Lifecycle
	Config *config.Config
}

// ProvideTracerProvider wires an OTLP trace pipeline when OTEL.ADDR is set,
// otherwise it falls back to the global noop provider.
func ProvideTracerProvider(p Params) (apitrace.TracerProvider, error) {
	if p.Config.Otel.Addr == "" {
		return otel.GetTracerProvider(), nil
	}

	var (
		exporter *otlptrace.Exporter
		err      error
	)

	switch p.Config.Otel.Protocol {
	case "grpc":
		exporter, err = exporters.ProvideGrpc(p.Config)
	default:
		exporter, err = exporters.ProvideHttp(p.Config)
	}
	if err != nil {
		return nil, err
	}

	tp := ProvideTrace(exporter, trace.WithResource(newResource(p.Config)))
	otel.SetTracerProvider(tp)

	p.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return tp, nil
}

func newResource(cfg *config.Config) *resource.Resource {
	r, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.AppName),
		attribute.String("deployment.environment", cfg.AppEnv),
	))
	if err != nil {
		return resource.Default()
	}

	return r
}

func defaultTraceProviderOption() []trace.TracerProviderOption {
	return []trace.TracerProviderOption{
		trace.WithResource(resource.Default()),
	}
}

func ProvideTrace(exporter trace.SpanExporter, opts ...trace.TracerProviderOption) *trace.TracerProvider {
	if len(opts) == 0 {
		opts = defaultTraceProviderOption()
	}

	opts = append(opts, trace.WithBatcher(exporter))

	return trace.NewTracerProvider(opts...)
}
