package otel

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkTrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Exporter selects where spans are sent.
type Exporter string

const (
	ExporterNone   Exporter = "none"
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
)

const serviceName = "mindgames"

var ErrUnknownExporter = goerr.New("unknown trace exporter")

// ParseExporter accepts none, stdout or otlp in any case. Empty means none.
func ParseExporter(s string) (Exporter, error) {
	switch exp := Exporter(strings.ToLower(strings.TrimSpace(s))); exp {
	case "":
		return ExporterNone, nil
	case ExporterNone, ExporterStdout, ExporterOTLP:
		return exp, nil
	default:
		return "", goerr.Wrap(ErrUnknownExporter, "failed to parse exporter", goerr.V("exporter", s))
	}
}

type providerConfig struct {
	writer      io.Writer
	endpointURL string
}

// ProviderOption configures NewTracerProvider.
type ProviderOption func(*providerConfig)

// WithWriter sets the destination of the stdout exporter. Default is os.Stdout.
func WithWriter(w io.Writer) ProviderOption {
	return func(c *providerConfig) {
		c.writer = w
	}
}

// WithEndpointURL sets the OTLP gRPC endpoint, e.g. http://localhost:4317.
// Without it the OTEL_EXPORTER_OTLP_* environment variables apply.
func WithEndpointURL(url string) ProviderOption {
	return func(c *providerConfig) {
		c.endpointURL = url
	}
}

// NewTracerProvider builds an SDK TracerProvider exporting to exp. It
// returns nil for ExporterNone. The caller must call Shutdown to flush
// buffered spans.
func NewTracerProvider(ctx context.Context, exp Exporter, opts ...ProviderOption) (*sdkTrace.TracerProvider, error) {
	cfg := &providerConfig{writer: os.Stdout}
	for _, opt := range opts {
		opt(cfg)
	}

	var exporter sdkTrace.SpanExporter
	switch exp {
	case ExporterNone, "":
		return nil, nil

	case ExporterStdout:
		e, err := stdouttrace.New(stdouttrace.WithWriter(cfg.writer))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create stdout exporter")
		}
		exporter = e

	case ExporterOTLP:
		var grpcOpts []otlptracegrpc.Option
		if cfg.endpointURL != "" {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpointURL(cfg.endpointURL))
		}
		e, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OTLP exporter", goerr.V("endpoint", cfg.endpointURL))
		}
		exporter = e

	default:
		return nil, goerr.Wrap(ErrUnknownExporter, "failed to create tracer provider", goerr.V("exporter", exp))
	}

	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName))
	return sdkTrace.NewTracerProvider(
		sdkTrace.WithBatcher(exporter),
		sdkTrace.WithResource(res),
	), nil
}
