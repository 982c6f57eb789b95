// Package otel provides an OpenTelemetry trace handler.
//
// Spans are nested as game, turn and LLM call. Without an explicit
// TracerProvider the global one is used. NewTracerProvider builds one that
// exports to stdout or an OTLP collector:
//
//	tp, err := otel.NewTracerProvider(ctx, otel.ExporterOTLP)
//	defer tp.Shutdown(ctx)
//	agent := mindgames.New(client, mindgames.WithTrace(otel.New(otel.WithTracerProvider(tp))))
package otel

import (
	"context"
	"fmt"

	"github.com/m-mizutani/mindgames/trace"
	otelAPI "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/m-mizutani/mindgames"
)

// Option is a functional option for configuring the OTel handler.
type Option func(*handler)

// WithTracerProvider sets an explicit TracerProvider.
func WithTracerProvider(tp otelTrace.TracerProvider) Option {
	return func(h *handler) {
		h.tracerProvider = tp
	}
}

type handler struct {
	tracerProvider otelTrace.TracerProvider
	tracer         otelTrace.Tracer
}

// New creates a new OTel trace handler.
func New(opts ...Option) trace.Handler {
	h := &handler{}
	for _, opt := range opts {
		opt(h)
	}

	if h.tracerProvider == nil {
		h.tracerProvider = otelAPI.GetTracerProvider()
	}
	h.tracer = h.tracerProvider.Tracer(tracerName)

	return h
}

func (h *handler) StartGame(ctx context.Context, track string) context.Context {
	ctx, _ = h.tracer.Start(ctx, "game",
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
		otelTrace.WithAttributes(trackAttr(track)),
	)
	return ctx
}

func (h *handler) EndGame(ctx context.Context, data *trace.GameData, err error) {
	span := otelTrace.SpanFromContext(ctx)
	if data != nil {
		span.SetAttributes(gameStepsAttr(data.Steps))
		for playerID, reward := range data.Rewards {
			span.SetAttributes(rewardAttr(playerID, reward))
		}
	}
	end(span, err)
}

func (h *handler) StartTurn(ctx context.Context, kind string) context.Context {
	ctx, _ = h.tracer.Start(ctx, fmt.Sprintf("turn:%s", kind),
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
		otelTrace.WithAttributes(gameKindAttr(kind)),
	)
	return ctx
}

func (h *handler) EndTurn(ctx context.Context, data *trace.TurnData, err error) {
	span := otelTrace.SpanFromContext(ctx)
	if data != nil {
		span.SetAttributes(
			actionAttr(data.Action),
			actionParsingFailedAttr(data.ActionParsingFailed),
		)
	}
	end(span, err)
}

func (h *handler) StartLLMCall(ctx context.Context, attempt int) context.Context {
	ctx, _ = h.tracer.Start(ctx, "llm_call",
		otelTrace.WithSpanKind(otelTrace.SpanKindClient),
		otelTrace.WithAttributes(llmAttemptAttr(attempt)),
	)
	return ctx
}

func (h *handler) EndLLMCall(ctx context.Context, data *trace.LLMCallData, err error) {
	span := otelTrace.SpanFromContext(ctx)
	if data != nil {
		span.SetAttributes(
			llmModelAttr(data.Model),
			llmReasoningAttr(data.HasReasoning),
		)
	}
	end(span, err)
}

func end(span otelTrace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
