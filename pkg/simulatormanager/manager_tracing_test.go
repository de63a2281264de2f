// Copyright (c) 2026 the FBSimulatorControl authors.
// License: MIT

package simulatormanager

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wangyja/FBSimulatorControl/internal/simulator"
)

func TestManagerStartSpanAttributes(t *testing.T) {
	spanRecorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
	otel.SetTracerProvider(provider)
	defer func() {
		_ = provider.Shutdown(context.Background())
	}()

	manager := &Manager{
		env: simulator.Env{
			Context:       context.Background(),
			CorrelationID: "corr-123",
		},
	}

	_, span := manager.startSpan(
		"simulatormanager.Boot",
		attribute.String("udid", "ABCD-1234"),
	)
	span.End()

	spans := spanRecorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	attrs := map[string]any{}
	for _, attr := range spans[0].Attributes() {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}

	if attrs["correlation_id"] != "corr-123" {
		t.Fatalf("expected correlation_id to be corr-123, got %v", attrs["correlation_id"])
	}
	if attrs["udid"] != "ABCD-1234" {
		t.Fatalf("expected udid to be ABCD-1234, got %v", attrs["udid"])
	}
}

func TestBootConfigRejectsUnknownMechanism(t *testing.T) {
	_, err := BootConfig{LaunchMechanism: "telepathy"}.core()
	if err == nil {
		t.Fatal("expected error for unknown mechanism")
	}
}
