package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{Enabled: false})
	if err != nil {
		t.Fatalf("Init disabled: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown func is nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	// idempotent
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}

func TestInit_Disabled_SetsSDKProvider(t *testing.T) {
	_, _ = Init(context.Background(), Options{Enabled: false})

	tp := otel.GetTracerProvider()
	if _, ok := tp.(*sdktrace.TracerProvider); !ok {
		t.Fatalf("TracerProvider type = %T, want *sdktrace.TracerProvider", tp)
	}
}

func TestInit_SetsPropagators(t *testing.T) {
	_, _ = Init(context.Background(), Options{Enabled: false})

	prop := otel.GetTextMapPropagator()
	fields := make(map[string]bool)
	for _, f := range prop.Fields() {
		fields[f] = true
	}
	if !fields["traceparent"] {
		t.Error("propagator missing traceparent field")
	}
	if !fields["baggage"] {
		t.Error("propagator missing baggage field")
	}
}

func TestInit_Disabled_SpansUsable(t *testing.T) {
	_, _ = Init(context.Background(), Options{Enabled: false})

	tracer := otel.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "test-span")
	if span == nil || ctx == nil {
		t.Fatal("tracer produced nil span or context")
	}
	span.SetName("renamed")
	span.End()
}

func TestInit_Enabled_ShutdownNonNilOnError(t *testing.T) {
	// a cancelled context makes exporter construction fail fast; whether or
	// not it errors, the shutdown func must be callable
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	shutdown, err := Init(ctx, Options{
		Enabled:  true,
		Endpoint: "localhost:1",
		Insecure: true,
		Sample:   1.0,
		Service:  "test",
		Version:  "v0.0.0-test",
	})
	if shutdown == nil {
		t.Fatalf("shutdown func is nil (err = %v)", err)
	}
	_ = shutdown(context.Background())
}

func TestInit_Disabled_MultipleCalls(t *testing.T) {
	for i := 0; i < 3; i++ {
		shutdown, err := Init(context.Background(), Options{Enabled: false})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("shutdown %d: %v", i, err)
		}
	}
}
