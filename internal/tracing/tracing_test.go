package tracing

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestProviderRecordsAndLogsSpans(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	recorder := tracetest.NewSpanRecorder()

	tp := NewProvider(1, logger, sdktrace.WithSpanProcessor(recorder))

	_, span := Tracer().Start(context.Background(), "provider.search")
	span.SetAttributes(attribute.String("provider", "tmdb"))
	span.SetStatus(codes.Error, "upstream down")
	span.End()

	if err := Shutdown(context.Background(), tp); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	ended := recorder.Ended()
	if len(ended) != 1 || ended[0].Name() != "provider.search" {
		t.Fatalf("expected one recorded span, got %d", len(ended))
	}

	var entry *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "Span finished" {
			entry = e
		}
	}
	if entry == nil {
		t.Fatal("expected the span to be logged")
	}
	if entry.Data["span"] != "provider.search" || entry.Data["attr.provider"] != "tmdb" {
		t.Errorf("unexpected span fields %v", entry.Data)
	}
	if entry.Data["status"] != codes.Error.String() || entry.Data["status_description"] != "upstream down" {
		t.Errorf("unexpected span status %v", entry.Data)
	}
}

func TestLogExporterQuietAboveDebug(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)
	recorder := tracetest.NewSpanRecorder()

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := tp.Tracer(TracerName).Start(context.Background(), "quiet")
	span.End()

	if err := NewLogExporter(logger).ExportSpans(context.Background(), recorder.Ended()); err != nil {
		t.Fatal(err)
	}
	if len(hook.AllEntries()) != 0 {
		t.Errorf("expected no entries at info level, got %d", len(hook.AllEntries()))
	}
}
