package tracing

import (
	"context"

	"github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogExporter writes finished spans to a logrus logger
type LogExporter struct {
	logger *logrus.Logger
}

// NewLogExporter creates an exporter logging through logger
func NewLogExporter(logger *logrus.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

// ExportSpans logs one debug entry per span
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if !e.logger.IsLevelEnabled(logrus.DebugLevel) {
		return nil
	}

	for _, span := range spans {
		fields := logrus.Fields{
			"span":        span.Name(),
			"trace_id":    span.SpanContext().TraceID().String(),
			"span_id":     span.SpanContext().SpanID().String(),
			"duration_ms": span.EndTime().Sub(span.StartTime()).Milliseconds(),
			"status":      span.Status().Code.String(),
		}
		if desc := span.Status().Description; desc != "" {
			fields["status_description"] = desc
		}
		for _, attr := range span.Attributes() {
			fields["attr."+string(attr.Key)] = attr.Value.Emit()
		}
		e.logger.WithFields(fields).Debug("Span finished")
	}
	return nil
}

// Shutdown is a no-op; the logger outlives the exporter
func (e *LogExporter) Shutdown(ctx context.Context) error {
	return nil
}
