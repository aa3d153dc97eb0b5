package logging

import (
	"context"
	"encoding/json"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
	}{
		{
			name:        "create logger with service name",
			serviceName: "paperboy-worker",
		},
		{
			name:        "create logger with empty service name",
			serviceName: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.serviceName)

			if logger == nil {
				t.Fatal("New() returned nil logger")
			}
			if logger.service != tt.serviceName {
				t.Errorf("New() service = %q, want %q", logger.service, tt.serviceName)
			}
		})
	}
}

func TestLogger_WithContext(t *testing.T) {
	// Set up test tracer for trace ID extraction
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)

	logger := New("paperboy-worker")

	t.Run("no active span leaves trace ID empty", func(t *testing.T) {
		entry := logger.WithContext(context.Background())
		if entry.TraceID != "" {
			t.Errorf("WithContext() TraceID = %q, want empty", entry.TraceID)
		}
		if entry.Service != "paperboy-worker" {
			t.Errorf("WithContext() Service = %q, want %q", entry.Service, "paperboy-worker")
		}
	})

	t.Run("active span populates trace ID", func(t *testing.T) {
		ctx, span := otel.Tracer("test").Start(context.Background(), "test-span")
		defer span.End()

		entry := logger.WithContext(ctx)
		if entry.TraceID == "" {
			t.Error("WithContext() TraceID empty, want span trace ID")
		}
		if entry.TraceID != span.SpanContext().TraceID().String() {
			t.Errorf("WithContext() TraceID = %q, want %q", entry.TraceID, span.SpanContext().TraceID().String())
		}
	})
}

func TestLogEntry_FluentFields(t *testing.T) {
	entry := New("paperboy-worker").Plain().
		WithIssue("7f8c4a6e-0000-0000-0000-000000000001").
		WithSubscriber("user@example.com").
		WithRetries(3).
		WithField("outcome", "requeued")

	if entry.IssueID != "7f8c4a6e-0000-0000-0000-000000000001" {
		t.Errorf("WithIssue() IssueID = %q", entry.IssueID)
	}
	if entry.SubscriberEmail != "user@example.com" {
		t.Errorf("WithSubscriber() SubscriberEmail = %q", entry.SubscriberEmail)
	}
	if entry.Retries == nil || *entry.Retries != 3 {
		t.Errorf("WithRetries() Retries = %v, want 3", entry.Retries)
	}
	if entry.Fields["outcome"] != "requeued" {
		t.Errorf("WithField() Fields[outcome] = %v, want requeued", entry.Fields["outcome"])
	}
}

func TestLogEntry_WithError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantField bool
	}{
		{name: "nil error adds nothing", err: nil, wantField: false},
		{name: "error stored as field", err: context.DeadlineExceeded, wantField: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := Plain().WithError(tt.err)
			_, ok := entry.Fields["error"]
			if ok != tt.wantField {
				t.Errorf("WithError() field present = %v, want %v", ok, tt.wantField)
			}
		})
	}
}

func TestLogEntry_JSONShape(t *testing.T) {
	entry := New("paperboy-worker").Plain().
		WithIssue("issue-1").
		WithSubscriber("user@example.com").
		WithRetries(0)
	entry.Level = LevelError
	entry.Message = "failed to deliver issue"

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("json.Marshal() error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error: %v", err)
	}

	if decoded["msg"] != "failed to deliver issue" {
		t.Errorf("msg = %v", decoded["msg"])
	}
	if decoded["issue_id"] != "issue-1" {
		t.Errorf("issue_id = %v", decoded["issue_id"])
	}
	if decoded["subscriber_email"] != "user@example.com" {
		t.Errorf("subscriber_email = %v", decoded["subscriber_email"])
	}
	// Retries of zero must still serialize; it is a pointer for that reason.
	if _, ok := decoded["retries"]; !ok {
		t.Error("retries field missing from JSON output")
	}
}
