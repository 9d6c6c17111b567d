package logging

import (
	"context"
	"log/slog"

	"salesmind/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCompany is the standardized structured logging key for the researched company.
	FieldCompany = "company"
	// FieldCategory is the standardized structured logging key for research category keys.
	FieldCategory = "category"
	// FieldSeq is the standardized structured logging key for click sequence numbers.
	FieldSeq = "seq"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if company, ok := services.CompanyFromContext(ctx); ok {
		fields = append(fields, Company(company))
	}
	if category, ok := services.CategoryFromContext(ctx); ok {
		fields = append(fields, Category(category))
	}
	if seq, ok := services.SeqFromContext(ctx); ok {
		fields = append(fields, Seq(seq))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
