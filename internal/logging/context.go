package logging

import (
	"context"
	"log/slog"

	"ytbridge/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldAssetID is the standardized key for catalog asset identifiers.
	FieldAssetID = "asset_id"
	// FieldRecordID is the standardized key for sync record identifiers.
	FieldRecordID = "record_id"
	// FieldRemoteID is the standardized key for remote video identifiers.
	FieldRemoteID = "remote_id"
	// FieldAccount is the standardized key for remote account logins.
	FieldAccount = "account"
	// FieldPass is the standardized key for reconciliation pass names.
	FieldPass = "pass"
	// FieldCorrelationID carries the batch run identifier.
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type"
	FieldReason        = "reason"

	FieldDecisionType   = "decision_type"
	FieldDecisionResult = "decision_result"
	FieldDecisionReason = "decision_reason"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.AssetIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldAssetID, id))
	}
	if pass, ok := services.PassFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPass, pass))
	}
	if rid, ok := services.RunIDFromContext(ctx); ok {
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
	return logger.With(Args(fields...)...)
}
