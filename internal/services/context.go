package services

import "context"

type contextKey string

const (
	companyKey   contextKey = "company"
	categoryKey  contextKey = "category"
	seqKey       contextKey = "seq"
	requestIDKey contextKey = "request_id"
)

// WithCompany annotates context with the company under research.
func WithCompany(ctx context.Context, company string) context.Context {
	if company == "" {
		return ctx
	}
	return context.WithValue(ctx, companyKey, company)
}

// CompanyFromContext returns the company name if present.
func CompanyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(companyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCategory annotates context with the research category key.
func WithCategory(ctx context.Context, category string) context.Context {
	if category == "" {
		return ctx
	}
	return context.WithValue(ctx, categoryKey, category)
}

// CategoryFromContext returns the category key if present.
func CategoryFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(categoryKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSeq annotates context with the click sequence number that owns the work.
func WithSeq(ctx context.Context, seq uint64) context.Context {
	return context.WithValue(ctx, seqKey, seq)
}

// SeqFromContext extracts the click sequence number if present.
func SeqFromContext(ctx context.Context) (uint64, bool) {
	v := ctx.Value(seqKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case uint64:
		return val, true
	case int:
		if val < 0 {
			return 0, false
		}
		return uint64(val), true
	default:
		return 0, false
	}
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
