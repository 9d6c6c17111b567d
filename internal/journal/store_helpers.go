package journal

import (
	"database/sql"
	"time"

	"salesmind/internal/insight"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const entryColumns = "id, seq, company, category, state, insight, narration, narration_fallback, failure_kind, error_message, duration_ms, created_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		id          int64
		seq         int64
		company     string
		category    string
		state       string
		insightText sql.NullString
		narration   sql.NullString
		fallback    int64
		failureKind sql.NullString
		errorMsg    sql.NullString
		durationMS  int64
		createdRaw  string
	)
	if err := scanner.Scan(
		&id,
		&seq,
		&company,
		&category,
		&state,
		&insightText,
		&narration,
		&fallback,
		&failureKind,
		&errorMsg,
		&durationMS,
		&createdRaw,
	); err != nil {
		return Entry{}, err
	}

	return Entry{
		ID:          id,
		Seq:         uint64(seq),
		Company:     company,
		Category:    category,
		State:       insight.State(state),
		Insight:     insightText.String,
		Narration:   narration.String,
		Fallback:    fallback != 0,
		FailureKind: failureKind.String,
		Error:       errorMsg.String,
		Duration:    time.Duration(durationMS) * time.Millisecond,
		CreatedAt:   parseTime(createdRaw),
	}, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
