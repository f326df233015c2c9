package storage

import (
	"context"
	"fmt"

	"unveildocs/internal/analysis"

	"github.com/jackc/pgx/v5/pgconn"
)

const AnalysisCallsSchema = `
CREATE TABLE IF NOT EXISTS analysis_calls (
	call_id       uuid PRIMARY KEY,
	operation     text NOT NULL,
	analysis_type text NOT NULL,
	provider_name text,
	model         text,
	attempts      integer NOT NULL,
	status        text NOT NULL,
	error_type    text,
	input_tokens  integer NOT NULL DEFAULT 0,
	output_tokens integer NOT NULL DEFAULT 0,
	total_tokens  integer NOT NULL DEFAULT 0,
	duration_ms   bigint NOT NULL,
	created_at    timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_analysis_calls_created ON analysis_calls(created_at);
`

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AnalysisAuditRepo stores one row per finished model call. It implements
// analysis.CallRecorder.
type AnalysisAuditRepo struct {
	db execer
}

func NewAnalysisAuditRepo(db *DB) *AnalysisAuditRepo {
	return &AnalysisAuditRepo{db: db.Pool}
}

func (r *AnalysisAuditRepo) RecordCall(ctx context.Context, rec analysis.CallRecord) error {
	status := "success"
	if !rec.Success {
		status = "failed"
	}
	_, err := r.db.Exec(ctx, `
INSERT INTO analysis_calls(call_id, operation, analysis_type, provider_name, model, attempts, status, error_type,
	input_tokens, output_tokens, total_tokens, duration_ms, created_at)
VALUES ($1::uuid, $2, $3, NULLIF($4,''), NULLIF($5,''), $6, $7, NULLIF($8,''), $9, $10, $11, $12, $13)`,
		rec.ID, rec.Operation, string(rec.AnalysisType), rec.Provider, rec.Model, rec.Attempts, status, string(rec.ErrorKind),
		rec.Usage.Input, rec.Usage.Output, rec.Usage.Total, rec.Duration.Milliseconds(), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis call: %w", err)
	}
	return nil
}
