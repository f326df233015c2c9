package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"unveildocs/internal/analysis"
	"unveildocs/internal/providers"
	"unveildocs/internal/util"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	sql  string
	args []any
	err  error
}

func (f *fakeExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql, f.args = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestRecordCallArguments(t *testing.T) {
	ex := &fakeExec{}
	repo := &AnalysisAuditRepo{db: ex}
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	err := repo.RecordCall(context.Background(), analysis.CallRecord{
		ID:           "6f1c1c1e-8d4a-4b43-9a57-0b8a5f4f9a10",
		Operation:    "analyze:risks",
		AnalysisType: analysis.TypeRisks,
		Provider:     "gemini",
		Model:        "gemini-1.5-flash",
		Attempts:     2,
		Success:      false,
		ErrorKind:    util.KindMaxRetriesExceeded,
		Usage:        providers.Usage{Input: 100, Output: 20, Total: 120},
		Duration:     1500 * time.Millisecond,
		CreatedAt:    at,
	})
	require.NoError(t, err)
	require.Contains(t, ex.sql, "INSERT INTO analysis_calls")
	require.Equal(t, []any{
		"6f1c1c1e-8d4a-4b43-9a57-0b8a5f4f9a10", "analyze:risks", "risks", "gemini", "gemini-1.5-flash", 2, "failed",
		"max_retries_exceeded", 100, 20, 120, int64(1500), at,
	}, ex.args)
}

func TestRecordCallWrapsError(t *testing.T) {
	repo := &AnalysisAuditRepo{db: &fakeExec{err: errors.New("relation does not exist")}}
	err := repo.RecordCall(context.Background(), analysis.CallRecord{ID: "x", Success: true})
	require.ErrorContains(t, err, "insert analysis call")
}
