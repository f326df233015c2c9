package workflows

import (
	"context"
	"errors"
	"testing"

	"unveildocs/internal/activities"
	"unveildocs/internal/analysis"
	"unveildocs/internal/util"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func registerDocumentActivities(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "ProcessDocumentActivity", func(context.Context, activities.ProcessDocumentInput) (activities.ProcessDocumentOutput, error) {
		return activities.ProcessDocumentOutput{}, nil
	})
	registerActivityName(env, "AnalyzeDocumentActivity", func(context.Context, activities.AnalyzeDocumentInput) (activities.AnalyzeDocumentOutput, error) {
		return activities.AnalyzeDocumentOutput{}, nil
	})
	registerActivityName(env, "RecordAnalysisActivity", func(context.Context, activities.RecordAnalysisInput) error { return nil })
	registerActivityName(env, "WriteReportActivity", func(context.Context, activities.WriteReportInput) (activities.WriteReportOutput, error) {
		return activities.WriteReportOutput{}, nil
	})
}

func TestDocumentAnalysisWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentAnalysisWorkflow)
	registerDocumentActivities(env)

	env.OnActivity("ProcessDocumentActivity", mock.Anything, activities.ProcessDocumentInput{BatchID: "b1", Path: "/tmp/lease.pdf"}).
		Return(activities.ProcessDocumentOutput{DocumentID: "doc1", Success: true, Text: "This lease is made between the parties.", Method: "pdf_layout"}, nil)
	env.OnActivity("AnalyzeDocumentActivity", mock.Anything, activities.AnalyzeDocumentInput{
		DocumentID:   "doc1",
		Text:         "This lease is made between the parties.",
		AnalysisType: analysis.TypeSummary,
	}).Return(activities.AnalyzeDocumentOutput{Result: &analysis.Result{Success: true, AnalysisType: analysis.TypeSummary, ModelUsed: "mock-legal-analyzer"}}, nil)
	env.OnActivity("RecordAnalysisActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("WriteReportActivity", mock.Anything, mock.Anything).Return(activities.WriteReportOutput{Path: "/out/b1/doc1/analysis.json"}, nil)

	env.ExecuteWorkflow(DocumentAnalysisWorkflow, DocumentAnalysisInput{BatchID: "b1", Path: "/tmp/lease.pdf", AnalysisType: analysis.TypeSummary})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, StatusAnalyzed, out)

	val, err := env.QueryWorkflow(QueryGetDocumentStatus)
	require.NoError(t, err)
	var st DocumentStatus
	require.NoError(t, val.Get(&st))
	require.Equal(t, "doc1", st.DocumentID)
	require.Equal(t, "done", st.CurrentStep)
	require.Equal(t, "mock-legal-analyzer", st.Model)
	require.Equal(t, "done", st.Steps["analyze"])
}

func TestDocumentAnalysisWorkflowExtractionFailureFailsGracefully(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentAnalysisWorkflow)
	registerDocumentActivities(env)

	env.OnActivity("ProcessDocumentActivity", mock.Anything, mock.Anything).
		Return(activities.ProcessDocumentOutput{DocumentID: "doc2", Success: false, ErrorKind: string(util.KindExtractionFailed), Error: "no text could be extracted"}, nil)
	env.OnActivity("WriteReportActivity", mock.Anything, mock.Anything).Return(activities.WriteReportOutput{}, nil)

	env.ExecuteWorkflow(DocumentAnalysisWorkflow, DocumentAnalysisInput{BatchID: "b1", Path: "/tmp/scan.pdf", AnalysisType: analysis.TypeRisks})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, StatusFailed, out)

	val, err := env.QueryWorkflow(QueryGetDocumentStatus)
	require.NoError(t, err)
	var st DocumentStatus
	require.NoError(t, val.Get(&st))
	require.Equal(t, "no text could be extracted", st.FailReason)
	require.Equal(t, string(util.KindExtractionFailed), st.ErrorKind)
	require.Equal(t, StatusFailed, st.Steps["extract"])
	require.NotContains(t, st.Steps, "analyze")
}

func TestDocumentAnalysisWorkflowAnalysisFailureIsRecorded(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentAnalysisWorkflow)
	registerDocumentActivities(env)

	env.OnActivity("ProcessDocumentActivity", mock.Anything, mock.Anything).
		Return(activities.ProcessDocumentOutput{DocumentID: "doc3", Success: true, Text: "Some contract text here."}, nil)
	env.OnActivity("AnalyzeDocumentActivity", mock.Anything, mock.Anything).
		Return(activities.AnalyzeDocumentOutput{Result: &analysis.Result{Success: false, Error: "invalid api key", ErrorKind: util.KindAuthentication}}, nil)
	env.OnActivity("RecordAnalysisActivity", mock.Anything, mock.Anything).Return(nil).Once()
	env.OnActivity("WriteReportActivity", mock.Anything, mock.Anything).Return(activities.WriteReportOutput{}, nil)

	env.ExecuteWorkflow(DocumentAnalysisWorkflow, DocumentAnalysisInput{BatchID: "b1", Path: "/tmp/c.txt", AnalysisType: analysis.TypeComprehensive})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, StatusFailed, out)
	env.AssertExpectations(t)
}

func TestDocumentAnalysisWorkflowReadErrorFailsWorkflow(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentAnalysisWorkflow)
	registerDocumentActivities(env)

	env.OnActivity("ProcessDocumentActivity", mock.Anything, mock.Anything).
		Return(activities.ProcessDocumentOutput{}, errors.New("read document: permission denied"))

	env.ExecuteWorkflow(DocumentAnalysisWorkflow, DocumentAnalysisInput{BatchID: "b1", Path: "/tmp/locked.pdf"})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}
