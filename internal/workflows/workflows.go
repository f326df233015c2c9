package workflows

import (
	"strings"
	"time"

	"unveildocs/internal/activities"
	"unveildocs/internal/analysis"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	QueryGetBatchProgress  = "GetBatchProgress"
	QueryGetDocumentStatus = "GetDocumentStatus"
)

const (
	StatusAnalyzed = "analyzed"
	StatusFailed   = "failed"
)

func BatchAnalysisWorkflow(ctx workflow.Context, input BatchAnalysisInput) (string, error) {
	analysisType := input.AnalysisType
	if analysisType == "" {
		analysisType = analysis.TypeComprehensive
	}
	progress := BatchProgress{
		BatchID:       input.BatchID,
		AnalysisType:  analysisType,
		PerDocument:   map[string]string{},
		ChildWorkflow: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetBatchProgress, func() (BatchProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	var listOut activities.ListDocumentsOutput
	if err := workflow.ExecuteActivity(ctx, "ListDocumentsActivity", activities.ListDocumentsInput{InputDir: input.InputDir}).Get(ctx, &listOut); err != nil {
		return "", err
	}
	paths := listOut.Paths
	progress.Total = len(paths)
	maxChildren := input.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = 3
	}

	for i := 0; i < len(paths); i += maxChildren {
		end := i + maxChildren
		if end > len(paths) {
			end = len(paths)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		childPaths := make([]string, 0, end-i)
		for _, path := range paths[i:end] {
			progress.PerDocument[path] = "processing"
			workflowID := "document-" + sanitizeID(input.BatchID) + "-" + sanitizeID(filepathBase(path))
			childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{WorkflowID: workflowID})
			f := workflow.ExecuteChildWorkflow(childCtx, DocumentAnalysisWorkflow, DocumentAnalysisInput{
				BatchID:      input.BatchID,
				Path:         path,
				AnalysisType: analysisType,
			})
			futures = append(futures, f)
			childPaths = append(childPaths, path)
			progress.ChildWorkflow[path] = workflowID
		}

		for idx, f := range futures {
			var childStatus string
			err := f.Get(ctx, &childStatus)
			path := childPaths[idx]
			if err != nil {
				progress.Failed++
				progress.PerDocument[path] = StatusFailed
				continue
			}
			if childStatus == StatusFailed {
				progress.Failed++
			}
			progress.Done++
			progress.PerDocument[path] = childStatus
		}
	}
	_ = workflow.ExecuteActivity(ctx, "WriteReportActivity", activities.WriteReportInput{
		BatchID: input.BatchID,
		Name:    "batch_summary.json",
		Payload: map[string]any{
			"batch_id":            input.BatchID,
			"analysis_type":       analysisType,
			"total":               progress.Total,
			"done":                progress.Done,
			"failed":              progress.Failed,
			"per_document_status": progress.PerDocument,
			"generated_at":        workflow.Now(ctx),
		},
	}).Get(ctx, nil)

	return "completed", nil
}

func DocumentAnalysisWorkflow(ctx workflow.Context, input DocumentAnalysisInput) (string, error) {
	status := DocumentStatus{
		Path:        input.Path,
		CurrentStep: "init",
		Status:      "processing",
		Steps:       map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetDocumentStatus, func() (DocumentStatus, error) {
		return status, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	fail := func(reason string) (string, error) {
		status.Status = StatusFailed
		status.FailReason = reason
		status.Steps[status.CurrentStep] = StatusFailed
		_ = workflow.ExecuteActivity(ctx, "WriteReportActivity", activities.WriteReportInput{
			BatchID:    input.BatchID,
			DocumentID: status.DocumentID,
			Name:       "status.json",
			Payload:    status,
		}).Get(ctx, nil)
		return status.Status, nil
	}

	status.CurrentStep = "extract"
	status.Steps[status.CurrentStep] = "processing"
	var procOut activities.ProcessDocumentOutput
	if err := workflow.ExecuteActivity(ctx, "ProcessDocumentActivity", activities.ProcessDocumentInput{BatchID: input.BatchID, Path: input.Path}).Get(ctx, &procOut); err != nil {
		return "", err
	}
	status.DocumentID = procOut.DocumentID
	if !procOut.Success {
		status.ErrorKind = procOut.ErrorKind
		return fail(procOut.Error)
	}
	status.Method = procOut.Method
	status.QualityLevel = procOut.QualityLevel
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "analyze"
	status.Steps[status.CurrentStep] = "processing"
	// The service retries model calls itself.
	actx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 15 * time.Minute,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	var anOut activities.AnalyzeDocumentOutput
	if err := workflow.ExecuteActivity(actx, "AnalyzeDocumentActivity", activities.AnalyzeDocumentInput{
		DocumentID:   procOut.DocumentID,
		Text:         procOut.Text,
		AnalysisType: input.AnalysisType,
	}).Get(ctx, &anOut); err != nil {
		return "", err
	}
	res := anOut.Result
	if res != nil {
		status.Model = res.ModelUsed
		_ = workflow.ExecuteActivity(ctx, "RecordAnalysisActivity", activities.RecordAnalysisInput{
			BatchID:      input.BatchID,
			DocumentID:   procOut.DocumentID,
			AnalysisType: input.AnalysisType,
			Result:       res,
		}).Get(ctx, nil)
	}
	if res == nil || !res.Success {
		reason := "analysis returned no result"
		if res != nil {
			reason = res.Error
			status.ErrorKind = string(res.ErrorKind)
		}
		return fail(reason)
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "write_report"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "WriteReportActivity", activities.WriteReportInput{
		BatchID:    input.BatchID,
		DocumentID: procOut.DocumentID,
		Name:       "analysis.json",
		Payload:    res,
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"
	status.CurrentStep = "done"
	status.Status = StatusAnalyzed
	return status.Status, nil
}

func filepathBase(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) == 0 {
		return path
	}
	return parts[len(parts)-1]
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}
