package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ListDocumentsActivity)
	w.RegisterActivity(a.ProcessDocumentActivity)
	w.RegisterActivity(a.AnalyzeDocumentActivity)
	w.RegisterActivity(a.WriteReportActivity)
	w.RegisterActivity(a.RecordAnalysisActivity)
}
