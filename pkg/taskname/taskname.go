package taskname

const (
	// Submission outcome tasks, enqueued by the validation workflow.
	SubmissionValidated = "submission:validated"
	SubmissionRejected  = "submission:rejected"
	SubmissionConflict  = "submission:conflict"
)
