package fulfillment

// SettlementPayload is the body of the submission settlement tasks enqueued by
// the validation workflow. The task name carries the outcome; the payload only
// identifies the submission.
type SettlementPayload struct {
	SubmissionID string `json:"submission_id"`
	Reason       string `json:"reason,omitempty"`
}
