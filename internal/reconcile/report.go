package reconcile

import "time"

// Action is what happened to a row.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
	ActionFailed  Action = "failed"
)

// Reasons recorded on non-successful outcomes.
const (
	ReasonCanceled         = "canceled"
	ReasonNoAuthentication = "no authentication"
	ReasonNoExistingItem   = "no existing item"
	ReasonFolderNotFound   = "folder not found"
)

// Outcome records the result of one deduplicated row.
type Outcome struct {
	Index      int    `json:"index"`
	Key        string `json:"key"`
	Title      string `json:"title"`
	FolderPath string `json:"folderPath"`
	ContentID  int64  `json:"contentId"`
	Action     Action `json:"action"`
	Reason     string `json:"reason,omitempty"`
	// Attempts counts tries of the remote call that decided the row.
	Attempts int `json:"attempts"`
	// Class labels the error that ended the row, empty on success.
	Class string `json:"class,omitempty"`
}

// Report summarizes a Receive call.
type Report struct {
	Batch       string
	Variant     string
	Rows        int
	Distinct    int
	Existing    int
	SearchCalls int
	Started     time.Time
	Finished    time.Time
	Outcomes    []Outcome
}

// Count returns the number of outcomes with the given action.
func (r *Report) Count(action Action) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == action {
			n++
		}
	}
	return n
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r == nil || r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// HasFailures reports whether any row failed.
func (r *Report) HasFailures() bool {
	return r.Count(ActionFailed) > 0
}
