package models

const (
	JobStatusPending   = "pending"
	JobStatusRetry     = "retry"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

const JobTypeReviewRequest = "review_request"

// ScheduledJob is a delayed side effect persisted next to the data it
// belongs to, so it survives process restarts.
type ScheduledJob struct {
	ID          JobID     `json:"id"`
	Type        string    `json:"type"`
	Payload     string    `json:"payload"`
	RunAt       Timestamp `json:"run_at"`
	Status      string    `json:"status"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"last_error,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
	ProcessedAt Timestamp `json:"processed_at"`
}

func (j ScheduledJob) Due(now Timestamp) bool {
	if j.Status != JobStatusPending && j.Status != JobStatusRetry {
		return false
	}
	return !j.RunAt.After(now.Time)
}

type ReviewRequestPayload struct {
	BookingID   BookingID `json:"booking_id"`
	UserID      UserID    `json:"user_id"`
	ProductID   ProductID `json:"product_id"`
	ProductName string    `json:"product_name"`
}
