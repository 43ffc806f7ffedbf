// internal/model/job.go
package model

import "time"

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no transition may leave s.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

type Job struct {
	ID             string      `json:"jobId"`
	TenantID       string      `json:"unionId"`
	SenderID       string      `json:"senderId"`
	TemplateCode   string      `json:"templateCode"`
	RecipientCount int         `json:"recipientCount"`
	Status         JobStatus   `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	StartedAt      *time.Time  `json:"startedAt,omitempty"`
	CompletedAt    *time.Time  `json:"completedAt,omitempty"`
	Result         *SendResult `json:"result,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// Clone returns a copy that shares no pointers with j.
func (j Job) Clone() Job {
	j.StartedAt = cloneTime(j.StartedAt)
	j.CompletedAt = cloneTime(j.CompletedAt)
	j.Result = j.Result.Clone()
	return j
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

type QueueStatus struct {
	Pending     int  `json:"pending"`
	Running     int  `json:"running"`
	Concurrency int  `json:"concurrency"`
	MaxSize     int  `json:"maxSize"`
	IsFull      bool `json:"isFull"`
}
