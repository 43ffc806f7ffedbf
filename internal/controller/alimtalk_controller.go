// internal/controller/alimtalk_controller.go
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	appErrors "github.com/dlswn666/johapon-api/internal/errors"
	"github.com/dlswn666/johapon-api/internal/middleware"
	"github.com/dlswn666/johapon-api/internal/model"
	"github.com/dlswn666/johapon-api/internal/response"
	"github.com/dlswn666/johapon-api/internal/service"
)

type JobQueue interface {
	Enqueue(req *model.SendRequest) (model.Job, error)
	Status(id string) (model.Job, error)
	QueueStatus() model.QueueStatus
}

type SyncSender interface {
	SendSync(ctx context.Context, req *model.SendRequest) (*service.SyncResult, error)
}

type TemplateSyncer interface {
	Sync(ctx context.Context) (*model.TemplateSyncResult, error)
}

type AlimtalkController struct {
	Queue     JobQueue
	Sender    SyncSender
	Templates TemplateSyncer
	Log       zerolog.Logger
}

// Routes mounts the handlers; authentication is applied by the caller.
func (c *AlimtalkController) Routes(r chi.Router) {
	r.Post("/send", c.Send)
	r.Post("/send-sync", c.SendSync)
	r.Get("/send/status/{jobId}", c.JobStatus)
	r.Get("/queue/status", c.QueueStatus)
	r.Post("/sync-templates", c.SyncTemplates)
}

type queueSnapshot struct {
	Pending int `json:"pending"`
	Running int `json:"running"`
}

type acceptedJob struct {
	JobID          string          `json:"jobId"`
	Status         model.JobStatus `json:"status"`
	RecipientCount int             `json:"recipientCount"`
	Message        string          `json:"message"`
	QueueStatus    queueSnapshot   `json:"queueStatus"`
}

func (c *AlimtalkController) decode(w http.ResponseWriter, r *http.Request) (*model.SendRequest, bool) {
	var req model.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PARAMS", "invalid request body")
		return nil, false
	}
	if req.SenderID == "" {
		if p, ok := middleware.PrincipalFrom(r.Context()); ok {
			req.SenderID = p.UserID
		}
	}
	return &req, true
}

// Send queues a bulk send and answers 202 with the job ID.
func (c *AlimtalkController) Send(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decode(w, r)
	if !ok {
		return
	}
	if err := service.ValidateSendRequest(req); err != nil {
		c.writeError(w, err)
		return
	}

	job, err := c.Queue.Enqueue(req)
	if err != nil {
		c.writeError(w, err)
		return
	}
	st := c.Queue.QueueStatus()

	response.Success(w, http.StatusAccepted, acceptedJob{
		JobID:          job.ID,
		Status:         job.Status,
		RecipientCount: job.RecipientCount,
		Message:        "send request accepted, poll the status endpoint for the result",
		QueueStatus:    queueSnapshot{Pending: st.Pending, Running: st.Running},
	})
}

func (c *AlimtalkController) SendSync(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decode(w, r)
	if !ok {
		return
	}

	res, err := c.Sender.SendSync(r.Context(), req)
	if err != nil {
		c.writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, res)
}

type resultSummary struct {
	Success           bool `json:"success"`
	TotalRecipients   int  `json:"totalRecipients"`
	TotalBatches      int  `json:"totalBatches"`
	KakaoSuccessCount int  `json:"kakaoSuccessCount"`
	SMSSuccessCount   int  `json:"smsSuccessCount"`
	FailCount         int  `json:"failCount"`
}

type jobView struct {
	JobID          string          `json:"jobId"`
	Status         model.JobStatus `json:"status"`
	TenantID       string          `json:"unionId"`
	RecipientCount int             `json:"recipientCount"`
	CreatedAt      time.Time       `json:"createdAt"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
	Result         *resultSummary  `json:"result,omitempty"`
	Error          string          `json:"error,omitempty"`
}

func (c *AlimtalkController) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobId")
	if id == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_PARAMS", "jobId is required")
		return
	}

	job, err := c.Queue.Status(id)
	if err != nil {
		c.writeError(w, err)
		return
	}

	view := jobView{
		JobID:          job.ID,
		Status:         job.Status,
		TenantID:       job.TenantID,
		RecipientCount: job.RecipientCount,
		CreatedAt:      job.CreatedAt,
		StartedAt:      job.StartedAt,
		CompletedAt:    job.CompletedAt,
		Error:          job.Error,
	}
	if job.Status == model.JobCompleted && job.Result != nil {
		view.Result = &resultSummary{
			Success:           job.Result.Success,
			TotalRecipients:   job.Result.TotalRecipients,
			TotalBatches:      job.Result.TotalBatches,
			KakaoSuccessCount: job.Result.KakaoSuccessCount,
			SMSSuccessCount:   job.Result.SMSSuccessCount,
			FailCount:         job.Result.FailCount,
		}
	}
	response.Success(w, http.StatusOK, view)
}

func (c *AlimtalkController) QueueStatus(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, c.Queue.QueueStatus())
}

func (c *AlimtalkController) SyncTemplates(w http.ResponseWriter, r *http.Request) {
	res, err := c.Templates.Sync(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	response.Success(w, http.StatusOK, res)
}

func (c *AlimtalkController) writeError(w http.ResponseWriter, err error) {
	var vErr *appErrors.ValidationError
	var notFound *appErrors.ErrJobNotFound

	switch {
	case errors.As(err, &vErr):
		response.Error(w, http.StatusBadRequest, vErr.Code, vErr.Error())
	case errors.Is(err, appErrors.ErrQueueFull):
		response.Error(w, http.StatusServiceUnavailable, "QUEUE_FULL", err.Error())
	case errors.Is(err, appErrors.ErrQueueClosed):
		response.Error(w, http.StatusServiceUnavailable, "QUEUE_CLOSED", err.Error())
	case errors.As(err, &notFound):
		response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", err.Error())
	default:
		c.Log.Error().Err(err).Msg("request failed")
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
