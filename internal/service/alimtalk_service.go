package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/dlswn666/johapon-api/internal/errors"
	"github.com/dlswn666/johapon-api/internal/model"
)

// MaxSyncRecipients caps requests served without the queue.
const MaxSyncRecipients = 500

// AuditSink persists audit records. It is the postgres log repository or
// the broker publisher.
type AuditSink interface {
	AppendLog(ctx context.Context, log *model.AlimtalkLog) (string, error)
}

type Sender interface {
	Send(ctx context.Context, req *model.SendRequest) (*model.SendResult, error)
}

type CostCalculator interface {
	CalculateCost(ctx context.Context, kakaoCount, smsCount int) float64
}

type AlimtalkService struct {
	Sender  Sender
	Pricing CostCalculator
	Audit   AuditSink

	// FailOnAuditError turns an audit write failure into a job failure.
	FailOnAuditError bool
	Log              zerolog.Logger
}

// SyncResult is returned by SendSync.
type SyncResult struct {
	LogID             string  `json:"logId"`
	TotalCount        int     `json:"totalCount"`
	TotalBatches      int     `json:"totalBatches"`
	KakaoSuccessCount int     `json:"kakaoSuccessCount"`
	SMSSuccessCount   int     `json:"smsSuccessCount"`
	FailCount         int     `json:"failCount"`
	EstimatedCost     float64 `json:"estimatedCost"`
	ChannelName       string  `json:"channelName"`
}

// ValidateSendRequest checks the fields every send needs.
func ValidateSendRequest(req *model.SendRequest) error {
	var missing []string
	if req.TenantID == "" {
		missing = append(missing, "unionId")
	}
	if req.TemplateCode == "" {
		missing = append(missing, "templateCode")
	}
	if len(req.Recipients) == 0 {
		missing = append(missing, "recipients")
	}
	if len(missing) > 0 {
		return appErrors.NewMissingFields(missing...)
	}
	return nil
}

// ProcessJob is the body run by the queue for each job.
func (s *AlimtalkService) ProcessJob(ctx context.Context, req *model.SendRequest) (*model.SendResult, error) {
	result, err := s.Sender.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, _, err := s.record(ctx, req, result, result.ChannelName); err != nil {
		if s.FailOnAuditError {
			return nil, err
		}
		s.Log.Error().Err(err).Str("tenant", req.TenantID).Msg("audit log not saved, job kept completed")
	}
	return result, nil
}

// SendSync sends a small request inline and records it. Unlike queued
// jobs an audit failure is always returned to the caller.
func (s *AlimtalkService) SendSync(ctx context.Context, req *model.SendRequest) (*SyncResult, error) {
	if err := ValidateSendRequest(req); err != nil {
		return nil, err
	}
	if len(req.Recipients) > MaxSyncRecipients {
		return nil, appErrors.NewValidation("TOO_MANY_RECIPIENTS",
			"synchronous sends are limited to 500 recipients, use /send instead")
	}

	result, err := s.Sender.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	channel := result.ChannelName

	logID, cost, err := s.record(ctx, req, result, channel)
	if err != nil {
		return nil, err
	}

	s.Log.Info().
		Str("log_id", logID).
		Int("kakao", result.KakaoSuccessCount).
		Int("fail", result.FailCount).
		Msg("sync send finished")

	return &SyncResult{
		LogID:             logID,
		TotalCount:        len(req.Recipients),
		TotalBatches:      result.TotalBatches,
		KakaoSuccessCount: result.KakaoSuccessCount,
		SMSSuccessCount:   result.SMSSuccessCount,
		FailCount:         result.FailCount,
		EstimatedCost:     cost,
		ChannelName:       channel,
	}, nil
}

// record prices the result and appends the audit entry.
func (s *AlimtalkService) record(ctx context.Context, req *model.SendRequest, result *model.SendResult, channel string) (string, float64, error) {
	cost := s.Pricing.CalculateCost(ctx, result.KakaoSuccessCount, result.SMSSuccessCount)

	entry, err := buildLog(req, result, channel, cost)
	if err != nil {
		return "", cost, appErrors.NewPersistence("alimtalk log", err)
	}
	id, err := s.Audit.AppendLog(ctx, entry)
	if err != nil {
		return "", cost, appErrors.NewPersistence("alimtalk log", err)
	}
	return id, cost, nil
}

func buildLog(req *model.SendRequest, result *model.SendResult, channel string, cost float64) (*model.AlimtalkLog, error) {
	recipients, err := json.Marshal(req.Recipients)
	if err != nil {
		return nil, err
	}
	batches, err := json.Marshal(result.BatchResults)
	if err != nil {
		return nil, err
	}

	name := result.TemplateName
	if name == "" {
		name = req.TemplateCode
	}
	return &model.AlimtalkLog{
		TenantID:          req.TenantID,
		SenderID:          req.SenderID,
		TemplateCode:      req.TemplateCode,
		TemplateName:      name,
		Title:             name,
		Content:           req.Content,
		NoticeID:          req.NoticeID,
		ChannelName:       channel,
		RecipientCount:    result.TotalRecipients,
		KakaoSuccessCount: result.KakaoSuccessCount,
		SMSSuccessCount:   result.SMSSuccessCount,
		FailCount:         result.FailCount,
		EstimatedCost:     cost,
		RecipientDetails:  recipients,
		ProviderResponse:  batches,
		SentAt:            time.Now(),
	}, nil
}
