// internal/service/send_service.go
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/dlswn666/johapon-api/internal/errors"
	"github.com/dlswn666/johapon-api/internal/model"
	"github.com/dlswn666/johapon-api/internal/provider/aligo"
	"github.com/dlswn666/johapon-api/internal/repository"
)

const (
	DefaultBatchSize = aligo.MaxBatchSize
	DefaultPacing    = 100 * time.Millisecond
)

// Dispatcher sends one formatted batch. Failures are reported in the result.
type Dispatcher interface {
	Dispatch(ctx context.Context, p aligo.Payload) model.BatchResult
}

// SendService splits a request into provider-sized batches and dispatches
// them one after another.
type SendService struct {
	TemplateRepo repository.TemplateRepositoryInterface
	SecretRepo   repository.SecretRepositoryInterface
	Formatter    *aligo.Formatter
	Dispatcher   Dispatcher

	BatchSize int
	Pacing    time.Duration
	Log       zerolog.Logger
}

// ResolveIdentity picks the tenant's own sender key when one exists, else
// the shared default key and channel.
func (s *SendService) ResolveIdentity(ctx context.Context, tenantID string) model.SendingIdentity {
	key, err := s.SecretRepo.GetTenantSendingKey(ctx, tenantID)
	if err != nil {
		s.Log.Warn().Err(err).Str("tenant", tenantID).Msg("tenant sender key lookup failed, using default")
	}
	if err == nil && key != "" {
		return model.SendingIdentity{
			SenderKey:   key,
			ChannelName: s.SecretRepo.GetChannelName(ctx, tenantID),
			IsDefault:   false,
		}
	}
	return model.SendingIdentity{
		SenderKey:   s.SecretRepo.GetDefaultSendingKey(ctx),
		ChannelName: s.SecretRepo.GetChannelName(ctx, ""),
		IsDefault:   true,
	}
}

func (s *SendService) lookupTemplate(ctx context.Context, code string) *model.Template {
	tpl, err := s.TemplateRepo.GetByCode(ctx, code)
	if err != nil {
		s.Log.Warn().Err(err).Str("template", code).Msg("template lookup failed, sending request content only")
		return nil
	}
	if tpl == nil {
		s.Log.Warn().Err(appErrors.NewTemplateNotFound(code)).Msg("sending request content only")
		return nil
	}
	s.Log.Debug().
		Str("template", code).
		Str("type", tpl.Type).
		Str("em_type", tpl.EmType).
		Int("buttons", len(tpl.Buttons)).
		Msg("template resolved")
	return tpl
}

// Chunk splits recipients into contiguous slices of at most size, in order.
func Chunk(recipients []model.Recipient, size int) [][]model.Recipient {
	if size <= 0 {
		size = DefaultBatchSize
	}
	chunks := make([][]model.Recipient, 0, (len(recipients)+size-1)/size)
	for i := 0; i < len(recipients); i += size {
		end := i + size
		if end > len(recipients) {
			end = len(recipients)
		}
		chunks = append(chunks, recipients[i:end])
	}
	return chunks
}

// Send dispatches every batch of req. A failed batch never stops the
// remaining ones; the only error returned is ctx's.
//
// Zero recipients produce zero batches and Success=true.
func (s *SendService) Send(ctx context.Context, req *model.SendRequest) (*model.SendResult, error) {
	tpl := s.lookupTemplate(ctx, req.TemplateCode)
	identity := s.ResolveIdentity(ctx, req.TenantID)

	pacing := s.Pacing
	if pacing < 0 {
		pacing = 0
	}
	size := s.BatchSize
	if size <= 0 || size > aligo.MaxBatchSize {
		size = DefaultBatchSize
	}
	batches := Chunk(req.Recipients, size)

	log := s.Log.With().Str("tenant", req.TenantID).Str("template", req.TemplateCode).Logger()
	log.Info().Int("recipients", len(req.Recipients)).Int("batches", len(batches)).Msg("send started")

	result := &model.SendResult{
		Success:         true,
		TotalRecipients: len(req.Recipients),
		TotalBatches:    len(batches),
		TemplateName:    req.TemplateName,
		ChannelName:     identity.ChannelName,
		BatchResults:    make([]model.BatchResult, 0, len(batches)),
	}
	if tpl != nil && tpl.Name != "" {
		result.TemplateName = tpl.Name
	}

	for i, recipients := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload := s.Formatter.Format(aligo.Batch{
			Index:        i,
			TemplateCode: req.TemplateCode,
			Title:        req.Title,
			Recipients:   recipients,
		}, tpl, identity)

		br := s.Dispatcher.Dispatch(ctx, payload)
		br.BatchIndex = i

		result.BatchResults = append(result.BatchResults, br)
		result.KakaoSuccessCount += br.KakaoSuccessCount
		result.SMSSuccessCount += br.SMSSuccessCount
		result.FailCount += br.FailCount
		result.TotalActualCost += br.ActualCost
		result.Success = result.Success && br.Success

		log.Debug().Int("batch", i+1).Int("of", len(batches)).Bool("success", br.Success).Str("error", br.Error).Msg("batch dispatched")

		if i < len(batches)-1 && pacing > 0 {
			timer := time.NewTimer(pacing)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	log.Info().
		Bool("success", result.Success).
		Int("kakao", result.KakaoSuccessCount).
		Int("sms", result.SMSSuccessCount).
		Int("fail", result.FailCount).
		Float64("cost", result.TotalActualCost).
		Msg("send finished")
	return result, nil
}
