package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/dlswn666/johapon-api/internal/model"
)

type LogRepositoryInterface interface {
	AppendLog(ctx context.Context, log *model.AlimtalkLog) (string, error)
}

type LogRepository struct {
	DB *sql.DB
}

// AppendLog inserts the audit record. A record that already carries an ID
// (published through the broker) keeps it, so redelivery is idempotent.
func (r *LogRepository) AppendLog(ctx context.Context, l *model.AlimtalkLog) (string, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.SentAt.IsZero() {
		l.SentAt = time.Now()
	}

	query := `
        INSERT INTO alimtalk_logs
        (id, union_id, sender_id, template_code, template_name, title, content, notice_id,
         sender_channel_name, recipient_count, kakao_success_count, sms_success_count,
         fail_count, estimated_cost, recipient_details, aligo_response, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
        ON CONFLICT (id) DO NOTHING
    `
	_, err := r.DB.ExecContext(ctx, query,
		l.ID, l.TenantID, l.SenderID, l.TemplateCode, l.TemplateName, l.Title, l.Content, l.NoticeID,
		l.ChannelName, l.RecipientCount, l.KakaoSuccessCount, l.SMSSuccessCount,
		l.FailCount, l.EstimatedCost, jsonbArg(l.RecipientDetails), jsonbArg(l.ProviderResponse), l.SentAt,
	)
	if err != nil {
		return "", err
	}
	return l.ID, nil
}

// jsonbArg sends raw JSON as text so postgres casts it into jsonb.
func jsonbArg(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

var _ LogRepositoryInterface = (*LogRepository)(nil)
