// internal/model/result.go
package model

import (
	"encoding/json"
	"time"
)

type BatchResult struct {
	BatchIndex        int             `json:"batchIndex"`
	Success           bool            `json:"success"`
	KakaoSuccessCount int             `json:"kakaoSuccessCount"`
	SMSSuccessCount   int             `json:"smsSuccessCount"`
	FailCount         int             `json:"failCount"`
	ActualCost        float64         `json:"actualCost"`
	ProviderResponse  json.RawMessage `json:"aligoResponse"`
	Error             string          `json:"error,omitempty"`
}

type SendResult struct {
	Success           bool          `json:"success"`
	TotalRecipients   int           `json:"totalRecipients"`
	TotalBatches      int           `json:"totalBatches"`
	KakaoSuccessCount int           `json:"kakaoSuccessCount"`
	SMSSuccessCount   int           `json:"smsSuccessCount"`
	FailCount         int           `json:"failCount"`
	TotalActualCost   float64       `json:"totalActualCost"`
	TemplateName      string        `json:"templateName,omitempty"`
	ChannelName       string        `json:"channelName,omitempty"`
	BatchResults      []BatchResult `json:"batchResults"`
}

func (r *SendResult) Clone() *SendResult {
	if r == nil {
		return nil
	}
	c := *r
	if r.BatchResults != nil {
		c.BatchResults = make([]BatchResult, len(r.BatchResults))
		for i, br := range r.BatchResults {
			br.ProviderResponse = append(json.RawMessage(nil), br.ProviderResponse...)
			c.BatchResults[i] = br
		}
	}
	return &c
}

// PricingMap holds unit prices per message type.
type PricingMap struct {
	Kakao float64 `json:"KAKAO"`
	SMS   float64 `json:"SMS"`
	LMS   float64 `json:"LMS"`
}

// AlimtalkLog is the audit record persisted after a send. RecipientDetails
// and ProviderResponse are kept opaque.
type AlimtalkLog struct {
	ID                string          `db:"id" json:"id"`
	TenantID          string          `db:"union_id" json:"union_id"`
	SenderID          string          `db:"sender_id" json:"sender_id"`
	TemplateCode      string          `db:"template_code" json:"template_code"`
	TemplateName      string          `db:"template_name" json:"template_name"`
	Title             string          `db:"title" json:"title"`
	Content           string          `db:"content" json:"content,omitempty"`
	NoticeID          *int64          `db:"notice_id" json:"notice_id,omitempty"`
	ChannelName       string          `db:"sender_channel_name" json:"sender_channel_name"`
	RecipientCount    int             `db:"recipient_count" json:"recipient_count"`
	KakaoSuccessCount int             `db:"kakao_success_count" json:"kakao_success_count"`
	SMSSuccessCount   int             `db:"sms_success_count" json:"sms_success_count"`
	FailCount         int             `db:"fail_count" json:"fail_count"`
	EstimatedCost     float64         `db:"estimated_cost" json:"estimated_cost"`
	RecipientDetails  json.RawMessage `db:"recipient_details" json:"recipient_details"`
	ProviderResponse  json.RawMessage `db:"aligo_response" json:"aligo_response"`
	SentAt            time.Time       `db:"sent_at" json:"sent_at"`
}
