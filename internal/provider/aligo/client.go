package aligo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/dlswn666/johapon-api/internal/model"
)

const (
	DefaultBaseURL = "https://kakaoapi.aligo.in"
	DefaultTimeout = 30 * time.Second

	sendPath         = "/akv10/alimtalk/send/"
	templateListPath = "/akv10/template/list/"
)

var kst = time.FixedZone("KST", 9*60*60)

type Client struct {
	BaseURL     string
	Credentials Credentials
	// DefaultSenderKey is used for template listing.
	DefaultSenderKey string

	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

type ClientOption func(*Client)

// WithHTTPClient replaces the keep-alive client built by NewClient.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing calls per second across all jobs. rps <= 0 disables it.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

func NewClient(baseURL string, creds Credentials, defaultSenderKey string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
	}
	c := &Client{
		BaseURL:          strings.TrimRight(baseURL, "/"),
		Credentials:      creds,
		DefaultSenderKey: defaultSenderKey,
		httpClient:       &http.Client{Timeout: DefaultTimeout, Transport: transport},
		limiter:          rate.NewLimiter(rate.Inf, 1),
		log:              zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch performs one send call and classifies the outcome. It never
// returns an error; every failure path is reported in the BatchResult.
func (c *Client) Dispatch(ctx context.Context, p Payload) model.BatchResult {
	log := c.log.With().Int("batch", p.BatchIndex+1).Int("recipients", p.RecipientCount).Logger()

	raw, err := c.post(ctx, sendPath, p.Encode())
	if err != nil {
		log.Error().Err(err).Msg("aligo send call failed")
		return failedBatch(p, nil, err.Error())
	}

	var resp sendResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		log.Error().Err(err).Msg("aligo send response undecodable")
		// keep the body as a JSON string so the audit record stays encodable
		quoted, _ := json.Marshal(string(raw))
		return failedBatch(p, quoted, fmt.Sprintf("decode aligo response: %v", err))
	}

	if resp.Code != successCode || resp.Info == nil {
		log.Warn().Int("code", resp.Code).Str("message", resp.Message).Msg("aligo rejected batch")
		return failedBatch(p, raw, resp.Message)
	}

	log.Debug().Int("scnt", resp.Info.SCnt).Int("fcnt", resp.Info.FCnt).Float64("total", resp.Info.Total).Msg("aligo batch accepted")
	return model.BatchResult{
		BatchIndex:        p.BatchIndex,
		Success:           true,
		KakaoSuccessCount: resp.Info.SCnt,
		// per-recipient channel detail is not in the send response
		SMSSuccessCount:  0,
		FailCount:        resp.Info.FCnt,
		ActualCost:       resp.Info.Total,
		ProviderResponse: raw,
	}
}

func failedBatch(p Payload, raw json.RawMessage, msg string) model.BatchResult {
	return model.BatchResult{
		BatchIndex:       p.BatchIndex,
		Success:          false,
		FailCount:        p.RecipientCount,
		ProviderResponse: raw,
		Error:            msg,
	}
}

// ListTemplates fetches every template registered under the default sender key.
func (c *Client) ListTemplates(ctx context.Context) ([]model.Template, error) {
	form := url.Values{}
	form.Set("apikey", c.Credentials.APIKey)
	form.Set("userid", c.Credentials.UserID)
	form.Set("senderkey", c.DefaultSenderKey)

	raw, err := c.post(ctx, templateListPath, form.Encode())
	if err != nil {
		return nil, fmt.Errorf("aligo template list: %w", err)
	}

	var resp templateListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode aligo template list: %w", err)
	}
	if resp.Code != successCode || resp.List == nil {
		c.log.Warn().Int("code", resp.Code).Str("message", resp.Message).Msg("aligo template list rejected")
		return []model.Template{}, nil
	}

	templates := make([]model.Template, 0, len(resp.List))
	for _, item := range resp.List {
		templates = append(templates, item.toModel())
	}
	return templates, nil
}

func (t templateItem) toModel() model.Template {
	tpl := model.Template{
		Code:       t.TempltCode,
		Name:       t.TempltName,
		Content:    t.TempltContent,
		Status:     t.Status,
		InspStatus: t.InspStatus,
		SenderKey:  t.SenderKey,
		Type:       t.TemplateType,
		EmType:     t.TemplateEmType,
		Title:      t.TempltTitle,
		Subtitle:   t.TempltSubtitle,
		ImageName:  t.TempltImageName,
		ImageURL:   t.TempltImageURL,
	}
	if len(t.Comments) > 0 && string(t.Comments) != "null" {
		tpl.Comments = string(t.Comments)
	}
	if t.CDate != "" {
		if ts, err := time.ParseInLocation(time.DateTime, t.CDate, kst); err == nil {
			tpl.CDate = &ts
		}
	}
	for _, b := range t.Buttons {
		tpl.Buttons = append(tpl.Buttons, model.Button{
			Name:         b.Name,
			LinkType:     b.LinkType,
			LinkTypeName: b.LinkTypeName,
			LinkMo:       b.LinkMo,
			LinkPc:       b.LinkPc,
		})
	}
	return tpl
}

func (c *Client) post(ctx context.Context, path, body string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read aligo response: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("aligo responded %s", res.Status)
	}
	return raw, nil
}
