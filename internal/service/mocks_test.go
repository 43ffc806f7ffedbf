package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dlswn666/johapon-api/internal/model"
	"github.com/dlswn666/johapon-api/internal/provider/aligo"
)

// Mock repositories

type MockTemplateRepo struct {
	templates map[string]*model.Template
	lookupErr error

	upserted []model.Template
	kept     []string
	inserted int
	updated  int
	deleted  int
}

func (m *MockTemplateRepo) GetByCode(ctx context.Context, code string) (*model.Template, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.templates[code], nil
}

func (m *MockTemplateRepo) UpsertMany(ctx context.Context, templates []model.Template) (int, int, error) {
	m.upserted = templates
	return m.inserted, m.updated, nil
}

func (m *MockTemplateRepo) DeleteNotIn(ctx context.Context, codes []string) (int, error) {
	m.kept = codes
	return m.deleted, nil
}

type MockSecretRepo struct {
	tenantKeys map[string]string
	channels   map[string]string
	keyErr     error
}

func (m *MockSecretRepo) GetTenantSendingKey(ctx context.Context, tenantID string) (string, error) {
	if m.keyErr != nil {
		return "", m.keyErr
	}
	return m.tenantKeys[tenantID], nil
}

func (m *MockSecretRepo) GetDefaultSendingKey(ctx context.Context) string { return "default-key" }

func (m *MockSecretRepo) GetChannelName(ctx context.Context, tenantID string) string {
	if name, ok := m.channels[tenantID]; ok {
		return name
	}
	return "조합온"
}

type MockPricingRepo struct {
	pricing model.PricingMap
	err     error
}

func (m *MockPricingRepo) CurrentUnitPrices(ctx context.Context) (model.PricingMap, error) {
	return m.pricing, m.err
}

type MockAudit struct {
	mu   sync.Mutex
	logs []*model.AlimtalkLog
	err  error
}

func (m *MockAudit) AppendLog(ctx context.Context, l *model.AlimtalkLog) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.logs = append(m.logs, l)
	return fmt.Sprintf("log-%d", len(m.logs)), nil
}

// MockDispatcher accepts every batch unless failBatch says otherwise.
type MockDispatcher struct {
	mu        sync.Mutex
	payloads  []aligo.Payload
	times     []time.Time
	failBatch func(index int) bool
}

func (m *MockDispatcher) Dispatch(ctx context.Context, p aligo.Payload) model.BatchResult {
	m.mu.Lock()
	m.payloads = append(m.payloads, p)
	m.times = append(m.times, time.Now())
	m.mu.Unlock()

	if m.failBatch != nil && m.failBatch(p.BatchIndex) {
		return model.BatchResult{
			BatchIndex: p.BatchIndex,
			FailCount:  p.RecipientCount,
			Error:      context.DeadlineExceeded.Error(),
		}
	}
	return model.BatchResult{
		BatchIndex:        p.BatchIndex,
		Success:           true,
		KakaoSuccessCount: p.RecipientCount,
		ActualCost:        float64(p.RecipientCount) * 8.4,
		ProviderResponse:  []byte(`{"code":0}`),
	}
}

type MockSender struct {
	result *model.SendResult
	err    error
}

func (m *MockSender) Send(ctx context.Context, req *model.SendRequest) (*model.SendResult, error) {
	return m.result, m.err
}

type MockLister struct {
	templates []model.Template
	err       error
}

func (m *MockLister) ListTemplates(ctx context.Context) ([]model.Template, error) {
	return m.templates, m.err
}

var errDB = errors.New("connection refused")

func recipients(n int) []model.Recipient {
	out := make([]model.Recipient, n)
	for i := range out {
		out[i] = model.Recipient{
			PhoneNumber: fmt.Sprintf("010-%04d-%04d", i/10000, i%10000),
			Name:        fmt.Sprintf("member %d", i),
			Variables:   map[string]string{"name": fmt.Sprintf("member %d", i)},
		}
	}
	return out
}
