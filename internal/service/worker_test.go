package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/dlswn666/johapon-api/internal/model"
	"github.com/dlswn666/johapon-api/internal/service"
)

// MockLogRepo stores records in memory
type MockLogRepo struct {
	mu    sync.Mutex
	saved map[string]*model.AlimtalkLog
	err   error
}

func (m *MockLogRepo) AppendLog(ctx context.Context, l *model.AlimtalkLog) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.saved[l.ID] = l
	return l.ID, nil
}

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error { a.acked = true; return nil }
func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}
func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}

type MockRepublisher struct {
	msgs []amqp.Publishing
	err  error
}

func (m *MockRepublisher) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

func delivery(body string, headers amqp.Table) (amqp.Delivery, *ackRecorder) {
	ack := &ackRecorder{}
	return amqp.Delivery{Acknowledger: ack, Body: []byte(body), Headers: headers, MessageId: "log-1"}, ack
}

func runWorker(w *service.AuditWorker, d amqp.Delivery) {
	ch := make(chan amqp.Delivery, 1)
	ch <- d
	close(ch)
	w.Start(context.Background(), ch)
}

func TestAuditWorker_Persists(t *testing.T) {
	repo := &MockLogRepo{saved: map[string]*model.AlimtalkLog{}}
	w := service.NewAuditWorker(repo, &MockRepublisher{}, "alimtalk_logs", zerolog.Nop())

	d, ack := delivery(`{"id":"log-1","union_id":"u-1","kakao_success_count":3,"recipient_details":[{"phoneNumber":"01012345678"}]}`, nil)
	runWorker(w, d)

	if !ack.acked {
		t.Error("expected ack")
	}
	saved := repo.saved["log-1"]
	if saved == nil || saved.KakaoSuccessCount != 3 || saved.TenantID != "u-1" {
		t.Fatalf("record not saved: %+v", saved)
	}
	if string(saved.RecipientDetails) != `[{"phoneNumber":"01012345678"}]` {
		t.Errorf("recipient details altered: %s", saved.RecipientDetails)
	}
}

func TestAuditWorker_DropsInvalid(t *testing.T) {
	repo := &MockLogRepo{saved: map[string]*model.AlimtalkLog{}}
	retry := &MockRepublisher{}
	w := service.NewAuditWorker(repo, retry, "alimtalk_logs", zerolog.Nop())

	for _, body := range []string{"not json", `{"union_id":"u-1"}`} {
		d, ack := delivery(body, nil)
		runWorker(w, d)
		if !ack.acked || len(retry.msgs) != 0 {
			t.Errorf("%q: expected ack without retry", body)
		}
	}
}

func TestAuditWorker_RetriesWithCount(t *testing.T) {
	repo := &MockLogRepo{err: errors.New("db down")}
	retry := &MockRepublisher{}
	w := service.NewAuditWorker(repo, retry, "alimtalk_logs", zerolog.Nop())

	d, ack := delivery(`{"id":"log-1"}`, amqp.Table{service.RetryHeader: int32(1)})
	runWorker(w, d)

	if !ack.acked {
		t.Error("original delivery should be acked after republish")
	}
	if len(retry.msgs) != 1 {
		t.Fatalf("expected one republish, got %d", len(retry.msgs))
	}
	if got := retry.msgs[0].Headers[service.RetryHeader]; got != int32(2) {
		t.Errorf("expected retry count 2, got %v", got)
	}
}

func TestAuditWorker_GivesUp(t *testing.T) {
	repo := &MockLogRepo{err: errors.New("db down")}
	retry := &MockRepublisher{}
	w := service.NewAuditWorker(repo, retry, "alimtalk_logs", zerolog.Nop())

	d, ack := delivery(`{"id":"log-1"}`, amqp.Table{service.RetryHeader: int32(3)})
	runWorker(w, d)

	if !ack.nacked || ack.requeue {
		t.Errorf("expected nack without requeue, got %+v", ack)
	}
	if len(retry.msgs) != 0 {
		t.Error("exhausted record must not be republished")
	}
}

func TestAuditWorker_RepublishFailureRequeues(t *testing.T) {
	repo := &MockLogRepo{err: errors.New("db down")}
	w := service.NewAuditWorker(repo, &MockRepublisher{err: amqp.ErrClosed}, "alimtalk_logs", zerolog.Nop())

	d, ack := delivery(`{"id":"log-1"}`, nil)
	runWorker(w, d)

	if !ack.nacked || !ack.requeue {
		t.Errorf("expected broker requeue, got %+v", ack)
	}
}
