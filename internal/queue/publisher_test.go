package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/dlswn666/johapon-api/internal/model"
)

type fakeChannel struct {
	key  string
	msgs []amqp.Publishing
	err  error
}

func (c *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.key = key
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestAuditPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := NewAuditPublisher(ch, "")

	id, err := p.AppendLog(context.Background(), &model.AlimtalkLog{
		TenantID:          "u-1",
		TemplateCode:      "UA_1234",
		KakaoSuccessCount: 3,
		ProviderResponse:  json.RawMessage(`[{"batchIndex":0}]`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" || ch.key != DefaultAuditQueue || len(ch.msgs) != 1 {
		t.Fatalf("unexpected publish: id=%q key=%q msgs=%d", id, ch.key, len(ch.msgs))
	}

	msg := ch.msgs[0]
	if msg.MessageId != id || msg.DeliveryMode != amqp.Persistent {
		t.Errorf("unexpected publishing %+v", msg)
	}
	var decoded model.AlimtalkLog
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("body is not an audit record: %v", err)
	}
	if decoded.ID != id || decoded.KakaoSuccessCount != 3 || string(decoded.ProviderResponse) != `[{"batchIndex":0}]` {
		t.Errorf("unexpected decoded record %+v", decoded)
	}
}

func TestAuditPublisher_Error(t *testing.T) {
	p := NewAuditPublisher(&fakeChannel{err: amqp.ErrClosed}, "logs")

	if _, err := p.AppendLog(context.Background(), &model.AlimtalkLog{}); !errors.Is(err, amqp.ErrClosed) {
		t.Fatalf("expected wrapped channel error, got %v", err)
	}
}

type countingSweeper struct {
	calls chan struct{}
}

func (s *countingSweeper) Sweep() int {
	s.calls <- struct{}{}
	return 0
}

func TestJanitor(t *testing.T) {
	if _, err := NewJanitor(&countingSweeper{}, "every now and then", zerolog.Nop()); err == nil {
		t.Fatal("expected invalid schedule to be rejected")
	}

	s := &countingSweeper{calls: make(chan struct{}, 4)}
	j, err := NewJanitor(s, "@every 1s", zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	j.Start()
	defer j.Stop(context.Background())

	select {
	case <-s.calls:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep never ran")
	}
}
