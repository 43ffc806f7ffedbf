package service_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dlswn666/johapon-api/internal/model"
	"github.com/dlswn666/johapon-api/internal/provider/aligo"
	"github.com/dlswn666/johapon-api/internal/service"
)

// maintenanceSender wires a real provider client to a server that answers
// every call with an HTML page.
func maintenanceSender(t *testing.T) *service.SendService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html>maintenance</html>")
	}))
	t.Cleanup(srv.Close)

	creds := aligo.Credentials{APIKey: "k", UserID: "u", SenderPhone: "0212345678"}
	return &service.SendService{
		TemplateRepo: &MockTemplateRepo{},
		SecretRepo:   &MockSecretRepo{},
		Formatter:    aligo.NewFormatter(creds),
		Dispatcher:   aligo.NewClient(srv.URL, creds, "default-key"),
		Log:          zerolog.Nop(),
	}
}

func TestProcessJob_NonJSONProviderBodyIsRecorded(t *testing.T) {
	audit := &MockAudit{}
	svc := newAlimtalkService(maintenanceSender(t), audit, true)

	res, err := svc.ProcessJob(context.Background(), sendRequest(3))
	if err != nil {
		t.Fatalf("provider failure must not fail the job: %v", err)
	}
	if res.Success || res.FailCount != 3 {
		t.Errorf("expected unsuccessful result, got %+v", res)
	}
	if len(audit.logs) != 1 {
		t.Fatalf("expected one audit record, got %d", len(audit.logs))
	}

	var batches []model.BatchResult
	if err := json.Unmarshal(audit.logs[0].ProviderResponse, &batches); err != nil || len(batches) != 1 {
		t.Fatalf("batch results not recorded: %v", err)
	}
	var body string
	if err := json.Unmarshal(batches[0].ProviderResponse, &body); err != nil || body != "<html>maintenance</html>" {
		t.Errorf("unexpected provider response %s", batches[0].ProviderResponse)
	}
}

func TestSendSync_NonJSONProviderBody(t *testing.T) {
	audit := &MockAudit{}
	svc := newAlimtalkService(maintenanceSender(t), audit, true)

	res, err := svc.SendSync(context.Background(), sendRequest(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.LogID == "" || res.FailCount != 2 || res.KakaoSuccessCount != 0 {
		t.Errorf("unexpected sync result %+v", res)
	}
	if len(audit.logs) != 1 {
		t.Errorf("expected one audit record, got %d", len(audit.logs))
	}
}
