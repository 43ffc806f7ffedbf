package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dlswn666/johapon-api/internal/model"
)

type fixedQueue struct{ st model.QueueStatus }

func (f fixedQueue) QueueStatus() model.QueueStatus { return f.st }

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{59 * time.Second, "59s"},
		{time.Hour, "1h"},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "1d 2h 3m 4s"},
	}
	for _, tc := range tests {
		if got := FormatUptime(tc.d); got != tc.want {
			t.Errorf("FormatUptime(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestDetailedHealth(t *testing.T) {
	h := &HealthHandler{
		Queue:   fixedQueue{model.QueueStatus{Pending: 2, Running: 5, Concurrency: 5, MaxSize: 100}},
		Started: time.Now().Add(-time.Minute),
		AppEnv:  "production",
		Port:    "3100",
	}

	w := httptest.NewRecorder()
	h.Detailed(w, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Status string `json:"status"`
		Queue  struct {
			Pending   int `json:"pending"`
			Available int `json:"available"`
		} `json:"queue"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Queue.Pending != 2 || body.Queue.Available != 93 {
		t.Errorf("unexpected body %+v", body)
	}
}
