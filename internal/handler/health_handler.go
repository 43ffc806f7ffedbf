// internal/handler/health_handler.go
package handler

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/dlswn666/johapon-api/internal/model"
	"github.com/dlswn666/johapon-api/internal/response"
)

const Version = "1.0.0"

type QueueStatter interface {
	QueueStatus() model.QueueStatus
}

// HealthHandler reports process and queue health. It needs no auth.
type HealthHandler struct {
	Queue   QueueStatter
	Started time.Time
	AppEnv  string
	Port    string
}

type memoryStats struct {
	HeapAlloc float64 `json:"heapUsed"`
	HeapSys   float64 `json:"heapTotal"`
	Sys       float64 `json:"sys"`
	Unit      string  `json:"unit"`
}

type queueHealth struct {
	model.QueueStatus
	Available int `json:"available"`
}

func toMB(b uint64) float64 {
	return float64(b*100/1024/1024) / 100
}

func readMemory() memoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return memoryStats{
		HeapAlloc: toMB(m.HeapAlloc),
		HeapSys:   toMB(m.HeapSys),
		Sys:       toMB(m.Sys),
		Unit:      "MB",
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"uptime":    time.Since(h.Started).Seconds(),
		"memory":    readMemory(),
		"queue":     h.Queue.QueueStatus(),
	})
}

func (h *HealthHandler) Detailed(w http.ResponseWriter, r *http.Request) {
	st := h.Queue.QueueStatus()
	uptime := time.Since(h.Started)

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"runtime": map[string]interface{}{
			"go":         runtime.Version(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"goroutines": runtime.NumGoroutine(),
		},
		"process": map[string]interface{}{
			"pid":             os.Getpid(),
			"uptime":          uptime.Seconds(),
			"uptimeFormatted": FormatUptime(uptime),
		},
		"memory": readMemory(),
		"queue": queueHealth{
			QueueStatus: st,
			Available:   st.MaxSize - st.Pending - st.Running,
		},
		"environment": map[string]string{
			"appEnv": h.AppEnv,
			"port":   h.Port,
		},
	})
}

// FormatUptime renders d as "1d 2h 3m 4s", omitting zero parts.
func FormatUptime(d time.Duration) string {
	secs := int64(d.Seconds())
	days := secs / 86400
	hours := secs % 86400 / 3600
	minutes := secs % 3600 / 60
	secs = secs % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if secs > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}
	return strings.Join(parts, " ")
}
