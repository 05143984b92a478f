package runlog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alnah/go-texgen/internal/fileutil"
)

// MetricsFile is the name of the per-run metrics document.
const MetricsFile = "metrics.json"

// Summary aggregates the outcomes of one generation run.
type Summary struct {
	RunID     string
	Processed int
	// Attempted counts records that reached the model.
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
	// Latency is the summed model latency of attempted records.
	Latency time.Duration
	Total   time.Duration
}

// SuccessRate is Succeeded over Attempted, 0 when nothing was attempted.
func (s Summary) SuccessRate() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Attempted)
}

// AverageLatency is the mean model latency per attempted record.
func (s Summary) AverageLatency() time.Duration {
	if s.Attempted == 0 {
		return 0
	}
	return s.Latency / time.Duration(s.Attempted)
}

type metricsJSON struct {
	RunID        string  `json:"run_id,omitempty"`
	Processed    int     `json:"processed"`
	Attempted    int     `json:"attempted"`
	Succeeded    int     `json:"succeeded"`
	Failed       int     `json:"failed"`
	Skipped      int     `json:"skipped"`
	SuccessRate  float64 `json:"success_rate"`
	AvgLatencyMS int64   `json:"avg_latency_ms"`
	TotalTimeMS  int64   `json:"total_time_ms"`
}

// WriteMetrics replaces path with the JSON form of s.
func WriteMetrics(path string, s Summary) error {
	data, err := json.MarshalIndent(metricsJSON{
		RunID:        s.RunID,
		Processed:    s.Processed,
		Attempted:    s.Attempted,
		Succeeded:    s.Succeeded,
		Failed:       s.Failed,
		Skipped:      s.Skipped,
		SuccessRate:  s.SuccessRate(),
		AvgLatencyMS: s.AverageLatency().Milliseconds(),
		TotalTimeMS:  s.Total.Milliseconds(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}
	return fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}
