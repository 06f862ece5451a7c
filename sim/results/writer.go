// Package results serializes simulation outputs: the CSV event log, the JSON
// occupancy-metrics and co-occurrence files, optional SQLite persistence, and
// the offline co-occurrence report consumed by `nestsim analyze`.
package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nestsim/nestsim/sim"
)

// Output file names within a run directory.
const (
	EventLogFile     = "simulated_log.csv"
	MetricsFile      = "nest_metrics.json"
	CoOccurrenceFile = "co_occurrences.json"
)

// WriteAll writes the event log, metrics, and co-occurrence files for a run
// into dir, creating it if needed. start anchors simulated second 0 to a
// calendar instant.
func WriteAll(dir string, start time.Time, res *sim.Results) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := WriteEventLog(filepath.Join(dir, EventLogFile), start, res.Logs); err != nil {
		return err
	}
	if err := WriteMetrics(filepath.Join(dir, MetricsFile), res.Metrics); err != nil {
		return err
	}
	return WriteCoOccurrences(filepath.Join(dir, CoOccurrenceFile), res.CoOccurrences)
}

// WriteEventLog writes the occupancy log as CSV with calendar date/time
// columns. Timestamps are simulated seconds added to start; actions map to
// IN/OUT; nests are formatted as Nest_<id>.
func WriteEventLog(path string, start time.Time, logs []sim.LogEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create event log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "time", "action", "hen_id", "nest_id"}); err != nil {
		return fmt.Errorf("write event log header: %w", err)
	}
	for _, entry := range logs {
		ts := start.Add(time.Duration(entry.Timestamp * float64(time.Second)))
		action := "IN"
		if entry.Action == sim.ActionExit {
			action = "OUT"
		}
		record := []string{
			ts.Format("2006-01-02"),
			ts.Format("15:04:05"),
			action,
			strconv.Itoa(entry.HenID),
			FormatNestID(entry.NestID),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write event log record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush event log: %w", err)
	}
	return nil
}

// nestDurations is the JSON shape of one nest's metrics.
type nestDurations struct {
	TotalOccupancyDuration float64 `json:"total_occupancy_duration"`
	TotalSingleHenDuration float64 `json:"total_single_hen_duration"`
}

// WriteMetrics writes per-nest occupancy durations keyed by formatted nest id.
func WriteMetrics(path string, metrics []sim.NestMetrics) error {
	out := make(map[string]nestDurations, len(metrics))
	for _, m := range metrics {
		out[FormatNestID(m.NestID)] = nestDurations{
			TotalOccupancyDuration: m.TotalOccupancyDuration,
			TotalSingleHenDuration: m.TotalSingleHenDuration,
		}
	}
	return writeJSON(path, out)
}

// WriteCoOccurrences writes the aggregated pair counts keyed "a,b" with a < b,
// the format the analyze subcommand consumes.
func WriteCoOccurrences(path string, pairs sim.CoOccurrenceCounter) error {
	out := make(map[string]int, len(pairs))
	for pair, count := range pairs {
		out[FormatPairKey(pair)] = count
	}
	return writeJSON(path, out)
}

// FormatNestID renders a nest identifier for external outputs.
func FormatNestID(id int) string {
	return fmt.Sprintf("Nest_%d", id)
}

// FormatPairKey renders a canonical hen pair as "a,b".
func FormatPairKey(pair sim.HenPair) string {
	return fmt.Sprintf("%d,%d", pair.A, pair.B)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
