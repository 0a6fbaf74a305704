package driver

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Report は実行結果をフォーマットして返す
func (s *Summary) Report() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf(`
================================================================================
                         WORKLOAD REPORT: %s
================================================================================

EXECUTION SUMMARY
-----------------
  Start Time:     %s
  End Time:       %s
  Duration:       %v
  Workers:        %d
  Stress Mode:    %v
  Interrupted:    %v

OUTCOME TOTALS
--------------
  Total:          %d
  Success:        %d
  Failed:         %d
  Error Rate:     %.2f%%
  Avg Latency:    %v
  P99 Latency:    %v
  Throughput:     %.2f req/s

PER-SCENARIO COUNTS
-------------------
`,
		s.Name,
		s.StartTime.Format("2006-01-02 15:04:05"),
		s.EndTime.Format("2006-01-02 15:04:05"),
		s.Duration.Round(time.Millisecond),
		s.Workers,
		s.StressMode,
		s.Interrupted,
		s.Snapshot.Total,
		s.Snapshot.Success,
		s.Snapshot.Failed,
		s.Snapshot.ErrorRate*100,
		s.Snapshot.AverageLatency.Round(time.Microsecond),
		s.Snapshot.P99Latency.Round(time.Microsecond),
		s.throughput(),
	))

	names := make([]string, 0, len(s.Snapshot.ByScenario))
	for name := range s.Snapshot.ByScenario {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		counts := s.Snapshot.ByScenario[name]
		b.WriteString(fmt.Sprintf("  %-24s total=%-6d success=%-6d failed=%d\n",
			name+":", counts.Total, counts.Success, counts.Failed))
	}

	b.WriteString("\nFAILURES BY CATEGORY\n--------------------\n")

	categories := make([]string, 0, len(s.Snapshot.ByCategory))
	for category := range s.Snapshot.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	if len(categories) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, category := range categories {
		b.WriteString(fmt.Sprintf("  %-24s %d\n", category+":", s.Snapshot.ByCategory[category]))
	}

	b.WriteString("\n================================================================================")

	return b.String()
}

// throughput は秒あたりの記録数を返す
func (s *Summary) throughput() float64 {
	secs := s.Duration.Seconds()
	if secs == 0 {
		return 0
	}
	return float64(s.Snapshot.Total) / secs
}
