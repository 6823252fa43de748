package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cashflow-lab/internal/domain"
)

// Summary describes one finished generation run for console output.
type Summary struct {
	GeneratedAt time.Time
	Profile     domain.ProfileID
	Seed        uint64
	RunID       string

	TotalRows      int
	RowsPerProject map[string]int
	SampleRow      map[string]string // first emitted row per project
	DateRangeStart time.Time
	DateRangeEnd   time.Time

	Violations int
}

// BuildSummary computes a summary over ordered dataset rows.
func BuildSummary(profile domain.ProfileID, seed uint64, runID string, rows []domain.DatasetRow, violations int, now time.Time) *Summary {
	s := &Summary{
		GeneratedAt:    now,
		Profile:        profile,
		Seed:           seed,
		RunID:          runID,
		TotalRows:      len(rows),
		RowsPerProject: make(map[string]int),
		SampleRow:      make(map[string]string),
		Violations:     violations,
	}

	for _, row := range rows {
		r := row.Record
		if _, ok := s.SampleRow[r.ProjectID]; !ok {
			s.SampleRow[r.ProjectID] = fmt.Sprintf("%s in=%.2f out=%.2f close=%.2f",
				r.Date.Format(dateLayout), r.ActualInflow, r.ActualOutflow, r.ClosingCash)
		}
		s.RowsPerProject[r.ProjectID]++
		d := r.Date
		if s.DateRangeStart.IsZero() || d.Before(s.DateRangeStart) {
			s.DateRangeStart = d
		}
		if d.After(s.DateRangeEnd) {
			s.DateRangeEnd = d
		}
	}

	return s
}

// Render formats the summary as a short text block.
func (s *Summary) Render() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("run %s profile=%s seed=%d generated_at=%s\n",
		s.RunID, s.Profile, s.Seed, s.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("rows=%d range=%s..%s\n",
		s.TotalRows, s.DateRangeStart.Format(dateLayout), s.DateRangeEnd.Format(dateLayout)))

	pids := make([]string, 0, len(s.RowsPerProject))
	for pid := range s.RowsPerProject {
		pids = append(pids, pid)
	}
	sort.Strings(pids)
	for _, pid := range pids {
		sb.WriteString(fmt.Sprintf("  %s: %d rows, first %s\n", pid, s.RowsPerProject[pid], s.SampleRow[pid]))
	}

	if s.Violations > 0 {
		sb.WriteString(fmt.Sprintf("WARNING: %d invariant violations\n", s.Violations))
	} else {
		sb.WriteString("invariant scan clean\n")
	}

	return sb.String()
}
