// Package schedule samples the candidate event calendar for one
// project: regular milestone dates, lump-sum dates and unplanned
// demand dates, biased by the project configuration. The resulting
// date→tag mapping is consumed read-only by the daily engine.
package schedule

import (
	"math"
	"sort"

	"cashflow-lab/internal/domain"
	"cashflow-lab/internal/simrand"
)

// Tag classifies why a day is active.
type Tag string

// Event tags. A day may carry several.
const (
	TagRegular   Tag = "regular"
	TagLump      Tag = "lump"
	TagUnplanned Tag = "unplanned"
)

// Schedule maps day offsets (days since range start) to event tags.
type Schedule struct {
	spanDays int
	tags     map[int][]Tag
}

// Build samples a schedule for one project over a span of calendar
// days. Draw counts and distributions:
//
//   - eventRate*12 regular dates: day fraction ~ Beta(1+5·fl, 1+5·(1−fl))
//   - max(3, round(3·size)) lump dates: fraction ~ Beta(1+6·fl, 2)
//   - round(2·size) unplanned dates: uniform over the span
func Build(cfg domain.ProjectConfig, spanDays int, rng *simrand.Rand) *Schedule {
	s := &Schedule{
		spanDays: spanDays,
		tags:     make(map[int][]Tag),
	}
	if spanDays <= 0 {
		return s
	}

	regularCount := int(cfg.EventRate * 12)
	for i := 0; i < regularCount; i++ {
		a := 1 + cfg.FrontLoad*5
		b := 1 + (1-cfg.FrontLoad)*5
		frac := rng.Beta(a, b)
		s.add(int(frac*float64(spanDays-1)), TagRegular)
	}

	lumpCount := int(math.Max(3, math.Round(3*cfg.Size)))
	for i := 0; i < lumpCount; i++ {
		frac := rng.Beta(1+cfg.FrontLoad*6, 2)
		s.add(int(frac*float64(spanDays-1)), TagLump)
	}

	unplannedCount := int(math.Round(2 * cfg.Size))
	for i := 0; i < unplannedCount; i++ {
		s.add(rng.IntN(spanDays), TagUnplanned)
	}

	return s
}

func (s *Schedule) add(offset int, tag Tag) {
	if offset < 0 || offset >= s.spanDays {
		return
	}
	s.tags[offset] = append(s.tags[offset], tag)
}

// Active reports whether the day carries any event.
func (s *Schedule) Active(offset int) bool {
	_, ok := s.tags[offset]
	return ok
}

// HasTag reports whether the day carries the given tag.
func (s *Schedule) HasTag(offset int, tag Tag) bool {
	for _, t := range s.tags[offset] {
		if t == tag {
			return true
		}
	}
	return false
}

// ActiveDays returns all active day offsets in ascending order.
func (s *Schedule) ActiveDays() []int {
	days := make([]int, 0, len(s.tags))
	for d := range s.tags {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// Len returns the number of distinct active days.
func (s *Schedule) Len() int {
	return len(s.tags)
}
