package bulk

import (
	"sort"
)

// Stats holds duration and outcome statistics for a bulk run
type Stats struct {
	Count           int
	PassedCount     int
	Durations       []float64 // For percentile calculation
	TotalDurationMs float64
	MinDurationMs   float64
	MaxDurationMs   float64
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	return &Stats{
		MinDurationMs: -1,
		MaxDurationMs: -1,
	}
}

// AddResult adds one item's duration and outcome
func (s *Stats) AddResult(durationMs float64, passed bool) {
	s.Count++
	s.TotalDurationMs += durationMs
	s.Durations = append(s.Durations, durationMs)
	if passed {
		s.PassedCount++
	}

	if s.MinDurationMs == -1 || durationMs < s.MinDurationMs {
		s.MinDurationMs = durationMs
	}
	if s.MaxDurationMs == -1 || durationMs > s.MaxDurationMs {
		s.MaxDurationMs = durationMs
	}
}

// AvgDurationMs returns the average duration in milliseconds
func (s *Stats) AvgDurationMs() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.TotalDurationMs / float64(s.Count)
}

// Min returns the minimum duration, or 0 if no results
func (s *Stats) Min() float64 {
	if s.MinDurationMs == -1 {
		return 0
	}
	return s.MinDurationMs
}

// Max returns the maximum duration, or 0 if no results
func (s *Stats) Max() float64 {
	if s.MaxDurationMs == -1 {
		return 0
	}
	return s.MaxDurationMs
}

// Percentile calculates the percentile value (p should be between 0 and 100)
func (s *Stats) Percentile(p float64) float64 {
	if len(s.Durations) == 0 {
		return 0
	}

	sorted := make([]float64, len(s.Durations))
	copy(sorted, s.Durations)
	sort.Float64s(sorted)

	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// Linear interpolation between lower and upper
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// P50 returns the 50th percentile (median)
func (s *Stats) P50() float64 {
	return s.Percentile(50)
}

// P95 returns the 95th percentile
func (s *Stats) P95() float64 {
	return s.Percentile(95)
}

// P99 returns the 99th percentile
func (s *Stats) P99() float64 {
	return s.Percentile(99)
}

// SuccessRate returns the passed share as a percentage
func (s *Stats) SuccessRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.PassedCount) / float64(s.Count) * 100
}
