// Package metrics derives summary measures from the spatial sub-tests.
package metrics

import "neuroscreen/internal/pattern"

// MetricResult is a single measure together with whether there was enough
// data to compute it.
type MetricResult struct {
	Value      float64 `json:"value"`
	Calculated bool    `json:"calculated"`
	SampleSize int     `json:"sampleSize,omitempty"`
}

// PatternResult holds the processed metrics from the pattern-replay test.
type PatternResult struct {
	Complete  bool         `json:"complete"`
	Matched   bool         `json:"matched"`
	Length    int          `json:"length"`
	Attempts  int          `json:"attempts"`
	Matches   int          `json:"matches"`
	MatchRate MetricResult `json:"matchRate"`
}

// CalculatePatternMetrics summarizes a pattern controller.
func CalculatePatternMetrics(c *pattern.Controller) PatternResult {
	st := c.Status()
	attempts, matches := c.Attempts()

	res := PatternResult{
		Complete: st.Complete,
		Matched:  st.Matched,
		Length:   st.Length,
		Attempts: attempts,
		Matches:  matches,
	}
	if attempts > 0 {
		res.MatchRate = MetricResult{
			Value:      float64(matches) / float64(attempts),
			Calculated: true,
			SampleSize: attempts,
		}
	}
	return res
}
