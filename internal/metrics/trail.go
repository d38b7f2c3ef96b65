package metrics

import (
	"time"

	"neuroscreen/internal/trail"
)

// TrailResult holds the processed metrics from a trail test.
type TrailResult struct {
	Completed      bool         `json:"completed"`
	CompletionTime float64      `json:"completionTimeMs"`
	Targets        int          `json:"targets"`
	Hits           int          `json:"hits"`
	Errors         int          `json:"errors"`
	ClickPrecision MetricResult `json:"clickPrecision"`
}

// CalculateTrailMetrics summarizes a trail controller's click log.
func CalculateTrailMetrics(c *trail.Controller) TrailResult {
	targets := c.Targets()
	clicks := c.Clicks()

	res := TrailResult{
		Completed: c.Done(),
		Targets:   len(targets),
	}
	res.Hits = c.Hits()
	res.Errors = c.Misses()
	if res.Completed {
		res.CompletionTime = float64(c.CompletedAt().Sub(c.StartedAt())) / float64(time.Millisecond)
	}
	res.ClickPrecision = calculateClickPrecision(targets, clicks)
	return res
}

// calculateClickPrecision scores how close accepted clicks landed to the
// centre of their target: 1 is dead centre, 0 is the rim.
func calculateClickPrecision(targets []trail.Target, clicks []trail.Click) MetricResult {
	sum, n := 0.0, 0
	for _, click := range clicks {
		if !click.Hit || click.TargetIndex < 0 || click.TargetIndex >= len(targets) {
			continue
		}
		target := targets[click.TargetIndex]
		normalized := click.Point.Distance(target.Position) / target.Radius
		if normalized > 1 {
			normalized = 1
		}
		sum += normalized
		n++
	}

	if n == 0 {
		return MetricResult{}
	}
	return MetricResult{
		Value:      1 - sum/float64(n),
		Calculated: true,
		SampleSize: n,
	}
}
