package trail

import "math"

// CircleLayout places n targets of the given radius evenly around a circle
// centred in a width x height canvas, starting at the top and going
// clockwise. It is the layout used when no explicit targets are configured.
func CircleLayout(n int, width, height, radius float64) []Target {
	if n <= 0 {
		return nil
	}
	cx, cy := width/2, height/2
	orbit := math.Min(width, height)/2 - radius*1.5
	if orbit < 0 {
		orbit = 0
	}

	targets := make([]Target, n)
	for i := range targets {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		targets[i] = Target{
			Index: i,
			Position: Point{
				X: math.Round(cx + orbit*math.Cos(angle)),
				Y: math.Round(cy + orbit*math.Sin(angle)),
			},
			Radius: radius,
		}
	}
	return targets
}
