// Package voice talks to the remote voice-feature classifier.
package voice

// Features is the fixed feature vector the classifier expects.
type Features struct {
	Fo      float64 `json:"fo"`
	Fhi     float64 `json:"fhi"`
	Flo     float64 `json:"flo"`
	Jitter  float64 `json:"jitter"`
	Shimmer float64 `json:"shimmer"`
	HNR     float64 `json:"hnr"`
	DFA     float64 `json:"dfa"`
}

// FeatureNames lists the features in the order the model consumes them.
var FeatureNames = []string{"fo", "fhi", "flo", "jitter", "shimmer", "hnr", "dfa"}

// Values returns the features keyed by name.
func (f Features) Values() map[string]float64 {
	return map[string]float64{
		"fo":      f.Fo,
		"fhi":     f.Fhi,
		"flo":     f.Flo,
		"jitter":  f.Jitter,
		"shimmer": f.Shimmer,
		"hnr":     f.HNR,
		"dfa":     f.DFA,
	}
}

// Range is an inclusive healthy interval.
type Range struct {
	Low  float64
	High float64
}

// HealthyRanges are approximate typical values for a healthy voice.
var HealthyRanges = map[string]Range{
	"fo":      {120, 250}, // Hz
	"fhi":     {150, 300}, // Hz
	"flo":     {90, 200},  // Hz
	"jitter":  {0, 0.5},   // %
	"shimmer": {0, 0.05},
	"hnr":     {20, 30}, // dB
	"dfa":     {0.9, 1.05},
}

// Feature status labels.
const (
	StatusLow    = "Low"
	StatusNormal = "Normal"
	StatusHigh   = "High"
)

// Assess compares each feature to its healthy range.
func Assess(f Features) map[string]string {
	values := f.Values()
	status := make(map[string]string, len(FeatureNames))
	for _, name := range FeatureNames {
		v, r := values[name], HealthyRanges[name]
		switch {
		case v < r.Low:
			status[name] = StatusLow
		case v > r.High:
			status[name] = StatusHigh
		default:
			status[name] = StatusNormal
		}
	}
	return status
}
