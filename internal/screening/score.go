package screening

// RiskTier is the coarse interpretation band derived from the score.
type RiskTier string

const (
	LowRisk      RiskTier = "Low"
	ModerateRisk RiskTier = "Moderate"
	HighRisk     RiskTier = "High"
)

// Tier thresholds on the percentage score.
const (
	lowRiskPercent      = 80
	moderateRiskPercent = 50
)

// Description returns the sentence shown next to the tier.
func (t RiskTier) Description() string {
	switch t {
	case LowRisk:
		return "Low risk: responses are within the expected range."
	case ModerateRisk:
		return "Moderate risk: some responses were outside the expected range."
	default:
		return "High risk: most responses were outside the expected range. Consider a professional evaluation."
	}
}

// ItemResult is the per-item pass/fail breakdown.
type ItemResult struct {
	ID     ItemID `json:"id"`
	Passed bool   `json:"passed"`
}

// Result is the output of a scoring pass.
type Result struct {
	Score    int          `json:"score"`
	Percent  int          `json:"percent"`
	RiskTier RiskTier     `json:"riskTier"`
	Items    []ItemResult `json:"items,omitempty"`
}

// Aggregate sums the passed items and maps the total to a risk tier.
func Aggregate(items []Item) Result {
	res := Result{Items: make([]ItemResult, 0, len(items))}
	for _, it := range items {
		if it.Passed {
			res.Score++
		}
		res.Items = append(res.Items, ItemResult{ID: it.ID, Passed: it.Passed})
	}
	if res.Score > ItemCount {
		res.Score = ItemCount
	}
	res.Percent = Percent(res.Score)
	res.RiskTier = TierFor(res.Percent)
	return res
}

// Percent converts a score out of ItemCount to a rounded percentage.
func Percent(score int) int {
	switch {
	case score <= 0:
		return 0
	case score >= ItemCount:
		return 100
	}
	return (score*100 + ItemCount/2) / ItemCount
}

// TierFor maps a percentage onto the risk bands.
func TierFor(percent int) RiskTier {
	switch {
	case percent >= lowRiskPercent:
		return LowRisk
	case percent >= moderateRiskPercent:
		return ModerateRisk
	default:
		return HighRisk
	}
}
