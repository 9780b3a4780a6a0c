package score

import "github.com/matzehuels/homematch/pkg/market"

// Report quantifies the effect of an optimization pass.
type Report struct {
	OldScore float64 `json:"old_score" bson:"old_score"`
	NewScore float64 `json:"new_score" bson:"new_score"`
	// Improvement is (new-old)/old in percent. It is 0 when the old score
	// was 0, in which case ZeroBaseline is set.
	Improvement  float64 `json:"improvement" bson:"improvement"`
	ZeroBaseline bool    `json:"zero_baseline,omitempty" bson:"zero_baseline,omitempty"`
	// Rewired is L = min(|free houses|, |free households|).
	Rewired int `json:"rewired" bson:"rewired"`
	// RewiredPercent is L as a percentage of the size of its side.
	RewiredPercent float64     `json:"rewired_percent" bson:"rewired_percent"`
	Side           market.Side `json:"side" bson:"side"`
	// Regressed is set when the new score is below the old one.
	Regressed bool `json:"regressed,omitempty" bson:"regressed,omitempty"`
}

// NoOpReport is returned when there was nothing to rewire.
func NoOpReport() Report {
	return Report{OldScore: -1, NewScore: -1}
}

// IsNoOp reports whether r is the no-op sentinel.
func (r Report) IsNoOp() bool {
	return r.OldScore == -1 && r.NewScore == -1 && r.Rewired == 0
}

// NewReport builds a report for a pass that rewired `rewired` vertices out of
// sideTotal vertices on the given side.
func NewReport(oldScore, newScore float64, rewired, sideTotal int, side market.Side) Report {
	r := Report{
		OldScore:  oldScore,
		NewScore:  newScore,
		Rewired:   rewired,
		Side:      side,
		Regressed: newScore < oldScore,
	}
	if oldScore != 0 {
		r.Improvement = (newScore - oldScore) / oldScore * 100
	} else {
		r.ZeroBaseline = true
	}
	if sideTotal > 0 {
		r.RewiredPercent = float64(rewired) / float64(sideTotal) * 100
	}
	return r
}
