// Package alignment computes the deterministic agreement metrics between two
// partners' questionnaire responses and the risk bucket derived from them.
//
// The thresholds here are used both when labelling training data and when
// scoring a couple at inference time.
package alignment

import (
	"math"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/model"
)

// Risk thresholds on the weighted disagreement ratio.
const (
	HighRiskThreshold   = 0.35
	MediumRiskThreshold = 0.20
)

// NeutralWeight is the partial disagreement credited to an item either partner answered neutral.
const NeutralWeight = 0.3

// UnmappedTopicAlignment is reported for a topic with no items.
const UnmappedTopicAlignment = 0.5

// Metrics are the deterministic outputs for one couple.
type Metrics struct {
	Categories    []float64       `json:"categories"`
	Alignment     float64         `json:"alignment"`
	ConflictRatio float64         `json:"conflict_ratio"`
	Risk          model.RiskLabel `json:"risk"`
}

// Score is the mean over items of (4 - |m - f|) / 4.
// Callers pass equal-length sequences; an empty input scores 0.
func Score(male, female []model.Response) float64 {
	n := min(len(male), len(female))
	if n == 0 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		total += (4 - math.Abs(float64(male[i]-female[i]))) / 4
	}
	return total / float64(n)
}

// DisagreementRatio is the weighted disagreement ratio: per item the larger of
// the explicit-disagree flag and the partner divergence, plus NeutralWeight for
// every item either partner answered neutral, over the item count.
func DisagreementRatio(male, female []model.Response) float64 {
	n := min(len(male), len(female))
	if n == 0 {
		return 0
	}

	total := 0.0
	neutral := 0
	for i := 0; i < n; i++ {
		total += itemDisagreement(male[i], female[i])
		if male[i] == model.Neutral || female[i] == model.Neutral {
			neutral++
		}
	}
	total += NeutralWeight * float64(neutral)
	return total / float64(n)
}

func itemDisagreement(m, f model.Response) float64 {
	question := 0.0
	if m == model.Disagree || f == model.Disagree {
		question = 1
	}
	return math.Max(question, PartnerDisagreement(m, f))
}

// PartnerDisagreement is 1 when answers differ by two or more codes, 0.5 when
// they differ by one, and 0 when they match.
func PartnerDisagreement(m, f model.Response) float64 {
	switch d := math.Abs(float64(m - f)); {
	case d >= 2:
		return 1
	case d == 1:
		return 0.5
	default:
		return 0
	}
}

// RiskFromRatio buckets a disagreement ratio.
func RiskFromRatio(ratio float64) model.RiskLabel {
	switch {
	case ratio > HighRiskThreshold:
		return model.RiskHigh
	case ratio > MediumRiskThreshold:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// CategoryAlignments returns Score restricted to each topic's items, in topic order.
func CategoryAlignments(male, female []model.Response, topicItems [][]int) []float64 {
	out := make([]float64, len(topicItems))
	for t, items := range topicItems {
		m := make([]model.Response, 0, len(items))
		f := make([]model.Response, 0, len(items))
		for _, idx := range items {
			if idx < 0 || idx >= len(male) || idx >= len(female) {
				continue
			}
			m = append(m, male[idx])
			f = append(f, female[idx])
		}
		if len(m) == 0 {
			out[t] = UnmappedTopicAlignment
			continue
		}
		out[t] = Score(m, f)
	}
	return out
}

// Compute returns every metric for a pair. The pair must be non-empty with
// equal-length sequences.
func Compute(pair model.ResponsePair, topicItems [][]int) (Metrics, error) {
	n := pair.Len()
	if n < 0 {
		return Metrics{}, common.InputValidation("male and female responses differ in length: %d vs %d", len(pair.Male), len(pair.Female))
	}
	if n == 0 {
		return Metrics{}, common.InputValidation("response sequences must not be empty")
	}

	ratio := DisagreementRatio(pair.Male, pair.Female)
	return Metrics{
		Alignment:     Score(pair.Male, pair.Female),
		ConflictRatio: ratio,
		Categories:    CategoryAlignments(pair.Male, pair.Female, topicItems),
		Risk:          RiskFromRatio(ratio),
	}, nil
}

// TopicConflict scores each topic as min(1, scale * weighted disagree share)
// over one response sequence, counting Disagree as 1 and Neutral as
// neutralWeight. Topics without items score UnmappedTopicAlignment.
func TopicConflict(responses []model.Response, topicItems [][]int, neutralWeight, scale float64) []float64 {
	out := make([]float64, len(topicItems))
	for t, items := range topicItems {
		count := 0
		weighted := 0.0
		for _, idx := range items {
			if idx < 0 || idx >= len(responses) {
				continue
			}
			count++
			switch responses[idx] {
			case model.Disagree:
				weighted++
			case model.Neutral:
				weighted += neutralWeight
			}
		}
		if count == 0 {
			out[t] = UnmappedTopicAlignment
			continue
		}
		out[t] = math.Min(1, weighted/float64(count)*scale)
	}
	return out
}
