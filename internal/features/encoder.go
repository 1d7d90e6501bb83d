// Package features builds the fixed-length numeric vectors the models are
// trained on and queried with.
package features

import (
	"github.com/Veraticus/concord/internal/alignment"
	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/model"
)

// EncodingVersion identifies the current encoding rules. Bump it whenever the
// order, scaling or derived formulas change so stale snapshots are rejected.
const EncodingVersion = 1

// DemographicWidth is the size of the demographic block.
const DemographicWidth = 11

// derivedFixed counts the alignment and conflict features ahead of the per-topic block.
const derivedFixed = 2

// Layout describes the shape of a vector for a questionnaire.
type Layout struct {
	Items   int `json:"items"`
	Topics  int `json:"topics"`
	Version int `json:"version"`
}

// Width returns the vector length for the layout.
func (l Layout) Width() int {
	return DemographicWidth + 2*l.Items + derivedFixed + l.Topics
}

// Vector is an encoded feature vector.
type Vector []float64

// Encoder encodes couples against one questionnaire.
type Encoder struct {
	topicItems [][]int
	layout     Layout
}

// NewEncoder creates an encoder for q.
func NewEncoder(q model.Questionnaire) (*Encoder, error) {
	if err := q.Validate(); err != nil {
		return nil, common.Encoding("invalid questionnaire: %v", err)
	}
	return &Encoder{
		topicItems: q.TopicItems(),
		layout: Layout{
			Items:   q.ItemCount(),
			Topics:  len(q.Topics),
			Version: EncodingVersion,
		},
	}, nil
}

// Layout returns the layout produced by the encoder.
func (e *Encoder) Layout() Layout {
	return e.layout
}

// TopicItems returns the item indexes per topic.
func (e *Encoder) TopicItems() [][]int {
	return e.topicItems
}

// Metrics computes the alignment metrics for a pair after checking its shape.
func (e *Encoder) Metrics(pair model.ResponsePair) (alignment.Metrics, error) {
	if err := e.checkPair(pair); err != nil {
		return alignment.Metrics{}, err
	}
	return alignment.Compute(pair, e.topicItems)
}

// Encode computes the metrics for the pair and encodes the couple.
func (e *Encoder) Encode(p model.CoupleProfile, pair model.ResponsePair) (Vector, alignment.Metrics, error) {
	m, err := e.Metrics(pair)
	if err != nil {
		return nil, alignment.Metrics{}, err
	}
	v, err := e.EncodeWithMetrics(p, pair, m)
	if err != nil {
		return nil, alignment.Metrics{}, err
	}
	return v, m, nil
}

// EncodeWithMetrics encodes the couple using the supplied derived metrics.
func (e *Encoder) EncodeWithMetrics(p model.CoupleProfile, pair model.ResponsePair, m alignment.Metrics) (Vector, error) {
	if err := e.checkPair(pair); err != nil {
		return nil, err
	}
	if len(m.Categories) != e.layout.Topics {
		return nil, common.Encoding("expected %d topic alignments, got %d", e.layout.Topics, len(m.Categories))
	}

	p = p.Normalized()
	v := make(Vector, 0, e.layout.Width())

	v = append(v,
		float64(p.MaleAge),
		float64(p.FemaleAge),
		float64(p.AgeGap()),
		float64(p.YearsCohabiting),
		float64(p.Education),
		float64(p.Income),
		float64(abs(p.Education-p.Income)),
		flag(p.CivilStatus == model.CivilSingle),
		flag(p.CivilStatus == model.CivilLivingIn),
		flag(p.CivilStatus.HasPriorRelationship()),
		float64(p.Employment.Code()),
	)

	for _, r := range pair.Male {
		v = append(v, float64(r))
	}
	for _, r := range pair.Female {
		v = append(v, float64(r))
	}

	v = append(v, m.Alignment, m.ConflictRatio)
	v = append(v, m.Categories...)

	if len(v) != e.layout.Width() {
		return nil, common.Encoding("encoded %d features, layout requires %d", len(v), e.layout.Width())
	}
	return v, nil
}

func (e *Encoder) checkPair(pair model.ResponsePair) error {
	if len(pair.Male) != e.layout.Items || len(pair.Female) != e.layout.Items {
		return common.Encoding("response lengths %d/%d do not match %d questionnaire items",
			len(pair.Male), len(pair.Female), e.layout.Items)
	}
	for i := range pair.Male {
		if !pair.Male[i].IsValid() || !pair.Female[i].IsValid() {
			return common.Encoding("item %d has response codes %d/%d outside {2,3,4}",
				i, int(pair.Male[i]), int(pair.Female[i]))
		}
	}
	return nil
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
