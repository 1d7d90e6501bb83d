package engine

import (
	"fmt"

	"github.com/Veraticus/concord/internal/alignment"
	"github.com/Veraticus/concord/internal/model"
)

// Age gap and cohabitation bands reported in reasons.
const (
	SignificantAgeGap = 10
	ModerateAgeGap    = 5
	LongCohabitation  = 5
)

// Reasons lists the machine-readable facts behind a decision, for the
// recommendation layer to phrase.
func Reasons(p model.CoupleProfile, m alignment.Metrics, d Decision) []model.Reason {
	var reasons []model.Reason
	add := func(code, format string, args ...any) {
		reasons = append(reasons, model.Reason{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	switch {
	case m.ConflictRatio > alignment.HighRiskThreshold:
		add(model.ReasonRatioBand, "weighted disagreement ratio %.3f is above %.2f", m.ConflictRatio, alignment.HighRiskThreshold)
	case m.ConflictRatio > alignment.MediumRiskThreshold:
		add(model.ReasonRatioBand, "weighted disagreement ratio %.3f is above %.2f and at most %.2f",
			m.ConflictRatio, alignment.MediumRiskThreshold, alignment.HighRiskThreshold)
	default:
		add(model.ReasonRatioBand, "weighted disagreement ratio %.3f is at most %.2f", m.ConflictRatio, alignment.MediumRiskThreshold)
	}

	if d.Model == d.Deterministic {
		add(model.ReasonMethodsAgree, "model and deterministic assessment both give %s", d.Model)
	} else {
		add(model.ReasonMethodsDisagree, "model gives %s, deterministic assessment gives %s, %s applied",
			d.Model, d.Deterministic, d.Branch)
	}

	p = p.Normalized()
	switch gap := p.AgeGap(); {
	case gap > SignificantAgeGap:
		add(model.ReasonAgeGapSignificant, "age gap of %d years", gap)
	case gap > ModerateAgeGap:
		add(model.ReasonAgeGapModerate, "age gap of %d years", gap)
	default:
		add(model.ReasonAgeGapMinimal, "age gap of %d years", gap)
	}

	switch {
	case p.YearsCohabiting > LongCohabitation:
		add(model.ReasonCohabitationLong, "living together for %d years", p.YearsCohabiting)
	case p.YearsCohabiting > 0:
		add(model.ReasonCohabitationRecent, "living together for %d years", p.YearsCohabiting)
	}

	if p.CivilStatus.HasPriorRelationship() {
		add(model.ReasonPriorRelationship, "civil status %s", p.CivilStatus)
	}

	return reasons
}
