package engine

import "github.com/Veraticus/concord/internal/model"

// Branch identifies the reconciliation rule that produced a final label.
type Branch string

// Reconciliation branches in evaluation order.
const (
	BranchTrustedLow        Branch = "deterministic_low_trusted"
	BranchDeterministicHigh Branch = "deterministic_high"
	BranchModelEscalation   Branch = "model_escalation"
	BranchDefault           Branch = "deterministic_default"
)

// Inputs are the signals a rule decides on.
type Inputs struct {
	Actual    model.RiskLabel
	Model     model.RiskLabel
	Alignment float64
	Conflict  float64
}

// Rule is one row of the decision table.
type Rule struct {
	When    func(Inputs) bool
	Outcome func(Inputs) model.RiskLabel
	Branch  Branch
}

func actual(in Inputs) model.RiskLabel { return in.Actual }

func predicted(in Inputs) model.RiskLabel { return in.Model }

// DecisionTable returns the ordered reconciliation rules. The last rule
// always matches.
func DecisionTable(cfg Config) []Rule {
	return []Rule{
		{
			Branch: BranchTrustedLow,
			When: func(in Inputs) bool {
				return in.Actual == model.RiskLow &&
					in.Alignment > cfg.TrustedAlignment &&
					in.Conflict < cfg.TrustedConflict
			},
			Outcome: actual,
		},
		{
			Branch:  BranchDeterministicHigh,
			When:    func(in Inputs) bool { return in.Actual == model.RiskHigh },
			Outcome: actual,
		},
		{
			Branch:  BranchModelEscalation,
			When:    func(in Inputs) bool { return in.Model > in.Actual },
			Outcome: predicted,
		},
		{
			Branch:  BranchDefault,
			When:    func(Inputs) bool { return true },
			Outcome: actual,
		},
	}
}

// Reconcile evaluates rules top to bottom and returns the first match.
func Reconcile(rules []Rule, in Inputs) (model.RiskLabel, Branch) {
	for _, r := range rules {
		if r.When(in) {
			return r.Outcome(in), r.Branch
		}
	}
	return in.Actual, BranchDefault
}
