package model

import "time"

// TopicPriority is one topic's predicted score and tier.
type TopicPriority struct {
	Topic string       `json:"topic" yaml:"topic"`
	Tier  PriorityTier `json:"tier" yaml:"tier"`
	Score float64      `json:"score" yaml:"score"`
}

// Reason is a machine-readable fact supporting an assessment.
type Reason struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Reason codes.
const (
	ReasonRatioBand          = "ratio_band"
	ReasonMethodsAgree       = "methods_agree"
	ReasonMethodsDisagree    = "methods_disagree"
	ReasonAgeGapSignificant  = "age_gap_significant"
	ReasonAgeGapModerate     = "age_gap_moderate"
	ReasonAgeGapMinimal      = "age_gap_minimal"
	ReasonCohabitationLong   = "cohabitation_long"
	ReasonCohabitationRecent = "cohabitation_recent"
	ReasonPriorRelationship  = "prior_relationship"
)

// Assessment is the output contract of one analysis.
type Assessment struct {
	CreatedAt         time.Time          `json:"created_at" yaml:"created_at"`
	ID                string             `json:"id" yaml:"id"`
	CoupleID          string             `json:"couple_id,omitempty" yaml:"couple_id,omitempty"`
	ModelID           string             `json:"model_id" yaml:"model_id"`
	Branch            string             `json:"branch" yaml:"branch"`
	Probabilities     map[string]float64 `json:"probabilities" yaml:"probabilities"`
	Topics            []TopicPriority    `json:"topics" yaml:"topics"`
	FocusTopics       []string           `json:"focus_topics" yaml:"focus_topics"`
	Reasons           []Reason           `json:"reasons" yaml:"reasons"`
	Warnings          []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	DisagreementRatio float64            `json:"disagreement_ratio" yaml:"disagreement_ratio"`
	Alignment         float64            `json:"alignment" yaml:"alignment"`
	ConflictRatio     float64            `json:"conflict_ratio" yaml:"conflict_ratio"`
	Confidence        float64            `json:"confidence" yaml:"confidence"`
	Risk              RiskLabel          `json:"risk" yaml:"risk"`
	DeterministicRisk RiskLabel          `json:"deterministic_risk" yaml:"deterministic_risk"`
	ModelRisk         RiskLabel          `json:"model_risk" yaml:"model_risk"`
}

// TopicScores returns the predicted score per topic in topic order.
func (a *Assessment) TopicScores() []float64 {
	scores := make([]float64, len(a.Topics))
	for i, t := range a.Topics {
		scores[i] = t.Score
	}
	return scores
}

// RunStatus is the lifecycle state of a training run.
type RunStatus string

// Training run states.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// TrainingRun is the persisted history record of one training run.
type TrainingRun struct {
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	ID          string     `json:"id"`
	Status      RunStatus  `json:"status"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
	ModelID     string     `json:"model_id,omitempty"`
	SampleCount int        `json:"sample_count"`
	RealCount   int        `json:"real_count"`
}

// ModelRecord is a serialized trained model snapshot as stored by persistence.
type ModelRecord struct {
	TrainedAt     time.Time `json:"trained_at"`
	ID            string    `json:"id"`
	Payload       []byte    `json:"-"`
	CVAccuracy    float64   `json:"cv_accuracy"`
	LayoutItems   int       `json:"layout_items"`
	LayoutTopics  int       `json:"layout_topics"`
	LayoutVersion int       `json:"layout_version"`
	Active        bool      `json:"active"`
}
