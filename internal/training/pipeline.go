package training

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/concord/internal/common"
	"github.com/Veraticus/concord/internal/features"
	"github.com/Veraticus/concord/internal/ml"
	"github.com/Veraticus/concord/internal/model"
)

// Progress receives pipeline progress in percent of the pipeline's own work.
// It may be called from several goroutines at once.
type Progress func(percent int, message string)

// Topic targets drawn for rows created by rebalancing, per class.
var rebalanceTargetBands = map[model.RiskLabel][2]float64{
	model.RiskLow:    {0.0, 0.5},
	model.RiskMedium: {0.3, 0.7},
	model.RiskHigh:   {0.5, 1.0},
}

// Pipeline trains model sets for one questionnaire.
type Pipeline struct {
	encoder       *features.Encoder
	questionnaire model.Questionnaire
	cfg           Config
}

// NewPipeline creates a pipeline for q.
func NewPipeline(q model.Questionnaire, cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	enc, err := features.NewEncoder(q)
	if err != nil {
		return nil, err
	}
	return &Pipeline{encoder: enc, questionnaire: q, cfg: cfg}, nil
}

type dataset struct {
	x       [][]float64
	y       []int
	targets [][]float64
}

// Run fits a new ModelSet on samples. Any error leaves nothing behind; the
// caller decides whether and when to install the result.
func (p *Pipeline) Run(ctx context.Context, samples []model.TrainingSample, progress Progress) (*ModelSet, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	start := time.Now()

	progress(5, "Encoding samples")
	data, realCount, err := p.encode(samples)
	if err != nil {
		return nil, err
	}

	progress(10, "Validating training data")
	warnings, err := ValidateDataset(data.x, data.y, data.targets, p.cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		slog.Warn("Training data warning", "warning", w)
	}

	rebalanced := false
	if ratio := imbalance(countLabels(data.y)); ratio > p.cfg.RebalanceThreshold {
		progress(15, "Rebalancing classes")
		balanced, err := p.rebalance(data)
		if err != nil {
			slog.Warn("Rebalancing failed, training on the unbalanced cohort",
				"error", err,
				"imbalance_ratio", ratio)
		} else {
			slog.Info("Rebalanced training cohort",
				"before", len(data.x),
				"after", len(balanced.x),
				"imbalance_ratio", ratio)
			data, rebalanced = balanced, true
		}
	}

	labels := ml.FitLabelEncoder(data.y)
	encoded, err := labels.Transform(data.y)
	if err != nil {
		return nil, fmt.Errorf("failed to encode labels: %w", err)
	}
	classes := len(labels.Classes)
	weights := ml.BalancedClassWeights(encoded, classes)
	slog.Info("Computed class weights", "classes", labels.Classes, "weights", weights)

	k := min(p.cfg.Folds, len(data.x))
	if k < 2 {
		return nil, common.TrainingData("need at least 2 samples for cross-validation, got %d", len(data.x))
	}
	folds, err := ml.StratifiedKFold(encoded, k, p.cfg.Seed)
	if err != nil {
		return nil, common.TrainingData("failed to build folds: %v", err)
	}

	riskCandidates := p.classifierCandidates(weights)
	topicCandidates := p.cfg.RegressorGrid.params(p.cfg.Seed)
	tick := counter(progress, 20, 90, (len(riskCandidates)+len(topicCandidates))*len(folds))

	riskSearch, err := ml.GridSearch(ctx, riskCandidates, folds, func(ctx context.Context, params ml.ForestParams, fold ml.Fold) (float64, error) {
		defer tick("Evaluating risk classifier")
		f, err := ml.FitForestClassifier(ctx, ml.Rows(data.x, fold.Train), ml.Rows(encoded, fold.Train), classes, params)
		if err != nil {
			return 0, err
		}
		predicted := make([]int, len(fold.Test))
		for i, row := range fold.Test {
			predicted[i] = f.Predict(data.x[row])
		}
		return ml.Accuracy(ml.Rows(encoded, fold.Test), predicted), nil
	})
	if err != nil {
		return nil, fmt.Errorf("risk classifier search failed: %w", err)
	}
	slog.Info("Selected risk classifier",
		"params", riskSearch.Best.String(),
		"cv_accuracy", riskSearch.Mean,
		"cv_std", riskSearch.Std)

	topicSearch, err := ml.GridSearch(ctx, topicCandidates, folds, func(ctx context.Context, params ml.ForestParams, fold ml.Fold) (float64, error) {
		defer tick("Evaluating topic regressors")
		m, err := ml.FitMultiOutput(ctx, ml.Rows(data.x, fold.Train), ml.Rows(data.targets, fold.Train), params)
		if err != nil {
			return 0, err
		}
		predicted := make([][]float64, len(fold.Test))
		for i, row := range fold.Test {
			predicted[i] = m.Predict(data.x[row])
		}
		return -ml.MeanSquaredError(ml.Rows(data.targets, fold.Test), predicted), nil
	})
	if err != nil {
		return nil, fmt.Errorf("topic regressor search failed: %w", err)
	}
	slog.Info("Selected topic regressors",
		"params", topicSearch.Best.String(),
		"cv_mse", -topicSearch.Mean)

	progress(92, "Refitting selected models")
	risk, err := ml.FitForestClassifier(ctx, data.x, encoded, classes, riskSearch.Best)
	if err != nil {
		return nil, fmt.Errorf("failed to refit risk classifier: %w", err)
	}
	topics, err := ml.FitMultiOutput(ctx, data.x, data.targets, topicSearch.Best)
	if err != nil {
		return nil, fmt.Errorf("failed to refit topic regressors: %w", err)
	}

	set := &ModelSet{
		ID:            uuid.NewString(),
		TrainedAt:     time.Now().UTC(),
		Risk:          risk,
		TopicScores:   topics,
		Labels:        labels,
		RiskParams:    risk.Params,
		TopicParams:   topicSearch.Best,
		Questionnaire: p.questionnaire,
		FeatureLayout: p.encoder.Layout(),
		CVAccuracy:    riskSearch.Mean,
		CVAccuracyStd: riskSearch.Std,
		TopicCVMSE:    -topicSearch.Mean,
		SampleCount:   len(data.x),
		RealCount:     realCount,
		Rebalanced:    rebalanced,
		Warnings:      warnings,
		ClassCounts:   make(map[string]int, len(model.RiskLabels)),
	}
	for _, label := range data.y {
		set.ClassCounts[model.RiskLabel(label).String()]++
	}

	slog.Info("Training pipeline complete",
		"model_id", set.ID,
		"samples", set.SampleCount,
		"real", realCount,
		"cv_accuracy", fmt.Sprintf("%.3f ± %.3f", set.CVAccuracy, set.CVAccuracyStd),
		"duration", time.Since(start))
	progress(100, "Training complete")
	return set, nil
}

func (p *Pipeline) encode(samples []model.TrainingSample) (dataset, int, error) {
	if len(samples) == 0 {
		return dataset{}, 0, common.TrainingData("training data is empty")
	}
	topics := p.encoder.Layout().Topics

	data := dataset{
		x:       make([][]float64, len(samples)),
		y:       make([]int, len(samples)),
		targets: make([][]float64, len(samples)),
	}
	realCount := 0
	for i, s := range samples {
		v, _, err := p.encoder.Encode(s.Profile, s.Responses)
		if err != nil {
			return dataset{}, 0, fmt.Errorf("sample %d: %w", i, err)
		}
		if len(s.TopicScores) != topics {
			return dataset{}, 0, common.TrainingData("sample %d has %d topic scores, questionnaire has %d topics",
				i, len(s.TopicScores), topics)
		}
		data.x[i] = v
		data.y[i] = int(s.Risk)
		data.targets[i] = s.TopicScores
		if s.Source == model.SourceReal {
			realCount++
		}
	}
	return data, realCount, nil
}

// rebalance applies SMOTE-Tomek. Surviving input rows keep their targets;
// interpolated rows get targets drawn from their class band.
func (p *Pipeline) rebalance(data dataset) (dataset, error) {
	r, err := ml.SMOTETomek(data.x, data.y, len(model.RiskLabels), p.cfg.SMOTENeighbours, p.cfg.Seed)
	if err != nil {
		return dataset{}, err
	}

	rng := rand.New(rand.NewPCG(p.cfg.Seed, p.cfg.Seed^0x5851f42d4c957f2d))
	topics := p.encoder.Layout().Topics
	out := dataset{x: r.X, y: r.Y, targets: make([][]float64, len(r.X))}
	for i, origin := range r.Origin {
		if origin >= 0 {
			out.targets[i] = data.targets[origin]
			continue
		}
		band := rebalanceTargetBands[model.RiskLabel(r.Y[i])]
		scores := make([]float64, topics)
		for t := range scores {
			scores[t] = band[0] + rng.Float64()*(band[1]-band[0])
		}
		out.targets[i] = scores
	}
	return out, nil
}

// classifierCandidates crosses the classifier grid with the two class
// weighting options: balanced per fold, and the weights fit on the full cohort.
func (p *Pipeline) classifierCandidates(fitted []float64) []ml.ForestParams {
	var out []ml.ForestParams
	for _, params := range p.cfg.ClassifierGrid.params(p.cfg.Seed) {
		balanced, fixed := params, params
		balanced.ClassWeight = ml.ClassWeight{Balanced: true}
		fixed.ClassWeight = ml.ClassWeight{Fixed: fitted}
		out = append(out, balanced, fixed)
	}
	return out
}

// counter maps completed work units onto the [lo, hi] progress range.
func counter(progress Progress, lo, hi, total int) func(message string) {
	var done atomic.Int64
	return func(message string) {
		n := int(done.Add(1))
		progress(lo+(hi-lo)*n/max(1, total), message)
	}
}

func countLabels(y []int) map[int]int {
	counts := map[int]int{}
	for _, label := range y {
		counts[label]++
	}
	return counts
}
