package synth

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/Veraticus/concord/internal/alignment"
	"github.com/Veraticus/concord/internal/model"
)

// ErrNoConvergence is returned when a class-targeted couple could not be produced.
var ErrNoConvergence = errors.New("synthetic label did not converge")

// Disagreement-ratio bands each target class is drawn from.
var ratioBands = map[model.RiskLabel][2]float64{
	model.RiskLow:    {0.00, 0.20},
	model.RiskMedium: {0.20, 0.35},
	model.RiskHigh:   {0.35, 0.60},
}

// Generator produces synthetic training samples for one questionnaire.
// It is not safe for concurrent use.
type Generator struct {
	rng        *rand.Rand
	topicItems [][]int
	cfg        Config
	items      int
}

// New creates a generator for q.
func New(q model.Questionnaire, cfg Config) (*Generator, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid questionnaire: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &Generator{
		cfg:        cfg,
		items:      q.ItemCount(),
		topicItems: q.TopicItems(),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Generate produces n samples drawn toward targets that follow the configured
// distribution. Demographics and response patterns are conditioned on
// reference when it holds usable couples. Every couple carries full partner
// variation and keeps its recomputed label, which may differ from its target.
func (g *Generator) Generate(n int, reference []model.TrainingSample) []model.TrainingSample {
	ref := newCohort(reference, g.items)
	targets := g.targets(n)

	samples := make([]model.TrainingSample, 0, n)
	diverged := 0
	for _, target := range targets {
		s := g.sample(target, 1, ref)
		if s.Risk != target {
			diverged++
		}
		samples = append(samples, s)
	}

	counts := model.CountByRisk(samples)
	slog.Info("Generated synthetic cohort",
		"count", len(samples),
		"conditioned", ref != nil,
		"diverged", diverged,
		"low", counts[model.RiskLow],
		"medium", counts[model.RiskMedium],
		"high", counts[model.RiskHigh])

	return samples
}

// GenerateClass produces exactly n samples whose recomputed label is label.
// The first attempt for each sample uses full variation; later attempts narrow
// the random spread until the final attempt is the band-floor construction.
func (g *Generator) GenerateClass(label model.RiskLabel, n int, reference []model.TrainingSample) ([]model.TrainingSample, error) {
	if !label.IsValid() {
		return nil, fmt.Errorf("invalid risk label %d", int(label))
	}
	ref := newCohort(reference, g.items)

	samples := make([]model.TrainingSample, 0, n)
	for len(samples) < n {
		s, attempts, ok := g.sampleClass(label, ref)
		if !ok {
			return samples, fmt.Errorf("%w: %s after %d attempts with %d items",
				ErrNoConvergence, label, attempts, g.items)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// sampleClass returns the first sample labelled label, or the last attempt
// with ok false.
func (g *Generator) sampleClass(label model.RiskLabel, ref *cohort) (s model.TrainingSample, attempts int, ok bool) {
	maxAttempts := g.cfg.MaxAttempts
	for attempt := 0; attempt < maxAttempts; attempt++ {
		s = g.sample(label, attemptSpread(attempt, maxAttempts), ref)
		if s.Risk == label {
			return s, attempt + 1, true
		}
	}
	return s, maxAttempts, false
}

// attemptSpread falls linearly from 1 on the first attempt to 0 on the last.
func attemptSpread(attempt, maxAttempts int) float64 {
	if maxAttempts <= 1 {
		return 1
	}
	return 1 - float64(attempt)/float64(maxAttempts-1)
}

// targets returns n shuffled target classes following the distribution.
// Rounding leftovers go to Medium.
func (g *Generator) targets(n int) []model.RiskLabel {
	total := g.cfg.Distribution.total()
	out := make([]model.RiskLabel, 0, n)
	for _, label := range []model.RiskLabel{model.RiskLow, model.RiskHigh} {
		count := int(float64(n) * g.cfg.Distribution.share(label) / total)
		for i := 0; i < count; i++ {
			out = append(out, label)
		}
	}
	for len(out) < n {
		out = append(out, model.RiskMedium)
	}
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// sample builds one couple aimed at target. spread in [0,1] scales every
// random deviation from the band floor; zero yields the band-floor construction.
func (g *Generator) sample(target model.RiskLabel, spread float64, ref *cohort) model.TrainingSample {
	var profile model.CoupleProfile
	scale := g.cfg.ScaleFactor
	if ref != nil {
		profile = ref.drawProfile(g.rng)
		scale = g.cfg.ConditionedScaleFactor
	} else {
		profile = drawPriorProfile(g.rng)
	}

	band := ratioBands[target]
	ratio := band[0] + g.rng.Float64()*(band[1]-band[0])*spread
	base := g.baseResponses(ratio)

	if ref != nil {
		g.blend(base, ref.pattern(g.rng), g.cfg.BlendShare*spread)
	}

	topicScores := alignment.TopicConflict(base, g.topicItems, 0, scale)
	pair := g.perturb(base, spread)

	return model.TrainingSample{
		Profile:     profile.Normalized(),
		Responses:   pair,
		Risk:        alignment.RiskFromRatio(alignment.DisagreementRatio(pair.Male, pair.Female)),
		TopicScores: topicScores,
		Source:      model.SourceSynthetic,
	}
}

// baseResponses builds a shuffled response multiset whose explicit disagree
// share is ratio, with AgreeShare of the remainder agreeing and the rest neutral.
func (g *Generator) baseResponses(ratio float64) []model.Response {
	n := g.items
	disagree := int(float64(n) * ratio)
	agree := int(float64(n) * (1 - ratio) * g.cfg.AgreeShare)

	base := make([]model.Response, n)
	for i := range base {
		switch {
		case i < disagree:
			base[i] = model.Disagree
		case i < disagree+agree:
			base[i] = model.Agree
		default:
			base[i] = model.Neutral
		}
	}
	g.rng.Shuffle(n, func(i, j int) { base[i], base[j] = base[j], base[i] })
	return base
}

// blend replaces items with a lightly varied copy of a reference pattern.
func (g *Generator) blend(base, pattern []model.Response, share float64) {
	for i := range base {
		if g.rng.Float64() >= share {
			continue
		}
		variation := weighted(g.rng, []float64{0.1, 0.8, 0.1}) - 1
		base[i] = model.ClampResponse(int(pattern[i]) + variation)
	}
}

// perturb splits the base responses into two partners with small divergences.
func (g *Generator) perturb(base []model.Response, spread float64) model.ResponsePair {
	pair := model.ResponsePair{
		Male:   append([]model.Response(nil), base...),
		Female: append([]model.Response(nil), base...),
	}

	for i := range base {
		var step int
		switch {
		case g.rng.Float64() < g.cfg.PerturbOne*spread:
			step = 1
		case g.rng.Float64() < g.cfg.PerturbTwo*spread:
			step = 2
		default:
			continue
		}
		if g.rng.IntN(2) == 0 {
			step = -step
		}

		target := pair.Male
		if g.rng.IntN(2) == 0 {
			target = pair.Female
		}
		target[i] = model.ClampResponse(int(target[i]) + step)
	}
	return pair
}
