package synth

import (
	"math"
	"math/rand/v2"

	"github.com/montanaflynn/stats"

	"github.com/Veraticus/concord/internal/model"
)

// Synthetic partners are kept within this age range.
const (
	minSyntheticAge = 18
	maxSyntheticAge = 80
)

type riskBias int

const (
	biasLow riskBias = iota
	biasMedium
	biasHigh
)

type lifeStage struct {
	minAge int
	maxAge int
	bias   riskBias
	weight float64
}

var lifeStages = []lifeStage{
	{minAge: 18, maxAge: 25, bias: biasHigh, weight: 0.15},
	{minAge: 25, maxAge: 30, bias: biasMedium, weight: 0.25},
	{minAge: 30, maxAge: 40, bias: biasLow, weight: 0.30},
	{minAge: 40, maxAge: 50, bias: biasLow, weight: 0.20},
	{minAge: 50, maxAge: 70, bias: biasMedium, weight: 0.10},
}

type ageGap struct {
	min, max int
	weight   float64
}

var ageGaps = []ageGap{
	{0, 2, 0.40},
	{1, 3, 0.30},
	{2, 5, 0.20},
	{5, 15, 0.08},
	{15, 25, 0.02},
}

var civilByBias = map[riskBias][]model.CivilStatus{
	biasHigh:   {model.CivilSingle, model.CivilSingle, model.CivilLivingIn, model.CivilSeparated, model.CivilDivorced},
	biasMedium: {model.CivilSingle, model.CivilLivingIn, model.CivilWidowed, model.CivilSeparated},
	biasLow:    {model.CivilSingle, model.CivilLivingIn, model.CivilLivingIn, model.CivilWidowed},
}

var employmentWeights = []float64{0.2, 0.6, 0.2}

// weighted returns an index drawn with the given relative weights.
func weighted(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	u := rng.Float64() * total
	for i, w := range weights {
		if u < w {
			return i
		}
		u -= w
	}
	return len(weights) - 1
}

// between returns an integer in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}

func clampAge(age int) int {
	return max(minSyntheticAge, min(maxSyntheticAge, age))
}

func educationWeights(age int) []float64 {
	switch {
	case age < 25:
		return []float64{0.10, 0.20, 0.40, 0.20, 0.10}
	case age < 40:
		return []float64{0.05, 0.10, 0.30, 0.40, 0.15}
	default:
		return []float64{0.05, 0.05, 0.20, 0.50, 0.20}
	}
}

func drawIncome(rng *rand.Rand, education int) int {
	switch {
	case education >= 3:
		return 2 + weighted(rng, []float64{0.2, 0.5, 0.3})
	case education >= 2:
		return 1 + weighted(rng, []float64{0.1, 0.4, 0.4, 0.1})
	default:
		return weighted(rng, []float64{0.2, 0.4, 0.3, 0.1})
	}
}

func drawYearsCohabiting(rng *rand.Rand, age int) int {
	switch {
	case age < 25:
		return between(rng, 1, 4)
	case age < 40:
		return between(rng, 1, 14)
	default:
		return between(rng, 5, 24)
	}
}

// drawPriorProfile draws demographics from the fixed life-stage priors.
func drawPriorProfile(rng *rand.Rand) model.CoupleProfile {
	stage := lifeStages[weighted(rng, stageWeights())]
	maleAge := between(rng, stage.minAge, stage.maxAge)

	gapBucket := ageGaps[weighted(rng, gapWeights())]
	gap := between(rng, gapBucket.min, gapBucket.max)
	femaleAge := maleAge + gap
	if rng.IntN(2) == 0 {
		femaleAge = maleAge - gap
	}

	options := civilByBias[stage.bias]
	civil := options[rng.IntN(len(options))]

	years := 0
	if civil == model.CivilLivingIn {
		years = drawYearsCohabiting(rng, maleAge)
	}

	education := weighted(rng, educationWeights(maleAge))

	return model.CoupleProfile{
		MaleAge:         clampAge(maleAge),
		FemaleAge:       clampAge(femaleAge),
		CivilStatus:     civil,
		YearsCohabiting: years,
		Education:       education,
		Income:          drawIncome(rng, education),
		Employment:      model.Employments[weighted(rng, employmentWeights)],
	}
}

func stageWeights() []float64 {
	w := make([]float64, len(lifeStages))
	for i, s := range lifeStages {
		w[i] = s.weight
	}
	return w
}

func gapWeights() []float64 {
	w := make([]float64, len(ageGaps))
	for i, g := range ageGaps {
		w[i] = g.weight
	}
	return w
}

// cohort summarises a real cohort for conditioned draws.
type cohort struct {
	profiles   []model.CoupleProfile
	responses  [][]model.Response
	maleMean   float64
	maleStd    float64
	femaleMean float64
	femaleStd  float64
	yearsMean  float64
}

// newCohort summarises the reference samples whose responses match items.
// It returns nil when no usable reference remains.
func newCohort(reference []model.TrainingSample, items int) *cohort {
	c := &cohort{}
	var maleAges, femaleAges, years stats.Float64Data
	for _, s := range reference {
		if len(s.Responses.Male) != items || len(s.Responses.Female) != items {
			continue
		}
		c.profiles = append(c.profiles, s.Profile)
		c.responses = append(c.responses, s.Responses.Male, s.Responses.Female)
		maleAges = append(maleAges, float64(s.Profile.MaleAge))
		femaleAges = append(femaleAges, float64(s.Profile.FemaleAge))
		if s.Profile.CivilStatus == model.CivilLivingIn {
			years = append(years, float64(s.Profile.YearsCohabiting))
		}
	}
	if len(c.profiles) == 0 {
		return nil
	}

	c.maleMean, _ = stats.Mean(maleAges)
	c.maleStd, _ = stats.StandardDeviation(maleAges)
	c.femaleMean, _ = stats.Mean(femaleAges)
	c.femaleStd, _ = stats.StandardDeviation(femaleAges)
	if len(years) > 0 {
		c.yearsMean, _ = stats.Mean(years)
	}
	return c
}

// drawProfile resamples demographics from the cohort with age jitter.
func (c *cohort) drawProfile(rng *rand.Rand) model.CoupleProfile {
	pick := func() model.CoupleProfile { return c.profiles[rng.IntN(len(c.profiles))] }

	civil := pick().CivilStatus
	years := 0
	if civil == model.CivilLivingIn {
		years = between(rng, 1, int(math.Round(c.yearsMean))+5)
	}

	return model.CoupleProfile{
		MaleAge:         clampAge(int(math.Round(c.maleMean + rng.NormFloat64()*c.maleStd))),
		FemaleAge:       clampAge(int(math.Round(c.femaleMean + rng.NormFloat64()*c.femaleStd))),
		CivilStatus:     civil,
		YearsCohabiting: years,
		Education:       pick().Education,
		Income:          pick().Income,
		Employment:      pick().Employment,
	}
}

// pattern returns one partner's responses from a random reference couple.
func (c *cohort) pattern(rng *rand.Rand) []model.Response {
	return c.responses[rng.IntN(len(c.responses))]
}
