package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Veraticus/concord/internal/common"
)

// Thresholds that raise non-fatal warnings on an otherwise valid couple.
const (
	WarnAgeGap        = 30
	WarnYearsTogether = 50
	WarnNeutralShare  = 0.8
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateProfile checks demographic ranges and enum membership.
func ValidateProfile(p CoupleProfile) error {
	err := Validator().Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return common.InputValidation("invalid profile: %v", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return common.InputValidation("invalid profile: %s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", fe.Field(), fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// ValidatePair checks that both sequences have exactly items entries of valid codes.
func ValidatePair(p ResponsePair, items int) error {
	if len(p.Male) == 0 || len(p.Female) == 0 {
		return common.InputValidation("response sequences must not be empty")
	}
	if len(p.Male) != len(p.Female) {
		return common.InputValidation("male and female responses differ in length: %d vs %d", len(p.Male), len(p.Female))
	}
	if len(p.Male) != items {
		return common.InputValidation("expected %d responses per partner, got %d", items, len(p.Male))
	}
	for i := range p.Male {
		if !p.Male[i].IsValid() {
			return common.InputValidation("male response %d has invalid code %d", i, int(p.Male[i]))
		}
		if !p.Female[i].IsValid() {
			return common.InputValidation("female response %d has invalid code %d", i, int(p.Female[i]))
		}
	}
	return nil
}

// Warnings returns non-fatal observations about a valid couple.
func Warnings(p CoupleProfile, pair ResponsePair) []string {
	var warnings []string

	if gap := p.AgeGap(); gap > WarnAgeGap {
		warnings = append(warnings, fmt.Sprintf("large age gap: %d years", gap))
	}
	if p.YearsCohabiting > WarnYearsTogether {
		warnings = append(warnings, fmt.Sprintf("unusually long cohabitation: %d years", p.YearsCohabiting))
	}

	if len(pair.Male) == 0 || len(pair.Male) != len(pair.Female) {
		return warnings
	}

	identical := true
	neutral := 0
	for i := range pair.Male {
		if pair.Male[i] != pair.Female[i] {
			identical = false
		}
		if pair.Male[i] == Neutral {
			neutral++
		}
		if pair.Female[i] == Neutral {
			neutral++
		}
	}
	if identical {
		warnings = append(warnings, "partners gave identical responses to every item")
	}
	if uniform(pair.Male) {
		warnings = append(warnings, "male responses show no variation")
	}
	if uniform(pair.Female) {
		warnings = append(warnings, "female responses show no variation")
	}
	if share := float64(neutral) / float64(2*len(pair.Male)); share > WarnNeutralShare {
		warnings = append(warnings, fmt.Sprintf("high neutral response share: %.0f%%", share*100))
	}

	return warnings
}

func uniform(rs []Response) bool {
	for _, r := range rs[1:] {
		if r != rs[0] {
			return false
		}
	}
	return true
}
