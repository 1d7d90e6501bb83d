package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concord/internal/common"
)

func validProfile() CoupleProfile {
	return CoupleProfile{
		MaleAge:         31,
		FemaleAge:       29,
		CivilStatus:     CivilLivingIn,
		YearsCohabiting: 3,
		Education:       3,
		Income:          2,
		Employment:      EmploymentEmployed,
	}
}

func TestValidateProfile(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		mutate  func(*CoupleProfile)
		wantErr bool
	}{
		{
			name:   "valid profile",
			mutate: func(*CoupleProfile) {},
		},
		{
			name:    "male too young",
			mutate:  func(p *CoupleProfile) { p.MaleAge = 17 },
			wantErr: true,
			errMsg:  "MaleAge must be at least 18",
		},
		{
			name:    "female too old",
			mutate:  func(p *CoupleProfile) { p.FemaleAge = 101 },
			wantErr: true,
			errMsg:  "FemaleAge must be at most 100",
		},
		{
			name:    "education out of range",
			mutate:  func(p *CoupleProfile) { p.Education = 5 },
			wantErr: true,
			errMsg:  "Education must be at most 4",
		},
		{
			name:    "negative income",
			mutate:  func(p *CoupleProfile) { p.Income = -1 },
			wantErr: true,
			errMsg:  "Income must be at least 0",
		},
		{
			name:    "negative years",
			mutate:  func(p *CoupleProfile) { p.YearsCohabiting = -2 },
			wantErr: true,
			errMsg:  "YearsCohabiting must be at least 0",
		},
		{
			name:    "unknown civil status",
			mutate:  func(p *CoupleProfile) { p.CivilStatus = "Engaged" },
			wantErr: true,
			errMsg:  "CivilStatus must be one of",
		},
		{
			name:    "missing employment",
			mutate:  func(p *CoupleProfile) { p.Employment = "" },
			wantErr: true,
			errMsg:  "Employment is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)

			err := ValidateProfile(p)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, common.KindInputValidation, common.KindOf(err))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidatePair(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		pair    ResponsePair
		items   int
		wantErr bool
	}{
		{
			name:  "valid",
			pair:  ResponsePair{Male: []Response{2, 3, 4}, Female: []Response{4, 3, 2}},
			items: 3,
		},
		{
			name:    "empty",
			pair:    ResponsePair{},
			items:   3,
			wantErr: true,
			errMsg:  "must not be empty",
		},
		{
			name:    "partner length mismatch",
			pair:    ResponsePair{Male: []Response{2, 3, 4}, Female: []Response{4, 3}},
			items:   3,
			wantErr: true,
			errMsg:  "differ in length",
		},
		{
			name:    "item count mismatch",
			pair:    ResponsePair{Male: []Response{2, 3}, Female: []Response{4, 3}},
			items:   3,
			wantErr: true,
			errMsg:  "expected 3 responses",
		},
		{
			name:    "invalid code",
			pair:    ResponsePair{Male: []Response{2, 5, 4}, Female: []Response{4, 3, 2}},
			items:   3,
			wantErr: true,
			errMsg:  "male response 1 has invalid code 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePair(tt.pair, tt.items)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, common.IsKind(err, common.KindInputValidation))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestWarnings(t *testing.T) {
	p := validProfile()
	p.MaleAge = 70
	p.FemaleAge = 30
	p.YearsCohabiting = 51

	pair := ResponsePair{
		Male:   []Response{Neutral, Neutral, Neutral, Neutral},
		Female: []Response{Neutral, Neutral, Neutral, Neutral},
	}

	warnings := Warnings(p, pair)
	assert.Contains(t, warnings, "large age gap: 40 years")
	assert.Contains(t, warnings, "unusually long cohabitation: 51 years")
	assert.Contains(t, warnings, "partners gave identical responses to every item")
	assert.Contains(t, warnings, "male responses show no variation")
	assert.Contains(t, warnings, "high neutral response share: 100%")

	clean := Warnings(validProfile(), ResponsePair{
		Male:   []Response{Agree, Disagree, Neutral},
		Female: []Response{Agree, Agree, Disagree},
	})
	assert.Empty(t, clean)
}

func TestCoupleProfile_Normalized(t *testing.T) {
	p := validProfile()
	assert.Equal(t, 3, p.Normalized().YearsCohabiting)

	p.CivilStatus = CivilSingle
	assert.Equal(t, 0, p.Normalized().YearsCohabiting)
	assert.Equal(t, 3, p.YearsCohabiting, "original must be untouched")
}
