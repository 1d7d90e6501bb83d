// Package model defines the core domain models used throughout the application.
package model

// CivilStatus is the couple's current civil status.
type CivilStatus string

// Civil status constants.
const (
	CivilSingle    CivilStatus = "Single"
	CivilLivingIn  CivilStatus = "LivingIn"
	CivilSeparated CivilStatus = "Separated"
	CivilDivorced  CivilStatus = "Divorced"
	CivilWidowed   CivilStatus = "Widowed"
)

// CivilStatuses lists every valid civil status.
var CivilStatuses = []CivilStatus{CivilSingle, CivilLivingIn, CivilSeparated, CivilDivorced, CivilWidowed}

// IsValid reports whether c is a known civil status.
func (c CivilStatus) IsValid() bool {
	for _, s := range CivilStatuses {
		if c == s {
			return true
		}
	}
	return false
}

// HasPriorRelationship reports whether the status implies an earlier partnership.
func (c CivilStatus) HasPriorRelationship() bool {
	return c == CivilSeparated || c == CivilDivorced || c == CivilWidowed
}

// Employment is the couple's employment status.
type Employment string

// Employment constants.
const (
	EmploymentUnemployed   Employment = "Unemployed"
	EmploymentEmployed     Employment = "Employed"
	EmploymentSelfEmployed Employment = "SelfEmployed"
)

// Employments lists every valid employment status.
var Employments = []Employment{EmploymentUnemployed, EmploymentEmployed, EmploymentSelfEmployed}

// Code returns the ordinal used in feature vectors.
func (e Employment) Code() int {
	switch e {
	case EmploymentEmployed:
		return 1
	case EmploymentSelfEmployed:
		return 2
	default:
		return 0
	}
}

// Age bounds for a valid profile.
const (
	MinAge = 18
	MaxAge = 100
)

// Ordinal bounds for education and income levels.
const (
	MinLevel = 0
	MaxLevel = 4
)

// CoupleProfile is the demographic record for one couple.
type CoupleProfile struct {
	CivilStatus     CivilStatus `json:"civil_status" yaml:"civil_status" validate:"required,oneof=Single LivingIn Separated Divorced Widowed"`
	Employment      Employment  `json:"employment" yaml:"employment" validate:"required,oneof=Unemployed Employed SelfEmployed"`
	MaleAge         int         `json:"male_age" yaml:"male_age" validate:"gte=18,lte=100"`
	FemaleAge       int         `json:"female_age" yaml:"female_age" validate:"gte=18,lte=100"`
	YearsCohabiting int         `json:"years_cohabiting" yaml:"years_cohabiting" validate:"gte=0"`
	Education       int         `json:"education" yaml:"education" validate:"gte=0,lte=4"`
	Income          int         `json:"income" yaml:"income" validate:"gte=0,lte=4"`
}

// Normalized returns a copy with cohabitation years zeroed unless the couple lives in.
func (p CoupleProfile) Normalized() CoupleProfile {
	if p.CivilStatus != CivilLivingIn {
		p.YearsCohabiting = 0
	}
	return p
}

// AgeGap returns the absolute difference between the partners' ages.
func (p CoupleProfile) AgeGap() int {
	if p.MaleAge > p.FemaleAge {
		return p.MaleAge - p.FemaleAge
	}
	return p.FemaleAge - p.MaleAge
}
