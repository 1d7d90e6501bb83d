package model

import "strconv"

// Response is a single answer code for one questionnaire item.
type Response int

// Response codes.
const (
	Disagree Response = 2
	Neutral  Response = 3
	Agree    Response = 4
)

// IsValid reports whether r is one of the three answer codes.
func (r Response) IsValid() bool {
	return r >= Disagree && r <= Agree
}

func (r Response) String() string {
	switch r {
	case Disagree:
		return "disagree"
	case Neutral:
		return "neutral"
	case Agree:
		return "agree"
	default:
		return "invalid(" + strconv.Itoa(int(r)) + ")"
	}
}

// ClampResponse bounds v into the valid answer range.
func ClampResponse(v int) Response {
	if v < int(Disagree) {
		return Disagree
	}
	if v > int(Agree) {
		return Agree
	}
	return Response(v)
}

// ResponsePair holds both partners' answers, index-aligned to the questionnaire items.
type ResponsePair struct {
	Male   []Response `json:"male" yaml:"male"`
	Female []Response `json:"female" yaml:"female"`
}

// Len returns the number of items answered, or -1 if the partners' lengths differ.
func (p ResponsePair) Len() int {
	if len(p.Male) != len(p.Female) {
		return -1
	}
	return len(p.Male)
}

// Clone returns a deep copy of the pair.
func (p ResponsePair) Clone() ResponsePair {
	return ResponsePair{
		Male:   append([]Response(nil), p.Male...),
		Female: append([]Response(nil), p.Female...),
	}
}
