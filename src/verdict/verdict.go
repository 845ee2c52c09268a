// Package verdict maps free-text fact-check answers onto display labels.
package verdict

import "strings"

// Label is one of the three display categories for a fact-check answer.
type Label string

const (
	LabelFalse      Label = "FALSE/MISLEADING"
	LabelVerified   Label = "VERIFIED"
	LabelUnverified Label = "UNVERIFIED"
)

// Tone is the presentation hint attached to a Label.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

var (
	falseMarkers    = []string{"FALSE", "MISLEADING"}
	verifiedMarkers = []string{"VERIFIED", "TRUE"}
)

// Classify inspects text for verdict markers. Matching is a case-insensitive
// substring test and the first matching group wins: FALSE/MISLEADING, then
// VERIFIED/TRUE, otherwise UNVERIFIED. Note that "UNVERIFIED" itself contains
// "VERIFIED".
func Classify(text string) Label {
	upper := strings.ToUpper(text)
	if containsAny(upper, falseMarkers) {
		return LabelFalse
	}
	if containsAny(upper, verifiedMarkers) {
		return LabelVerified
	}
	return LabelUnverified
}

// Tone returns the display tone for l.
func (l Label) Tone() Tone {
	switch l {
	case LabelVerified:
		return TonePositive
	case LabelFalse:
		return ToneNegative
	default:
		return ToneNeutral
	}
}

// Color is the embed colour used by chat surfaces.
func (l Label) Color() int {
	switch l {
	case LabelVerified:
		return 0x22C55E
	case LabelFalse:
		return 0xEF4444
	default:
		return 0xEAB308
	}
}

func (l Label) String() string { return string(l) }

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
