package verdict

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text   string
		expect Label
	}{
		{"FALSE: the tower is in Rome", LabelFalse},
		{"This claim is misleading.", LabelFalse},
		{"Partly true but MISLEADING overall", LabelFalse},
		{"TRUE and also FALSE", LabelFalse},
		{"TRUE: Confirmed by multiple sources", LabelVerified},
		{"Verified by Reuters", LabelVerified},
		{"true", LabelVerified},
		{"UNVERIFIED: no sources found", LabelVerified},
		{"Could not determine", LabelUnverified},
		{"", LabelUnverified},
		{"   ", LabelUnverified},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expect, Classify(tt.text), "text=%q", tt.text)
	}
}

func TestClassifyFalseWinsRegardlessOfPosition(t *testing.T) {
	for _, text := range []string{
		"verified ... false",
		"false ... verified",
		"TRUE TRUE TRUE misleading",
	} {
		assert.Equal(t, LabelFalse, Classify(text), text)
	}
}

func TestLabelTone(t *testing.T) {
	assert.Equal(t, TonePositive, LabelVerified.Tone())
	assert.Equal(t, ToneNegative, LabelFalse.Tone())
	assert.Equal(t, ToneNeutral, LabelUnverified.Tone())
	assert.Equal(t, "FALSE/MISLEADING", LabelFalse.String())
	assert.NotEqual(t, LabelVerified.Color(), LabelFalse.Color())
}
