package factcheck

import (
	"time"

	"github.com/stake-plus/trustek/src/ai/core"
	"github.com/stake-plus/trustek/src/verdict"
)

// Phase is the lifecycle of one user's page.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSettled Phase = "settled"
)

// SourceView is a citation ready for display.
type SourceView struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
	Host  string `json:"host"`
}

// Report is a settled, classified analysis.
type Report struct {
	ID          string        `json:"id"`
	Mode        core.Mode     `json:"mode"`
	Label       verdict.Label `json:"label"`
	Tone        verdict.Tone  `json:"tone"`
	Text        string        `json:"text"`
	SummaryHTML string        `json:"summaryHtml"`
	Sources     []SourceView  `json:"sources"`
	ElapsedMS   int64         `json:"elapsedMs"`
}

// State is what a page renders: idle, loading with a progress label, or
// settled with a report or an error message.
type State struct {
	Phase     Phase     `json:"phase"`
	Progress  string    `json:"progress,omitempty"`
	Report    *Report   `json:"report,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}
