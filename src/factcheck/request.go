package factcheck

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
	"github.com/stake-plus/trustek/src/ai/core"
)

const (
	maxClaimLength = 10000
	maxImageBytes  = 20 * 1024 * 1024 // 20 MB
)

var (
	// ErrInvalidInput means the submission was refused before any network call.
	ErrInvalidInput = errors.New("factcheck: invalid input")
	// ErrBusy means the user already has an analysis in flight.
	ErrBusy = errors.New("factcheck: analysis already in progress")
	// ErrAnalysisFailed wraps every upstream or decoding failure.
	ErrAnalysisFailed = errors.New("factcheck: analysis failed")
)

// GenericFailureMessage is the only failure text shown to users.
const GenericFailureMessage = "Failed to connect to the analysis service. Please check your network or try again."

// UserMessage maps an error from Submit to user-facing text.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "Enter a claim or choose an image before analyzing."
	case errors.Is(err, ErrBusy):
		return "An analysis is already running. Please wait for it to finish."
	default:
		return GenericFailureMessage
	}
}

var claimPolicy = bluemonday.StrictPolicy()

// CanSubmit reports whether a submission would pass validation. Front ends
// use it to keep the submit control disabled.
func CanSubmit(req core.AnalysisRequest) bool {
	_, err := Prepare(req)
	return err == nil
}

// Prepare validates req and returns the normalised copy sent to the analyzer.
// Claims are stripped of markup; images are sniffed and must be image/*.
func Prepare(req core.AnalysisRequest) (core.AnalysisRequest, error) {
	switch req.Mode {
	case core.ModeText, "":
		if len(req.Image) > 0 {
			return req, fmt.Errorf("%w: claim and image are mutually exclusive", ErrInvalidInput)
		}
		if !utf8.ValidString(req.Claim) {
			return req, fmt.Errorf("%w: claim is not valid UTF-8", ErrInvalidInput)
		}
		// Sanitize escapes the text it keeps; the analyzer wants it verbatim.
		claim := strings.TrimSpace(html.UnescapeString(claimPolicy.Sanitize(req.Claim)))
		if claim == "" {
			return req, fmt.Errorf("%w: claim is empty", ErrInvalidInput)
		}
		if utf8.RuneCountInString(claim) > maxClaimLength {
			return req, fmt.Errorf("%w: claim exceeds %d characters", ErrInvalidInput, maxClaimLength)
		}
		return core.AnalysisRequest{Mode: core.ModeText, Claim: claim}, nil

	case core.ModeImage:
		if strings.TrimSpace(req.Claim) != "" {
			return req, fmt.Errorf("%w: claim and image are mutually exclusive", ErrInvalidInput)
		}
		if len(req.Image) == 0 {
			return req, fmt.Errorf("%w: image is missing", ErrInvalidInput)
		}
		if len(req.Image) > maxImageBytes {
			return req, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidInput, maxImageBytes)
		}
		mt := mimetype.Detect(req.Image)
		if !strings.HasPrefix(mt.String(), "image/") {
			return req, fmt.Errorf("%w: unsupported file type %s", ErrInvalidInput, mt.String())
		}
		return core.AnalysisRequest{
			Mode:     core.ModeImage,
			Image:    req.Image,
			FileName: strings.TrimSpace(req.FileName),
			MIMEType: mt.String(),
		}, nil
	}
	return req, fmt.Errorf("%w: unknown input mode %q", ErrInvalidInput, req.Mode)
}
