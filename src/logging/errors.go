package logging

import (
	"errors"
	"net/http"
	"strings"

	"github.com/stake-plus/trustek/src/webclient"
)

// IsRateLimit reports whether err came from upstream throttling.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var se *webclient.StatusError
	if errors.As(err, &se) && se.Status == http.StatusTooManyRequests {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "rate_limit") || strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "429")
}
