// Package auth gates handlers on an authenticated user.
package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/trustek/src/metrics"
)

// User is the authenticated principal.
type User struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId,omitempty"`
}

// AuthState is what the identity provider currently knows about a request.
// IsLoading means the answer is not available yet.
type AuthState struct {
	User      *User
	IsLoading bool
}

// StateProvider resolves the AuthState for a request.
type StateProvider interface {
	State(c *gin.Context) AuthState
}

// StateProviderFunc adapts a function to StateProvider.
type StateProviderFunc func(c *gin.Context) AuthState

func (f StateProviderFunc) State(c *gin.Context) AuthState { return f(c) }

const (
	userKey = "auth.user"

	// LoadingMessage is shown while credentials are being checked.
	LoadingMessage = "Checking credentials..."
)

type guardOptions struct {
	redirect string
}

type GuardOption func(*guardOptions)

// WithRedirect overrides the sign-in path, "/auth" by default.
func WithRedirect(path string) GuardOption {
	return func(o *guardOptions) { o.redirect = path }
}

// Guard wraps render so it only runs for an authenticated user. While the
// state is loading nothing is rendered and no redirect is issued.
func Guard(render gin.HandlerFunc, states StateProvider, opts ...GuardOption) gin.HandlerFunc {
	o := guardOptions{redirect: "/auth"}
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *gin.Context) {
		st := states.State(c)
		switch {
		case st.IsLoading:
			metrics.GuardDecisionsTotal.WithLabelValues("loading").Inc()
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusAccepted, gin.H{
				"status":  "checking credentials",
				"message": LoadingMessage,
			})
		case st.User == nil:
			metrics.GuardDecisionsTotal.WithLabelValues("redirect").Inc()
			if wantsHTML(c) {
				c.Redirect(http.StatusFound, o.redirect)
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"err":      "unauthenticated",
				"redirect": o.redirect,
			})
		default:
			metrics.GuardDecisionsTotal.WithLabelValues("render").Inc()
			c.Set(userKey, st.User)
			render(c)
		}
	}
}

// UserFrom returns the user stored by Guard.
func UserFrom(c *gin.Context) (*User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*User)
	return u, ok && u != nil
}

func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}
