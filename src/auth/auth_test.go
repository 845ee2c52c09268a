package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, h gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.GET("/page", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func fixedState(st AuthState) StateProvider {
	return StateProviderFunc(func(*gin.Context) AuthState { return st })
}

func TestGuard(t *testing.T) {
	rendered := 0
	render := func(c *gin.Context) {
		rendered++
		u, ok := UserFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, "hello "+u.ID)
	}

	t.Run("loading renders nothing", func(t *testing.T) {
		rendered = 0
		w := serve(t, Guard(render, fixedState(AuthState{IsLoading: true})), httptest.NewRequest(http.MethodGet, "/page", nil))
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), LoadingMessage)
		assert.Empty(t, w.Header().Get("Location"))
		assert.Zero(t, rendered)
	})

	t.Run("anonymous browser is redirected", func(t *testing.T) {
		rendered = 0
		req := httptest.NewRequest(http.MethodGet, "/page", nil)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		w := serve(t, Guard(render, fixedState(AuthState{})), req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth", w.Header().Get("Location"))
		assert.Zero(t, rendered)
	})

	t.Run("anonymous api call gets 401", func(t *testing.T) {
		rendered = 0
		w := serve(t, Guard(render, fixedState(AuthState{}), WithRedirect("/login")),
			httptest.NewRequest(http.MethodGet, "/page", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"err":"unauthenticated","redirect":"/login"}`, w.Body.String())
		assert.Zero(t, rendered)
	})

	t.Run("user renders", func(t *testing.T) {
		rendered = 0
		w := serve(t, Guard(render, fixedState(AuthState{User: &User{ID: "alice"}})),
			httptest.NewRequest(http.MethodGet, "/page", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello alice", w.Body.String())
		assert.Equal(t, 1, rendered)
	})
}

type fakeSessions struct {
	active map[string]bool
	err    error
}

func (f fakeSessions) Active(_ context.Context, sid string) (bool, error) {
	return f.active[sid], f.err
}

func stateFor(t *testing.T, p StateProvider, setup func(*http.Request)) AuthState {
	t.Helper()
	var got AuthState
	r := gin.New()
	r.GET("/", func(c *gin.Context) { got = p.State(c) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	setup(req)
	r.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestJWTStateProvider(t *testing.T) {
	secret := []byte("s3cret")
	token, sid, err := IssueToken(secret, "alice", "", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, sid)

	bearer := func(tok string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
	}

	st := stateFor(t, NewJWTStateProvider(secret, nil), bearer(token))
	require.NotNil(t, st.User)
	assert.Equal(t, "alice", st.User.ID)
	assert.Equal(t, sid, st.User.SessionID)

	st = stateFor(t, NewJWTStateProvider(secret, nil), func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	})
	require.NotNil(t, st.User)

	st = stateFor(t, NewJWTStateProvider([]byte("other"), nil), bearer(token))
	assert.Nil(t, st.User)
	assert.False(t, st.IsLoading)

	st = stateFor(t, NewJWTStateProvider(secret, nil), func(*http.Request) {})
	assert.Nil(t, st.User)

	expired, _, err := IssueToken(secret, "alice", "s", -time.Hour)
	require.NoError(t, err)
	st = stateFor(t, NewJWTStateProvider(secret, nil), bearer(expired))
	assert.NotNil(t, st.User, "non-positive ttl falls back to one hour")

	stale := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(-time.Minute).Unix()})
	staleTok, err := stale.SignedString(secret)
	require.NoError(t, err)
	st = stateFor(t, NewJWTStateProvider(secret, nil), bearer(staleTok))
	assert.Nil(t, st.User)
}

func TestJWTStateProviderSessions(t *testing.T) {
	secret := []byte("s3cret")
	token, sid, err := IssueToken(secret, "bob", "sess-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sid)
	bearer := func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }

	st := stateFor(t, NewJWTStateProvider(secret, fakeSessions{active: map[string]bool{"sess-1": true}}), bearer)
	require.NotNil(t, st.User)
	assert.Equal(t, "bob", st.User.ID)

	st = stateFor(t, NewJWTStateProvider(secret, fakeSessions{active: map[string]bool{}}), bearer)
	assert.Nil(t, st.User)
	assert.False(t, st.IsLoading)

	st = stateFor(t, NewJWTStateProvider(secret, fakeSessions{err: errors.New("dial tcp: refused")}), bearer)
	assert.Nil(t, st.User)
	assert.True(t, st.IsLoading)
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	_, _, err := IssueToken(nil, "u", "", time.Hour)
	assert.Error(t, err)
}
