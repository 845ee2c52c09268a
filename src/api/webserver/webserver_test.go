package webserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/trustek/src/ai/core"
	"github.com/stake-plus/trustek/src/auth"
	"github.com/stake-plus/trustek/src/factcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type stubAnalyzer struct {
	text  string
	err   error
	calls []core.AnalysisRequest
}

func (s *stubAnalyzer) Analyze(_ context.Context, req core.AnalysisRequest, _ core.Options) (core.AnalysisResult, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return core.AnalysisResult{}, s.err
	}
	return core.AnalysisResult{
		Text:    s.text,
		Sources: []core.Source{{URI: "https://en.wikipedia.org/wiki/Eiffel_Tower", Title: "Eiffel Tower - Wikipedia"}},
	}, nil
}

var secret = []byte("test-secret")

func newServer(t *testing.T, a core.Analyzer, rate int) *gin.Engine {
	t.Helper()
	return New(Deps{
		Service:    factcheck.NewService(a, factcheck.Config{}),
		States:     auth.NewJWTStateProvider(secret, nil),
		RateLimit:  rate,
		RateWindow: time.Minute,
	})
}

func token(t *testing.T, user string) string {
	t.Helper()
	tok, _, err := auth.IssueToken(secret, user, "", time.Hour)
	require.NoError(t, err)
	return tok
}

func do(r http.Handler, method, path, tok string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := do(newServer(t, &stubAnalyzer{}, 10), http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	w := do(newServer(t, &stubAnalyzer{}, 10), http.MethodGet, "/metrics", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestFactCheckRequiresAuth(t *testing.T) {
	a := &stubAnalyzer{text: "TRUE"}
	w := do(newServer(t, a, 10), http.MethodPost, "/v1/factcheck", "", []byte(`{"claim":"x"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"err":"unauthenticated","redirect":"/auth"}`, w.Body.String())
	assert.Empty(t, a.calls)
}

func TestFactCheckClaim(t *testing.T) {
	a := &stubAnalyzer{text: "TRUE: Confirmed by multiple sources"}
	r := newServer(t, a, 10)
	tok := token(t, "alice")

	w := do(r, http.MethodPost, "/v1/factcheck", tok,
		[]byte(`{"mode":"text","claim":"The Eiffel Tower is in Paris"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report factcheck.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "VERIFIED", string(report.Label))
	require.Len(t, report.Sources, 1)
	assert.Equal(t, "en.wikipedia.org", report.Sources[0].Host)

	w = do(r, http.MethodGet, "/v1/factcheck/state", tok, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var st factcheck.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, factcheck.PhaseSettled, st.Phase)

	w = do(r, http.MethodGet, "/v1/factcheck/state", token(t, "bob"), nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, factcheck.PhaseIdle, st.Phase)

	w = do(r, http.MethodDelete, "/v1/factcheck/state", tok, nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, factcheck.PhaseIdle, st.Phase)
}

func TestFactCheckEmptyClaim(t *testing.T) {
	a := &stubAnalyzer{text: "TRUE"}
	w := do(newServer(t, a, 10), http.MethodPost, "/v1/factcheck", token(t, "alice"),
		[]byte(`{"mode":"text","claim":"   "}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, a.calls)
}

func TestFactCheckUpstreamFailure(t *testing.T) {
	a := &stubAnalyzer{err: errors.New("API returned status 500")}
	w := do(newServer(t, a, 10), http.MethodPost, "/v1/factcheck", token(t, "alice"),
		[]byte(`{"claim":"x"}`), "application/json")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"err":"`+factcheck.GenericFailureMessage+`"}`, w.Body.String())
}

func TestFactCheckImageJSON(t *testing.T) {
	a := &stubAnalyzer{text: "FALSE: manipulated"}
	body, _ := json.Marshal(map[string]string{
		"mode":     "image",
		"fileName": "tower.png",
		"image":    "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader),
	})
	w := do(newServer(t, a, 10), http.MethodPost, "/v1/factcheck", token(t, "alice"), body, "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, a.calls, 1)
	assert.Equal(t, core.ModeImage, a.calls[0].Mode)
	assert.Equal(t, "image/png", a.calls[0].MIMEType)
	assert.Contains(t, w.Body.String(), "FALSE/MISLEADING")
}

func TestFactCheckImageMultipart(t *testing.T) {
	a := &stubAnalyzer{text: "VERIFIED"}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "tower.png")
	require.NoError(t, err)
	_, _ = fw.Write(pngHeader)
	require.NoError(t, mw.Close())

	w := do(newServer(t, a, 10), http.MethodPost, "/v1/factcheck", token(t, "alice"), buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, a.calls, 1)
	assert.Equal(t, "tower.png", a.calls[0].FileName)
}

func TestFactCheckMultipartClaimOnly(t *testing.T) {
	a := &stubAnalyzer{text: "TRUE: Confirmed"}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("claim", "The Eiffel Tower is in Paris"))
	require.NoError(t, mw.Close())

	w := do(newServer(t, a, 10), http.MethodPost, "/v1/factcheck", token(t, "alice"), buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, a.calls, 1)
	assert.Equal(t, core.ModeText, a.calls[0].Mode)
	assert.Equal(t, "The Eiffel Tower is in Paris", a.calls[0].Claim)
}

func TestFactCheckMalformedMultipart(t *testing.T) {
	cases := []struct {
		name, contentType, body string
	}{
		{"truncated", "multipart/form-data; boundary=xyz", "garbage"},
		{"no boundary", "multipart/form-data", "--xyz\r\n"},
	}
	for _, tc := range cases {
		a := &stubAnalyzer{text: "TRUE"}
		w := do(newServer(t, a, 10), http.MethodPost, "/v1/factcheck", token(t, "alice"), []byte(tc.body), tc.contentType)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.name)
		assert.Empty(t, a.calls, tc.name)
	}
}

func TestFactCheckBadBase64(t *testing.T) {
	a := &stubAnalyzer{text: "TRUE"}
	w := do(newServer(t, a, 10), http.MethodPost, "/v1/factcheck", token(t, "alice"),
		[]byte(`{"mode":"image","image":"%%%"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, a.calls)
}

func TestFactCheckRateLimited(t *testing.T) {
	a := &stubAnalyzer{text: "TRUE"}
	r := newServer(t, a, 2)
	tok := token(t, "alice")
	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/v1/factcheck", tok, []byte(`{"claim":"x"}`), "application/json")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(r, http.MethodPost, "/v1/factcheck", tok, []byte(`{"claim":"x"}`), "application/json")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Len(t, a.calls, 2)

	w = do(r, http.MethodPost, "/v1/factcheck", token(t, "bob"), []byte(`{"claim":"x"}`), "application/json")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMe(t *testing.T) {
	w := do(newServer(t, &stubAnalyzer{}, 10), http.MethodGet, "/v1/me", token(t, "alice"), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"id":"alice"`))
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("k"))
	assert.False(t, rl.Allow("k"))
	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("k"))
}
