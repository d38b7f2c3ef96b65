package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"neuroscreen/internal/assessment"
	"neuroscreen/internal/models"
	"neuroscreen/internal/trail"
	"neuroscreen/internal/voice"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)

func testBattery() *models.Battery {
	b := models.DefaultBattery()
	b.Trail.Targets = []trail.Point{{X: 50, Y: 50}, {X: 150, Y: 50}}
	b.Pattern.Sequence = []string{"red", "blue", "green"}
	return b
}

// client replays the session cookie across requests.
type client struct {
	t        *testing.T
	engine   *gin.Engine
	registry *assessment.Registry
	cookies  map[string]*http.Cookie
}

func newClient(t *testing.T, predictor Predictor) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	battery := testBattery()
	registry := assessment.NewRegistry(log, battery, time.Hour, func() time.Time { return testNow })

	engine := gin.New()
	engine.Use(sessions.Sessions("test", cookie.NewStore([]byte("test-secret"))))

	ah := NewAssessmentHandler(log, battery, registry)
	rh := NewResultsHandler(log, ah)
	engine.GET("/", ah.Home)
	engine.POST("/assessment/start", ah.Start)
	engine.POST("/assessment/screening", ah.SubmitScreening)
	engine.GET("/assessment/trail", ah.TrailLayout)
	engine.POST("/assessment/trail/click", ah.TrailClick)
	engine.GET("/assessment/pattern", ah.PatternOriginal)
	engine.POST("/assessment/pattern/select", ah.PatternSelect)
	engine.POST("/assessment/pattern/reset", ah.PatternReset)
	engine.GET("/assessment/results", rh.ShowResults)
	if predictor != nil {
		engine.POST("/api/predict", NewPredictHandler(log, predictor).Predict)
	}

	return &client{t: t, engine: engine, registry: registry, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

const correctAnswers = `{"q1":"2025-10-01","q2":"Apple, table, penny","q3":"20, 19, 18, 17, 16","q4":"dlrow","q5":"dog cat horse"}`

func TestSubmitScreeningRequiresAttempt(t *testing.T) {
	c := newClient(t, nil)
	w := c.postJSON("/assessment/screening", correctAnswers)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitScreeningJSON(t *testing.T) {
	c := newClient(t, nil)
	w := c.postJSON("/assessment/start", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var started struct {
		AttemptID string            `json:"attemptId"`
		Questions []models.Question `json:"questions"`
	}
	decode(t, w, &started)
	assert.NotEmpty(t, started.AttemptID)
	assert.Len(t, started.Questions, 5)

	w = c.postJSON("/assessment/screening", correctAnswers)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Score    int    `json:"score"`
		Percent  int    `json:"percent"`
		RiskTier string `json:"riskTier"`
	}
	decode(t, w, &res)
	assert.Equal(t, 5, res.Score)
	assert.Equal(t, 100, res.Percent)
	assert.Equal(t, "Low", res.RiskTier)

	// Same answers are idempotent, different ones are refused.
	w = c.postJSON("/assessment/screening", correctAnswers)
	assert.Equal(t, http.StatusOK, w.Code)
	w = c.postJSON("/assessment/screening", `{"q1":"","q2":"","q3":"","q4":"","q5":""}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Starting over clears the lock.
	c.postJSON("/assessment/start", "")
	w = c.postJSON("/assessment/screening", `{"q1":"","q2":"","q3":"","q4":"","q5":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &res)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, "High", res.RiskTier)
}

func TestHomeDoesNotStartAttempts(t *testing.T) {
	c := newClient(t, nil)
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		c.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 0, c.registry.Len())

	w := c.postJSON("/assessment/start", "")
	require.Equal(t, http.StatusCreated, w.Code)
	c.get("/")
	assert.Equal(t, 1, c.registry.Len())
}

func TestSubmitScreeningFormHTMX(t *testing.T) {
	c := newClient(t, nil)
	w := c.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="q1"`)
	require.Equal(t, http.StatusCreated, c.postJSON("/assessment/start", "").Code)

	form := url.Values{
		"q1": {"2025-10-01"},
		"q2": {"apple table"},
		"q3": {"20 19 18 17 16"},
		"q4": {"DLROW"},
		"q5": {"one two"},
	}
	req := httptest.NewRequest(http.MethodPost, "/assessment/screening", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	w = c.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Score: 3/5 (60%)")
	assert.Contains(t, w.Body.String(), `<li class="fail">Word recall</li>`)
}

func TestTrailFlow(t *testing.T) {
	c := newClient(t, nil)
	c.postJSON("/assessment/start", "")

	w := c.get("/assessment/trail")
	require.Equal(t, http.StatusOK, w.Code)
	var layout struct {
		Targets []trail.Target `json:"targets"`
	}
	decode(t, w, &layout)
	require.Len(t, layout.Targets, 2)

	click := func(p trail.Point) trail.Outcome {
		w := c.postJSON("/assessment/trail/click", fmt.Sprintf(`{"x":%v,"y":%v}`, p.X, p.Y))
		require.Equal(t, http.StatusOK, w.Code)
		var out trail.Outcome
		decode(t, w, &out)
		return out
	}

	out := click(layout.Targets[1].Position)
	assert.False(t, out.Accepted)
	assert.Equal(t, 0, out.NextExpectedIndex)

	out = click(layout.Targets[0].Position)
	assert.True(t, out.Accepted)
	assert.Equal(t, 1, out.NextExpectedIndex)

	out = click(layout.Targets[1].Position)
	assert.True(t, out.Completed)
	assert.True(t, out.Done)

	w = c.postJSON("/assessment/trail/click", `{"x":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrailClickAcceptsOrigin(t *testing.T) {
	c := newClient(t, nil)
	c.postJSON("/assessment/start", "")
	w := c.postJSON("/assessment/trail/click", `{"x":0,"y":0}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPatternFlow(t *testing.T) {
	c := newClient(t, nil)
	c.postJSON("/assessment/start", "")

	w := c.get("/assessment/pattern")
	require.Equal(t, http.StatusOK, w.Code)
	var original struct {
		Sequence []string `json:"sequence"`
	}
	decode(t, w, &original)
	require.Equal(t, []string{"red", "blue", "green"}, original.Sequence)

	var st struct {
		Selected int  `json:"selected"`
		Complete bool `json:"complete"`
		Matched  bool `json:"matched"`
	}
	for _, tok := range original.Sequence {
		w = c.postJSON("/assessment/pattern/select", fmt.Sprintf(`{"token":%q}`, tok))
		require.Equal(t, http.StatusOK, w.Code)
	}
	decode(t, w, &st)
	assert.True(t, st.Complete)
	assert.True(t, st.Matched)

	w = c.postJSON("/assessment/pattern/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &st)
	assert.Equal(t, 0, st.Selected)
	assert.False(t, st.Complete)

	w = c.postJSON("/assessment/pattern/select", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShowResults(t *testing.T) {
	c := newClient(t, nil)
	c.postJSON("/assessment/start", "")

	w := c.get("/assessment/results")
	require.Equal(t, http.StatusOK, w.Code)
	var empty map[string]any
	decode(t, w, &empty)
	assert.NotContains(t, empty, "screening")
	assert.NotContains(t, empty, "charts")

	c.postJSON("/assessment/screening", correctAnswers)
	w = c.get("/assessment/results")
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		AttemptID string `json:"attemptId"`
		Screening *struct {
			Score int `json:"score"`
		} `json:"screening"`
		Trail struct {
			Completed bool `json:"completed"`
		} `json:"trail"`
		Charts map[string]json.RawMessage `json:"charts"`
	}
	decode(t, w, &res)
	require.NotNil(t, res.Screening)
	assert.Equal(t, 5, res.Screening.Score)
	assert.False(t, res.Trail.Completed)
	assert.Contains(t, res.Charts, "breakdown")
	assert.Contains(t, res.Charts, "score")
}

type fakePredictor struct {
	pred *voice.Prediction
	err  error
	got  voice.Features
}

func (f *fakePredictor) Predict(_ context.Context, feat voice.Features) (*voice.Prediction, error) {
	f.got = feat
	return f.pred, f.err
}

const featuresBody = `{"fo":145.5,"fhi":160.2,"flo":135.8,"jitter":0,"shimmer":0.03,"hnr":21.7,"dfa":0.73}`

func TestPredict(t *testing.T) {
	prob := 0.91
	tests := []struct {
		name     string
		body     string
		pred     *voice.Prediction
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "positive",
			body:     featuresBody,
			pred:     &voice.Prediction{Prediction: 1, Probability: &prob, FeatureStatus: map[string]string{"fo": "Normal"}},
			wantCode: http.StatusOK,
		},
		{
			name:     "missing feature",
			body:     `{"fo":145.5}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unreachable",
			body:     featuresBody,
			err:      fmt.Errorf("%w: connection refused", voice.ErrBackendUnreachable),
			wantCode: http.StatusServiceUnavailable,
			wantErr:  "Could not connect to backend.",
		},
		{
			name:     "backend error",
			body:     featuresBody,
			err:      &voice.BackendError{StatusCode: 500, Message: "Model not loaded"},
			wantCode: http.StatusBadGateway,
			wantErr:  "Model not loaded",
		},
		{
			name:     "invalid response",
			body:     featuresBody,
			err:      fmt.Errorf("%w: missing prediction", voice.ErrInvalidResponse),
			wantCode: http.StatusBadGateway,
			wantErr:  "Unable to predict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakePredictor{pred: tt.pred, err: tt.err}
			c := newClient(t, fp)

			w := c.postJSON("/api/predict", tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())

			var body map[string]any
			decode(t, w, &body)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, body["error"])
				assert.NotContains(t, body, "prediction")
				return
			}
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, float64(1), body["prediction"])
				assert.Equal(t, true, body["positive"])
				assert.Equal(t, 0.91, body["probability"])
				assert.Equal(t, 0.0, fp.got.Jitter)
				assert.Equal(t, 145.5, fp.got.Fo)
			}
		})
	}
}
