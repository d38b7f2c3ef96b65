package handlers

import (
	"errors"
	"net/http"

	"neuroscreen/internal/assessment"
	"neuroscreen/internal/models"
	"neuroscreen/internal/pattern"
	"neuroscreen/internal/screening"
	"neuroscreen/internal/trail"
	"neuroscreen/views"

	"github.com/a-h/templ"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session and context keys shared with the router middleware.
const (
	AttemptSessionKey = "attemptID"
	CSRFContextKey    = "csrf_token"
	NonceContextKey   = "csp_nonce"
)

var errNoAttempt = errors.New("no active assessment")

type AssessmentHandler struct {
	log      *zap.Logger
	battery  *models.Battery
	registry *assessment.Registry
}

func NewAssessmentHandler(log *zap.Logger, battery *models.Battery, registry *assessment.Registry) *AssessmentHandler {
	return &AssessmentHandler{log: log, battery: battery, registry: registry}
}

// Home renders the full page. It never creates an attempt: the page starts
// one through the CSRF-protected POST /assessment/start.
func (h *AssessmentHandler) Home(c *gin.Context) {
	csrfToken := c.GetString(CSRFContextKey)
	nonce := c.GetString(NonceContextKey)
	page := views.Home(h.battery.Questions, csrfToken)
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := views.Layout("NeuroScreen", csrfToken, nonce).Render(templ.WithChildren(c.Request.Context(), page), c.Writer); err != nil {
		h.log.Error("Error rendering home page", zap.Error(err))
	}
}

// Start discards any previous attempt and begins a new one.
func (h *AssessmentHandler) Start(c *gin.Context) {
	if prev, err := h.currentAttempt(c); err == nil {
		h.registry.Discard(prev.ID)
	}
	a, err := h.startAttempt(c)
	if errors.Is(err, assessment.ErrRegistryFull) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Too many assessments in progress. Try again later."})
		return
	}
	if err != nil {
		h.log.Error("Failed to start attempt", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not start assessment"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"attemptId": a.ID.String(),
		"questions": h.battery.Questions,
	})
}

// SubmitScreening scores q1..q5 from a form post or a JSON object.
func (h *AssessmentHandler) SubmitScreening(c *gin.Context) {
	a, ok := h.requireAttempt(c)
	if !ok {
		return
	}

	answers, err := bindAnswers(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answers"})
		return
	}

	res, err := a.SubmitScreening(answers)
	if errors.Is(err, screening.ErrAlreadySubmitted) {
		c.JSON(http.StatusConflict, gin.H{"error": "Answers were already submitted; reset to start over"})
		return
	}
	if err != nil {
		h.log.Error("Failed to score screening", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not score answers"})
		return
	}

	h.log.Info("Screening scored",
		zap.String("attempt_id", a.ID.String()),
		zap.Int("score", res.Score),
		zap.String("risk_tier", string(res.RiskTier)),
	)

	if isHTMX(c) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusOK)
		if err := views.ScreeningResult(res).Render(c.Request.Context(), c.Writer); err != nil {
			h.log.Error("Error rendering screening result", zap.Error(err))
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

// TrailLayout returns the target list for the current attempt.
func (h *AssessmentHandler) TrailLayout(c *gin.Context) {
	a, ok := h.requireAttempt(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"width":   h.battery.Trail.Width,
		"height":  h.battery.Trail.Height,
		"targets": a.TrailTargets(),
	})
}

type pointRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

// TrailClick registers one pointer click.
func (h *AssessmentHandler) TrailClick(c *gin.Context) {
	a, ok := h.requireAttempt(c)
	if !ok {
		return
	}

	var req pointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid point"})
		return
	}

	out := a.RegisterPoint(trail.Point{X: *req.X, Y: *req.Y})
	c.JSON(http.StatusOK, out)
}

// PatternOriginal returns the sequence the user must reproduce.
func (h *AssessmentHandler) PatternOriginal(c *gin.Context) {
	a, ok := h.requireAttempt(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"palette":  h.battery.Pattern.Palette,
		"sequence": a.PatternOriginal(),
	})
}

type selectionRequest struct {
	Token string `json:"token" binding:"required"`
}

// PatternSelect registers one tile selection.
func (h *AssessmentHandler) PatternSelect(c *gin.Context) {
	a, ok := h.requireAttempt(c)
	if !ok {
		return
	}

	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid selection"})
		return
	}

	c.JSON(http.StatusOK, a.RegisterSelection(pattern.Token(req.Token)))
}

// PatternReset clears the user's replay.
func (h *AssessmentHandler) PatternReset(c *gin.Context) {
	a, ok := h.requireAttempt(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, a.ResetPattern())
}

func (h *AssessmentHandler) startAttempt(c *gin.Context) (*assessment.Attempt, error) {
	a, err := h.registry.Start()
	if err != nil {
		return nil, err
	}
	session := sessions.Default(c)
	session.Set(AttemptSessionKey, a.ID.String())
	if err := session.Save(); err != nil {
		h.registry.Discard(a.ID)
		return nil, err
	}
	return a, nil
}

func (h *AssessmentHandler) currentAttempt(c *gin.Context) (*assessment.Attempt, error) {
	raw, ok := sessions.Default(c).Get(AttemptSessionKey).(string)
	if !ok {
		return nil, errNoAttempt
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errNoAttempt
	}
	return h.registry.Get(id)
}

// requireAttempt writes a 409 when the session has no live attempt.
func (h *AssessmentHandler) requireAttempt(c *gin.Context) (*assessment.Attempt, bool) {
	a, err := h.currentAttempt(c)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "No active assessment; start one first"})
		return nil, false
	}
	return a, true
}

func bindAnswers(c *gin.Context) (map[screening.ItemID]string, error) {
	answers := make(map[screening.ItemID]string, screening.ItemCount)
	if c.ContentType() == gin.MIMEJSON {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, err
		}
		for _, id := range screening.ItemIDs {
			answers[id] = body[string(id)]
		}
		return answers, nil
	}
	for _, id := range screening.ItemIDs {
		answers[id] = c.PostForm(string(id))
	}
	return answers, nil
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}
