package handlers

import (
	"context"
	"errors"
	"net/http"

	"neuroscreen/internal/voice"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Predictor is the remote voice classifier.
type Predictor interface {
	Predict(ctx context.Context, f voice.Features) (*voice.Prediction, error)
}

type PredictHandler struct {
	log       *zap.Logger
	predictor Predictor
}

func NewPredictHandler(log *zap.Logger, predictor Predictor) *PredictHandler {
	return &PredictHandler{log: log, predictor: predictor}
}

// featuresRequest uses pointers so a legitimate 0 is not taken as missing.
type featuresRequest struct {
	Fo      *float64 `json:"fo" binding:"required"`
	Fhi     *float64 `json:"fhi" binding:"required"`
	Flo     *float64 `json:"flo" binding:"required"`
	Jitter  *float64 `json:"jitter" binding:"required"`
	Shimmer *float64 `json:"shimmer" binding:"required"`
	HNR     *float64 `json:"hnr" binding:"required"`
	DFA     *float64 `json:"dfa" binding:"required"`
}

func (r featuresRequest) features() voice.Features {
	return voice.Features{
		Fo:      *r.Fo,
		Fhi:     *r.Fhi,
		Flo:     *r.Flo,
		Jitter:  *r.Jitter,
		Shimmer: *r.Shimmer,
		HNR:     *r.HNR,
		DFA:     *r.DFA,
	}
}

// PredictionResponse is what the browser renders.
type PredictionResponse struct {
	Prediction    int               `json:"prediction"`
	Positive      bool              `json:"positive"`
	Label         string            `json:"label"`
	Probability   *float64          `json:"probability,omitempty"`
	FeatureStatus map[string]string `json:"feature_status"`
}

// Predict forwards the feature vector to the classifier. A classifier that
// cannot be reached is reported separately from one that answered with an
// error, and neither is ever turned into a negative prediction.
func (h *PredictHandler) Predict(c *gin.Context) {
	var req featuresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All seven voice features are required"})
		return
	}

	pred, err := h.predictor.Predict(c.Request.Context(), req.features())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, PredictionResponse{
		Prediction:    pred.Prediction,
		Positive:      pred.Positive(),
		Label:         pred.Label(),
		Probability:   pred.Probability,
		FeatureStatus: pred.FeatureStatus,
	})
}

func (h *PredictHandler) writeError(c *gin.Context, err error) {
	var backendErr *voice.BackendError
	switch {
	case errors.Is(err, voice.ErrBackendUnreachable):
		h.log.Warn("Classifier unreachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Could not connect to backend.",
			"code":  "backend_unreachable",
		})
	case errors.As(err, &backendErr):
		h.log.Warn("Classifier returned an error", zap.Int("status", backendErr.StatusCode), zap.String("message", backendErr.Message))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": backendErr.Message,
			"code":  "backend_error",
		})
	case errors.Is(err, voice.ErrInvalidResponse):
		h.log.Error("Classifier response rejected", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Unable to predict",
			"code":  "backend_invalid_response",
		})
	default:
		h.log.Error("Prediction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to predict"})
	}
}
