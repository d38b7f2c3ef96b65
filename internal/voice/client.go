package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

var (
	// ErrBackendUnreachable means no response was received at all.
	ErrBackendUnreachable = errors.New("cannot reach backend")
	// ErrInvalidResponse means a 2xx response did not have the expected shape.
	ErrInvalidResponse = errors.New("invalid classifier response")
)

// BackendError is a non-success HTTP status from the classifier.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("classifier returned %d: %s", e.StatusCode, e.Message)
}

// Prediction is the classifier verdict.
type Prediction struct {
	Prediction    int               `json:"prediction"`
	Probability   *float64          `json:"probability,omitempty"`
	FeatureStatus map[string]string `json:"feature_status,omitempty"`
}

// Positive reports whether the model flagged the sample.
func (p Prediction) Positive() bool { return p.Prediction == 1 }

// Label is the sentence shown to the user.
func (p Prediction) Label() string {
	if p.Positive() {
		return "Parkinson's likely (model positive)"
	}
	return "Parkinson's unlikely (model negative)"
}

// Client posts feature vectors to the classifier's predict endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	log      *zap.Logger
}

// NewClient creates a client for the given endpoint URL.
func NewClient(endpoint string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Predict submits f and returns the verdict. When the classifier omits the
// per-feature status it is filled in from HealthyRanges.
func (c *Client) Predict(ctx context.Context, f Features) (*Prediction, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("Classifier unreachable", zap.String("endpoint", c.endpoint), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
	}

	c.log.Debug("Classifier responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BackendError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	pred, err := decodePrediction(raw)
	if err != nil {
		return nil, err
	}
	if len(pred.FeatureStatus) == 0 {
		pred.FeatureStatus = Assess(f)
	}
	return pred, nil
}

// errorMessage extracts the "error" field of a failure body.
func errorMessage(raw []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		return "Unable to predict"
	}
	return body.Error
}

func decodePrediction(raw []byte) (*Prediction, error) {
	var body struct {
		Prediction    *int              `json:"prediction"`
		Probability   *float64          `json:"probability"`
		FeatureStatus map[string]string `json:"feature_status"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if body.Prediction == nil {
		return nil, fmt.Errorf("%w: missing prediction", ErrInvalidResponse)
	}
	if *body.Prediction != 0 && *body.Prediction != 1 {
		return nil, fmt.Errorf("%w: prediction %d", ErrInvalidResponse, *body.Prediction)
	}
	if p := body.Probability; p != nil && (*p < 0 || *p > 1) {
		return nil, fmt.Errorf("%w: probability %v", ErrInvalidResponse, *p)
	}
	return &Prediction{
		Prediction:    *body.Prediction,
		Probability:   body.Probability,
		FeatureStatus: body.FeatureStatus,
	}, nil
}
