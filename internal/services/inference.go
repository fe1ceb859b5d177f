package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"jobscout/internal/models"
)

const (
	defaultInferenceTimeout  = 60 * time.Second
	defaultMaxInputChars     = 16000
	inferenceModelPathFormat = "%s/models/%s"
)

// InferenceConfig configures the remote text-inference endpoint. Base
// endpoint, credential and deadline are configuration, never hardcoded.
type InferenceConfig struct {
	Endpoint      string
	APIKey        string
	Timeout       time.Duration
	MaxInputChars int
	// TaskModels maps each task to the remote model that serves it.
	TaskModels map[models.TaskKind]string
}

type InferenceService interface {
	Predict(ctx context.Context, text string, task models.TaskKind) ([]models.InferencePrediction, error)
}

type inferenceService struct {
	cfg        InferenceConfig
	retry      RetryPolicy
	httpClient *http.Client
	logger     *zap.Logger
}

// NewInferenceService creates a client for a HuggingFace-style inference
// endpoint. The underlying http.Client is created once and reused across
// requests so the connection pool is shared.
func NewInferenceService(cfg InferenceConfig, retry RetryPolicy, logger *zap.Logger) InferenceService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultInferenceTimeout
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = defaultMaxInputChars
	}

	return &inferenceService{
		cfg:        cfg,
		retry:      retry,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type inferenceRequest struct {
	Inputs  string `json:"inputs"`
	Options struct {
		WaitForModel bool `json:"wait_for_model"`
	} `json:"options"`
}

// Predict implements InferenceService. The input text is truncated to the
// model's input-length limit before sending, keeping the earliest content.
// Only ErrInferenceUnavailable is retried, with bounded backoff; the remote
// service may be persistently degraded and is outside our control.
func (s *inferenceService) Predict(ctx context.Context, text string, task models.TaskKind) ([]models.InferencePrediction, error) {
	model, ok := s.cfg.TaskModels[task]
	if !ok || model == "" {
		return nil, fmt.Errorf("no model configured for inference task %q", task)
	}

	truncated := truncateHead(text, s.cfg.MaxInputChars)
	if len(truncated) != len(text) {
		s.logger.Debug("truncated inference input",
			zap.String("task", string(task)),
			zap.Int("original_chars", len([]rune(text))),
			zap.Int("limit", s.cfg.MaxInputChars),
		)
	}

	var predictions []models.InferencePrediction
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var callErr error
		predictions, callErr = s.predictOnce(ctx, truncated, model)
		return callErr
	}, func(err error) bool {
		return errors.Is(err, ErrInferenceUnavailable)
	})
	if err != nil {
		return nil, err
	}

	return predictions, nil
}

func (s *inferenceService) predictOnce(ctx context.Context, text, model string) ([]models.InferencePrediction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var payload inferenceRequest
	payload.Inputs = text
	payload.Options.WaitForModel = true

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal inference request: %w", err)
	}

	url := fmt.Sprintf(inferenceModelPathFormat, s.cfg.Endpoint, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w after %s", ErrInferenceTimeout, s.cfg.Timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrInferenceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %s", ErrInferenceUnavailable, resp.Status)
	default:
		return nil, fmt.Errorf("%w: status %s", ErrInferenceBadResponse, resp.Status)
	}

	predictions, err := decodePredictions(resp.Body)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("inference response",
		zap.String("model", model),
		zap.Int("predictions", len(predictions)),
	)

	return predictions, nil
}

// decodePredictions accepts both response shapes the inference service emits:
// a flat array of {label, score} or that array nested one level deep.
func decodePredictions(r io.Reader) ([]models.InferencePrediction, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceBadResponse, err)
	}

	var flat []models.InferencePrediction
	if err := json.Unmarshal(data, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}

	var nested [][]models.InferencePrediction
	if err := json.Unmarshal(data, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}

	return nil, fmt.Errorf("%w: empty or unrecognized prediction payload", ErrInferenceBadResponse)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
