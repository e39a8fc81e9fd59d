// Package sensor reads live heart rate from the M5Atom pulse web server.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	MinPulse = 30
	MaxPulse = 220

	DefaultURL     = "http://172.20.10.10"
	DefaultTimeout = 800 * time.Millisecond
)

var (
	// ErrNoReading the device has not detected a beat yet (reports 0)
	ErrNoReading = errors.New("no pulse reading")
	// ErrOutOfRange the device reported an implausible rate
	ErrOutOfRange = errors.New("pulse reading out of range")
)

// PulseResponse body served at "/"
type PulseResponse struct {
	PulseRateBPM int `json:"pulse_rate_bpm"`
}

// PulseClient HTTP client for the pulse server
type PulseClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewPulseClient(baseURL string, timeout time.Duration, logger *zap.Logger) *PulseClient {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(50 * time.Millisecond).
		SetHeader("Accept", "application/json")

	return &PulseClient{
		httpClient: client,
		logger:     logger,
	}
}

// Fetch the raw reading
func (c *PulseClient) Fetch(ctx context.Context) (PulseResponse, error) {
	var out PulseResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/")
	if err != nil {
		return PulseResponse{}, fmt.Errorf("failed to call pulse sensor: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return PulseResponse{}, fmt.Errorf("pulse sensor returned status %d", resp.StatusCode())
	}
	return out, nil
}

// PulseSource validated heart rate from a PulseClient
type PulseSource struct {
	client *PulseClient
	logger *zap.Logger
}

func NewPulseSource(client *PulseClient, logger *zap.Logger) *PulseSource {
	return &PulseSource{client: client, logger: logger}
}

// PulseRate returns a rate in [MinPulse, MaxPulse], ErrNoReading for 0 or ErrOutOfRange.
func (s *PulseSource) PulseRate(ctx context.Context) (int, error) {
	resp, err := s.client.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	bpm := resp.PulseRateBPM
	switch {
	case bpm == 0:
		return 0, ErrNoReading
	case bpm < MinPulse || bpm > MaxPulse:
		s.logger.Debug("Discarding pulse reading", zap.Int("bpm", bpm))
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, bpm)
	}
	return bpm, nil
}
