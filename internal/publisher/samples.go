package publisher

import (
	"context"
	"fmt"

	"wisefido-vitalsim/internal/models"
)

// SampleWriter persists one sample; *repository.SampleRepository satisfies it
type SampleWriter interface {
	Insert(ctx context.Context, s models.VitalSample) (int64, error)
}

// SampleSink stores every reading as a vital_samples row
type SampleSink struct {
	repo SampleWriter
}

func NewSampleSink(repo SampleWriter) *SampleSink {
	return &SampleSink{repo: repo}
}

func (s *SampleSink) Publish(ctx context.Context, r models.Reading) error {
	if _, err := s.repo.Insert(ctx, models.SampleFromReading(r)); err != nil {
		return fmt.Errorf("failed to store sample: %w", err)
	}
	return nil
}
