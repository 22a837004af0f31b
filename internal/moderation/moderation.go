// Package moderation screens upload bytes before they are pushed to an
// imgix Source. It is optional; when disabled, uploads go straight through.
package moderation

import (
	"context"

	"github.com/imgix/contentful/internal/models"
)

// Detector is the provider abstraction that returns content labels for an
// image.
type Detector interface {
	DetectModerationLabels(ctx context.Context, imageBytes []byte) ([]models.ModerationLabel, error)
}

// Service turns detector labels into an approve/reject decision for the
// upload workflow.
type Service struct {
	detector         Detector
	rejectConfidence float64
}

// NewService creates a moderation service. A non-positive threshold falls
// back to 70.
func NewService(detector Detector, rejectConfidence float64) *Service {
	if rejectConfidence <= 0 {
		rejectConfidence = 70
	}
	return &Service{detector: detector, rejectConfidence: rejectConfidence}
}

// ScreenUpload labels the image and rejects it when any label meets the
// confidence threshold.
func (s *Service) ScreenUpload(ctx context.Context, imageBytes []byte) (*models.ModerationDecision, error) {
	labels, err := s.detector.DetectModerationLabels(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	decision := &models.ModerationDecision{
		Status: models.ModerationApproved,
		Reason: "Approved",
		Labels: labels,
	}

	for _, label := range labels {
		if label.Confidence > decision.MaxConfidence {
			decision.MaxConfidence = label.Confidence
		}
		if label.Confidence >= s.rejectConfidence {
			decision.Status = models.ModerationRejected
			decision.Reason = "This file can't be uploaded"
		}
	}

	return decision, nil
}
