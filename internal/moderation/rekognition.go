package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rekognitiontypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/imgix/contentful/internal/models"
)

// RekognitionDetector labels images through AWS Rekognition using raw byte
// payloads, so no staging bucket is needed.
type RekognitionDetector struct {
	client *rekognition.Client
}

// NewRekognitionDetector builds a detector from ambient AWS credentials.
func NewRekognitionDetector(ctx context.Context, region string) (*RekognitionDetector, error) {
	loadOptions := []func(*awsconfig.LoadOptions) error{}
	if trimmed := strings.TrimSpace(region); trimmed != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(trimmed))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &RekognitionDetector{client: rekognition.NewFromConfig(cfg)}, nil
}

// DetectModerationLabels calls Rekognition DetectModerationLabels on the
// image bytes.
func (d *RekognitionDetector) DetectModerationLabels(ctx context.Context, imageBytes []byte) ([]models.ModerationLabel, error) {
	if len(imageBytes) == 0 {
		return nil, fmt.Errorf("image bytes are required")
	}

	output, err := d.client.DetectModerationLabels(ctx, &rekognition.DetectModerationLabelsInput{
		Image: &rekognitiontypes.Image{Bytes: imageBytes},
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition detect moderation labels failed: %w", err)
	}

	labels := make([]models.ModerationLabel, 0, len(output.ModerationLabels))
	for _, label := range output.ModerationLabels {
		confidence := 0.0
		if label.Confidence != nil {
			confidence = float64(*label.Confidence)
		}
		labels = append(labels, models.ModerationLabel{
			Name:       aws.ToString(label.Name),
			ParentName: aws.ToString(label.ParentName),
			Confidence: confidence,
		})
	}

	return labels, nil
}
