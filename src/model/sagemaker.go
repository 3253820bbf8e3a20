package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"

	"github.com/vigneswarPR/iot-anomaly-detection/src/types"
)

// SageMakerScorer scores by invoking a deployed SageMaker endpoint instead of
// an in-process model. The endpoint must accept {"instances":[{"features":[...]}]}
// and answer {"scores":[{"score":...}]} using the same decision-function
// convention as the local model: negative means outlier.
type SageMakerScorer struct {
	client   *sagemakerruntime.Client
	endpoint string
	dims     int
}

type sageMakerResponse struct {
	Scores []struct {
		Score float64 `json:"score"`
	} `json:"scores"`
}

func NewSageMakerScorer(ctx context.Context, endpoint, region string, dims int) (*SageMakerScorer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &SageMakerScorer{
		client:   sagemakerruntime.NewFromConfig(cfg),
		endpoint: endpoint,
		dims:     dims,
	}, nil
}

func (s *SageMakerScorer) Dims() int {
	return s.dims
}

func (s *SageMakerScorer) Score(ctx context.Context, vector []float64) (types.Verdict, error) {
	if len(vector) != s.dims {
		return types.Verdict{}, fmt.Errorf("%w: got %d features, expected %d",
			ErrDimensionMismatch, len(vector), s.dims)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"instances": []map[string]interface{}{
			{"features": vector},
		},
	})
	if err != nil {
		return types.Verdict{}, fmt.Errorf("failed to build endpoint payload: %w", err)
	}

	output, err := s.client.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: &s.endpoint,
		Body:         payload,
		ContentType:  aws.String("application/json"),
		Accept:       aws.String("application/json"),
	})
	if err != nil {
		return types.Verdict{}, fmt.Errorf("failed to invoke endpoint: %w", err)
	}

	var response sageMakerResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return types.Verdict{}, fmt.Errorf("failed to parse endpoint response: %w", err)
	}
	if len(response.Scores) == 0 {
		return types.Verdict{}, fmt.Errorf("endpoint returned no scores")
	}

	score := response.Scores[0].Score
	return types.Verdict{
		IsAnomaly: score < 0,
		Score:     score,
	}, nil
}
