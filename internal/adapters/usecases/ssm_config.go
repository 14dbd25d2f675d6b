// Package usecases adapts AWS parameter and secret stores to the core's
// configuration ports.
package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/mikey/llm-chat-backend/internal/core"
	"go.uber.org/zap"
)

// SSMAPI is the subset of the SSM client the config source uses
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSMConfigSource loads the use-case configuration JSON document stored in
// an SSM parameter
type SSMConfigSource struct {
	client SSMAPI
	logger *zap.Logger
}

// NewSSMConfigSource creates an SSM-backed config source
func NewSSMConfigSource(client SSMAPI, logger *zap.Logger) *SSMConfigSource {
	return &SSMConfigSource{
		client: client,
		logger: logger,
	}
}

// GetConfig implements core.ConfigSource
func (s *SSMConfigSource) GetConfig(ctx context.Context, key string) (*core.UseCaseConfig, error) {
	if key == "" {
		return nil, fmt.Errorf("use case configuration key is empty")
	}

	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read use case configuration parameter %q: %w", key, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, fmt.Errorf("use case configuration parameter %q is empty", key)
	}

	var cfg core.UseCaseConfig
	if err := json.Unmarshal([]byte(*out.Parameter.Value), &cfg); err != nil {
		return nil, fmt.Errorf("use case configuration parameter %q is not valid JSON: %w", key, err)
	}

	s.logger.Debug("Loaded use case configuration",
		zap.String("use_case", cfg.UseCaseName),
		zap.String("provider", string(cfg.LlmParams.ModelProvider)))
	return &cfg, nil
}
