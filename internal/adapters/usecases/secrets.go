package usecases

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"
)

// SecretsManagerAPI is the subset of the Secrets Manager client the secret
// source uses
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerSource resolves provider API keys from AWS Secrets Manager
type SecretsManagerSource struct {
	client SecretsManagerAPI
	logger *zap.Logger
}

// NewSecretsManagerSource creates a Secrets Manager backed secret source
func NewSecretsManagerSource(client SecretsManagerAPI, logger *zap.Logger) *SecretsManagerSource {
	return &SecretsManagerSource{
		client: client,
		logger: logger,
	}
}

// GetSecret implements core.SecretSource
func (s *SecretsManagerSource) GetSecret(ctx context.Context, secretID string) (string, error) {
	if secretID == "" {
		return "", fmt.Errorf("secret id is empty")
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read secret %q: %w", secretID, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("secret %q has no string value", secretID)
	}

	s.logger.Debug("Resolved secret", zap.String("secret_id", secretID))
	return *out.SecretString, nil
}
