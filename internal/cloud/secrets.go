package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/bitergia/grimoirelab-metrics/internal/contract"
)

// SecretsAPI is the part of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretStore resolves secrets stored in AWS Secrets Manager.
type SecretStore struct {
	client SecretsAPI
}

var _ contract.SecretStore = &SecretStore{} // Compile-time check

// NewSecretStore creates a SecretStore backed by client.
func NewSecretStore(client SecretsAPI) *SecretStore {
	return &SecretStore{client: client}
}

// NewSecretStoreFromConfig creates a SecretStore with a client built from cfg.
func NewSecretStoreFromConfig(cfg aws.Config) *SecretStore {
	return NewSecretStore(secretsmanager.NewFromConfig(cfg))
}

// GetSecret returns the secret string of id. A JSON object secret yields its
// "password" key; any other secret is returned as is.
func (s *SecretStore) GetSecret(ctx context.Context, id string) (string, error) {
	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", id, err)
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", id)
	}

	value := *result.SecretString
	if !strings.HasPrefix(strings.TrimSpace(value), "{") {
		return value, nil
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(value), &fields); err != nil {
		return "", fmt.Errorf("failed to decode secret %s: %w", id, err)
	}
	password, ok := fields["password"].(string)
	if !ok {
		return "", fmt.Errorf("secret %s has no \"password\" key", id)
	}
	return password, nil
}
