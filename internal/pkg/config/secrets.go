// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretSource resolves runtime credentials (database and Redis passwords)
// that must not live in the environment in production.
type SecretSource interface {
	Lookup(ctx context.Context, key string) (string, error)
}

// secretCacheTTL bounds how stale a rotated credential can be.
const secretCacheTTL = 5 * time.Minute

// AWSSecretSource reads a single JSON secret from AWS Secrets Manager and
// serves individual keys out of it.
type AWSSecretSource struct {
	client     *secretsmanager.Client
	secretName string
	logger     *slog.Logger

	mu      sync.Mutex
	values  map[string]string
	fetched time.Time
}

// NewAWSSecretSource creates a Secrets Manager backed source
func NewAWSSecretSource(ctx context.Context, region, secretName string, logger *slog.Logger) (*AWSSecretSource, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSecretSource{
		client:     secretsmanager.NewFromConfig(cfg),
		secretName: secretName,
		logger:     logger.With(slog.String("component", "secrets")),
	}, nil
}

// Lookup returns one key from the secret document, fetching or refreshing
// the document as needed.
func (s *AWSSecretSource) Lookup(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil || time.Since(s.fetched) > secretCacheTTL {
		if err := s.refresh(ctx); err != nil {
			return "", err
		}
	}

	val, ok := s.values[key]
	if !ok {
		return "", fmt.Errorf("key %q not present in secret %s", key, s.secretName)
	}
	return val, nil
}

func (s *AWSSecretSource) refresh(ctx context.Context) error {
	s.logger.InfoContext(ctx, "fetching secret document",
		slog.String("secret_name", s.secretName))

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(s.secretName),
		VersionStage: aws.String("AWSCURRENT"),
	})
	if err != nil {
		return fmt.Errorf("failed to read secret %s: %w", s.secretName, err)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &values); err != nil {
		return fmt.Errorf("secret %s is not a flat JSON object: %w", s.secretName, err)
	}

	s.values = values
	s.fetched = time.Now()
	return nil
}

// EnvSecretSource reads credentials straight from the environment; the
// development and test default.
type EnvSecretSource struct{}

func (EnvSecretSource) Lookup(_ context.Context, key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("environment variable %s not set", key)
	}
	return val, nil
}

// resolveSecrets overrides credential fields from the configured secret
// source. Missing keys are left at their environment values so partial
// secret documents work.
func (c *Config) resolveSecrets(ctx context.Context, source SecretSource, logger *slog.Logger) {
	targets := []struct {
		key  string
		dest *string
	}{
		{"DB_PASSWORD", &c.Database.Password},
		{"REDIS_PASSWORD", &c.Redis.Password},
	}

	for _, t := range targets {
		val, err := source.Lookup(ctx, t.key)
		if err != nil {
			logger.Warn("secret not resolved, keeping environment value",
				slog.String("key", t.key),
				slog.String("error", err.Error()))
			continue
		}
		*t.dest = val
	}

	// The Asynq connection reuses the Redis credential.
	c.Asynq.RedisPassword = c.Redis.Password
}
