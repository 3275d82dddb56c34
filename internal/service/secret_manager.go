package service

import (
	"context"
	"fmt"

	"app/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretResolver reads shared secrets (cron trigger, internal ingest) from
// Secret Manager so production deployments don't carry them in plain env.
type SecretResolver interface {
	Resolve(ctx context.Context, secretName string) (string, error)
}

type secretResolver struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretResolver creates a read-only Secret Manager client for the
// project configured for the current environment.
func NewSecretResolver(ctx context.Context, cfg *config.Config) (SecretResolver, error) {
	projectID := cfg.GetGCPProjectID()
	if projectID == "" {
		return nil, fmt.Errorf("GCP Project ID is not set for the current environment")
	}

	var opts []option.ClientOption
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretResolver{client: client, projectID: projectID}, nil
}

func (s *secretResolver) Resolve(ctx context.Context, secretName string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, secretName)

	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version %s: %w", secretName, err)
	}

	return string(result.Payload.Data), nil
}
