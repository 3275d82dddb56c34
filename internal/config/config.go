package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment        string `envconfig:"ENV" default:"development"`
	Port               string `envconfig:"PORT" default:"8080"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// Identity provider settings. JWTKeyMaterial is either the HMAC secret or
	// a PEM-encoded public key, depending on the provider's signing algorithm.
	JWTKeyMaterial string   `envconfig:"AUTH_JWT_KEY" required:"true"`
	AdminUserIDs   []string `envconfig:"ADMIN_USER_IDS"`

	// Shared secrets for machine callers. Either set directly or resolved
	// from Secret Manager at startup via the *SecretName variants.
	CronSecret            string `envconfig:"CRON_SECRET"`
	CronSecretName        string `envconfig:"CRON_SECRET_NAME"`
	InternalAPISecret     string `envconfig:"INTERNAL_API_SECRET"`
	InternalAPISecretName string `envconfig:"INTERNAL_API_SECRET_NAME"`

	GCPProjectID      string `envconfig:"GCP_PROJECT_ID"`
	GCPProjectIDLocal string `envconfig:"GCP_PROJECT_ID_LOCAL"`

	// Ops alerting for cost entries that exhaust their retries.
	AlertTopic string `envconfig:"PUBSUB_ALERT_TOPIC" default:"ops-alerts"`

	// Cost-ledger retry orchestrator settings
	CostRetryQueueName           string `envconfig:"COST_RETRY_QUEUE_NAME" default:"cost_entry_retry"`
	CostRetryPollTimeoutSec      int    `envconfig:"COST_RETRY_POLL_TIMEOUT_SEC" default:"30"`
	CostRetryPollMaxMsg          int    `envconfig:"COST_RETRY_POLL_MAX_MSG" default:"5"`
	CostRetryMaxRetries          int    `envconfig:"COST_RETRY_MAX_RETRIES" default:"5"`
	CostRetryBackoffInitialSec   int    `envconfig:"COST_RETRY_BACKOFF_INITIAL_SEC" default:"1"`
	CostRetryBackoffMaxSec       int    `envconfig:"COST_RETRY_BACKOFF_MAX_SEC" default:"60"`
	CostRetryDeadLetterQueueName string `envconfig:"COST_RETRY_DEAD_LETTER_QUEUE_NAME" default:"cost_entry_retry_dlq"`

	// S3 settings for cost report exports. Export endpoints are disabled
	// when the bucket is empty.
	S3URL          string `envconfig:"S3_URL"`
	S3Bucket       string `envconfig:"S3_BUCKET"`
	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey    string `envconfig:"S3_SECRET_KEY"`
	S3ReportPrefix string `envconfig:"S3_REPORT_PREFIX" default:"cost-reports/"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetGCPProjectID returns the project ID for the current environment.
func (c *Config) GetGCPProjectID() string {
	if c.Environment == "development" && c.GCPProjectIDLocal != "" {
		return c.GCPProjectIDLocal
	}
	return c.GCPProjectID
}
