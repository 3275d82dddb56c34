package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"app/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ReportService renders administrative cost reports and uploads them to
// object storage. Group keys are written in lexicographic order so the same
// ledger state always produces the same file.
type ReportService interface {
	// ExportAllUsersCosts writes the all-users aggregate over [start, end)
	// as CSV to the configured bucket and returns the object key.
	ExportAllUsersCosts(ctx context.Context, start, end time.Time) (string, error)
}

type reportService struct {
	costSvc  CostService
	s3Client *s3.Client
	bucket   string
	prefix   string
	logger   zerolog.Logger
}

// NewReportService creates a new ReportService with a scoped logger.
func NewReportService(costSvc CostService, s3Client *s3.Client, bucket, prefix string, logger zerolog.Logger) ReportService {
	return &reportService{
		costSvc:  costSvc,
		s3Client: s3Client,
		bucket:   bucket,
		prefix:   prefix,
		logger:   logger.With().Str("service", "ReportService").Logger(),
	}
}

func (s *reportService) ExportAllUsersCosts(ctx context.Context, start, end time.Time) (string, error) {
	summary, err := s.costSvc.GetAllUsersCosts(ctx, start, end)
	if err != nil {
		return "", err
	}

	body, err := renderCostReport(summary, start, end)
	if err != nil {
		return "", fmt.Errorf("rendering cost report: %w", err)
	}

	key := fmt.Sprintf("%scosts_%s_%s_%s.csv",
		s.prefix,
		start.UTC().Format("20060102"),
		end.UTC().Format("20060102"),
		uuid.NewString(),
	)
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to upload cost report")
		return "", fmt.Errorf("uploading cost report: %w", err)
	}

	s.logger.Info().Str("key", key).Int64("entries", summary.EntryCount).Msg("Cost report exported")
	return key, nil
}

func renderCostReport(summary *model.AllUsersCostSummary, start, end time.Time) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"section", "key", "cost_usd", "tokens", "entries"},
		{"period", start.UTC().Format(time.RFC3339), "", "", ""},
		{"period_end", end.UTC().Format(time.RFC3339), "", "", ""},
		{"total", "", summary.TotalCost.String(), fmt.Sprintf("%d", summary.TotalTokens), fmt.Sprintf("%d", summary.EntryCount)},
	}
	records = append(records, groupRecords("by_user", summary.ByUser)...)
	records = append(records, groupRecords("by_model", summary.ByModel)...)
	records = append(records, groupRecords("by_feature", summary.ByFeature)...)

	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func groupRecords(section string, groups map[string]decimal.Decimal) [][]string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([][]string, 0, len(keys))
	for _, k := range keys {
		records = append(records, []string{section, k, groups[k].String(), "", ""})
	}
	return records
}
