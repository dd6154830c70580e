package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cityofhelsinki/benefit-backend/internal/config"
	"github.com/cityofhelsinki/benefit-backend/internal/metrics"
	"github.com/cityofhelsinki/benefit-backend/internal/models"
	"github.com/cityofhelsinki/benefit-backend/internal/repositories"
)

// ExportService collects decided applications into a batch and uploads one
// decision document per application for the decision system to pick up.
type ExportService struct {
	repo     repositories.ApplicationRepository
	s3Client s3iface.S3API
	bucket   string
	prefix   string
}

type ExportResult struct {
	BatchID      uuid.UUID `json:"batch_id"`
	Applications int       `json:"applications"`
	Keys         []string  `json:"keys"`
}

// ExportDocument is the per-application payload of an export batch.
type ExportDocument struct {
	ApplicationID           uuid.UUID            `json:"application_id"`
	BatchID                 uuid.UUID            `json:"batch_id"`
	CompanyName             string               `json:"company_name"`
	CompanyForm             string               `json:"company_form"`
	OrganizationType        string               `json:"organization_type"`
	Decision                models.AhjoDecision  `json:"decision"`
	BenefitType             string               `json:"benefit_type"`
	StartDate               *string              `json:"start_date"`
	EndDate                 *string              `json:"end_date"`
	CalculatedBenefitAmount *string              `json:"calculated_benefit_amount"`
	Rows                    []CalculationRowView `json:"rows"`
	LogEntries              []LogEntryView       `json:"log_entries"`
	ExportedAt              time.Time            `json:"exported_at"`
}

func NewExportService(repo repositories.ApplicationRepository, cfg *config.Config) (*ExportService, error) {
	service := &ExportService{
		repo:   repo,
		bucket: cfg.AWS.S3Bucket,
		prefix: cfg.Export.Prefix,
	}
	if cfg.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return service, nil
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	}
	if cfg.AWS.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.AWS.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	service.s3Client = s3.New(sess)
	return service, nil
}

// NewExportServiceWithClient uses the given S3 client, nil to skip uploads.
func NewExportServiceWithClient(repo repositories.ApplicationRepository, client s3iface.S3API, bucket, prefix string) *ExportService {
	return &ExportService{repo: repo, s3Client: client, bucket: bucket, prefix: prefix}
}

// ExportDecided exports every accepted or rejected application that is not in
// a batch yet. Nothing is written when there is nothing to export.
func (s *ExportService) ExportDecided(ctx context.Context) (*ExportResult, error) {
	apps, err := s.repo.ListDecidedUnbatched(ctx)
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return &ExportResult{Keys: []string{}}, nil
	}

	batch := &models.ApplicationBatch{Status: models.ApplicationBatchStatusAhjoReportCreated}
	batch.ID = uuid.New()
	now := time.Now().UTC()

	ids := make([]uuid.UUID, 0, len(apps))
	keys := make([]string, 0, len(apps))
	for i := range apps {
		app := &apps[i]
		body, err := json.MarshalIndent(newExportDocument(app, batch.ID, now), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode export document: %w", err)
		}
		key := fmt.Sprintf("%s/%s/%s.json", s.prefix, batch.ID, app.ID)
		if err := s.upload(ctx, key, body); err != nil {
			return nil, err
		}
		ids = append(ids, app.ID)
		keys = append(keys, key)
	}

	batch.ExportedKeys = keys
	if err := s.repo.CreateBatch(ctx, batch, ids); err != nil {
		return nil, err
	}
	metrics.RecordExport(len(ids))

	logrus.WithFields(logrus.Fields{
		"batch_id":     batch.ID,
		"applications": len(ids),
	}).Info("Decided applications exported")

	return &ExportResult{BatchID: batch.ID, Applications: len(ids), Keys: keys}, nil
}

func (s *ExportService) upload(ctx context.Context, key string, body []byte) error {
	if s.s3Client == nil {
		// Local development - just log
		logrus.WithField("key", key).Info("Export document would be uploaded")
		return nil
	}
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func newExportDocument(app *models.Application, batchID uuid.UUID, exportedAt time.Time) ExportDocument {
	decision := models.AhjoDecisionRejected
	if app.Status == models.ApplicationStatusAccepted {
		decision = models.AhjoDecisionAccepted
	}

	view := NewHandlerApplicationView(app)
	doc := ExportDocument{
		ApplicationID:    app.ID,
		BatchID:          batchID,
		CompanyName:      app.CompanyName,
		CompanyForm:      app.CompanyForm,
		OrganizationType: string(app.OrganizationType),
		Decision:         decision,
		BenefitType:      string(app.BenefitType),
		StartDate:        view.StartDate,
		EndDate:          view.EndDate,
		Rows:             []CalculationRowView{},
		LogEntries:       view.LogEntries,
		ExportedAt:       exportedAt,
	}
	if view.Calculation != nil {
		amount := view.Calculation.CalculatedBenefitAmount
		doc.CalculatedBenefitAmount = &amount
		doc.Rows = view.Calculation.Rows
	}
	return doc
}
