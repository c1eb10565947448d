package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/repository"
	"github.com/noah-isme/talent-assessment-api/pkg/export"
	"github.com/noah-isme/talent-assessment-api/pkg/storage"
)

type reportRowSource interface {
	ListReportRows(ctx context.Context, filter repository.ReportFilter) ([]models.ReportRow, error)
}

type reportTestReader interface {
	FindByID(ctx context.Context, id string) (*models.Test, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Test, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(table export.Table) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
	Rows         int
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Rows        reportRowSource
	Evaluations evaluationFinder
	Tests       reportTestReader
	Storage     fileStorage
	Signer      *storage.SignedURLSigner
	CSV         csvRenderer
	PDF         pdfRenderer
	Logger      *zap.Logger
	Config      ExportConfig
}

// ExportService renders response reports and stores them behind signed URLs.
type ExportService struct {
	rows        reportRowSource
	evaluations evaluationFinder
	tests       reportTestReader
	storage     fileStorage
	signer      *storage.SignedURLSigner
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
	cfg         ExportConfig
	now         func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	cfg := params.Config
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	csv := params.CSV
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		rows:        params.Rows,
		evaluations: params.Evaluations,
		tests:       params.Tests,
		storage:     params.Storage,
		signer:      params.Signer,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Generate builds the table for job, renders it and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("report job is nil")
	}
	table, err := s.buildTable(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(table)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(table)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Sign(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", s.cfg.APIPrefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
		Rows:         len(table.Rows),
	}, nil
}

// ParseToken verifies a download token. Expired tokens are accepted when
// allowExpired is set so cleanup can still locate their files.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.SignedObject, error) {
	obj, err := s.signer.Verify(token)
	if err != nil && !(allowExpired && errors.Is(err, storage.ErrSignatureExpired)) {
		return storage.SignedObject{}, err
	}
	return obj, nil
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, or the configured result TTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	scope := job.Params.EvaluationID
	if job.Type == models.ReportTypeTest {
		scope = job.Params.TestID
	}
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", job.Type, sanitizeFilename(scope), timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

var reportColumns = []export.Column{
	{Key: "collaborator", Title: "Collaborator", Width: 1.6},
	{Key: "email", Title: "Email", Width: 1.8},
	{Key: "department", Title: "Department", Width: 1.2},
	{Key: "test", Title: "Test", Width: 1.4},
	{Key: "status", Title: "Status"},
	{Key: "score", Title: "Score", Width: 0.7},
	{Key: "band", Title: "Band"},
	{Key: "completed_at", Title: "Completed At", Width: 1.3},
}

func (s *ExportService) buildTable(ctx context.Context, job *models.ReportJob) (export.Table, error) {
	var (
		title  string
		filter repository.ReportFilter
		tests  []models.Test
	)
	switch job.Type {
	case models.ReportTypeEvaluation:
		eval, err := s.evaluations.FindByID(ctx, job.Params.EvaluationID)
		if err != nil {
			return export.Table{}, fmt.Errorf("load evaluation %s: %w", job.Params.EvaluationID, err)
		}
		title = "Evaluation report: " + eval.Name
		filter = repository.ReportFilter{EvaluationID: eval.ID}
		tests, err = s.tests.FindByIDs(ctx, []string(eval.TestIDs))
		if err != nil {
			return export.Table{}, fmt.Errorf("load evaluation tests: %w", err)
		}
	case models.ReportTypeTest:
		test, err := s.tests.FindByID(ctx, job.Params.TestID)
		if err != nil {
			return export.Table{}, fmt.Errorf("load test %s: %w", job.Params.TestID, err)
		}
		title = "Test report: " + test.Name
		filter = repository.ReportFilter{TestID: test.ID, CompletedOnly: true}
		tests = []models.Test{*test}
	default:
		return export.Table{}, fmt.Errorf("unsupported report type %s", job.Type)
	}

	rows, err := s.rows.ListReportRows(ctx, filter)
	if err != nil {
		return export.Table{}, err
	}

	colors := bandColors(tests)
	table := export.Table{
		Title:   title,
		Columns: reportColumns,
		Rows:    make([]map[string]string, 0, len(rows)),
		RowFill: func(row map[string]string) (string, string) {
			return "band", colors[row["band"]]
		},
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, reportRecord(row))
	}
	return table, nil
}

func reportRecord(row models.ReportRow) map[string]string {
	record := map[string]string{
		"collaborator": derefString(row.CollaboratorName),
		"email":        derefString(row.CollaboratorEmail),
		"department":   derefString(row.Department),
		"test":         row.TestName,
		"status":       string(row.Status),
		"band":         derefString(row.BandLabel),
	}
	if row.Score != nil {
		record["score"] = fmt.Sprintf("%.2f", *row.Score)
	}
	if row.CompletedAt != nil {
		record["completed_at"] = row.CompletedAt.UTC().Format("2006-01-02 15:04")
	}
	return record
}

// bandColors maps band labels to their display colour; the first test
// declaring a label decides its colour.
func bandColors(tests []models.Test) map[string]string {
	colors := make(map[string]string)
	for _, test := range tests {
		for _, band := range test.Bands {
			if _, ok := colors[band.Label]; !ok && band.Color != "" {
				colors[band.Label] = band.Color
			}
		}
	}
	return colors
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
