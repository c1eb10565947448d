package models

import (
	"database/sql/driver"
	"time"
)

// ReportType enumerates supported asynchronous report categories.
type ReportType string

const (
	// ReportTypeEvaluation lists every response of one evaluation.
	ReportTypeEvaluation ReportType = "evaluation"
	// ReportTypeTest lists completed responses of one test across evaluations.
	ReportTypeTest ReportType = "test"
)

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportStatus captures background job lifecycle states.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportJob persisted background job metadata.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ReportJobParams stores request-scoped options persisted as JSONB.
type ReportJobParams struct {
	EvaluationID string       `json:"evaluationId,omitempty"`
	TestID       string       `json:"testId,omitempty"`
	Format       ReportFormat `json:"format"`
}

// Value marshals params to JSON for persistence.
func (p ReportJobParams) Value() (driver.Value, error) {
	return marshalJSONB(p, "report job params")
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ReportJobParams) Scan(value interface{}) error {
	var out ReportJobParams
	if _, err := scanJSONB(value, &out, "report job params"); err != nil {
		return err
	}
	*p = out
	return nil
}

// CreateReportRequest is the payload for requesting a report export.
type CreateReportRequest struct {
	Type         ReportType   `json:"type" validate:"required,oneof=evaluation test"`
	EvaluationID string       `json:"evaluationId" validate:"required_if=Type evaluation"`
	TestID       string       `json:"testId" validate:"required_if=Type test"`
	Format       ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	CreatedBy    string       `json:"-"`
}

// ReportRow is one exported line.
type ReportRow struct {
	ResponseID        string         `db:"response_id"`
	EvaluationName    string         `db:"evaluation_name"`
	CollaboratorName  *string        `db:"collaborator_name"`
	CollaboratorEmail *string        `db:"collaborator_email"`
	Department        *string        `db:"department"`
	TestName          string         `db:"test_name"`
	Status            ResponseStatus `db:"status"`
	Score             *float64       `db:"score"`
	BandLabel         *string        `db:"band_label"`
	CompletedAt       *time.Time     `db:"completed_at"`
}
