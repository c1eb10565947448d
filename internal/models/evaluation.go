package models

import "time"

// EvaluationStatus captures the evaluation lifecycle.
type EvaluationStatus string

const (
	EvaluationStatusDraft     EvaluationStatus = "draft"
	EvaluationStatusSent      EvaluationStatus = "sent"
	EvaluationStatusCompleted EvaluationStatus = "completed"
)

// Evaluation groups tests sent to a set of collaborators.
type Evaluation struct {
	ID              string           `db:"id" json:"id"`
	Name            string           `db:"name" json:"name"`
	Description     *string          `db:"description" json:"description,omitempty"`
	TestIDs         StringList       `db:"test_ids" json:"test_ids"`
	CollaboratorIDs StringList       `db:"collaborator_ids" json:"collaborator_ids"`
	Status          EvaluationStatus `db:"status" json:"status"`
	CreatedBy       *string          `db:"created_by" json:"created_by,omitempty"`
	SentAt          *time.Time       `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// EvaluationFilter captures list filters for evaluations.
type EvaluationFilter struct {
	Status   *EvaluationStatus
	Search   string
	Page     int
	PageSize int
}

// EvaluationSummary is an evaluation plus progress counters.
type EvaluationSummary struct {
	Evaluation
	TotalResponses     int `db:"total_responses" json:"total_responses"`
	CompletedResponses int `db:"completed_responses" json:"completed_responses"`
}

// EvaluationDetail is an evaluation with its response records.
type EvaluationDetail struct {
	Evaluation
	Responses []ResponseDetail `json:"responses"`
}

// CreateEvaluationRequest is the payload for creating an evaluation.
type CreateEvaluationRequest struct {
	Name            string   `json:"name" validate:"required,max=160"`
	Description     *string  `json:"description" validate:"omitempty,max=2000"`
	TestIDs         []string `json:"test_ids" validate:"required,min=1,dive,required"`
	CollaboratorIDs []string `json:"collaborator_ids" validate:"required,min=1,dive,required"`
	CreatedBy       string   `json:"-"`
}

// UpdateEvaluationRequest edits the descriptive fields of a draft evaluation.
type UpdateEvaluationRequest struct {
	Name        string  `json:"name" validate:"required,max=160"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// AssessmentLink is a public link for one response record.
type AssessmentLink struct {
	ResponseID        string         `json:"response_id"`
	TestID            string         `json:"test_id"`
	TestName          string         `json:"test_name"`
	CollaboratorID    *string        `json:"collaborator_id,omitempty"`
	CollaboratorName  string         `json:"collaborator_name,omitempty"`
	CollaboratorEmail string         `json:"collaborator_email,omitempty"`
	Status            ResponseStatus `json:"status"`
	URL               string         `json:"url"`
	ExpiresAt         time.Time      `json:"expires_at"`
}
