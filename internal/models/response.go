package models

import (
	"database/sql/driver"
	"time"

	"github.com/noah-isme/talent-assessment-api/internal/scoring"
)

// ResponseStatus captures the response lifecycle: pending -> started -> completed.
type ResponseStatus string

const (
	ResponseStatusPending   ResponseStatus = "pending"
	ResponseStatusStarted   ResponseStatus = "started"
	ResponseStatusCompleted ResponseStatus = "completed"
)

// Answers is a submitted answer set persisted as JSONB; nil maps to NULL.
type Answers []scoring.Answer

// Value implements driver.Valuer.
func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return marshalJSONB([]scoring.Answer(a), "answers")
}

// Scan implements sql.Scanner.
func (a *Answers) Scan(value interface{}) error {
	var out []scoring.Answer
	ok, err := scanJSONB(value, &out, "answers")
	if err != nil {
		return err
	}
	if !ok {
		*a = nil
		return nil
	}
	*a = out
	return nil
}

// Response is one (test, collaborator) instance within an evaluation.
type Response struct {
	ID             string         `db:"id" json:"id"`
	EvaluationID   string         `db:"evaluation_id" json:"evaluation_id"`
	TestID         string         `db:"test_id" json:"test_id"`
	TestVersion    int            `db:"test_version" json:"test_version"`
	CollaboratorID *string        `db:"collaborator_id" json:"collaborator_id,omitempty"`
	AccessToken    string         `db:"access_token" json:"-"`
	Answers        Answers        `db:"answers" json:"answers,omitempty"`
	Score          *float64       `db:"score" json:"score,omitempty"`
	BandLabel      *string        `db:"band_label" json:"band_label,omitempty"`
	Status         ResponseStatus `db:"status" json:"status"`
	StartedAt      *time.Time     `db:"started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// ExpiresAt is when the access token stops being accepted.
func (r Response) ExpiresAt(ttl time.Duration) time.Time {
	return r.CreatedAt.Add(ttl)
}

// ResponseDetail joins a response with its test and collaborator names.
type ResponseDetail struct {
	Response
	TestName          string  `db:"test_name" json:"test_name"`
	CollaboratorName  *string `db:"collaborator_name" json:"collaborator_name,omitempty"`
	CollaboratorEmail *string `db:"collaborator_email" json:"collaborator_email,omitempty"`
}

// CompleteResponseParams carries the result written when a response completes.
type CompleteResponseParams struct {
	ID string
	// TestVersion is the version the result was scored against.
	TestVersion int
	Answers     Answers
	Score       float64
	BandLabel   string
	CompletedAt time.Time
}

// PublicAssessment is what a respondent sees after following a link. Bands are withheld.
type PublicAssessment struct {
	ResponseID       string             `json:"responseId"`
	Status           ResponseStatus     `json:"status"`
	TestName         string             `json:"testName"`
	TestDescription  *string            `json:"testDescription,omitempty"`
	CollaboratorName string             `json:"collaboratorName,omitempty"`
	Questions        []scoring.Question `json:"questions"`
	Scale            ScaleInfo          `json:"scale"`
	ExpiresAt        time.Time          `json:"expiresAt"`
	StartedAt        *time.Time         `json:"startedAt,omitempty"`
}

// ScaleInfo describes the Likert scale bounds.
type ScaleInfo struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// SubmitAnswersRequest is the public submission payload.
type SubmitAnswersRequest struct {
	Answers []scoring.Answer `json:"answers"`
}

// SubmissionResult is returned to the respondent after completing.
type SubmissionResult struct {
	ResponseID  string         `json:"responseId"`
	Status      ResponseStatus `json:"status"`
	CompletedAt time.Time      `json:"completedAt"`
	Missing     []string       `json:"-"`
}
