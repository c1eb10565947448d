package models

import (
	"database/sql/driver"
	"time"

	"github.com/noah-isme/talent-assessment-api/internal/scoring"
)

// Questions is an ordered question list persisted as JSONB.
type Questions []scoring.Question

// Value implements driver.Valuer.
func (q Questions) Value() (driver.Value, error) {
	if q == nil {
		q = Questions{}
	}
	return marshalJSONB([]scoring.Question(q), "questions")
}

// Scan implements sql.Scanner.
func (q *Questions) Scan(value interface{}) error {
	var out []scoring.Question
	if _, err := scanJSONB(value, &out, "questions"); err != nil {
		return err
	}
	*q = out
	return nil
}

// Bands is a band table persisted as JSONB.
type Bands scoring.BandTable

// Value implements driver.Valuer.
func (b Bands) Value() (driver.Value, error) {
	if b == nil {
		b = Bands{}
	}
	return marshalJSONB([]scoring.Band(b), "bands")
}

// Scan implements sql.Scanner.
func (b *Bands) Scan(value interface{}) error {
	var out []scoring.Band
	if _, err := scanJSONB(value, &out, "bands"); err != nil {
		return err
	}
	*b = out
	return nil
}

// Test is a psychometric test definition. Version increases on every update.
type Test struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Category    *string   `db:"category" json:"category,omitempty"`
	Questions   Questions `db:"questions" json:"questions"`
	Bands       Bands     `db:"bands" json:"bands"`
	Version     int       `db:"version" json:"version"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TestVersion is an immutable snapshot of a test used to score responses.
type TestVersion struct {
	TestID    string    `db:"test_id" json:"test_id"`
	Version   int       `db:"version" json:"version"`
	Name      string    `db:"name" json:"name"`
	Questions Questions `db:"questions" json:"questions"`
	Bands     Bands     `db:"bands" json:"bands"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Definition returns the scoring view of the snapshot.
func (v TestVersion) Definition() scoring.Definition {
	return scoring.Definition{Questions: []scoring.Question(v.Questions), Bands: scoring.BandTable(v.Bands)}
}

// TestFilter captures list filters for tests.
type TestFilter struct {
	Search   string
	Category string
	Active   *bool
	Page     int
	PageSize int
}

// CreateTestRequest is the payload for defining a test.
type CreateTestRequest struct {
	Code        string             `json:"code" validate:"required,max=64"`
	Name        string             `json:"name" validate:"required,max=160"`
	Description *string            `json:"description" validate:"omitempty,max=2000"`
	Category    *string            `json:"category" validate:"omitempty,max=80"`
	Questions   []scoring.Question `json:"questions" validate:"required,min=1,dive"`
	Bands       []scoring.Band     `json:"bands" validate:"required,min=1,dive"`
}

// UpdateTestRequest replaces a test definition and bumps its version.
type UpdateTestRequest struct {
	Name        *string            `json:"name" validate:"omitempty,max=160"`
	Description *string            `json:"description" validate:"omitempty,max=2000"`
	Category    *string            `json:"category" validate:"omitempty,max=80"`
	Questions   []scoring.Question `json:"questions" validate:"omitempty,min=1,dive"`
	Bands       []scoring.Band     `json:"bands" validate:"omitempty,min=1,dive"`
	Active      *bool              `json:"active"`
}
