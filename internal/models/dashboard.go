package models

import (
	"time"

	"github.com/noah-isme/talent-assessment-api/internal/scoring"
)

// DashboardTotals holds headline counters.
type DashboardTotals struct {
	Collaborators int `db:"collaborators" json:"collaborators"`
	Tests         int `db:"tests" json:"tests"`
	Evaluations   int `db:"evaluations" json:"evaluations"`
	Responses     int `db:"responses" json:"responses"`
}

// StatusCount is the number of responses in a given status.
type StatusCount struct {
	Status ResponseStatus `db:"status" json:"status"`
	Count  int            `db:"count" json:"count"`
}

// TestScoreSummary aggregates completed responses of a test.
type TestScoreSummary struct {
	TestID       string  `db:"test_id" json:"test_id"`
	TestName     string  `db:"test_name" json:"test_name"`
	Completed    int     `db:"completed" json:"completed"`
	AverageScore float64 `db:"average_score" json:"average_score"`
}

// BandCount is the number of completed responses classified into a band.
type BandCount struct {
	TestID    string `db:"test_id" json:"test_id"`
	BandLabel string `db:"band_label" json:"band_label"`
	Count     int    `db:"count" json:"count"`
}

// BandIssue flags a test whose bands leave part of the scale uncovered.
type BandIssue struct {
	TestID   string        `json:"test_id"`
	TestName string        `json:"test_name"`
	Gaps     []scoring.Gap `json:"gaps"`
}

// TestDistribution is a per-test summary with its band counts.
type TestDistribution struct {
	TestScoreSummary
	Bands []BandCount `json:"bands"`
}

// RecentCompletion is a recently completed response.
type RecentCompletion struct {
	ResponseID       string    `db:"response_id" json:"response_id"`
	CollaboratorName *string   `db:"collaborator_name" json:"collaborator_name,omitempty"`
	TestName         string    `db:"test_name" json:"test_name"`
	Score            float64   `db:"score" json:"score"`
	BandLabel        string    `db:"band_label" json:"band_label"`
	CompletedAt      time.Time `db:"completed_at" json:"completed_at"`
}

// Dashboard is the aggregated admin overview.
type Dashboard struct {
	Totals          DashboardTotals    `json:"totals"`
	ResponseStatus  []StatusCount      `json:"response_status"`
	CompletionRate  float64            `json:"completion_rate"`
	Tests           []TestDistribution `json:"tests"`
	RecentCompleted []RecentCompletion `json:"recent_completed"`
	BandIssues      []BandIssue        `json:"band_issues"`
	GeneratedAt     time.Time          `json:"generated_at"`
}
