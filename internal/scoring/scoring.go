package scoring

import (
	"fmt"
	"math"
	"strings"

	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

// Answer policy modes.
const (
	ModeLenient = "lenient"
	ModeStrict  = "strict"
)

// DefaultNeutralValue is the Likert midpoint used to fill missing answers.
const DefaultNeutralValue = 3

// Question is one Likert item of a test.
type Question struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// Answer is a respondent's value for one question.
type Answer struct {
	QuestionID string `json:"questionId"`
	Value      int    `json:"value"`
}

// Policy decides how unanswered questions are treated.
type Policy struct {
	Mode         string
	NeutralValue int
}

// DefaultPolicy fills missing answers with the neutral value.
func DefaultPolicy() Policy {
	return Policy{Mode: ModeLenient, NeutralValue: DefaultNeutralValue}
}

func (p Policy) neutral() int {
	if p.NeutralValue < MinValue || p.NeutralValue > MaxValue {
		return DefaultNeutralValue
	}
	return p.NeutralValue
}

// Outcome is a computed score plus the question ids filled with the neutral value.
type Outcome struct {
	Score   float64
	Missing []string
}

// Definition is the scoring-relevant part of a test version.
type Definition struct {
	Questions []Question
	Bands     BandTable
}

// Result is a scored and classified submission.
type Result struct {
	Score     float64  `json:"score"`
	BandLabel string   `json:"bandLabel"`
	Missing   []string `json:"missing,omitempty"`
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// Round4 rounds to the precision persisted for scores.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// ValidateQuestions checks that a test has at least one question and unique ids.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one question is required")
	}
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		id := strings.TrimSpace(q.ID)
		if id == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %d has an empty id", i+1))
		}
		if strings.TrimSpace(q.Text) == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %q has an empty text", id))
		}
		if _, dup := seen[id]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question id %q is duplicated", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Score averages one value per question. Answers may arrive in any order.
func Score(questions []Question, answers []Answer, policy Policy) (Outcome, error) {
	if len(questions) == 0 {
		return Outcome{}, appErrors.Clone(appErrors.ErrInvalidAnswer, "test has no questions")
	}

	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}

	given := make(map[string]int, len(answers))
	for _, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			return Outcome{}, appErrors.Clone(appErrors.ErrInvalidAnswer, fmt.Sprintf("unknown question %q", a.QuestionID))
		}
		if _, dup := given[a.QuestionID]; dup {
			return Outcome{}, appErrors.Clone(appErrors.ErrInvalidAnswer, fmt.Sprintf("question %q answered more than once", a.QuestionID))
		}
		if a.Value < MinValue || a.Value > MaxValue {
			return Outcome{}, appErrors.Clone(appErrors.ErrInvalidAnswer, fmt.Sprintf("answer for %q must be between %d and %d", a.QuestionID, MinValue, MaxValue))
		}
		given[a.QuestionID] = a.Value
	}

	values := make([]int, 0, len(questions))
	var missing []string
	for _, q := range questions {
		v, ok := given[q.ID]
		if !ok {
			missing = append(missing, q.ID)
			v = policy.neutral()
		}
		values = append(values, v)
	}

	if len(missing) > 0 && policy.Mode == ModeStrict {
		return Outcome{}, appErrors.Clone(appErrors.ErrIncompleteAnswers, "missing answers for: "+strings.Join(missing, ", "))
	}

	return Outcome{Score: Round4(Mean(values)), Missing: missing}, nil
}

// Evaluate scores answers against def and classifies the score.
func Evaluate(def Definition, answers []Answer, policy Policy) (Result, error) {
	outcome, err := Score(def.Questions, answers, policy)
	if err != nil {
		return Result{}, err
	}
	label, err := Classify(outcome.Score, def.Bands)
	if err != nil {
		return Result{}, err
	}
	return Result{Score: outcome.Score, BandLabel: label, Missing: outcome.Missing}, nil
}
