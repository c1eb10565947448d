package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/scoring"
	appErrors "github.com/noah-isme/talent-assessment-api/pkg/errors"
)

type submissionFixture struct {
	svc         *SubmissionService
	store       *fakeResponseStore
	catalog     *fakeTestCatalog
	evaluations *fakeEvaluationRefresher
}

func newSubmissionFixture(t *testing.T, policy scoring.Policy, bands models.Bands, responses ...models.Response) submissionFixture {
	t.Helper()
	store := newFakeResponseStore(responses...)
	catalog := newFakeTestCatalog()
	catalog.add(leadershipTest(1, bands))
	evaluations := &fakeEvaluationRefresher{}
	svc := NewSubmissionService(SubmissionServiceParams{
		Responses:   store,
		Tests:       catalog,
		Evaluations: evaluations,
		Metrics:     NewMetricsService(),
		Logger:      zap.NewNop(),
		Policy:      policy,
		TokenTTL:    7 * 24 * time.Hour,
	})
	return submissionFixture{svc: svc, store: store, catalog: catalog, evaluations: evaluations}
}

func TestSubmitScoresAndCompletes(t *testing.T) {
	f := newSubmissionFixture(t, scoring.DefaultPolicy(), officialBands(), pendingResponse("tok", time.Now().Add(-time.Hour)))

	result, err := f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(1, 5, 3)})
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusCompleted, result.Status)
	assert.Empty(t, result.Missing)

	stored := f.store.get("tok")
	assert.Equal(t, models.ResponseStatusCompleted, stored.Status)
	require.NotNil(t, stored.Score)
	assert.Equal(t, 3.0, *stored.Score)
	assert.Equal(t, "Medium", *stored.BandLabel)
	assert.NotNil(t, stored.StartedAt)
	assert.Equal(t, []string{"eval-1"}, f.evaluations.calls)
}

func TestSubmitTwiceKeepsFirstResult(t *testing.T) {
	f := newSubmissionFixture(t, scoring.DefaultPolicy(), officialBands(), pendingResponse("tok", time.Now().Add(-time.Hour)))

	_, err := f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(5, 5, 5)})
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(1, 1, 1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrAlreadyCompleted)

	stored := f.store.get("tok")
	assert.Equal(t, 5.0, *stored.Score)
	assert.Equal(t, "High", *stored.BandLabel)
}

func TestSubmitLosingConditionalWriteIsAlreadyCompleted(t *testing.T) {
	f := newSubmissionFixture(t, scoring.DefaultPolicy(), officialBands(), pendingResponse("tok", time.Now().Add(-time.Hour)))

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(4, 4, 4)})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, appErrors.ErrAlreadyCompleted)
	}
	assert.Equal(t, 1, succeeded)
}

func TestSubmitNoMatchingBandLeavesResponseUntouched(t *testing.T) {
	gapped := models.Bands{
		{Label: "Low", Min: 1, Max: 2},
		{Label: "High", Min: 3, Max: 5},
	}
	resp := pendingResponse("tok", time.Now().Add(-time.Hour))
	resp.Status = models.ResponseStatusStarted
	f := newSubmissionFixture(t, scoring.DefaultPolicy(), gapped, resp)

	_, err := f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(2, 3, 2)})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNoMatchingBand)
	assert.Equal(t, 422, appErrors.FromError(err).Status)

	stored := f.store.get("tok")
	assert.Equal(t, models.ResponseStatusStarted, stored.Status)
	assert.Nil(t, stored.Score)
	assert.Nil(t, stored.Answers)
	assert.Empty(t, f.evaluations.calls)
}

func TestSubmitRepinsToRepairedBands(t *testing.T) {
	gapped := models.Bands{
		{Label: "Low", Min: 1, Max: 2},
		{Label: "High", Min: 3, Max: 5},
	}
	f := newSubmissionFixture(t, scoring.DefaultPolicy(), gapped, pendingResponse("tok", time.Now().Add(-time.Hour)))

	_, err := f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(2, 3, 2)})
	require.ErrorIs(t, err, appErrors.ErrNoMatchingBand)

	f.catalog.add(leadershipTest(2, officialBands()))

	_, err = f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(2, 3, 2)})
	require.NoError(t, err)
	stored := f.store.get("tok")
	assert.Equal(t, models.ResponseStatusCompleted, stored.Status)
	assert.Equal(t, "Low", *stored.BandLabel)
	assert.Equal(t, 2, stored.TestVersion)
}

func TestSubmitKeepsGapWhenQuestionsChanged(t *testing.T) {
	gapped := models.Bands{
		{Label: "Low", Min: 1, Max: 2},
		{Label: "High", Min: 3, Max: 5},
	}
	f := newSubmissionFixture(t, scoring.DefaultPolicy(), gapped, pendingResponse("tok", time.Now().Add(-time.Hour)))
	reworded := leadershipTest(2, officialBands())
	reworded.Questions[0].Text = "A different question"
	f.catalog.add(reworded)

	_, err := f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(2, 3, 2)})
	assert.ErrorIs(t, err, appErrors.ErrNoMatchingBand)
	stored := f.store.get("tok")
	assert.Equal(t, models.ResponseStatusPending, stored.Status)
	assert.Equal(t, 1, stored.TestVersion)
}

func TestSubmitRejectsOutOfScaleAnswer(t *testing.T) {
	f := newSubmissionFixture(t, scoring.DefaultPolicy(), officialBands(), pendingResponse("tok", time.Now().Add(-time.Hour)))

	_, err := f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(3, 6, 3)})
	assert.ErrorIs(t, err, appErrors.ErrInvalidAnswer)
	assert.Equal(t, models.ResponseStatusPending, f.store.get("tok").Status)
}

func TestSubmitLenientFillsNeutralAndReportsMissing(t *testing.T) {
	f := newSubmissionFixture(t, scoring.DefaultPolicy(), officialBands(), pendingResponse("tok", time.Now().Add(-time.Hour)))

	result, err := f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: []scoring.Answer{{QuestionID: "q1", Value: 5}}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"q2", "q3"}, result.Missing)

	stored := f.store.get("tok")
	assert.InDelta(t, 3.6667, *stored.Score, 1e-9)
	assert.Equal(t, "Medium", *stored.BandLabel)
	assert.Len(t, stored.Answers, 1)
}

func TestSubmitStrictRejectsIncompleteAnswers(t *testing.T) {
	policy := scoring.Policy{Mode: scoring.ModeStrict, NeutralValue: 3}
	f := newSubmissionFixture(t, policy, officialBands(), pendingResponse("tok", time.Now().Add(-time.Hour)))

	_, err := f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(4, 4)})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrIncompleteAnswers)
	assert.Equal(t, models.ResponseStatusPending, f.store.get("tok").Status)
}

func TestSubmitScoresAgainstPinnedVersion(t *testing.T) {
	f := newSubmissionFixture(t, scoring.DefaultPolicy(), officialBands(), pendingResponse("tok", time.Now().Add(-time.Hour)))
	f.catalog.add(leadershipTest(2, models.Bands{{Label: "Everything", Min: 1, Max: 5}}))

	_, err := f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(5, 4, 5)})
	require.NoError(t, err)
	assert.Equal(t, "High", *f.store.get("tok").BandLabel)
	assert.Equal(t, 1, f.store.get("tok").TestVersion)
}

func TestSubmitExpiredToken(t *testing.T) {
	f := newSubmissionFixture(t, scoring.DefaultPolicy(), officialBands(), pendingResponse("tok", time.Now().Add(-8*24*time.Hour)))

	_, err := f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(3, 3, 3)})
	assert.ErrorIs(t, err, appErrors.ErrTokenExpired)
}

func TestSubmitStorageFailureIsInternal(t *testing.T) {
	f := newSubmissionFixture(t, scoring.DefaultPolicy(), officialBands(), pendingResponse("tok", time.Now().Add(-time.Hour)))
	f.store.completeErr = errors.New("connection reset")

	_, err := f.svc.Submit(context.Background(), "tok", models.SubmitAnswersRequest{Answers: answers(3, 3, 3)})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.EqualError(t, errors.Unwrap(appErr), "connection reset")
}
