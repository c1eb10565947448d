package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/noah-isme/talent-assessment-api/internal/models"
	"github.com/noah-isme/talent-assessment-api/internal/scoring"
)

// fakeResponseStore keeps responses in memory and applies the same
// conditional transitions as the SQL repository.
type fakeResponseStore struct {
	mu           sync.Mutex
	byToken      map[string]*models.Response
	forceNoStart bool
	markCalls    int
	completeErr  error
}

func newFakeResponseStore(responses ...models.Response) *fakeResponseStore {
	store := &fakeResponseStore{byToken: make(map[string]*models.Response)}
	for i := range responses {
		resp := responses[i]
		store.byToken[resp.AccessToken] = &resp
	}
	return store
}

func (f *fakeResponseStore) FindByToken(ctx context.Context, token string) (*models.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp, ok := f.byToken[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *resp
	return &copy, nil
}

func (f *fakeResponseStore) MarkStarted(ctx context.Context, id string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	resp := f.find(id)
	if resp == nil || resp.Status != models.ResponseStatusPending {
		return false, nil
	}
	if f.forceNoStart {
		// Simulates a concurrent request that won the transition first.
		earlier := now.Add(-time.Second)
		resp.Status = models.ResponseStatusStarted
		resp.StartedAt = &earlier
		return false, nil
	}
	resp.Status = models.ResponseStatusStarted
	resp.StartedAt = &now
	return true, nil
}

func (f *fakeResponseStore) Complete(ctx context.Context, params models.CompleteResponseParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return false, f.completeErr
	}
	resp := f.find(params.ID)
	if resp == nil || resp.Status == models.ResponseStatusCompleted {
		return false, nil
	}
	score := params.Score
	band := params.BandLabel
	completedAt := params.CompletedAt
	resp.Answers = params.Answers
	resp.TestVersion = params.TestVersion
	resp.Score = &score
	resp.BandLabel = &band
	resp.Status = models.ResponseStatusCompleted
	resp.CompletedAt = &completedAt
	if resp.StartedAt == nil {
		resp.StartedAt = &completedAt
	}
	return true, nil
}

func (f *fakeResponseStore) get(token string) models.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byToken[token]
}

func (f *fakeResponseStore) find(id string) *models.Response {
	for _, resp := range f.byToken {
		if resp.ID == id {
			return resp
		}
	}
	return nil
}

type fakeTestCatalog struct {
	tests    map[string]*models.Test
	versions map[string]map[int]*models.TestVersion
}

func newFakeTestCatalog() *fakeTestCatalog {
	return &fakeTestCatalog{tests: map[string]*models.Test{}, versions: map[string]map[int]*models.TestVersion{}}
}

func (f *fakeTestCatalog) add(test models.Test) {
	copy := test
	f.tests[test.ID] = &copy
	if f.versions[test.ID] == nil {
		f.versions[test.ID] = map[int]*models.TestVersion{}
	}
	f.versions[test.ID][test.Version] = &models.TestVersion{
		TestID:    test.ID,
		Version:   test.Version,
		Name:      test.Name,
		Questions: test.Questions,
		Bands:     test.Bands,
	}
}

func (f *fakeTestCatalog) FindByID(ctx context.Context, id string) (*models.Test, error) {
	test, ok := f.tests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *test
	return &copy, nil
}

func (f *fakeTestCatalog) FindByIDs(ctx context.Context, ids []string) ([]models.Test, error) {
	var out []models.Test
	for _, id := range ids {
		if test, ok := f.tests[id]; ok {
			out = append(out, *test)
		}
	}
	return out, nil
}

func (f *fakeTestCatalog) FindVersion(ctx context.Context, testID string, version int) (*models.TestVersion, error) {
	snapshot, ok := f.versions[testID][version]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *snapshot
	return &copy, nil
}

type fakeCollaboratorDirectory struct {
	items map[string]models.Collaborator
}

func (f *fakeCollaboratorDirectory) FindByID(ctx context.Context, id string) (*models.Collaborator, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (f *fakeCollaboratorDirectory) FindByIDs(ctx context.Context, ids []string) ([]models.Collaborator, error) {
	var out []models.Collaborator
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeEvaluationRefresher struct {
	mu    sync.Mutex
	calls []string
	done  bool
}

func (f *fakeEvaluationRefresher) RefreshStatus(ctx context.Context, id string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	return f.done, nil
}

func officialBands() models.Bands {
	return models.Bands{
		{Label: "Low", Min: 1, Max: 2.5},
		{Label: "Medium", Min: 2.5, Max: 3.7},
		{Label: "High", Min: 3.7, Max: 5},
	}
}

func leadershipTest(version int, bands models.Bands) models.Test {
	return models.Test{
		ID:      "test-lead",
		Code:    "LEAD",
		Name:    "Leadership",
		Version: version,
		Active:  true,
		Questions: models.Questions{
			{ID: "q3", Text: "Gives feedback", Order: 3},
			{ID: "q1", Text: "Delegates tasks", Order: 1},
			{ID: "q2", Text: "Sets goals", Order: 2},
		},
		Bands: bands,
	}
}

func pendingResponse(token string, createdAt time.Time) models.Response {
	collaboratorID := "collab-1"
	return models.Response{
		ID:             "resp-" + token,
		EvaluationID:   "eval-1",
		TestID:         "test-lead",
		TestVersion:    1,
		CollaboratorID: &collaboratorID,
		AccessToken:    token,
		Status:         models.ResponseStatusPending,
		CreatedAt:      createdAt,
	}
}

func answers(values ...int) []scoring.Answer {
	out := make([]scoring.Answer, len(values))
	for i, v := range values {
		out[i] = scoring.Answer{QuestionID: "q" + string(rune('1'+i)), Value: v}
	}
	return out
}
