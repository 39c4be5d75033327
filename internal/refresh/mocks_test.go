package refresh

import (
	"context"

	"github.com/Taichi-iskw/audiorefresh/internal/model"
	"github.com/Taichi-iskw/audiorefresh/internal/notify"
	"github.com/Taichi-iskw/audiorefresh/internal/service/jobstatus"
	"github.com/stretchr/testify/mock"
)

type mockStatusClient struct {
	mock.Mock
}

func (m *mockStatusClient) QueryStatus(ctx context.Context, jobID string) (*jobstatus.Status, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobstatus.Status), args.Error(1)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockTranscriptStore struct {
	mock.Mock
}

func (m *mockTranscriptStore) Store(ctx context.Context, content string) (string, error) {
	args := m.Called(ctx, content)
	return args.String(0), args.Error(1)
}

type mockRecordStore struct {
	mock.Mock
}

func (m *mockRecordStore) Load(ctx context.Context, id string) (*model.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Record), args.Error(1)
}

func (m *mockRecordStore) Save(ctx context.Context, record *model.Record) error {
	return m.Called(ctx, record).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event notify.Event) error {
	return m.Called(ctx, event).Error(0)
}

// stubEngine returns scripted outcomes keyed by language
type stubEngine struct {
	outcomes map[string]model.RefreshOutcome
	errs     map[string]error
	calls    []string
}

func (s *stubEngine) Refresh(_ context.Context, t *model.Translation, kind model.JobKind) (model.RefreshOutcome, error) {
	s.calls = append(s.calls, t.Language)
	if err := s.errs[t.Language]; err != nil {
		return model.RefreshOutcome{}, err
	}
	outcome := s.outcomes[t.Language]
	if outcome.ResultApplied && kind == model.JobKindCleaning {
		t.ApplyCleaningResult("clean/"+t.Language+".wav", 1)
	} else if outcome.Mutated {
		t.ClearJob(kind)
	}
	return outcome, nil
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
