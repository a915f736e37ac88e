package contract

import (
	"context"
	"io"
	"iter"
	"time"

	"github.com/bitergia/grimoirelab-metrics/schema"
	"github.com/stretchr/testify/mock"
)

// MockEventSource is a mock implementation of EventSource for testing.
// The first return value is the []schema.Event slice yielded before the
// optional error.
type MockEventSource struct {
	mock.Mock
}

var _ EventSource = &MockEventSource{} // Compile-time check

// Events implements the EventSource interface.
func (m *MockEventSource) Events(ctx context.Context, q EventQuery) iter.Seq2[schema.Event, error] {
	ret := m.Called(ctx, q)
	events, _ := ret.Get(0).([]schema.Event)
	err := ret.Error(1)
	return func(yield func(schema.Event, error) bool) {
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
		if err != nil {
			yield(schema.Event{}, err)
		}
	}
}

// MockTaskService is a mock implementation of TaskService for testing.
type MockTaskService struct {
	mock.Mock
}

var _ TaskService = &MockTaskService{} // Compile-time check

// ScheduleRepository implements the TaskService interface.
func (m *MockTaskService) ScheduleRepository(ctx context.Context, uri, datasource, category string) error {
	args := m.Called(ctx, uri, datasource, category)
	return args.Error(0)
}

// RepositoryTask implements the TaskService interface.
func (m *MockTaskService) RepositoryTask(ctx context.Context, uri string) (*schema.Task, error) {
	args := m.Called(ctx, uri)
	task, _ := args.Get(0).(*schema.Task)
	return task, args.Error(1)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// RecordPackageMetrics implements the RunStore interface.
func (m *MockRunStore) RecordPackageMetrics(runID int64, packageID, repository string, metrics *schema.RepositoryMetrics) error {
	args := m.Called(runID, packageID, repository, metrics)
	return args.Error(0)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endTime time.Time, summary schema.RunSummary) error {
	args := m.Called(runID, endTime, summary)
	return args.Error(0)
}

// ListRuns implements the RunStore interface.
func (m *MockRunStore) ListRuns(limit int) ([]schema.RunRecord, error) {
	args := m.Called(limit)
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllPackageMetrics implements the RunStore interface.
func (m *MockRunStore) GetAllPackageMetrics() ([]schema.PackageMetricsRecord, error) {
	args := m.Called()
	rows, _ := args.Get(0).([]schema.PackageMetricsRecord)
	return rows, args.Error(1)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSecretStore is a mock implementation of SecretStore for testing.
type MockSecretStore struct {
	mock.Mock
}

var _ SecretStore = &MockSecretStore{} // Compile-time check

// GetSecret implements the SecretStore interface.
func (m *MockSecretStore) GetSecret(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

// MockObjectStore is a mock implementation of ObjectStore for testing.
type MockObjectStore struct {
	mock.Mock
}

var _ ObjectStore = &MockObjectStore{} // Compile-time check

// Put implements the ObjectStore interface. The body is read fully so tests
// can match on its content.
func (m *MockObjectStore) Put(ctx context.Context, uri string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	args := m.Called(ctx, uri, string(data), contentType)
	return args.Error(0)
}
