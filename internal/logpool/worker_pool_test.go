package logpool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"llamabridge/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProcessor implements TaskProcessor for testing
type mockProcessor struct {
	writeCalls atomic.Int64
	mu         sync.Mutex
	records    []*models.RequestLog
	failUntil  int32
	calls      atomic.Int32
	errorMsg   string
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{errorMsg: "transient error: connection timeout"}
}

func (m *mockProcessor) WriteRecord(record *models.RequestLog) error {
	m.writeCalls.Add(1)
	count := m.calls.Add(1)
	if count <= m.failUntil {
		return errors.New(m.errorMsg)
	}

	m.mu.Lock()
	m.records = append(m.records, record)
	m.mu.Unlock()
	return nil
}

func (m *mockProcessor) writtenRecords() []*models.RequestLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.RequestLog, len(m.records))
	copy(out, m.records)
	return out
}

func testRecord(op string) *models.RequestLog {
	return &models.RequestLog{Operation: op, StatusCode: 200}
}

func TestNewWorkerPool_DefaultConfig(t *testing.T) {
	wp := NewWorkerPool(DefaultWorkerPoolConfig(), newMockProcessor(), nil)

	assert.NotNil(t, wp)
	assert.Equal(t, 2, wp.config.WorkerCount)
	assert.Equal(t, 8192, wp.config.QueueCapacity)
	assert.Equal(t, 3, wp.config.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, wp.config.RetryBaseDelay)
}

func TestNewWorkerPool_InvalidConfig_UsesDefaults(t *testing.T) {
	wp := NewWorkerPool(WorkerPoolConfig{
		WorkerCount:    -1,
		QueueCapacity:  0,
		MaxRetries:     -1,
		RetryBaseDelay: 0,
	}, newMockProcessor(), nil)

	assert.Equal(t, 2, wp.config.WorkerCount)
	assert.Equal(t, 8192, wp.config.QueueCapacity)
	assert.Equal(t, 3, wp.config.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, wp.config.RetryBaseDelay)
}

func TestWorkerPool_StartAndStop(t *testing.T) {
	wp := NewWorkerPool(WorkerPoolConfig{WorkerCount: 2, QueueCapacity: 100}, newMockProcessor(), nil)

	assert.False(t, wp.IsRunning())

	wp.Start()
	assert.True(t, wp.IsRunning())

	wp.Stop()
	assert.False(t, wp.IsRunning())
}

func TestWorkerPool_SubmitTask(t *testing.T) {
	processor := newMockProcessor()
	logger := logrus.NewEntry(logrus.StandardLogger())

	wp := NewWorkerPool(WorkerPoolConfig{WorkerCount: 2, QueueCapacity: 100}, processor, logger)
	wp.Start()

	ok := wp.Submit(&WriteTask{Record: testRecord(models.OperationChatCompletion)})
	assert.True(t, ok)

	wp.Stop()

	assert.Equal(t, int64(1), processor.writeCalls.Load())
	require.Len(t, processor.writtenRecords(), 1)
	assert.Equal(t, models.OperationChatCompletion, processor.writtenRecords()[0].Operation)
}

func TestWorkerPool_SubmitWhenNotRunning(t *testing.T) {
	wp := NewWorkerPool(DefaultWorkerPoolConfig(), newMockProcessor(), nil)

	ok := wp.Submit(&WriteTask{Record: testRecord(models.OperationEmbeddings)})
	assert.False(t, ok)
}

func TestWorkerPool_SubmitNilTask(t *testing.T) {
	wp := NewWorkerPool(DefaultWorkerPoolConfig(), newMockProcessor(), nil)
	wp.Start()
	defer wp.Stop()

	assert.False(t, wp.Submit(nil))
	assert.False(t, wp.Submit(&WriteTask{}))
}

func TestWorkerPool_QueueFull_WritesSynchronously(t *testing.T) {
	processor := newMockProcessor()
	wp := NewWorkerPool(WorkerPoolConfig{WorkerCount: 1, QueueCapacity: 2}, processor, nil)
	wp.Start()

	taskCount := 10
	for i := 0; i < taskCount; i++ {
		ok := wp.Submit(&WriteTask{Record: testRecord(models.OperationChatCompletion)})
		assert.True(t, ok, "Submit should always succeed, queued or synchronous")
	}

	wp.Stop()

	metrics := wp.GetMetrics()
	assert.Equal(t, int64(0), metrics.DroppedCount)
	assert.Equal(t, int64(taskCount), metrics.ProcessedCount)
}

func TestWorkerPool_GracefulShutdown_DrainsPendingTasks(t *testing.T) {
	processor := newMockProcessor()
	wp := NewWorkerPool(WorkerPoolConfig{WorkerCount: 1, QueueCapacity: 100}, processor, nil)
	wp.Start()

	taskCount := 20
	for i := 0; i < taskCount; i++ {
		wp.Submit(&WriteTask{Record: testRecord(models.OperationModelList)})
	}

	wp.Stop()

	metrics := wp.GetMetrics()
	assert.Equal(t, int64(taskCount), metrics.ProcessedCount)
	assert.Equal(t, int64(taskCount), processor.writeCalls.Load())
}

func TestWorkerPool_DoubleStart_NoOp(t *testing.T) {
	wp := NewWorkerPool(DefaultWorkerPoolConfig(), newMockProcessor(), nil)

	wp.Start()
	wp.Start()
	assert.True(t, wp.IsRunning())

	wp.Stop()
}

func TestWorkerPool_DoubleStop_NoOp(t *testing.T) {
	wp := NewWorkerPool(DefaultWorkerPoolConfig(), newMockProcessor(), nil)
	wp.Start()

	wp.Stop()
	wp.Stop()
	assert.False(t, wp.IsRunning())
}

func TestWorkerPool_ConcurrentSubmit(t *testing.T) {
	processor := newMockProcessor()
	wp := NewWorkerPool(WorkerPoolConfig{WorkerCount: 4, QueueCapacity: 1000}, processor, nil)
	wp.Start()

	var wg sync.WaitGroup
	taskCount := 100
	for i := 0; i < taskCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wp.Submit(&WriteTask{Record: testRecord(models.OperationChatCompletion)})
		}()
	}

	wg.Wait()
	wp.Stop()

	metrics := wp.GetMetrics()
	require.Equal(t, int64(taskCount), metrics.ProcessedCount)
}

func TestRetry_TransientErrorRetries(t *testing.T) {
	// Fails twice, succeeds on the third attempt.
	processor := newMockProcessor()
	processor.failUntil = 2

	wp := NewWorkerPool(WorkerPoolConfig{
		WorkerCount:    1,
		QueueCapacity:  10,
		MaxRetries:     3,
		RetryBaseDelay: 10 * time.Millisecond,
	}, processor, nil)
	wp.Start()

	wp.Submit(&WriteTask{Record: testRecord(models.OperationChatCompletion)})
	wp.Stop()

	assert.Equal(t, int64(3), processor.writeCalls.Load())

	metrics := wp.GetMetrics()
	assert.Equal(t, int64(1), metrics.ProcessedCount)
	assert.Equal(t, int64(0), metrics.ErrorCount)
}

func TestRetry_PermanentErrorNoRetry(t *testing.T) {
	processor := newMockProcessor()
	processor.failUntil = 100
	processor.errorMsg = "UNIQUE constraint failed: request_logs.id"

	wp := NewWorkerPool(WorkerPoolConfig{
		WorkerCount:    1,
		QueueCapacity:  10,
		MaxRetries:     3,
		RetryBaseDelay: 10 * time.Millisecond,
	}, processor, nil)
	wp.Start()

	wp.Submit(&WriteTask{Record: testRecord(models.OperationChatCompletion)})
	wp.Stop()

	assert.Equal(t, int64(1), processor.writeCalls.Load())

	metrics := wp.GetMetrics()
	assert.Equal(t, int64(1), metrics.ProcessedCount)
	assert.Equal(t, int64(1), metrics.ErrorCount)
}

func TestRetry_ExhaustedRetriesCountsError(t *testing.T) {
	processor := newMockProcessor()
	processor.failUntil = 100

	wp := NewWorkerPool(WorkerPoolConfig{
		WorkerCount:    1,
		QueueCapacity:  10,
		MaxRetries:     2,
		RetryBaseDelay: 5 * time.Millisecond,
	}, processor, nil)
	wp.Start()

	wp.Submit(&WriteTask{Record: testRecord(models.OperationChatCompletion)})
	wp.Stop()

	// Initial attempt plus two retries.
	assert.Equal(t, int64(3), processor.writeCalls.Load())

	metrics := wp.GetMetrics()
	assert.Equal(t, int64(1), metrics.ErrorCount)
}

func TestIsPermanentError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"sqlite unique", errors.New("UNIQUE constraint failed: request_logs.id"), true},
		{"mysql duplicate", errors.New("Error 1062: Duplicate entry"), true},
		{"postgres duplicate", errors.New("duplicate key value violates unique constraint"), true},
		{"nil record", errors.New("record is nil"), true},
		{"transient", errors.New("connection timeout"), false},
		{"locked", errors.New("database is locked"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isPermanentError(tt.err))
		})
	}
}
