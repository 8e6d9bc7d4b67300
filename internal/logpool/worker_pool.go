// Package logpool persists request log records off the request path. A
// fixed set of workers drains a bounded queue; when the queue fills, the
// submitting goroutine writes the record itself so no log entry is lost.
package logpool

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"llamabridge/internal/models"

	"github.com/sirupsen/logrus"
)

// WriteTask carries one request log record to the workers.
type WriteTask struct {
	Record     *models.RequestLog
	EnqueuedAt time.Time
}

// WorkerPoolConfig holds configuration for the worker pool
type WorkerPoolConfig struct {
	WorkerCount    int           // Number of worker goroutines (default: 2)
	QueueCapacity  int           // Task queue capacity (default: 8192)
	MaxRetries     int           // Max retry attempts for transient errors (default: 3)
	RetryBaseDelay time.Duration // Base delay for exponential backoff (default: 100ms)
}

// DefaultWorkerPoolConfig returns default configuration
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount:    2,
		QueueCapacity:  8192,
		MaxRetries:     3,
		RetryBaseDelay: 100 * time.Millisecond,
	}
}

// WorkerPoolMetrics holds metrics for monitoring
type WorkerPoolMetrics struct {
	QueueLength    int64
	ProcessedCount int64
	ErrorCount     int64
	DroppedCount   int64
}

// TaskProcessor persists one request log record.
type TaskProcessor interface {
	WriteRecord(record *models.RequestLog) error
}

// WorkerPool manages a fixed number of workers writing request log records
type WorkerPool struct {
	config    WorkerPoolConfig
	taskChan  chan *WriteTask
	stopChan  chan struct{}
	wg        sync.WaitGroup
	processor TaskProcessor
	logger    *logrus.Entry

	// Metrics (atomic for thread-safety)
	queueLength    atomic.Int64
	processedCount atomic.Int64
	errorCount     atomic.Int64
	droppedCount   atomic.Int64

	// State
	running atomic.Bool
}

// NewWorkerPool creates a new worker pool with the given configuration
func NewWorkerPool(config WorkerPoolConfig, processor TaskProcessor, logger *logrus.Entry) *WorkerPool {
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultWorkerPoolConfig().WorkerCount
	}
	if config.QueueCapacity <= 0 {
		config.QueueCapacity = DefaultWorkerPoolConfig().QueueCapacity
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = DefaultWorkerPoolConfig().MaxRetries
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = DefaultWorkerPoolConfig().RetryBaseDelay
	}

	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &WorkerPool{
		config:    config,
		taskChan:  make(chan *WriteTask, config.QueueCapacity),
		stopChan:  make(chan struct{}),
		processor: processor,
		logger:    logger.WithField("component", "log_pool"),
	}
}

// Start launches the worker goroutines
func (wp *WorkerPool) Start() {
	if wp.running.Swap(true) {
		wp.logger.Warn("Worker pool already running")
		return
	}

	wp.logger.WithFields(logrus.Fields{
		"worker_count":   wp.config.WorkerCount,
		"queue_capacity": wp.config.QueueCapacity,
	}).Info("Starting log worker pool")

	for i := 0; i < wp.config.WorkerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Submit adds a task to the queue. If the queue is full the record is
// written synchronously on the calling goroutine so it is never dropped.
func (wp *WorkerPool) Submit(task *WriteTask) bool {
	if !wp.running.Load() {
		wp.logger.Warn("Cannot submit task: worker pool not running")
		return false
	}
	if task == nil || task.Record == nil {
		return false
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}

	select {
	case wp.taskChan <- task:
		wp.queueLength.Add(1)
		// Check queue capacity warning threshold (80%)
		currentLen := wp.queueLength.Load()
		threshold := int64(float64(wp.config.QueueCapacity) * 0.8)
		if currentLen >= threshold {
			wp.logger.WithFields(logrus.Fields{
				"queue_length": currentLen,
				"capacity":     wp.config.QueueCapacity,
			}).Warn("Log queue approaching capacity")
		}
		return true
	default:
		// Queue is full - write synchronously so the record is not lost
		wp.logger.WithField("record_id", task.Record.ID).Warn("Log queue full, writing record synchronously")
		wp.processTask(task, wp.logger)
		return true
	}
}

// Stop gracefully shuts down the worker pool
func (wp *WorkerPool) Stop() {
	if !wp.running.Swap(false) {
		wp.logger.Warn("Worker pool already stopped")
		return
	}

	wp.logger.Info("Stopping log worker pool...")

	// Signal workers to stop
	close(wp.stopChan)

	// Wait for all workers to finish
	wp.wg.Wait()

	// Drain remaining tasks
	wp.drainRemainingTasks()

	wp.logger.WithFields(logrus.Fields{
		"processed": wp.processedCount.Load(),
		"errors":    wp.errorCount.Load(),
		"dropped":   wp.droppedCount.Load(),
	}).Info("Log worker pool stopped")
}

// GetMetrics returns current metrics snapshot
func (wp *WorkerPool) GetMetrics() WorkerPoolMetrics {
	return WorkerPoolMetrics{
		QueueLength:    wp.queueLength.Load(),
		ProcessedCount: wp.processedCount.Load(),
		ErrorCount:     wp.errorCount.Load(),
		DroppedCount:   wp.droppedCount.Load(),
	}
}

// GetConfig returns the worker pool configuration
func (wp *WorkerPool) GetConfig() WorkerPoolConfig {
	return wp.config
}

// IsRunning returns whether the worker pool is running
func (wp *WorkerPool) IsRunning() bool {
	return wp.running.Load()
}

// worker is the main loop for each worker goroutine
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	logger := wp.logger.WithField("worker_id", id)
	logger.Debug("Worker started")

	for {
		select {
		case <-wp.stopChan:
			logger.Debug("Worker received stop signal")
			return
		case task, ok := <-wp.taskChan:
			if !ok {
				logger.Debug("Task channel closed")
				return
			}
			wp.queueLength.Add(-1)
			wp.processTask(task, logger)
		}
	}
}

// processTask writes a single record with retry logic
func (wp *WorkerPool) processTask(task *WriteTask, logger *logrus.Entry) {
	var err error
	for attempt := 0; attempt <= wp.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := wp.config.RetryBaseDelay * time.Duration(1<<(attempt-1))
			logger.WithFields(logrus.Fields{
				"record_id": task.Record.ID,
				"attempt":   attempt,
				"delay":     delay,
			}).Debug("Retrying log write")
			time.Sleep(delay)
		}

		err = wp.processor.WriteRecord(task.Record)
		if err == nil {
			wp.processedCount.Add(1)
			return
		}

		// Check if error is permanent (non-retryable)
		if isPermanentError(err) {
			logger.WithFields(logrus.Fields{
				"record_id": task.Record.ID,
				"error":     err,
			}).Error("Permanent error writing log record, not retrying")
			wp.errorCount.Add(1)
			wp.processedCount.Add(1)
			return
		}

		logger.WithFields(logrus.Fields{
			"record_id": task.Record.ID,
			"attempt":   attempt + 1,
			"error":     err,
		}).Warn("Transient error writing log record")
	}

	// All retries exhausted
	logger.WithFields(logrus.Fields{
		"record_id":   task.Record.ID,
		"max_retries": wp.config.MaxRetries,
		"error":       err,
	}).Error("All retries exhausted for log record")
	wp.errorCount.Add(1)
	wp.processedCount.Add(1)
}

// drainRemainingTasks processes any tasks left in the queue after stop signal
func (wp *WorkerPool) drainRemainingTasks() {
	remaining := 0
	for {
		select {
		case task, ok := <-wp.taskChan:
			if !ok {
				return
			}
			remaining++
			wp.queueLength.Add(-1)
			wp.processTask(task, wp.logger)
		default:
			if remaining > 0 {
				wp.logger.WithField("count", remaining).Info("Drained remaining log records")
			}
			return
		}
	}
}

// isPermanentError checks if an error should not be retried
func isPermanentError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// Constraint violations will fail identically on every attempt
	if strings.Contains(errStr, "UNIQUE constraint") {
		return true
	}
	if strings.Contains(errStr, "Duplicate entry") {
		return true
	}
	if strings.Contains(errStr, "duplicate key value") {
		return true
	}
	if strings.Contains(errStr, "record is nil") {
		return true
	}
	return false
}
