package services

import (
	"time"

	"llamabridge/internal/config"
	"llamabridge/internal/logpool"
	"llamabridge/internal/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// pruneSchedule runs retention cleanup nightly, off peak.
const pruneSchedule = "0 3 * * *"

// RequestLogService accepts per-request log records, hands them to the
// write pool, and prunes old rows on a nightly schedule.
type RequestLogService struct {
	db            *gorm.DB
	pool          *logpool.WorkerPool
	cron          *cron.Cron
	retentionDays int
}

// NewRequestLogService wires the service from configuration.
func NewRequestLogService(cfg *config.Manager, db *gorm.DB) *RequestLogService {
	pool := logpool.NewWorkerPool(
		logpool.DefaultWorkerPoolConfig(),
		logpool.NewDBProcessor(db),
		logrus.NewEntry(logrus.StandardLogger()),
	)

	return &RequestLogService{
		db:            db,
		pool:          pool,
		cron:          cron.New(),
		retentionDays: cfg.LogRetentionDays,
	}
}

// Start launches the write pool and the retention schedule.
func (s *RequestLogService) Start() error {
	s.pool.Start()

	if s.retentionDays > 0 {
		if _, err := s.cron.AddFunc(pruneSchedule, s.pruneOldRecords); err != nil {
			return err
		}
		s.cron.Start()
		logrus.WithField("retention_days", s.retentionDays).Info("Request log retention schedule started")
	}

	return nil
}

// Record queues one request log row for writing.
func (s *RequestLogService) Record(record *models.RequestLog) {
	if record == nil {
		return
	}
	s.pool.Submit(&logpool.WriteTask{Record: record})
}

// Stop halts the schedule, then drains and stops the write pool.
func (s *RequestLogService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.pool.Stop()
}

// PoolMetrics exposes the write pool counters.
func (s *RequestLogService) PoolMetrics() logpool.WorkerPoolMetrics {
	return s.pool.GetMetrics()
}

func (s *RequestLogService) pruneOldRecords() {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)

	result := s.db.Where("timestamp < ?", cutoff).Delete(&models.RequestLog{})
	if result.Error != nil {
		logrus.WithError(result.Error).Error("Failed to prune old request logs")
		return
	}

	if result.RowsAffected > 0 {
		logrus.WithFields(logrus.Fields{
			"deleted": result.RowsAffected,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Pruned old request logs")
	}
}
