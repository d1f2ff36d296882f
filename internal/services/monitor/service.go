// Package monitor records per-scan timing metrics in a bounded rolling
// buffer and grades aggregate scanner performance. Recording is
// observability only; it never blocks or mutates a scan outcome.
package monitor

import (
	"sync"
	"time"

	"scanpay/internal/models"
	"scanpay/internal/telemetry"

	"go.uber.org/zap"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

const (
	// Buffer keeps the most recent attempts only.
	maxMetrics = 100

	// Advisory thresholds per attempt.
	slowScanThreshold       = 5 * time.Second
	slowProcessingThreshold = 1 * time.Second
	maxDecodeAttempts       = 10
	lowSuccessRate          = 0.8
)

// Service is the scanner performance monitor.
type Service interface {
	RecordScanMetric(m models.ScanMetric)
	Stats() models.PerformanceStats
	Reset()
}

type service struct {
	mu        sync.Mutex
	metrics   []models.ScanMetric
	clock     Clock
	logger    *zap.Logger
	collector telemetry.Collector
}

// NewService creates a new performance monitor.
func NewService(clock Clock, logger *zap.Logger, collector telemetry.Collector) Service {
	if clock == nil {
		panic("clock is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	if collector == nil {
		panic("collector is required")
	}
	return &service{
		clock:     clock,
		logger:    logger,
		collector: collector,
	}
}

func (s *service) RecordScanMetric(m models.ScanMetric) {
	if m.Timestamp.IsZero() {
		m.Timestamp = s.clock.Now()
	}

	s.mu.Lock()
	s.metrics = append(s.metrics, m)
	if len(s.metrics) > maxMetrics {
		s.metrics = s.metrics[len(s.metrics)-maxMetrics:]
	}
	s.mu.Unlock()

	s.collector.RecordScanDuration(m.ScanDuration)
	s.evaluateThresholds(m)
}

func (s *service) evaluateThresholds(m models.ScanMetric) {
	if m.ScanDuration > slowScanThreshold {
		s.advise("slow_scan", zap.Duration("scan_duration", m.ScanDuration))
	}
	if m.ProcessingTime > slowProcessingThreshold {
		s.advise("slow_processing", zap.Duration("processing_time", m.ProcessingTime))
	}
	if m.DecodeAttempts > maxDecodeAttempts {
		s.advise("excessive_decode_attempts", zap.Int("decode_attempts", m.DecodeAttempts))
	}
	if m.SuccessRate < lowSuccessRate {
		s.advise("low_success_rate", zap.Float64("success_rate", m.SuccessRate))
	}
}

func (s *service) advise(kind string, field zap.Field) {
	s.logger.Warn("scan performance advisory", zap.String("kind", kind), field)
	s.collector.RecordScanAdvisory(kind)
}

func (s *service) Stats() models.PerformanceStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.metrics)
	if n == 0 {
		return models.PerformanceStats{Grade: models.GradeExcellent}
	}

	var totalDuration, totalProcessing time.Duration
	var totalSuccess float64
	for _, m := range s.metrics {
		totalDuration += m.ScanDuration
		totalProcessing += m.ProcessingTime
		totalSuccess += m.SuccessRate
	}

	stats := models.PerformanceStats{
		AvgScanDuration:   totalDuration / time.Duration(n),
		AvgProcessingTime: totalProcessing / time.Duration(n),
		AvgSuccessRate:    totalSuccess / float64(n),
		SampleCount:       n,
	}
	stats.Grade = grade(stats.AvgScanDuration, stats.AvgSuccessRate)
	return stats
}

func (s *service) Reset() {
	s.mu.Lock()
	s.metrics = nil
	s.mu.Unlock()
}

// grade is the worse of the duration and success-rate verdicts, so a
// longer average scan at the same success rate can never improve it.
func grade(avgDuration time.Duration, avgSuccess float64) models.PerformanceGrade {
	durGrade := gradeDuration(avgDuration)
	successGrade := gradeSuccess(avgSuccess)
	if severity(durGrade) > severity(successGrade) {
		return durGrade
	}
	return successGrade
}

func gradeDuration(d time.Duration) models.PerformanceGrade {
	switch {
	case d > 3*time.Second:
		return models.GradePoor
	case d > 2*time.Second:
		return models.GradeFair
	case d > time.Second:
		return models.GradeGood
	default:
		return models.GradeExcellent
	}
}

func gradeSuccess(rate float64) models.PerformanceGrade {
	switch {
	case rate < 0.8:
		return models.GradePoor
	case rate < 0.9:
		return models.GradeFair
	case rate < 0.95:
		return models.GradeGood
	default:
		return models.GradeExcellent
	}
}

func severity(g models.PerformanceGrade) int {
	switch g {
	case models.GradePoor:
		return 3
	case models.GradeFair:
		return 2
	case models.GradeGood:
		return 1
	default:
		return 0
	}
}
