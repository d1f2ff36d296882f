package models

import "time"

// ScanMetric is one record per completed scan attempt.
type ScanMetric struct {
	ScanDuration   time.Duration `json:"scan_duration"`
	ProcessingTime time.Duration `json:"processing_time"`
	CameraInitTime time.Duration `json:"camera_init_time"`
	DecodeAttempts int           `json:"decode_attempts"`
	SuccessRate    float64       `json:"success_rate"`
	Latency        time.Duration `json:"latency"`
	Timestamp      time.Time     `json:"timestamp"`
}

// PerformanceGrade is the four-level aggregate verdict.
type PerformanceGrade string

const (
	GradeExcellent PerformanceGrade = "excellent"
	GradeGood      PerformanceGrade = "good"
	GradeFair      PerformanceGrade = "fair"
	GradePoor      PerformanceGrade = "poor"
)

// PerformanceStats aggregates the metric buffer.
type PerformanceStats struct {
	AvgScanDuration   time.Duration    `json:"avg_scan_duration"`
	AvgProcessingTime time.Duration    `json:"avg_processing_time"`
	AvgSuccessRate    float64          `json:"avg_success_rate"`
	Grade             PerformanceGrade `json:"grade"`
	SampleCount       int              `json:"sample_count"`
}
