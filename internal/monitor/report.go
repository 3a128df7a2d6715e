// Package monitor routes training statistics to a remote UI and implements
// that UI: storage, HTTP handlers, a live websocket feed and score plots.
package monitor

import "time"

// ReportType says what a Report describes.
type ReportType string

const (
	IterationReport  ReportType = "iteration"
	EpochReport      ReportType = "epoch"
	ValidationReport ReportType = "validation"
	TestReport       ReportType = "test"
)

// Report is one statistics update sent from a training process.
type Report struct {
	Session   string             `json:"session"`
	Worker    string             `json:"worker"`
	Type      ReportType         `json:"type"`
	Epoch     int                `json:"epoch"`
	Iteration int                `json:"iteration"`
	Score     float64            `json:"score"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Time      time.Time          `json:"time"`
}
