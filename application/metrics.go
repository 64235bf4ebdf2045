package application

import "time"

// DrawMetrics receives engine measurements
type DrawMetrics interface {
	ObserveOperation(operation, result string, duration time.Duration)
	IncStockRaceLost(prizeID string)
	IncWinnerConflict(operation string)
}

type noopDrawMetrics struct{}

func (noopDrawMetrics) ObserveOperation(string, string, time.Duration) {}
func (noopDrawMetrics) IncStockRaceLost(string)                        {}
func (noopDrawMetrics) IncWinnerConflict(string)                       {}
