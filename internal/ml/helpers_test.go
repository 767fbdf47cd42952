package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu            sync.Mutex
	predictions   int
	failures      int
	latencySum    float64
	latencyCount  int
	predictedRows float64
}

func (m *MockMetrics) PredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) PredictionFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) PredictionLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
	m.latencyCount++
}

func (m *MockMetrics) PredictedRowsAdd(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictedRows += v
}
