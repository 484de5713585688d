package health

import (
	"context"
	"sync"
	"time"
)

// Aggregator runs registered probes concurrently under one timeout
type Aggregator struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewAggregator creates a health check aggregator
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Aggregator{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
	}
}

// Register adds a named probe
func (a *Aggregator) Register(name string, check CheckFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checks[name] = check
}

// Check runs every probe and aggregates the results. Overall status is
// healthy only when every probe passes; no probes means healthy.
func (a *Aggregator) Check(ctx context.Context) *Response {
	checkCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.mu.RLock()
	checks := make(map[string]CheckFunc, len(a.checks))
	for name, check := range a.checks {
		checks[name] = check
	}
	a.mu.RUnlock()

	type namedResult struct {
		name   string
		result CheckResult
	}
	results := make(chan namedResult, len(checks))
	for name, check := range checks {
		name, check := name, check
		go func() {
			started := time.Now()
			result := CheckResult{Name: name, Status: StatusHealthy}
			if err := check(checkCtx); err != nil {
				result.Status = StatusUnhealthy
				result.Error = err.Error()
			}
			result.Duration = time.Since(started)
			results <- namedResult{name: name, result: result}
		}()
	}

	response := &Response{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult, len(checks)),
	}
	for i := 0; i < len(checks); i++ {
		r := <-results
		response.Checks[r.name] = r.result
		if r.result.Status != StatusHealthy {
			response.Status = StatusUnhealthy
		}
	}
	return response
}
