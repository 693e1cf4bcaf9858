package health

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aatuh/radioclock/clock"
	"github.com/aatuh/radioclock/ports"
)

// Manager runs registered checkers and caches their results.
type Manager struct {
	config     ports.HealthCheckConfig
	clock      ports.Clock
	checkers   map[string]ports.HealthChecker
	cache      map[string]ports.HealthResult
	cacheMutex sync.RWMutex
	mu         sync.RWMutex
}

// DefaultConfig keeps liveness independent of the time service: an upstream
// outage degrades readiness but never restarts the process.
func DefaultConfig() ports.HealthCheckConfig {
	return ports.HealthCheckConfig{
		Timeout:         5 * time.Second,
		CacheDuration:   5 * time.Second,
		EnableCaching:   true,
		LivenessChecks:  []string{"basic"},
		ReadinessChecks: []string{"basic", "widgets", "timeapi"},
	}
}

// New creates a health manager with DefaultConfig.
func New(c ports.Clock) *Manager {
	return NewWithConfig(DefaultConfig(), c)
}

// NewWithConfig creates a health manager. A nil clock uses the system clock.
func NewWithConfig(config ports.HealthCheckConfig, c ports.Clock) *Manager {
	if c == nil {
		c = clock.NewSystemClock()
	}
	return &Manager{
		config:   config,
		clock:    c,
		checkers: make(map[string]ports.HealthChecker),
		cache:    make(map[string]ports.HealthResult),
	}
}

// RegisterChecker registers a single health checker.
func (m *Manager) RegisterChecker(checker ports.HealthChecker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[checker.Name()] = checker
}

// RegisterCheckers registers multiple health checkers.
func (m *Manager) RegisterCheckers(checkers ...ports.HealthChecker) {
	for _, checker := range checkers {
		m.RegisterChecker(checker)
	}
}

func (m *Manager) GetLiveness(ctx context.Context) ports.HealthResult {
	return m.performChecks(ctx, m.config.LivenessChecks)
}

func (m *Manager) GetReadiness(ctx context.Context) ports.HealthResult {
	return m.performChecks(ctx, m.config.ReadinessChecks)
}

// GetHealth is readiness without per-check detail.
func (m *Manager) GetHealth(ctx context.Context) ports.HealthResponse {
	result := m.GetReadiness(ctx)
	return ports.HealthResponse{
		Status:    result.Status,
		Timestamp: result.Timestamp,
		Message:   result.Message,
	}
}

// GetDetailedHealth runs every registered checker.
func (m *Manager) GetDetailedHealth(ctx context.Context) ports.DetailedHealthResponse {
	m.mu.RLock()
	names := make([]string, 0, len(m.checkers))
	for name := range m.checkers {
		names = append(names, name)
	}
	m.mu.RUnlock()
	sort.Strings(names)

	checkCtx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	checks := make(map[string]ports.HealthResult, len(names))
	summary := ports.HealthSummary{Total: len(names)}
	for _, name := range names {
		result := m.performCheck(checkCtx, name)
		checks[name] = result
		switch result.Status {
		case ports.HealthStatusHealthy:
			summary.Healthy++
		case ports.HealthStatusUnhealthy:
			summary.Unhealthy++
		case ports.HealthStatusDegraded:
			summary.Degraded++
		default:
			summary.Unknown++
		}
	}

	status := ports.HealthStatusUnknown
	switch {
	case summary.Unhealthy > 0:
		status = ports.HealthStatusUnhealthy
	case summary.Degraded > 0:
		status = ports.HealthStatusDegraded
	case summary.Healthy > 0:
		status = ports.HealthStatusHealthy
	}
	return ports.DetailedHealthResponse{
		Status:    status,
		Timestamp: m.clock.Now(),
		Checks:    checks,
		Summary:   summary,
	}
}

// performChecks folds the named checks into one result: the first unhealthy
// check wins, otherwise any degraded check degrades the whole.
func (m *Manager) performChecks(ctx context.Context, names []string) ports.HealthResult {
	if len(names) == 0 {
		return ports.HealthResult{
			Status:    ports.HealthStatusHealthy,
			Message:   "no checks configured",
			Timestamp: m.clock.Now(),
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	status := ports.HealthStatusHealthy
	var messages []string
	for _, name := range names {
		result := m.performCheck(checkCtx, name)
		switch result.Status {
		case ports.HealthStatusUnhealthy, ports.HealthStatusUnknown:
			return ports.HealthResult{
				Status:    ports.HealthStatusUnhealthy,
				Message:   name + ": " + result.Message,
				Timestamp: m.clock.Now(),
			}
		case ports.HealthStatusDegraded:
			status = ports.HealthStatusDegraded
			messages = append(messages, name+": "+result.Message)
		}
	}
	return ports.HealthResult{
		Status:    status,
		Message:   strings.Join(messages, "; "),
		Timestamp: m.clock.Now(),
	}
}

func (m *Manager) performCheck(ctx context.Context, name string) ports.HealthResult {
	if m.config.EnableCaching {
		m.cacheMutex.RLock()
		cached, ok := m.cache[name]
		m.cacheMutex.RUnlock()
		if ok && m.clock.Since(cached.Timestamp) < m.config.CacheDuration {
			return cached
		}
	}

	m.mu.RLock()
	checker, ok := m.checkers[name]
	m.mu.RUnlock()
	if !ok {
		return ports.HealthResult{
			Status:    ports.HealthStatusUnknown,
			Message:   "checker not registered",
			Timestamp: m.clock.Now(),
		}
	}

	start := m.clock.Now()
	result := checker.Check(ctx)
	result.Duration = m.clock.Since(start)
	result.Timestamp = m.clock.Now()

	if m.config.EnableCaching {
		m.cacheMutex.Lock()
		m.cache[name] = result
		m.cacheMutex.Unlock()
	}
	return result
}
