package health

import (
	"context"
	"fmt"
	"runtime"

	"github.com/aatuh/radioclock/ports"
	"github.com/aatuh/radioclock/presenter"
)

// BasicChecker always reports healthy; it proves the process serves HTTP.
type BasicChecker struct{}

func NewBasicChecker() ports.HealthChecker { return &BasicChecker{} }

func (c *BasicChecker) Name() string { return "basic" }

func (c *BasicChecker) Check(context.Context) ports.HealthResult {
	return ports.HealthResult{Status: ports.HealthStatusHealthy, Message: "ok"}
}

// DefaultWidget is satisfied by the widget hub.
type DefaultWidget interface {
	Default() (*presenter.Presenter, bool)
}

// WidgetsChecker reports on the widget served at the root page. A widget
// still loading or showing a failure is degraded, not down: the page still
// renders and offers a retry.
type WidgetsChecker struct {
	widgets DefaultWidget
}

func NewWidgetsChecker(w DefaultWidget) ports.HealthChecker {
	return &WidgetsChecker{widgets: w}
}

func (c *WidgetsChecker) Name() string { return "widgets" }

func (c *WidgetsChecker) Check(context.Context) ports.HealthResult {
	p, ok := c.widgets.Default()
	if !ok {
		return ports.HealthResult{
			Status:  ports.HealthStatusUnhealthy,
			Message: "default widget not mounted",
		}
	}
	s := p.Snapshot()
	details := map[string]any{
		"widget": s.Widget,
		"zone":   s.Zone,
		"status": s.Status,
		"token":  s.Token,
	}
	switch s.Status {
	case presenter.StatusReady:
		return ports.HealthResult{Status: ports.HealthStatusHealthy, Message: "clock synced", Details: details}
	case presenter.StatusFailed:
		details["error"] = s.Error
		return ports.HealthResult{Status: ports.HealthStatusDegraded, Message: "last sync failed", Details: details}
	default:
		return ports.HealthResult{Status: ports.HealthStatusDegraded, Message: "clock syncing", Details: details}
	}
}

// UpstreamChecker fetches the current time for zone from the time service.
// An unreachable service degrades the host rather than taking it down.
type UpstreamChecker struct {
	source presenter.TimeSource
	zone   string
}

func NewUpstreamChecker(source presenter.TimeSource, zone string) ports.HealthChecker {
	return &UpstreamChecker{source: source, zone: zone}
}

func (c *UpstreamChecker) Name() string { return "timeapi" }

func (c *UpstreamChecker) Check(ctx context.Context) ports.HealthResult {
	ts, err := c.source.Fetch(ctx, c.zone)
	if err != nil {
		return ports.HealthResult{
			Status:  ports.HealthStatusDegraded,
			Message: fmt.Sprintf("time service: %v", err),
			Details: map[string]any{"zone": c.zone},
		}
	}
	return ports.HealthResult{
		Status:  ports.HealthStatusHealthy,
		Message: "time service reachable",
		Details: map[string]any{"zone": c.zone, "time": ts.String()},
	}
}

// MemoryChecker degrades above 80% of maxMemoryMB and fails above it.
// Zero disables the limit.
type MemoryChecker struct {
	maxMemoryMB int64
}

func NewMemoryChecker(maxMemoryMB int64) ports.HealthChecker {
	return &MemoryChecker{maxMemoryMB: maxMemoryMB}
}

func (c *MemoryChecker) Name() string { return "memory" }

func (c *MemoryChecker) Check(context.Context) ports.HealthResult {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memoryMB := int64(m.Alloc / 1024 / 1024)

	status := ports.HealthStatusHealthy
	message := fmt.Sprintf("memory usage: %d MB", memoryMB)
	switch {
	case c.maxMemoryMB > 0 && memoryMB > c.maxMemoryMB:
		status = ports.HealthStatusUnhealthy
		message = fmt.Sprintf("memory usage too high: %d MB (max %d MB)", memoryMB, c.maxMemoryMB)
	case c.maxMemoryMB > 0 && memoryMB > c.maxMemoryMB*8/10:
		status = ports.HealthStatusDegraded
		message = fmt.Sprintf("memory usage high: %d MB (max %d MB)", memoryMB, c.maxMemoryMB)
	}
	return ports.HealthResult{
		Status:  status,
		Message: message,
		Details: map[string]any{
			"alloc_mb":   memoryMB,
			"heap_sys":   m.HeapSys,
			"num_gc":     m.NumGC,
			"goroutines": runtime.NumGoroutine(),
		},
	}
}
