package specs

import "strings"

// System endpoints for health checks, metrics and documentation
const (
	// Health check endpoints
	Livez          = "/livez"
	Readyz         = "/readyz"
	Healthz        = "/healthz"
	HealthDetailed = "/health/detailed"

	Metrics = "/metrics"

	// Documentation endpoints
	Docs        = "/docs"
	DocsOpenAPI = "/docs/openapi.json"
	Version     = "/version"
)

// Widget endpoints
const (
	Page       = "/"
	WidgetPage = "/widgets/{id}"
	Static     = "/static/*"

	Zones         = "/api/v1/zones"
	Widgets       = "/api/v1/widgets"
	Widget        = "/api/v1/widgets/{id}"
	WidgetResync  = "/api/v1/widgets/{id}/resync"
	WidgetZone    = "/api/v1/widgets/{id}/zone"
	WidgetStream  = "/api/v1/widgets/{id}/stream"
	WidgetIDParam = "id"
)

// WidgetPath fills a widget route pattern with id.
func WidgetPath(pattern, id string) string {
	return strings.ReplaceAll(pattern, "{"+WidgetIDParam+"}", id)
}
