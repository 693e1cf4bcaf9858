package docs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"

	"github.com/aatuh/radioclock/specs"
)

// Config describes the service in the generated documentation.
type Config struct {
	Title       string
	Description string
	Version     string
}

// Endpoint is one documented route.
type Endpoint struct {
	Method  string
	Path    string
	Summary string
	Tag     string
	// Body names the request body schema, if any.
	Body string
	// Responses maps status codes to descriptions.
	Responses map[int]string
}

// Manager renders the endpoint table as an HTML page and an OpenAPI
// document.
type Manager struct {
	config    Config
	endpoints []Endpoint
}

// DefaultConfig returns the service metadata, taking the version from the
// module build info when available.
func DefaultConfig() Config {
	version := "dev"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		version = bi.Main.Version
	}
	return Config{
		Title:       "radioclock",
		Description: "Clock widgets synchronised with a remote time service and advanced locally once per second.",
		Version:     version,
	}
}

// New creates a manager documenting the given endpoints, or Endpoints()
// when none are given.
func New(config Config, endpoints ...Endpoint) *Manager {
	if len(endpoints) == 0 {
		endpoints = Endpoints()
	}
	return &Manager{config: config, endpoints: endpoints}
}

// Endpoints lists every route the service mounts.
func Endpoints() []Endpoint {
	state := map[int]string{200: "Widget state", 404: "Unknown widget"}
	return []Endpoint{
		{Method: "GET", Path: specs.Page, Summary: "Default clock widget page", Tag: "pages", Responses: map[int]string{200: "HTML page"}},
		{Method: "GET", Path: specs.WidgetPage, Summary: "Clock widget page", Tag: "pages", Responses: map[int]string{200: "HTML page", 404: "Unknown widget"}},
		{Method: "GET", Path: specs.Zones, Summary: "Selectable time zones", Tag: "widgets", Responses: map[int]string{200: "Zone catalog"}},
		{Method: "POST", Path: specs.Widgets, Summary: "Mount a widget", Tag: "widgets", Body: "ZoneRequest",
			Responses: map[int]string{201: "Widget created", 400: "Unknown zone", 429: "Widget limit reached"}},
		{Method: "GET", Path: specs.Widget, Summary: "Widget state", Tag: "widgets", Responses: state},
		{Method: "DELETE", Path: specs.Widget, Summary: "Unmount a widget", Tag: "widgets",
			Responses: map[int]string{204: "Unmounted", 404: "Unknown widget", 409: "Default widget"}},
		{Method: "POST", Path: specs.WidgetResync, Summary: "Fetch the current time again", Tag: "widgets",
			Responses: map[int]string{200: "Widget state", 404: "Unknown widget", 502: "Time service failed"}},
		{Method: "PUT", Path: specs.WidgetZone, Summary: "Change zone and resync", Tag: "widgets", Body: "ZoneRequest",
			Responses: map[int]string{200: "Widget state", 400: "Unknown zone", 404: "Unknown widget", 502: "Time service failed"}},
		{Method: "GET", Path: specs.WidgetStream, Summary: "Widget state as server-sent events", Tag: "widgets",
			Responses: map[int]string{200: "text/event-stream", 404: "Unknown widget"}},
		{Method: "GET", Path: specs.Livez, Summary: "Liveness probe", Tag: "system", Responses: map[int]string{200: "Alive", 503: "Not alive"}},
		{Method: "GET", Path: specs.Readyz, Summary: "Readiness probe", Tag: "system", Responses: map[int]string{200: "Ready or degraded", 503: "Not ready"}},
		{Method: "GET", Path: specs.Healthz, Summary: "Health summary", Tag: "system", Responses: map[int]string{200: "Healthy or degraded", 503: "Unhealthy"}},
		{Method: "GET", Path: specs.HealthDetailed, Summary: "Per-check health", Tag: "system", Responses: map[int]string{200: "Healthy or degraded", 503: "Unhealthy"}},
		{Method: "GET", Path: specs.Metrics, Summary: "Prometheus metrics", Tag: "system", Responses: map[int]string{200: "Metrics"}},
		{Method: "GET", Path: specs.Docs, Summary: "This page", Tag: "system", Responses: map[int]string{200: "HTML page"}},
		{Method: "GET", Path: specs.DocsOpenAPI, Summary: "OpenAPI document", Tag: "system", Responses: map[int]string{200: "OpenAPI JSON"}},
		{Method: "GET", Path: specs.Version, Summary: "Service version", Tag: "system", Responses: map[int]string{200: "Version"}},
	}
}

func (m *Manager) Version() string { return m.config.Version }

var pageTmpl = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Config.Title}}</title>
</head>
<body>
<h1>{{.Config.Title}}</h1>
<p>{{.Config.Description}}</p>
<p><strong>Version:</strong> {{.Config.Version}}</p>
<table>
<tr><th>Method</th><th>Path</th><th>Summary</th></tr>
{{- range .Endpoints}}
<tr><td>{{.Method}}</td><td><code>{{.Path}}</code></td><td>{{.Summary}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

// HTML renders the endpoint table.
func (m *Manager) HTML() ([]byte, error) {
	var buf bytes.Buffer
	err := pageTmpl.Execute(&buf, struct {
		Config    Config
		Endpoints []Endpoint
	}{m.config, m.endpoints})
	if err != nil {
		return nil, fmt.Errorf("render docs: %w", err)
	}
	return buf.Bytes(), nil
}

// OpenAPI renders an OpenAPI 3 document of the endpoint table.
func (m *Manager) OpenAPI() ([]byte, error) {
	paths := map[string]map[string]any{}
	for _, e := range m.endpoints {
		op := map[string]any{
			"summary":   e.Summary,
			"tags":      []string{e.Tag},
			"responses": responses(e.Responses),
		}
		if params := pathParams(e.Path); len(params) > 0 {
			op["parameters"] = params
		}
		if e.Body != "" {
			op["requestBody"] = map[string]any{
				"content": map[string]any{
					"application/json": map[string]any{
						"schema": map[string]any{"$ref": "#/components/schemas/" + e.Body},
					},
				},
			}
		}
		if paths[e.Path] == nil {
			paths[e.Path] = map[string]any{}
		}
		paths[e.Path][strings.ToLower(e.Method)] = op
	}
	doc := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       m.config.Title,
			"description": m.config.Description,
			"version":     m.config.Version,
		},
		"paths": paths,
		"components": map[string]any{
			"schemas": map[string]any{
				"ZoneRequest": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"zone": map[string]any{"type": "string", "example": "Asia/Tokyo"},
					},
				},
			},
		},
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode openapi: %w", err)
	}
	return out, nil
}

func responses(in map[int]string) map[string]any {
	codes := make([]int, 0, len(in))
	for c := range in {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	out := make(map[string]any, len(codes))
	for _, c := range codes {
		out[strconv.Itoa(c)] = map[string]any{"description": in[c]}
	}
	return out
}

func pathParams(path string) []map[string]any {
	var out []map[string]any
	for _, seg := range strings.Split(path, "/") {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		out = append(out, map[string]any{
			"name":     strings.Trim(seg, "{}"),
			"in":       "path",
			"required": true,
			"schema":   map[string]any{"type": "string"},
		})
	}
	return out
}
