package widget

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/aatuh/radioclock/presenter"
	"github.com/aatuh/radioclock/specs"
	"github.com/aatuh/radioclock/zones"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page texts shown by the widget.
const (
	TextLoading = "現在時刻を取得しています..."
	TextResync  = "現在時刻を取得"
	TextFailed  = "現在時刻を取得できませんでした"
	TextRetry   = "再試行"
)

type pageData struct {
	Title    string
	State    presenter.State
	Zones    []zones.Entry
	Loading  string
	Resync   string
	Failed   string
	Retry    string
	API      string
	Stream   string
	ZoneURL  string
	Resynced string
}

func parsePage() (*template.Template, error) {
	t, err := template.New("widget.html").Funcs(template.FuncMap{
		"selected": func(a, b string) bool { return a == b },
	}).ParseFS(templateFS, "templates/widget.html")
	if err != nil {
		return nil, fmt.Errorf("parse widget template: %w", err)
	}
	return t, nil
}

func newPageData(s presenter.State) pageData {
	return pageData{
		Title:    "ラジオ時計",
		State:    s,
		Zones:    zones.All(),
		Loading:  TextLoading,
		Resync:   TextResync,
		Failed:   TextFailed,
		Retry:    TextRetry,
		API:      specs.WidgetPath(specs.Widget, s.Widget),
		Stream:   specs.WidgetPath(specs.WidgetStream, s.Widget),
		ZoneURL:  specs.WidgetPath(specs.WidgetZone, s.Widget),
		Resynced: specs.WidgetPath(specs.WidgetResync, s.Widget),
	}
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}
