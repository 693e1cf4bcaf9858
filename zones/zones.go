// Package zones is the fixed catalog of time zones a widget may display.
package zones

import "errors"

// ErrUnknownZone is returned for identifiers outside the catalog.
var ErrUnknownZone = errors.New("zone not in catalog")

// Entry pairs an IANA identifier with its display label.
type Entry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Default is the zone a widget starts in when none is given.
const Default = "Asia/Tokyo"

var catalog = []Entry{
	{ID: "Asia/Tokyo", Label: "東京"},
	{ID: "Europe/London", Label: "ロンドン"},
	{ID: "America/New_York", Label: "ニューヨーク"},
	{ID: "Australia/Sydney", Label: "シドニー"},
	{ID: "Europe/Paris", Label: "パリ"},
	{ID: "UTC", Label: "協定世界時"},
}

var byID = func() map[string]Entry {
	m := make(map[string]Entry, len(catalog))
	for _, e := range catalog {
		m[e.ID] = e
	}
	return m
}()

// All returns the catalog in display order. The slice is a copy.
func All() []Entry {
	out := make([]Entry, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Entry, error) {
	e, ok := byID[id]
	if !ok {
		return Entry{}, ErrUnknownZone
	}
	return e, nil
}

// Contains reports whether id is in the catalog.
func Contains(id string) bool {
	_, ok := byID[id]
	return ok
}

// Label returns the display label for id, or id itself when unknown.
func Label(id string) string {
	if e, ok := byID[id]; ok {
		return e.Label
	}
	return id
}
