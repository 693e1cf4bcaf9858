package presenter

import (
	"time"

	"github.com/aatuh/radioclock/timestamp"
	"github.com/aatuh/radioclock/zones"
)

// State is a point-in-time view of a widget, ready to render.
type State struct {
	Widget    string     `json:"widget,omitempty"`
	Status    Status     `json:"status"`
	Zone      string     `json:"zone"`
	ZoneLabel string     `json:"zone_label"`
	Time      string     `json:"time,omitempty"`
	Date      string     `json:"date,omitempty"`
	DateTime  string     `json:"date_time,omitempty"`
	DST       bool       `json:"dst"`
	Error     string     `json:"error,omitempty"`
	Token     uint64     `json:"token"`
	SyncedAt  *time.Time `json:"synced_at,omitempty"`

	Timestamp timestamp.Timestamp `json:"-"`
}

func (p *Presenter) snapshotLocked() State {
	s := State{
		Widget:    p.id,
		Status:    p.status,
		Zone:      p.zone,
		ZoneLabel: zones.Label(p.zone),
		Token:     p.token,
	}
	if !p.syncedAt.IsZero() {
		at := p.syncedAt.UTC()
		s.SyncedAt = &at
	}
	switch p.status {
	case StatusReady:
		s.Timestamp = p.current
		s.Time = p.format.Time(p.current)
		s.Date = p.format.Date(p.current)
		s.DateTime = p.current.Time().Format(time.RFC3339Nano)
		s.DST = p.current.DST()
	case StatusFailed:
		if p.err != nil {
			s.Error = p.err.Error()
		}
	}
	return s
}
