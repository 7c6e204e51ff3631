package model

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"

	"github.com/rotisserie/eris"
)

// VisitedPage is one page view attributed to a company. Append-only.
type VisitedPage struct {
	ID        int64     `json:"id,omitempty"`
	CompanyID int64     `json:"company_id"`
	Path      string    `json:"page_path"`
	VisitedAt time.Time `json:"visited_at"`
}

// PageVisit is a page view as delivered by the inbound webhook. It accepts
// either a bare path string or an object with path/page_path and timestamp.
type PageVisit struct {
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PageVisit) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode page path")
		}
		*p = PageVisit{Path: s}
		return nil
	}

	var raw struct {
		Path      string `json:"path"`
		PagePath  string `json:"page_path"`
		Timestamp string `json:"timestamp"`
		VisitedAt string `json:"visited_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: decode page visit")
	}

	p.Path = raw.Path
	if p.Path == "" {
		p.Path = raw.PagePath
	}
	ts := raw.Timestamp
	if ts == "" {
		ts = raw.VisitedAt
	}
	p.Timestamp = time.Time{}
	if ts != "" {
		parsed, err := parseTimestamp(ts)
		if err != nil {
			return err
		}
		p.Timestamp = parsed
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Errorf("model: unrecognized timestamp %q", s)
}

// Paths returns the bare paths of the given visited pages, preserving order.
func Paths(pages []VisitedPage) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Path
	}
	return out
}

// VisitPaths returns the bare paths of inbound page visits, preserving order.
func VisitPaths(visits []PageVisit) []string {
	out := make([]string, len(visits))
	for i, v := range visits {
		out[i] = v.Path
	}
	return out
}

// SortVisits orders visits by timestamp, oldest first. Visits without a
// timestamp are stamped on save, so they sort after all timestamped ones and
// keep their relative order.
func SortVisits(visits []PageVisit) {
	slices.SortStableFunc(visits, func(a, b PageVisit) int {
		switch {
		case a.Timestamp.IsZero() && b.Timestamp.IsZero():
			return 0
		case a.Timestamp.IsZero():
			return 1
		case b.Timestamp.IsZero():
			return -1
		}
		return a.Timestamp.Compare(b.Timestamp)
	})
}
