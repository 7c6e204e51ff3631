package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageVisit_UnmarshalString(t *testing.T) {
	t.Parallel()

	var pages []PageVisit
	require.NoError(t, json.Unmarshal([]byte(`["/pricing", "/docs"]`), &pages))
	require.Len(t, pages, 2)
	assert.Equal(t, "/pricing", pages[0].Path)
	assert.True(t, pages[0].Timestamp.IsZero())
}

func TestPageVisit_UnmarshalObject(t *testing.T) {
	t.Parallel()

	var pages []PageVisit
	require.NoError(t, json.Unmarshal([]byte(`[
		{"path": "/pricing", "timestamp": "2025-01-15T10:30:00Z"},
		{"page_path": "/demo", "visited_at": "2025-01-15 10:35:00"}
	]`), &pages))
	require.Len(t, pages, 2)
	assert.Equal(t, "/pricing", pages[0].Path)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), pages[0].Timestamp)
	assert.Equal(t, "/demo", pages[1].Path)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 35, 0, 0, time.UTC), pages[1].Timestamp)
}

func TestPageVisit_BadTimestamp(t *testing.T) {
	t.Parallel()

	var p PageVisit
	err := json.Unmarshal([]byte(`{"path": "/x", "timestamp": "yesterday"}`), &p)
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"/a", "/b"}, Paths([]VisitedPage{{Path: "/a"}, {Path: "/b"}}))
	assert.Equal(t, []string{"/c"}, VisitPaths([]PageVisit{{Path: "/c"}}))
}

func TestSortVisits(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	visits := []PageVisit{
		{Path: "/demo", Timestamp: t0.Add(2 * time.Minute)},
		{Path: "/untimed-a"},
		{Path: "/blog", Timestamp: t0},
		{Path: "/untimed-b"},
		{Path: "/pricing", Timestamp: t0.Add(time.Minute)},
	}
	SortVisits(visits)
	assert.Equal(t, []string{"/blog", "/pricing", "/demo", "/untimed-a", "/untimed-b"}, VisitPaths(visits))
}
