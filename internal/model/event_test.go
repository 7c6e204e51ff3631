package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_UnmarshalNested(t *testing.T) {
	t.Parallel()

	payload := `{
		"event_id": "evt_1",
		"company": {"name": "Acme", "domain": "acme.io", "size": "51-200", "industry": "SaaS", "region": "North America"},
		"contact": {"name": "Jane Doe", "email": "jane@acme.io", "title": "VP Engineering"},
		"visited_pages": [{"path": "/pricing", "timestamp": "2025-01-15T10:30:00Z"}],
		"additional_contacts": [{"contact_name": "Bob", "contact_email": "bob@acme.io", "contact_title": "CTO"}]
	}`

	var e Event
	require.NoError(t, json.Unmarshal([]byte(payload), &e))
	assert.Equal(t, "evt_1", e.EventID)
	assert.Equal(t, "Acme", e.Company.Name)
	assert.Equal(t, "acme.io", e.Company.Domain)
	require.NotNil(t, e.Contact)
	assert.Equal(t, "VP Engineering", e.Contact.Title)
	require.Len(t, e.VisitedPages, 1)

	contacts := e.Contacts()
	require.Len(t, contacts, 2)
	assert.Equal(t, "Jane Doe", contacts[0].Name)
	assert.Equal(t, "Bob", contacts[1].Name)
	assert.Equal(t, "CTO", contacts[1].Title)
}

func TestEvent_UnmarshalFlat(t *testing.T) {
	t.Parallel()

	payload := `{
		"company_name": "Globex",
		"company_domain": "https://www.globex.com/",
		"contact_name": "Hank",
		"contact_title": "Director of IT",
		"pages": ["/", "/demo"]
	}`

	var e Event
	require.NoError(t, json.Unmarshal([]byte(payload), &e))
	require.NoError(t, e.Normalize())
	assert.Equal(t, "Globex", e.Company.Name)
	assert.Equal(t, "globex.com", e.Company.Domain)
	require.NotNil(t, e.Contact)
	assert.Equal(t, "Hank", e.Contact.Name)
	assert.Equal(t, []string{"/", "/demo"}, VisitPaths(e.VisitedPages))
}

func TestEvent_NormalizeRequiresDomain(t *testing.T) {
	t.Parallel()

	e := Event{Company: EventCompany{Name: "No Domain"}}
	err := e.Normalize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidEvent))
}

func TestEvent_NormalizeDropsBlankPages(t *testing.T) {
	t.Parallel()

	e := Event{
		Company:      EventCompany{Domain: "acme.io"},
		VisitedPages: []PageVisit{{Path: " /pricing "}, {Path: "  "}},
	}
	require.NoError(t, e.Normalize())
	assert.Equal(t, "acme.io", e.Company.Name)
	assert.Equal(t, []string{"/pricing"}, VisitPaths(e.VisitedPages))
}
