package directory

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://www.linkedin.com"

func TestCascade_FirstMatchWins(t *testing.T) {
	t.Parallel()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div><p class="b">two</p><p class="a">one</p></div>`))
	require.NoError(t, err)

	m, sel := Cascade{".missing", ".a", ".b"}.First(doc.Selection)
	assert.Equal(t, ".a", sel)
	assert.Equal(t, "one", m.Text())

	none, sel := Cascade{".missing"}.First(doc.Selection)
	assert.Empty(t, sel)
	assert.Equal(t, 0, none.Length())
}

func TestParseCandidates_CurrentMarkup(t *testing.T) {
	t.Parallel()
	ext, err := ParseCandidates(peopleResultsHTML, testBaseURL)
	require.NoError(t, err)

	assert.Equal(t, ".reusable-search__result-container", ext.Container)
	assert.Equal(t, 2, ext.Skipped)
	require.Len(t, ext.Candidates, 3)

	jane := ext.Candidates[0]
	assert.Equal(t, "Jane Doe", jane.Name)
	assert.Equal(t, "VP of Sales", jane.Title)
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", jane.ProfileURL)
	assert.Equal(t, "Current: VP of Sales at Acme", jane.Summary)

	bob := ext.Candidates[1]
	assert.Equal(t, "Bob Smith", bob.Name)
	assert.Equal(t, "https://www.linkedin.com/in/bob-smith", bob.ProfileURL)

	assert.Equal(t, "Carol White", ext.Candidates[2].Name)
}

func TestParseCandidates_LegacyMarkup(t *testing.T) {
	t.Parallel()
	ext, err := ParseCandidates(legacyResultsHTML, testBaseURL)
	require.NoError(t, err)

	assert.Equal(t, ".entity-result", ext.Container)
	require.Len(t, ext.Candidates, 4)
	assert.Equal(t, "Dan Brown", ext.Candidates[0].Name)
	assert.Equal(t, "Head of Sales at Globex", ext.Candidates[0].Title)
	assert.Equal(t, "Past: Initech", ext.Candidates[0].Summary)
}

func TestParseCandidates_LayoutMismatch(t *testing.T) {
	t.Parallel()
	_, err := ParseCandidates(unknownLayoutHTML, testBaseURL)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrLayoutMismatch))
}

func TestParseCandidates_NoUsableContainers(t *testing.T) {
	t.Parallel()
	ext, err := ParseCandidates(emptyResultsHTML, testBaseURL)
	require.NoError(t, err)
	assert.Empty(t, ext.Candidates)
	assert.Equal(t, 1, ext.Skipped)
}

func TestParseCompanyID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want string
	}{
		{"Acme", "12345"},
		{"ACME CORP", "12345"},
		{"Acme Corp Holdings Group", "12345"},
		{"globex", "777"},
		{"Initech", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCompanyID(companyResultsHTML, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCurrentPosition(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		html       string
		wantPos    Position
		wantReason string
	}{
		{"current markup", profileHTML("VP of Sales", "Acme · Full-time"), Position{Role: "VP of Sales", Employer: "Acme"}, ""},
		{"structural fallback", profileStructuralHTML, Position{Role: "Staff Engineer", Employer: "Globex"}, ""},
		{"no experience", profileNoExperienceHTML, Position{}, "Could not find experience section"},
		{"empty list", profileEmptyListHTML, Position{}, "Could not find first position"},
		{"no employer", profileHTML("Founder", ""), Position{Role: "Founder"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, reason, err := ParseCurrentPosition(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPos, pos)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestCheckEmployer(t *testing.T) {
	t.Parallel()
	v := checkEmployer(Position{Role: "CTO", Employer: "Acme Inc"}, "acme")
	assert.True(t, v.Verified)
	assert.Equal(t, "Confirmed current role", v.Reason)

	v = checkEmployer(Position{Role: "CTO", Employer: "Globex"}, "Acme")
	assert.False(t, v.Verified)
	assert.Equal(t, "Works at Globex, not Acme", v.Reason)

	v = checkEmployer(Position{Role: "CTO"}, "Acme")
	assert.False(t, v.Verified)
	assert.Equal(t, "Could not determine current company", v.Reason)
}

func TestCleanName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Bob Smith", cleanName("View Bob Smith's profile"))
	assert.Equal(t, "Jane Doe", cleanName("  Jane \n Doe "))
}

func TestConfirmsEmployer(t *testing.T) {
	t.Parallel()
	tests := []struct {
		title, summary string
		want           bool
	}{
		{"Head of Sales at Globex", "", true},
		{"CTO @ Globex", "", true},
		{"Globex Sales Lead, formerly at Initech", "", true},
		{"Software Engineer", "Current: Staff Engineer at Globex", true},
		{"Software Engineer", "Past: Globex", false},
		{"VP Marketing at Initech", "", false},
		{"Globex fan", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := confirmsEmployer(candidate(tt.title, tt.summary), "Globex")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchURLs(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		"https://www.linkedin.com/search/results/companies/?keywords=Acme%20Corp",
		CompanySearchURL(testBaseURL, "Acme Corp"))

	assert.Equal(t,
		"https://www.linkedin.com/search/results/people/?currentCompany=%5B%2212345%22%5D&keywords=VP%20Sales%20OR%20CTO%20OR%20CRO&facetCurrentCompany=12345&origin=FACETED_SEARCH",
		PeopleSearchURL(testBaseURL, "12345", "Acme", []string{"VP Sales", "CTO", "CRO", "CEO"}))

	assert.Equal(t,
		"https://www.linkedin.com/search/results/people/?keywords=VP%20Sales%20at%20Acme%20%26%20Co",
		PeopleSearchURL(testBaseURL+"/", "", "Acme & Co", []string{"VP Sales"}))
}
