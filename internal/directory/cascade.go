package directory

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscout/internal/scorer"
)

// ErrLayoutMismatch means no known result container matched the page.
var ErrLayoutMismatch = eris.New("directory: no known result layout matched")

// Cascade is an ordered list of selectors tried until one matches.
type Cascade []string

// First returns the first non-empty match within s and the selector that
// produced it. The selection is empty when nothing matched.
func (c Cascade) First(s *goquery.Selection) (*goquery.Selection, string) {
	for _, sel := range c {
		if m := s.Find(sel); m.Length() > 0 {
			return m.First(), sel
		}
	}
	return s.Slice(0, 0), ""
}

// All returns every match of the first selector that matches anything.
func (c Cascade) All(s *goquery.Selection) (*goquery.Selection, string) {
	for _, sel := range c {
		if m := s.Find(sel); m.Length() > 0 {
			return m, sel
		}
	}
	return s.Slice(0, 0), ""
}

// Selector cascades for the directory's search and profile pages. The
// directory ships obfuscated class names that change without notice, so each
// cascade ends in a structural fallback.
var (
	resultContainers = Cascade{
		".reusable-search__result-container",
		".entity-result",
		"[data-chameleon-result-urn]",
		".search-results-container",
		".search-results__list li",
	}
	nameLinks = Cascade{
		`.QRsBGGTkAVlVMqjnfUqhRnPZLBuQJInSvQ a[href*="/in/"]`,
		`.entity-result__title-text a[href*="/in/"]`,
		`a[href*="/in/"]`,
	}
	nameTexts = Cascade{
		`span[dir="ltr"] span[aria-hidden="true"]`,
		`span[aria-hidden="true"]`,
	}
	titleTexts = Cascade{
		".MPFWKoQFBIWsWGqHMHsTCFjPNOuEhvFGtlc",
		".entity-result__primary-subtitle",
	}
	summaryTexts = Cascade{
		".ckfYekxlWGHuLQxABvYtwvKQDRAmJqhxg",
		".entity-result__summary",
	}
	companyLabels = Cascade{
		".artdeco-entity-lockup__title",
		".entity-result__title-text",
		".t-16",
	}
	experienceLists = Cascade{
		"ul.cNpTaOHypiAvlEPOELGpZYejBRGdRjzZYE",
		"section:has(#experience) ul",
	}
	positionItems = Cascade{
		"li.artdeco-list__item",
		"li",
	}
	roleTexts = Cascade{
		`.t-bold span[aria-hidden="true"]`,
	}
	employerTexts = Cascade{
		`.t-14.t-normal span[aria-hidden="true"]`,
	}
)

var companyIDPattern = regexp.MustCompile(`/company/(\d+)`)

// Extraction is the outcome of parsing a people-search results page.
type Extraction struct {
	Candidates []scorer.Candidate
	// Container is the selector that matched the result containers.
	Container string
	// Skipped counts containers that lacked a usable name, title or link.
	Skipped int
}

// ParseCandidates extracts candidates from a people-search page. It returns
// ErrLayoutMismatch when no container selector matches. baseURL resolves
// relative profile links.
func ParseCandidates(html, baseURL string) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extraction{}, eris.Wrap(err, "directory: parse results")
	}

	containers, used := resultContainers.All(doc.Selection)
	if used == "" {
		return Extraction{}, ErrLayoutMismatch
	}

	out := Extraction{Container: used}
	containers.Each(func(_ int, el *goquery.Selection) {
		c, ok := parseContainer(el, baseURL)
		if !ok {
			out.Skipped++
			return
		}
		out.Candidates = append(out.Candidates, c)
	})
	return out, nil
}

func parseContainer(el *goquery.Selection, baseURL string) (scorer.Candidate, bool) {
	link, sel := nameLinks.First(el)
	if sel == "" {
		return scorer.Candidate{}, false
	}
	title := cleanText(firstText(el, titleTexts))
	href, _ := link.Attr("href")
	profileURL := absoluteURL(strings.SplitN(href, "?", 2)[0], baseURL)

	name := firstText(link, nameTexts)
	if name == "" {
		name = link.Text()
	}
	name = cleanName(name)

	if !strings.Contains(profileURL, "/in/") || len(name) <= 2 || len(title) <= 2 {
		return scorer.Candidate{}, false
	}
	return scorer.Candidate{
		Name:       name,
		Title:      title,
		ProfileURL: profileURL,
		Summary:    cleanText(firstText(el, summaryTexts)),
	}, true
}

// ParseCompanyID returns the numeric identifier of the first company-search
// result whose label fuzzily matches name, or "" when none does.
func ParseCompanyID(html, name string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", eris.Wrap(err, "directory: parse company results")
	}

	target := fold(name)
	var id string
	doc.Find(`a[href*="/company/"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		m := companyIDPattern.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		label := fold(firstText(a, companyLabels))
		if label == "" {
			return true
		}
		if label == target || strings.Contains(label, target) || strings.Contains(target, label) {
			id = m[1]
			return false
		}
		return true
	})
	return id, nil
}

// Position is the first listed entry of a profile's experience section.
type Position struct {
	Role     string
	Employer string
}

// ParseCurrentPosition reads the current position from a profile page. The
// returned reason explains a failed read.
func ParseCurrentPosition(html string) (Position, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Position{}, "", eris.Wrap(err, "directory: parse profile")
	}

	list, sel := experienceLists.First(doc.Selection)
	if sel == "" {
		return Position{}, "Could not find experience section", nil
	}
	item, sel := positionItems.First(list)
	if sel == "" {
		return Position{}, "Could not find first position", nil
	}

	pos := Position{Role: firstText(item, roleTexts)}
	if employer := firstText(item, employerTexts); employer != "" {
		pos.Employer = strings.TrimSpace(strings.SplitN(employer, "·", 2)[0])
	}
	return pos, "", nil
}

func firstText(s *goquery.Selection, c Cascade) string {
	m, sel := c.First(s)
	if sel == "" {
		return ""
	}
	return strings.TrimSpace(m.Text())
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanName strips the accessibility noise around a profile link label.
func cleanName(s string) string {
	s = cleanText(s)
	if strings.Contains(s, "View ") || strings.Contains(s, "'s profile") {
		s = strings.Replace(s, "View ", "", 1)
		s = strings.Replace(s, "'s profile", "", 1)
	}
	return strings.TrimSpace(s)
}

func absoluteURL(href, baseURL string) string {
	if strings.HasPrefix(href, "/") {
		return strings.TrimSuffix(baseURL, "/") + href
	}
	return href
}
