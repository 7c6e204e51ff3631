// Package export writes company contact data to spreadsheet files.
package export

import (
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadscout/internal/model"
)

// Sheet names in exported workbooks.
const (
	SheetContacts = "Contacts"
	SheetPages    = "Pages"
	SheetOutreach = "Outreach"
)

var contactHeader = []string{
	"Name", "Title", "Email", "Profile URL", "Persona", "Persona Match",
	"Fit Score", "Verified Role", "Verified Company", "Source", "Created",
}

// WorkbookFor builds a workbook with one sheet each for the company's
// contacts, visited pages and outreach drafts.
func WorkbookFor(d *model.CompanyDetail) (*xlsx.File, error) {
	f := xlsx.NewFile()

	contacts, err := f.AddSheet(SheetContacts)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add contacts sheet")
	}
	addRow(contacts, contactHeader...)
	for _, c := range d.Contacts {
		fit := ""
		if c.PersonaFitScore != nil {
			fit = strconv.FormatFloat(*c.PersonaFitScore, 'f', 2, 64)
		}
		addRow(contacts,
			c.Name, c.Title, c.Email, c.ProfileURL, c.Persona, yesNo(c.IsPersonaMatch),
			fit, c.VerifiedRole, c.VerifiedCompany, string(c.Provenance), formatTime(c.CreatedAt),
		)
	}

	pages, err := f.AddSheet(SheetPages)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add pages sheet")
	}
	addRow(pages, "Path", "Visited")
	for _, p := range d.VisitedPages {
		addRow(pages, p.Path, formatTime(p.VisitedAt))
	}

	outreach, err := f.AddSheet(SheetOutreach)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add outreach sheet")
	}
	addRow(outreach, "Contact", "Title", "Subject", "Body")
	for _, e := range d.Emails {
		addRow(outreach, e.ContactName, e.Title, e.Subject, e.Body)
	}

	return f, nil
}

// WriteContacts saves the company's workbook to path.
func WriteContacts(path string, d *model.CompanyDetail) error {
	f, err := WorkbookFor(d)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
