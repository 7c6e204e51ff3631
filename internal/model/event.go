package model

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// EventCompany is the company block of an inbound visitor event.
type EventCompany struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Size     string `json:"size,omitempty"`
	Industry string `json:"industry,omitempty"`
	Region   string `json:"region,omitempty"`
}

// EventContact is a known person attached to an inbound event.
type EventContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Title string `json:"title"`
}

// Event is an inbound company/visitor signal from the webhook layer.
type Event struct {
	EventID            string         `json:"event_id,omitempty"`
	Company            EventCompany   `json:"company"`
	Contact            *EventContact  `json:"contact,omitempty"`
	VisitedPages       []PageVisit    `json:"visited_pages"`
	AdditionalContacts []EventContact `json:"additional_contacts,omitempty"`
}

// UnmarshalJSON accepts both the nested form and the flat legacy form
// (company_name, company_domain, contact_name, pages, ...).
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		EventID            string            `json:"event_id"`
		Company            *EventCompany     `json:"company"`
		Contact            *EventContact     `json:"contact"`
		VisitedPages       []PageVisit       `json:"visited_pages"`
		Pages              []PageVisit       `json:"pages"`
		AdditionalContacts []json.RawMessage `json:"additional_contacts"`

		CompanyName   string `json:"company_name"`
		CompanyDomain string `json:"company_domain"`
		CompanySize   string `json:"company_size"`
		Industry      string `json:"industry"`
		Region        string `json:"region"`
		ContactName   string `json:"contact_name"`
		ContactEmail  string `json:"contact_email"`
		ContactTitle  string `json:"contact_title"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: decode event")
	}

	out := Event{EventID: raw.EventID, Contact: raw.Contact}
	if raw.Company != nil {
		out.Company = *raw.Company
	}
	out.Company.Name = firstNonEmpty(out.Company.Name, raw.CompanyName)
	out.Company.Domain = firstNonEmpty(out.Company.Domain, raw.CompanyDomain)
	out.Company.Size = firstNonEmpty(out.Company.Size, raw.CompanySize)
	out.Company.Industry = firstNonEmpty(out.Company.Industry, raw.Industry)
	out.Company.Region = firstNonEmpty(out.Company.Region, raw.Region)

	if raw.ContactName != "" {
		out.Contact = &EventContact{Name: raw.ContactName, Email: raw.ContactEmail, Title: raw.ContactTitle}
	}

	out.VisitedPages = raw.VisitedPages
	if len(out.VisitedPages) == 0 {
		out.VisitedPages = raw.Pages
	}

	for _, rc := range raw.AdditionalContacts {
		c, err := decodeContact(rc)
		if err != nil {
			return err
		}
		out.AdditionalContacts = append(out.AdditionalContacts, c)
	}

	*e = out
	return nil
}

// decodeContact reads a contact in either {name,email,title} or
// {contact_name,contact_email,contact_title} form.
func decodeContact(data json.RawMessage) (EventContact, error) {
	var raw struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		Title        string `json:"title"`
		ContactName  string `json:"contact_name"`
		ContactEmail string `json:"contact_email"`
		ContactTitle string `json:"contact_title"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return EventContact{}, eris.Wrap(err, "model: decode additional contact")
	}
	return EventContact{
		Name:  firstNonEmpty(raw.Name, raw.ContactName),
		Email: firstNonEmpty(raw.Email, raw.ContactEmail),
		Title: firstNonEmpty(raw.Title, raw.ContactTitle),
	}, nil
}

// Contacts returns the primary contact followed by any additional contacts.
func (e *Event) Contacts() []EventContact {
	var out []EventContact
	if e.Contact != nil {
		out = append(out, *e.Contact)
	}
	return append(out, e.AdditionalContacts...)
}

// Normalize trims the company block and canonicalizes the domain. It returns
// ErrInvalidEvent when no usable domain is present.
func (e *Event) Normalize() error {
	e.Company.Name = strings.TrimSpace(e.Company.Name)
	e.Company.Domain = NormalizeDomain(e.Company.Domain)
	e.Company.Size = strings.TrimSpace(e.Company.Size)
	e.Company.Industry = strings.TrimSpace(e.Company.Industry)
	e.Company.Region = strings.TrimSpace(e.Company.Region)

	if e.Company.Domain == "" {
		return eris.Wrap(ErrInvalidEvent, "company domain is required")
	}
	if e.Company.Name == "" {
		e.Company.Name = e.Company.Domain
	}

	pages := e.VisitedPages[:0]
	for _, p := range e.VisitedPages {
		p.Path = strings.TrimSpace(p.Path)
		if p.Path != "" {
			pages = append(pages, p)
		}
	}
	e.VisitedPages = pages
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
