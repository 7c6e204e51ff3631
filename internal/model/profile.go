package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// TargetProfile is the ideal-customer configuration companies are scored
// against. At most one profile is active at a time.
type TargetProfile struct {
	ID              int64     `json:"id,omitempty" yaml:"-"`
	Name            string    `json:"name" yaml:"name"`
	Industries      []string  `json:"industries" yaml:"industries"`
	CompanySizeMin  int       `json:"company_size_min" yaml:"company_size_min"`
	CompanySizeMax  int       `json:"company_size_max" yaml:"company_size_max"`
	Regions         []string  `json:"regions" yaml:"regions"`
	TargetJobTitles []string  `json:"target_job_titles" yaml:"target_job_titles"`
	TechStack       []string  `json:"tech_stack" yaml:"tech_stack"`
	PainPoints      []string  `json:"pain_points" yaml:"pain_points"`
	Active          bool      `json:"is_active" yaml:"-"`
	CreatedAt       time.Time `json:"created_at,omitzero" yaml:"-"`
}

// Validate checks the profile is usable for scoring.
func (p *TargetProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return eris.Wrap(ErrInvalidProfile, "name is required")
	}
	if p.CompanySizeMax > 0 && p.CompanySizeMin > p.CompanySizeMax {
		return eris.Wrapf(ErrInvalidProfile, "company_size_min %d exceeds company_size_max %d", p.CompanySizeMin, p.CompanySizeMax)
	}
	return nil
}
