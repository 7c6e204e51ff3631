package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/leadscout/internal/scorer"
)

// Verification is the result of checking a candidate's current employer.
type Verification struct {
	Verified bool
	Role     string
	Employer string
	Reason   string
}

// VerifyCandidateEmployer opens the candidate's profile and checks that the
// first listed position is at company. Errors produce an unverified result
// with the reason.
func (s *Session) VerifyCandidateEmployer(ctx context.Context, c scorer.Candidate, company string) Verification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return Verification{Reason: "Verification failed: " + err.Error()}
	}
	defer s.setState(StateIdle)
	s.setState(StateVerifyingCandidate)
	return s.verifyCandidate(ctx, c, company)
}

func (s *Session) verifyCandidate(ctx context.Context, c scorer.Candidate, company string) Verification {
	if err := s.visit(ctx, c.ProfileURL, s.opts.Timing.Settle); err != nil {
		return Verification{Reason: "Verification failed: " + err.Error()}
	}
	html, err := s.page.HTML(ctx)
	if err != nil {
		return Verification{Reason: "Verification failed: " + err.Error()}
	}
	pos, reason, err := ParseCurrentPosition(html)
	if err != nil {
		return Verification{Reason: "Verification failed: " + err.Error()}
	}
	if reason != "" {
		return Verification{Reason: reason}
	}
	return checkEmployer(pos, company)
}

func checkEmployer(pos Position, company string) Verification {
	v := Verification{Role: pos.Role, Employer: pos.Employer}
	switch {
	case pos.Employer == "":
		v.Reason = "Could not determine current company"
	case strings.Contains(fold(pos.Employer), fold(company)):
		v.Verified = true
		v.Reason = "Confirmed current role"
	default:
		v.Reason = fmt.Sprintf("Works at %s, not %s", pos.Employer, company)
	}
	return v
}
