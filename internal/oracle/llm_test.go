package oracle

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/resilience"
)

// scriptedCompleter returns canned answers in order, repeating the last one.
type scriptedCompleter struct {
	mu      sync.Mutex
	answers []string
	errs    []error
	prompts []string
}

func (s *scriptedCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if len(s.answers) == 0 {
		return "", errors.New("no answer")
	}
	if i >= len(s.answers) {
		i = len(s.answers) - 1
	}
	return s.answers[i], nil
}

func newTestOracle(c Completer) *LLMOracle {
	guard := resilience.NewGuard("test",
		resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		resilience.CircuitBreakerConfig{FailureThreshold: 100},
	)
	return NewLLMOracle(c, WithGuard(guard), WithTimeout(time.Second))
}

func testProfile() model.TargetProfile {
	return model.TargetProfile{
		Name:            "Mid-market SaaS",
		Industries:      []string{"SaaS", "Fintech"},
		CompanySizeMin:  50,
		CompanySizeMax:  1000,
		Regions:         []string{"North America"},
		TargetJobTitles: []string{"VP Engineering", "CTO"},
	}
}

func TestScoreICPFit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		answer string
		want   ICPResult
	}{
		{
			name:   "well formed",
			answer: `{"score": 92, "tier": "A", "explanation": "Strong SaaS fit", "confidence": 0.85}`,
			want:   ICPResult{Score: 92, Tier: model.TierA, Explanation: "Strong SaaS fit", Confidence: 0.85},
		},
		{
			name:   "fenced with prose",
			answer: "Here you go:\n```json\n{\"score\": 71, \"tier\": \"b\", \"explanation\": \"ok\", \"confidence\": 0.6}\n```",
			want:   ICPResult{Score: 71, Tier: model.TierB, Explanation: "ok", Confidence: 0.6},
		},
		{
			name:   "tier derived and values clamped",
			answer: `{"score": 140, "tier": "Z", "confidence": 3}`,
			want:   ICPResult{Score: 100, Tier: model.TierA, Confidence: 1},
		},
		{
			name:   "numeric strings",
			answer: `{"score": "55", "confidence": "0.4"}`,
			want:   ICPResult{Score: 55, Tier: model.TierC, Confidence: 0.4},
		},
		{
			name:   "negative score",
			answer: `{"score": -5}`,
			want:   ICPResult{Score: 0, Tier: model.TierD, Confidence: 0.5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := newTestOracle(&scriptedCompleter{answers: []string{tt.answer}})
			got := o.ScoreICPFit(context.Background(), model.EventCompany{Name: "Acme", Domain: "acme.io"}, testProfile())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreICPFit_PromptCarriesProfile(t *testing.T) {
	t.Parallel()
	c := &scriptedCompleter{answers: []string{`{"score": 80}`}}
	newTestOracle(c).ScoreICPFit(context.Background(), model.EventCompany{Name: "Acme", Domain: "acme.io"}, testProfile())

	require.Len(t, c.prompts, 1)
	assert.Contains(t, c.prompts[0], "Domain: acme.io")
	assert.Contains(t, c.prompts[0], "SaaS, Fintech")
	assert.Contains(t, c.prompts[0], "50 - 1000 employees")
}

func TestScoreICPFit_Fallbacks(t *testing.T) {
	t.Parallel()
	for name, c := range map[string]*scriptedCompleter{
		"backend error": {errs: []error{errors.New("boom")}},
		"not json":      {answers: []string{"I think this company is great"}},
		"missing score": {answers: []string{`{"tier": "A"}`}},
		"array":         {answers: []string{`[1, 2, 3]`}},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := newTestOracle(c).ScoreICPFit(context.Background(), model.EventCompany{Domain: "acme.io"}, testProfile())
			assert.Equal(t, FallbackICP(), got)
			assert.True(t, got.Fallback)
			assert.Equal(t, 50, got.Score)
			assert.Equal(t, model.TierC, got.Tier)
		})
	}
}

func TestScoreICPFit_RetriesTransient(t *testing.T) {
	t.Parallel()
	c := &scriptedCompleter{
		errs:    []error{resilience.NewTransientError(errors.New("overloaded"), 529)},
		answers: []string{"", `{"score": 75, "tier": "B"}`},
	}
	got := newTestOracle(c).ScoreICPFit(context.Background(), model.EventCompany{Domain: "acme.io"}, testProfile())
	assert.False(t, got.Fallback)
	assert.Equal(t, 75, got.Score)
	assert.Len(t, c.prompts, 2)
}

func TestInferPersona(t *testing.T) {
	t.Parallel()
	o := newTestOracle(&scriptedCompleter{answers: []string{`{"persona": "technical evaluator", "confidence": 0.8, "reasoning": "Viewed API docs"}`}})
	got := o.InferPersona(context.Background(), []string{"/docs/api", "/integrations"})
	assert.Equal(t, PersonaResult{Persona: model.PersonaTechnicalEvaluator, Confidence: 0.8, Reasoning: "Viewed API docs"}, got)

	o = newTestOracle(&scriptedCompleter{answers: []string{`{"persona": "Champion", "confidence": 0.9}`}})
	got = o.InferPersona(context.Background(), []string{"/blog"})
	assert.Equal(t, FallbackPersona(), got)
	assert.Equal(t, model.PersonaOther, got.Persona)
}

func TestInferBuyingStage(t *testing.T) {
	t.Parallel()
	c := &scriptedCompleter{answers: []string{`{"stage": "Evaluate", "intentScore": 7, "explanation": "Pricing then security", "nextAction": "Offer a technical session"}`}}
	got := newTestOracle(c).InferBuyingStage(context.Background(), []string{"/pricing", "/security"})
	assert.Equal(t, model.StageEvaluate, got.Stage)
	assert.Equal(t, 3, got.IntentScore)
	assert.Equal(t, "Offer a technical session", got.NextAction)
	assert.False(t, got.Fallback)
	assert.Contains(t, c.prompts[0], "/pricing\n/security")

	got = newTestOracle(&scriptedCompleter{answers: []string{`{"stage": "Negotiation"}`}}).InferBuyingStage(context.Background(), nil)
	assert.Equal(t, FallbackStage(), got)
	assert.Equal(t, model.StageExplore, got.Stage)
}

func TestScorePersonaFit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		answer    string
		wantScore float64
		wantMatch string
		fallback  bool
	}{
		{`{"score": 0.9, "matchedPersona": "Technical Leader"}`, 0.9, "Technical Leader", false},
		{`{"score": 85}`, 0.85, "Unknown", false},
		{`{"score": 1.0, "matchedPersona": "CTO"}`, 1.0, "CTO", false},
		{`{"score": 250}`, 1.0, "Unknown", false},
		{`{"score": 1.2, "matchedPersona": "CTO"}`, 1.0, "CTO", false},
		{`{"score": 1.99}`, 1.0, "Unknown", false},
		{`{"score": 2}`, 0.02, "Unknown", false},
		{`{"matchedPersona": "CTO"}`, 0.5, "Unknown", true},
		{`nonsense`, 0.5, "Unknown", true},
	}
	for _, tt := range tests {
		got := newTestOracle(&scriptedCompleter{answers: []string{tt.answer}}).ScorePersonaFit(context.Background(), "VP of Engineering", []string{"CTO"})
		assert.InDelta(t, tt.wantScore, got.Score, 0.0001, tt.answer)
		assert.Equal(t, tt.wantMatch, got.MatchedPersona, tt.answer)
		assert.Equal(t, tt.fallback, got.Fallback, tt.answer)
	}
}

func TestGenerateOutreachCopy(t *testing.T) {
	t.Parallel()
	c := &scriptedCompleter{answers: []string{`{"subject": "Security review help", "body": "Hi Dana, ..."}`}}
	got := newTestOracle(c).GenerateOutreachCopy(context.Background(), OutreachRequest{
		Audience:    AudienceVisitor,
		CompanyName: "Acme",
		ContactName: "Dana",
		Persona:     "Economic Buyer",
		Stage:       model.StageEvaluate,
		Pages:       []string{"/pricing", "/security"},
	})
	assert.Equal(t, Outreach{Subject: "Security review help", Body: "Hi Dana, ..."}, got)
	assert.Contains(t, c.prompts[0], "Pages Visited: /pricing, /security")
}

func TestGenerateOutreachCopy_EnrichedPromptOmitsPages(t *testing.T) {
	t.Parallel()
	c := &scriptedCompleter{answers: []string{`{"subject": "s", "body": "b"}`}}
	newTestOracle(c).GenerateOutreachCopy(context.Background(), OutreachRequest{
		Audience:     AudienceEnriched,
		CompanyName:  "Stripe",
		ContactName:  "Pat",
		ContactTitle: "CTO",
		Stage:        model.StagePurchase,
		Pages:        []string{"/secret"},
	})
	assert.Contains(t, c.prompts[0], "Company Industry: fintech")
	assert.Contains(t, c.prompts[0], "Pat (CTO)")
	assert.NotContains(t, c.prompts[0], "/secret")
}

func TestGenerateOutreachCopy_Fallbacks(t *testing.T) {
	t.Parallel()
	visitor := OutreachRequest{Audience: AudienceVisitor, CompanyName: "Acme"}
	got := newTestOracle(&scriptedCompleter{answers: []string{`{"subject": ""}`}}).GenerateOutreachCopy(context.Background(), visitor)
	assert.True(t, got.Fallback)
	assert.Equal(t, "Following up on your visit to our site", got.Subject)
	assert.True(t, strings.HasPrefix(got.Body, "Hi there,"))

	enriched := OutreachRequest{Audience: AudienceEnriched, CompanyName: "Acme", ContactName: "Pat", Stage: model.StageExplore}
	got = newTestOracle(&scriptedCompleter{errs: []error{errors.New("down")}}).GenerateOutreachCopy(context.Background(), enriched)
	assert.Equal(t, "Resources for Acme's Explore stage", got.Subject)
	assert.True(t, strings.HasPrefix(got.Body, "Hi Pat,"))
}

func TestOracle_OpenCircuitUsesFallback(t *testing.T) {
	t.Parallel()
	c := &scriptedCompleter{errs: []error{errors.New("down"), errors.New("down"), errors.New("down")}}
	guard := resilience.NewGuard("test", resilience.RetryConfig{MaxAttempts: 1}, resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	o := NewLLMOracle(c, WithGuard(guard))

	assert.True(t, o.InferPersona(context.Background(), nil).Fallback)
	assert.True(t, o.InferPersona(context.Background(), nil).Fallback)
	assert.Len(t, c.prompts, 1, "open circuit should not reach the backend")
}

func TestIndustryHint(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "fintech", industryHint("Stripe, Inc."))
	assert.Equal(t, "e-commerce", industryHint("Shopify"))
	assert.Equal(t, "monitoring/observability", industryHint("Datadog"))
	assert.Equal(t, "technology", industryHint("Acme"))
}
