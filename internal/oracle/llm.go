package oracle

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscout/internal/model"
	"github.com/sells-group/leadscout/internal/resilience"
)

// Completer sends one prompt to a language model and returns its raw text.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// LLMOracle implements Oracle over a Completer guarded by retry and a
// circuit breaker.
type LLMOracle struct {
	completer Completer
	guard     *resilience.Guard
	timeout   time.Duration
}

// Option configures an LLMOracle.
type Option func(*LLMOracle)

// WithTimeout bounds each oracle call.
func WithTimeout(d time.Duration) Option {
	return func(o *LLMOracle) { o.timeout = d }
}

// WithGuard replaces the default retry and circuit breaker.
func WithGuard(g *resilience.Guard) Option {
	return func(o *LLMOracle) { o.guard = g }
}

// NewLLMOracle creates an Oracle backed by c.
func NewLLMOracle(c Completer, opts ...Option) *LLMOracle {
	o := &LLMOracle{completer: c, timeout: 60 * time.Second}
	for _, opt := range opts {
		opt(o)
	}
	if o.guard == nil {
		o.guard = resilience.NewGuard("oracle", resilience.DefaultRetryConfig(), resilience.DefaultCircuitBreakerConfig())
	}
	return o
}

var _ Oracle = (*LLMOracle)(nil)

// ask runs one guarded completion and decodes the answer. A non-nil error
// means the caller must use its fallback.
func (o *LLMOracle) ask(ctx context.Context, operation, prompt string) (loose, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	raw, err := resilience.Call(ctx, o.guard, operation, func(ctx context.Context) (string, error) {
		return o.completer.Complete(ctx, systemPrompt, prompt)
	})
	if err != nil {
		return nil, err
	}
	return decodeLoose(raw)
}

func warnFallback(operation string, err error) {
	zap.L().Warn("oracle: using fallback",
		zap.String("operation", operation),
		zap.Error(err),
	)
}

// ScoreICPFit implements Oracle.
func (o *LLMOracle) ScoreICPFit(ctx context.Context, company model.EventCompany, profile model.TargetProfile) ICPResult {
	const op = "score_icp_fit"
	ans, err := o.ask(ctx, op, buildICPPrompt(company, profile))
	if err != nil {
		warnFallback(op, err)
		return FallbackICP()
	}

	score, ok := ans.number("score")
	if !ok {
		warnFallback(op, eris.New("missing or non-numeric score"))
		return FallbackICP()
	}
	res := ICPResult{
		Score:       int(math.Round(clamp(score, 0, 100))),
		Explanation: ans.text("explanation"),
		Confidence:  0.5,
	}

	res.Tier = model.Tier(strings.ToUpper(ans.text("tier")))
	if !res.Tier.Valid() {
		res.Tier = model.TierForScore(res.Score)
	}
	if c, ok := ans.number("confidence"); ok {
		res.Confidence = clamp(c, 0, 1)
	}
	return res
}

// InferPersona implements Oracle.
func (o *LLMOracle) InferPersona(ctx context.Context, pages []string) PersonaResult {
	const op = "infer_persona"
	ans, err := o.ask(ctx, op, fmt.Sprintf(personaPrompt, strings.Join(pages, "\n")))
	if err != nil {
		warnFallback(op, err)
		return FallbackPersona()
	}

	persona, ok := model.ParsePersona(ans.text("persona"))
	if !ok {
		warnFallback(op, eris.Errorf("unknown persona %q", ans.text("persona")))
		return FallbackPersona()
	}
	res := PersonaResult{Persona: persona, Confidence: 0.5, Reasoning: ans.text("reasoning")}
	if c, ok := ans.number("confidence"); ok {
		res.Confidence = clamp(c, 0, 1)
	}
	return res
}

// InferBuyingStage implements Oracle. pages must be in visit order.
func (o *LLMOracle) InferBuyingStage(ctx context.Context, pages []string) StageResult {
	const op = "infer_buying_stage"
	ans, err := o.ask(ctx, op, fmt.Sprintf(stagePrompt, strings.Join(pages, "\n")))
	if err != nil {
		warnFallback(op, err)
		return FallbackStage()
	}

	stage, ok := model.ParseBuyingStage(ans.text("stage"))
	if !ok {
		warnFallback(op, eris.Errorf("unknown stage %q", ans.text("stage")))
		return FallbackStage()
	}
	res := StageResult{
		Stage:       stage,
		IntentScore: 1,
		Explanation: ans.text("explanation"),
		NextAction:  ans.text("nextAction"),
	}
	if n, ok := ans.number("intentScore"); ok {
		res.IntentScore = int(math.Round(clamp(n, 0, 3)))
	}
	return res
}

// ScorePersonaFit implements Oracle.
func (o *LLMOracle) ScorePersonaFit(ctx context.Context, title string, targets []string) FitResult {
	const op = "score_persona_fit"
	ans, err := o.ask(ctx, op, fmt.Sprintf(fitPrompt, title, strings.Join(targets, ", ")))
	if err != nil {
		warnFallback(op, err)
		return FallbackFit()
	}

	score, ok := ans.number("score")
	if !ok {
		warnFallback(op, eris.New("missing or non-numeric score"))
		return FallbackFit()
	}
	// Some models answer on a 0-100 scale despite the instructions. Values
	// just above 1 are overshoot on the 0-1 scale and clamp instead.
	if score >= 2 && score <= 100 {
		score /= 100
	}
	return FitResult{
		Score:          clamp(score, 0, 1),
		MatchedPersona: orDefault(ans.text("matchedPersona"), "Unknown"),
		Reasoning:      ans.text("reasoning"),
	}
}

// GenerateOutreachCopy implements Oracle.
func (o *LLMOracle) GenerateOutreachCopy(ctx context.Context, req OutreachRequest) Outreach {
	const op = "generate_outreach_copy"
	ans, err := o.ask(ctx, op, buildOutreachPrompt(req))
	if err != nil {
		warnFallback(op, err)
		return FallbackOutreach(req)
	}

	out := Outreach{Subject: ans.text("subject"), Body: ans.text("body")}
	if out.Subject == "" || out.Body == "" {
		warnFallback(op, eris.New("empty subject or body"))
		return FallbackOutreach(req)
	}
	return out
}
