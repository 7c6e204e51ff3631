package oracle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/leadscout/internal/model"
)

const systemPrompt = `You are a B2B go-to-market analyst. Respond ONLY with a single valid JSON object and no other text.`

const icpPrompt = `Score this company's fit for our ideal customer profile.

Company Information:
- Domain: %s
- Name: %s
- Size: %s
- Industry: %s
- Region: %s

ICP Criteria:
- Target Industries: %s
- Company Size: %d - %s employees
- Regions: %s
- Tech Stack: %s
- Pain Points: %s

Based on the domain name and any inferences you can make, score the fit (0-100) and assign a tier (A/B/C/D where A=90-100, B=70-89, C=50-69, D=0-49).

Respond in this exact format:
{
  "score": <number 0-100>,
  "tier": "<A/B/C/D>",
  "explanation": "<brief explanation of the score>",
  "confidence": <number 0-1>
}`

const personaPrompt = `Identify the B2B buyer persona of a website visitor.

The visitor viewed these pages in order:
%s

Classify the visitor as one of these personas:
1. Economic Buyer - Views pricing, ROI, case studies, leadership content
2. Technical Evaluator - Views documentation, integrations, technical specs, API docs
3. Researcher - Views blog posts, guides, comparison content, educational material
4. Other - Doesn't fit the above patterns

Respond in this exact format:
{
  "persona": "<Economic Buyer|Technical Evaluator|Researcher|Other>",
  "confidence": <number 0-1>,
  "reasoning": "<brief explanation of classification>"
}`

const stagePrompt = `Identify the B2B buying stage of a website visitor.

The visitor viewed these pages in sequence:
%s

Classify their buying stage:
1. Educate - Learning about the problem space, reading blogs/guides
2. Explore - Exploring solutions, viewing product overviews, feature pages
3. Evaluate - Comparing options, viewing pricing, technical documentation, starting trials
4. Purchase - Ready to buy, viewing detailed pricing, contacting sales, enterprise info

Assign an intent score (0-3):
- 0: No buying intent (career pages, etc.)
- 1: Low intent (education phase)
- 2: Medium intent (exploration/evaluation)
- 3: High intent (ready to purchase)

Respond in this exact format:
{
  "stage": "<Educate|Explore|Evaluate|Purchase>",
  "intentScore": <0-3>,
  "explanation": "<1-2 sentence explanation based on the page visits>",
  "nextAction": "<recommended next action for this stage>"
}`

const fitPrompt = `Match a job title to buyer personas.

Job Title: %s
Target Buyer Personas: %s

Score how well this job title matches the target buyer personas (0-1 where 1 is a perfect match).

Respond in this exact format:
{
  "score": <number 0-1>,
  "matchedPersona": "<persona type>",
  "reasoning": "<brief explanation>"
}`

const visitorOutreachPrompt = `Write a personalized B2B outreach email.

Lead Information:
- Company: %s
- Contact: %s
- Title: %s
- Persona: %s
- Buying Stage: %s
- Pages Visited: %s

Guidelines by stage:
- Educate: Send helpful content, no meeting ask, focus on education
- Explore: Offer resources, light touch, answer questions
- Evaluate: Provide fast-track guide, optional technical session
- Purchase: Share ROI case studies, invite to meeting

Write a helpful email that is not pushy or salesy. Keep it under 150 words.

Respond in this exact format:
{
  "subject": "<email subject line>",
  "body": "<email body text>"
}`

const enrichedOutreachPrompt = `Write a personalized B2B outreach email for a decision maker.

Context:
- Company: %[1]s
- Contact: %[2]s (%[3]s)
- Contact Persona: %[4]s
- Company Industry: %[5]s
- Buying Stage: %[6]s

You are reaching out to a decision maker at %[1]s because their company appears to be in the %[6]s stage of evaluating solutions.

Guidelines:
- Focus on providing value based on their buying stage
- Don't reference specific individuals or page visits
- Acknowledge their role and expertise
- Keep it under 150 words and professional

Buying Stage Content Focus:
- Educate: Educational content, best practices, industry insights
- Explore: Solution overviews, feature comparisons, implementation guides
- Evaluate: Technical deep-dives, ROI case studies, proof-of-concept info
- Purchase: Implementation support, success stories, next steps

Respond in this exact format:
{
  "subject": "<email subject line>",
  "body": "<email body text>"
}`

func buildICPPrompt(c model.EventCompany, p model.TargetProfile) string {
	sizeMax := "unlimited"
	if p.CompanySizeMax > 0 {
		sizeMax = strconv.Itoa(p.CompanySizeMax)
	}
	return fmt.Sprintf(icpPrompt,
		c.Domain, orDefault(c.Name, "Unknown"), orDefault(c.Size, "Unknown"),
		orDefault(c.Industry, "Unknown"), orDefault(c.Region, "Unknown"),
		joinOr(p.Industries, "Any"), p.CompanySizeMin, sizeMax,
		joinOr(p.Regions, "Global"), joinOr(p.TechStack, "Any"), joinOr(p.PainPoints, "Any"))
}

func buildOutreachPrompt(req OutreachRequest) string {
	if req.Audience == AudienceEnriched {
		return fmt.Sprintf(enrichedOutreachPrompt,
			req.CompanyName, req.ContactName, orDefault(req.ContactTitle, "Unknown"),
			req.Persona, industryHint(req.CompanyName), req.Stage)
	}
	return fmt.Sprintf(visitorOutreachPrompt,
		req.CompanyName, orDefault(req.ContactName, "Unknown"), orDefault(req.ContactTitle, "Unknown"),
		req.Persona, req.Stage, strings.Join(req.Pages, ", "))
}

var industryHints = []struct {
	industry string
	names    []string
}{
	{"fintech", []string{"stripe", "paypal", "square"}},
	{"e-commerce", []string{"shopify", "amazon", "ebay"}},
	{"SaaS", []string{"hubspot", "salesforce", "zendesk"}},
	{"productivity software", []string{"atlassian", "slack", "notion"}},
	{"monitoring/observability", []string{"datadog", "newrelic", "splunk"}},
}

// industryHint guesses a coarse industry from well-known company names.
func industryHint(company string) string {
	name := strings.ToLower(company)
	for _, h := range industryHints {
		for _, n := range h.names {
			if strings.Contains(name, n) {
				return h.industry
			}
		}
	}
	return "technology"
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func joinOr(vals []string, def string) string {
	if len(vals) == 0 {
		return def
	}
	return strings.Join(vals, ", ")
}
