package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-qualifier/internal/model"
	"github.com/sells-group/lead-qualifier/pkg/anthropic"
)

const analyzerSystemPrompt = `You are a lead qualification expert. Analyze the lead and respond with a JSON object containing exactly these fields: score_adjustment (integer, -10 to +10), reasoning (1-2 sentences), detailed_analysis (one paragraph). Respond with JSON only.`

// ClaudeAnalyzer implements Analyzer on the Anthropic Messages API.
type ClaudeAnalyzer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaudeAnalyzer creates an analyzer using the given model.
func NewClaudeAnalyzer(client anthropic.Client, modelID string, maxTokens int64) *ClaudeAnalyzer {
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &ClaudeAnalyzer{client: client, model: modelID, maxTokens: maxTokens}
}

// Analyze requests a scoring adjustment. The returned adjustment is clamped
// to [-10, 10] regardless of what the model says.
func (a *ClaudeAnalyzer) Analyze(ctx context.Context, lead model.Lead, enrichment model.EnrichmentResult, breakdown model.ScoringBreakdown) (Adjustment, error) {
	temp := 0.3
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      anthropic.BuildCachedSystemBlocks(analyzerSystemPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: buildAnalysisPrompt(lead, enrichment, breakdown)}},
		Temperature: &temp,
	})
	if err != nil {
		return Adjustment{}, eris.Wrap(err, "scoring: llm analysis")
	}
	resp.Usage.LogCost(a.model, "qualification")

	var adj Adjustment
	if err := json.Unmarshal([]byte(cleanJSON(responseText(resp))), &adj); err != nil {
		return Adjustment{}, eris.Wrap(err, "scoring: parse llm response")
	}
	adj.ScoreAdjustment = clampAdjustment(adj.ScoreAdjustment)
	return adj, nil
}

func buildAnalysisPrompt(lead model.Lead, enrichment model.EnrichmentResult, breakdown model.ScoringBreakdown) string {
	co := enrichment.Company
	person := enrichment.Person

	tech := "Unknown"
	if len(co.TechStack) > 0 {
		stack := co.TechStack
		if len(stack) > 5 {
			stack = stack[:5]
		}
		tech = strings.Join(stack, ", ")
	}

	return fmt.Sprintf(`Analyze this inbound lead:

Email: %s
Message: %s

Enriched Data:
- Company: %s (%s)
- Size: %s employees
- Revenue: %s
- Contact: %s, %s
- Tech Stack: %s

Rule-Based Scores:
- Company Fit: %.0f/100
- Intent Signal: %.0f/100
- Budget Indicator: %.0f/100
- Urgency: %.0f/100

Provide a JSON response with score_adjustment, reasoning, and detailed_analysis.`,
		lead.Email,
		lead.Message,
		orUnknown(co.Name), orUnknown(co.Industry),
		countOrUnknown(co.EmployeeCount),
		orUnknown(co.EstimatedRevenue),
		orUnknown(person.FullName), orUnknown(person.Title),
		tech,
		breakdown.CompanyFit,
		breakdown.IntentSignal,
		breakdown.BudgetIndicator,
		breakdown.Urgency,
	)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func countOrUnknown(n int) string {
	if n <= 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%d", n)
}

func responseText(resp *anthropic.MessageResponse) string {
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "" || b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
