package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/indureport/indureportgo/internal/models"
)

// Summarizer produces short plain-language summaries of reports for
// supervisors reviewing a backlog.
type Summarizer struct {
	client *GeminiClient
}

// NewSummarizer wraps a Gemini client
func NewSummarizer(client *GeminiClient) *Summarizer {
	return &Summarizer{client: client}
}

// SummarizeReport asks the model for a 2-3 sentence summary of one report,
// including a suggested follow-up action.
func (s *Summarizer) SummarizeReport(ctx context.Context, r *models.Report) (string, error) {
	prompt := buildReportPrompt(r)
	text, err := s.client.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to summarize report %s: %w", r.ID, err)
	}
	return strings.TrimSpace(text), nil
}

func buildReportPrompt(r *models.Report) string {
	var b strings.Builder
	b.WriteString("You are assisting a plant supervisor. Summarize the following ")
	b.WriteString("industrial report in 2-3 sentences and suggest one follow-up action.\n\n")
	fmt.Fprintf(&b, "Type: %s\n", r.Type)
	fmt.Fprintf(&b, "Area: %s\n", r.Area)
	if r.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", r.Location)
	}
	if r.MaintenanceType != "" {
		fmt.Fprintf(&b, "Maintenance type: %s\n", r.MaintenanceType)
	}
	fmt.Fprintf(&b, "Shift: %s\n", r.ShiftType)
	fmt.Fprintf(&b, "Priority: %s\n", r.Priority)
	if r.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", r.Title)
	}
	fmt.Fprintf(&b, "Description: %s\n", r.Description)
	b.WriteString("\nAnswer in plain text, no markdown.")
	return b.String()
}
