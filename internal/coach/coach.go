// Package coach generates plan text and conversational replies. Every entry
// point degrades to a fixed fallback string on provider failure: coaching
// output is never an error surface.
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Sana-Rashid-135/coach/internal/ai"
	"github.com/Sana-Rashid-135/coach/internal/checkin"
)

const planReplyPrefix = "Good morning! Here's your personalized daily plan:\n\n"

// Coach produces daily plans and general replies from the text generator.
type Coach struct {
	generator ai.TextGenerator
	prompts   *prompts
	logger    *slog.Logger
}

// New loads the prompt manifest and wires the generator.
func New(generator ai.TextGenerator, logger *slog.Logger) (*Coach, error) {
	p, err := loadPrompts()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Coach{generator: generator, prompts: p, logger: logger}, nil
}

// GeneratePlan produces plan text for a validated check-in. The three
// priorities / two wellness items / one motivational line structure is
// requested of the model, not enforced on its output. The result is always
// non-empty; provider failures yield the fixed fallback.
func (c *Coach) GeneratePlan(ctx context.Context, record *checkin.Checkin, userName string) string {
	plan, err := c.generator.Complete(ctx, c.prompts.Plan.System, buildPlanUserPrompt(record, userName), ai.Options{
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		c.logger.Warn("Plan generation failed, using fallback", "error", err.Error())
		return c.prompts.Plan.Fallback
	}
	if plan == "" {
		return c.prompts.Plan.EmptyFallback
	}
	return plan
}

// GeneralReply answers a message that did not contain a check-in. Same
// degradation contract as GeneratePlan: non-empty, never an error.
func (c *Coach) GeneralReply(ctx context.Context, message, userName string) string {
	reply, err := c.generator.Complete(ctx, c.prompts.General.System, buildGeneralUserPrompt(message, userName), ai.Options{
		MaxTokens:   300,
		Temperature: 0.7,
	})
	if err != nil {
		c.logger.Warn("General reply generation failed, using fallback", "error", err.Error())
		return c.prompts.General.Fallback
	}
	if reply == "" {
		return c.prompts.General.Fallback
	}
	return reply
}

// ComposePlanReply formats the outbound message for the check-in path.
func ComposePlanReply(planText string) string {
	return planReplyPrefix + planText
}

func buildPlanUserPrompt(record *checkin.Checkin, userName string) string {
	var b strings.Builder
	b.WriteString("Based on this morning check-in, create a personalized daily plan:\n\n")
	fmt.Fprintf(&b, "Sleep: %s\n", formatHours(record.Sleep))
	fmt.Fprintf(&b, "Mood: %s\n", formatScale(record.Mood))
	fmt.Fprintf(&b, "Energy: %s\n", formatScale(record.Energy))
	fmt.Fprintf(&b, "Notes: %s\n", record.Notes)
	if userName != "" {
		fmt.Fprintf(&b, "\nUser's name: %s\n", userName)
	}
	b.WriteString("\nPlease provide a daily plan with 3 priorities, 2 wellness activities, and 1 motivational line.")
	return b.String()
}

func buildGeneralUserPrompt(message, userName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User message: %s\n", message)
	if userName != "" {
		fmt.Fprintf(&b, "\nUser's name: %s\n", userName)
	}
	b.WriteString("\nRespond as their supportive coach. If this isn't a morning check-in, remind them about the format: \"Sleep __h | Mood __ | Energy __ | Notes: __\"")
	return b.String()
}

// formatHours renders an optional sleep value; absent fields read as
// "not reported" rather than a synthetic zero.
func formatHours(v *float64) string {
	if v == nil {
		return "not reported"
	}
	return fmt.Sprintf("%g hours", *v)
}

func formatScale(v *int) string {
	if v == nil {
		return "not reported"
	}
	return fmt.Sprintf("%d/10", *v)
}
