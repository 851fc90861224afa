package assistant

import (
	"fmt"

	"github.com/psps16/fitness-ai/internal/llm"
	"github.com/psps16/fitness-ai/internal/models"
)

// SystemPrompt renders the per-turn system instruction from the assembled
// context. The shape is fixed: profile, both plans, behavioural instructions.
func (c *Context) SystemPrompt() string {
	return fmt.Sprintf(`You are FitAI, an intelligent fitness assistant helping a user named %s.

USER PROFILE:
%s

CURRENT WORKOUT PLAN:
%s

CURRENT DIET PLAN:
%s

INSTRUCTIONS:
1. Keep responses conversational, friendly, and encouraging.
2. When the user asks about their workout or diet plan, answer from the current plan above.
3. If the user wants to change their information or plans, ask follow-up questions to gather what is missing.
4. Always focus on healthy, sustainable fitness advice.
5. Format answers in markdown.`,
		c.Profile.Name, c.ProfileSummary(), c.WorkoutPlan, c.DietPlan)
}

// HistoryTurns converts the recency-ordered history into model chat turns.
func (c *Context) HistoryTurns() []llm.ChatTurn {
	turns := make([]llm.ChatTurn, 0, len(c.History))
	for _, m := range c.History {
		role := "user"
		if m.Role == models.RoleAssistant {
			role = "model"
		}
		turns = append(turns, llm.ChatTurn{Role: role, Text: m.Text})
	}
	return turns
}

func generatePrompt(profile models.UserProfile, kind models.PlanKind) string {
	what := "a weekly workout schedule with specific exercises, sets, reps, and rest periods"
	if kind == models.PlanDiet {
		what = "a daily meal plan with specific food recommendations and macronutrient targets"
	}
	return fmt.Sprintf(`Based on the following user profile, generate a personalized %s plan:
%s.
Make the plan detailed, realistic, and tailored to this individual, aligned with
their fitness goal and BMI category. Respond in markdown with a single plan only.

USER PROFILE:
%s`, kind, what, profileSummary(profile))
}

func revisePrompt(current models.Plan, feedback string) string {
	return fmt.Sprintf(`The user gave feedback on their current %s. Produce an updated plan that
addresses the feedback. Keep every part of the current plan that the feedback
does not touch; change only what the feedback asks for. Respond in markdown
with the complete updated plan only.

CURRENT %s:
%s

USER FEEDBACK:
%s`, current.Kind.Title(), current.Kind.Title(), current.Body, feedback)
}
