// Package assistant is the session/context engine: per-turn context assembly,
// plan synthesis decisions, and the mode state machine routing user input.
package assistant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/psps16/fitness-ai/internal/models"
	"github.com/psps16/fitness-ai/internal/storage"
)

// ErrProfileNotFound signals a contract violation: context assembly before
// onboarding completed for the username.
var ErrProfileNotFound = errors.New("assistant: profile not found")

// PlaceholderNone stands in for absent plans and empty history so the model
// always receives a fixed-shape context.
const PlaceholderNone = "none yet"

// Store slices the assembler reads. The sqlite store satisfies all of them.

type ProfileStore interface {
	GetUserByUsername(username string) (models.User, error)
	UpdateProfile(userID string, profile models.UserProfile) error
}

type PlanStore interface {
	GetPlan(userID string, kind models.PlanKind) (models.Plan, error)
	SavePlan(plan models.Plan) error
}

type HistoryStore interface {
	AppendMessages(userID string, messages ...models.Message) error
	RecentMessages(userID string, n int) ([]models.Message, error)
}

// Context is the fixed-shape payload handed to the model for one chat turn:
// profile summary with derived fields, both plan bodies, and recency-ordered
// history. Absent pieces carry explicit placeholders rather than being
// omitted.
type Context struct {
	Username    string
	Profile     models.UserProfile
	WorkoutPlan string
	DietPlan    string
	History     []models.Message
}

// Assembler builds chat contexts from persisted state. Pure read; it never
// writes through any store.
type Assembler struct {
	profiles ProfileStore
	plans    PlanStore
	history  HistoryStore
	window   int
}

// NewAssembler wires the assembler. window is the number of history entries
// included per build (an exchange is two entries).
func NewAssembler(profiles ProfileStore, plans PlanStore, history HistoryStore, window int) *Assembler {
	if window <= 0 {
		window = 10
	}
	return &Assembler{profiles: profiles, plans: plans, history: history, window: window}
}

// Build assembles the context for username. A missing profile is a
// programming-contract violation (onboarding must have completed) and returns
// ErrProfileNotFound; missing plans and empty history are expected for fresh
// users and substituted with placeholders.
func (a *Assembler) Build(username string) (*Context, error) {
	user, err := a.profiles.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, username)
		}
		return nil, err
	}

	c := &Context{
		Username:    username,
		Profile:     user.Profile,
		WorkoutPlan: PlaceholderNone,
		DietPlan:    PlaceholderNone,
	}

	if plan, err := a.plans.GetPlan(user.ID, models.PlanWorkout); err == nil {
		c.WorkoutPlan = plan.Body
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if plan, err := a.plans.GetPlan(user.ID, models.PlanDiet); err == nil {
		c.DietPlan = plan.Body
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	history, err := a.history.RecentMessages(user.ID, a.window*2)
	if err != nil {
		return nil, err
	}
	c.History = history

	return c, nil
}

// ProfileSummary renders the profile block shared by the system prompt and
// the plan synthesis prompts. BMI is recomputed here on every call.
func (c *Context) ProfileSummary() string {
	return profileSummary(c.Profile)
}

func profileSummary(p models.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Name: %s\n", p.Name)
	fmt.Fprintf(&b, "- Age: %d\n", p.Age)
	fmt.Fprintf(&b, "- Height: %.1f cm\n", p.HeightCM)
	fmt.Fprintf(&b, "- Weight: %.1f kg\n", p.WeightKG)
	fmt.Fprintf(&b, "- BMI: %.2f (%s)\n", p.BMI(), p.BMICategory())
	fmt.Fprintf(&b, "- Activity Level: %s\n", p.ActivityLevel)
	fmt.Fprintf(&b, "- Fitness Goal: %s\n", p.FitnessGoal)
	fmt.Fprintf(&b, "- Dietary Preference: %s", p.DietaryPreference)
	if p.BloodGroup != "" {
		fmt.Fprintf(&b, "\n- Blood Group: %s", p.BloodGroup)
	}
	return b.String()
}
