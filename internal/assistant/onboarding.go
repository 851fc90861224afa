package assistant

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/psps16/fitness-ai/internal/models"
	"github.com/psps16/fitness-ai/internal/storage"
)

// Onboarding is a fixed question sequence. Nothing is persisted until the
// last answer is accepted: an interrupted onboarding leaves no partial
// profile behind.

type onboardingStep int

const (
	obName onboardingStep = iota
	obAge
	obHeight
	obWeight
	obBloodGroup
	obActivity
	obGoal
	obDietaryPreference
	obDone
)

type onboardingFlow struct {
	username string
	secret   string
	step     onboardingStep
	profile  models.UserProfile
}

func newOnboardingFlow(username, secret string) *onboardingFlow {
	return &onboardingFlow{username: username, secret: secret}
}

func (f *onboardingFlow) prompt() Output {
	switch f.step {
	case obName:
		return prompt("What's your name?")
	case obAge:
		return prompt("What's your age?")
	case obHeight:
		return prompt("What's your height in centimeters?")
	case obWeight:
		return prompt("What's your weight in kilograms?")
	case obBloodGroup:
		return prompt("What's your blood group? (optional, press Enter to skip)")
	case obActivity:
		return prompt("What's your activity level?\n" + numbered(models.ActivityLevels))
	case obGoal:
		return prompt("What's your primary fitness goal?\n" + numbered(models.FitnessGoals))
	case obDietaryPreference:
		return prompt("What's your dietary preference?\n" + numbered(models.DietaryPreferences))
	}
	return Output{}
}

// answer consumes one line. It returns the next prompt, or a validation
// message followed by the same prompt; done is true once the profile is
// complete.
func (f *onboardingFlow) answer(line string) (done bool, out Output) {
	line = strings.TrimSpace(line)

	reject := func(hint string) (bool, Output) {
		out := f.prompt()
		out.Err = true
		out.Notices = append([]string{hint}, out.Notices...)
		return false, out
	}

	switch f.step {
	case obName:
		if line == "" {
			return reject("Please tell me your name.")
		}
		f.profile.Name = line
	case obAge:
		age, err := strconv.Atoi(line)
		if err != nil || age < 12 || age > 120 {
			return reject("Please enter a valid age between 12 and 120.")
		}
		f.profile.Age = age
	case obHeight:
		height, err := strconv.ParseFloat(line, 64)
		if err != nil || height < 100 || height > 250 {
			return reject("Please enter a valid height between 100 and 250 cm.")
		}
		f.profile.HeightCM = height
	case obWeight:
		weight, err := strconv.ParseFloat(line, 64)
		if err != nil || weight < 30 || weight > 300 {
			return reject("Please enter a valid weight between 30 and 300 kg.")
		}
		f.profile.WeightKG = weight
	case obBloodGroup:
		f.profile.BloodGroup = line
	case obActivity:
		choice, ok := pickOption(models.ActivityLevels, line)
		if !ok {
			return reject(fmt.Sprintf("Please enter a number between 1 and %d.", len(models.ActivityLevels)))
		}
		f.profile.ActivityLevel = choice
	case obGoal:
		choice, ok := pickOption(models.FitnessGoals, line)
		if !ok {
			return reject(fmt.Sprintf("Please enter a number between 1 and %d.", len(models.FitnessGoals)))
		}
		f.profile.FitnessGoal = choice
	case obDietaryPreference:
		choice, ok := pickOption(models.DietaryPreferences, line)
		if !ok {
			return reject(fmt.Sprintf("Please enter a number between 1 and %d.", len(models.DietaryPreferences)))
		}
		f.profile.DietaryPreference = choice
	}

	f.step++
	if f.step == obDone {
		return true, Output{}
	}
	return false, f.prompt()
}

func numbered(options []string) string {
	var b strings.Builder
	for i, o := range options {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, o)
	}
	b.WriteString("Enter the number of your choice:")
	return b.String()
}

func pickOption(options []string, line string) (string, bool) {
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(options) {
		return "", false
	}
	return options[n-1], true
}

func (c *Controller) handleOnboarding(ctx context.Context, line string) (Output, error) {
	// Onboarding must complete; exiting mid-way would leave no account at all.
	if cmd, ok := ParseCommand(line); ok && cmd == CmdExit {
		out := c.onboarding.prompt()
		out.Err = true
		out.Notices = append([]string{"Please finish setting up your profile first."}, out.Notices...)
		return out, nil
	}

	done, out := c.onboarding.answer(line)
	if !done {
		return out, nil
	}
	return c.completeOnboarding(ctx)
}

// completeOnboarding persists the account and profile in one step, generates
// both initial plans, and enters command mode.
func (c *Controller) completeOnboarding(ctx context.Context) (Output, error) {
	flow := c.onboarding
	c.onboarding = nil

	user, err := c.verifier.Register(flow.username, flow.secret, flow.profile)
	if err != nil {
		if errors.Is(err, storage.ErrUsernameExists) {
			c.session.Mode = ModeAuth
			c.authState = authAskUsername
			out := errMessage("That username was taken in the meantime. Please log in again.")
			out.Notices = []string{"Username (new or existing):"}
			return out, nil
		}
		return Output{}, err
	}

	c.session.User = user
	c.session.Mode = ModeCommand
	c.log.Info("user onboarded", zap.String("username", user.Username))

	out := Output{Kind: OutPlans}
	out.Notices = append(out.Notices, "Registration successful! Generating your personalized plans...")
	for _, kind := range []models.PlanKind{models.PlanWorkout, models.PlanDiet} {
		plan, err := c.synth.Generate(ctx, user.ID, user.Profile, kind)
		if err != nil {
			if errors.Is(err, ErrSynthesisFailed) {
				out.Notices = append(out.Notices, fmt.Sprintf("Could not generate your %s yet; use /update to retry later.", kind.Title()))
				continue
			}
			return Output{}, err
		}
		out.Plans = append(out.Plans, plan)
	}
	out.Notices = append(out.Notices, "Type /chat to talk to your assistant, or /help for all commands.")
	return out, nil
}
