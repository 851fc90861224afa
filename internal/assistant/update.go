package assistant

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/psps16/fitness-ai/internal/models"
)

// The /update command runs a guided profile edit inside command mode: each
// attribute can be changed or kept with an empty answer, and the user decides
// at the end whether both plans should be regenerated from the new profile.

type updateStep int

const (
	updWeight updateStep = iota
	updHeight
	updActivity
	updGoal
	updDietaryPreference
	updRegenerate
	updDone
)

type updateFlow struct {
	step    updateStep
	profile models.UserProfile
	changed bool
}

func newUpdateFlow(profile models.UserProfile) *updateFlow {
	return &updateFlow{profile: profile}
}

func (f *updateFlow) prompt() Output {
	keep := " (press Enter to keep)"
	switch f.step {
	case updWeight:
		return prompt(fmt.Sprintf("Weight in kg (current: %.1f)%s:", f.profile.WeightKG, keep))
	case updHeight:
		return prompt(fmt.Sprintf("Height in cm (current: %.1f)%s:", f.profile.HeightCM, keep))
	case updActivity:
		return prompt(fmt.Sprintf("Activity level (current: %s)%s:\n%s", f.profile.ActivityLevel, keep, numbered(models.ActivityLevels)))
	case updGoal:
		return prompt(fmt.Sprintf("Fitness goal (current: %s)%s:\n%s", f.profile.FitnessGoal, keep, numbered(models.FitnessGoals)))
	case updDietaryPreference:
		return prompt(fmt.Sprintf("Dietary preference (current: %s)%s:\n%s", f.profile.DietaryPreference, keep, numbered(models.DietaryPreferences)))
	case updRegenerate:
		return prompt("Regenerate your workout and diet plans from the new profile? (y/n)")
	}
	return Output{}
}

// answer consumes one line; done is true when the flow has finished, with
// regenerate reporting the user's final choice.
func (f *updateFlow) answer(line string) (done, regenerate bool, out Output) {
	line = strings.TrimSpace(line)

	reject := func(hint string) (bool, bool, Output) {
		out := f.prompt()
		out.Err = true
		out.Notices = append([]string{hint}, out.Notices...)
		return false, false, out
	}

	switch f.step {
	case updWeight:
		if line != "" {
			weight, err := strconv.ParseFloat(line, 64)
			if err != nil || weight < 30 || weight > 300 {
				return reject("Please enter a valid weight between 30 and 300 kg.")
			}
			f.profile.WeightKG = weight
			f.changed = true
		}
	case updHeight:
		if line != "" {
			height, err := strconv.ParseFloat(line, 64)
			if err != nil || height < 100 || height > 250 {
				return reject("Please enter a valid height between 100 and 250 cm.")
			}
			f.profile.HeightCM = height
			f.changed = true
		}
	case updActivity:
		if line != "" {
			choice, ok := pickOption(models.ActivityLevels, line)
			if !ok {
				return reject(fmt.Sprintf("Please enter a number between 1 and %d.", len(models.ActivityLevels)))
			}
			f.profile.ActivityLevel = choice
			f.changed = true
		}
	case updGoal:
		if line != "" {
			choice, ok := pickOption(models.FitnessGoals, line)
			if !ok {
				return reject(fmt.Sprintf("Please enter a number between 1 and %d.", len(models.FitnessGoals)))
			}
			f.profile.FitnessGoal = choice
			f.changed = true
		}
	case updDietaryPreference:
		if line != "" {
			choice, ok := pickOption(models.DietaryPreferences, line)
			if !ok {
				return reject(fmt.Sprintf("Please enter a number between 1 and %d.", len(models.DietaryPreferences)))
			}
			f.profile.DietaryPreference = choice
			f.changed = true
		}
	case updRegenerate:
		f.step = updDone
		return true, strings.HasPrefix(strings.ToLower(line), "y"), Output{}
	}

	f.step++
	return false, false, f.prompt()
}

func (c *Controller) handleUpdateAnswer(ctx context.Context, line string) (Output, error) {
	done, regenerate, out := c.update.answer(line)
	if !done {
		return out, nil
	}

	flow := c.update
	c.update = nil
	user := &c.session.User

	if !flow.changed {
		return message("Profile unchanged."), nil
	}

	if err := c.profiles.UpdateProfile(user.ID, flow.profile); err != nil {
		return Output{}, err
	}
	user.Profile = flow.profile
	c.log.Info("profile updated", zap.String("username", user.Username))

	result := Output{Kind: OutProfile, Profile: &user.Profile}
	result.Notices = append(result.Notices, "Your profile has been updated!")

	if regenerate {
		for _, kind := range []models.PlanKind{models.PlanWorkout, models.PlanDiet} {
			plan, err := c.synth.Generate(ctx, user.ID, user.Profile, kind)
			if err != nil {
				if errors.Is(err, ErrSynthesisFailed) {
					result.Notices = append(result.Notices, fmt.Sprintf("Could not regenerate your %s; it is unchanged.", kind.Title()))
					continue
				}
				return Output{}, err
			}
			result.Notices = append(result.Notices, fmt.Sprintf("%s regenerated (revision %d).", plan.Kind.Title(), plan.Revision))
		}
	}
	return result, nil
}
