package assistant

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/psps16/fitness-ai/internal/models"
)

// Inline profile updates: chat messages like "I now weigh 68 kg" mutate the
// stored profile before the model sees the message, so the next context build
// already reflects the new attributes (and the recomputed BMI).

var weightPatterns = compile(
	`my weight is (?:now |currently )?(\d+\.?\d*)\s*(?:kg|kilos|kilograms)`,
	`i (?:now )?weigh (\d+\.?\d*)\s*(?:kg|kilos|kilograms)`,
	`my weight (?:has )?changed to (\d+\.?\d*)\s*(?:kg|kilos|kilograms)`,
	`update my weight to (\d+\.?\d*)\s*(?:kg|kilos|kilograms)`,
	`i am (?:now |currently )?(\d+\.?\d*)\s*(?:kg|kilos|kilograms)`,
)

var heightPatterns = compile(
	`my height is (?:now |currently )?(\d+\.?\d*)\s*(?:cm|centimeters)`,
	`i am (?:now )?(\d+\.?\d*)\s*(?:cm|centimeters) tall`,
	`update my height to (\d+\.?\d*)\s*(?:cm|centimeters)`,
)

var agePatterns = compile(
	`my age is (?:now |currently )?(\d+)`,
	`i am (?:now )?(\d+) years old`,
	`update my age to (\d+)`,
	`i turned (\d+)`,
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// ParseProfileUpdates extracts attribute changes stated in a chat message and
// applies them to a copy of profile. It returns the updated profile and a
// human-readable description of each change; an empty slice means the message
// carried no updates.
func ParseProfileUpdates(profile models.UserProfile, text string) (models.UserProfile, []string) {
	lower := strings.ToLower(text)
	var changes []string

	if v, ok := firstNumber(lower, weightPatterns); ok && v >= 30 && v <= 300 {
		profile.WeightKG = v
		changes = append(changes, fmt.Sprintf("weight set to %.1f kg", v))
	}
	if v, ok := firstNumber(lower, heightPatterns); ok && v >= 100 && v <= 250 {
		profile.HeightCM = v
		changes = append(changes, fmt.Sprintf("height set to %.1f cm", v))
	}
	if v, ok := firstNumber(lower, agePatterns); ok {
		if age := int(v); age >= 12 && age <= 120 {
			profile.Age = age
			changes = append(changes, fmt.Sprintf("age set to %d", age))
		}
	}

	if goal, ok := matchGoal(lower); ok && goal != profile.FitnessGoal {
		profile.FitnessGoal = goal
		changes = append(changes, "fitness goal set to "+goal)
	}
	if pref, ok := matchDietaryPreference(lower); ok && pref != profile.DietaryPreference {
		profile.DietaryPreference = pref
		changes = append(changes, "dietary preference set to "+pref)
	}

	return profile, changes
}

func firstNumber(text string, patterns []*regexp.Regexp) (float64, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

func matchGoal(text string) (string, bool) {
	switch {
	case strings.Contains(text, "lose weight") || strings.Contains(text, "losing weight") || strings.Contains(text, "weight loss"):
		return "Weight Loss", true
	case strings.Contains(text, "build muscle") || strings.Contains(text, "gaining muscle") || strings.Contains(text, "muscle gain"):
		return "Muscle Gain", true
	case strings.Contains(text, "endurance") || strings.Contains(text, "stamina"):
		return "Endurance", true
	}
	return "", false
}

func matchDietaryPreference(text string) (string, bool) {
	switch {
	case strings.Contains(text, "vegan") || strings.Contains(text, "plant-based"):
		return "Vegan", true
	case strings.Contains(text, "vegetarian"):
		return "Vegetarian", true
	case strings.Contains(text, "non-vegetarian") || strings.Contains(text, "omnivore"):
		return "Non-vegetarian", true
	}
	return "", false
}
