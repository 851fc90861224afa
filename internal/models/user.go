package models

import "math"

// MCQ option sets presented during onboarding and profile updates.
var (
	ActivityLevels     = []string{"Sedentary", "Moderate", "Active"}
	FitnessGoals       = []string{"Weight Loss", "Muscle Gain", "Endurance"}
	DietaryPreferences = []string{"Vegan", "Vegetarian", "Non-vegetarian"}
)

// User is a registered account. The password hash never leaves the storage
// layer except through the auth verifier.
type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"`
	Profile      UserProfile `json:"profile"`
}

// UserProfile holds the raw attributes collected at onboarding. BMI and its
// category are derived on demand from the latest weight/height and are never
// persisted, so they cannot go stale.
type UserProfile struct {
	Name              string  `json:"name"`
	Age               int     `json:"age"`
	HeightCM          float64 `json:"height_cm"`
	WeightKG          float64 `json:"weight_kg"`
	ActivityLevel     string  `json:"activity_level"`
	FitnessGoal       string  `json:"fitness_goal"`
	DietaryPreference string  `json:"dietary_preference"`
	BloodGroup        string  `json:"blood_group,omitempty"`
}

// BMI returns weight / height² in canonical units, rounded to two decimals.
func (p UserProfile) BMI() float64 {
	if p.HeightCM <= 0 {
		return 0
	}
	heightM := p.HeightCM / 100
	return math.Round(p.WeightKG/(heightM*heightM)*100) / 100
}

// BMICategory maps the computed BMI onto the standard WHO bands.
func (p UserProfile) BMICategory() string {
	bmi := p.BMI()
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

// ValidOption reports whether value is one of the given MCQ options.
func ValidOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
