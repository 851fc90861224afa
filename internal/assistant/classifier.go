package assistant

import (
	"strings"

	"github.com/psps16/fitness-ai/internal/models"
)

// FeedbackClassifier decides which plan kinds, if any, a chat message asks to
// change. The exact heuristic is a pluggable capability; the controller only
// depends on this interface.
type FeedbackClassifier interface {
	Classify(text string) []models.PlanKind
}

// KeywordClassifier is the default heuristic: a message is plan-affecting when
// it contains an explicit change intent and names a plan domain. Intent alone
// is not enough; silently regenerating a plan the user did not point at would
// be worse than missing a hint.
type KeywordClassifier struct{}

var intentPhrases = []string{
	"too hard", "too easy", "too intense", "too difficult", "too light",
	"make it easier", "make it harder", "tone it down",
	"change", "adjust", "revise", "modify", "swap", "replace",
	"can't do", "cannot do", "don't like", "do not like", "instead of",
	"fewer ", "reduce", "increase",
}

var workoutWords = []string{
	"workout", "exercise", "training", "gym", "cardio", "reps", "sets",
	"squat", "push-up", "pushup", "lift",
}

var dietWords = []string{
	"diet", "meal", "food", "eat", "calorie", "protein", "carb",
	"breakfast", "lunch", "dinner", "snack",
}

func (KeywordClassifier) Classify(text string) []models.PlanKind {
	lower := strings.ToLower(text)

	intent := false
	for _, phrase := range intentPhrases {
		if strings.Contains(lower, phrase) {
			intent = true
			break
		}
	}
	if !intent {
		return nil
	}

	var kinds []models.PlanKind
	if containsAny(lower, workoutWords) {
		kinds = append(kinds, models.PlanWorkout)
	}
	if containsAny(lower, dietWords) {
		kinds = append(kinds, models.PlanDiet)
	}
	return kinds
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
