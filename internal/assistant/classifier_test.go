package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/psps16/fitness-ai/internal/models"
)

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		text string
		want []models.PlanKind
	}{
		{"this workout is too intense, make it easier", []models.PlanKind{models.PlanWorkout}},
		{"change my diet, I hate breakfast", []models.PlanKind{models.PlanDiet}},
		{"can you adjust my workout and my meal plan", []models.PlanKind{models.PlanWorkout, models.PlanDiet}},
		{"what's a good source of protein?", nil},              // no change intent
		{"I love my workout!", nil},                            // no change intent
		{"please change everything", nil},                      // intent without a plan domain
		{"swap the squats for lunges", []models.PlanKind{models.PlanWorkout}},
		{"too easy, add more cardio", []models.PlanKind{models.PlanWorkout}},
	}
	c := KeywordClassifier{}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Classify(tt.text), "text: %q", tt.text)
	}
}
