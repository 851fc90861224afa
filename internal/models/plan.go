package models

import "time"

// PlanKind selects one of the two plan slots every user owns.
type PlanKind string

const (
	PlanWorkout PlanKind = "workout"
	PlanDiet    PlanKind = "diet"
)

func (k PlanKind) Valid() bool {
	return k == PlanWorkout || k == PlanDiet
}

// Title returns the kind as a display heading.
func (k PlanKind) Title() string {
	switch k {
	case PlanWorkout:
		return "Workout Plan"
	case PlanDiet:
		return "Diet Plan"
	}
	return string(k)
}

// Plan is the current recommendation artifact of one kind for one user.
// Exactly one current plan exists per (user, kind); Revision increases by one
// on every regeneration so staleness is detectable.
type Plan struct {
	UserID      string    `json:"user_id"`
	Kind        PlanKind  `json:"kind"`
	Revision    int64     `json:"revision"`
	Body        string    `json:"body"`
	LastUpdated time.Time `json:"last_updated"`
}
