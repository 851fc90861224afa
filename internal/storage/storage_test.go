package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psps16/fitness-ai/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "fitai_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testUser() models.User {
	return models.User{
		ID:           "u-1",
		Username:     "alice",
		PasswordHash: "x",
		Profile: models.UserProfile{
			Name:              "Alice",
			Age:               30,
			HeightCM:          175,
			WeightKG:          70,
			ActivityLevel:     "Moderate",
			FitnessGoal:       "Weight Loss",
			DietaryPreference: "Vegetarian",
		},
	}
}

func TestUserRoundTrip(t *testing.T) {
	store := testStore(t)
	user := testUser()
	require.NoError(t, store.CreateUser(user))

	got, err := store.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestGetUserNotFound(t *testing.T) {
	store := testStore(t)
	_, err := store.GetUserByUsername("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateUsername(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.CreateUser(testUser()))

	dup := testUser()
	dup.ID = "u-2"
	assert.ErrorIs(t, store.CreateUser(dup), ErrUsernameExists)
}

func TestUpdateProfile(t *testing.T) {
	store := testStore(t)
	user := testUser()
	require.NoError(t, store.CreateUser(user))

	user.Profile.WeightKG = 68
	user.Profile.FitnessGoal = "Endurance"
	require.NoError(t, store.UpdateProfile(user.ID, user.Profile))

	got, err := store.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, 68.0, got.Profile.WeightKG)
	assert.Equal(t, "Endurance", got.Profile.FitnessGoal)

	assert.ErrorIs(t, store.UpdateProfile("missing", user.Profile), ErrNotFound)
}

func TestPlanRevisionsMonotonic(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.CreateUser(testUser()))

	plan := models.Plan{
		UserID:      "u-1",
		Kind:        models.PlanWorkout,
		Revision:    1,
		Body:        "## Week 1",
		LastUpdated: time.Now(),
	}
	require.NoError(t, store.SavePlan(plan))

	// A second initial write must not clobber the slot.
	assert.ErrorIs(t, store.SavePlan(plan), ErrRevisionConflict)

	plan.Revision = 2
	plan.Body = "## Week 1, easier"
	require.NoError(t, store.SavePlan(plan))

	got, err := store.GetPlan("u-1", models.PlanWorkout)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Revision)
	assert.Equal(t, "## Week 1, easier", got.Body)

	// Writing from a stale read (revision 2 again) is rejected.
	assert.ErrorIs(t, store.SavePlan(plan), ErrRevisionConflict)

	// Skipping a revision means the expected previous slot does not match.
	plan.Revision = 5
	assert.ErrorIs(t, store.SavePlan(plan), ErrRevisionConflict)
}

func TestPlanSlotsIndependentPerKind(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.CreateUser(testUser()))

	for _, kind := range []models.PlanKind{models.PlanWorkout, models.PlanDiet} {
		require.NoError(t, store.SavePlan(models.Plan{
			UserID: "u-1", Kind: kind, Revision: 1, Body: string(kind), LastUpdated: time.Now(),
		}))
	}
	require.NoError(t, store.SavePlan(models.Plan{
		UserID: "u-1", Kind: models.PlanWorkout, Revision: 2, Body: "w2", LastUpdated: time.Now(),
	}))

	workout, err := store.GetPlan("u-1", models.PlanWorkout)
	require.NoError(t, err)
	diet, err := store.GetPlan("u-1", models.PlanDiet)
	require.NoError(t, err)
	assert.Equal(t, int64(2), workout.Revision)
	assert.Equal(t, int64(1), diet.Revision)
}

func TestGetPlanNotFound(t *testing.T) {
	store := testStore(t)
	_, err := store.GetPlan("u-1", models.PlanDiet)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryAppendOnlyOrdered(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.CreateUser(testUser()))

	require.NoError(t, store.AppendMessages("u-1",
		models.Message{Role: models.RoleUser, Text: "hello"},
		models.Message{Role: models.RoleAssistant, Text: "hi Alice"},
	))

	first, err := store.RecentMessages("u-1", 10)
	require.NoError(t, err)
	require.Len(t, first, 2)

	require.NoError(t, store.AppendMessages("u-1",
		models.Message{Role: models.RoleUser, Text: "how much protein?"},
		models.Message{Role: models.RoleAssistant, Text: "about 1.6 g/kg"},
	))

	all, err := store.RecentMessages("u-1", 10)
	require.NoError(t, err)
	require.Len(t, all, 4)

	// Previously appended entries are a prefix of the current log.
	for i, m := range first {
		assert.Equal(t, m.ID, all[i].ID)
		assert.Equal(t, m.Text, all[i].Text)
	}

	// recent(n) keeps chronological order and takes the tail.
	last2, err := store.RecentMessages("u-1", 2)
	require.NoError(t, err)
	require.Len(t, last2, 2)
	assert.Equal(t, "how much protein?", last2[0].Text)
	assert.Equal(t, "about 1.6 g/kg", last2[1].Text)
}

func TestHistoryEmptyForNewUser(t *testing.T) {
	store := testStore(t)
	msgs, err := store.RecentMessages("u-1", 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
