package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psps16/fitness-ai/internal/models"
	"github.com/psps16/fitness-ai/internal/storage"
)

func testVerifier(t *testing.T) *Verifier {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "auth_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewVerifier(store)
}

func testProfile() models.UserProfile {
	return models.UserProfile{
		Name: "Alice", Age: 30, HeightCM: 175, WeightKG: 70,
		ActivityLevel: "Moderate", FitnessGoal: "Weight Loss", DietaryPreference: "Vegan",
	}
}

func TestRegisterAndVerify(t *testing.T) {
	v := testVerifier(t)

	user, err := v.Register("alice", "hunter2", testProfile())
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "hunter2", user.PasswordHash, "secret must be stored hashed")

	got, err := v.Verify("alice", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Alice", got.Profile.Name)
}

func TestVerifyWrongPassword(t *testing.T) {
	v := testVerifier(t)
	_, err := v.Register("alice", "hunter2", testProfile())
	require.NoError(t, err)

	_, err = v.Verify("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyUnknownUser(t *testing.T) {
	v := testVerifier(t)
	_, err := v.Verify("nobody", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyEmptyCredentials(t *testing.T) {
	v := testVerifier(t)
	_, err := v.Verify("", "pw")
	assert.ErrorIs(t, err, ErrEmptyCredentials)
	_, err = v.Verify("alice", "")
	assert.ErrorIs(t, err, ErrEmptyCredentials)
}

func TestExists(t *testing.T) {
	v := testVerifier(t)
	ok, err := v.Exists("alice")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = v.Register("alice", "hunter2", testProfile())
	require.NoError(t, err)

	ok, err = v.Exists("alice")
	require.NoError(t, err)
	assert.True(t, ok)
}
