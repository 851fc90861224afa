package storage

import (
	"database/sql"
	"errors"

	"modernc.org/sqlite"

	"github.com/psps16/fitness-ai/internal/models"
)

const sqliteConstraintUnique = 2067

// CreateUser inserts a new account with its completed profile. Profiles are
// only ever written whole; onboarding must finish before this is called.
func (s *Store) CreateUser(user models.User) error {
	stmt, err := s.db.Prepare(`INSERT INTO users
		(id, username, password_hash, name, age, height_cm, weight_kg,
		 activity_level, fitness_goal, dietary_preference, blood_group)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		user.ID, user.Username, user.PasswordHash,
		user.Profile.Name, user.Profile.Age,
		user.Profile.HeightCM, user.Profile.WeightKG,
		user.Profile.ActivityLevel, user.Profile.FitnessGoal,
		user.Profile.DietaryPreference, nullable(user.Profile.BloodGroup),
	)
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqliteConstraintUnique {
			return ErrUsernameExists
		}
		return err
	}
	return nil
}

// GetUserByUsername loads an account and its profile. Returns ErrNotFound for
// unknown usernames.
func (s *Store) GetUserByUsername(username string) (models.User, error) {
	var user models.User
	var bloodGroup sql.NullString

	row := s.db.QueryRow(`SELECT id, username, password_hash, name, age,
		height_cm, weight_kg, activity_level, fitness_goal, dietary_preference,
		blood_group
		FROM users WHERE username = ?`, username)

	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash,
		&user.Profile.Name, &user.Profile.Age,
		&user.Profile.HeightCM, &user.Profile.WeightKG,
		&user.Profile.ActivityLevel, &user.Profile.FitnessGoal,
		&user.Profile.DietaryPreference, &bloodGroup,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user, ErrNotFound
		}
		return user, err
	}
	if bloodGroup.Valid {
		user.Profile.BloodGroup = bloodGroup.String
	}
	return user, nil
}

// UpdateProfile overwrites the stored profile attributes for userID. Derived
// values (BMI) are not stored, so they follow automatically.
func (s *Store) UpdateProfile(userID string, profile models.UserProfile) error {
	stmt, err := s.db.Prepare(`UPDATE users SET
		name = ?, age = ?, height_cm = ?, weight_kg = ?,
		activity_level = ?, fitness_goal = ?, dietary_preference = ?, blood_group = ?
		WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(
		profile.Name, profile.Age, profile.HeightCM, profile.WeightKG,
		profile.ActivityLevel, profile.FitnessGoal, profile.DietaryPreference,
		nullable(profile.BloodGroup), userID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
