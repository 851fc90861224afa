package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/psps16/fitness-ai/internal/models"
)

// GetPlan returns the current plan of the given kind, or ErrNotFound if the
// user has not had one generated yet.
func (s *Store) GetPlan(userID string, kind models.PlanKind) (models.Plan, error) {
	var plan models.Plan
	var updated string

	row := s.db.QueryRow(`SELECT user_id, kind, revision, body, last_updated
		FROM plans WHERE user_id = ? AND kind = ?`, userID, kind)
	err := row.Scan(&plan.UserID, &plan.Kind, &plan.Revision, &plan.Body, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return plan, ErrNotFound
		}
		return plan, err
	}
	plan.LastUpdated, _ = time.Parse(time.RFC3339, updated)
	return plan, nil
}

// SavePlan writes plan into its (user, kind) slot, guarding the monotonic
// revision invariant: the write succeeds only if the slot still holds
// plan.Revision-1 (or is empty and plan.Revision == 1). A mismatch means the
// caller read a stale revision and gets ErrRevisionConflict.
func (s *Store) SavePlan(plan models.Plan) error {
	updated := plan.LastUpdated.UTC().Format(time.RFC3339)

	if plan.Revision == 1 {
		stmt, err := s.db.Prepare(`INSERT INTO plans
			(user_id, kind, revision, body, last_updated)
			SELECT ?, ?, 1, ?, ?
			WHERE NOT EXISTS (SELECT 1 FROM plans WHERE user_id = ? AND kind = ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		res, err := stmt.Exec(plan.UserID, plan.Kind, plan.Body, updated, plan.UserID, plan.Kind)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrRevisionConflict
		}
		return nil
	}

	stmt, err := s.db.Prepare(`UPDATE plans
		SET revision = ?, body = ?, last_updated = ?
		WHERE user_id = ? AND kind = ? AND revision = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	res, err := stmt.Exec(plan.Revision, plan.Body, updated, plan.UserID, plan.Kind, plan.Revision-1)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRevisionConflict
	}
	return nil
}
