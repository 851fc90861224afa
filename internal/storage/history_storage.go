package storage

import (
	"time"

	"github.com/psps16/fitness-ai/internal/models"
)

// AppendMessages appends entries to the user's history in the given order,
// inside one transaction so a chat turn is recorded whole or not at all.
// History rows are never updated or deleted.
func (s *Store) AppendMessages(userID string, messages ...models.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO history (user_id, role, text, created_at)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, m := range messages {
		at := m.CreatedAt
		if at.IsZero() {
			at = time.Now()
		}
		if _, err := stmt.Exec(userID, m.Role, m.Text, at.UTC().Format(time.RFC3339Nano)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecentMessages returns the last n history entries for userID in
// chronological order. An empty history returns an empty slice, not an error.
func (s *Store) RecentMessages(userID string, n int) ([]models.Message, error) {
	rows, err := s.db.Query(`SELECT id, user_id, role, text, created_at
		FROM (SELECT * FROM history WHERE user_id = ? ORDER BY id DESC LIMIT ?)
		ORDER BY id ASC`, userID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var created string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Text, &created); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
