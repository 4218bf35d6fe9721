package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
)

// Insert appends a new card for userID and returns its seq.
// Earlier cards of the same user are kept; the new row becomes the latest.
func (s *Store) Insert(ctx context.Context, userID card.UserID, c card.Card) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users
		(tg_id, name, surname, location, phone, instagram, profession)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		int64(userID),
		c.Name,
		c.Surname,
		c.Location,
		c.Phone,
		c.Instagram,
		c.Profession,
	)
	if err != nil {
		return 0, fmt.Errorf("insert card: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert card: last insert id: %w", err)
	}
	return seq, nil
}

// UpdateField rewrites field f of the latest card for userID in place.
// Returns ErrNoExistingCard if the user has no card; nothing is created.
//
// The lookup and the update run in one transaction so a concurrent Insert
// for the same user cannot slip between them.
func (s *Store) UpdateField(ctx context.Context, userID card.UserID, f card.Field, value string) error {
	// Column panics for a field outside the closed set; that is a bug in
	// the caller, not a runtime condition.
	column := f.Column()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update card: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM users
		WHERE tg_id = ?
		ORDER BY id DESC
		LIMIT 1
	`, int64(userID)).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoExistingCard
	}
	if err != nil {
		return fmt.Errorf("update card: select latest: %w", err)
	}

	// column comes from the closed Field set, never from user input.
	query := fmt.Sprintf("UPDATE users SET %s = ? WHERE id = ?", column)
	if _, err := tx.ExecContext(ctx, query, value, seq); err != nil {
		return fmt.Errorf("update card: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update card: commit: %w", err)
	}
	return nil
}

// Count returns how many cards (including history) userID has.
func (s *Store) Count(ctx context.Context, userID card.UserID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users WHERE tg_id = ?
	`, int64(userID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return count, nil
}
