package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
)

// GetLatest returns the card with the highest seq for userID.
// found is false (and err nil) when the user has no card.
func (s *Store) GetLatest(ctx context.Context, userID card.UserID) (rec card.Record, found bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tg_id,
			COALESCE(name, ''), COALESCE(surname, ''), COALESCE(location, ''),
			COALESCE(phone, ''), COALESCE(instagram, ''), COALESCE(profession, '')
		FROM users
		WHERE tg_id = ?
		ORDER BY id DESC
		LIMIT 1
	`, int64(userID))

	rec, err = scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return card.Record{}, false, nil
	}
	if err != nil {
		return card.Record{}, false, fmt.Errorf("get latest card: %w", err)
	}
	return rec, true, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (card.Record, error) {
	var (
		rec    card.Record
		userID int64
	)
	err := sc.Scan(
		&rec.Seq,
		&userID,
		&rec.Name,
		&rec.Surname,
		&rec.Location,
		&rec.Phone,
		&rec.Instagram,
		&rec.Profession,
	)
	if err != nil {
		return card.Record{}, err
	}
	rec.UserID = card.UserID(userID)
	return rec, nil
}
