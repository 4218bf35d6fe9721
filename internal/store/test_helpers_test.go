package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleCard returns a complete card with recognizable values.
func sampleCard() card.Card {
	return card.Card{
		Name:       "Ali",
		Surname:    "Valiyev",
		Location:   "Tashkent",
		Phone:      "+998901234567",
		Instagram:  "ali_v",
		Profession: "Engineer",
	}
}

func assertPragma(t *testing.T, s *Store, name, want string) {
	t.Helper()
	got, err := s.pragma(name)
	if err != nil {
		t.Fatalf("pragma %s: %v", name, err)
	}
	if got != want {
		t.Errorf("pragma %s = %q, want %q", name, got, want)
	}
}

// cardHistory returns every stored card for userID, oldest first.
// Returns an empty slice (not nil) if the user has no cards.
func cardHistory(ctx context.Context, s *Store, userID card.UserID) ([]card.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tg_id,
			COALESCE(name, ''), COALESCE(surname, ''), COALESCE(location, ''),
			COALESCE(phone, ''), COALESCE(instagram, ''), COALESCE(profession, '')
		FROM users
		WHERE tg_id = ?
		ORDER BY id ASC
	`, int64(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []card.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
