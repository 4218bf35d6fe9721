package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file should be created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='users'",
	).Scan(&name)
	require.NoError(t, err, "users table should exist after repeated opens")
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestOpen_MigratesLegacyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// A database created by the first bot release: table only, version 0.
	legacy, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = legacy.Exec(schemaSQL)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO users (tg_id, name, surname, location, phone, instagram, profession)
		VALUES (7, 'Ali', 'Valiyev', 'Tashkent', '+998901234567', 'ali_v', 'Engineer')`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assertPragma(t, s, "user_version", "1")

	var idx string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_users_tg_id_id'",
	).Scan(&idx)
	require.NoError(t, err, "migration should add the lookup index")

	count, err := s.Count(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "existing rows survive migration")
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	assert.NoError(t, s.Close())
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)

	db := s.DB()
	require.NotNil(t, db)
	assert.NoError(t, db.Ping())
}

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)
	assertPragma(t, s, "journal_mode", "wal")
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)
	// NORMAL = 1
	assertPragma(t, s, "synchronous", "1")
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)
	assertPragma(t, s, "busy_timeout", "5000")
}
