package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/store"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/testutil"
)

// seedCard stores the sample card for user 42 and returns the database path.
func seedCard(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cards.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	_, err = st.Insert(context.Background(), 42, testutil.SampleCard())
	require.NoError(t, err)
	require.NoError(t, st.Close())
	return path
}

func TestCardShow(t *testing.T) {
	isolateEnv(t)
	db := seedCard(t)

	out, _, err := execute(t, "", "card", "show", "--db", db, "--user", "42")
	require.NoError(t, err)

	assert.Contains(t, out, "💎 SMART VIZITKA")
	assert.Contains(t, out, "👤 Ali Valiyev")
	assert.Contains(t, out, "📍 Manzil: Tashkent")
	assert.NotContains(t, out, "<b>")
}

func TestCardShareJSON(t *testing.T) {
	isolateEnv(t)
	db := seedCard(t)

	out, _, err := execute(t, "", "--format", "json", "card", "share", "--db", db, "--user", "42")
	require.NoError(t, err)

	var response struct {
		Status string   `json:"status"`
		Data   CardView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.EqualValues(t, 42, response.Data.UserID)
	assert.Equal(t, "Ali", response.Data.Name)
	assert.Equal(t, "ali_v", response.Data.Instagram)
	assert.Contains(t, response.Data.Text, "📞 +998901234567")
}

func TestCardNoCard(t *testing.T) {
	isolateEnv(t)
	db := seedCard(t)

	out, _, err := execute(t, "", "card", "show", "--db", db, "--user", "7")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNoCard)
	assert.Contains(t, out, "user 7 has no card")
}

func TestCardRequiresUser(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "", "card", "show", "--db", seedCard(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "user" not set`)
}
