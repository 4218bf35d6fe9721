package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRunsConversation(t *testing.T) {
	isolateEnv(t)
	db := filepath.Join(t.TempDir(), "chat.db")

	out, _, err := execute(t, "/start\n!1\nAli\n/quit\n", "chat", "--db", db)
	require.NoError(t, err)

	assert.Contains(t, out, "Chatting as user 1.")
	assert.Contains(t, out, "SMART VIZITKA BOT")
	assert.Contains(t, out, "Ismingizni kiriting")
	assert.Contains(t, out, "Familyangizni kiriting")
	assert.NotContains(t, out, "<b>", "markup is stripped for the terminal")
}

func TestChatRejectsZeroUser(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "", "chat", "--user", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestChatPersistsCards(t *testing.T) {
	isolateEnv(t)
	db := filepath.Join(t.TempDir(), "chat.db")

	input := "!create\nAli\nValiyev\nTashkent\n+998901234567\n@ali_v\nEngineer\n/quit\n"
	out, _, err := execute(t, input, "chat", "--db", db, "--user", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "Chatting as user 42.")

	out, _, err = execute(t, "", "card", "share", "--db", db, "--user", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "👤 Ali Valiyev")
	assert.Contains(t, out, "📸 instagram.com/ali_v")
}
