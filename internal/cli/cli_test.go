package cli_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"listTracker/internal/app"
	"listTracker/internal/cli"
	"listTracker/internal/client"
	"listTracker/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "cli-secret"

func newServer(t *testing.T) string {
	t.Helper()

	cfg := config.Default()
	cfg.Auth.Secret = secret
	cfg.Worker.Enabled = false
	cfg.Server.RateLimit = 0
	cfg.Logging.Development = false
	cfg.Logging.Level = "error"

	a := app.New(cfg)
	require.NoError(t, a.Init(context.Background()))
	t.Cleanup(a.Close)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// TestCLI_Flow тестирует сценарий: токен, список, секция, элементы, перестановка, удаление секции
func TestCLI_Flow(t *testing.T) {
	server := newServer(t)

	out, err := run(t, "", "token", "--username", "anna", "--secret", secret)
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	base := []string{"--server", server, "--token", token}
	with := func(args ...string) []string {
		return append(append([]string{}, args...), base...)
	}

	out, err = run(t, "", with("list", "create", "Groceries")...)
	require.NoError(t, err)
	listID, err := uuid.Parse(strings.TrimSpace(out))
	require.NoError(t, err)

	out, err = run(t, "", with("section", "add", listID.String(), "Todo")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Todo (0)")

	c := client.New(server, token)
	l, err := c.GetList(context.Background(), listID)
	require.NoError(t, err)
	require.Len(t, l.Sections, 1)
	sectionID := l.Sections[0].ID.String()

	for _, name := range []string{"Milk", "Bread", "Eggs"} {
		_, err = run(t, "", with("item", "add", listID.String(), sectionID, name)...)
		require.NoError(t, err)
	}

	l, err = c.GetList(context.Background(), listID)
	require.NoError(t, err)
	items := l.Sections[0].Items
	require.Len(t, items, 3)
	var eggs uuid.UUID
	for _, it := range items {
		if it.Name == "Eggs" {
			eggs = it.ID
		}
	}

	out, err = run(t, "", with("item", "move", listID.String(), eggs.String(), "0")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Eggs")

	l, err = c.GetList(context.Background(), listID)
	require.NoError(t, err)
	_, moved := l.FindItem(eggs)
	require.NotNil(t, moved)
	assert.Equal(t, 0, moved.SectionIndex)

	_, err = run(t, "", with("item", "status", listID.String(), eggs.String(), "Done")...)
	assert.ErrorIs(t, err, cli.ErrActionFailed)

	out, err = run(t, "n\n", with("section", "delete", listID.String(), sectionID)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Отменено")

	l, err = c.GetList(context.Background(), listID)
	require.NoError(t, err)
	assert.Len(t, l.Sections, 1)

	out, err = run(t, "y\n", with("section", "delete", listID.String(), sectionID)...)
	require.NoError(t, err)
	assert.Contains(t, out, "3 элементами")

	l, err = c.GetList(context.Background(), listID)
	require.NoError(t, err)
	assert.Empty(t, l.Sections)
}

// TestCLI_BadArguments тестирует разбор аргументов
func TestCLI_BadArguments(t *testing.T) {
	_, err := run(t, "", "item", "delete", "not-a-uuid", uuid.NewString(), "--server", "http://127.0.0.1:1")
	assert.Error(t, err)

	_, err = run(t, "", "token", "--secret", secret)
	assert.Error(t, err)

	_, err = run(t, "", "item", "move", uuid.NewString(), uuid.NewString())
	assert.Error(t, err)
}
