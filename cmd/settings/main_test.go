package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/headless-comments-api/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	calls []string
	err   error
}

func (m *fakeMigrator) RunMigrations(path string) error {
	m.calls = append(m.calls, "up "+path)
	return m.err
}

func (m *fakeMigrator) MigrateDown(path string) error {
	m.calls = append(m.calls, "down "+path)
	return m.err
}

func (m *fakeMigrator) MigrateToVersion(path string, version uint) error {
	m.calls = append(m.calls, fmt.Sprintf("to %s %d", path, version))
	return m.err
}

type cliEnv struct {
	settings *mocks.MockSettingsService
	migrator *fakeMigrator
	connects int
	closes   int
}

func newCLIEnv() *cliEnv {
	return &cliEnv{
		settings: mocks.NewMockSettingsService("stored-key", "http://localhost:4321"),
		migrator: &fakeMigrator{},
	}
}

func (e *cliEnv) connect() (*backend, func(), error) {
	e.connects++
	return &backend{settings: e.settings, migrator: e.migrator, migrationsPath: "./migrations"},
		func() { e.closes++ }, nil
}

// execute runs the CLI with args and returns stdout
func (e *cliEnv) execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(e.connect)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestShow(t *testing.T) {
	env := newCLIEnv()
	out, err := env.execute(t, "", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "api_key:         stored-key")
	assert.Contains(t, out, "spam_check:      true")
	assert.Contains(t, out, "allowed_origins: http://localhost:4321")
	assert.Equal(t, 1, env.connects)
	assert.Equal(t, 1, env.closes, "connection must be closed after the command")
}

func TestSetAPIKey(t *testing.T) {
	env := newCLIEnv()
	out, err := env.execute(t, "", "set-api-key", "new-key")
	require.NoError(t, err)
	assert.Equal(t, "API key updated\n", out)
	assert.Equal(t, "new-key", env.settings.Settings.APIKey)

	_, err = env.execute(t, "", "set-api-key")
	assert.Error(t, err, "missing key argument")
}

func TestRotateAPIKey(t *testing.T) {
	env := newCLIEnv()
	out, err := env.execute(t, "", "rotate-api-key")
	require.NoError(t, err)
	assert.Equal(t, "rotated-key\n", out)
}

func TestSetOrigins(t *testing.T) {
	env := newCLIEnv()
	out, err := env.execute(t, "", "set-origins", "https://a.example.com\nhttps://b.example.com")
	require.NoError(t, err)
	assert.Equal(t, "2 allowed origin(s) stored\n", out)

	out, err = env.execute(t, "https://c.example.com\r\n\r\n  https://d.example.com  \n", "set-origins", "-")
	require.NoError(t, err)
	assert.Equal(t, "2 allowed origin(s) stored\n", out)
	assert.Equal(t, []string{"https://c.example.com", "https://d.example.com"}, env.settings.Settings.AllowedOrigins)
}

func TestSetSpamCheck(t *testing.T) {
	env := newCLIEnv()
	_, err := env.execute(t, "", "set-spam-check", "off")
	require.NoError(t, err)
	assert.False(t, env.settings.Settings.SpamCheck)

	_, err = env.execute(t, "", "set-spam-check", "maybe")
	assert.Error(t, err)
	assert.False(t, env.settings.Settings.SpamCheck)
}

func TestMigrations(t *testing.T) {
	env := newCLIEnv()
	_, err := env.execute(t, "", "migrate")
	require.NoError(t, err)
	_, err = env.execute(t, "", "migrate-down")
	require.NoError(t, err)
	_, err = env.execute(t, "", "migrate-to", "2")
	require.NoError(t, err)

	assert.Equal(t, []string{"up ./migrations", "down ./migrations", "to ./migrations 2"}, env.migrator.calls)

	_, err = env.execute(t, "", "migrate-to", "latest")
	assert.Error(t, err)
}

func TestMigrationError(t *testing.T) {
	env := newCLIEnv()
	env.migrator.err = errors.New("dirty database")

	_, err := env.execute(t, "", "migrate")
	assert.EqualError(t, err, "dirty database")
}

func TestTimeoutFlag(t *testing.T) {
	env := newCLIEnv()
	_, err := env.execute(t, "", "--timeout", "2s", "show")
	assert.NoError(t, err)

	_, err = env.execute(t, "", "--timeout", "soon", "show")
	assert.Error(t, err)
}

func TestArgumentErrorsSkipConnect(t *testing.T) {
	env := newCLIEnv()

	_, err := env.execute(t, "", "unknown-command")
	assert.Error(t, err)
	_, err = env.execute(t, "", "show", "extra")
	assert.Error(t, err)
	assert.Equal(t, 0, env.connects)
}

func TestParseSwitch(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{" ON ", true, false},
		{"1", true, false},
		{"off", false, false},
		{"no", false, false},
		{"maybe", false, true},
	}

	for _, tt := range tests {
		got, err := parseSwitch(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSwitch(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSwitch(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
