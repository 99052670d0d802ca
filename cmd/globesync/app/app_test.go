package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakatlas/globesync/pkg/constants"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New("test", "none", "now")
	require.NoError(t, err)
	// Keep test databases out of the working directory.
	a.config.SQLitePath = filepath.Join(t.TempDir(), "app.db")
	return a
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultListenAddr, config.ListenAddr)
	assert.Equal(t, constants.DefaultPollInterval, config.PollInterval)
	assert.Equal(t, constants.DefaultWorkerInterval, config.WorkerInterval)
	assert.NotEmpty(t, config.SQLitePath)
}

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   zerolog.Level
	}{
		{"default", Config{}, zerolog.InfoLevel},
		{"verbose", Config{Verbose: true}, zerolog.DebugLevel},
		{"quiet", Config{Quiet: true}, zerolog.WarnLevel},
		{"quiet wins over verbose", Config{Verbose: true, Quiet: true}, zerolog.WarnLevel},
		{"explicit level", Config{LogLevel: "error", Verbose: true}, zerolog.ErrorLevel},
		{"invalid level falls back", Config{LogLevel: "shouty"}, zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineLogLevel(&tt.config))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	a := newTestApp(t)

	var out bytes.Buffer
	cmd := a.NewVersionCommand()
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	assert.Contains(t, out.String(), "globesync test")
}

func TestSeedAndTablesCommands(t *testing.T) {
	a := newTestApp(t)

	seedYAML := `tables:
  - name: ski_resorts
    rows:
      - name: Whistler Blackcomb
        country: Canada
        longitude: -122.95
        latitude: 50.11
      - name: Revelstoke
        country: Canada
`
	seedPath := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(seedYAML), 0o644))

	seedCmd := a.NewSeedCommand()
	seedCmd.SetArgs([]string{seedPath})
	require.NoError(t, seedCmd.ExecuteContext(context.Background()))

	var out bytes.Buffer
	tablesCmd := a.NewTablesCommand()
	tablesCmd.SetOut(&out)
	require.NoError(t, tablesCmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "ski_resorts")
	assert.Contains(t, out.String(), "1") // one feature, one pending
}
