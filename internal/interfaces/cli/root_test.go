package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foia-tracker/internal/bootstrap"
	"github.com/turtacn/foia-tracker/internal/config"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/internal/testutil"
	"github.com/turtacn/foia-tracker/pkg/errors"
)

// monday is 2025-03-03 10:00 UTC.
var monday = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

func newTestCLI(t *testing.T) (*CLIContext, *testutil.ManualClock) {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Tracker.Store = config.StoreMemory

	clock := testutil.NewManualClock(monday)
	logger := logging.NewNopLogger()
	infra, err := bootstrap.New(context.Background(), cfg, logger, bootstrap.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(infra.Close)

	svcs, err := infra.Services()
	require.NoError(t, err)

	return &CLIContext{
		Config:       cfg,
		Logger:       logger,
		Infra:        infra,
		Services:     svcs,
		OutputFormat: "json",
		Timeout:      5 * time.Second,
		Actor:        "tester",
	}, clock
}

func run(t *testing.T, c *CLIContext, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(WithCLIContext(context.Background(), c))
	return out.String(), err
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "foiactl", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"request", "alerts", "appeal", "calendar"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestNewRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"config", "log-level", "output", "timeout", "actor"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "flag %s", name)
	}
	assert.Equal(t, "table", cmd.PersistentFlags().Lookup("output").DefValue)
	assert.Equal(t, "30s", cmd.PersistentFlags().Lookup("timeout").DefValue)
}

func TestRequestSubcommands(t *testing.T) {
	cmd := NewRequestCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"create", "get", "list", "status", "response", "extend", "note", "overdue", "stats", "confirm"} {
		assert.True(t, names[want], "missing request %s", want)
	}
}

func TestPersistentPreRun_RejectsOutputFormat(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"--output", "xml", "calendar", "holidays", "US-FEDERAL"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetContext(context.Background())
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

func TestFormatTable(t *testing.T) {
	out := FormatTable([]string{"ID", "STATUS"}, [][]string{{"a1", "filed"}, {"b22", "closed"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID   STATUS", lines[0])
	assert.Equal(t, "---  ------", lines[1])
	assert.Equal(t, "a1   filed", lines[2])
	assert.Equal(t, "b22  closed", lines[3])

	assert.Empty(t, FormatTable(nil, nil))
}

func TestPrintResult_TableFallsBackToJSON(t *testing.T) {
	c, _ := newTestCLI(t)
	c.OutputFormat = "table"
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(WithCLIContext(context.Background(), c))

	require.NoError(t, PrintResult(cmd, map[string]int{"n": 1}))
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, 1, decoded["n"])
}

func TestPrintError_AppError(t *testing.T) {
	cmd := NewRootCommand()
	var errOut bytes.Buffer
	cmd.SetErr(&errOut)
	PrintError(cmd, errors.InvalidTransition("closed", "filed"))
	assert.Contains(t, errOut.String(), "TRK_003")

	errOut.Reset()
	PrintError(cmd, nil)
	assert.Empty(t, errOut.String())
}

//Personal.AI order the ending
