// Package cli implements foiactl, the operator command line.  Commands run
// in-process against the store named in the configuration; without a
// postgres section that is the in-memory store, which is enough for calendar
// arithmetic and one-shot experiments.
package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/foia-tracker/internal/bootstrap"
	"github.com/turtacn/foia-tracker/internal/config"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/pkg/errors"
	"github.com/turtacn/foia-tracker/pkg/types/common"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Timeout      time.Duration
	Actor        string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Infra        *bootstrap.Infrastructure
	Services     *bootstrap.Services
	OutputFormat string
	Timeout      time.Duration
	Actor        string

	owned bool
}

// WithCLIContext attaches prebuilt dependencies to ctx.  A command executed
// with such a context skips configuration and bootstrap entirely.
func WithCLIContext(ctx context.Context, c *CLIContext) context.Context {
	return context.WithValue(ctx, cliContextKey{}, c)
}

// NewRootCommand creates the root cobra command with all global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "foiactl",
		Short: "foiactl tracks public-records requests, deadlines, alerts and appeals",
		Long: "foiactl drives the records-request tracker from the command line: register\n" +
			"requests, record agency responses, run alert scans, generate appeals, and\n" +
			"compute statutory deadlines for US FOIA, India RTI, UK FOIA and EU 1049/2001.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c, err := GetCLIContext(cmd); err == nil && c.owned && c.Infra != nil {
				c.Infra.Close()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./config.yaml, ~/.foia/config.yaml, /etc/foia/config.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "table", "output format (table, json)")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "per-command timeout")
	pf.StringVar(&opts.Actor, "actor", "foiactl", "name recorded in request and appeal history")

	cmd.AddCommand(
		NewRequestCmd(),
		NewAlertsCmd(),
		NewAppealCmd(),
		NewCalendarCmd(),
	)
	return cmd
}

// persistentPreRun initializes config, logger and services, then stores the
// CLIContext.  A CLIContext already present on the command is kept as is.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	if _, err := GetCLIContext(cmd); err == nil {
		return nil
	}

	switch strings.ToLower(opts.OutputFormat) {
	case "table", "json":
	default:
		return errors.InvalidParam("unsupported output format").WithDetail(opts.OutputFormat)
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	infra, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	svcs, err := infra.Services()
	if err != nil {
		infra.Close()
		return err
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		Infra:        infra,
		Services:     svcs,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Timeout:      opts.Timeout,
		Actor:        opts.Actor,
		owned:        true,
	}
	cmd.SetContext(WithCLIContext(ctx, cliCtx))
	return nil
}

// initConfig loads configuration with priority: env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.LoadFromFile(opts.ConfigPath)
	}

	searchPaths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".foia"))
	}
	searchPaths = append(searchPaths, "/etc/foia")

	cfg, err := config.Load(config.WithSearchPaths(searchPaths...))
	if stderrors.Is(err, config.ErrConfigFileNotFound) {
		return config.LoadFromEnv()
	}
	return cfg, err
}

// initLogger creates a logger configured for CLI usage (output to stderr).
func initLogger(opts *RootOptions) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:            strings.ToLower(opts.LogLevel),
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}

	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// commandContext derives the per-command context: the global timeout and the
// actor recorded in history entries.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc, *CLIContext, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx := context.WithValue(cmd.Context(), common.ContextKeyActor, cliCtx.Actor)
	if cliCtx.Timeout > 0 {
		c, cancel := context.WithTimeout(ctx, cliCtx.Timeout)
		return c, cancel, cliCtx, nil
	}
	c, cancel := context.WithCancel(ctx)
	return c, cancel, cliCtx, nil
}

// now is the clock the services were built with.
func (c *CLIContext) now() time.Time {
	if c.Infra != nil && c.Infra.Clock != nil {
		return c.Infra.Clock.Now()
	}
	return time.Now()
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// tableProvider is implemented by results that render as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult outputs data in the format specified by CLIContext.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil || cliCtx.OutputFormat == "json" {
		return printJSON(cmd, data)
	}
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
		return nil
	}
	return printJSON(cmd, data)
}

// printJSON outputs data as indented JSON to stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error [%s]: %s\n", appErr.Code, appErr.Message)
		if appErr.Detail != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", appErr.Detail)
		}
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// PrintSuccess writes a formatted success message to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			if i == len(headers)-1 {
				sb.WriteString(val)
			} else {
				sb.WriteString(padRight(val, colWidths[i]))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(colWidths))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

// padRight pads s with spaces to the given width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDate prints a calendar date, or "-" for the zero time.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(common.DateLayout)
}

//Personal.AI order the ending
